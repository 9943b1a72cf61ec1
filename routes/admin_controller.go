package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/saveur1/community-system/app"
	"github.com/saveur1/community-system/draft"
	"github.com/saveur1/community-system/httpx"
	"github.com/saveur1/community-system/log"
	"github.com/saveur1/community-system/model"
	"github.com/saveur1/community-system/routes/middlewares"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := model.CreateSurveyPayload{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		startAt, endAt, err := checkSurveyPayload(payload)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "%s", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		surveyId, err := insertSurvey(r.Context(), tx, payload, startAt, endAt)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey.commit", err)
			return
		}

		log.WithFields(log.Fields{"survey": surveyId, "questions": len(payload.Questions)}).Info("survey created")
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": surveyId,
		})
	}
}

// checkSurveyPayload applies the authoring save rules to an incoming payload
// and parses its availability window.
func checkSurveyPayload(p model.CreateSurveyPayload) (startAt, endAt time.Time, err error) {
	if strings.TrimSpace(p.Title) == "" {
		return startAt, endAt, errors.New("title is required")
	}
	if strings.TrimSpace(p.ProjectID) == "" {
		return startAt, endAt, errors.New("projectId is required")
	}
	if len(p.Questions) == 0 {
		return startAt, endAt, errors.New("at least one question is required")
	}
	startAt, err = time.Parse(time.RFC3339, p.StartAt)
	if err != nil {
		return startAt, endAt, fmt.Errorf("startAt: %w", err)
	}
	endAt, err = time.Parse(time.RFC3339, p.EndAt)
	if err != nil {
		return startAt, endAt, fmt.Errorf("endAt: %w", err)
	}
	if !startAt.Before(endAt) {
		return startAt, endAt, errors.New("startAt must be before endAt")
	}

	sections := make(map[string]bool, len(p.Sections))
	for _, sec := range p.Sections {
		sections[sec.ID] = true
	}
	ids := make(map[int64]bool, len(p.Questions))
	for _, q := range p.Questions {
		if !q.Type.Valid() {
			return startAt, endAt, fmt.Errorf("question %d: unknown type %q", q.ID, q.Type)
		}
		if !sections[q.SectionID] {
			return startAt, endAt, fmt.Errorf("question %d: unknown section %q", q.ID, q.SectionID)
		}
		if q.Type.IsChoice() && len(q.Options) == 0 {
			return startAt, endAt, fmt.Errorf("question %d: needs at least one option", q.ID)
		}
		if ids[q.ID] {
			return startAt, endAt, fmt.Errorf("question %d: duplicate id", q.ID)
		}
		ids[q.ID] = true
	}
	return startAt.UTC(), endAt.UTC(), nil
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := listSurveys(r.Context(), app)
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey, err := loadSurvey(r.Context(), app, surveyId)
		if errors.Is(err, errSurveyNotFound) {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		render.JSON(w, r, survey)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM survey WHERE id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_survey", surveyId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetSurveySubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var exists bool
		err = app.QueryRowContext(r.Context(), `SELECT EXISTS (SELECT 1 FROM survey WHERE id = ?)`, surveyId).Scan(&exists)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions.survey", err)
			return
		}
		if !exists {
			httpx.LogNotFound(w, "get_submissions", surveyId)
			return
		}

		submissions, err := listSubmissions(r.Context(), app, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"submissions": submissions,
		})
	}
}

func draftKey(r *http.Request) string {
	return "author:" + middlewares.User(r)
}

func GetDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := draft.Restore(r.Context(), app.Drafts, draftKey(r))
		switch {
		case errors.Is(err, draft.ErrNotFound):
			httpx.LogNotFound(w, "get_draft", middlewares.User(r))
			return
		case errors.Is(err, draft.ErrUnrecoverable):
			httpx.LogStatusMsg(w, http.StatusGone, log.InfoLevel, "get_draft.unrecoverable", "%s", err)
			return
		case err != nil:
			httpx.LogInternalError(w, "draft.restore", err)
			return
		}

		render.JSON(w, r, rec)
	}
}

func PutDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := model.SurveyDraft{}
		err := render.DecodeJSON(r.Body, &d)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err = draft.Check(d)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "%s", err)
			return
		}

		err = draft.Save(r.Context(), app.Drafts, draftKey(r), d)
		if err != nil {
			httpx.LogInternalError(w, "draft.save", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := app.Drafts.Delete(r.Context(), draftKey(r))
		if err != nil {
			httpx.LogInternalError(w, "draft.delete", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
