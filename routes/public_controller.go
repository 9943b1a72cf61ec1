package routes

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/saveur1/community-system/app"
	"github.com/saveur1/community-system/httpx"
	"github.com/saveur1/community-system/log"
	"github.com/saveur1/community-system/model"
	"github.com/saveur1/community-system/routes/middlewares"
	"github.com/saveur1/community-system/upload"
)

func PublicGetSurveyById(app app.App) http.HandlerFunc {
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

func PublicSubmitSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		submission := model.SubmitAnswersPayload{}
		err = render.DecodeJSON(r.Body, &submission)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
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

		if len(survey.AllowedRoles) > 0 && !middlewares.HasAnyRole(r, survey.AllowedRoles) {
			if middlewares.User(r) == "" {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "submit.roles.anonymous")
			} else {
				httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "submit.roles.denied")
			}
			return
		}
		if !survey.Open(time.Now()) {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "submit.window", "survey %d is not open", surveyId)
			return
		}

		known := make(map[int64]bool, len(survey.Questions))
		for _, q := range survey.Questions {
			known[q.ID] = true
		}
		for _, a := range submission.Answers {
			if !known[a.QuestionID] {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "submit.answers", "unknown question %d", a.QuestionID)
				return
			}
		}

		userID := submission.UserID
		if user := middlewares.User(r); user != "" {
			userID = user
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		submissionId, err := insertSubmission(r.Context(), tx, surveyId, userID, submission.Answers)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission.commit", err)
			return
		}

		// write response
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": submissionId,
		})
	}
}

func PublicUpload(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := int64(app.MaxUploadMB) << 20
		r.Body = http.MaxBytesReader(w, r.Body, limit)

		err := r.ParseMultipartForm(8 << 20)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httpx.LogStatusMsg(w, http.StatusRequestEntityTooLarge, log.DebugLevel, "upload.size",
					"upload exceeds %s", humanize.IBytes(uint64(limit)))
				return
			}
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_multipart")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.form_file", "missing field %q", "file")
			return
		}
		defer file.Close()

		res, err := app.Uploads.Upload(r.Context(), upload.File{
			Name:    header.Filename,
			Type:    header.Header.Get("Content-Type"),
			Size:    header.Size,
			Content: file,
		}, upload.Options{Folder: r.FormValue("folder")})
		if err != nil {
			httpx.LogInternalError(w, "upload.store", err)
			return
		}

		log.WithFields(log.Fields{
			"publicId": res.PublicID,
			"size":     humanize.IBytes(uint64(res.Bytes)),
		}).Debug("upload stored")
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, res)
	}
}

func PublicDeleteUpload(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		publicId := chi.URLParam(r, "publicId")

		err := app.Uploads.Delete(publicId, r.URL.Query().Get("token"))
		switch {
		case errors.Is(err, upload.ErrInvalidDeleteToken):
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "upload.delete.token")
			return
		case errors.Is(err, upload.ErrFileNotFound):
			httpx.LogNotFound(w, "upload.delete", publicId)
			return
		case err != nil:
			httpx.LogInternalError(w, "upload.delete", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
