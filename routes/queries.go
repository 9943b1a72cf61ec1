package routes

import (
	"context"
	"database/sql"
	"errors"
	"time"

	json "github.com/goccy/go-json"

	"github.com/saveur1/community-system/model"
	"github.com/saveur1/community-system/survey"
)

var errSurveyNotFound = errors.New("survey not found")

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func insertSurvey(ctx context.Context, tx *sql.Tx, p model.CreateSurveyPayload, startAt, endAt time.Time) (int, error) {
	roles := p.AllowedRoles
	if roles == nil {
		roles = []string{}
	}
	rolesJson, err := json.Marshal(roles)
	if err != nil {
		return 0, err
	}
	surveyType := p.SurveyType
	if surveyType == "" {
		surveyType = model.SurveyTypeGeneral
	}

	var surveyId int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO survey (title, description, project_id, estimated_time, survey_type, allowed_roles, start_at, end_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		p.Title,
		p.Description,
		p.ProjectID,
		p.EstimatedTime,
		surveyType,
		string(rolesJson),
		startAt,
		endAt,
	).Scan(&surveyId)
	if err != nil {
		return 0, err
	}

	for i, sec := range p.Sections {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO section (survey_id, id, title, ord) VALUES (?, ?, ?, ?)`,
			surveyId, sec.ID, sec.Title, i+1,
		)
		if err != nil {
			return 0, err
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO question (survey_id, id, section_id, number, type, title, description, required, config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, qp := range p.Questions {
		q := survey.QuestionFromPayload(qp)
		configJson, err := json.Marshal(q)
		if err != nil {
			return 0, err
		}
		_, err = stmt.ExecContext(ctx,
			surveyId, q.ID, q.SectionID, q.QuestionNumber, q.Type, q.Title, q.Description, q.Required, string(configJson),
		)
		if err != nil {
			return 0, err
		}
	}
	return surveyId, nil
}

func scanSurveyHeader(row interface{ Scan(...any) error }, s *model.Survey) error {
	var rolesJson string
	err := row.Scan(
		&s.ID, &s.Title, &s.Description, &s.ProjectID, &s.EstimatedTime,
		&s.SurveyType, &rolesJson, &s.StartAt, &s.EndAt,
	)
	if err != nil {
		return err
	}
	s.AllowedRoles = []string{}
	return json.Unmarshal([]byte(rolesJson), &s.AllowedRoles)
}

const surveyHeaderColumns = `
	s.id, s.title, s.description, s.project_id, s.estimated_time,
	s.survey_type, s.allowed_roles, s.start_at, s.end_at`

func listSurveys(ctx context.Context, db querier) ([]model.Survey, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+surveyHeaderColumns+` FROM survey s ORDER BY s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		s := model.Survey{}
		if err := scanSurveyHeader(rows, &s); err != nil {
			return nil, err
		}
		surveys = append(surveys, s)
	}
	return surveys, rows.Err()
}

// loadSurvey reads a survey with its ordered sections and questions.
func loadSurvey(ctx context.Context, db querier, surveyId int) (model.Survey, error) {
	s := model.Survey{}
	err := scanSurveyHeader(db.QueryRowContext(ctx, `
		SELECT `+surveyHeaderColumns+`
		FROM survey s
		WHERE s.id = ?`,
		surveyId,
	), &s)
	if errors.Is(err, sql.ErrNoRows) {
		return s, errSurveyNotFound
	}
	if err != nil {
		return s, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, title, ord
		FROM section
		WHERE survey_id = ?
		ORDER BY ord`,
		surveyId,
	)
	if err != nil {
		return s, err
	}
	for rows.Next() {
		sec := model.SurveySection{}
		if err := rows.Scan(&sec.ID, &sec.Title, &sec.Order); err != nil {
			rows.Close()
			return s, err
		}
		s.Sections = append(s.Sections, sec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return s, err
	}

	rows, err = db.QueryContext(ctx, `
		SELECT config
		FROM question
		WHERE survey_id = ?
		ORDER BY number, id`,
		surveyId,
	)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var configJson string
		if err := rows.Scan(&configJson); err != nil {
			return s, err
		}
		q := model.Question{}
		if err := json.Unmarshal([]byte(configJson), &q); err != nil {
			return s, err
		}
		s.Questions = append(s.Questions, q)
	}
	return s, rows.Err()
}

func insertSubmission(ctx context.Context, tx *sql.Tx, surveyId int, userID string, answers []model.AnswerPayload) (int, error) {
	var submissionId int
	err := tx.QueryRowContext(ctx, `
		INSERT INTO submission (survey_id, time, user_id) VALUES (?, ?, ?)
		RETURNING id`,
		surveyId,
		time.Now().UTC(),
		userID,
	).Scan(&submissionId)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO submission_answer (submission_id, question_id, value)
		VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, a := range answers {
		valueJson, err := json.Marshal(a.Value)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, submissionId, a.QuestionID, string(valueJson)); err != nil {
			return 0, err
		}
	}
	return submissionId, nil
}

func listSubmissions(ctx context.Context, db querier, surveyId int) ([]model.Submission, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			s.id, s.time, s.user_id,
			a.question_id, q.number, q.title, a.value
		FROM submission s
		LEFT OUTER JOIN submission_answer a ON (s.id = a.submission_id)
		LEFT OUTER JOIN question q ON (q.survey_id = s.survey_id AND q.id = a.question_id)
		WHERE s.survey_id = ?
		ORDER BY s.id, q.number`,
		surveyId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		s := model.Submission{}
		var questionId, number sql.NullInt64
		var title, value sql.NullString

		err = rows.Scan(&s.ID, &s.Time, &s.UserID, &questionId, &number, &title, &value)
		if err != nil {
			return nil, err
		}

		lastIdx := len(submissions) - 1
		if lastIdx < 0 || submissions[lastIdx].ID != s.ID {
			s.Answers = []model.SubmissionAnswer{}
			submissions = append(submissions, s)
			lastIdx++
		}
		if !questionId.Valid {
			continue
		}

		a := model.SubmissionAnswer{
			QuestionID:     questionId.Int64,
			QuestionNumber: int(number.Int64),
			Title:          title.String,
		}
		if err := json.Unmarshal([]byte(value.String), &a.Value); err != nil {
			return nil, err
		}
		submissions[lastIdx].Answers = append(submissions[lastIdx].Answers, a)
	}
	return submissions, rows.Err()
}
