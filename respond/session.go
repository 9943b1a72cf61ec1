package respond

import (
	"context"
	"errors"
	"fmt"

	"github.com/saveur1/community-system/model"
	"github.com/saveur1/community-system/upload"
)

var (
	ErrUnknownQuestion = errors.New("unknown question")
	ErrWrongType       = errors.New("operation does not apply to this question type")
	ErrOutOfRange      = errors.New("value out of range")
	ErrNotLastStep     = errors.New("submit is only available on the last step")
	ErrUploadsPending  = errors.New("files are still uploading")
	ErrSubmitted       = errors.New("answers already submitted")
)

// Submitter is the network collaborator that receives the answers.
type Submitter interface {
	SubmitAnswers(ctx context.Context, surveyID int, payload model.SubmitAnswersPayload) error
}

// Session is one respondent answering one survey.
type Session struct {
	Survey model.Survey
	Sheet  *Sheet
	Nav    *Navigator

	questions map[int64]model.Question
	uploads   *upload.Coordinator
	submitter Submitter
	userID    string
	submitted bool
}

func NewSession(s model.Survey, uploader upload.Uploader, submitter Submitter, userID string) *Session {
	sheet := NewSheet()
	questions := make(map[int64]model.Question, len(s.Questions))
	for _, q := range s.Questions {
		questions[q.ID] = q
	}
	return &Session{
		Survey:    s,
		Sheet:     sheet,
		Nav:       NewNavigator(BuildSteps(s.Sections, s.Questions), sheet),
		questions: questions,
		uploads:   upload.NewCoordinator(uploader, sheet, fmt.Sprintf("survey-%d", s.ID)),
		submitter: submitter,
		userID:    userID,
	}
}

func (s *Session) question(id int64, types ...model.QuestionType) (model.Question, error) {
	q, ok := s.questions[id]
	if !ok {
		return model.Question{}, ErrUnknownQuestion
	}
	for _, t := range types {
		if q.Type == t {
			return q, nil
		}
	}
	return model.Question{}, ErrWrongType
}

func (s *Session) SetText(id int64, text string) error {
	if _, err := s.question(id, model.TextInput, model.Textarea); err != nil {
		return err
	}
	s.Sheet.Set(id, text)
	return nil
}

func (s *Session) SelectOption(id int64, option string) error {
	q, err := s.question(id, model.SingleChoice)
	if err != nil {
		return err
	}
	if !hasOption(q, option) {
		return ErrOutOfRange
	}
	s.Sheet.Set(id, option)
	return nil
}

func (s *Session) ToggleOption(id int64, option string) error {
	q, err := s.question(id, model.MultipleChoice)
	if err != nil {
		return err
	}
	if !hasOption(q, option) {
		return ErrOutOfRange
	}
	s.Sheet.Toggle(id, option)
	return nil
}

// Rate records a rating or linear-scale value within the question's bounds.
func (s *Session) Rate(id int64, value int) error {
	q, err := s.question(id, model.Rating, model.LinearScale)
	if err != nil {
		return err
	}
	lo, hi := 1, 0
	switch c := q.Config.(type) {
	case model.RatingConfig:
		hi = c.MaxRating
	case model.ScaleConfig:
		lo, hi = c.MinValue, c.MaxValue
	}
	if value < lo || value > hi {
		return ErrOutOfRange
	}
	s.Sheet.Set(id, value)
	return nil
}

// AddFiles uploads files for a file_upload question. It blocks until every
// upload has settled; progress is visible through Sheet.Files meanwhile.
func (s *Session) AddFiles(ctx context.Context, id int64, files ...upload.File) error {
	q, err := s.question(id, model.FileUpload)
	if err != nil {
		return err
	}
	var limits upload.Constraints
	if c, ok := q.Config.(model.FileUploadConfig); ok {
		limits = upload.ConstraintsFor(c)
	}
	return s.uploads.Upload(ctx, id, limits, files...)
}

// RemoveFile detaches a file from the answer. An upload still in flight is
// not aborted; its completion will find nothing to update.
func (s *Session) RemoveFile(id int64, fileID string) error {
	if _, err := s.question(id, model.FileUpload); err != nil {
		return err
	}
	s.Sheet.RemoveFile(id, fileID)
	return nil
}

// Submit sends the normalized answers. The in-memory answers are discarded
// only once the submitter succeeds.
func (s *Session) Submit(ctx context.Context) error {
	if s.submitted {
		return ErrSubmitted
	}
	if !s.Nav.IsLast() {
		return ErrNotLastStep
	}
	if err := s.Nav.Check(); err != nil {
		return err
	}
	if s.Sheet.Pending() {
		return ErrUploadsPending
	}

	payload := BuildSubmission(s.Survey.Questions, s.Sheet, s.userID)
	if err := s.submitter.SubmitAnswers(ctx, s.Survey.ID, payload); err != nil {
		return err
	}
	s.submitted = true
	s.Sheet.Reset()
	return nil
}

func hasOption(q model.Question, option string) bool {
	for _, o := range q.Options() {
		if o == option {
			return true
		}
	}
	return false
}
