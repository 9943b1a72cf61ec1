package survey

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/saveur1/community-system/model"
)

type Rule string

const (
	RuleTitle         Rule = "title"
	RuleProject       Rule = "project"
	RuleQuestions     Rule = "questions"
	RuleAvailability  Rule = "availability"
	RuleQuestionTitle Rule = "question_title"
	RuleOptions       Rule = "options"
)

// ValidationError reports the first save rule a draft violates.
type ValidationError struct {
	Rule       Rule
	QuestionID int64
	Message    string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Window is the availability window as entered: a date plus separate hour
// and minute fields for each bound.
type Window struct {
	StartDate   string // 2006-01-02
	StartHour   string
	StartMinute string
	EndDate     string
	EndHour     string
	EndMinute   string
	Location    *time.Location
}

// Bounds composes the start and end timestamps. ok is false when any field
// is missing or unparsable.
func (w Window) Bounds() (start, end time.Time, ok bool) {
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	start, ok = compose(w.StartDate, w.StartHour, w.StartMinute, loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok = compose(w.EndDate, w.EndHour, w.EndMinute, loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func compose(date, hour, minute string, loc *time.Location) (time.Time, bool) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(hour))
	if err != nil || h < 0 || h > 23 {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(minute))
	if err != nil || m < 0 || m > 59 {
		return time.Time{}, false
	}
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), true
}

type SaveRequest struct {
	Draft        model.SurveyDraft
	Window       Window
	AllowedRoles []string
	SurveyType   string
}

// Validate checks a draft before submission and returns the first violated
// rule as a *ValidationError, or nil.
func Validate(req SaveRequest) error {
	d := req.Draft
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Rule: RuleTitle, Message: "Survey title is required"}
	}
	if strings.TrimSpace(d.ProjectID) == "" {
		return &ValidationError{Rule: RuleProject, Message: "Please select a project"}
	}
	if len(d.Questions) == 0 {
		return &ValidationError{Rule: RuleQuestions, Message: "Please add at least one question"}
	}

	start, end, ok := req.Window.Bounds()
	if !ok {
		return &ValidationError{Rule: RuleAvailability, Message: "Please set both start and end date and time"}
	}
	if !end.After(start) {
		return &ValidationError{Rule: RuleAvailability, Message: "End date and time must be after the start"}
	}

	for _, q := range d.Questions {
		if strings.TrimSpace(q.Title) == "" {
			return &ValidationError{
				Rule:       RuleQuestionTitle,
				QuestionID: q.ID,
				Message:    fmt.Sprintf("Question %d must have a title", q.QuestionNumber),
			}
		}
	}

	for _, q := range d.Questions {
		if !q.Type.IsChoice() {
			continue
		}
		if len(q.Options()) == 0 {
			return &ValidationError{
				Rule:       RuleOptions,
				QuestionID: q.ID,
				Message:    fmt.Sprintf("Question %d needs at least one option", q.QuestionNumber),
			}
		}
		for _, opt := range q.Options() {
			if strings.TrimSpace(opt) == "" {
				return &ValidationError{
					Rule:       RuleOptions,
					QuestionID: q.ID,
					Message:    fmt.Sprintf("Question %d has empty options", q.QuestionNumber),
				}
			}
		}
	}
	return nil
}
