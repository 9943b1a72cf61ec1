package respond

import (
	"errors"

	"github.com/saveur1/community-system/model"
)

var (
	ErrStepIncomplete = errors.New("please answer all required questions before continuing")
	ErrNoNextStep     = errors.New("already on the last step")
)

// IncompleteError lists the required questions of the current step that
// have no answer. It reads as a single aggregate message.
type IncompleteError struct {
	Missing []model.Question
}

func (e *IncompleteError) Error() string {
	return ErrStepIncomplete.Error()
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrStepIncomplete
}

// Navigator walks a respondent through the steps of a survey. Moving
// forward requires every required question of the current step to be
// answered; moving back never does.
type Navigator struct {
	steps []Step
	index int
	sheet *Sheet
}

func NewNavigator(steps []Step, sheet *Sheet) *Navigator {
	return &Navigator{steps: steps, sheet: sheet}
}

func (n *Navigator) Len() int   { return len(n.steps) }
func (n *Navigator) Index() int { return n.index }

func (n *Navigator) Current() Step {
	if len(n.steps) == 0 {
		return Step{}
	}
	return n.steps[n.index]
}

// IsLast is true on the step that shows Submit instead of Next.
func (n *Navigator) IsLast() bool {
	return n.index >= len(n.steps)-1
}

// Missing returns the required questions of the current step that are still
// unanswered.
func (n *Navigator) Missing() []model.Question {
	var missing []model.Question
	for _, q := range n.Current().Questions {
		if q.Required && !IsAnswered(q.Type, n.sheet.Value(q.ID)) {
			missing = append(missing, q)
		}
	}
	return missing
}

// Check returns an *IncompleteError when the current step cannot be left
// forward.
func (n *Navigator) Check() error {
	if missing := n.Missing(); len(missing) > 0 {
		return &IncompleteError{Missing: missing}
	}
	return nil
}

func (n *Navigator) Next() error {
	if err := n.Check(); err != nil {
		return err
	}
	if n.IsLast() {
		return ErrNoNextStep
	}
	n.index++
	return nil
}

// Previous moves back one step, if there is one.
func (n *Navigator) Previous() bool {
	if n.index == 0 {
		return false
	}
	n.index--
	return true
}
