package survey

import "github.com/saveur1/community-system/model"

// ReorderCommand moves the dragged question to the array position currently
// held by the target question.
type ReorderCommand struct {
	DraggedID int64
	TargetID  int64
}

// Reorder applies cmd as a list splice and renumbers the result. Dropping a
// question onto itself, or naming an unknown question, returns the questions
// unchanged. SectionID is never modified.
func Reorder(questions []model.Question, sections []model.Section, cmd ReorderCommand) []model.Question {
	from, to := -1, -1
	for i, q := range questions {
		switch q.ID {
		case cmd.DraggedID:
			from = i
		case cmd.TargetID:
			to = i
		}
	}
	if cmd.DraggedID == cmd.TargetID || from < 0 || to < 0 {
		return questions
	}

	moved := make([]model.Question, 0, len(questions))
	moved = append(moved, questions[:from]...)
	moved = append(moved, questions[from+1:]...)

	tail := append([]model.Question{questions[from]}, moved[to:]...)
	moved = append(moved[:to], tail...)

	return Renumber(moved, sections)
}

// DragController turns a drag-and-drop event sequence into a ReorderCommand.
type DragController struct {
	dragged int64
	active  bool
}

func (d *DragController) Start(id int64) {
	d.dragged = id
	d.active = true
}

// Over is called for every drag-over event. It only signals that dropping is
// allowed while a drag is in progress.
func (d *DragController) Over() bool {
	return d.active
}

// Drop ends the drag. ok is false when no drag was started or the question was
// dropped onto itself.
func (d *DragController) Drop(targetID int64) (cmd ReorderCommand, ok bool) {
	if !d.active {
		return ReorderCommand{}, false
	}
	d.active = false
	if d.dragged == targetID {
		return ReorderCommand{}, false
	}
	return ReorderCommand{DraggedID: d.dragged, TargetID: targetID}, true
}

func (d *DragController) Cancel() {
	d.active = false
}
