package survey

import (
	"errors"
	"fmt"
	"time"

	"github.com/saveur1/community-system/model"
)

var (
	ErrLastSection        = errors.New("a survey needs at least one section")
	ErrSectionNotFound    = errors.New("section not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrUnknownType        = errors.New("unknown question type")
	ErrNotChoice          = errors.New("question has no options")
	ErrOptionIndex        = errors.New("option index out of range")
	ErrFieldNotApplicable = errors.New("field does not apply to this question type")
	ErrInvalidValue       = errors.New("invalid value for field")
)

// Field names a question attribute that UpdateQuestion can change.
type Field string

const (
	FieldTitle        Field = "title"
	FieldDescription  Field = "description"
	FieldRequired     Field = "required"
	FieldType         Field = "type"
	FieldOptions      Field = "options"
	FieldPlaceholder  Field = "placeholder"
	FieldAllowedTypes Field = "allowedTypes"
	FieldMaxSize      Field = "maxSize"
	FieldMaxRating    Field = "maxRating"
	FieldRatingLabel  Field = "ratingLabel"
	FieldMinValue     Field = "minValue"
	FieldMaxValue     Field = "maxValue"
	FieldMinLabel     Field = "minLabel"
	FieldMaxLabel     Field = "maxLabel"
)

// Editor holds the authoring state of one survey: the section registry, the
// flat question list and the active section. Every structural mutation
// renumbers the questions.
type Editor struct {
	title         string
	description   string
	projectID     string
	estimatedTime string

	sections  []model.Section
	questions []model.Question
	active    string

	now      func() time.Time
	lastID   int64
	onChange func()
}

// NewEditor returns an editor with a single empty section.
func NewEditor() *Editor {
	first := model.NewSection("Section 1")
	return &Editor{
		sections: []model.Section{first},
		active:   first.ID,
		now:      time.Now,
	}
}

// OnChange registers fn to be called after every mutation.
func (e *Editor) OnChange(fn func()) {
	e.onChange = fn
}

func (e *Editor) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}

// Load replaces the whole state with a restored draft. The draft must have at
// least one section; questions are renumbered on the way in.
func (e *Editor) Load(d model.SurveyDraft, activeSection string) error {
	if len(d.Sections) == 0 {
		return ErrLastSection
	}
	e.title = d.Title
	e.description = d.Description
	e.projectID = d.ProjectID
	e.estimatedTime = d.EstimatedTime
	e.sections = append([]model.Section{}, d.Sections...)
	e.questions = Renumber(d.Questions, e.sections)
	e.lastID = 0
	for _, q := range e.questions {
		if q.ID > e.lastID {
			e.lastID = q.ID
		}
	}
	e.active = e.sections[0].ID
	if e.sectionIndex(activeSection) >= 0 {
		e.active = activeSection
	}
	return nil
}

// Draft returns a copy of the current state.
func (e *Editor) Draft() model.SurveyDraft {
	return model.SurveyDraft{
		Title:         e.title,
		Description:   e.description,
		ProjectID:     e.projectID,
		EstimatedTime: e.estimatedTime,
		Sections:      e.Sections(),
		Questions:     e.Questions(),
	}
}

func (e *Editor) SetTitle(title string) {
	e.title = title
	e.changed()
}

func (e *Editor) SetDescription(description string) {
	e.description = description
	e.changed()
}

func (e *Editor) SetProject(projectID string) {
	e.projectID = projectID
	e.changed()
}

func (e *Editor) SetEstimatedTime(estimate string) {
	e.estimatedTime = estimate
	e.changed()
}

func (e *Editor) Sections() []model.Section {
	return append([]model.Section{}, e.sections...)
}

func (e *Editor) Questions() []model.Question {
	out := make([]model.Question, len(e.questions))
	for i, q := range e.questions {
		out[i] = q.Clone()
	}
	return out
}

func (e *Editor) Question(id int64) (model.Question, bool) {
	i := e.questionIndex(id)
	if i < 0 {
		return model.Question{}, false
	}
	return e.questions[i].Clone(), true
}

// SectionQuestions returns the questions of one section in display order.
func (e *Editor) SectionQuestions(sectionID string) []model.Question {
	var out []model.Question
	for _, q := range e.questions {
		if q.SectionID == sectionID {
			out = append(out, q.Clone())
		}
	}
	return out
}

func (e *Editor) ActiveSection() string {
	return e.active
}

func (e *Editor) SetActiveSection(id string) error {
	if e.sectionIndex(id) < 0 {
		return ErrSectionNotFound
	}
	e.active = id
	return nil
}

func (e *Editor) AddSection() model.Section {
	s := model.NewSection(fmt.Sprintf("Section %d", len(e.sections)+1))
	e.sections = append(e.sections, s)
	e.active = s.ID
	e.questions = Renumber(e.questions, e.sections)
	e.changed()
	return s
}

// DeleteSection removes a section together with its questions. The last
// remaining section cannot be deleted.
func (e *Editor) DeleteSection(id string) error {
	i := e.sectionIndex(id)
	if i < 0 {
		return ErrSectionNotFound
	}
	if len(e.sections) == 1 {
		return ErrLastSection
	}

	sections := make([]model.Section, 0, len(e.sections)-1)
	sections = append(sections, e.sections[:i]...)
	sections = append(sections, e.sections[i+1:]...)

	questions := make([]model.Question, 0, len(e.questions))
	for _, q := range e.questions {
		if q.SectionID != id {
			questions = append(questions, q)
		}
	}

	e.sections = sections
	if e.active == id {
		e.active = sections[0].ID
	}
	e.questions = Renumber(questions, sections)
	e.changed()
	return nil
}

func (e *Editor) RenameSection(id, title string) error {
	i := e.sectionIndex(id)
	if i < 0 {
		return ErrSectionNotFound
	}
	e.sections[i].Title = title
	e.changed()
	return nil
}

// AddQuestion appends a question of type t to the active section.
func (e *Editor) AddQuestion(t model.QuestionType) (model.Question, error) {
	if !t.Valid() {
		return model.Question{}, ErrUnknownType
	}
	q := model.Question{
		ID:        e.nextID(),
		Type:      t,
		SectionID: e.active,
		Config:    model.DefaultVariant(t),
	}
	e.questions = Renumber(append(e.questions, q), e.sections)
	e.changed()
	q, _ = e.Question(q.ID)
	return q, nil
}

func (e *Editor) DeleteQuestion(id int64) error {
	i := e.questionIndex(id)
	if i < 0 {
		return ErrQuestionNotFound
	}
	questions := make([]model.Question, 0, len(e.questions)-1)
	questions = append(questions, e.questions[:i]...)
	questions = append(questions, e.questions[i+1:]...)
	e.questions = Renumber(questions, e.sections)
	e.changed()
	return nil
}

// DuplicateQuestion appends a copy of the question with a new id and a
// " (Copy)" title suffix.
func (e *Editor) DuplicateQuestion(id int64) (model.Question, error) {
	i := e.questionIndex(id)
	if i < 0 {
		return model.Question{}, ErrQuestionNotFound
	}
	dup := e.questions[i].Clone()
	dup.ID = e.nextID()
	dup.Title += " (Copy)"
	e.questions = Renumber(append(e.questions, dup), e.sections)
	e.changed()
	dup, _ = e.Question(dup.ID)
	return dup, nil
}

// MoveQuestionToSection reassigns a question to another section. Drag and
// drop never does this on its own.
func (e *Editor) MoveQuestionToSection(id int64, sectionID string) error {
	i := e.questionIndex(id)
	if i < 0 {
		return ErrQuestionNotFound
	}
	if e.sectionIndex(sectionID) < 0 {
		return ErrSectionNotFound
	}
	e.questions[i].SectionID = sectionID
	e.questions = Renumber(e.questions, e.sections)
	e.changed()
	return nil
}

// Reorder applies a drag-and-drop move and reports whether anything moved.
// A self-drop or an unknown id changes nothing and notifies no one.
func (e *Editor) Reorder(cmd ReorderCommand) bool {
	if cmd.DraggedID == cmd.TargetID || e.questionIndex(cmd.DraggedID) < 0 || e.questionIndex(cmd.TargetID) < 0 {
		return false
	}
	e.questions = Reorder(e.questions, e.sections, cmd)
	e.changed()
	return true
}

// UpdateQuestion sets one field of a question. Changing the type resets the
// variant configuration, except between the two choice types which keep
// their options.
func (e *Editor) UpdateQuestion(id int64, field Field, value any) error {
	i := e.questionIndex(id)
	if i < 0 {
		return ErrQuestionNotFound
	}
	q := e.questions[i].Clone()

	var err error
	switch field {
	case FieldTitle:
		q.Title, err = asString(value)
	case FieldDescription:
		q.Description, err = asString(value)
	case FieldRequired:
		b, ok := value.(bool)
		if !ok {
			err = ErrInvalidValue
		}
		q.Required = b
	case FieldType:
		err = switchType(&q, value)
	default:
		q.Config, err = updateVariant(q.Config, field, value)
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}

	e.questions[i] = q
	e.changed()
	return nil
}

func switchType(q *model.Question, value any) error {
	var t model.QuestionType
	switch v := value.(type) {
	case model.QuestionType:
		t = v
	case string:
		t = model.QuestionType(v)
	default:
		return ErrInvalidValue
	}
	if !t.Valid() {
		return ErrUnknownType
	}
	if t == q.Type {
		return nil
	}
	if t.IsChoice() && q.Type.IsChoice() {
		q.Type = t
		return nil
	}
	q.Type = t
	q.Config = model.DefaultVariant(t)
	return nil
}

func updateVariant(v model.Variant, field Field, value any) (model.Variant, error) {
	var err error
	switch c := v.(type) {
	case model.ChoiceConfig:
		if field != FieldOptions {
			return v, ErrFieldNotApplicable
		}
		c.Options, err = asStrings(value)
		return c, err
	case model.TextConfig:
		if field != FieldPlaceholder {
			return v, ErrFieldNotApplicable
		}
		c.Placeholder, err = asString(value)
		return c, err
	case model.FileUploadConfig:
		switch field {
		case FieldAllowedTypes:
			c.AllowedTypes, err = asStrings(value)
		case FieldMaxSize:
			c.MaxSize, err = asFloat(value)
		default:
			return v, ErrFieldNotApplicable
		}
		return c, err
	case model.RatingConfig:
		switch field {
		case FieldMaxRating:
			c.MaxRating, err = asInt(value)
		case FieldRatingLabel:
			c.RatingLabel, err = asString(value)
		default:
			return v, ErrFieldNotApplicable
		}
		return c, err
	case model.ScaleConfig:
		switch field {
		case FieldMinValue:
			c.MinValue, err = asInt(value)
		case FieldMaxValue:
			c.MaxValue, err = asInt(value)
		case FieldMinLabel:
			c.MinLabel, err = asString(value)
		case FieldMaxLabel:
			c.MaxLabel, err = asString(value)
		default:
			return v, ErrFieldNotApplicable
		}
		return c, err
	}
	return v, ErrFieldNotApplicable
}

func (e *Editor) AddOption(id int64) error {
	return e.withOptions(id, func(opts []string) ([]string, error) {
		return append(opts, ""), nil
	})
}

func (e *Editor) UpdateOption(id int64, index int, text string) error {
	return e.withOptions(id, func(opts []string) ([]string, error) {
		if index < 0 || index >= len(opts) {
			return nil, ErrOptionIndex
		}
		opts[index] = text
		return opts, nil
	})
}

// RemoveOption drops an option. Removing the last one is allowed here; save
// validation is where an option-less question gets rejected.
func (e *Editor) RemoveOption(id int64, index int) error {
	return e.withOptions(id, func(opts []string) ([]string, error) {
		if index < 0 || index >= len(opts) {
			return nil, ErrOptionIndex
		}
		return append(opts[:index], opts[index+1:]...), nil
	})
}

func (e *Editor) withOptions(id int64, fn func([]string) ([]string, error)) error {
	i := e.questionIndex(id)
	if i < 0 {
		return ErrQuestionNotFound
	}
	c, ok := e.questions[i].Config.(model.ChoiceConfig)
	if !ok || !e.questions[i].Type.IsChoice() {
		return ErrNotChoice
	}
	opts, err := fn(append([]string{}, c.Options...))
	if err != nil {
		return err
	}
	e.questions[i].Config = model.ChoiceConfig{Options: opts}
	e.changed()
	return nil
}

// nextID derives question ids from the creation time, bumped so that ids
// stay unique when several questions are created within a millisecond.
func (e *Editor) nextID() int64 {
	id := e.now().UnixMilli()
	if id <= e.lastID {
		id = e.lastID + 1
	}
	e.lastID = id
	return id
}

func (e *Editor) sectionIndex(id string) int {
	for i, s := range e.sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) questionIndex(id int64) int {
	for i, q := range e.questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", ErrInvalidValue
	}
	return s, nil
}

func asStrings(v any) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return append([]string{}, s...), nil
	case []any:
		out := make([]string, len(s))
		for i, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, ErrInvalidValue
			}
			out[i] = str
		}
		return out, nil
	}
	return nil, ErrInvalidValue
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, ErrInvalidValue
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, ErrInvalidValue
}
