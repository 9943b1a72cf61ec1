package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveur1/community-system/model"
)

var validWindow = Window{
	StartDate: "2026-03-01", StartHour: "9", StartMinute: "30",
	EndDate: "2026-03-31", EndHour: "17", EndMinute: "0",
}

func validDraft() model.SurveyDraft {
	sec := model.NewSection("Section 1")
	return model.SurveyDraft{
		Title:     "Water access",
		ProjectID: "proj-1",
		Sections:  []model.Section{sec},
		Questions: Renumber([]model.Question{
			{ID: 1, Type: model.SingleChoice, Title: "Do you have a tap?", SectionID: sec.ID, Config: model.ChoiceConfig{Options: []string{"Yes", "No"}}},
			{ID: 2, Type: model.LinearScale, Title: "How far is it?", SectionID: sec.ID, Config: model.ScaleConfig{MinValue: 0, MaxValue: 10}},
		}, []model.Section{sec}),
	}
}

func TestValidateRules(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*SaveRequest)
		rule   Rule
		msg    string
	}{
		{"title", func(r *SaveRequest) { r.Draft.Title = "  " }, RuleTitle, "Survey title is required"},
		{"project", func(r *SaveRequest) { r.Draft.ProjectID = "" }, RuleProject, "Please select a project"},
		{"questions", func(r *SaveRequest) { r.Draft.Questions = nil }, RuleQuestions, "Please add at least one question"},
		{"missing window", func(r *SaveRequest) { r.Window.EndMinute = "" }, RuleAvailability, "Please set both start and end date and time"},
		{"reversed window", func(r *SaveRequest) { r.Window.EndDate = "2026-02-01" }, RuleAvailability, "End date and time must be after the start"},
		{"question title", func(r *SaveRequest) { r.Draft.Questions[1].Title = "" }, RuleQuestionTitle, "Question 2 must have a title"},
		{"empty option", func(r *SaveRequest) {
			r.Draft.Questions[0].Config = model.ChoiceConfig{Options: []string{"Yes", " "}}
		}, RuleOptions, "Question 1 has empty options"},
		{"no options", func(r *SaveRequest) {
			r.Draft.Questions[0].Config = model.ChoiceConfig{}
		}, RuleOptions, "Question 1 needs at least one option"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := SaveRequest{Draft: validDraft(), Window: validWindow}
			c.modify(&req)

			err := Validate(req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, c.rule, verr.Rule)
			assert.Equal(t, c.msg, verr.Message)
		})
	}
}

func TestValidateFirstRuleWins(t *testing.T) {
	req := SaveRequest{Draft: validDraft(), Window: Window{}}
	req.Draft.Title = ""
	req.Draft.ProjectID = ""

	var verr *ValidationError
	require.ErrorAs(t, Validate(req), &verr)
	assert.Equal(t, RuleTitle, verr.Rule)
}

func TestValidateTypeSwitchLeavesNoStaleRules(t *testing.T) {
	e := NewEditor()
	e.SetTitle("T")
	e.SetProject("p")
	q, _ := e.AddQuestion(model.Rating)
	require.NoError(t, e.UpdateQuestion(q.ID, FieldTitle, "Pick"))
	require.NoError(t, e.UpdateQuestion(q.ID, FieldType, model.SingleChoice))

	var verr *ValidationError
	require.ErrorAs(t, Validate(SaveRequest{Draft: e.Draft(), Window: validWindow}), &verr)
	assert.Equal(t, RuleOptions, verr.Rule)
	assert.Equal(t, q.ID, verr.QuestionID)
}

func TestWindowBounds(t *testing.T) {
	start, end, ok := validWindow.Bounds()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 31, 17, 0, 0, 0, time.UTC), end)

	w := validWindow
	w.StartHour = "24"
	_, _, ok = w.Bounds()
	assert.False(t, ok)

	w = validWindow
	w.Location = time.FixedZone("CAT", 2*60*60)
	start, _, ok = w.Bounds()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC), start.UTC())
}

func TestBuildPayload(t *testing.T) {
	req := SaveRequest{Draft: validDraft(), Window: validWindow}

	p, err := BuildPayload(req)
	require.NoError(t, err)

	assert.Equal(t, "Water access", p.Title)
	assert.Equal(t, model.SurveyTypeGeneral, p.SurveyType)
	assert.Equal(t, []string{}, p.AllowedRoles)
	assert.Equal(t, "2026-03-01T09:30:00Z", p.StartAt)
	assert.Equal(t, "2026-03-31T17:00:00Z", p.EndAt)
	require.Len(t, p.Questions, 2)

	choice := p.Questions[0]
	assert.Equal(t, []string{"Yes", "No"}, choice.Options)
	assert.Nil(t, choice.MinValue)
	assert.Zero(t, choice.MaxRating)

	scale := p.Questions[1]
	require.NotNil(t, scale.MinValue)
	assert.Equal(t, 0, *scale.MinValue)
	assert.Equal(t, 10, *scale.MaxValue)
	assert.Nil(t, scale.Options)
	assert.Equal(t, 2, scale.QuestionNumber)
}

func TestBuildPayloadRejectsInvalid(t *testing.T) {
	req := SaveRequest{Draft: validDraft(), Window: validWindow, SurveyType: model.SurveyTypeReportForm, AllowedRoles: []string{"nurse"}}
	req.Draft.Questions = nil

	_, err := BuildPayload(req)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestQuestionPayloadRoundTrip(t *testing.T) {
	for _, q := range []model.Question{
		{ID: 1, Type: model.SingleChoice, Config: model.ChoiceConfig{Options: []string{"a", "b"}}},
		{ID: 2, Type: model.Textarea, Config: model.TextConfig{Placeholder: "Tell us"}},
		{ID: 3, Type: model.FileUpload, Config: model.FileUploadConfig{AllowedTypes: []string{".pdf"}, MaxSize: 2}},
		{ID: 4, Type: model.Rating, Config: model.RatingConfig{MaxRating: 7, RatingLabel: "Stars"}},
		{ID: 5, Type: model.LinearScale, Config: model.ScaleConfig{MinValue: 0, MaxValue: 3, MinLabel: "lo", MaxLabel: "hi"}},
	} {
		assert.Equal(t, q, QuestionFromPayload(QuestionPayload(q)), string(q.Type))
	}
}

func TestValidateRejectsQuestionWithAllOptionsRemoved(t *testing.T) {
	e := NewEditor()
	e.SetTitle("Water access")
	e.SetProject("proj-1")
	q, err := e.AddQuestion(model.SingleChoice)
	require.NoError(t, err)
	require.NoError(t, e.UpdateQuestion(q.ID, FieldTitle, "Do you have a tap?"))
	require.NoError(t, e.RemoveOption(q.ID, 0))
	require.NoError(t, e.RemoveOption(q.ID, 0))

	q, _ = e.Question(q.ID)
	require.Empty(t, q.Options())

	err = Validate(SaveRequest{Draft: e.Draft(), Window: validWindow})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, RuleOptions, verr.Rule)
	assert.Equal(t, q.ID, verr.QuestionID)

	_, err = BuildPayload(SaveRequest{Draft: e.Draft(), Window: validWindow})
	assert.Error(t, err)
}
