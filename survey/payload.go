package survey

import (
	"time"

	"github.com/saveur1/community-system/model"
)

// BuildPayload validates req and maps it to the creation payload. Questions
// keep only the fields of their own variant.
func BuildPayload(req SaveRequest) (model.CreateSurveyPayload, error) {
	if err := Validate(req); err != nil {
		return model.CreateSurveyPayload{}, err
	}
	start, end, _ := req.Window.Bounds()

	roles := req.AllowedRoles
	if roles == nil {
		roles = []string{}
	}
	surveyType := req.SurveyType
	if surveyType == "" {
		surveyType = model.SurveyTypeGeneral
	}

	d := req.Draft
	questions := Renumber(d.Questions, d.Sections)
	out := model.CreateSurveyPayload{
		Title:         d.Title,
		Description:   d.Description,
		ProjectID:     d.ProjectID,
		EstimatedTime: d.EstimatedTime,
		Sections:      append([]model.Section{}, d.Sections...),
		Questions:     make([]model.QuestionPayload, len(questions)),
		AllowedRoles:  append([]string{}, roles...),
		SurveyType:    surveyType,
		StartAt:       start.UTC().Format(time.RFC3339),
		EndAt:         end.UTC().Format(time.RFC3339),
	}
	for i, q := range questions {
		out.Questions[i] = QuestionPayload(q)
	}
	return out, nil
}

// QuestionPayload maps one question to its wire shape.
func QuestionPayload(q model.Question) model.QuestionPayload {
	p := model.QuestionPayload{
		ID:             q.ID,
		Type:           q.Type,
		Title:          q.Title,
		Description:    q.Description,
		Required:       q.Required,
		SectionID:      q.SectionID,
		QuestionNumber: q.QuestionNumber,
	}
	switch c := q.Config.(type) {
	case model.ChoiceConfig:
		p.Options = append([]string{}, c.Options...)
	case model.TextConfig:
		p.Placeholder = c.Placeholder
	case model.FileUploadConfig:
		p.AllowedTypes = append([]string{}, c.AllowedTypes...)
		p.MaxSize = c.MaxSize
	case model.RatingConfig:
		p.MaxRating = c.MaxRating
		p.RatingLabel = c.RatingLabel
	case model.ScaleConfig:
		lo, hi := c.MinValue, c.MaxValue
		p.MinValue = &lo
		p.MaxValue = &hi
		p.MinLabel = c.MinLabel
		p.MaxLabel = c.MaxLabel
	}
	return p
}

// QuestionFromPayload is the inverse of QuestionPayload, used when a stored
// survey is read back.
func QuestionFromPayload(p model.QuestionPayload) model.Question {
	q := model.Question{
		ID:             p.ID,
		Type:           p.Type,
		Title:          p.Title,
		Description:    p.Description,
		Required:       p.Required,
		SectionID:      p.SectionID,
		QuestionNumber: p.QuestionNumber,
	}
	switch c := model.DefaultVariant(p.Type).(type) {
	case model.ChoiceConfig:
		c.Options = append([]string{}, p.Options...)
		q.Config = c
	case model.TextConfig:
		c.Placeholder = p.Placeholder
		q.Config = c
	case model.FileUploadConfig:
		if p.AllowedTypes != nil {
			c.AllowedTypes = append([]string{}, p.AllowedTypes...)
		}
		if p.MaxSize > 0 {
			c.MaxSize = p.MaxSize
		}
		q.Config = c
	case model.RatingConfig:
		if p.MaxRating > 0 {
			c.MaxRating = p.MaxRating
		}
		c.RatingLabel = p.RatingLabel
		q.Config = c
	case model.ScaleConfig:
		if p.MinValue != nil {
			c.MinValue = *p.MinValue
		}
		if p.MaxValue != nil {
			c.MaxValue = *p.MaxValue
		}
		c.MinLabel = p.MinLabel
		c.MaxLabel = p.MaxLabel
		q.Config = c
	}
	return q
}
