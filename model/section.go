package model

import "github.com/google/uuid"

type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func NewSection(title string) Section {
	return Section{ID: uuid.NewString(), Title: title}
}

// SurveySection is a section of a published survey; Order drives the
// respondent step sequence.
type SurveySection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}
