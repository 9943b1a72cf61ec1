package model

// SurveyDraft is the complete authoring state that gets persisted while
// editing and sent on creation.
type SurveyDraft struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ProjectID     string     `json:"projectId"`
	EstimatedTime string     `json:"estimatedTime"`
	Sections      []Section  `json:"sections"`
	Questions     []Question `json:"questions"`
}
