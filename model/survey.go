package model

import "time"

type Survey struct {
	ID            int             `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ProjectID     string          `json:"projectId"`
	EstimatedTime string          `json:"estimatedTime"`
	SurveyType    string          `json:"surveyType"`
	AllowedRoles  []string        `json:"allowedRoles"`
	StartAt       time.Time       `json:"startAt"`
	EndAt         time.Time       `json:"endAt"`
	Sections      []SurveySection `json:"sections,omitempty"`
	Questions     []Question      `json:"questions,omitempty"`
}

// Open reports whether t falls inside the availability window.
func (s Survey) Open(t time.Time) bool {
	return !t.Before(s.StartAt) && !t.After(s.EndAt)
}

type Submission struct {
	ID      int                `json:"id"`
	Time    time.Time          `json:"time"`
	UserID  string             `json:"userId,omitempty"`
	Answers []SubmissionAnswer `json:"answers"`
}

type SubmissionAnswer struct {
	QuestionID     int64  `json:"questionId"`
	QuestionNumber int    `json:"questionNumber"`
	Title          string `json:"title"`
	Value          any    `json:"value"`
}
