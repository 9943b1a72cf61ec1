package model

const (
	SurveyTypeGeneral    = "general"
	SurveyTypeReportForm = "report-form"
)

type CreateSurveyPayload struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	ProjectID     string            `json:"projectId"`
	EstimatedTime string            `json:"estimatedTime"`
	Sections      []Section         `json:"sections"`
	Questions     []QuestionPayload `json:"questions"`
	AllowedRoles  []string          `json:"allowedRoles"`
	SurveyType    string            `json:"surveyType"`
	StartAt       string            `json:"startAt"`
	EndAt         string            `json:"endAt"`
}

// QuestionPayload is the per-variant wire shape of an authored question.
// Only the fields of the question's own variant are set.
type QuestionPayload struct {
	ID             int64        `json:"id"`
	Type           QuestionType `json:"type"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Required       bool         `json:"required"`
	SectionID      string       `json:"sectionId"`
	QuestionNumber int          `json:"questionNumber"`

	Options      []string `json:"options,omitempty"`
	Placeholder  string   `json:"placeholder,omitempty"`
	AllowedTypes []string `json:"allowedTypes,omitempty"`
	MaxSize      float64  `json:"maxSize,omitempty"`
	MaxRating    int      `json:"maxRating,omitempty"`
	RatingLabel  string   `json:"ratingLabel,omitempty"`
	MinValue     *int     `json:"minValue,omitempty"`
	MaxValue     *int     `json:"maxValue,omitempty"`
	MinLabel     string   `json:"minLabel,omitempty"`
	MaxLabel     string   `json:"maxLabel,omitempty"`
}

type SubmitAnswersPayload struct {
	UserID  string          `json:"userId,omitempty"`
	Answers []AnswerPayload `json:"answers"`
}

// AnswerPayload carries a normalized value: string, []string, number,
// []FilePayload or nil depending on the question type.
type AnswerPayload struct {
	QuestionID int64 `json:"questionId"`
	Value      any   `json:"value"`
}

type FilePayload struct {
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	FileSize    int64  `json:"fileSize"`
	FileURL     string `json:"fileUrl"`
	PublicID    string `json:"publicId"`
	DeleteToken string `json:"deleteToken"`
}

type UploadResult struct {
	SecureURL        string `json:"secureUrl"`
	URL              string `json:"url"`
	PublicID         string `json:"publicId"`
	DeleteToken      string `json:"deleteToken,omitempty"`
	Bytes            int64  `json:"bytes"`
	Format           string `json:"format"`
	OriginalFilename string `json:"originalFilename"`
}

// Location prefers the secure URL.
func (r UploadResult) Location() string {
	if r.SecureURL != "" {
		return r.SecureURL
	}
	return r.URL
}
