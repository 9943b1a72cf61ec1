package model

import json "github.com/goccy/go-json"

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	TextInput      QuestionType = "text_input"
	Textarea       QuestionType = "textarea"
	FileUpload     QuestionType = "file_upload"
	Rating         QuestionType = "rating"
	LinearScale    QuestionType = "linear_scale"
)

// QuestionTypes lists every supported variant in display order.
var QuestionTypes = []QuestionType{
	SingleChoice, MultipleChoice, TextInput, Textarea, FileUpload, Rating, LinearScale,
}

func (t QuestionType) Valid() bool {
	switch t {
	case SingleChoice, MultipleChoice, TextInput, Textarea, FileUpload, Rating, LinearScale:
		return true
	}
	return false
}

func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultipleChoice
}

// Variant is the type-specific payload of a question. The set of
// implementations is closed: ChoiceConfig, TextConfig, FileUploadConfig,
// RatingConfig and ScaleConfig.
type Variant interface {
	cloneVariant() Variant
}

type ChoiceConfig struct {
	Options []string
}

type TextConfig struct {
	Placeholder string
}

type FileUploadConfig struct {
	AllowedTypes []string
	// MaxSize is expressed in megabytes.
	MaxSize float64
}

type RatingConfig struct {
	MaxRating   int
	RatingLabel string
}

type ScaleConfig struct {
	MinValue int
	MaxValue int
	MinLabel string
	MaxLabel string
}

func (c ChoiceConfig) cloneVariant() Variant {
	return ChoiceConfig{Options: append([]string{}, c.Options...)}
}
func (c TextConfig) cloneVariant() Variant { return c }
func (c FileUploadConfig) cloneVariant() Variant {
	return FileUploadConfig{AllowedTypes: append([]string{}, c.AllowedTypes...), MaxSize: c.MaxSize}
}
func (c RatingConfig) cloneVariant() Variant { return c }
func (c ScaleConfig) cloneVariant() Variant  { return c }

// DefaultVariant returns the fresh configuration a question of type t starts
// with. Unknown types have no configuration.
func DefaultVariant(t QuestionType) Variant {
	switch t {
	case SingleChoice, MultipleChoice:
		return ChoiceConfig{Options: []string{"", ""}}
	case TextInput, Textarea:
		return TextConfig{}
	case FileUpload:
		return FileUploadConfig{AllowedTypes: []string{"image/*", "application/pdf"}, MaxSize: 10}
	case Rating:
		return RatingConfig{MaxRating: 5}
	case LinearScale:
		return ScaleConfig{MinValue: 1, MaxValue: 5}
	}
	return nil
}

type Question struct {
	ID             int64
	Type           QuestionType
	Title          string
	Description    string
	Required       bool
	SectionID      string
	QuestionNumber int
	Config         Variant
}

// Clone returns a deep copy, so slices held by the variant are not shared.
func (q Question) Clone() Question {
	if q.Config != nil {
		q.Config = q.Config.cloneVariant()
	}
	return q
}

func (q Question) Options() []string {
	if c, ok := q.Config.(ChoiceConfig); ok {
		return c.Options
	}
	return nil
}

// questionJSON is the flat wire/storage shape: variant fields sit next to
// the common ones.
type questionJSON struct {
	ID             int64        `json:"id"`
	Type           QuestionType `json:"type"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Required       bool         `json:"required"`
	SectionID      string       `json:"sectionId"`
	QuestionNumber int          `json:"questionNumber"`

	Options      *[]string `json:"options,omitempty"`
	Placeholder  *string   `json:"placeholder,omitempty"`
	AllowedTypes *[]string `json:"allowedTypes,omitempty"`
	MaxSize      *float64  `json:"maxSize,omitempty"`
	MaxRating    *int      `json:"maxRating,omitempty"`
	RatingLabel  string    `json:"ratingLabel,omitempty"`
	MinValue     *int      `json:"minValue,omitempty"`
	MaxValue     *int      `json:"maxValue,omitempty"`
	MinLabel     string    `json:"minLabel,omitempty"`
	MaxLabel     string    `json:"maxLabel,omitempty"`
}

func (q Question) MarshalJSON() ([]byte, error) {
	out := questionJSON{
		ID:             q.ID,
		Type:           q.Type,
		Title:          q.Title,
		Description:    q.Description,
		Required:       q.Required,
		SectionID:      q.SectionID,
		QuestionNumber: q.QuestionNumber,
	}
	switch c := q.Config.(type) {
	case ChoiceConfig:
		opts := c.Options
		if opts == nil {
			opts = []string{}
		}
		out.Options = &opts
	case TextConfig:
		out.Placeholder = &c.Placeholder
	case FileUploadConfig:
		types := c.AllowedTypes
		if types == nil {
			types = []string{}
		}
		out.AllowedTypes = &types
		out.MaxSize = &c.MaxSize
	case RatingConfig:
		out.MaxRating = &c.MaxRating
		out.RatingLabel = c.RatingLabel
	case ScaleConfig:
		out.MinValue = &c.MinValue
		out.MaxValue = &c.MaxValue
		out.MinLabel = c.MinLabel
		out.MaxLabel = c.MaxLabel
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the variant from the type discriminant. Missing
// variant fields take their defaults; unknown types decode without a
// variant.
func (q *Question) UnmarshalJSON(data []byte) error {
	var in questionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*q = Question{
		ID:             in.ID,
		Type:           in.Type,
		Title:          in.Title,
		Description:    in.Description,
		Required:       in.Required,
		SectionID:      in.SectionID,
		QuestionNumber: in.QuestionNumber,
	}

	switch def := DefaultVariant(in.Type).(type) {
	case ChoiceConfig:
		if in.Options != nil {
			def.Options = *in.Options
		}
		q.Config = def
	case TextConfig:
		if in.Placeholder != nil {
			def.Placeholder = *in.Placeholder
		}
		q.Config = def
	case FileUploadConfig:
		if in.AllowedTypes != nil {
			def.AllowedTypes = *in.AllowedTypes
		}
		if in.MaxSize != nil {
			def.MaxSize = *in.MaxSize
		}
		q.Config = def
	case RatingConfig:
		if in.MaxRating != nil {
			def.MaxRating = *in.MaxRating
		}
		def.RatingLabel = in.RatingLabel
		q.Config = def
	case ScaleConfig:
		if in.MinValue != nil {
			def.MinValue = *in.MinValue
		}
		if in.MaxValue != nil {
			def.MaxValue = *in.MaxValue
		}
		def.MinLabel = in.MinLabel
		def.MaxLabel = in.MaxLabel
		q.Config = def
	}
	return nil
}
