package respond

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/saveur1/community-system/model"
)

// Normalize converts an in-memory answer value to the wire shape of its
// question type. It never fails: malformed input yields the zero value of
// the shape, or nil where the shape allows it.
func Normalize(t model.QuestionType, value any) any {
	switch t {
	case model.SingleChoice:
		return first(value)
	case model.MultipleChoice:
		return strs(value)
	case model.TextInput, model.Textarea:
		return str(value)
	case model.Rating, model.LinearScale:
		n, ok := number(value)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return n
	case model.FileUpload:
		files := resolvedFiles(value)
		if len(files) == 0 {
			return nil
		}
		return files
	}
	return str(value)
}

// BuildSubmission normalizes every answered question, in question order.
func BuildSubmission(questions []model.Question, sheet *Sheet, userID string) model.SubmitAnswersPayload {
	out := model.SubmitAnswersPayload{UserID: userID, Answers: []model.AnswerPayload{}}
	for _, q := range questions {
		v := sheet.Value(q.ID)
		if v == nil {
			continue
		}
		out.Answers = append(out.Answers, model.AnswerPayload{
			QuestionID: q.ID,
			Value:      Normalize(q.Type, v),
		})
	}
	return out
}

func first(v any) string {
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return ""
		}
		return val[0]
	case []any:
		if len(val) == 0 {
			return ""
		}
		return str(val[0])
	}
	return str(v)
}

func strs(v any) []string {
	switch val := v.(type) {
	case []string:
		return append([]string{}, val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, str(item))
		}
		return out
	case nil:
		return []string{}
	}
	if s := str(v); s != "" {
		return []string{s}
	}
	return []string{}
}

func str(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = str(item)
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case []model.UploadedFile:
		names := make([]string, len(val))
		for i, f := range val {
			names[i] = f.Name
		}
		return strings.Join(names, ", ")
	}
	return fmt.Sprint(v)
}

func number(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return n, err == nil
	}
	return 0, false
}

func resolvedFiles(v any) []model.FilePayload {
	files, ok := v.([]model.UploadedFile)
	if !ok {
		return nil
	}
	var out []model.FilePayload
	for _, f := range files {
		if f.Uploading || f.URL == "" {
			continue
		}
		out = append(out, model.FilePayload{
			FileName:    f.Name,
			FileType:    f.Type,
			FileSize:    f.Size,
			FileURL:     f.URL,
			PublicID:    f.PublicID,
			DeleteToken: f.DeleteToken,
		})
	}
	return out
}
