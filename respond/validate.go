package respond

import (
	"math"
	"strings"

	"github.com/saveur1/community-system/model"
)

// IsAnswered applies the emptiness rule of the question's type to value.
func IsAnswered(t model.QuestionType, value any) bool {
	switch t {
	case model.MultipleChoice, model.FileUpload:
		return length(value) > 0
	case model.Rating, model.LinearScale:
		n, ok := number(value)
		return ok && !math.IsNaN(n)
	}
	return strings.TrimSpace(str(value)) != ""
}

func length(v any) int {
	switch val := v.(type) {
	case []string:
		return len(val)
	case []any:
		return len(val)
	case []model.UploadedFile:
		return len(val)
	}
	return 0
}
