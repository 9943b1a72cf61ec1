package survey

import "github.com/saveur1/community-system/model"

// Renumber assigns a continuous QuestionNumber (1..N) to questions by walking
// sections in registry order and, inside each section, the questions in their
// current relative order. The input slice is left untouched.
func Renumber(questions []model.Question, sections []model.Section) []model.Question {
	out := make([]model.Question, len(questions))
	for i, q := range questions {
		out[i] = q.Clone()
		out[i].QuestionNumber = 0
	}

	next := 1
	for _, s := range sections {
		for i := range out {
			if out[i].SectionID == s.ID {
				out[i].QuestionNumber = next
				next++
			}
		}
	}
	return out
}
