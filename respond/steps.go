package respond

import (
	"sort"

	"github.com/saveur1/community-system/model"
)

// Step is one section's worth of questions, shown as a single page.
type Step struct {
	Section   model.SurveySection
	Questions []model.Question
}

// BuildSteps groups questions by section, in section Order. Sections without
// questions produce no step.
func BuildSteps(sections []model.SurveySection, questions []model.Question) []Step {
	ordered := append([]model.SurveySection{}, sections...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	var steps []Step
	for _, sec := range ordered {
		var qs []model.Question
		for _, q := range questions {
			if q.SectionID == sec.ID {
				qs = append(qs, q)
			}
		}
		if len(qs) == 0 {
			continue
		}
		sort.SliceStable(qs, func(i, j int) bool {
			return qs[i].QuestionNumber < qs[j].QuestionNumber
		})
		steps = append(steps, Step{Section: sec, Questions: qs})
	}
	return steps
}
