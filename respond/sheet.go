package respond

import (
	"sync"

	"github.com/saveur1/community-system/model"
)

// Sheet holds the respondent's in-memory answers, keyed by question id.
// Upload tasks write to it from their own goroutines, so every access goes
// through the mutex.
type Sheet struct {
	mu      sync.Mutex
	answers map[int64]*model.Answer
}

func NewSheet() *Sheet {
	return &Sheet{answers: make(map[int64]*model.Answer)}
}

func (s *Sheet) answer(questionID int64) *model.Answer {
	a, ok := s.answers[questionID]
	if !ok {
		a = &model.Answer{QuestionID: questionID}
		s.answers[questionID] = a
	}
	return a
}

func (s *Sheet) Value(questionID int64) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[questionID]
	if !ok {
		return nil
	}
	return copyValue(a.Value)
}

func (s *Sheet) Set(questionID int64, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answer(questionID).Value = copyValue(value)
}

// Toggle adds option to a multi-select answer, or removes it if present.
func (s *Sheet) Toggle(questionID int64, option string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.answer(questionID)
	current, _ := a.Value.([]string)

	next := make([]string, 0, len(current)+1)
	found := false
	for _, o := range current {
		if o == option {
			found = true
			continue
		}
		next = append(next, o)
	}
	if !found {
		next = append(next, option)
	}
	a.Value = next
}

func (s *Sheet) Files(questionID int64) []model.UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[questionID]
	if !ok {
		return nil
	}
	files, _ := a.Value.([]model.UploadedFile)
	return append([]model.UploadedFile(nil), files...)
}

func (s *Sheet) AddFile(questionID int64, f model.UploadedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.answer(questionID)
	files, _ := a.Value.([]model.UploadedFile)
	a.Value = append(append([]model.UploadedFile{}, files...), f)
}

// UpdateFile applies fn to the file with the given id. It reports false, and
// does nothing, when the file is no longer in the list.
func (s *Sheet) UpdateFile(questionID int64, fileID string, fn func(*model.UploadedFile)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[questionID]
	if !ok {
		return false
	}
	files, _ := a.Value.([]model.UploadedFile)
	next := append([]model.UploadedFile{}, files...)
	for i := range next {
		if next[i].ID == fileID {
			fn(&next[i])
			next[i].ID = fileID
			a.Value = next
			return true
		}
	}
	return false
}

func (s *Sheet) RemoveFile(questionID int64, fileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[questionID]
	if !ok {
		return false
	}
	files, _ := a.Value.([]model.UploadedFile)
	next := make([]model.UploadedFile, 0, len(files))
	for _, f := range files {
		if f.ID != fileID {
			next = append(next, f)
		}
	}
	a.Value = next
	return len(next) != len(files)
}

// Pending reports whether any file of any answer is still uploading.
func (s *Sheet) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.answers {
		files, _ := a.Value.([]model.UploadedFile)
		for _, f := range files {
			if f.Uploading {
				return true
			}
		}
	}
	return false
}

// Reset discards every answer.
func (s *Sheet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = make(map[int64]*model.Answer)
}

func (s *Sheet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

func copyValue(v any) any {
	switch val := v.(type) {
	case []string:
		return append([]string{}, val...)
	case []model.UploadedFile:
		return append([]model.UploadedFile{}, val...)
	case []any:
		return append([]any{}, val...)
	}
	return v
}
