package draft

import (
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/saveur1/community-system/model"
)

// CurrentVersion is the schema version written by Save. Version 0 stands
// for the unversioned documents that stored a bare draft.
const CurrentVersion = 2

var ErrUnrecoverable = errors.New("draft cannot be restored")

// UnrecoverableError is returned when a stored draft has no migration path
// to the current schema. The stored document is discarded.
type UnrecoverableError struct {
	Version int
	Reason  string
}

func (e *UnrecoverableError) Error() string {
	return fmt.Sprintf("draft v%d cannot be restored: %s", e.Version, e.Reason)
}

func (e *UnrecoverableError) Is(target error) bool {
	return target == ErrUnrecoverable
}

type Record struct {
	Version int               `json:"version"`
	SavedAt time.Time         `json:"savedAt"`
	Draft   model.SurveyDraft `json:"draft"`
}

// legacySectionIDs are the fixed ids the first unversioned drafts used.
var legacySectionIDs = map[string]bool{"1": true, "2": true, "3": true}

// Encode serializes d as a current-version record.
func Encode(d model.SurveyDraft, savedAt time.Time) ([]byte, error) {
	return json.Marshal(Record{Version: CurrentVersion, SavedAt: savedAt, Draft: d})
}

// Decode parses a stored document, current or legacy, and brings it to
// CurrentVersion.
func Decode(data []byte) (Record, error) {
	var head struct {
		Version int             `json:"version"`
		Draft   json.RawMessage `json:"draft"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Record{}, &UnrecoverableError{Reason: "malformed document: " + err.Error()}
	}

	var rec Record
	if head.Draft == nil {
		// unversioned: the document is the draft itself
		if err := json.Unmarshal(data, &rec.Draft); err != nil {
			return Record{}, &UnrecoverableError{Reason: "malformed draft: " + err.Error()}
		}
	} else if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, &UnrecoverableError{Version: head.Version, Reason: "malformed record: " + err.Error()}
	}
	return upgrade(rec)
}

func upgrade(rec Record) (Record, error) {
	switch {
	case rec.Version > CurrentVersion:
		return Record{}, &UnrecoverableError{Version: rec.Version, Reason: "written by a newer schema"}
	case rec.Version < CurrentVersion:
		for _, s := range rec.Draft.Sections {
			if legacySectionIDs[s.ID] {
				return Record{}, &UnrecoverableError{Version: rec.Version, Reason: "legacy section id " + s.ID}
			}
		}
		rec.Version = CurrentVersion
	}
	if err := checkIntegrity(rec.Draft); err != nil {
		return Record{}, &UnrecoverableError{Version: rec.Version, Reason: err.Error()}
	}
	return rec, nil
}

func checkIntegrity(d model.SurveyDraft) error {
	if len(d.Sections) == 0 {
		return errors.New("no sections")
	}
	known := make(map[string]bool, len(d.Sections))
	for _, s := range d.Sections {
		if _, err := uuid.Parse(s.ID); err != nil {
			return fmt.Errorf("section id %q is not a UUID", s.ID)
		}
		known[s.ID] = true
	}
	for _, q := range d.Questions {
		if !known[q.SectionID] {
			return fmt.Errorf("question %d references missing section %q", q.ID, q.SectionID)
		}
	}
	return nil
}

// Check reports whether d would survive a round trip through Restore.
func Check(d model.SurveyDraft) error {
	return checkIntegrity(d)
}
