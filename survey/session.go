package survey

import (
	"context"
	"errors"
	"time"

	"github.com/saveur1/community-system/draft"
	"github.com/saveur1/community-system/log"
	"github.com/saveur1/community-system/model"
)

// Creator is the network collaborator that stores a finished survey.
type Creator interface {
	CreateSurvey(ctx context.Context, payload model.CreateSurveyPayload) (int, error)
}

// autosaveTimeout bounds one draft write triggered by an editor change.
const autosaveTimeout = 5 * time.Second

type State int

const (
	Restoring State = iota
	Idle
)

// Session ties an Editor to durable draft storage. It starts in Restoring,
// becomes Idle once Open has run, and from then on writes the full draft on
// every change until a submission succeeds.
type Session struct {
	Editor *Editor

	store     draft.Store
	key       string
	state     State
	submitted bool
}

func NewSession(store draft.Store, key string) *Session {
	s := &Session{
		Editor: NewEditor(),
		store:  store,
		key:    key,
		state:  Restoring,
	}
	s.Editor.OnChange(s.autosave)
	return s
}

func (s *Session) State() State {
	return s.state
}

// Open restores the stored draft, if any. An unrecoverable draft has already
// been discarded when its *draft.UnrecoverableError is returned; the session
// is Idle with an empty editor in that case.
func (s *Session) Open(ctx context.Context) error {
	defer func() { s.state = Idle }()

	rec, err := draft.Restore(ctx, s.store, s.key)
	if errors.Is(err, draft.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.Editor.Load(rec.Draft, ActiveSectionFor(rec.Draft)); err != nil {
		return err
	}
	log.Debugf("survey.session.restored: %d sections, %d questions", len(rec.Draft.Sections), len(rec.Draft.Questions))
	return nil
}

// ActiveSectionFor picks the section holding the most questions; ties and
// drafts without questions resolve to the first section.
func ActiveSectionFor(d model.SurveyDraft) string {
	if len(d.Sections) == 0 {
		return ""
	}
	counts := make(map[string]int, len(d.Sections))
	for _, q := range d.Questions {
		counts[q.SectionID]++
	}
	best := d.Sections[0].ID
	for _, sec := range d.Sections[1:] {
		if counts[sec.ID] > counts[best] {
			best = sec.ID
		}
	}
	return best
}

func (s *Session) autosave() {
	if s.state != Idle || s.submitted {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()
	if err := draft.Save(ctx, s.store, s.key, s.Editor.Draft()); err != nil {
		log.Warnf("survey.session.autosave: %s", err)
	}
}

// Submit validates the draft and hands it to creator. On success the stored
// draft is cleared and no further writes happen for the life of the session.
// On failure the draft is kept so the author can retry.
func (s *Session) Submit(ctx context.Context, creator Creator, window Window, allowedRoles []string, surveyType string) (int, error) {
	if s.submitted {
		return 0, errors.New("survey already submitted")
	}
	payload, err := BuildPayload(SaveRequest{
		Draft:        s.Editor.Draft(),
		Window:       window,
		AllowedRoles: allowedRoles,
		SurveyType:   surveyType,
	})
	if err != nil {
		return 0, err
	}

	id, err := creator.CreateSurvey(ctx, payload)
	if err != nil {
		return 0, err
	}

	s.submitted = true
	if err := s.store.Delete(ctx, s.key); err != nil {
		log.Warnf("survey.session.clear: %s", err)
	}
	return id, nil
}
