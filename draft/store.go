package draft

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/saveur1/community-system/log"
	"github.com/saveur1/community-system/model"
)

var ErrNotFound = errors.New("no stored draft")

// Store keeps one opaque document per key. Writes always replace the whole
// document.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Save overwrites the stored draft for key.
func Save(ctx context.Context, store Store, key string, d model.SurveyDraft) error {
	data, err := Encode(d, time.Now().UTC())
	if err != nil {
		return err
	}
	return store.Put(ctx, key, data)
}

// Restore loads the draft stored under key. A document that cannot be brought
// to the current schema is deleted and reported as *UnrecoverableError.
func Restore(ctx context.Context, store Store, key string) (Record, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return Record{}, err
	}

	rec, err := Decode(data)
	if err != nil {
		log.WithFields(log.Fields{"key": key}).Warnf("draft.restore: discarding stored draft: %s", err)
		if delErr := store.Delete(ctx, key); delErr != nil {
			log.Errorf("draft.restore.delete: %s", delErr)
		}
		return Record{}, err
	}
	return rec, nil
}

type MemoryStore struct {
	data map[string][]byte
	mu   sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte{}, data...), nil
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte{}, data...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
