package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NovobRom/new-delivery-dashboard/internal/importer"
)

type sessionEntry struct {
	wizard    *importer.Wizard
	expiresAt time.Time
}

// sessionStore 导入会话缓存，空闲超过 ttl 的会话被清理（解析中的除外）
type sessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]*sessionEntry
	now   func() time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:   ttl,
		items: make(map[string]*sessionEntry),
		now:   time.Now,
	}
}

func (s *sessionStore) create(newWizard func(id string) *importer.Wizard) *importer.Wizard {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(s.now())

	id := uuid.New().String()
	w := newWizard(id)
	s.items[id] = &sessionEntry{wizard: w, expiresAt: s.now().Add(s.ttl)}
	return w
}

func (s *sessionStore) get(id string) (*importer.Wizard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(s.now())

	e, ok := s.items[id]
	if !ok {
		return nil, false
	}
	e.expiresAt = s.now().Add(s.ttl)
	return e.wizard, true
}

func (s *sessionStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *sessionStore) purgeExpiredLocked(now time.Time) {
	for k, e := range s.items {
		if now.After(e.expiresAt) && !e.wizard.State().IsLoading() {
			delete(s.items, k)
		}
	}
}
