package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
)

// Store owns every live session. All reads return copies.
type Store struct {
	sessions map[string]*domain.Session
	mu       sync.RWMutex
	now      func() time.Time
}

type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a connected session with no room.
func (s *Store) Open() domain.Session {
	sess := domain.NewSession(uuid.New().String(), s.now())

	s.mu.Lock()
	s.sessions[sess.ID] = &sess
	s.mu.Unlock()

	return sess
}

// Touch records activity. Unknown ids are ignored; late frames may arrive
// after eviction.
func (s *Store) Touch(id string) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.LastActiveAt = now
	}
}

// SetRoom points the session at roomID, or at no room when roomID is empty.
func (s *Store) SetRoom(id, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.CurrentRoom = roomID
	}
}

// Close removes the session and returns its final state. Closing twice is harmless.
func (s *Store) Close(id string) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	delete(s.sessions, id)
	return *sess, true
}

// CloseIfIdle removes the session only if its last activity is still strictly
// before threshold. Activity recorded after an IdleSince query keeps it alive.
func (s *Store) CloseIfIdle(id string, threshold time.Time) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || !sess.LastActiveAt.Before(threshold) {
		return domain.Session{}, false
	}
	delete(s.sessions, id)
	return *sess, true
}

func (s *Store) Get(id string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	return *sess, true
}

// IdleSince lists sessions whose last activity is strictly before threshold.
func (s *Store) IdleSince(threshold time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, sess := range s.sessions {
		if sess.LastActiveAt.Before(threshold) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
