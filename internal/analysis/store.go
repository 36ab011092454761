package analysis

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"licznik/internal/workbook"
)

// ErrSessionNotFound is returned for summary/export requests that reference
// an unknown or already evicted session. The caller must re-upload.
var ErrSessionNotFound = errors.New("sesja analizy nie istnieje")

// Session owns one merged workbook for the lifetime of an analysis.
type Session struct {
	ID          string
	Workbook    *workbook.Workbook
	SourceFiles []string
	RequestedBy string
	CreatedAt   time.Time
}

// Store is the in-memory session registry. Sessions are created on upload and
// evicted after the configured TTL; a TTL of zero disables eviction and keeps
// sessions for the life of the process.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	ttl       time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// NewStore creates a session store. With a positive ttl a janitor goroutine
// sweeps expired sessions once a minute until Close is called.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.janitor()
	}
	return s
}

// Create registers a merged workbook and returns the new session.
func (s *Store) Create(wb *workbook.Workbook, sourceFiles []string, userID string) *Session {
	session := &Session{
		ID:          uuid.NewString(),
		Workbook:    wb,
		SourceFiles: sourceFiles,
		RequestedBy: userID,
		CreatedAt:   time.Now(),
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

// Get returns a session by id, or false when it is unknown or expired.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && time.Since(session.CreatedAt) > s.ttl {
		return nil, false
	}
	return session, true
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the janitor. Safe to call multiple times.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Store) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Store) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if now.Sub(session.CreatedAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
