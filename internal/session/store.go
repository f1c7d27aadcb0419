package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"irisout/pkg/realtime"
)

// ErrNotFound reports a session that is absent or past its expiry. The two
// cases are deliberately indistinguishable to callers.
var ErrNotFound = errors.New("session not found or expired")

// DefaultTTL is how long a session lives after creation.
const DefaultTTL = 24 * time.Hour

// eventEffectState names the SSE event carrying a serialized overlay
// instruction.
const eventEffectState = "effect-state"

// feedBuffer bounds the per-viewer event backlog; sends beyond it are dropped.
const feedBuffer = 16

// Session binds an opaque identifier to an expiry time and at most one live
// viewer feed.
type Session struct {
	ID        string
	ExpiresAt time.Time

	// feed is the bound viewer's event channel; nil when no viewer is
	// connected. Guarded by the store mutex.
	feed chan realtime.Event
}

// Store owns the process-wide session map. Creation, lookup, binding,
// dispatch, and sweeping all serialize on one mutex; traffic is low-volume.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// New creates an empty store. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create inserts a fresh session with no bound viewer and returns it. The
// identifier is a v4 UUID; possession of it is the only access control.
func (s *Store) Create(now time.Time) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		ExpiresAt: now.Add(s.ttl),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.mu.Unlock()
	log.Printf("current session count: %d", count)
	return sess
}

// Get returns the session if it exists and has not expired.
func (s *Store) Get(id string, now time.Time) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || now.After(sess.ExpiresAt) {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete removes the session. Deleting an unknown or already-expired id
// reports ErrNotFound rather than an exceptional condition.
func (s *Store) Delete(id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || now.After(sess.ExpiresAt) {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Bind attaches a new viewer feed to the session, superseding any previous
// one. The old feed is dropped, not closed: its viewer simply stops receiving
// events and its connection winds down on its own.
func (s *Store) Bind(id string, now time.Time) (<-chan realtime.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || now.After(sess.ExpiresAt) {
		return nil, ErrNotFound
	}
	feed := make(chan realtime.Event, feedBuffer)
	sess.feed = feed
	return feed, nil
}

// Dispatch forwards an already-serialized effect state to the session's bound
// viewer. Delivery is fire-and-forget: with no viewer bound the update is
// dropped, and a full feed buffer (viewer gone or lagging) drops it too.
// Only an unknown or expired id is an error.
func (s *Store) Dispatch(id string, payload string, now time.Time) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok || now.After(sess.ExpiresAt) {
		s.mu.Unlock()
		return ErrNotFound
	}
	feed := sess.feed
	s.mu.Unlock()

	if feed == nil {
		return nil
	}
	select {
	case feed <- realtime.Event{Name: eventEffectState, Data: payload}:
	default:
	}
	return nil
}

// Sweep removes every expired session and returns the remaining count.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
	return len(s.sessions)
}

// Run sweeps expired sessions on a fixed interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count := s.Sweep(time.Now().UTC())
			log.Printf("current session count: %d", count)
		}
	}
}
