package assistant

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const sessionAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID returns a correlation id of the form
// session_<unix millis>_<9 base36 chars>. It is not a security token.
func NewSessionID(now time.Time) string {
	var suffix [9]byte
	for i := range suffix {
		suffix[i] = sessionAlphabet[rand.Intn(len(sessionAlphabet))]
	}
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), suffix[:])
}

// Session holds the id sent with every remote turn.
type Session struct {
	mu  sync.RWMutex
	id  string
	now func() time.Time
}

func NewSession(now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{id: NewSessionID(now()), now: now}
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Reset discards the current id and returns a fresh one.
func (s *Session) Reset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.id
	for s.id == prev {
		s.id = NewSessionID(s.now())
	}
	return s.id
}
