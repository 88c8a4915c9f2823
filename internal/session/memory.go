package session

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Sessions live until cleared or swept.
type Memory struct {
	mu       sync.RWMutex
	sessions map[Key]*Session
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[Key]*Session),
		now:      time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key Key) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[key]; ok {
		return s.clone(), nil
	}
	return &Session{State: StateNone}, nil
}

func (m *Memory) Save(_ context.Context, key Key, s *Session) error {
	stored := s.clone()
	stored.UpdatedAt = m.now()

	m.mu.Lock()
	m.sessions[key] = stored
	m.mu.Unlock()

	s.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *Memory) Clear(_ context.Context, key Key) error {
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
	return nil
}

// Sweep drops sessions untouched for longer than idle and reports how many were removed.
func (m *Memory) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, k)
			removed++
		}
	}
	return removed
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
