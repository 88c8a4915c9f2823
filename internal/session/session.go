// Package session keeps per-conversation dialog state: the current state tag
// and a scratch map of values captured mid-flow.
package session

import (
	"context"
	"maps"
	"time"
)

// StateNone is the idle state.
const StateNone = ""

// Key scopes a session to one user in one chat.
type Key struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

type Session struct {
	State     string            `json:"state"`
	Data      map[string]string `json:"data,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (s *Session) Get(key string) string {
	return s.Data[key]
}

func (s *Session) Set(key, value string) {
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	s.Data[key] = value
}

func (s *Session) Del(keys ...string) {
	for _, k := range keys {
		delete(s.Data, k)
	}
}

// Reset returns the session to idle and drops all scratch data.
func (s *Session) Reset() {
	s.State = StateNone
	s.Data = nil
}

func (s *Session) clone() *Session {
	return &Session{
		State:     s.State,
		Data:      maps.Clone(s.Data),
		UpdatedAt: s.UpdatedAt,
	}
}

// Store persists sessions. Get never returns a nil session: an unknown key
// yields a fresh idle one.
type Store interface {
	Get(ctx context.Context, key Key) (*Session, error)
	Save(ctx context.Context, key Key, s *Session) error
	Clear(ctx context.Context, key Key) error
}
