package core

import (
	"time"

	"github.com/google/uuid"
)

// Role tags a turn as authored by the user or the assistant.
type Role string

const (
	// RoleUser marks a turn written by the conversation participant.
	RoleUser Role = "user"
	// RoleAssistant marks a turn written by the bot.
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a session's history. Turns are immutable after
// creation; ordering inside a session is strictly chronological.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a turn stamped with the current UTC time.
func NewTurn(role Role, text string) Turn {
	return Turn{ID: NewID(), Role: role, Text: text, Timestamp: time.Now().UTC()}
}

// Session is the per-user conversational memory. It is a plain value owned by
// the session store; callers receive defensive copies and never mutate one
// directly. A session is never persisted across process restarts.
type Session struct {
	Key          string    `json:"key"`
	Turns        []Turn    `json:"turns"`
	Created      time.Time `json:"created"`
	LastActivity time.Time `json:"last_activity"`
}

// NewSession creates an empty session for the given user key.
func NewSession(key string) *Session {
	now := time.Now().UTC()
	return &Session{Key: key, Turns: []Turn{}, Created: now, LastActivity: now}
}

// Clone returns a deep copy safe for independent use by callers.
func (s *Session) Clone() *Session {
	clone := &Session{Key: s.Key, Turns: make([]Turn, len(s.Turns)), Created: s.Created, LastActivity: s.LastActivity}
	copy(clone.Turns, s.Turns)
	return clone
}

// SessionStore is the contract for per-user conversational memory with
// TTL-based expiry. Implementations must be safe for concurrent use and must
// not block unrelated user keys against each other.
type SessionStore interface {
	// GetOrCreate returns the live session for key, transparently replacing
	// an expired one with a fresh empty session.
	GetOrCreate(key string) (*Session, error)
	// AppendTurn appends to the session's history and refreshes LastActivity.
	AppendTurn(key string, role Role, text string) error
	// Reset clears a session's turns without removing the key.
	Reset(key string) error
	// History returns the most recent maxTurns turns in chronological order.
	History(key string, maxTurns int) ([]Turn, error)
}

// NewID generates a unique identifier for turns and dispatches.
func NewID() string { return uuid.NewString() }
