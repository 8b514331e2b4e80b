// Package model defines the completion collaborator used for the
// conversational path: given the recent session history and a new user
// message, produce a free-text reply. Provider adapters live in subpackages
// so callers never branch on vendor types.
package model

import (
	"context"
	"fmt"

	"github.com/ecastro/convobot/core"
)

// Info contains metadata about a completer implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Completer is the minimal interface the dispatch core needs for plain
// conversation. History arrives in chronological order and excludes the new
// message. Implementations must honor ctx cancellation and deadlines.
type Completer interface {
	Complete(ctx context.Context, history []core.Turn, message string) (string, error)

	// Info returns information about the completer implementation.
	Info() Info
}

// MockCompleter is a lightweight in-memory Completer useful for tests and
// local development without credentials.
type MockCompleter struct {
	info      Info
	responses map[string]string
	err       error
}

// NewMockCompleter constructs a MockCompleter.
func NewMockCompleter(name, provider string) *MockCompleter {
	return &MockCompleter{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned reply for an input message.
func (m *MockCompleter) AddResponse(message, reply string) { m.responses[message] = reply }

// Fail makes every Complete call return err.
func (m *MockCompleter) Fail(err error) { m.err = err }

// Complete implements Completer.
func (m *MockCompleter) Complete(ctx context.Context, history []core.Turn, message string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	if reply, ok := m.responses[message]; ok {
		return reply, nil
	}
	return fmt.Sprintf("Mock reply to: %s (history: %d turns)", message, len(history)), nil
}

// Info implements Completer.
func (m *MockCompleter) Info() Info { return m.info }
