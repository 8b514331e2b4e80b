package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecastro/convobot/internal/testutil"
)

var _ Completer = (*MockCompleter)(nil)

func TestMockCompleter(t *testing.T) {
	m := NewMockCompleter("mock", "local")
	m.AddResponse("hello", "hi there")

	reply, err := m.Complete(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)

	reply, err = m.Complete(context.Background(), testutil.Exchange("x", "reply to x"), "unseen")
	require.NoError(t, err)
	assert.Contains(t, reply, "unseen")
	assert.Contains(t, reply, "2 turns")
}

func TestMockCompleterFail(t *testing.T) {
	m := NewMockCompleter("mock", "local")
	boom := errors.New("rate limited")
	m.Fail(boom)

	_, err := m.Complete(context.Background(), nil, "hello")
	assert.ErrorIs(t, err, boom)
}

func TestMockCompleterHonorsContext(t *testing.T) {
	m := NewMockCompleter("mock", "local")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Complete(ctx, nil, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}
