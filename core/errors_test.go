package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchErrorUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *DispatchError
		want string
	}{
		{
			name: "validation shown verbatim",
			err:  NewValidationError("currency", "unknown currency code %q", "XXX"),
			want: `unknown currency code "XXX"`,
		},
		{
			name: "upstream collapses to generic message",
			err:  NewUpstreamError("lyrics", errors.New("503 from api.lyrics.ovh")),
			want: "The service is unavailable right now, please try again later.",
		},
		{
			name: "timeout reads like upstream",
			err:  NewTimeoutError("currency", context.DeadlineExceeded),
			want: "The service is unavailable right now, please try again later.",
		},
		{
			name: "internal stays vague",
			err:  NewInternalError("empty user key"),
			want: "Something went wrong processing your message.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.UserMessage())
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(NewValidationError("currency", "bad amount")))
	assert.Equal(t, KindTimeout, KindOf(context.DeadlineExceeded))
	assert.Equal(t, KindTimeout, KindOf(fmt.Errorf("call failed: %w", context.DeadlineExceeded)))
	assert.Equal(t, KindUpstream, KindOf(errors.New("connection refused")))

	// wrapped DispatchError wins over the deadline sentinel
	wrapped := fmt.Errorf("outer: %w", NewUpstreamError("weather", errors.New("boom")))
	assert.Equal(t, KindUpstream, KindOf(wrapped))
}

func TestDispatchErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewUpstreamError("translate", cause)
	require.ErrorIs(t, err, cause)
}
