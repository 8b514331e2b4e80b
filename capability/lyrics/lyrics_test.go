package lyrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecastro/convobot/core"
)

var _ core.Invoker = (*Client)(nil)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(func(o *Options) { o.BaseURL = srv.URL })
}

func TestInvokeFindsLyrics(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Queen/Bohemian%20Rhapsody", r.URL.EscapedPath())
		w.Write([]byte(`{"lyrics":"Is this the real life?\nIs this just fantasy?"}`))
	})

	out, err := c.Invoke(context.Background(), core.Args{"artist": "Queen", "title": "Bohemian Rhapsody"})
	require.NoError(t, err)
	assert.Contains(t, out, "Queen - Bohemian Rhapsody")
	assert.Contains(t, out, "Is this the real life?")
}

func TestInvokeNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Invoke(context.Background(), core.Args{"artist": "Nobody", "title": "Nothing"})
	var derr *core.DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, core.KindValidation, derr.Kind)
	assert.Contains(t, derr.UserMessage(), "no lyrics found")
}

func TestInvokeClipsLongLyrics(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	body := fmt.Sprintf(`{"lyrics":%q}`, sb.String())

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	out, err := c.Invoke(context.Background(), core.Args{"artist": "A", "title": "B"})
	require.NoError(t, err)
	assert.Contains(t, out, "more lines)")
	assert.NotContains(t, out, "line 45")
}
