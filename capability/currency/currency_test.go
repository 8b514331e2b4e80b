package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

func TestInvokeConverts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/USD", r.URL.Path)
		w.Write([]byte(`{"date":"2025-08-30","rates":{"EUR":0.9123,"GBP":0.78}}`))
	})

	out, err := c.Invoke(context.Background(), core.Args{"amount": 100.0, "from": "USD", "to": "EUR"})
	require.NoError(t, err)
	assert.Contains(t, out, "91.23 EUR")
	assert.Contains(t, out, "rate 1 USD = 0.9123 EUR")
	assert.Contains(t, out, "2025-08-30")
}

func TestInvokeMissingRate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"EUR":0.9}}`))
	})

	_, err := c.Invoke(context.Background(), core.Args{"amount": 10.0, "from": "USD", "to": "KRW"})
	var derr *core.DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, core.KindValidation, derr.Kind)
}

func TestInvokeUpstreamStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Invoke(context.Background(), core.Args{"amount": 10.0, "from": "USD", "to": "EUR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestInvokeRespectsContextDeadline(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Invoke(ctx, core.Args{"amount": 10.0, "from": "USD", "to": "EUR"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
