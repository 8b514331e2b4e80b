package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
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
	return NewClient("test-key", func(o *Options) { o.BaseURL = srv.URL })
}

func TestInvokeReportsWeather(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Madrid", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(`{
			"name":"Madrid","sys":{"country":"ES"},
			"main":{"temp":23.5,"feels_like":22.1,"humidity":60},
			"weather":[{"description":"clear sky"}],
			"wind":{"speed":3.4,"deg":45}
		}`))
	})

	out, err := c.Invoke(context.Background(), core.Args{"city": "Madrid"})
	require.NoError(t, err)
	assert.Contains(t, out, "Madrid, ES")
	assert.Contains(t, out, "23.5°C")
	assert.Contains(t, out, "clear sky")
	assert.Contains(t, out, "NE")
}

func TestInvokeCityNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Invoke(context.Background(), core.Args{"city": "Atlantis"})
	var derr *core.DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, core.KindValidation, derr.Kind)
	assert.Contains(t, derr.UserMessage(), "not found")
}

func TestInvokeBadAPIKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Invoke(context.Background(), core.Args{"city": "Madrid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestWindDirection(t *testing.T) {
	assert.Equal(t, "N", windDirection(0))
	assert.Equal(t, "NE", windDirection(45))
	assert.Equal(t, "S", windDirection(180))
	assert.Equal(t, "N", windDirection(350))
}
