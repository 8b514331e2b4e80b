// Package testutil holds shared test fixtures.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ecastro/convobot/core"
)

// Exchange builds alternating user/assistant turns from message pairs, for
// seeding completer history in tests.
func Exchange(pairs ...string) []core.Turn {
	turns := make([]core.Turn, 0, len(pairs))
	for i, text := range pairs {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		turns = append(turns, core.NewTurn(role, text))
	}
	return turns
}

// JSONServer starts an httptest server answering every request with the given
// status and JSON body. The server is closed when the test ends.
func JSONServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}
