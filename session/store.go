package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ecastro/convobot/core"
	"github.com/ecastro/convobot/logging"
)

// DefaultTTL is how long a session survives without activity.
const DefaultTTL = 30 * time.Minute

// DefaultMaxTurns caps retained history at the last ten exchanges.
const DefaultMaxTurns = 20

// Options configure a Store.
type Options struct {
	// TTL is the inactivity window after which a session is discarded.
	// Zero disables expiry.
	TTL time.Duration
	// MaxTurns caps the number of retained turns per session; older turns
	// are silently dropped. Zero means unlimited.
	MaxTurns int
	// Logger receives expiry and sweep events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Store is a volatile core.SessionStore keeping sessions in a process-local
// map. Safe for concurrent use; operations on distinct user keys never block
// each other. Returned sessions are clones to prevent external mutation of
// internal state.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	ttl      time.Duration
	maxTurns int
	logger   logging.Logger

	// now is overridable in tests to exercise TTL expiry deterministically.
	now func() time.Time
}

type entry struct {
	mu   sync.Mutex
	sess *core.Session
}

// NewStore constructs an empty in-memory session store.
func NewStore(optFns ...func(o *Options)) *Store {
	opts := Options{
		TTL:      DefaultTTL,
		MaxTurns: DefaultMaxTurns,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Store{
		entries:  make(map[string]*entry),
		ttl:      opts.TTL,
		maxTurns: opts.MaxTurns,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// GetOrCreate returns the live session for key (clone) or a fresh empty one.
// An expired session is discarded and replaced transparently; stale turns are
// never merged into the replacement.
func (s *Store) GetOrCreate(key string) (*core.Session, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	e := s.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.expiredLocked(e.sess) {
		s.logger.Info("session.expired", "user_key", key, "dropped_turns", len(e.sess.Turns))
		e.sess = core.NewSession(key)
	}
	return e.sess.Clone(), nil
}

// AppendTurn appends to the session's history and refreshes LastActivity,
// creating the session if absent. History beyond MaxTurns is trimmed from
// the front.
func (s *Store) AppendTurn(key string, role core.Role, text string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	e := s.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sess.Turns = append(e.sess.Turns, core.NewTurn(role, text))
	if s.maxTurns > 0 && len(e.sess.Turns) > s.maxTurns {
		e.sess.Turns = append([]core.Turn(nil), e.sess.Turns[len(e.sess.Turns)-s.maxTurns:]...)
	}
	e.sess.LastActivity = s.now().UTC()
	return nil
}

// Reset clears a session's turns without removing the key.
func (s *Store) Reset(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	e := s.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sess.Turns = e.sess.Turns[:0]
	e.sess.LastActivity = s.now().UTC()
	return nil
}

// History returns the most recent maxTurns turns in chronological order.
// Older turns are silently dropped. An unknown key yields an empty history.
func (s *Store) History(key string, maxTurns int) ([]core.Turn, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	turns := e.sess.Turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	out := make([]core.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Stats reports store-wide counters for health endpoints.
type Stats struct {
	ActiveSessions int `json:"active_sessions"`
	TotalTurns     int `json:"total_turns"`
}

// Stats returns the current number of sessions and retained turns.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{ActiveSessions: len(s.entries)}
	for _, e := range s.entries {
		e.mu.Lock()
		st.TotalTurns += len(e.sess.Turns)
		e.mu.Unlock()
	}
	return st
}

// Sweep removes expired sessions and returns how many were evicted. Callers
// normally use StartSweeper instead.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, e := range s.entries {
		e.mu.Lock()
		expired := s.expiredLocked(e.sess)
		e.mu.Unlock()
		if expired {
			delete(s.entries, key)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("session.sweep", "evicted", evicted, "remaining", len(s.entries))
	}
	return evicted
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// entry returns the map slot for key, creating it on first use.
func (s *Store) entry(key string) *entry {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[key]; ok {
		return e
	}
	e = &entry{sess: core.NewSession(key)}
	e.sess.Created = s.now().UTC()
	e.sess.LastActivity = e.sess.Created
	s.entries[key] = e
	return e
}

// expiredLocked reports whether sess outlived the TTL; caller holds the entry lock.
func (s *Store) expiredLocked(sess *core.Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.LastActivity) > s.ttl
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return core.NewInternalError("empty user key")
	}
	return nil
}
