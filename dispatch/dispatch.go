// Package dispatch is the per-message core: it serializes messages from the
// same user, routes each one, invokes the chosen collaborator, and records
// both sides of the exchange in session memory.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ecastro/convobot/capability"
	"github.com/ecastro/convobot/core"
	"github.com/ecastro/convobot/logging"
	"github.com/ecastro/convobot/model"
	"github.com/ecastro/convobot/router"
)

const (
	// DefaultCallTimeout bounds a single capability or completion call.
	DefaultCallTimeout = 10 * time.Second
	// DefaultHistoryLimit caps the turns handed to the completion model.
	DefaultHistoryLimit = 20
)

// Options configure a Dispatcher.
type Options struct {
	// CallTimeout bounds each outbound capability or completion call.
	CallTimeout time.Duration
	// HistoryLimit caps how many prior turns the completer sees.
	HistoryLimit int
	Logger       logging.Logger
}

// Dispatcher owns the message pipeline. Messages from distinct users proceed
// in parallel; messages from the same user are strictly serialized, each one
// observing the session state left by the previous one.
type Dispatcher struct {
	sessions  core.SessionStore
	registry  *capability.Registry
	completer model.Completer
	router    *router.Router
	locks     *keyedMutex
	opts      Options
}

// New builds a Dispatcher over the given collaborators. The router is derived
// from the registry's descriptors at construction time, so capabilities must
// be registered before New is called.
func New(sessions core.SessionStore, registry *capability.Registry, completer model.Completer, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		CallTimeout:  DefaultCallTimeout,
		HistoryLimit: DefaultHistoryLimit,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}

	return &Dispatcher{
		sessions:  sessions,
		registry:  registry,
		completer: completer,
		router:    router.New(registry.List(), func(o *router.Options) { o.Logger = opts.Logger }),
		locks:     newKeyedMutex(),
		opts:      opts,
	}
}

// WithCallTimeout bounds each outbound capability or completion call.
func WithCallTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.CallTimeout = d }
}

// WithHistoryLimit caps how many prior turns the completer sees.
func WithHistoryLimit(n int) func(o *Options) {
	return func(o *Options) { o.HistoryLimit = n }
}

// WithLogger sets the dispatcher's logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Dispatch processes one user message end to end and returns the result. The
// user's lock is held for the whole pipeline, so a slow capability call for
// one user never delays another user's messages.
//
// Apart from the reset and help control commands, every dispatch appends
// exactly one user turn and one assistant turn to the session; on failure the
// assistant turn holds the user-facing error text, so the conversation stays
// coherent across errors.
func (d *Dispatcher) Dispatch(ctx context.Context, userKey, text string) core.DispatchResult {
	req := core.NewDispatchRequest(strings.TrimSpace(userKey), text)

	if req.UserKey == "" {
		derr := core.NewValidationError("", "user key must not be empty")
		return d.finish(req, "", derr.UserMessage(), derr)
	}
	if strings.TrimSpace(req.Text) == "" {
		derr := core.NewValidationError("", "message must not be empty")
		return d.finish(req, "", derr.UserMessage(), derr)
	}

	unlock := d.locks.lock(req.UserKey)
	defer unlock()

	// Control commands act on the session itself and leave no turns behind.
	switch command(req.Text) {
	case "reset":
		if err := d.sessions.Reset(req.UserKey); err != nil {
			derr := asDispatchError(err)
			return d.finish(req, "", derr.UserMessage(), derr)
		}
		return d.finish(req, "", "Conversation history cleared.", nil)
	case "help":
		return d.finish(req, "", d.HelpText(), nil)
	}

	d.opts.Logger.Debug("dispatch.start", "request_id", req.ID, "user_key", req.UserKey)

	if _, err := d.sessions.GetOrCreate(req.UserKey); err != nil {
		derr := asDispatchError(err)
		return d.finish(req, "", derr.UserMessage(), derr)
	}

	// History is snapshotted before the user turn is appended, so the
	// completer receives the prior exchanges plus the new message exactly
	// once.
	history, err := d.sessions.History(req.UserKey, d.opts.HistoryLimit)
	if err != nil {
		derr := asDispatchError(err)
		return d.finish(req, "", derr.UserMessage(), derr)
	}
	if err := d.sessions.AppendTurn(req.UserKey, core.RoleUser, req.Text); err != nil {
		derr := asDispatchError(err)
		return d.finish(req, "", derr.UserMessage(), derr)
	}

	rt := d.router.Route(req.Text)

	var (
		reply   string
		capName string
		callErr error
	)
	switch rt.Kind {
	case router.CapabilityCall:
		capName = rt.Capability
		if rt.Err != nil {
			callErr = rt.Err
		} else {
			reply, callErr = d.invoke(ctx, rt)
		}
	default:
		reply, callErr = d.complete(ctx, history, req.Text)
	}

	if callErr != nil {
		derr := asDispatchError(callErr)
		userMsg := derr.UserMessage()
		if err := d.sessions.AppendTurn(req.UserKey, core.RoleAssistant, userMsg); err != nil {
			d.opts.Logger.Error("dispatch.append_failed", "request_id", req.ID, "error", err)
		}
		return d.finish(req, capName, userMsg, derr)
	}

	if err := d.sessions.AppendTurn(req.UserKey, core.RoleAssistant, reply); err != nil {
		derr := asDispatchError(err)
		return d.finish(req, capName, derr.UserMessage(), derr)
	}
	return d.finish(req, capName, reply, nil)
}

func (d *Dispatcher) invoke(ctx context.Context, rt router.Route) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.CallTimeout)
	defer cancel()
	return d.registry.Invoke(ctx, rt.Capability, rt.Args)
}

func (d *Dispatcher) complete(ctx context.Context, history []core.Turn, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.CallTimeout)
	defer cancel()

	reply, err := d.completer.Complete(ctx, history, text)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// finish assembles the result and emits the terminal log line.
func (d *Dispatcher) finish(req core.DispatchRequest, capName, reply string, derr *core.DispatchError) core.DispatchResult {
	res := core.DispatchResult{
		ID:         req.ID,
		UserKey:    req.UserKey,
		Reply:      reply,
		Capability: capName,
		OK:         derr == nil,
		Err:        derr,
		Duration:   time.Since(req.Arrived),
	}
	if derr != nil {
		d.opts.Logger.Warn("dispatch.error",
			"request_id", req.ID, "user_key", req.UserKey,
			"capability", capName, "kind", string(derr.Kind),
			"error", derr.Message, "duration_ms", res.Duration.Milliseconds())
	} else {
		d.opts.Logger.Info("dispatch.done",
			"request_id", req.ID, "user_key", req.UserKey,
			"capability", capName, "duration_ms", res.Duration.Milliseconds())
	}
	return res
}

// ResetSession clears the user's conversation memory.
func (d *Dispatcher) ResetSession(userKey string) error {
	userKey = strings.TrimSpace(userKey)
	if userKey == "" {
		return core.NewValidationError("", "user key must not be empty")
	}
	unlock := d.locks.lock(userKey)
	defer unlock()
	return d.sessions.Reset(userKey)
}

// Capabilities returns the registered capability descriptors in registration
// order.
func (d *Dispatcher) Capabilities() []core.Descriptor {
	return d.registry.List()
}

// HelpText renders a short usage listing of the registered capabilities.
func (d *Dispatcher) HelpText() string {
	descs := d.registry.List()
	var b strings.Builder
	b.WriteString("Available capabilities:\n")
	if len(descs) == 0 {
		b.WriteString("  (none registered)\n")
	}
	for _, desc := range descs {
		fmt.Fprintf(&b, "  %s: %s\n", desc.Name, desc.Description)
	}
	b.WriteString("Anything else is answered conversationally.")
	return b.String()
}

// command recognizes single-word control commands, with or without the
// leading slash.
func command(text string) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "reset", "/reset":
		return "reset"
	case "help", "/help":
		return "help"
	}
	return ""
}

// asDispatchError normalizes any error into a *DispatchError for rendering.
func asDispatchError(err error) *core.DispatchError {
	var derr *core.DispatchError
	if errors.As(err, &derr) {
		return derr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewTimeoutError("", err)
	}
	return core.NewUpstreamError("", err)
}
