// Package convobot provides a high-level façade over the dispatch core and
// its services (sessions, capabilities, completion models & logging). Most
// applications interact with this package by:
//  1. Creating a Bot via New() (optionally overriding default in-memory services)
//  2. Registering capabilities (currency, translate, lyrics, weather, custom)
//  3. Dispatching user messages with Dispatch()
//
// The façade delegates routing and serialization to dispatch.Dispatcher while
// keeping setup ergonomics concise. All defaults are safe for local
// development and testing: an in-memory session store and a mock completer
// that needs no credentials. Production deployments supply a real completion
// provider and a structured logger.
package convobot

import (
	"context"
	"sync"
	"time"

	"github.com/ecastro/convobot/capability"
	"github.com/ecastro/convobot/core"
	"github.com/ecastro/convobot/dispatch"
	"github.com/ecastro/convobot/logging"
	"github.com/ecastro/convobot/model"
	"github.com/ecastro/convobot/session"
)

// Options configures the Bot instance.
type Options struct {
	// SessionStore holds per-user conversation memory. Defaults to the
	// in-memory TTL store.
	SessionStore core.SessionStore

	// Completer answers the conversational path. Defaults to a mock
	// completer suitable for tests and local development.
	Completer model.Completer

	// CallTimeout bounds each capability or completion call.
	CallTimeout time.Duration

	// HistoryLimit caps the turns handed to the completer.
	HistoryLimit int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Bot is the high-level façade aggregating the dispatch core and services.
// Capabilities are registered up front; the first dispatched message freezes
// the capability set.
type Bot struct {
	opts     Options
	store    core.SessionStore
	registry *capability.Registry

	once       sync.Once
	dispatcher *dispatch.Dispatcher
}

// New creates a Bot with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Bot {
	opts := Options{
		CallTimeout:  dispatch.DefaultCallTimeout,
		HistoryLimit: dispatch.DefaultHistoryLimit,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewStore(func(o *session.Options) {
			o.Logger = opts.Logger
		})
	}
	if opts.Completer == nil {
		opts.Completer = model.NewMockCompleter("default", "mock")
	}

	return &Bot{
		opts:  opts,
		store: opts.SessionStore,
		registry: capability.NewRegistry(func(o *capability.Options) {
			o.Logger = opts.Logger
		}),
	}
}

// RegisterCapability adds a capability to the bot's registry. Returns an
// error for duplicate names or when called after the first dispatch.
func (b *Bot) RegisterCapability(desc core.Descriptor, invoker core.Invoker) error {
	if b.dispatcher != nil {
		return core.NewInternalError("capability %q registered after first dispatch", desc.Name)
	}
	return b.registry.Register(desc, invoker)
}

// Dispatch processes one user message end to end.
func (b *Bot) Dispatch(ctx context.Context, userKey, text string) core.DispatchResult {
	return b.core().Dispatch(ctx, userKey, text)
}

// ResetSession clears the user's conversation memory.
func (b *Bot) ResetSession(userKey string) error {
	return b.core().ResetSession(userKey)
}

// Capabilities returns the registered descriptors in registration order.
func (b *Bot) Capabilities() []core.Descriptor { return b.registry.List() }

// HelpText renders a usage listing of the registered capabilities.
func (b *Bot) HelpText() string { return b.core().HelpText() }

// SessionStore exposes the underlying store, mainly for health endpoints and
// sweeper wiring.
func (b *Bot) SessionStore() core.SessionStore { return b.store }

// core builds the dispatcher on first use, freezing the capability set.
func (b *Bot) core() *dispatch.Dispatcher {
	b.once.Do(func() {
		b.dispatcher = dispatch.New(b.store, b.registry, b.opts.Completer,
			dispatch.WithCallTimeout(b.opts.CallTimeout),
			dispatch.WithHistoryLimit(b.opts.HistoryLimit),
			dispatch.WithLogger(b.opts.Logger),
		)
	})
	return b.dispatcher
}
