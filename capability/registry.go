// Package capability implements the registry that maps capability names to
// their invocation contracts: schema validated arguments, consistent error
// handling and the descriptions the intent router matches against.
package capability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ecastro/convobot/core"
	"github.com/ecastro/convobot/internal/util"
	"github.com/ecastro/convobot/logging"
)

// Options configure a Registry.
type Options struct {
	// Logger receives per-invocation events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Registry holds the process-wide capability set. Registration happens at
// startup; afterwards the registry is read-only and safe for concurrent use
// without locking.
type Registry struct {
	logger   logging.Logger
	order    []core.Descriptor
	invokers map[string]core.Invoker
}

// NewRegistry constructs an empty registry.
func NewRegistry(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		logger:   opts.Logger,
		invokers: make(map[string]core.Invoker),
	}
}

// Register adds a capability under its descriptor's name. Names are unique;
// a duplicate registration is an error the caller must treat as fatal at
// startup rather than silently overwriting.
func (r *Registry) Register(desc core.Descriptor, invoker core.Invoker) error {
	if desc.Name == "" {
		return fmt.Errorf("capability descriptor has no name")
	}
	if invoker == nil {
		return fmt.Errorf("capability %q registered without invoker", desc.Name)
	}
	if _, exists := r.invokers[desc.Name]; exists {
		return fmt.Errorf("capability %q already registered", desc.Name)
	}
	r.invokers[desc.Name] = invoker
	r.order = append(r.order, desc)
	r.logger.Debug("capability.registered", "capability", desc.Name, "args", len(desc.Args))
	return nil
}

// List returns the registered descriptors in registration order.
func (r *Registry) List() []core.Descriptor {
	out := make([]core.Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the descriptor for name.
func (r *Registry) Get(name string) (core.Descriptor, bool) {
	for _, d := range r.order {
		if d.Name == name {
			return d, true
		}
	}
	return core.Descriptor{}, false
}

// Invoke validates args against the capability's argument slots and runs its
// invoker. Failures come back as *core.DispatchError: validation problems
// keep their user-facing message, anything from the invoker is classified as
// upstream or timeout.
func (r *Registry) Invoke(ctx context.Context, name string, args core.Args) (string, error) {
	desc, ok := r.Get(name)
	if !ok {
		return "", core.NewInternalError("unknown capability %q", name)
	}

	start := time.Now()
	r.logger.Debug("capability.invoke.start", "capability", name)

	validated, err := util.ValidateArgs(args, desc.Args)
	if err != nil {
		r.logger.Warn("capability.invoke.validation_failed", "capability", name, "error", err.Error())
		return "", core.NewValidationError(name, "%s", validationMessage(err))
	}

	result, err := r.invokers[name].Invoke(ctx, validated)
	if err != nil {
		derr := classify(name, err)
		r.logger.Error("capability.invoke.error", "capability", name, "kind", string(derr.Kind), "error", derr.Message)
		return "", derr
	}

	r.logger.Info("capability.invoke.success", "capability", name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func validationMessage(err error) string {
	var verr *util.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}

// classify maps an invoker failure onto the dispatch error taxonomy,
// forwarding an existing *core.DispatchError unchanged.
func classify(name string, err error) *core.DispatchError {
	var derr *core.DispatchError
	if errors.As(err, &derr) {
		if derr.Capability == "" {
			derr.Capability = name
		}
		return derr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewTimeoutError(name, err)
	}
	return core.NewUpstreamError(name, err)
}
