package core

import "context"

// ArgType constrains the value accepted by an argument slot.
type ArgType string

const (
	// ArgString is free text, passed through unmodified except for trimming.
	ArgString ArgType = "string"
	// ArgNumber must parse as a positive real number.
	ArgNumber ArgType = "number"
	// ArgCode is a short identifier (currency or language code) that is
	// case-normalized and checked against the slot's Enum set.
	ArgCode ArgType = "code"
)

// ArgSpec describes one argument slot of a capability. Order matters: the
// explicit-command grammar binds positional tokens to slots in declaration
// order.
type ArgSpec struct {
	Name        string   `json:"name"`
	Type        ArgType  `json:"type"`
	Required    bool     `json:"required"`
	Description string   `json:"description,omitempty"`
	// Enum lists the accepted values for ArgCode slots. Matching is
	// case-insensitive; the canonical casing is the one listed here.
	Enum []string `json:"enum,omitempty"`
}

// Descriptor declares a capability: its unique name, the natural-language
// description used for intent matching, and its ordered argument slots.
// Descriptors are immutable after registration and owned by the registry.
type Descriptor struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Args        []ArgSpec `json:"args"`
}

// Args carries validated, named argument values into an invoker. Values are
// string, float64 or bool depending on the slot type.
type Args map[string]any

// String returns the named string argument or "" when absent.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Number returns the named numeric argument or 0 when absent.
func (a Args) Number(name string) float64 {
	f, _ := a[name].(float64)
	return f
}

// Invoker executes a single capability against its external collaborator.
// The returned string is the user-facing success payload. Failures must be
// reported as *DispatchError so the dispatch core can classify them.
type Invoker interface {
	Invoke(ctx context.Context, args Args) (string, error)
}

// InvokerFunc adapts a plain function to the Invoker interface.
type InvokerFunc func(ctx context.Context, args Args) (string, error)

// Invoke implements Invoker.
func (f InvokerFunc) Invoke(ctx context.Context, args Args) (string, error) { return f(ctx, args) }
