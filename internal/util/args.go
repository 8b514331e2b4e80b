// Package util contains small internal helpers for argument validation and
// text handling shared by the capability and transport layers.
package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ecastro/convobot/core"
)

// ValidationError represents an argument validation failure with enough
// detail to be shown to the user verbatim.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateArgs checks the provided arguments against the descriptor's ordered
// slots and returns a normalized copy: free text trimmed, numbers coerced to
// float64, codes case-normalized to their canonical Enum casing. The input
// map is never mutated.
func ValidateArgs(in core.Args, specs []core.ArgSpec) (core.Args, error) {
	out := make(core.Args, len(in))
	for k, v := range in {
		out[k] = v
	}

	for _, spec := range specs {
		raw, present := out[spec.Name]
		if !present || raw == nil {
			if spec.Required {
				return nil, &ValidationError{Field: spec.Name, Message: "required argument is missing"}
			}
			continue
		}

		switch spec.Type {
		case core.ArgString:
			s, ok := raw.(string)
			if !ok {
				return nil, &ValidationError{Field: spec.Name, Value: raw, Message: "expected text"}
			}
			s = strings.TrimSpace(s)
			if s == "" && spec.Required {
				return nil, &ValidationError{Field: spec.Name, Message: "required argument is empty"}
			}
			out[spec.Name] = s

		case core.ArgNumber:
			f, err := coerceNumber(raw)
			if err != nil {
				return nil, &ValidationError{Field: spec.Name, Value: raw, Message: "expected a number"}
			}
			if f <= 0 {
				return nil, &ValidationError{Field: spec.Name, Value: raw, Message: "must be a positive number"}
			}
			out[spec.Name] = f

		case core.ArgCode:
			s, ok := raw.(string)
			if !ok {
				return nil, &ValidationError{Field: spec.Name, Value: raw, Message: "expected a code"}
			}
			canonical, ok := matchCode(s, spec.Enum)
			if !ok {
				return nil, &ValidationError{
					Field:   spec.Name,
					Value:   s,
					Message: fmt.Sprintf("unknown code %q, expected one of: %s", strings.TrimSpace(s), strings.Join(spec.Enum, ", ")),
				}
			}
			out[spec.Name] = canonical

		default:
			return nil, &ValidationError{Field: spec.Name, Message: fmt.Sprintf("unsupported argument type %q", spec.Type)}
		}
	}

	return out, nil
}

// ParseAmount parses a user supplied amount accepting both decimal separators
// ("100.5" and "100,5"). The value must be a positive real number.
func ParseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if f <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %v", f)
	}
	return f, nil
}

func coerceNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", "."), 64)
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func matchCode(s string, enum []string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, e := range enum {
		if strings.EqualFold(s, e) {
			return e, true
		}
	}
	return "", false
}
