// Package toolregistry keeps the name -> tool lookup used by workflow steps.
package toolregistry

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrInvalidTool is returned when a tool or its spec fails validation.
	ErrInvalidTool = errors.New("invalid tool")
	// ErrInvalidArgument is returned by tools when a call argument is missing or malformed.
	ErrInvalidArgument = errors.New("invalid tool argument")
	// ErrToolNotFound is returned by Lookup for unregistered names.
	ErrToolNotFound = errors.New("tool not found")
)

// ParameterType is the JSON type of a tool argument.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeInteger ParameterType = "integer"
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
	TypeObject  ParameterType = "object"
	TypeArray   ParameterType = "array"
)

// Parameter describes one argument accepted by a tool.
type Parameter struct {
	Type        ParameterType `json:"type"`
	Description string        `json:"description,omitempty"`
	Required    bool          `json:"required,omitempty"`
}

// Spec describes a tool to callers and to the LLM.
type Spec struct {
	// Name is the tool's own name. The registry key may differ (aliases).
	Name string `json:"name"`
	// Description is a short human-readable summary.
	Description string `json:"description"`
	// Parameters maps argument names to their definitions.
	Parameters map[string]Parameter `json:"parameters,omitempty"`
	// Cacheable marks read-only tools whose results may be reused for
	// identical arguments.
	Cacheable bool `json:"cacheable,omitempty"`
}

// Validate checks that the spec is usable.
func (s Spec) Validate() error {
	if s.Name == "" {
		return goerr.Wrap(ErrInvalidTool, "spec name is required")
	}
	for name, p := range s.Parameters {
		switch p.Type {
		case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeObject, TypeArray:
		default:
			return goerr.Wrap(ErrInvalidTool, "unknown parameter type",
				goerr.V("tool", s.Name), goerr.V("parameter", name), goerr.V("type", p.Type))
		}
	}
	return nil
}

// CheckArgs verifies that every required parameter is present.
func (s Spec) CheckArgs(args map[string]any) error {
	for name, p := range s.Parameters {
		if !p.Required {
			continue
		}
		if _, ok := args[name]; !ok {
			return goerr.Wrap(ErrInvalidArgument, "missing required argument",
				goerr.V("tool", s.Name), goerr.V("argument", name))
		}
	}
	return nil
}

// Tool is an invocable capability.
type Tool interface {
	Spec() Spec
	Run(ctx context.Context, args map[string]any) (any, error)
}

// FuncTool adapts a function to the Tool interface.
type FuncTool struct {
	spec Spec
	fn   func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunc creates a tool from a spec and a function.
func NewFunc(spec Spec, fn func(ctx context.Context, args map[string]any) (any, error)) *FuncTool {
	return &FuncTool{spec: spec, fn: fn}
}

// Spec returns the tool spec.
func (f *FuncTool) Spec() Spec { return f.spec }

// Run invokes the wrapped function.
func (f *FuncTool) Run(ctx context.Context, args map[string]any) (any, error) {
	if f.fn == nil {
		return nil, goerr.Wrap(ErrInvalidTool, "tool has no implementation", goerr.V("tool", f.spec.Name))
	}
	return f.fn(ctx, args)
}

// StringArg returns a string argument or "" when absent.
func StringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// IntArg returns an integer argument or def when absent or malformed.
func IntArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// BoolArg returns a boolean argument or false when absent.
func BoolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}
