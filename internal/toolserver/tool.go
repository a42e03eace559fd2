package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ParamType is the JSON Schema type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

func (t ParamType) valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeObject, TypeArray:
		return true
	}
	return false
}

// Param declares one named argument of a tool.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// Args holds the decoded arguments of a single call.
type Args map[string]any

// String returns the named argument when it is a string.
func (a Args) String(name string) (string, bool) {
	s, ok := a[name].(string)
	return s, ok
}

// Handler implements a tool. The returned text becomes the call's content.
type Handler func(ctx context.Context, args Args) (string, error)

// Tool pairs a handler with the metadata the serving loop advertises.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// ToolError reports a failure the caller should see as a tool result
// rather than a protocol error.
type ToolError struct {
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

// NewToolError formats a ToolError.
func NewToolError(format string, args ...any) *ToolError {
	return &ToolError{Message: fmt.Sprintf(format, args...)}
}

// Validate checks that the declaration can be registered.
func (t Tool) Validate() error {
	if t.Name == "" {
		return errors.New("tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q: handler is required", t.Name)
	}
	seen := make(map[string]bool, len(t.Params))
	for _, p := range t.Params {
		if p.Name == "" {
			return fmt.Errorf("tool %q: parameter name is required", t.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("tool %q: duplicate parameter %q", t.Name, p.Name)
		}
		seen[p.Name] = true
		if !p.Type.valid() {
			return fmt.Errorf("tool %q: parameter %q has unknown type %q", t.Name, p.Name, p.Type)
		}
	}
	return nil
}

// InputSchema renders the parameter list as a JSON Schema object.
// A tool without parameters still advertises an empty object schema.
func (t Tool) InputSchema() *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(t.Params)),
	}
	for _, p := range t.Params {
		schema.Properties[p.Name] = &jsonschema.Schema{
			Type:        string(p.Type),
			Description: p.Description,
		}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}

// decodeArgs parses raw call arguments and enforces required parameters.
// Absent or null arguments decode to an empty set.
func (t Tool) decodeArgs(raw json.RawMessage) (Args, error) {
	args := Args{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, NewToolError("invalid arguments for %s: %v", t.Name, err)
		}
	}
	for _, p := range t.Params {
		if _, ok := args[p.Name]; p.Required && !ok {
			return nil, NewToolError("missing required argument %q for %s", p.Name, t.Name)
		}
	}
	return args, nil
}
