package dispatch

import (
	"context"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wagiedev/toolagent-go/internal/message"
)

// Invoker is the capability behind a descriptor: a LocalFunc or a RemoteOp.
type Invoker interface {
	invoker()
}

// LocalFunc is an in-process tool implementation.
type LocalFunc func(ctx context.Context, input map[string]any) (string, error)

func (LocalFunc) invoker() {}

// RemoteOp references an operation of an external service.
type RemoteOp struct {
	ServiceID  string
	RemoteName string
}

func (RemoteOp) invoker() {}

// RemoteCaller executes remote operations.
type RemoteCaller interface {
	CallTool(ctx context.Context, serviceID, operation string, args map[string]any) (string, error)
}

// Descriptor declares a tool. It is immutable once registered.
type Descriptor struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Invoker     Invoker
}

// Spec returns the endpoint-facing declaration. The invoker is never part of it.
func (d Descriptor) Spec() message.ToolSpec {
	schema := d.InputSchema
	if schema == nil {
		schema = &jsonschema.Schema{Type: "object"}
	}

	return message.ToolSpec{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: schema,
	}
}

// Remote reports whether the descriptor is backed by a remote operation.
func (d Descriptor) Remote() bool {
	_, ok := d.Invoker.(RemoteOp)

	return ok
}

// SimpleSchema creates an object schema from a property name to type map.
// Every listed property is required.
//
// Input format: {"path": "string", "limit": "int"}
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(props))
	required := make([]string, 0, len(props))

	for name, goType := range props {
		properties[name] = typeSchema(goType)
		required = append(required, name)
	}

	slices.Sort(required)

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// typeSchema converts a Go type name to a JSON Schema type.
func typeSchema(goType string) *jsonschema.Schema {
	switch goType {
	case "string":
		return &jsonschema.Schema{Type: "string"}
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "integer":
		return &jsonschema.Schema{Type: "integer"}
	case "float32", "float64", "float", "number":
		return &jsonschema.Schema{Type: "number"}
	case "bool", "boolean":
		return &jsonschema.Schema{Type: "boolean"}
	case "any", "object", "map[string]any":
		return &jsonschema.Schema{Type: "object"}
	default:
		if len(goType) > 2 && goType[:2] == "[]" {
			return &jsonschema.Schema{Type: "array", Items: typeSchema(goType[2:])}
		}

		return &jsonschema.Schema{Type: "string"}
	}
}
