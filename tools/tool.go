package tools

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
)

// Tool is a named, schema-described unit of retrieval functionality the
// model can invoke with structured arguments.
type Tool interface {
	Name() string
	Description() string
	InputSchema() anthropic.ToolInputSchemaParam
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// SourceTracker is implemented by tools that record attribution metadata for
// UI display alongside the final answer. Recorded sources are scoped to one
// query; the owning orchestrator reads and resets them between queries.
type SourceTracker interface {
	LastSources() []Source
	ResetSources()
}

// Source is one attribution entry: a display label and an optional link.
type Source struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// Definition is the static, model-facing description of a tool.
type Definition struct {
	Name        string
	Description string
	InputSchema anthropic.ToolInputSchemaParam
}

// GenerateSchema derives a JSON Schema for a tool input struct. Fields
// without omitempty become required.
func GenerateSchema[T any]() anthropic.ToolInputSchemaParam {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
		Required:   schema.Required,
	}
}
