package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/edurag/edurag/internal/telemetry"
	"github.com/edurag/edurag/tools"
)

// maxToolRounds bounds how many tool-use rounds one query may trigger. Two
// rounds still permit legitimate two-step lookups (resolve a course, then
// search within it) while capping worst-case latency and cost.
const maxToolRounds = 2

// maxTokens is the per-response token budget.
const maxTokens = 800

const systemPrompt = `You are an AI assistant specialized in course materials and educational content with access to tools for course information.

Available Tools:
1. **search_course_content** - Search for specific information within course content
2. **get_course_outline** - Get course structure (title, link, and lesson list)

Tool Usage Guidelines:
- Use **get_course_outline** when users ask about:
  - What lessons are in a course
  - Course structure or overview
  - What topics a course covers

- Use **search_course_content** when users ask about:
  - Specific concepts or information within course content
  - Details about particular topics covered in lessons

- **General knowledge questions**: Answer using existing knowledge without tools
- **Multi-step reasoning**: You may use tools sequentially to gather information. After receiving tool results, you can call another tool if more information is needed
- If a tool yields no results, state this clearly

Response Protocol:
- Provide direct answers only - no meta-commentary about tools or search results
- Do not mention "based on the search results" or "according to the outline"

All responses must be:
1. **Brief and concise** - Get to the point quickly
2. **Educational** - Maintain instructional value
3. **Clear** - Use accessible language
`

// Executor runs a named tool with raw JSON arguments and returns its result
// text. Implemented by *tools.Registry.
type Executor interface {
	Execute(ctx context.Context, name string, input json.RawMessage) (string, error)
}

var _ Executor = (*tools.Registry)(nil)

// Runner drives a bounded conversation with the model: it interleaves model
// responses and sequential tool executions until the model stops requesting
// tools or the round cap is reached.
type Runner struct {
	client *anthropic.Client
	model  anthropic.Model
	logger *slog.Logger
}

// New returns a Runner using client and model.
func New(client *anthropic.Client, model anthropic.Model, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{client: client, model: model, logger: logger}
}

// Answer produces the final text answer for query. history, defs and exec
// are optional; tool rounds only happen when both defs and exec are given.
//
// Tool execution failures never abort a round — they are fed back to the
// model as error tool results. Only model transport failures return an
// error.
func (r *Runner) Answer(ctx context.Context, query, history string, defs []tools.Definition, exec Executor) (string, error) {
	system := systemPrompt
	if history != "" {
		system += "\n\nPrevious conversation:\n" + history
	}

	conv := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(query)),
	}

	params := anthropic.MessageNewParams{
		Model:       r.model,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(0),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    conv,
	}
	if len(defs) > 0 {
		// The same tool set rides along on every call, follow-ups included;
		// dropping tools after the first round would break second lookups.
		params.Tools = anthropicTools(defs)
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}

	msg, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("model call: %w", err)
	}

	for round := 0; round < maxToolRounds; round++ {
		if msg.StopReason != anthropic.StopReasonToolUse || exec == nil {
			break
		}

		conv = append(conv, msg.ToParam())
		conv = append(conv, anthropic.NewUserMessage(r.execToolUses(ctx, msg, exec)...))
		params.Messages = conv

		msg, err = r.client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("model call after tool round %d: %w", round+1, err)
		}
	}

	return firstText(msg), nil
}

func anthropicTools(defs []tools.Definition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: d.InputSchema,
		}})
	}
	return out
}

// execToolUses runs every tool_use block of msg in response order, one at a
// time, and returns the matching tool_result blocks. A failed execution
// becomes an error-flagged result; later blocks still run.
func (r *Runner) execToolUses(ctx context.Context, msg *anthropic.Message, exec Executor) []anthropic.ContentBlockParamUnion {
	var results []anthropic.ContentBlockParamUnion
	for _, block := range msg.Content {
		v, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}
		input := json.RawMessage(v.JSON.Input.Raw())

		queryID, _ := telemetry.QueryIDFromContext(ctx)
		start := time.Now()
		out, err := exec.Execute(ctx, v.Name, input)
		if err != nil {
			r.logger.Warn("tool execution failed", "tool", v.Name, "error", err)
			telemetry.Emit("tool_exec", map[string]any{
				"query_id": queryID, "tool_name": v.Name,
				"duration_ms": time.Since(start).Milliseconds(), "error": err.Error(),
			})
			results = append(results, anthropic.NewToolResultBlock(v.ID, "Error: "+err.Error(), true))
			continue
		}
		telemetry.Emit("tool_exec", map[string]any{
			"query_id": queryID, "tool_name": v.Name,
			"duration_ms": time.Since(start).Milliseconds(), "output_size": len(out),
		})
		results = append(results, anthropic.NewToolResultBlock(v.ID, out, false))
	}
	return results
}

// firstText returns the first text block of msg, or "" when the response
// carries none (e.g. a dangling tool-use request at the round cap).
func firstText(msg *anthropic.Message) string {
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			return tb.Text
		}
	}
	return ""
}
