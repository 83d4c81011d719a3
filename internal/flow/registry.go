package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"

	"github.com/mindbridge-ai/MindBridge/internal/models"
)

// Tool is one capability the model can invoke during a ReAct loop.
// Execute may mutate the conversation state's StageData to communicate
// with the surrounding stage controller.
type Tool interface {
	// Name is the function name exposed to the model.
	Name() string

	// GetToolDefinition returns the OpenAI tool definition.
	GetToolDefinition() openai.ChatCompletionToolParam

	// Execute runs the tool with raw JSON arguments.
	Execute(ctx context.Context, state *models.ConversationState, args json.RawMessage) (*models.ToolResult, error)
}

// ToolRegistry holds the tools available to a stage's ReAct loop.
type ToolRegistry struct {
	tools map[string]Tool
	order []string
}

// NewToolRegistry creates a registry with the given tools.
func NewToolRegistry(tools ...Tool) *ToolRegistry {
	r := &ToolRegistry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool, replacing any previous tool of the same name.
func (r *ToolRegistry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Definitions returns the OpenAI tool definitions in registration order.
func (r *ToolRegistry) Definitions() []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].GetToolDefinition())
	}
	return out
}

// Execute dispatches a tool call by name. Unknown tools return an error
// result rather than failing the whole turn, so a hallucinated tool
// name cannot break the loop.
func (r *ToolRegistry) Execute(ctx context.Context, state *models.ConversationState, call models.ToolCall) *models.ToolResult {
	tool, ok := r.tools[call.Function.Name]
	if !ok {
		slog.Warn("ToolRegistry.Execute: unknown tool requested", "tool", call.Function.Name)
		return &models.ToolResult{
			ToolCallID: call.ID,
			Success:    false,
			Error:      fmt.Sprintf("unknown tool: %s", call.Function.Name),
		}
	}

	result, err := tool.Execute(ctx, state, call.Function.Arguments)
	if err != nil {
		slog.Error("ToolRegistry.Execute: tool failed", "tool", call.Function.Name, "error", err)
		return &models.ToolResult{
			ToolCallID: call.ID,
			Success:    false,
			Error:      err.Error(),
		}
	}
	result.ToolCallID = call.ID
	return result
}
