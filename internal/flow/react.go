package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"

	"github.com/mindbridge-ai/MindBridge/internal/genai"
	"github.com/mindbridge-ai/MindBridge/internal/models"
)

// ReactRunner drives a bounded reason-act loop: the model may request
// tools, each requested tool is executed in order, and the results are
// fed back until the model produces plain text or the iteration cap is
// reached. At the cap a final completion without tools forces a text
// answer, so the loop always terminates with a user-facing reply.
type ReactRunner struct {
	client        genai.ClientInterface
	registry      *ToolRegistry
	maxIterations int
}

// NewReactRunner creates a runner with the given iteration cap.
func NewReactRunner(client genai.ClientInterface, registry *ToolRegistry, maxIterations int) *ReactRunner {
	return &ReactRunner{client: client, registry: registry, maxIterations: maxIterations}
}

// buildMessages converts the transcript into OpenAI chat messages with
// the stage's system prompt at the front.
func buildMessages(systemPrompt string, history []models.Message) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(systemPrompt)}
	for _, msg := range history {
		switch msg.Role {
		case models.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case models.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		}
	}
	return messages
}

// Run executes the loop for the given state and returns the model's
// final text reply.
func (r *ReactRunner) Run(ctx context.Context, state *models.ConversationState, systemPrompt string) (string, error) {
	messages := buildMessages(systemPrompt, state.Messages)
	tools := r.registry.Definitions()

	for iteration := 1; iteration <= r.maxIterations; iteration++ {
		response, err := r.client.GenerateWithTools(ctx, messages, tools)
		if err != nil {
			return "", fmt.Errorf("tool loop iteration %d failed: %w", iteration, err)
		}

		if len(response.ToolCalls) == 0 {
			slog.Debug("ReactRunner.Run: model answered directly",
				"sessionID", state.SessionID, "iteration", iteration)
			return response.Content, nil
		}

		slog.Info("ReactRunner.Run: executing tools",
			"sessionID", state.SessionID, "iteration", iteration,
			"toolCallCount", len(response.ToolCalls))

		// OpenAI requires the assistant message carrying the tool calls
		// to precede the tool result messages that reference them.
		var toolCalls []openai.ChatCompletionMessageToolCallParam
		for _, tc := range response.ToolCalls {
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
				ID:   tc.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      tc.Function.Name,
					Arguments: string(tc.Function.Arguments),
				},
			})
		}
		assistantMessage := openai.ChatCompletionAssistantMessageParam{
			Content: openai.ChatCompletionAssistantMessageParamContentUnion{
				OfString: param.NewOpt(response.Content),
			},
			ToolCalls: toolCalls,
		}
		messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistantMessage})

		// Tools run one at a time, in the order the model requested
		// them, so each sees the state changes of the previous one.
		for _, tc := range response.ToolCalls {
			result := r.registry.Execute(ctx, state, models.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: models.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
			recordToolData(state, tc.Function.Name, result)
			messages = append(messages, openai.ToolMessage(encodeToolResult(result), tc.ID))
		}
	}

	// Iteration cap reached: ask for a closing answer without tools.
	slog.Warn("ReactRunner.Run: iteration cap reached, forcing final answer",
		"sessionID", state.SessionID, "maxIterations", r.maxIterations)
	messages = append(messages, openai.SystemMessage(
		"Summarize your conclusions for the user now. Do not request any more tools."))
	final, err := r.client.GenerateWithMessages(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("final answer after tool loop failed: %w", err)
	}
	return final, nil
}

// recordToolData mirrors a successful tool's structured payload into
// the session's stage data under "<toolname>_result", so later stages
// can read what earlier tools found without re-running them.
func recordToolData(state *models.ConversationState, toolName string, result *models.ToolResult) {
	if result == nil || !result.Success || result.Data == nil {
		return
	}
	encoded, err := json.Marshal(result.Data)
	if err != nil {
		slog.Warn("ReactRunner: tool data not recordable",
			"sessionID", state.SessionID, "tool", toolName, "error", err)
		return
	}
	state.StageData[toolName+"_result"] = string(encoded)
}

// encodeToolResult renders a tool result as the JSON the model sees.
func encodeToolResult(result *models.ToolResult) string {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return string(encoded)
}
