package flow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/mindbridge-ai/MindBridge/internal/genai"
	"github.com/mindbridge-ai/MindBridge/internal/models"
)

// mockLLM scripts model behavior for tests. Each GenerateWithTools call
// consumes the next queued response; once the queue is empty it answers
// with plain text.
type mockLLM struct {
	toolResponses []*genai.ToolCallResponse
	toolErr       error
	finalReply    string
	finalErr      error

	toolCalls int
	msgCalls  int
}

func (m *mockLLM) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.msgCalls++
	if m.finalErr != nil {
		return "", m.finalErr
	}
	return m.finalReply, nil
}

func (m *mockLLM) GenerateWithTools(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolParam) (*genai.ToolCallResponse, error) {
	m.toolCalls++
	if m.toolErr != nil {
		return nil, m.toolErr
	}
	if len(m.toolResponses) == 0 {
		return &genai.ToolCallResponse{Content: m.finalReply}, nil
	}
	resp := m.toolResponses[0]
	m.toolResponses = m.toolResponses[1:]
	return resp, nil
}

// recordingTool counts executions and reports success, optionally
// carrying a structured payload.
type recordingTool struct {
	name     string
	executed int
	data     interface{}
}

func (t *recordingTool) Name() string { return t.name }

func (t *recordingTool) GetToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name: t.name,
		},
	}
}

func (t *recordingTool) Execute(ctx context.Context, state *models.ConversationState, args json.RawMessage) (*models.ToolResult, error) {
	t.executed++
	return &models.ToolResult{Success: true, Message: "ok", Data: t.data}, nil
}

func toolRequest(name string) *genai.ToolCallResponse {
	return &genai.ToolCallResponse{
		ToolCalls: []genai.ToolCall{{
			ID:       "call_1",
			Function: genai.FunctionCall{Name: name, Arguments: json.RawMessage(`{}`)},
		}},
	}
}

func newTestState() *models.ConversationState {
	state := models.NewConversationState("sess-1", "user-1", models.PrivacyTierFullSupport)
	state.AppendMessage(models.RoleUser, "I've been feeling really overwhelmed lately")
	return state
}

func TestReactRunnerDirectAnswer(t *testing.T) {
	client := &mockLLM{finalReply: "I'm here for you."}
	runner := NewReactRunner(client, NewToolRegistry(), 5)

	reply, err := runner.Run(context.Background(), newTestState(), "be kind")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if reply != "I'm here for you." {
		t.Errorf("expected direct reply, got %q", reply)
	}
	if client.toolCalls != 1 {
		t.Errorf("expected 1 model call, got %d", client.toolCalls)
	}
}

func TestReactRunnerExecutesRequestedTools(t *testing.T) {
	tool := &recordingTool{name: "assess_risk"}
	client := &mockLLM{
		toolResponses: []*genai.ToolCallResponse{toolRequest("assess_risk")},
		finalReply:    "assessment done",
	}
	runner := NewReactRunner(client, NewToolRegistry(tool), 5)

	reply, err := runner.Run(context.Background(), newTestState(), "assess")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if tool.executed != 1 {
		t.Errorf("expected tool executed once, got %d", tool.executed)
	}
	if reply != "assessment done" {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestReactRunnerRecordsToolDataInStageData(t *testing.T) {
	// Structured tool payloads land in stage data so later stages can
	// read them without re-running the tool.
	tool := &recordingTool{
		name: "assess_risk",
		data: map[string]interface{}{"risk_level": "moderate"},
	}
	client := &mockLLM{
		toolResponses: []*genai.ToolCallResponse{toolRequest("assess_risk")},
		finalReply:    "assessment done",
	}
	runner := NewReactRunner(client, NewToolRegistry(tool), 5)
	state := newTestState()

	if _, err := runner.Run(context.Background(), state, "assess"); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	recorded, ok := state.StageData["assess_risk_result"]
	if !ok {
		t.Fatal("expected tool payload recorded under assess_risk_result")
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(recorded), &payload); err != nil {
		t.Fatalf("recorded payload is not JSON: %v", err)
	}
	if payload["risk_level"] != "moderate" {
		t.Errorf("recorded payload = %q", recorded)
	}
}

func TestReactRunnerIterationCap(t *testing.T) {
	// The model asks for tools forever; the runner must stop at the cap
	// and force a plain-text close.
	tool := &recordingTool{name: "assess_risk"}
	maxIterations := 3
	var endless []*genai.ToolCallResponse
	for i := 0; i < maxIterations+5; i++ {
		endless = append(endless, toolRequest("assess_risk"))
	}
	client := &mockLLM{toolResponses: endless, finalReply: "closing summary"}
	runner := NewReactRunner(client, NewToolRegistry(tool), maxIterations)

	reply, err := runner.Run(context.Background(), newTestState(), "assess")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if client.toolCalls != maxIterations {
		t.Errorf("expected %d tool-loop model calls, got %d", maxIterations, client.toolCalls)
	}
	if client.msgCalls != 1 {
		t.Errorf("expected 1 forced-final model call, got %d", client.msgCalls)
	}
	if tool.executed != maxIterations {
		t.Errorf("expected %d tool executions, got %d", maxIterations, tool.executed)
	}
	if reply != "closing summary" {
		t.Errorf("unexpected final reply %q", reply)
	}
}

func TestReactRunnerUnknownToolBecomesFailedResult(t *testing.T) {
	// An unknown tool must not abort the loop; the model sees a failed
	// result and can recover.
	client := &mockLLM{
		toolResponses: []*genai.ToolCallResponse{toolRequest("no_such_tool")},
		finalReply:    "recovered",
	}
	runner := NewReactRunner(client, NewToolRegistry(), 5)

	reply, err := runner.Run(context.Background(), newTestState(), "assess")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if reply != "recovered" {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestReactRunnerModelError(t *testing.T) {
	client := &mockLLM{toolErr: errors.New("api unavailable")}
	runner := NewReactRunner(client, NewToolRegistry(), 5)

	if _, err := runner.Run(context.Background(), newTestState(), "assess"); err == nil {
		t.Fatal("expected error when model is unavailable")
	}
}
