package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/mindbridge-ai/MindBridge/internal/models"
	"github.com/mindbridge-ai/MindBridge/internal/triage"
)

// AssessRiskTool exposes the deterministic risk classifier to the model.
type AssessRiskTool struct{}

// NewAssessRiskTool creates the risk assessment tool.
func NewAssessRiskTool() *AssessRiskTool {
	return &AssessRiskTool{}
}

// Name returns the function name exposed to the model.
func (t *AssessRiskTool) Name() string { return string(models.ToolTypeAssessRisk) }

// GetToolDefinition returns the OpenAI tool definition for risk assessment.
func (t *AssessRiskTool) GetToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String("Classify the risk level of user text using the deterministic keyword classifier. Always call this before drawing conclusions about risk."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "The user text to classify",
					},
				},
				"required": []string{"text"},
			},
		},
	}
}

// Execute classifies the text and records the level on the session. A
// later assessment can only raise the recorded level, never lower it.
func (t *AssessRiskTool) Execute(ctx context.Context, state *models.ConversationState, args json.RawMessage) (*models.ToolResult, error) {
	fc := models.FunctionCall{Name: t.Name(), Arguments: args}
	params, err := fc.ParseAssessRiskParams()
	if err != nil {
		return nil, err
	}

	assessment := triage.Classify(params.Text)
	recordRiskLevel(state, assessment.Level, "classifier")

	slog.Info("AssessRiskTool.Execute: text classified",
		"sessionID", state.SessionID, "level", assessment.Level,
		"keywords", len(assessment.KeywordsFound))

	return &models.ToolResult{
		Success: true,
		Message: triage.Recommendation(assessment.Level),
		Data:    assessment,
	}, nil
}

// recordRiskLevel stores the level in StageData, keeping the highest
// severity seen so far.
func recordRiskLevel(state *models.ConversationState, level models.RiskLevel, source string) {
	current := models.RiskLevel(state.StageData[models.DataKeyRiskLevel])
	if current != "" && current.AtLeast(level) {
		return
	}
	state.StageData[models.DataKeyRiskLevel] = string(level)
	state.StageData[models.DataKeyRiskSource] = source
}

// CrisisResourcesTool returns the static crisis hotline information.
type CrisisResourcesTool struct{}

// NewCrisisResourcesTool creates the crisis resources tool.
func NewCrisisResourcesTool() *CrisisResourcesTool {
	return &CrisisResourcesTool{}
}

// Name returns the function name exposed to the model.
func (t *CrisisResourcesTool) Name() string { return string(models.ToolTypeCrisisResources) }

// GetToolDefinition returns the OpenAI tool definition for crisis resources.
func (t *CrisisResourcesTool) GetToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String("Get crisis hotlines and emergency support services to share with the user."),
			Parameters: shared.FunctionParameters{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// Execute returns the crisis resource list.
func (t *CrisisResourcesTool) Execute(ctx context.Context, state *models.ConversationState, args json.RawMessage) (*models.ToolResult, error) {
	resources := triage.CrisisResources()
	return &models.ToolResult{
		Success: true,
		Message: fmt.Sprintf("%d crisis resources available", len(resources)),
		Data:    resources,
	}, nil
}

// EscalateTool records an escalation decision. The recorded risk level
// is cross-checked against the classifier's verdict so the model cannot
// downgrade a detected crisis.
type EscalateTool struct{}

// NewEscalateTool creates the escalation tool.
func NewEscalateTool() *EscalateTool {
	return &EscalateTool{}
}

// Name returns the function name exposed to the model.
func (t *EscalateTool) Name() string { return string(models.ToolTypeEscalate) }

// GetToolDefinition returns the OpenAI tool definition for escalation.
func (t *EscalateTool) GetToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String("Record the escalation decision for this session based on the assessed risk level."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"level": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"none", "low", "moderate", "high", "immediate"},
						"description": "The assessed risk level",
					},
					"reason": map[string]interface{}{
						"type":        "string",
						"description": "Short justification for the record",
					},
				},
				"required": []string{"level"},
			},
		},
	}
}

// Execute records the escalation flags for the effective risk level.
func (t *EscalateTool) Execute(ctx context.Context, state *models.ConversationState, args json.RawMessage) (*models.ToolResult, error) {
	var params models.EscalateParams
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("failed to parse escalation parameters: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// The classifier's verdict wins when it is more severe than the
	// model's claim.
	effective := params.Level
	if recorded := models.RiskLevel(state.StageData[models.DataKeyRiskLevel]); recorded != "" && recorded.AtLeast(effective) {
		effective = recorded
	}
	source := state.StageData[models.DataKeyRiskSource]
	if source == "" {
		source = "model"
	}
	recordRiskLevel(state, effective, source)

	flags := triage.Escalate(effective)
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode escalation flags: %w", err)
	}
	state.StageData[models.DataKeyEscalation] = string(flagsJSON)

	slog.Info("EscalateTool.Execute: escalation recorded",
		"sessionID", state.SessionID, "level", effective,
		"needsEmergency", flags.NeedsEmergency, "reason", params.Reason)

	return &models.ToolResult{
		Success: true,
		Message: triage.Recommendation(effective),
		Data:    flags,
	}, nil
}
