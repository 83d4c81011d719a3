package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mindbridge-ai/MindBridge/internal/genai"
	"github.com/mindbridge-ai/MindBridge/internal/models"
	"github.com/mindbridge-ai/MindBridge/internal/triage"
)

// MaxCrisisIterations bounds the crisis assessment tool loop.
const MaxCrisisIterations = 5

const crisisSystemPrompt = "You are a crisis assessment specialist for a mental health support service. " +
	"Use the assess_risk tool on the person's own words before drawing any conclusion, " +
	"share crisis resources with get_crisis_resources when risk is elevated, and call escalate " +
	"with the assessed level. Speak directly to the person with warmth. Never diagnose. " +
	"Keep your final message short and grounded in what they shared."

// CrisisController assesses risk through a bounded tool loop and routes
// the conversation toward resource matching or general support. The
// keyword classifier always has the final word on the risk level: the
// model can raise concerns, but it cannot talk the system below what
// the person's own words indicate.
type CrisisController struct {
	runner *ReactRunner
}

// NewCrisisController wires the crisis stage with its tool set.
func NewCrisisController(client genai.ClientInterface) *CrisisController {
	registry := NewToolRegistry(
		NewAssessRiskTool(),
		NewCrisisResourcesTool(),
		NewEscalateTool(),
	)
	return &CrisisController{
		runner: NewReactRunner(client, registry, MaxCrisisIterations),
	}
}

// Stage returns the workflow stage this controller owns.
func (cc *CrisisController) Stage() models.WorkflowStage {
	return models.StageCrisisAssessment
}

// Process runs the assessment loop, reconciles the outcome with the
// deterministic classifier, and routes based on the escalation policy.
func (cc *CrisisController) Process(ctx context.Context, state *models.ConversationState) (*models.StageResult, error) {
	reply, err := cc.runner.Run(ctx, state, crisisSystemPrompt)
	if err != nil {
		slog.Error("CrisisController.Process: tool loop failed, falling back to text heuristics",
			"sessionID", state.SessionID, "error", err)
		reply = cc.heuristicFallback(state)
	}

	// Cross-check with the classifier regardless of what the model did.
	// recordRiskLevel only upgrades, so a model that skipped or
	// understated the assessment still ends at the classifier's level.
	assessment := triage.ClassifyMessages(state.Messages)
	recordRiskLevel(state, assessment.Level, "classifier")

	level := models.RiskLevel(state.StageData[models.DataKeyRiskLevel])
	if level.Severity() < 0 {
		level = models.RiskNone
	}
	flags := cc.escalationFlags(state, level)

	// Moderate risk and above always continues to resource matching,
	// as does any recorded escalation that calls for action. Monitoring
	// alone does not reroute: low risk stays with self-help resources.
	next := models.StageSupportResources
	if level.AtLeast(models.RiskModerate) || flags.NeedsEmergency || flags.NeedsResourceAgent {
		next = models.StageResourceMatching
	}

	slog.Info("CrisisController.Process: assessment complete",
		"sessionID", state.SessionID, "riskLevel", level, "nextStage", next)
	return &models.StageResult{
		Reply:     reply,
		NextStage: next,
		RiskLevel: level,
	}, nil
}

// escalationFlags prefers the flags recorded by the escalate tool and
// recomputes from the final level when the tool never ran or the
// recorded flags understate the classifier's verdict.
func (cc *CrisisController) escalationFlags(state *models.ConversationState, level models.RiskLevel) models.EscalationFlags {
	policy := triage.Escalate(level)

	raw, ok := state.StageData[models.DataKeyEscalation]
	if ok {
		var recorded models.EscalationFlags
		if err := json.Unmarshal([]byte(raw), &recorded); err == nil {
			if policy.NeedsResourceAgent && !recorded.NeedsResourceAgent {
				recorded.NeedsResourceAgent = true
			}
			if policy.NeedsEmergency && !recorded.NeedsEmergency {
				recorded.NeedsEmergency = true
			}
			if policy.NeedsMonitoring && !recorded.NeedsMonitoring {
				recorded.NeedsMonitoring = true
			}
			policy = recorded
		}
	}

	if encoded, err := json.Marshal(policy); err == nil {
		state.StageData[models.DataKeyEscalation] = string(encoded)
	}
	return policy
}

// heuristicFallback builds a deterministic reply from the classifier
// alone, used when the model is unreachable. Safety messaging must not
// depend on the model being up.
func (cc *CrisisController) heuristicFallback(state *models.ConversationState) string {
	assessment := triage.ClassifyMessages(state.Messages)
	recordRiskLevel(state, assessment.Level, "text_heuristic")

	var b strings.Builder
	b.WriteString("Thank you for sharing what you're going through. ")
	b.WriteString(triage.Recommendation(assessment.Level))
	if assessment.Level.AtLeast(models.RiskModerate) {
		b.WriteString("\n\nSupport you can reach right now:")
		for _, r := range triage.CrisisResources() {
			b.WriteString(fmt.Sprintf("\n- %s: %s (%s)", r.Name, r.Contact, r.Availability))
		}
	}
	return b.String()
}
