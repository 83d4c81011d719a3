package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mindbridge-ai/MindBridge/internal/models"
)

// Coordinator routing keywords. These are narrower than the full triage
// tiers: the coordinator only needs to decide whether to skip the warm
// intake conversation and go straight to crisis assessment.
var (
	coordinatorImmediateKeywords = []string{"suicide", "kill myself", "end it all", "911"}
	coordinatorHighKeywords      = []string{"hopeless", "no way out", "can't go on", "burden"}

	habitKeywords = []string{"habit", "routine", "track", "streak", "plan", "practice", "consistency"}
)

// Coordinator routes a brand-new conversation to its first stage. It
// runs exactly once per session, before any stage owns the conversation.
type Coordinator struct{}

// NewCoordinator creates the coordinator stage.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Stage returns the workflow stage this controller owns.
func (c *Coordinator) Stage() models.WorkflowStage {
	return models.StageCoordinator
}

// Process inspects the first user message and decides the initial
// route. Clear crisis language skips intake entirely; everything else
// starts with the warm intake conversation. Habit interest is flagged
// for the end of the workflow regardless of route.
func (c *Coordinator) Process(ctx context.Context, state *models.ConversationState) (*models.StageResult, error) {
	latest := ""
	if users := state.UserMessages(); len(users) > 0 {
		latest = strings.ToLower(users[len(users)-1].Content)
	}

	next := models.StageIntake
	if containsAny(latest, coordinatorImmediateKeywords) || containsAny(latest, coordinatorHighKeywords) {
		next = models.StageCrisisAssessment
	}

	if containsAny(latest, habitKeywords) {
		state.StageData[models.DataKeyHabitFocus] = "requested"
	}

	slog.Info("Coordinator.Process: initial route decided",
		"sessionID", state.SessionID, "next", next,
		"habitSupport", state.StageData[models.DataKeyHabitFocus] != "")

	return &models.StageResult{NextStage: next}, nil
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
