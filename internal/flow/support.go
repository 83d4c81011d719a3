package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mindbridge-ai/MindBridge/internal/models"
	"github.com/mindbridge-ai/MindBridge/internal/triage"
)

// SupportResourcesController shares general coping resources with people
// whose assessment did not call for an active resource agent. The reply
// is fully deterministic: this stage must work when every external
// service is down.
type SupportResourcesController struct{}

// NewSupportResourcesController creates the support resources stage.
func NewSupportResourcesController() *SupportResourcesController {
	return &SupportResourcesController{}
}

// Stage returns the workflow stage this controller owns.
func (sc *SupportResourcesController) Stage() models.WorkflowStage {
	return models.StageSupportResources
}

// Process builds the resource hand-off and routes onward.
func (sc *SupportResourcesController) Process(ctx context.Context, state *models.ConversationState) (*models.StageResult, error) {
	level := models.RiskLevel(state.StageData[models.DataKeyRiskLevel])
	if level.Severity() < 0 {
		level = models.RiskNone
	}

	var b strings.Builder
	b.WriteString("Thank you for talking with me today. ")
	b.WriteString(triage.Recommendation(level))
	b.WriteString("\n\nIf things ever feel heavier, these are always available:")
	for _, r := range triage.CrisisResources() {
		b.WriteString(fmt.Sprintf("\n- %s: %s (%s)", r.Name, r.Contact, r.Availability))
	}
	b.WriteString("\n\nYou can come back and talk with us any time.")

	result := &models.StageResult{
		Reply:     b.String(),
		NextStage: models.StageEnd,
		Complete:  true,
		RiskLevel: level,
	}
	if _, wantsHabits := state.StageData[models.DataKeyHabitFocus]; wantsHabits {
		result.NextStage = models.StageHabitSupport
		result.Complete = false
	}

	slog.Info("SupportResourcesController.Process: resources shared",
		"sessionID", state.SessionID, "riskLevel", level, "nextStage", result.NextStage)
	return result, nil
}
