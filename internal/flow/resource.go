package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mindbridge-ai/MindBridge/internal/genai"
	"github.com/mindbridge-ai/MindBridge/internal/match"
	"github.com/mindbridge-ai/MindBridge/internal/messaging"
	"github.com/mindbridge-ai/MindBridge/internal/models"
	"github.com/mindbridge-ai/MindBridge/internal/search"
	"github.com/mindbridge-ai/MindBridge/internal/store"
)

// MaxResourceIterations bounds the resource matching tool loop. Matching
// may chain match, search, outreach, and booking, so it gets more room
// than crisis assessment.
const MaxResourceIterations = 8

const resourceSystemPromptFmt = "You are a resource coordinator for a mental health support service. " +
	"The person needs support with a focus on %s. Use check_therapist_database to see who is available, " +
	"then match_therapist; if no internal match exists, use search_directory for local options and " +
	"add_therapist to enroll new volunteers you find. When a therapist is matched you may use " +
	"contact_therapist to reach out and book_session to schedule. Close with a short, warm summary " +
	"of what was arranged and what happens next."

// ResourceController connects the person with a volunteer therapist
// through a bounded tool loop, with a deterministic engine fallback when
// the model is unavailable.
type ResourceController struct {
	store  store.Store
	engine *match.Engine
	runner *ReactRunner
}

// NewResourceController wires the resource matching stage and its tools.
func NewResourceController(client genai.ClientInterface, s store.Store, engine *match.Engine, searcher search.DirectorySearcher, msgService messaging.Service) *ResourceController {
	registry := NewToolRegistry(
		NewCheckDatabaseTool(s),
		NewMatchTherapistTool(s, engine),
		NewSearchDirectoryTool(searcher),
		NewContactTherapistTool(s, msgService),
		NewBookSessionTool(s),
		NewAddTherapistTool(s),
	)
	return &ResourceController{
		store:  s,
		engine: engine,
		runner: NewReactRunner(client, registry, MaxResourceIterations),
	}
}

// Stage returns the workflow stage this controller owns.
func (rc *ResourceController) Stage() models.WorkflowStage {
	return models.StageResourceMatching
}

// Process matches the person with support and routes onward.
func (rc *ResourceController) Process(ctx context.Context, state *models.ConversationState) (*models.StageResult, error) {
	need := rc.needProfile(state)
	state.StageData[models.DataKeyNeedProfile] = string(need.Specialization)

	reply, err := rc.runner.Run(ctx, state, fmt.Sprintf(resourceSystemPromptFmt, need.Specialization))
	if err != nil {
		slog.Error("ResourceController.Process: tool loop failed, matching directly",
			"sessionID", state.SessionID, "error", err)
		reply = rc.directMatch(state, need)
	}

	result := &models.StageResult{Reply: reply, NextStage: models.StageEnd, Complete: true}
	if _, wantsHabits := state.StageData[models.DataKeyHabitFocus]; wantsHabits {
		result.NextStage = models.StageHabitSupport
		result.Complete = false
	}
	return result, nil
}

// needProfile derives what kind of therapist to look for. Elevated risk
// always routes to trauma-informed care regardless of what else came up
// during intake.
func (rc *ResourceController) needProfile(state *models.ConversationState) models.NeedProfile {
	level := models.RiskLevel(state.StageData[models.DataKeyRiskLevel])
	if level.AtLeast(models.RiskHigh) {
		return models.NeedProfile{Specialization: models.SpecTrauma}
	}
	if spec := models.Specialization(state.StageData[models.DataKeyNeedProfile]); models.IsValidSpecialization(spec) {
		return models.NeedProfile{Specialization: spec}
	}
	return models.NeedProfile{Specialization: models.SpecGeneral}
}

// directMatch runs the engine without the model so a matched therapist
// is still offered when the model is down.
func (rc *ResourceController) directMatch(state *models.ConversationState, need models.NeedProfile) string {
	candidates, err := rc.store.GetAvailableTherapists()
	if err != nil {
		slog.Error("ResourceController.directMatch: roster unavailable",
			"sessionID", state.SessionID, "error", err)
		return "I wasn't able to look up our volunteer therapists just now, but you are not on your own. Please reach the 988 Suicide & Crisis Lifeline by calling or texting 988, any time."
	}

	result := rc.engine.Match(candidates, need)
	if !result.MatchFound {
		return "All of our volunteer therapists are currently at capacity. Please call or text 988 to reach the Suicide & Crisis Lifeline, available 24/7, and check back with us soon."
	}

	best := result.Best
	state.StageData[models.DataKeyMatchedID] = best.Therapist.ID
	return fmt.Sprintf(
		"I found a volunteer therapist for you: %s, who specializes in areas matching what you shared. We'll reach out to set up a free session and follow up with the details.",
		best.Therapist.Name)
}
