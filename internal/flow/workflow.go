package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mindbridge-ai/MindBridge/internal/models"
)

// maxStageHops bounds how many stage transitions a single user turn may
// trigger before the loop is declared stuck. The longest legitimate
// chain is coordinator through habit support.
const maxStageHops = 6

// StageController owns one workflow stage.
type StageController interface {
	// Stage identifies the stage this controller handles.
	Stage() models.WorkflowStage
	// Process handles the current turn for a conversation sitting in
	// this stage. Controllers mutate state (messages are appended by
	// the workflow, stage data by the controller) and describe what
	// happens next in the result.
	Process(ctx context.Context, state *models.ConversationState) (*models.StageResult, error)
}

// Workflow drives a conversation through its stage controllers and
// persists state after every turn.
type Workflow struct {
	stateManager StateManager
	controllers  map[models.WorkflowStage]StageController
}

// NewWorkflow assembles the workflow from its stage controllers.
func NewWorkflow(stateManager StateManager, controllers ...StageController) *Workflow {
	m := make(map[models.WorkflowStage]StageController, len(controllers))
	for _, c := range controllers {
		m[c.Stage()] = c
	}
	return &Workflow{stateManager: stateManager, controllers: m}
}

// ProcessTurn handles one user message: it loads or creates the session,
// appends the message, and runs stage controllers until one of them
// produces a reply and suspends, or the workflow completes.
func (w *Workflow) ProcessTurn(ctx context.Context, req models.TurnRequest) (*models.TurnResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	state, err := w.stateManager.GetState(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow state: %w", err)
	}
	if state == nil {
		state = models.NewConversationState(req.SessionID, req.UserID, req.PrivacyTier)
		slog.Info("Workflow.ProcessTurn: new session", "sessionID", req.SessionID, "userID", req.UserID)
	}
	if state.Complete {
		return &models.TurnResponse{
			SessionID: state.SessionID,
			Reply:     "This conversation has concluded. Start a new session any time you want to talk.",
			Stage:     state.Stage,
			Complete:  true,
		}, nil
	}

	state.AppendMessage(models.RoleUser, req.Message)

	var reply string
	var riskLevel models.RiskLevel
	hops := 0
	for {
		controller, ok := w.controllers[state.Stage]
		if !ok {
			return nil, fmt.Errorf("no controller for stage %s: %w", state.Stage, models.ErrNoTransition)
		}

		result, err := controller.Process(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("stage %s failed: %w", state.Stage, err)
		}

		if result.Reply != "" {
			reply = result.Reply
		}
		if result.RiskLevel != "" {
			riskLevel = result.RiskLevel
		}

		if result.Complete {
			state.Complete = true
			state.Stage = models.StageEnd
			break
		}
		if result.Suspend {
			break
		}

		if result.NextStage == state.Stage {
			// A non-suspending controller that stays put would spin.
			return nil, fmt.Errorf("stage %s did not advance: %w", state.Stage, models.ErrNoTransition)
		}
		if !models.IsValidWorkflowStage(result.NextStage) {
			return nil, fmt.Errorf("stage %s returned invalid next stage %q: %w", state.Stage, result.NextStage, models.ErrNoTransition)
		}
		slog.Debug("Workflow.ProcessTurn: stage transition",
			"sessionID", state.SessionID, "from", state.Stage, "to", result.NextStage)
		state.Stage = result.NextStage

		if state.Stage == models.StageEnd {
			state.Complete = true
			break
		}

		hops++
		if hops >= maxStageHops {
			return nil, fmt.Errorf("exceeded %d stage transitions in one turn: %w", maxStageHops, models.ErrNoTransition)
		}
	}

	if reply != "" {
		state.AppendMessage(models.RoleAssistant, reply)
	}
	if err := w.stateManager.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save workflow state: %w", err)
	}

	return &models.TurnResponse{
		SessionID: state.SessionID,
		Reply:     reply,
		Stage:     state.Stage,
		RiskLevel: riskLevel,
		Complete:  state.Complete,
	}, nil
}

// Snapshot returns the externally visible view of a stored session.
func (w *Workflow) Snapshot(ctx context.Context, sessionID string) (*models.WorkflowSnapshot, error) {
	state, err := w.stateManager.GetState(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow state: %w", err)
	}
	if state == nil {
		return nil, models.ErrSessionNotFound
	}
	return &models.WorkflowSnapshot{
		SessionID: state.SessionID,
		UserID:    state.UserID,
		Stage:     state.Stage,
		RiskLevel: models.RiskLevel(state.StageData[models.DataKeyRiskLevel]),
		Messages:  len(state.Messages),
		Complete:  state.Complete,
		CreatedAt: state.CreatedAt,
		UpdatedAt: state.UpdatedAt,
	}, nil
}

// EndSession removes a stored session.
func (w *Workflow) EndSession(ctx context.Context, sessionID string) error {
	if err := w.stateManager.DeleteState(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete workflow state: %w", err)
	}
	return nil
}
