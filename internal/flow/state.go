// Package flow implements the conversation workflow: a stage machine
// that routes each user turn through the coordinator, intake, crisis
// assessment, resource matching, support resources and habit support
// stages.
package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mindbridge-ai/MindBridge/internal/models"
	"github.com/mindbridge-ai/MindBridge/internal/store"
)

// StateManager handles persistence of conversation state between turns.
type StateManager interface {
	// GetState retrieves state for a session, nil when the session is new.
	GetState(ctx context.Context, sessionID string) (*models.ConversationState, error)

	// SaveState persists the state.
	SaveState(ctx context.Context, state *models.ConversationState) error

	// DeleteState removes a session's state.
	DeleteState(ctx context.Context, sessionID string) error
}

// StoreBasedStateManager implements StateManager on top of store.Store.
type StoreBasedStateManager struct {
	store store.Store
}

// NewStoreBasedStateManager creates a state manager backed by the given store.
func NewStoreBasedStateManager(s store.Store) *StoreBasedStateManager {
	return &StoreBasedStateManager{store: s}
}

// GetState retrieves conversation state for a session.
func (sm *StoreBasedStateManager) GetState(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	state, err := sm.store.GetWorkflowState(sessionID)
	if err != nil {
		slog.Error("StoreBasedStateManager.GetState failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to get workflow state: %w", err)
	}
	return state, nil
}

// SaveState persists conversation state.
func (sm *StoreBasedStateManager) SaveState(ctx context.Context, state *models.ConversationState) error {
	if err := sm.store.SaveWorkflowState(*state); err != nil {
		slog.Error("StoreBasedStateManager.SaveState failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to save workflow state: %w", err)
	}
	slog.Debug("StoreBasedStateManager.SaveState succeeded", "sessionID", state.SessionID, "stage", state.Stage)
	return nil
}

// DeleteState removes a session's state.
func (sm *StoreBasedStateManager) DeleteState(ctx context.Context, sessionID string) error {
	if err := sm.store.DeleteWorkflowState(sessionID); err != nil {
		slog.Error("StoreBasedStateManager.DeleteState failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to delete workflow state: %w", err)
	}
	return nil
}
