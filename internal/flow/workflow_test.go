package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mindbridge-ai/MindBridge/internal/match"
	"github.com/mindbridge-ai/MindBridge/internal/messaging"
	"github.com/mindbridge-ai/MindBridge/internal/models"
	"github.com/mindbridge-ai/MindBridge/internal/store"
)

func newTestWorkflow(client *mockLLM, s store.Store) *Workflow {
	return NewWorkflow(
		NewStoreBasedStateManager(s),
		NewCoordinator(),
		NewIntakeController(client),
		NewCrisisController(client),
		NewResourceController(client, s, match.NewEngine(), &stubSearcher{}, messaging.NewInMemoryService()),
		NewSupportResourcesController(),
		NewHabitSupportController(),
	)
}

func TestWorkflowFirstTurnEntersIntake(t *testing.T) {
	s := store.NewSeededInMemoryStore()
	client := &mockLLM{finalReply: "Hi, I'm glad you're here. How are you feeling today?"}
	wf := newTestWorkflow(client, s)

	resp, err := wf.ProcessTurn(context.Background(), models.TurnRequest{
		SessionID: "sess-1", UserID: "user-1", Message: "hey, been a rough week",
	})
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}
	if resp.Stage != models.StageIntake {
		t.Errorf("expected stage %s, got %s", models.StageIntake, resp.Stage)
	}
	if resp.Reply == "" {
		t.Error("expected an intake reply")
	}
	if resp.Complete {
		t.Error("intake turn must leave the workflow open")
	}

	saved, err := s.GetWorkflowState("sess-1")
	if err != nil {
		t.Fatalf("GetWorkflowState returned error: %v", err)
	}
	if saved == nil {
		t.Fatal("state was not persisted")
	}
	if len(saved.Messages) != 2 {
		t.Errorf("expected user and assistant messages persisted, got %d", len(saved.Messages))
	}
}

func TestWorkflowCrisisPathDegradesGracefully(t *testing.T) {
	// The model is down for every stage. The crisis path must still
	// assess, match, and close using the deterministic fallbacks.
	s := store.NewSeededInMemoryStore()
	client := &mockLLM{toolErr: errors.New("api unavailable"), finalErr: errors.New("api unavailable")}
	wf := newTestWorkflow(client, s)

	resp, err := wf.ProcessTurn(context.Background(), models.TurnRequest{
		SessionID: "sess-1", UserID: "user-1",
		Message: "I feel hopeless, like there is no way out",
	})
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}
	if resp.RiskLevel != models.RiskHigh {
		t.Errorf("expected high risk, got %s", resp.RiskLevel)
	}
	if !resp.Complete {
		t.Error("crisis path should complete in one turn when nothing suspends")
	}
	if resp.Reply == "" {
		t.Error("expected a hand-off reply")
	}

	saved, err := s.GetWorkflowState("sess-1")
	if err != nil || saved == nil {
		t.Fatalf("state not persisted: %v", err)
	}
	if saved.StageData[models.DataKeyMatchedID] == "" {
		t.Error("expected a matched therapist on the session")
	}
	if saved.StageData[models.DataKeyNeedProfile] != string(models.SpecTrauma) {
		t.Errorf("high risk must record a trauma need, got %q", saved.StageData[models.DataKeyNeedProfile])
	}
}

func TestWorkflowCrisisWithHabitRequestEndsInHabits(t *testing.T) {
	s := store.NewSeededInMemoryStore()
	client := &mockLLM{toolErr: errors.New("api unavailable"), finalErr: errors.New("api unavailable")}
	wf := newTestWorkflow(client, s)

	resp, err := wf.ProcessTurn(context.Background(), models.TurnRequest{
		SessionID: "sess-1", UserID: "user-1",
		Message: "I can't go on and my whole routine has fallen apart",
	})
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}
	if !resp.Complete {
		t.Error("expected the workflow to complete")
	}
	if !strings.Contains(resp.Reply, "Micro-win tracker") {
		t.Errorf("expected habit suggestions in the closing reply, got %q", resp.Reply)
	}
}

func TestWorkflowCompletedSessionStaysClosed(t *testing.T) {
	s := store.NewSeededInMemoryStore()
	client := &mockLLM{toolErr: errors.New("api unavailable"), finalErr: errors.New("api unavailable")}
	wf := newTestWorkflow(client, s)

	ctx := context.Background()
	req := models.TurnRequest{SessionID: "sess-1", UserID: "user-1", Message: "I feel hopeless"}
	if _, err := wf.ProcessTurn(ctx, req); err != nil {
		t.Fatalf("first turn returned error: %v", err)
	}

	resp, err := wf.ProcessTurn(ctx, models.TurnRequest{
		SessionID: "sess-1", UserID: "user-1", Message: "hello again",
	})
	if err != nil {
		t.Fatalf("second turn returned error: %v", err)
	}
	if !resp.Complete {
		t.Error("a concluded session must stay concluded")
	}
	if !strings.Contains(resp.Reply, "new session") {
		t.Errorf("expected a pointer to start a new session, got %q", resp.Reply)
	}
}

func TestWorkflowValidatesRequests(t *testing.T) {
	s := store.NewSeededInMemoryStore()
	wf := newTestWorkflow(&mockLLM{}, s)

	tests := []struct {
		name string
		req  models.TurnRequest
	}{
		{"missing session", models.TurnRequest{UserID: "u", Message: "hi"}},
		{"missing user", models.TurnRequest{SessionID: "s", Message: "hi"}},
		{"empty message", models.TurnRequest{SessionID: "s", UserID: "u", Message: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := wf.ProcessTurn(context.Background(), tt.req); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestWorkflowSnapshotAndEndSession(t *testing.T) {
	s := store.NewSeededInMemoryStore()
	client := &mockLLM{finalReply: "How are you feeling?"}
	wf := newTestWorkflow(client, s)

	ctx := context.Background()
	if _, err := wf.ProcessTurn(ctx, models.TurnRequest{
		SessionID: "sess-1", UserID: "user-1", Message: "hello there",
	}); err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}

	snap, err := wf.Snapshot(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if snap.Stage != models.StageIntake || snap.Messages != 2 {
		t.Errorf("unexpected snapshot: stage=%s messages=%d", snap.Stage, snap.Messages)
	}

	if err := wf.EndSession(ctx, "sess-1"); err != nil {
		t.Fatalf("EndSession returned error: %v", err)
	}
	if _, err := wf.Snapshot(ctx, "sess-1"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after ending the session, got %v", err)
	}
}

func TestWorkflowUnknownStage(t *testing.T) {
	s := store.NewSeededInMemoryStore()
	wf := NewWorkflow(NewStoreBasedStateManager(s), NewCoordinator())

	_, err := wf.ProcessTurn(context.Background(), models.TurnRequest{
		SessionID: "sess-1", UserID: "user-1", Message: "hello",
	})
	if !errors.Is(err, models.ErrNoTransition) {
		t.Errorf("expected ErrNoTransition for a missing controller, got %v", err)
	}
}
