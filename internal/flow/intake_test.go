package flow

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/mindbridge-ai/MindBridge/internal/models"
)

func intakeState(userMessages ...string) *models.ConversationState {
	state := models.NewConversationState("sess-1", "user-1", models.PrivacyTierFullSupport)
	state.Stage = models.StageIntake
	for i, msg := range userMessages {
		state.AppendMessage(models.RoleUser, msg)
		if i < len(userMessages)-1 {
			state.AppendMessage(models.RoleAssistant, "I hear you.")
		}
	}
	return state
}

func TestIntakeFirstTurnSuspendsWithReply(t *testing.T) {
	client := &mockLLM{finalReply: "Hi, I'm really glad you reached out. How are you feeling today?"}
	controller := NewIntakeController(client)
	state := intakeState("hi")

	result, err := controller.Process(context.Background(), state)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if !result.Suspend {
		t.Error("intake turn must suspend and wait for the next message")
	}
	if result.Reply == "" {
		t.Error("expected a reply")
	}
	if got := state.StageData[models.DataKeyIntakeStage]; got != string(models.IntakeCheckIn) {
		t.Errorf("expected sub-stage %s, got %s", models.IntakeCheckIn, got)
	}
	if got := state.StageData[models.DataKeyIntakeTurns]; got != "1" {
		t.Errorf("expected turn counter 1, got %s", got)
	}
}

func TestIntakeCrisisOverride(t *testing.T) {
	client := &mockLLM{finalReply: "unused"}
	controller := NewIntakeController(client)
	state := intakeState("hi", "sometimes I just want to hurt myself")

	result, err := controller.Process(context.Background(), state)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.NextStage != models.StageCrisisAssessment {
		t.Errorf("expected crisis assessment, got %s", result.NextStage)
	}
	if result.Suspend {
		t.Error("crisis override must hand off immediately, not suspend")
	}
	if client.msgCalls != 0 {
		t.Error("crisis override must not call the model")
	}
	if got := state.StageData[models.DataKeyForceCrisis]; got != "true" {
		t.Errorf("expected force_crisis recorded, got %q", got)
	}
	if got := state.StageData[models.DataKeyIntakeStage]; got != string(models.IntakeReadyForAssessment) {
		t.Errorf("expected intake marked ready for assessment, got %q", got)
	}
}

func TestIntakeTurnCapForcesAssessment(t *testing.T) {
	client := &mockLLM{finalReply: "unused"}
	controller := NewIntakeController(client)
	state := intakeState("still not sure what to say")
	state.StageData[models.DataKeyIntakeTurns] = strconv.Itoa(MaxIntakeTurns)

	result, err := controller.Process(context.Background(), state)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.NextStage != models.StageCrisisAssessment {
		t.Errorf("expected forced assessment after turn cap, got %s", result.NextStage)
	}
}

func TestIntakeCompletesWithSufficientContext(t *testing.T) {
	client := &mockLLM{finalReply: "unused"}
	controller := NewIntakeController(client)
	state := intakeState(
		"hi",
		"I guess I'm doing okay",
		"work has been really heavy on me lately",
		"I feel completely overwhelmed and exhausted by everything going on",
		"I think I need to talk to a therapist or someone who can help me figure this out",
	)
	state.StageData[models.DataKeyIntakeStage] = string(models.IntakeGatherContext)

	result, err := controller.Process(context.Background(), state)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.NextStage != models.StageCrisisAssessment {
		t.Errorf("expected hand-off to crisis assessment, got %s", result.NextStage)
	}
	if result.Suspend {
		t.Error("completed intake must not suspend")
	}
}

func TestIntakeHoldsWithoutSufficientContext(t *testing.T) {
	// Enough exchanges but almost no substance: the gate must hold.
	client := &mockLLM{finalReply: "Tell me a little more?"}
	controller := NewIntakeController(client)
	state := intakeState("hi", "fine", "nothing", "dunno", "just tired I suppose honestly speaking")
	state.StageData[models.DataKeyIntakeStage] = string(models.IntakeGatherContext)

	result, err := controller.Process(context.Background(), state)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if !result.Suspend {
		t.Error("intake must keep gathering context when the gate fails")
	}
}

func TestIntakeModelFailureUsesFallbackReply(t *testing.T) {
	client := &mockLLM{finalErr: errors.New("api unavailable")}
	controller := NewIntakeController(client)
	state := intakeState("having a hard week")

	result, err := controller.Process(context.Background(), state)
	if err != nil {
		t.Fatalf("intake must not surface model errors, got: %v", err)
	}
	if result.Reply != intakeFallbackReply {
		t.Errorf("expected fallback reply, got %q", result.Reply)
	}
	if !result.Suspend {
		t.Error("fallback turn must still suspend")
	}
}

func TestIntakeSubStageProgression(t *testing.T) {
	tests := []struct {
		name     string
		current  models.IntakeStage
		messages []string
		want     models.IntakeStage
	}{
		{"greeting advances after first message", models.IntakeGreeting, []string{"hi"}, models.IntakeCheckIn},
		{"check-in advances after second", models.IntakeCheckIn, []string{"hi", "okay I guess"}, models.IntakeWhatBringsYou},
		{"what-brings-you holds on short answers", models.IntakeWhatBringsYou, []string{"hi", "okay", "stuff"}, models.IntakeWhatBringsYou},
		{"what-brings-you advances on substance", models.IntakeWhatBringsYou, []string{"hi", "okay", "my job has been crushing me for months"}, models.IntakeExploreTrouble},
		{"gather-context holds on short last message", models.IntakeGatherContext, []string{"a", "b", "c", "d", "not much"}, models.IntakeGatherContext},
	}

	controller := NewIntakeController(&mockLLM{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msgs []models.Message
			for _, m := range tt.messages {
				msgs = append(msgs, models.Message{Role: models.RoleUser, Content: m})
			}
			if got := controller.determineNextStage(tt.current, msgs); got != tt.want {
				t.Errorf("determineNextStage(%s) = %s, want %s", tt.current, got, tt.want)
			}
		})
	}
}
