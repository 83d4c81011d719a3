package flow

import (
	"context"
	"testing"

	"github.com/mindbridge-ai/MindBridge/internal/models"
)

func TestCoordinatorRouting(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantStage models.WorkflowStage
		wantHabit bool
	}{
		{
			name:      "ordinary message goes to intake",
			message:   "I've been feeling pretty stressed lately",
			wantStage: models.StageIntake,
		},
		{
			name:      "explicit crisis language skips intake",
			message:   "I want to kill myself",
			wantStage: models.StageCrisisAssessment,
		},
		{
			name:      "hopelessness is treated as crisis",
			message:   "Everything feels hopeless and I'm a burden",
			wantStage: models.StageCrisisAssessment,
		},
		{
			name:      "crisis keywords are case-insensitive",
			message:   "I think about SUICIDE a lot",
			wantStage: models.StageCrisisAssessment,
		},
		{
			name:      "habit request is flagged and goes to intake",
			message:   "I want help building a better daily routine",
			wantStage: models.StageIntake,
			wantHabit: true,
		},
		{
			name:      "habit language alongside crisis still routes to crisis",
			message:   "I can't go on, my routine is falling apart",
			wantStage: models.StageCrisisAssessment,
			wantHabit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := models.NewConversationState("sess-1", "user-1", models.PrivacyTierFullSupport)
			state.AppendMessage(models.RoleUser, tt.message)

			result, err := NewCoordinator().Process(context.Background(), state)
			if err != nil {
				t.Fatalf("Process returned error: %v", err)
			}
			if result.NextStage != tt.wantStage {
				t.Errorf("expected next stage %s, got %s", tt.wantStage, result.NextStage)
			}
			_, flagged := state.StageData[models.DataKeyHabitFocus]
			if flagged != tt.wantHabit {
				t.Errorf("habit flag = %v, want %v", flagged, tt.wantHabit)
			}
			if result.Suspend {
				t.Error("coordinator must not suspend, it only routes")
			}
		})
	}
}
