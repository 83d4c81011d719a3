package models

import (
	"errors"
	"strings"
	"testing"
)

func TestTurnRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		request TurnRequest
		wantErr error
	}{
		{
			name: "valid request",
			request: TurnRequest{
				SessionID:   "sess-1",
				UserID:      "user-1",
				PrivacyTier: PrivacyTierAssistedHandoff,
				Message:     "I've been feeling really anxious lately",
			},
		},
		{
			name: "valid request without privacy tier defaults later",
			request: TurnRequest{
				SessionID: "sess-1",
				UserID:    "user-1",
				Message:   "hello",
			},
		},
		{
			name: "missing session id",
			request: TurnRequest{
				UserID:  "user-1",
				Message: "hello",
			},
			wantErr: ErrEmptySessionID,
		},
		{
			name: "missing user id",
			request: TurnRequest{
				SessionID: "sess-1",
				Message:   "hello",
			},
			wantErr: ErrEmptyUserID,
		},
		{
			name: "empty message",
			request: TurnRequest{
				SessionID: "sess-1",
				UserID:    "user-1",
			},
			wantErr: ErrEmptyMessage,
		},
		{
			name: "whitespace-only message",
			request: TurnRequest{
				SessionID: "sess-1",
				UserID:    "user-1",
				Message:   "   \n\t ",
			},
			wantErr: ErrEmptyMessage,
		},
		{
			name: "invalid privacy tier",
			request: TurnRequest{
				SessionID:   "sess-1",
				UserID:      "user-1",
				PrivacyTier: PrivacyTier("secret"),
				Message:     "hello",
			},
			wantErr: ErrInvalidPrivacyTier,
		},
		{
			name: "oversized message",
			request: TurnRequest{
				SessionID: "sess-1",
				UserID:    "user-1",
				Message:   strings.Repeat("a", MaxUserMessageLength+1),
			},
			wantErr: ErrMessageTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRiskLevelSeverityOrdering(t *testing.T) {
	ordered := []RiskLevel{RiskNone, RiskLow, RiskModerate, RiskHigh, RiskImmediate}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Severity() <= ordered[i-1].Severity() {
			t.Errorf("Severity(%s)=%d not greater than Severity(%s)=%d",
				ordered[i], ordered[i].Severity(), ordered[i-1], ordered[i-1].Severity())
		}
	}
	if RiskLevel("bogus").Severity() != -1 {
		t.Errorf("unknown risk level should have severity -1")
	}
}

func TestRiskLevelAtLeast(t *testing.T) {
	if !RiskHigh.AtLeast(RiskModerate) {
		t.Error("high should be at least moderate")
	}
	if !RiskHigh.AtLeast(RiskHigh) {
		t.Error("high should be at least high")
	}
	if RiskLow.AtLeast(RiskImmediate) {
		t.Error("low should not be at least immediate")
	}
}

func TestIntakeStageNext(t *testing.T) {
	tests := []struct {
		current IntakeStage
		want    IntakeStage
	}{
		{IntakeGreeting, IntakeCheckIn},
		{IntakeCheckIn, IntakeWhatBringsYou},
		{IntakeWhatBringsYou, IntakeExploreTrouble},
		{IntakeExploreTrouble, IntakeGatherContext},
		{IntakeGatherContext, IntakeReadyForAssessment},
		{IntakeReadyForAssessment, IntakeReadyForAssessment},
	}
	for _, tt := range tests {
		if got := tt.current.Next(); got != tt.want {
			t.Errorf("Next(%s) = %s, want %s", tt.current, got, tt.want)
		}
	}
}

func TestConversationStateMessages(t *testing.T) {
	cs := NewConversationState("sess-1", "user-1", PrivacyTierPrivateNotes)
	if cs.Stage != StageCoordinator {
		t.Errorf("new state should start at coordinator, got %s", cs.Stage)
	}

	cs.AppendMessage(RoleUser, "hi there")
	cs.AppendMessage(RoleAssistant, "hello, how are you feeling today?")
	cs.AppendMessage(RoleUser, "not great honestly")

	if len(cs.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(cs.Messages))
	}

	users := cs.UserMessages()
	if len(users) != 2 {
		t.Fatalf("expected 2 user messages, got %d", len(users))
	}
	if users[1].Content != "not great honestly" {
		t.Errorf("user messages out of order: %q", users[1].Content)
	}
}

func TestTherapistAvailability(t *testing.T) {
	th := Therapist{
		ID:              "t-1",
		Name:            "Dr. Sarah Chen",
		Status:          TherapistStatusActive,
		MaxPatients:     10,
		CurrentPatients: 4,
		TimeSlots:       []TimeSlot{{DayOfWeek: "monday", StartTime: "09:00", EndTime: "12:00"}},
	}
	if !th.IsAvailable() {
		t.Error("active therapist with open slots should be available")
	}
	if got := th.AvailabilityPercentage(); got != 40 {
		t.Errorf("AvailabilityPercentage() = %v, want 40", got)
	}

	th.CurrentPatients = 10
	if th.IsAvailable() {
		t.Error("full therapist should not be available")
	}

	th.CurrentPatients = 4
	th.Status = TherapistStatusOffline
	if th.IsAvailable() {
		t.Error("offline therapist should not be available")
	}

	th.Status = TherapistStatusActive
	th.TimeSlots = nil
	if th.IsAvailable() {
		t.Error("therapist without time slots should not be available")
	}
}

func TestTherapistInputValidation(t *testing.T) {
	valid := TherapistInput{
		Name:            "Dr. Lee",
		Email:           "lee@example.org",
		Specializations: []Specialization{SpecAnxiety, SpecTrauma},
		YearsExperience: 8,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}

	missing := TherapistInput{Email: "lee@example.org"}
	if err := missing.Validate(); !errors.Is(err, ErrEmptyTherapistName) {
		t.Errorf("expected ErrEmptyTherapistName, got %v", err)
	}

	badSpec := valid
	badSpec.Specializations = []Specialization{Specialization("astrology")}
	if err := badSpec.Validate(); !errors.Is(err, ErrUnknownSpecialization) {
		t.Errorf("expected ErrUnknownSpecialization, got %v", err)
	}
}
