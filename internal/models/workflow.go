package models

import "time"

// WorkflowStage identifies which stage controller owns the conversation.
type WorkflowStage string

const (
	// StageCoordinator routes a brand-new conversation to its first stage.
	StageCoordinator WorkflowStage = "COORDINATOR"
	// StageIntake runs the structured intake conversation.
	StageIntake WorkflowStage = "INTAKE"
	// StageCrisisAssessment performs risk classification and escalation.
	StageCrisisAssessment WorkflowStage = "CRISIS_ASSESSMENT"
	// StageResourceMatching finds and books a therapist for the user.
	StageResourceMatching WorkflowStage = "RESOURCE_MATCHING"
	// StageSupportResources delivers self-help and crisis-line resources.
	StageSupportResources WorkflowStage = "SUPPORT_RESOURCES"
	// StageHabitSupport offers habit and routine coaching.
	StageHabitSupport WorkflowStage = "HABIT_SUPPORT"
	// StageEnd marks the workflow as finished; no controller runs.
	StageEnd WorkflowStage = "END"
)

// IsValidWorkflowStage checks if the given stage is known.
func IsValidWorkflowStage(s WorkflowStage) bool {
	switch s {
	case StageCoordinator, StageIntake, StageCrisisAssessment, StageResourceMatching,
		StageSupportResources, StageHabitSupport, StageEnd:
		return true
	default:
		return false
	}
}

// IntakeStage is the ordered sub-stage of the intake conversation.
type IntakeStage string

const (
	IntakeGreeting           IntakeStage = "greeting"
	IntakeCheckIn            IntakeStage = "check_in"
	IntakeWhatBringsYou      IntakeStage = "what_brings_you"
	IntakeExploreTrouble     IntakeStage = "explore_trouble"
	IntakeGatherContext      IntakeStage = "gather_context"
	IntakeReadyForAssessment IntakeStage = "ready_for_assessment"
)

// Next returns the sub-stage that follows s. IntakeReadyForAssessment
// is terminal.
func (s IntakeStage) Next() IntakeStage {
	switch s {
	case IntakeGreeting:
		return IntakeCheckIn
	case IntakeCheckIn:
		return IntakeWhatBringsYou
	case IntakeWhatBringsYou:
		return IntakeExploreTrouble
	case IntakeExploreTrouble:
		return IntakeGatherContext
	case IntakeGatherContext:
		return IntakeReadyForAssessment
	default:
		return IntakeReadyForAssessment
	}
}

// Keys used in ConversationState.StageData. Stage controllers communicate
// through these; anything not listed here is controller-private.
const (
	DataKeyIntakeStage   = "intake_stage"   // IntakeStage value
	DataKeyIntakeTurns   = "intake_turns"   // user turns spent in intake
	DataKeyRiskLevel     = "risk_level"     // RiskLevel from crisis assessment
	DataKeyRiskSource    = "risk_source"    // "model" or "text_heuristic"
	DataKeyNeedProfile   = "need_profile"   // JSON-encoded NeedProfile
	DataKeyMatchedID     = "matched_therapist_id"
	DataKeyOutreachCount = "outreach_count" // therapists contacted so far
	DataKeyEscalation    = "escalation"     // JSON-encoded EscalationFlags
	DataKeyHabitFocus    = "habit_focus"    // detected habit keyword area
	DataKeyForceCrisis   = "force_crisis"   // set when intake was cut short by crisis language
)

// ConversationState carries everything a stage controller needs to
// process one turn. It is persisted between turns keyed by session ID.
type ConversationState struct {
	SessionID   string            `json:"session_id"`
	UserID      string            `json:"user_id"`
	PrivacyTier PrivacyTier       `json:"privacy_tier"`
	Stage       WorkflowStage     `json:"stage"`
	Messages    []Message         `json:"messages"`
	StageData   map[string]string `json:"stage_data"`
	Complete    bool              `json:"complete"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewConversationState builds a fresh state at the coordinator stage.
func NewConversationState(sessionID, userID string, tier PrivacyTier) *ConversationState {
	now := time.Now().UTC()
	return &ConversationState{
		SessionID:   sessionID,
		UserID:      userID,
		PrivacyTier: tier,
		Stage:       StageCoordinator,
		Messages:    []Message{},
		StageData:   make(map[string]string),
		Complete:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AppendMessage records a message on the transcript with the current time.
func (cs *ConversationState) AppendMessage(role MessageRole, content string) {
	cs.Messages = append(cs.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// UserMessages returns only the user-authored messages, oldest first.
func (cs *ConversationState) UserMessages() []Message {
	var out []Message
	for _, m := range cs.Messages {
		if m.Role == RoleUser {
			out = append(out, m)
		}
	}
	return out
}

// StageResult is what a stage controller returns for one turn.
type StageResult struct {
	// Reply is the assistant text to send back to the user. May be empty
	// when the turn hands off to another stage without speaking.
	Reply string
	// NextStage is the stage that should own the next piece of work.
	NextStage WorkflowStage
	// Suspend stops the per-turn loop: the reply is final and the
	// workflow waits for the user's next message.
	Suspend bool
	// Complete marks the whole workflow finished after this turn.
	Complete bool
	// RiskLevel, when set, is surfaced on the turn response.
	RiskLevel RiskLevel
}

// WorkflowSnapshot is the externally visible view of a stored session.
type WorkflowSnapshot struct {
	SessionID   string        `json:"session_id"`
	UserID      string        `json:"user_id"`
	Stage       WorkflowStage `json:"stage"`
	RiskLevel   RiskLevel     `json:"risk_level,omitempty"`
	Messages    int           `json:"message_count"`
	Complete    bool          `json:"complete"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
