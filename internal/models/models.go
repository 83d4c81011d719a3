// Package models defines the core data structures for MindBridge.
//
// It includes the conversation/workflow state threaded through the stage
// machine, risk and escalation types, therapist records, and the shared
// API response envelope.
package models

import (
	"errors"
	"strings"
	"time"
)

// MessageRole identifies who authored a conversation message.
type MessageRole string

const (
	// RoleUser marks a message sent by the person seeking support.
	RoleUser MessageRole = "user"
	// RoleAssistant marks a message produced by a workflow stage.
	RoleAssistant MessageRole = "assistant"
	// RoleSystem marks internal guidance never shown to the user.
	RoleSystem MessageRole = "system"
)

// Message is a single entry in the conversation history. Insertion order
// is significant; history is append-only.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// PrivacyTier controls how much record-keeping the user has consented to.
type PrivacyTier string

const (
	// PrivacyTierNoRecords keeps nothing beyond the live session.
	PrivacyTierNoRecords PrivacyTier = "no_records"
	// PrivacyTierPrivateNotes keeps notes visible only to the user.
	PrivacyTierPrivateNotes PrivacyTier = "private_notes"
	// PrivacyTierAssistedHandoff allows sharing context during handoff.
	PrivacyTierAssistedHandoff PrivacyTier = "assisted_handoff"
	// PrivacyTierFullSupport allows full platform assistance.
	PrivacyTierFullSupport PrivacyTier = "full_support"
)

// IsValidPrivacyTier checks if the given privacy tier is supported.
func IsValidPrivacyTier(t PrivacyTier) bool {
	switch t {
	case PrivacyTierNoRecords, PrivacyTierPrivateNotes, PrivacyTierAssistedHandoff, PrivacyTierFullSupport:
		return true
	default:
		return false
	}
}

// RiskLevel is the ordered classification of crisis severity.
type RiskLevel string

const (
	// RiskNone indicates no risk indicators were found.
	RiskNone RiskLevel = "none"
	// RiskLow indicates mild, manageable distress.
	RiskLow RiskLevel = "low"
	// RiskModerate indicates concerning patterns.
	RiskModerate RiskLevel = "moderate"
	// RiskHigh indicates serious warning signs.
	RiskHigh RiskLevel = "high"
	// RiskImmediate indicates a crisis requiring immediate intervention.
	RiskImmediate RiskLevel = "immediate"
)

// Severity returns the rank of a risk level for ordering comparisons.
// Unknown levels rank below none.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskNone:
		return 0
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	case RiskImmediate:
		return 4
	default:
		return -1
	}
}

// IsValidRiskLevel checks if the given risk level is one of the five
// defined levels.
func IsValidRiskLevel(r RiskLevel) bool {
	return r.Severity() >= 0
}

// AtLeast reports whether this level is at least as severe as other.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.Severity() >= other.Severity()
}

// EscalationFlags is the pure, total mapping from a risk level to the
// actions the workflow must take.
type EscalationFlags struct {
	NeedsEmergency     bool `json:"needs_emergency_services"`
	NeedsResourceAgent bool `json:"needs_resource_agent"`
	NeedsMonitoring    bool `json:"needs_monitoring"`
}

// HabitSuggestion is one entry of a habit support plan.
type HabitSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NeedProfile describes what kind of support the user needs when
// matching against therapist candidates.
type NeedProfile struct {
	Specialization Specialization `json:"specialization,omitempty"`
}

// Error variables for better error handling and testability.
var (
	ErrEmptyMessage       = errors.New("message cannot be empty")
	ErrMessageTooLong     = errors.New("message exceeds maximum length")
	ErrEmptySessionID     = errors.New("session_id cannot be empty")
	ErrEmptyUserID        = errors.New("user_id cannot be empty")
	ErrInvalidPrivacyTier = errors.New("invalid privacy tier")
	ErrInvalidRiskLevel   = errors.New("invalid risk level")
	ErrUnknownTool        = errors.New("unknown tool")
	ErrNoCandidates       = errors.New("no therapist candidates available")
	ErrSessionNotFound    = errors.New("session not found")
	ErrTherapistNotFound  = errors.New("therapist not found")
	ErrNoTransition       = errors.New("no transition guard satisfied")
)

// MaxUserMessageLength bounds a single inbound turn.
const MaxUserMessageLength = 8192

// TurnRequest is the payload for processing one user turn.
type TurnRequest struct {
	SessionID   string      `json:"session_id"`
	UserID      string      `json:"user_id"`
	PrivacyTier PrivacyTier `json:"privacy_tier,omitempty"`
	Message     string      `json:"message"`
}

// Validate performs validation on a TurnRequest.
func (r *TurnRequest) Validate() error {
	if r.SessionID == "" {
		return ErrEmptySessionID
	}
	if r.UserID == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxUserMessageLength {
		return ErrMessageTooLong
	}
	if r.PrivacyTier != "" && !IsValidPrivacyTier(r.PrivacyTier) {
		return ErrInvalidPrivacyTier
	}
	return nil
}

// TurnResponse is returned for each processed turn.
type TurnResponse struct {
	SessionID string        `json:"session_id"`
	Reply     string        `json:"reply"`
	Stage     WorkflowStage `json:"stage"`
	RiskLevel RiskLevel     `json:"risk_level,omitempty"`
	Complete  bool          `json:"complete"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates a request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates a request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and
// optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
