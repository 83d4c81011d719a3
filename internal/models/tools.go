// Tool structures for LLM function calling.
package models

import (
	"encoding/json"
	"fmt"
)

// ToolType defines the type of tool available to the LLM.
type ToolType string

const (
	// ToolTypeAssessRisk runs the deterministic risk classifier over text.
	ToolTypeAssessRisk ToolType = "assess_risk"
	// ToolTypeCrisisResources returns crisis hotline and support information.
	ToolTypeCrisisResources ToolType = "get_crisis_resources"
	// ToolTypeEscalate records an escalation decision for the current session.
	ToolTypeEscalate ToolType = "escalate"
	// ToolTypeMatchTherapist scores available therapists against a need profile.
	ToolTypeMatchTherapist ToolType = "match_therapist"
	// ToolTypeSearchDirectory searches external directories for local services.
	ToolTypeSearchDirectory ToolType = "search_directory"
	// ToolTypeContactTherapist sends an outreach message to a therapist.
	ToolTypeContactTherapist ToolType = "contact_therapist"
	// ToolTypeBookSession books a session with a matched therapist.
	ToolTypeBookSession ToolType = "book_session"
	// ToolTypeCheckDatabase reports roster availability, optionally per
	// specialization.
	ToolTypeCheckDatabase ToolType = "check_therapist_database"
	// ToolTypeAddTherapist enrolls a new volunteer therapist.
	ToolTypeAddTherapist ToolType = "add_therapist"
)

// AssessRiskParams defines the parameters for the assess_risk tool call.
type AssessRiskParams struct {
	Text string `json:"text"` // User text to classify
}

// Validate ensures the assess_risk parameters are valid.
func (p *AssessRiskParams) Validate() error {
	if p.Text == "" {
		return fmt.Errorf("text is required for risk assessment")
	}
	return nil
}

// EscalateParams defines the parameters for the escalate tool call.
type EscalateParams struct {
	Level  RiskLevel `json:"level"`            // Assessed risk level driving the escalation
	Reason string    `json:"reason,omitempty"` // Short justification for the record
}

// Validate ensures the escalate parameters are valid.
func (p *EscalateParams) Validate() error {
	if !IsValidRiskLevel(p.Level) {
		return fmt.Errorf("invalid risk level: %s", p.Level)
	}
	return nil
}

// MatchTherapistParams defines the parameters for the match_therapist tool call.
type MatchTherapistParams struct {
	Specialization Specialization `json:"specialization"` // Primary need area to match on
}

// Validate ensures the match_therapist parameters are valid.
func (p *MatchTherapistParams) Validate() error {
	if p.Specialization == "" {
		return fmt.Errorf("specialization is required for therapist matching")
	}
	if !IsValidSpecialization(p.Specialization) {
		return fmt.Errorf("invalid specialization: %s", p.Specialization)
	}
	return nil
}

// SearchDirectoryParams defines the parameters for the search_directory tool call.
type SearchDirectoryParams struct {
	Query      string `json:"query"`                 // Free-text directory query
	MaxResults int    `json:"max_results,omitempty"` // Cap on returned results
}

// Validate ensures the search_directory parameters are valid.
func (p *SearchDirectoryParams) Validate() error {
	if p.Query == "" {
		return fmt.Errorf("query is required for directory search")
	}
	if p.MaxResults < 0 {
		return fmt.Errorf("max_results cannot be negative")
	}
	return nil
}

// ContactTherapistParams defines the parameters for the contact_therapist tool call.
type ContactTherapistParams struct {
	TherapistID string `json:"therapist_id"`      // Therapist to contact
	Message     string `json:"message,omitempty"` // Outreach message body
}

// Validate ensures the contact_therapist parameters are valid.
func (p *ContactTherapistParams) Validate() error {
	if p.TherapistID == "" {
		return fmt.Errorf("therapist_id is required for outreach")
	}
	return nil
}

// BookSessionParams defines the parameters for the book_session tool call.
type BookSessionParams struct {
	TherapistID string   `json:"therapist_id"`          // Therapist to book with
	ScheduledAt string   `json:"scheduled_at"`          // RFC 3339 timestamp
	FocusAreas  []string `json:"focus_areas,omitempty"` // Topics for the session
}

// Validate ensures the book_session parameters are valid.
func (p *BookSessionParams) Validate() error {
	if p.TherapistID == "" {
		return fmt.Errorf("therapist_id is required for booking")
	}
	if p.ScheduledAt == "" {
		return fmt.Errorf("scheduled_at is required for booking")
	}
	return nil
}

// CheckDatabaseParams defines the parameters for the
// check_therapist_database tool call. The specialization is optional; an
// empty value reports the whole roster.
type CheckDatabaseParams struct {
	Specialization Specialization `json:"specialization,omitempty"`
}

// Validate ensures the check_therapist_database parameters are valid.
func (p *CheckDatabaseParams) Validate() error {
	if p.Specialization != "" && !IsValidSpecialization(p.Specialization) {
		return fmt.Errorf("invalid specialization: %s", p.Specialization)
	}
	return nil
}

// ToolCall represents an LLM tool function call.
type ToolCall struct {
	ID       string       `json:"id"`       // Tool call ID from OpenAI
	Type     string       `json:"type"`     // Always "function" for OpenAI
	Function FunctionCall `json:"function"` // Function details
}

// FunctionCall represents the function details within a tool call.
type FunctionCall struct {
	Name      string          `json:"name"`      // Function name (e.g., "assess_risk")
	Arguments json.RawMessage `json:"arguments"` // JSON arguments as raw message
}

// ParseAssessRiskParams parses the arguments as AssessRiskParams.
func (fc *FunctionCall) ParseAssessRiskParams() (*AssessRiskParams, error) {
	if fc.Name != string(ToolTypeAssessRisk) {
		return nil, fmt.Errorf("function name %s is not a risk assessment function", fc.Name)
	}
	var params AssessRiskParams
	if err := json.Unmarshal(fc.Arguments, &params); err != nil {
		return nil, fmt.Errorf("failed to parse risk assessment parameters: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid risk assessment parameters: %w", err)
	}
	return &params, nil
}

// ToolResult represents the result of executing a tool.
type ToolResult struct {
	ToolCallID string      `json:"tool_call_id"`    // ID of the tool call this responds to
	Success    bool        `json:"success"`         // Whether the tool execution succeeded
	Message    string      `json:"message"`         // Human-readable result message
	Error      string      `json:"error,omitempty"` // Error message if success is false
	Data       interface{} `json:"data,omitempty"`  // Additional data (e.g., match results)
}
