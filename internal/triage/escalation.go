package triage

import "github.com/mindbridge-ai/MindBridge/internal/models"

// Escalate maps a risk level to the actions the workflow must take:
// emergency services only at immediate risk, the resource agent for
// high and moderate risk, monitoring whenever any risk is present.
// The mapping is total: unknown levels are treated as immediate so a
// corrupted level can never downgrade a crisis.
func Escalate(level models.RiskLevel) models.EscalationFlags {
	switch level {
	case models.RiskNone:
		return models.EscalationFlags{}
	case models.RiskLow:
		return models.EscalationFlags{NeedsMonitoring: true}
	case models.RiskModerate:
		return models.EscalationFlags{NeedsResourceAgent: true, NeedsMonitoring: true}
	case models.RiskHigh:
		return models.EscalationFlags{NeedsResourceAgent: true, NeedsMonitoring: true}
	case models.RiskImmediate:
		return models.EscalationFlags{NeedsEmergency: true, NeedsMonitoring: true}
	default:
		return models.EscalationFlags{NeedsEmergency: true, NeedsMonitoring: true}
	}
}

// Recommendation returns the guidance text paired with a risk level.
func Recommendation(level models.RiskLevel) string {
	switch level {
	case models.RiskImmediate:
		return "Immediate intervention required. Connect with emergency services and the 988 Suicide & Crisis Lifeline right now."
	case models.RiskHigh:
		return "Urgent support recommended. Connect with a crisis counselor today and share the 988 Lifeline."
	case models.RiskModerate:
		return "Professional support recommended. Help the person connect with a therapist soon."
	case models.RiskLow:
		return "Monitor and provide self-care resources. Check in again within a few days."
	default:
		return "No elevated risk detected. Continue supportive conversation."
	}
}
