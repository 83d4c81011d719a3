package triage

import (
	"testing"
	"time"

	"github.com/mindbridge-ai/MindBridge/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.RiskLevel
	}{
		{"neutral text", "I went for a walk and enjoyed the weather", models.RiskNone},
		{"low tier", "I'm a little stressed about work", models.RiskLow},
		{"moderate tier", "I've been so anxious I can't sleep", models.RiskModerate},
		{"high tier", "Everything feels hopeless", models.RiskHigh},
		{"immediate tier", "I have a plan to die", models.RiskImmediate},
		{"immediate wins over high", "I feel hopeless and want to die", models.RiskImmediate},
		{"high wins over moderate", "I'm depressed and I feel like such a burden", models.RiskHigh},
		{"case insensitive", "SUICIDE has been on my mind", models.RiskImmediate},
		{"empty input", "", models.RiskNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			if got.Level != tt.want {
				t.Errorf("Classify(%q) = %s, want %s (keywords: %v)",
					tt.text, got.Level, tt.want, got.KeywordsFound)
			}
			if tt.want != models.RiskNone && len(got.KeywordsFound) == 0 {
				t.Errorf("Classify(%q) matched %s but reported no keywords", tt.text, got.Level)
			}
		})
	}
}

func TestClassifyRecordsAllMatchedKeywords(t *testing.T) {
	got := Classify("I want to die, I'd be better off dead")
	if got.Level != models.RiskImmediate {
		t.Fatalf("expected immediate, got %s", got.Level)
	}
	if len(got.KeywordsFound) != 2 {
		t.Errorf("expected 2 matched keywords, got %v", got.KeywordsFound)
	}
}

func TestClassifyMessagesTakesHighest(t *testing.T) {
	now := time.Now()
	msgs := []models.Message{
		{Role: models.RoleUser, Content: "I'm stressed lately", Timestamp: now},
		{Role: models.RoleAssistant, Content: "want to die", Timestamp: now}, // assistant text ignored
		{Role: models.RoleUser, Content: "honestly it feels pointless", Timestamp: now},
	}
	got := ClassifyMessages(msgs)
	if got.Level != models.RiskHigh {
		t.Errorf("ClassifyMessages() = %s, want high", got.Level)
	}
}

func TestEscalateTotality(t *testing.T) {
	tests := []struct {
		level models.RiskLevel
		want  models.EscalationFlags
	}{
		{models.RiskNone, models.EscalationFlags{}},
		{models.RiskLow, models.EscalationFlags{NeedsMonitoring: true}},
		{models.RiskModerate, models.EscalationFlags{NeedsResourceAgent: true, NeedsMonitoring: true}},
		{models.RiskHigh, models.EscalationFlags{NeedsResourceAgent: true, NeedsMonitoring: true}},
		{models.RiskImmediate, models.EscalationFlags{NeedsEmergency: true, NeedsMonitoring: true}},
		// Unknown levels fail closed to emergency escalation.
		{models.RiskLevel("garbage"), models.EscalationFlags{NeedsEmergency: true, NeedsMonitoring: true}},
	}
	for _, tt := range tests {
		if got := Escalate(tt.level); got != tt.want {
			t.Errorf("Escalate(%s) = %+v, want %+v", tt.level, got, tt.want)
		}
	}

	// The resource agent handles high and moderate risk; at immediate
	// risk emergency services take over instead.
	if Escalate(models.RiskImmediate).NeedsResourceAgent {
		t.Error("immediate risk is an emergency, not a resource agent referral")
	}
	if !Escalate(models.RiskModerate).NeedsResourceAgent || !Escalate(models.RiskHigh).NeedsResourceAgent {
		t.Error("moderate and high risk must route to the resource agent")
	}
}

func TestCrisisResourcesIncludeLifeline(t *testing.T) {
	resources := CrisisResources()
	if len(resources) == 0 {
		t.Fatal("crisis resources must never be empty")
	}
	found988 := false
	for _, r := range resources {
		if r.Name == "988 Suicide & Crisis Lifeline" {
			found988 = true
		}
	}
	if !found988 {
		t.Error("988 lifeline missing from crisis resources")
	}
}
