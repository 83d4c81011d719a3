// Package triage implements deterministic risk classification and the
// escalation policy that drives crisis handling.
//
// Classification is keyword-based and total: every input maps to exactly
// one risk level, with higher tiers always winning over lower ones. The
// LLM never decides risk on its own; its assessments are cross-checked
// against this classifier.
package triage

import (
	"strings"

	"github.com/mindbridge-ai/MindBridge/internal/models"
)

// Keyword tiers, checked highest severity first. Matching is
// case-insensitive substring containment.
var (
	immediateKeywords = []string{
		"suicide",
		"kill myself",
		"end it all",
		"not worth living",
		"better off dead",
		"plan to die",
		"overdose",
		"want to die",
	}

	highKeywords = []string{
		"hopeless",
		"can't go on",
		"no way out",
		"unbearable pain",
		"nothing matters",
		"give up",
		"pointless",
		"burden",
	}

	moderateKeywords = []string{
		"depressed",
		"anxious",
		"can't sleep",
		"overwhelming",
		"struggling",
		"falling apart",
		"losing control",
	}

	lowKeywords = []string{
		"stressed",
		"worried",
		"down",
		"upset",
		"difficult time",
		"not feeling great",
		"having a rough day",
	}
)

// Assessment is the result of classifying a piece of user text.
type Assessment struct {
	Level         models.RiskLevel `json:"level"`
	KeywordsFound []string         `json:"keywords_found,omitempty"`
}

// Classify maps user text to a risk level. The highest tier with any
// matching keyword wins; text matching nothing is RiskNone.
func Classify(text string) Assessment {
	lowered := strings.ToLower(text)

	tiers := []struct {
		level    models.RiskLevel
		keywords []string
	}{
		{models.RiskImmediate, immediateKeywords},
		{models.RiskHigh, highKeywords},
		{models.RiskModerate, moderateKeywords},
		{models.RiskLow, lowKeywords},
	}

	for _, tier := range tiers {
		var found []string
		for _, kw := range tier.keywords {
			if strings.Contains(lowered, kw) {
				found = append(found, kw)
			}
		}
		if len(found) > 0 {
			return Assessment{Level: tier.level, KeywordsFound: found}
		}
	}

	return Assessment{Level: models.RiskNone}
}

// ClassifyMessages classifies a whole transcript, taking the highest
// level found across the given messages.
func ClassifyMessages(messages []models.Message) Assessment {
	highest := Assessment{Level: models.RiskNone}
	for _, m := range messages {
		if m.Role != models.RoleUser {
			continue
		}
		a := Classify(m.Content)
		if a.Level.Severity() > highest.Level.Severity() {
			highest = a
		}
	}
	return highest
}
