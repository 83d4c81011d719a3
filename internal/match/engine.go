// Package match scores available therapists against a user's need
// profile and picks the best candidate deterministically.
package match

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mindbridge-ai/MindBridge/internal/models"
)

const (
	specializationWeight = 50.0
	maxExperienceYears   = 20
	availabilityWeight   = 0.3
	// DefaultAlternatives caps how many runner-up candidates a match
	// result carries.
	DefaultAlternatives = 2
)

// Engine ranks therapist candidates. It is stateless and safe for
// concurrent use.
type Engine struct{}

// NewEngine creates a matching engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Score computes the match score of a single therapist for a need
// profile. Specialization fit dominates, then experience (capped at
// 20 years), then open capacity.
func (e *Engine) Score(t *models.Therapist, need models.NeedProfile) float64 {
	var score float64

	if need.Specialization != "" && t.HasSpecialization(need.Specialization) {
		score += specializationWeight
	}

	years := t.YearsExperience
	if years > maxExperienceYears {
		years = maxExperienceYears
	}
	score += float64(years)

	if t.MaxPatients > 0 {
		open := 1 - float64(t.CurrentPatients)/float64(t.MaxPatients)
		score += availabilityWeight * (100 * open)
	}

	return score
}

// Match scores every available candidate and returns the best match
// plus up to DefaultAlternatives runners-up. An empty candidate set is
// not an error: the result simply reports no match.
func (e *Engine) Match(candidates []models.Therapist, need models.NeedProfile) models.MatchResult {
	var scored []models.ScoredTherapist
	for i := range candidates {
		t := &candidates[i]
		if !t.IsAvailable() {
			continue
		}
		scored = append(scored, models.ScoredTherapist{
			Therapist:  *t,
			MatchScore: e.Score(t, need),
		})
	}

	if len(scored) == 0 {
		slog.Debug("Engine.Match: no available candidates", "specialization", need.Specialization)
		return models.MatchResult{
			MatchFound: false,
			Reason:     "no available therapists matched the request",
		}
	}

	// Stable sort keeps the incoming roster order for tied scores, so
	// equal inputs always produce the same match.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})

	best := scored[0]
	alternatives := scored[1:]
	if len(alternatives) > DefaultAlternatives {
		alternatives = alternatives[:DefaultAlternatives]
	}

	slog.Debug("Engine.Match: matched therapist",
		"therapist_id", best.Therapist.ID, "score", best.MatchScore,
		"candidates", len(scored))

	return models.MatchResult{
		MatchFound:   true,
		Best:         &best,
		Alternatives: alternatives,
		Reason: fmt.Sprintf("best of %d available therapists for %s",
			len(scored), describeNeed(need)),
	}
}

func describeNeed(need models.NeedProfile) string {
	if need.Specialization == "" {
		return "general support"
	}
	return string(need.Specialization)
}
