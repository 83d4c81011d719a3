package match

import (
	"testing"

	"github.com/mindbridge-ai/MindBridge/internal/models"
)

func availableTherapist(id string, specs []models.Specialization, years, current, max int) models.Therapist {
	return models.Therapist{
		ID:              id,
		Name:            "Therapist " + id,
		Specializations: specs,
		YearsExperience: years,
		Status:          models.TherapistStatusActive,
		MaxPatients:     max,
		CurrentPatients: current,
		TimeSlots:       []models.TimeSlot{{DayOfWeek: "monday", StartTime: "09:00", EndTime: "17:00"}},
	}
}

func TestScore(t *testing.T) {
	e := NewEngine()
	need := models.NeedProfile{Specialization: models.SpecAnxiety}

	// Specialization match (50) + 10 years (10) + 50% capacity open (15).
	a := availableTherapist("a", []models.Specialization{models.SpecAnxiety}, 10, 5, 10)
	if got := e.Score(&a, need); got != 75 {
		t.Errorf("Score(a) = %v, want 75", got)
	}

	// No specialization match, experience capped at 20, fully open (30).
	b := availableTherapist("b", []models.Specialization{models.SpecGrief}, 35, 0, 10)
	if got := e.Score(&b, need); got != 50 {
		t.Errorf("Score(b) = %v, want 50", got)
	}

	// Zero max patients contributes no availability score.
	c := availableTherapist("c", []models.Specialization{models.SpecAnxiety}, 5, 0, 0)
	if got := e.Score(&c, need); got != 55 {
		t.Errorf("Score(c) = %v, want 55", got)
	}
}

func TestMatchPrefersSpecializationFit(t *testing.T) {
	e := NewEngine()
	candidates := []models.Therapist{
		availableTherapist("generalist", []models.Specialization{models.SpecGeneral}, 35, 0, 10),
		availableTherapist("specialist", []models.Specialization{models.SpecAnxiety}, 10, 5, 10),
	}

	result := e.Match(candidates, models.NeedProfile{Specialization: models.SpecAnxiety})
	if !result.MatchFound {
		t.Fatal("expected a match")
	}
	if result.Best.Therapist.ID != "specialist" {
		t.Errorf("best match = %s, want specialist", result.Best.Therapist.ID)
	}
	if len(result.Alternatives) != 1 || result.Alternatives[0].Therapist.ID != "generalist" {
		t.Errorf("unexpected alternatives: %+v", result.Alternatives)
	}
}

func TestMatchIsDeterministic(t *testing.T) {
	e := NewEngine()
	candidates := []models.Therapist{
		availableTherapist("t1", []models.Specialization{models.SpecDepression}, 8, 2, 10),
		availableTherapist("t2", []models.Specialization{models.SpecDepression}, 8, 2, 10), // tied with t1
		availableTherapist("t3", []models.Specialization{models.SpecDepression}, 12, 2, 10),
	}
	need := models.NeedProfile{Specialization: models.SpecDepression}

	first := e.Match(candidates, need)
	for i := 0; i < 10; i++ {
		again := e.Match(candidates, need)
		if again.Best.Therapist.ID != first.Best.Therapist.ID {
			t.Fatalf("match not deterministic: got %s then %s",
				first.Best.Therapist.ID, again.Best.Therapist.ID)
		}
	}

	// Ties break by roster order.
	noT3 := e.Match(candidates[:2], need)
	if noT3.Best.Therapist.ID != "t1" {
		t.Errorf("tied candidates should keep roster order, got %s", noT3.Best.Therapist.ID)
	}
}

func TestMatchSkipsUnavailable(t *testing.T) {
	e := NewEngine()
	full := availableTherapist("full", []models.Specialization{models.SpecAnxiety}, 15, 10, 10)
	offline := availableTherapist("offline", []models.Specialization{models.SpecAnxiety}, 15, 0, 10)
	offline.Status = models.TherapistStatusOffline

	result := e.Match([]models.Therapist{full, offline}, models.NeedProfile{Specialization: models.SpecAnxiety})
	if result.MatchFound {
		t.Errorf("expected no match from unavailable candidates, got %+v", result.Best)
	}
	if result.Reason == "" {
		t.Error("no-match result should carry a reason")
	}
}

func TestMatchEmptyCandidates(t *testing.T) {
	e := NewEngine()
	result := e.Match(nil, models.NeedProfile{Specialization: models.SpecTrauma})
	if result.MatchFound {
		t.Error("empty candidate set must report no match, not an error")
	}
}
