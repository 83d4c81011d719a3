package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mindbridge-ai/MindBridge/internal/models"
)

// maxHabitSuggestions caps how many habits one hand-off proposes.
// More than three reads like homework, not support.
const maxHabitSuggestions = 3

// habitEntry ties trigger words in the conversation to a curated habit.
type habitEntry struct {
	focus      string
	triggers   []string
	suggestion models.HabitSuggestion
}

// habitLibrary is the curated habit catalog, ordered so the most
// specific focus areas are checked first. The "default" entry is always
// appended to whatever matched.
var habitLibrary = []habitEntry{
	{
		focus:    "burnout",
		triggers: []string{"burnout", "burned", "burnt", "exhausted", "drained", "work"},
		suggestion: models.HabitSuggestion{
			Title:       "End-of-day decompress",
			Description: "Take a short walk without screens right after work to reset before studying.",
		},
	},
	{
		focus:    "sleep",
		triggers: []string{"sleep", "insomnia", "tired", "awake", "rest"},
		suggestion: models.HabitSuggestion{
			Title:       "Evening wind-down journal",
			Description: "Spend 5 minutes jotting what went well and what can wait until tomorrow.",
		},
	},
	{
		focus:    "anxiety",
		triggers: []string{"anxiety", "anxious", "panic", "tension", "nervous"},
		suggestion: models.HabitSuggestion{
			Title:       "2-minute breathing reset",
			Description: "Three cycles of four-count breathing whenever you notice tension building.",
		},
	},
	{
		focus:    "purpose",
		triggers: []string{"purpose", "direction", "lost", "meaning", "stuck"},
		suggestion: models.HabitSuggestion{
			Title:       "Weekly reflection checkpoint",
			Description: "Every Sunday, write one sentence about progress toward what matters most to you.",
		},
	},
}

// defaultHabit closes out every suggestion list.
var defaultHabit = models.HabitSuggestion{
	Title:       "Micro-win tracker",
	Description: "Capture one small win each day to review with your therapist.",
}

// HabitSupportController proposes small, concrete habits drawn from what
// the person shared. Selection is deterministic keyword matching over
// the conversation so the same session always gets the same plan.
type HabitSupportController struct{}

// NewHabitSupportController creates the habit support stage.
func NewHabitSupportController() *HabitSupportController {
	return &HabitSupportController{}
}

// Stage returns the workflow stage this controller owns.
func (hc *HabitSupportController) Stage() models.WorkflowStage {
	return models.StageHabitSupport
}

// Process selects habits and closes the workflow.
func (hc *HabitSupportController) Process(ctx context.Context, state *models.ConversationState) (*models.StageResult, error) {
	suggestions, focuses := SelectHabits(state.UserMessages())
	state.StageData[models.DataKeyHabitFocus] = strings.Join(focuses, ",")

	var b strings.Builder
	b.WriteString("Before you go, here are a few small habits that could help, one step at a time:")
	for i, s := range suggestions {
		b.WriteString(fmt.Sprintf("\n%d. %s — %s", i+1, s.Title, s.Description))
	}
	b.WriteString("\n\nStart with just one. Small and steady beats big and brief.")

	slog.Info("HabitSupportController.Process: habits suggested",
		"sessionID", state.SessionID, "count", len(suggestions), "focuses", focuses)
	return &models.StageResult{
		Reply:     b.String(),
		NextStage: models.StageEnd,
		Complete:  true,
	}, nil
}

// SelectHabits matches the habit library against the user's own words.
// When nothing matches, the purpose entry anchors the list so the person
// never leaves empty-handed. The default tracker always comes last.
func SelectHabits(users []models.Message) ([]models.HabitSuggestion, []string) {
	var parts []string
	for _, m := range users {
		parts = append(parts, m.Content)
	}
	text := strings.ToLower(strings.Join(parts, " "))

	var suggestions []models.HabitSuggestion
	var focuses []string
	for _, entry := range habitLibrary {
		if containsAny(text, entry.triggers) {
			suggestions = append(suggestions, entry.suggestion)
			focuses = append(focuses, entry.focus)
		}
	}

	if len(suggestions) == 0 {
		for _, entry := range habitLibrary {
			if entry.focus == "purpose" {
				suggestions = append(suggestions, entry.suggestion)
				focuses = append(focuses, entry.focus)
			}
		}
	}

	suggestions = append(suggestions, defaultHabit)
	focuses = append(focuses, "general")

	if len(suggestions) > maxHabitSuggestions {
		suggestions = suggestions[:maxHabitSuggestions]
		focuses = focuses[:maxHabitSuggestions]
	}
	return suggestions, focuses
}
