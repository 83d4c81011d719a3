package flow

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mindbridge-ai/MindBridge/internal/genai"
	"github.com/mindbridge-ai/MindBridge/internal/models"
)

// MaxIntakeTurns bounds how many user turns intake may consume before
// the workflow forces a crisis assessment with whatever context exists.
const MaxIntakeTurns = 12

// Keyword sets driving the intake sufficiency gate and the crisis
// override. Matching is case-insensitive substring containment over the
// recent user messages.
var (
	intakeEmotionKeywords = []string{
		"stressed", "anxious", "anxiety", "overwhelmed", "lost", "hopeless",
		"sad", "down", "tired", "burned", "burnt", "exhausted", "mess",
	}
	intakeSupportKeywords = []string{
		"help", "support", "talk", "therapy", "therapist", "someone", "guidance",
		"volunteer", "counselor", "listen",
	}
	intakeCrisisKeywords = []string{
		"kill myself", "end it all", "suicide", "hurt myself", "hang myself",
		"take my life", "die", "overdose", "can't go on", "no reason to live",
		"want to end everything",
	}
)

// sufficientContextMinWords is the minimum word count across the recent
// user messages before intake can hand off to crisis assessment.
const sufficientContextMinWords = 35

// intakeFallbackReply is used when the model produces nothing usable.
const intakeFallbackReply = "I'm here with you. Tell me more about how today feels."

// IntakeController runs the warm structured intake conversation. Each
// user turn produces one reply and suspends the workflow until the next
// message; the controller advances through ordered sub-stages as the
// person shares more.
type IntakeController struct {
	client genai.ClientInterface
}

// NewIntakeController creates the intake stage.
func NewIntakeController(client genai.ClientInterface) *IntakeController {
	return &IntakeController{client: client}
}

// Stage returns the workflow stage this controller owns.
func (ic *IntakeController) Stage() models.WorkflowStage {
	return models.StageIntake
}

// Process handles one intake turn.
func (ic *IntakeController) Process(ctx context.Context, state *models.ConversationState) (*models.StageResult, error) {
	users := state.UserMessages()
	latest := ""
	if len(users) > 0 {
		latest = users[len(users)-1].Content
	}

	// Crisis language always overrides the conversational flow. The
	// override is recorded so later stages can see assessment started
	// early and why.
	if containsAny(strings.ToLower(latest), intakeCrisisKeywords) {
		slog.Warn("IntakeController.Process: crisis language detected, overriding intake",
			"sessionID", state.SessionID)
		state.StageData[models.DataKeyForceCrisis] = "true"
		state.StageData[models.DataKeyIntakeStage] = string(models.IntakeReadyForAssessment)
		return &models.StageResult{NextStage: models.StageCrisisAssessment}, nil
	}

	turns, _ := strconv.Atoi(state.StageData[models.DataKeyIntakeTurns])
	turns++
	state.StageData[models.DataKeyIntakeTurns] = strconv.Itoa(turns)

	if turns > MaxIntakeTurns {
		slog.Warn("IntakeController.Process: turn cap reached, forcing assessment",
			"sessionID", state.SessionID, "turns", turns)
		return &models.StageResult{NextStage: models.StageCrisisAssessment}, nil
	}

	current := models.IntakeStage(state.StageData[models.DataKeyIntakeStage])
	if current == "" {
		current = models.IntakeGreeting
	}

	next := ic.determineNextStage(current, users)
	state.StageData[models.DataKeyIntakeStage] = string(next)

	if next == models.IntakeReadyForAssessment && ic.hasSufficientContext(users) {
		slog.Info("IntakeController.Process: intake complete",
			"sessionID", state.SessionID, "turns", turns)
		return &models.StageResult{NextStage: models.StageCrisisAssessment}, nil
	}

	reply := ic.generateReply(ctx, state, next)
	return &models.StageResult{
		Reply:     reply,
		NextStage: models.StageIntake,
		Suspend:   true,
	}, nil
}

// determineNextStage advances the sub-stage once enough exchanges have
// happened, holding back when the person has not shared enough yet.
func (ic *IntakeController) determineNextStage(current models.IntakeStage, users []models.Message) models.IntakeStage {
	exchanges := len(users)
	lastWords := 0
	if exchanges > 0 {
		lastWords = len(strings.Fields(users[exchanges-1].Content))
	}

	switch current {
	case models.IntakeGreeting:
		if exchanges >= 1 {
			return models.IntakeCheckIn
		}
	case models.IntakeCheckIn:
		if exchanges >= 2 {
			return models.IntakeWhatBringsYou
		}
	case models.IntakeWhatBringsYou:
		// Stay here until they share something substantive.
		if exchanges >= 3 && lastWords > 4 {
			return models.IntakeExploreTrouble
		}
	case models.IntakeExploreTrouble:
		if exchanges >= 4 {
			return models.IntakeGatherContext
		}
	case models.IntakeGatherContext:
		if exchanges >= 5 && lastWords >= 6 {
			return models.IntakeReadyForAssessment
		}
	}
	return current
}

// hasSufficientContext confirms intake gathered enough meaningful
// information before escalation: emotional language, a support request,
// and enough substance across the recent messages.
func (ic *IntakeController) hasSufficientContext(users []models.Message) bool {
	if len(users) < 4 {
		return false
	}

	var recent []string
	for _, m := range users[len(users)-4:] {
		recent = append(recent, m.Content)
	}
	recentText := strings.ToLower(strings.Join(recent, " "))

	hasEmotion := containsAny(recentText, intakeEmotionKeywords)
	hasSupportRequest := containsAny(recentText, intakeSupportKeywords)
	wordCount := len(strings.Fields(recentText))

	return hasEmotion && hasSupportRequest && wordCount >= sufficientContextMinWords
}

// generateReply asks the model for a warm, stage-appropriate response.
// Any failure falls back to a safe static reply; intake must never
// error out in front of the user.
func (ic *IntakeController) generateReply(ctx context.Context, state *models.ConversationState, stage models.IntakeStage) string {
	systemPrompt := "You are a warm, caring intake companion for a mental health support service. " +
		"Reply in one to three sentences, like a caring friend, never clinical. " + stageGuidance(stage)

	reply, err := ic.client.GenerateWithMessages(ctx, buildMessages(systemPrompt, state.Messages))
	if err != nil {
		slog.Error("IntakeController.generateReply failed, using fallback",
			"sessionID", state.SessionID, "error", err)
		return intakeFallbackReply
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return intakeFallbackReply
	}
	return reply
}

// stageGuidance is internal direction for the model, never shown to the user.
func stageGuidance(stage models.IntakeStage) string {
	switch stage {
	case models.IntakeGreeting:
		return "Open with a heartfelt welcome and a short invitation to share."
	case models.IntakeCheckIn:
		return "They responded. Reflect their tone briefly and ask how they're feeling today."
	case models.IntakeWhatBringsYou:
		return "Acknowledge what you heard and ask what brought them here. Stay gentle."
	case models.IntakeExploreTrouble:
		return "Offer validation in your own words and ask what's been most challenging recently."
	case models.IntakeGatherContext:
		return "Mirror what you've heard and ask one follow-up to understand their situation better."
	case models.IntakeReadyForAssessment:
		return "Thank them, reflect the core of what they shared, and gently offer to connect them with a volunteer therapist at no cost."
	default:
		return ""
	}
}
