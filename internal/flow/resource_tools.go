package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/mindbridge-ai/MindBridge/internal/match"
	"github.com/mindbridge-ai/MindBridge/internal/messaging"
	"github.com/mindbridge-ai/MindBridge/internal/models"
	"github.com/mindbridge-ai/MindBridge/internal/search"
	"github.com/mindbridge-ai/MindBridge/internal/store"
)

// MaxOutreachContacts caps how many therapists a single session may
// contact.
const MaxOutreachContacts = 3

// defaultSearchResults caps directory searches when the model does not
// specify a limit.
const defaultSearchResults = 5

// MatchTherapistTool scores available therapists for a need profile.
type MatchTherapistTool struct {
	store  store.Store
	engine *match.Engine
}

// NewMatchTherapistTool creates the matching tool.
func NewMatchTherapistTool(s store.Store, engine *match.Engine) *MatchTherapistTool {
	return &MatchTherapistTool{store: s, engine: engine}
}

// Name returns the function name exposed to the model.
func (t *MatchTherapistTool) Name() string { return string(models.ToolTypeMatchTherapist) }

// GetToolDefinition returns the OpenAI tool definition for matching.
func (t *MatchTherapistTool) GetToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String("Find the best available volunteer therapist for the user's primary need area."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"specialization": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"anxiety", "depression", "trauma", "addiction", "relationships", "grief", "eating_disorders", "ocd", "ptsd", "general"},
						"description": "The primary need area to match on",
					},
				},
				"required": []string{"specialization"},
			},
		},
	}
}

// Execute runs the matching engine over the available roster.
func (t *MatchTherapistTool) Execute(ctx context.Context, state *models.ConversationState, args json.RawMessage) (*models.ToolResult, error) {
	var params models.MatchTherapistParams
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("failed to parse match parameters: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	candidates, err := t.store.GetAvailableTherapists()
	if err != nil {
		return nil, fmt.Errorf("failed to load therapist roster: %w", err)
	}

	result := t.engine.Match(candidates, models.NeedProfile{Specialization: params.Specialization})
	if !result.MatchFound {
		return &models.ToolResult{
			Success: true,
			Message: "no available therapist matched; consider searching external directories",
			Data:    result,
		}, nil
	}

	state.StageData[models.DataKeyMatchedID] = result.Best.Therapist.ID
	slog.Info("MatchTherapistTool.Execute: match found",
		"sessionID", state.SessionID, "therapistID", result.Best.Therapist.ID,
		"score", result.Best.MatchScore)

	return &models.ToolResult{
		Success: true,
		Message: fmt.Sprintf("matched with %s (score %.1f)", result.Best.Therapist.Name, result.Best.MatchScore),
		Data:    result,
	}, nil
}

// rosterCheck is what check_therapist_database reports to the model.
type rosterCheck struct {
	AvailableCount int                `json:"available_count"`
	Candidates     []models.Therapist `json:"candidates"`
}

// CheckDatabaseTool reports roster availability so the model can decide
// between internal matching and an external directory search.
type CheckDatabaseTool struct {
	store store.Store
}

// NewCheckDatabaseTool creates the roster check tool.
func NewCheckDatabaseTool(s store.Store) *CheckDatabaseTool {
	return &CheckDatabaseTool{store: s}
}

// Name returns the function name exposed to the model.
func (t *CheckDatabaseTool) Name() string { return string(models.ToolTypeCheckDatabase) }

// GetToolDefinition returns the OpenAI tool definition for the roster check.
func (t *CheckDatabaseTool) GetToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String("Check how many volunteer therapists are currently available, optionally filtered by specialization."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"specialization": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"anxiety", "depression", "trauma", "addiction", "relationships", "grief", "eating_disorders", "ocd", "ptsd", "general"},
						"description": "Optional need area to filter on",
					},
				},
			},
		},
	}
}

// Execute reports the available candidates, filtered when a
// specialization was given.
func (t *CheckDatabaseTool) Execute(ctx context.Context, state *models.ConversationState, args json.RawMessage) (*models.ToolResult, error) {
	var params models.CheckDatabaseParams
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("failed to parse roster check parameters: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	available, err := t.store.GetAvailableTherapists()
	if err != nil {
		return nil, fmt.Errorf("failed to load therapist roster: %w", err)
	}

	check := rosterCheck{Candidates: available}
	if params.Specialization != "" {
		var filtered []models.Therapist
		for _, th := range available {
			if th.HasSpecialization(params.Specialization) {
				filtered = append(filtered, th)
			}
		}
		check.Candidates = filtered
	}
	check.AvailableCount = len(check.Candidates)

	return &models.ToolResult{
		Success: true,
		Message: fmt.Sprintf("%d therapists available", check.AvailableCount),
		Data:    check,
	}, nil
}

// AddTherapistTool enrolls a volunteer therapist surfaced during the
// conversation, for example from a directory search. Enrollees start
// pending and are never matched until verified.
type AddTherapistTool struct {
	store store.Store
}

// NewAddTherapistTool creates the enrollment tool.
func NewAddTherapistTool(s store.Store) *AddTherapistTool {
	return &AddTherapistTool{store: s}
}

// Name returns the function name exposed to the model.
func (t *AddTherapistTool) Name() string { return string(models.ToolTypeAddTherapist) }

// GetToolDefinition returns the OpenAI tool definition for enrollment.
func (t *AddTherapistTool) GetToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String("Enroll a new volunteer therapist found during resource search. Enrollees stay pending until their license is verified."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "The therapist's full name",
					},
					"email": map[string]interface{}{
						"type":        "string",
						"description": "Contact email",
					},
					"phone": map[string]interface{}{
						"type":        "string",
						"description": "Contact phone number",
					},
					"specializations": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Need areas the therapist covers",
					},
					"years_experience": map[string]interface{}{
						"type":        "number",
						"description": "Years of clinical experience",
					},
				},
				"required": []string{"name", "email"},
			},
		},
	}
}

// Execute enrolls the therapist in pending status.
func (t *AddTherapistTool) Execute(ctx context.Context, state *models.ConversationState, args json.RawMessage) (*models.ToolResult, error) {
	var input models.TherapistInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("failed to parse enrollment parameters: %w", err)
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	maxPatients := input.MaxPatients
	if maxPatients == 0 {
		maxPatients = 10
	}
	now := time.Now().UTC()
	therapist := models.Therapist{
		ID:              uuid.NewString(),
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		Specializations: input.Specializations,
		YearsExperience: input.YearsExperience,
		IsVolunteer:     true,
		Status:          models.TherapistStatusPending,
		MaxPatients:     maxPatients,
		Bio:             input.Bio,
		JoinedAt:        now,
		LastActive:      now,
	}
	added, err := t.store.AddTherapist(therapist)
	if err != nil {
		return nil, fmt.Errorf("failed to enroll therapist: %w", err)
	}
	if !added {
		return &models.ToolResult{
			Success: false,
			Error:   "therapist already enrolled",
		}, nil
	}

	slog.Info("AddTherapistTool.Execute: therapist enrolled",
		"sessionID", state.SessionID, "therapistID", therapist.ID)
	return &models.ToolResult{
		Success: true,
		Message: fmt.Sprintf("%s enrolled as a pending volunteer, awaiting license verification", therapist.Name),
		Data:    map[string]interface{}{"success": true, "id": therapist.ID},
	}, nil
}

// SearchDirectoryTool searches external directories for local services.
type SearchDirectoryTool struct {
	searcher search.DirectorySearcher
}

// NewSearchDirectoryTool creates the directory search tool.
func NewSearchDirectoryTool(searcher search.DirectorySearcher) *SearchDirectoryTool {
	return &SearchDirectoryTool{searcher: searcher}
}

// Name returns the function name exposed to the model.
func (t *SearchDirectoryTool) Name() string { return string(models.ToolTypeSearchDirectory) }

// GetToolDefinition returns the OpenAI tool definition for directory search.
func (t *SearchDirectoryTool) GetToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String("Search external directories for local mental health services, such as support groups or community clinics."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Free-text description of the services to find",
					},
					"max_results": map[string]interface{}{
						"type":        "number",
						"description": "Cap on returned results",
						"minimum":     1,
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// Execute runs the directory search.
func (t *SearchDirectoryTool) Execute(ctx context.Context, state *models.ConversationState, args json.RawMessage) (*models.ToolResult, error) {
	var params models.SearchDirectoryParams
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("failed to parse search parameters: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.MaxResults == 0 {
		params.MaxResults = defaultSearchResults
	}

	results, err := t.searcher.Search(ctx, params.Query, params.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("directory search failed: %w", err)
	}
	return &models.ToolResult{
		Success: true,
		Message: fmt.Sprintf("%d directory results for %q", len(results), params.Query),
		Data:    results,
	}, nil
}

// ContactTherapistTool sends an outreach message to a therapist. A
// session may contact at most MaxOutreachContacts therapists.
type ContactTherapistTool struct {
	store      store.Store
	msgService messaging.Service
}

// NewContactTherapistTool creates the outreach tool.
func NewContactTherapistTool(s store.Store, msgService messaging.Service) *ContactTherapistTool {
	return &ContactTherapistTool{store: s, msgService: msgService}
}

// Name returns the function name exposed to the model.
func (t *ContactTherapistTool) Name() string { return string(models.ToolTypeContactTherapist) }

// GetToolDefinition returns the OpenAI tool definition for outreach.
func (t *ContactTherapistTool) GetToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String("Send an outreach message to a therapist asking whether they can take this user. Limited to 3 therapists per session."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"therapist_id": map[string]interface{}{
						"type":        "string",
						"description": "The therapist to contact",
					},
					"message": map[string]interface{}{
						"type":        "string",
						"description": "Outreach message body",
					},
				},
				"required": []string{"therapist_id"},
			},
		},
	}
}

// Execute sends the outreach message, enforcing the per-session cap.
func (t *ContactTherapistTool) Execute(ctx context.Context, state *models.ConversationState, args json.RawMessage) (*models.ToolResult, error) {
	var params models.ContactTherapistParams
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("failed to parse outreach parameters: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	count, _ := strconv.Atoi(state.StageData[models.DataKeyOutreachCount])
	if count >= MaxOutreachContacts {
		slog.Warn("ContactTherapistTool.Execute: outreach limit reached",
			"sessionID", state.SessionID, "count", count)
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("outreach limit of %d therapists reached for this session", MaxOutreachContacts),
		}, nil
	}

	therapist, err := t.store.GetTherapistByID(params.TherapistID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up therapist %s: %w", params.TherapistID, err)
	}
	if therapist.Phone == "" {
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("therapist %s has no contact number", params.TherapistID),
		}, nil
	}

	body := params.Message
	if body == "" {
		body = fmt.Sprintf("MindBridge: a person seeking support has been matched with you, %s. Please confirm availability.", therapist.Name)
	}
	if err := t.msgService.SendMessage(ctx, therapist.Phone, body); err != nil {
		return nil, fmt.Errorf("outreach to %s failed: %w", params.TherapistID, err)
	}

	state.StageData[models.DataKeyOutreachCount] = strconv.Itoa(count + 1)
	slog.Info("ContactTherapistTool.Execute: outreach sent",
		"sessionID", state.SessionID, "therapistID", params.TherapistID, "contacted", count+1)

	return &models.ToolResult{
		Success: true,
		Message: fmt.Sprintf("outreach sent to %s (%d of %d contacts used)", therapist.Name, count+1, MaxOutreachContacts),
	}, nil
}

// BookSessionTool books a session with a matched therapist.
type BookSessionTool struct {
	store store.Store
}

// NewBookSessionTool creates the booking tool.
func NewBookSessionTool(s store.Store) *BookSessionTool {
	return &BookSessionTool{store: s}
}

// Name returns the function name exposed to the model.
func (t *BookSessionTool) Name() string { return string(models.ToolTypeBookSession) }

// GetToolDefinition returns the OpenAI tool definition for booking.
func (t *BookSessionTool) GetToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String("Book a session with a therapist found via match_therapist."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"therapist_id": map[string]interface{}{
						"type":        "string",
						"description": "The therapist to book with",
					},
					"scheduled_at": map[string]interface{}{
						"type":        "string",
						"description": "Session start time, RFC 3339",
					},
					"focus_areas": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Topics for the session",
					},
				},
				"required": []string{"therapist_id", "scheduled_at"},
			},
		},
	}
}

// Execute books the session and records it. Booking a full therapist
// reports failure without error so the model can pick an alternative.
func (t *BookSessionTool) Execute(ctx context.Context, state *models.ConversationState, args json.RawMessage) (*models.ToolResult, error) {
	var params models.BookSessionParams
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("failed to parse booking parameters: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	scheduledAt, err := time.Parse(time.RFC3339, params.ScheduledAt)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduled_at %q: %w", params.ScheduledAt, err)
	}

	booked, err := t.store.BookTherapist(params.TherapistID)
	if err != nil {
		return nil, fmt.Errorf("failed to book therapist %s: %w", params.TherapistID, err)
	}
	if !booked {
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("therapist %s has no remaining capacity", params.TherapistID),
		}, nil
	}

	rec := models.SessionRecord{
		ID:              uuid.NewString(),
		UserID:          state.UserID,
		TherapistID:     params.TherapistID,
		ScheduledAt:     scheduledAt,
		DurationMinutes: 50,
		Status:          models.SessionScheduled,
		FocusAreas:      params.FocusAreas,
		CreatedAt:       time.Now().UTC(),
	}
	if err := t.store.AddSessionRecord(rec); err != nil {
		return nil, fmt.Errorf("failed to record session: %w", err)
	}

	state.StageData[models.DataKeyMatchedID] = params.TherapistID
	slog.Info("BookSessionTool.Execute: session booked",
		"sessionID", state.SessionID, "therapistID", params.TherapistID, "recordID", rec.ID)

	return &models.ToolResult{
		Success: true,
		Message: fmt.Sprintf("session booked with therapist %s for %s", params.TherapistID, scheduledAt.Format(time.RFC3339)),
		Data:    rec,
	}, nil
}
