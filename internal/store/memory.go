package store

import (
	"sync"
	"time"

	"github.com/mindbridge-ai/MindBridge/internal/models"
)

// InMemoryStore keeps everything in process memory. It backs tests and
// demo deployments where no database is configured.
type InMemoryStore struct {
	mu         sync.RWMutex
	therapists map[string]models.Therapist
	order      []string // preserves roster insertion order
	states     map[string]models.ConversationState
	records    []models.SessionRecord
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		therapists: make(map[string]models.Therapist),
		states:     make(map[string]models.ConversationState),
	}
}

// NewSeededInMemoryStore creates an in-memory store preloaded with the
// volunteer therapist roster.
func NewSeededInMemoryStore() *InMemoryStore {
	s := NewInMemoryStore()
	for _, t := range SeedTherapists() {
		_, _ = s.AddTherapist(t)
	}
	return s
}

// GetAvailableTherapists returns therapists that can take new patients,
// in roster order.
func (s *InMemoryStore) GetAvailableTherapists() ([]models.Therapist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Therapist
	for _, id := range s.order {
		t := s.therapists[id]
		if t.IsAvailable() {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetTherapistByID returns a therapist or models.ErrTherapistNotFound.
func (s *InMemoryStore) GetTherapistByID(id string) (*models.Therapist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.therapists[id]
	if !ok {
		return nil, models.ErrTherapistNotFound
	}
	return &t, nil
}

// AddTherapist registers a new therapist. A duplicate ID is rejected so
// re-enrollment can never overwrite an existing record or reset its
// patient load.
func (s *InMemoryStore) AddTherapist(t models.Therapist) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.therapists[t.ID]; exists {
		return false, nil
	}
	s.order = append(s.order, t.ID)
	s.therapists[t.ID] = t
	return true, nil
}

// BookTherapist increments the therapist's patient count if capacity allows.
func (s *InMemoryStore) BookTherapist(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.therapists[id]
	if !ok {
		return false, models.ErrTherapistNotFound
	}
	if t.CurrentPatients >= t.MaxPatients {
		return false, nil
	}
	t.CurrentPatients++
	t.LastActive = time.Now().UTC()
	s.therapists[id] = t
	return true, nil
}

// TherapistStats summarizes the roster.
func (s *InMemoryStore) TherapistStats() (models.TherapistStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats models.TherapistStats
	var capacity, load int
	for _, t := range s.therapists {
		stats.Total++
		if t.Status == models.TherapistStatusActive {
			stats.Active++
		}
		if t.IsAvailable() {
			stats.Available++
		}
		if t.MaxPatients > 0 && t.CurrentPatients >= t.MaxPatients {
			stats.Full++
		}
		capacity += t.MaxPatients
		load += t.CurrentPatients
	}
	if capacity > 0 {
		stats.UtilizationRate = float64(load) / float64(capacity) * 100
	}
	return stats, nil
}

// SaveWorkflowState stores or updates conversation state for a session.
func (s *InMemoryStore) SaveWorkflowState(state models.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.UpdatedAt = time.Now().UTC()
	s.states[state.SessionID] = state
	return nil
}

// GetWorkflowState retrieves conversation state, nil when absent.
func (s *InMemoryStore) GetWorkflowState(sessionID string) (*models.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sessionID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// DeleteWorkflowState removes a session's state.
func (s *InMemoryStore) DeleteWorkflowState(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
	return nil
}

// AddSessionRecord stores a booked therapy session.
func (s *InMemoryStore) AddSessionRecord(rec models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// GetSessionRecords returns a user's booked sessions, oldest first.
func (s *InMemoryStore) GetSessionRecords(userID string) ([]models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.SessionRecord
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
