// Package store provides storage backends for MindBridge.
//
// It includes an in-memory store seeded with the volunteer therapist
// roster, plus SQLite and PostgreSQL implementations for persistence.
package store

import (
	"strings"

	"github.com/mindbridge-ai/MindBridge/internal/models"
)

// DetectDSNType reports "postgres" for PostgreSQL-style DSNs and
// "sqlite" for anything else, which is treated as a file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithDSN sets the database connection string. For SQLite this is a
// file path; for Postgres a connection URL.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// Store is the persistence surface the workflow and API depend on.
type Store interface {
	// GetAvailableTherapists returns therapists that can take new patients.
	GetAvailableTherapists() ([]models.Therapist, error)

	// GetTherapistByID returns a therapist or models.ErrTherapistNotFound.
	GetTherapistByID(id string) (*models.Therapist, error)

	// AddTherapist registers a new therapist. Returns false without
	// error when a therapist with the same ID already exists; the
	// existing record is left untouched.
	AddTherapist(t models.Therapist) (bool, error)

	// BookTherapist increments the therapist's patient count. Returns
	// false without error when the therapist has no capacity.
	BookTherapist(id string) (bool, error)

	// TherapistStats summarizes the roster.
	TherapistStats() (models.TherapistStats, error)

	// SaveWorkflowState stores or updates conversation state for a session.
	SaveWorkflowState(state models.ConversationState) error

	// GetWorkflowState retrieves conversation state, or nil when the
	// session has no stored state.
	GetWorkflowState(sessionID string) (*models.ConversationState, error)

	// DeleteWorkflowState removes a session's state.
	DeleteWorkflowState(sessionID string) error

	// AddSessionRecord stores a booked therapy session.
	AddSessionRecord(rec models.SessionRecord) error

	// GetSessionRecords returns a user's booked sessions, oldest first.
	GetSessionRecords(userID string) ([]models.SessionRecord, error)

	// Close releases the backend's resources.
	Close() error
}
