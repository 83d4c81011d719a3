// PostgreSQL-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/mindbridge-ai/MindBridge/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists everything in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// GetAvailableTherapists returns therapists that can take new patients.
func (s *PostgresStore) GetAvailableTherapists() ([]models.Therapist, error) {
	rows, err := s.db.Query(`SELECT ` + therapistColumns + ` FROM therapists
		WHERE status = 'active' AND current_patients < max_patients ORDER BY id`)
	if err != nil {
		slog.Error("PostgresStore GetAvailableTherapists query failed", "error", err)
		return nil, fmt.Errorf("failed to query therapists: %w", err)
	}
	defer rows.Close()

	therapists, err := scanPGTherapists(rows)
	if err != nil {
		return nil, err
	}
	var out []models.Therapist
	for _, t := range therapists {
		if t.IsAvailable() {
			out = append(out, t)
		}
	}
	return out, nil
}

func scanPGTherapists(rows *sql.Rows) ([]models.Therapist, error) {
	var out []models.Therapist
	for rows.Next() {
		var t models.Therapist
		var specsJSON, slotsJSON []byte
		var phone, license, bio sql.NullString
		var joined, active sql.NullTime
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &phone, &specsJSON, &license,
			&t.YearsExperience, &slotsJSON, &t.IsVolunteer, &t.Status,
			&t.MaxPatients, &t.CurrentPatients, &bio, &joined, &active); err != nil {
			return nil, fmt.Errorf("failed to scan therapist row: %w", err)
		}
		t.Phone = phone.String
		t.LicenseNumber = license.String
		t.Bio = bio.String
		if joined.Valid {
			t.JoinedAt = joined.Time
		}
		if active.Valid {
			t.LastActive = active.Time
		}
		if err := json.Unmarshal(specsJSON, &t.Specializations); err != nil {
			return nil, fmt.Errorf("failed to decode specializations for %s: %w", t.ID, err)
		}
		if err := json.Unmarshal(slotsJSON, &t.TimeSlots); err != nil {
			return nil, fmt.Errorf("failed to decode time slots for %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTherapistByID returns a therapist or models.ErrTherapistNotFound.
func (s *PostgresStore) GetTherapistByID(id string) (*models.Therapist, error) {
	rows, err := s.db.Query(`SELECT `+therapistColumns+` FROM therapists WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query therapist %s: %w", id, err)
	}
	defer rows.Close()

	therapists, err := scanPGTherapists(rows)
	if err != nil {
		return nil, err
	}
	if len(therapists) == 0 {
		return nil, models.ErrTherapistNotFound
	}
	return &therapists[0], nil
}

// AddTherapist registers a new therapist. A duplicate ID leaves the
// existing row untouched and reports false.
func (s *PostgresStore) AddTherapist(t models.Therapist) (bool, error) {
	specsJSON, err := json.Marshal(t.Specializations)
	if err != nil {
		return false, fmt.Errorf("failed to encode specializations: %w", err)
	}
	slotsJSON, err := json.Marshal(t.TimeSlots)
	if err != nil {
		return false, fmt.Errorf("failed to encode time slots: %w", err)
	}

	res, err := s.db.Exec(`INSERT INTO therapists (`+therapistColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING`,
		t.ID, t.Name, t.Email, nilIfEmpty(t.Phone), specsJSON, nilIfEmpty(t.LicenseNumber),
		t.YearsExperience, slotsJSON, t.IsVolunteer, t.Status,
		t.MaxPatients, t.CurrentPatients, nilIfEmpty(t.Bio), t.JoinedAt, t.LastActive)
	if err != nil {
		slog.Error("PostgresStore AddTherapist failed", "error", err, "therapistID", t.ID)
		return false, fmt.Errorf("failed to insert therapist %s: %w", t.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result for %s: %w", t.ID, err)
	}
	if affected == 0 {
		slog.Warn("PostgresStore AddTherapist: duplicate ID rejected", "therapistID", t.ID)
		return false, nil
	}
	return true, nil
}

// BookTherapist increments the therapist's patient count if capacity allows.
func (s *PostgresStore) BookTherapist(id string) (bool, error) {
	res, err := s.db.Exec(`UPDATE therapists
		SET current_patients = current_patients + 1, last_active = $1
		WHERE id = $2 AND current_patients < max_patients`, time.Now().UTC(), id)
	if err != nil {
		slog.Error("PostgresStore BookTherapist failed", "error", err, "therapistID", id)
		return false, fmt.Errorf("failed to book therapist %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read booking result for %s: %w", id, err)
	}
	if affected == 0 {
		if _, err := s.GetTherapistByID(id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// TherapistStats summarizes the roster.
func (s *PostgresStore) TherapistStats() (models.TherapistStats, error) {
	var stats models.TherapistStats
	var capacity, load int
	err := s.db.QueryRow(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'active' AND current_patients < max_patients THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN max_patients > 0 AND current_patients >= max_patients THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(max_patients), 0), COALESCE(SUM(current_patients), 0)
		FROM therapists`).Scan(&stats.Total, &stats.Active, &stats.Available, &stats.Full, &capacity, &load)
	if err != nil {
		return stats, fmt.Errorf("failed to query therapist stats: %w", err)
	}
	if capacity > 0 {
		stats.UtilizationRate = float64(load) / float64(capacity) * 100
	}
	return stats, nil
}

// SaveWorkflowState stores or updates conversation state for a session.
func (s *PostgresStore) SaveWorkflowState(state models.ConversationState) error {
	state.UpdatedAt = time.Now().UTC()
	stateJSON, err := json.Marshal(state)
	if err != nil {
		slog.Error("PostgresStore SaveWorkflowState JSON marshal failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to encode workflow state: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO workflow_states
		(session_id, user_id, stage, state_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			stage = EXCLUDED.stage, state_data = EXCLUDED.state_data, updated_at = EXCLUDED.updated_at`,
		state.SessionID, state.UserID, state.Stage, stateJSON, state.CreatedAt, state.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveWorkflowState failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to save workflow state for %s: %w", state.SessionID, err)
	}
	slog.Debug("PostgresStore SaveWorkflowState succeeded", "sessionID", state.SessionID, "stage", state.Stage)
	return nil
}

// GetWorkflowState retrieves conversation state, nil when absent.
func (s *PostgresStore) GetWorkflowState(sessionID string) (*models.ConversationState, error) {
	var stateJSON []byte
	err := s.db.QueryRow(`SELECT state_data FROM workflow_states WHERE session_id = $1`, sessionID).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetWorkflowState not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetWorkflowState failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query workflow state for %s: %w", sessionID, err)
	}

	var state models.ConversationState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		slog.Error("PostgresStore GetWorkflowState JSON unmarshal failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to decode workflow state for %s: %w", sessionID, err)
	}
	return &state, nil
}

// DeleteWorkflowState removes a session's state.
func (s *PostgresStore) DeleteWorkflowState(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM workflow_states WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow state for %s: %w", sessionID, err)
	}
	return nil
}

// AddSessionRecord stores a booked therapy session.
func (s *PostgresStore) AddSessionRecord(rec models.SessionRecord) error {
	focusJSON, err := json.Marshal(rec.FocusAreas)
	if err != nil {
		return fmt.Errorf("failed to encode focus areas: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO session_records
		(id, user_id, therapist_id, scheduled_at, duration_minutes, status, focus_areas, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.UserID, rec.TherapistID, rec.ScheduledAt, rec.DurationMinutes,
		rec.Status, focusJSON, rec.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddSessionRecord failed", "error", err, "recordID", rec.ID)
		return fmt.Errorf("failed to insert session record %s: %w", rec.ID, err)
	}
	return nil
}

// GetSessionRecords returns a user's booked sessions, oldest first.
func (s *PostgresStore) GetSessionRecords(userID string) ([]models.SessionRecord, error) {
	rows, err := s.db.Query(`SELECT id, user_id, therapist_id, scheduled_at,
		duration_minutes, status, focus_areas, created_at
		FROM session_records WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session records for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []models.SessionRecord
	for rows.Next() {
		var rec models.SessionRecord
		var focusJSON []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.TherapistID, &rec.ScheduledAt,
			&rec.DurationMinutes, &rec.Status, &focusJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session record: %w", err)
		}
		if err := json.Unmarshal(focusJSON, &rec.FocusAreas); err != nil {
			return nil, fmt.Errorf("failed to decode focus areas: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
