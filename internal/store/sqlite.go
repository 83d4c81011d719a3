// SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/mindbridge-ai/MindBridge/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists everything in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path; missing parent directories are created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) scanTherapists(rows *sql.Rows) ([]models.Therapist, error) {
	var out []models.Therapist
	for rows.Next() {
		var t models.Therapist
		var specsJSON, slotsJSON string
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
		if err := json.Unmarshal([]byte(specsJSON), &t.Specializations); err != nil {
			return nil, fmt.Errorf("failed to decode specializations for %s: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(slotsJSON), &t.TimeSlots); err != nil {
			return nil, fmt.Errorf("failed to decode time slots for %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const therapistColumns = `id, name, email, phone, specializations, license_number,
	years_experience, time_slots, is_volunteer, status, max_patients, current_patients,
	bio, joined_at, last_active`

// GetAvailableTherapists returns therapists that can take new patients.
func (s *SQLiteStore) GetAvailableTherapists() ([]models.Therapist, error) {
	rows, err := s.db.Query(`SELECT ` + therapistColumns + ` FROM therapists
		WHERE status = 'active' AND current_patients < max_patients ORDER BY id`)
	if err != nil {
		slog.Error("SQLiteStore GetAvailableTherapists query failed", "error", err)
		return nil, fmt.Errorf("failed to query therapists: %w", err)
	}
	defer rows.Close()

	therapists, err := s.scanTherapists(rows)
	if err != nil {
		return nil, err
	}
	// Availability also requires at least one time slot; filter here
	// since the JSON column is opaque to SQL.
	var out []models.Therapist
	for _, t := range therapists {
		if t.IsAvailable() {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetTherapistByID returns a therapist or models.ErrTherapistNotFound.
func (s *SQLiteStore) GetTherapistByID(id string) (*models.Therapist, error) {
	rows, err := s.db.Query(`SELECT `+therapistColumns+` FROM therapists WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query therapist %s: %w", id, err)
	}
	defer rows.Close()

	therapists, err := s.scanTherapists(rows)
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
func (s *SQLiteStore) AddTherapist(t models.Therapist) (bool, error) {
	specsJSON, err := json.Marshal(t.Specializations)
	if err != nil {
		return false, fmt.Errorf("failed to encode specializations: %w", err)
	}
	slotsJSON, err := json.Marshal(t.TimeSlots)
	if err != nil {
		return false, fmt.Errorf("failed to encode time slots: %w", err)
	}

	res, err := s.db.Exec(`INSERT OR IGNORE INTO therapists (`+therapistColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Email, nilIfEmpty(t.Phone), string(specsJSON), nilIfEmpty(t.LicenseNumber),
		t.YearsExperience, string(slotsJSON), t.IsVolunteer, t.Status,
		t.MaxPatients, t.CurrentPatients, nilIfEmpty(t.Bio), t.JoinedAt, t.LastActive)
	if err != nil {
		slog.Error("SQLiteStore AddTherapist failed", "error", err, "therapistID", t.ID)
		return false, fmt.Errorf("failed to insert therapist %s: %w", t.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result for %s: %w", t.ID, err)
	}
	if affected == 0 {
		slog.Warn("SQLiteStore AddTherapist: duplicate ID rejected", "therapistID", t.ID)
		return false, nil
	}
	slog.Debug("SQLiteStore AddTherapist succeeded", "therapistID", t.ID)
	return true, nil
}

// BookTherapist increments the therapist's patient count if capacity allows.
func (s *SQLiteStore) BookTherapist(id string) (bool, error) {
	res, err := s.db.Exec(`UPDATE therapists
		SET current_patients = current_patients + 1, last_active = ?
		WHERE id = ? AND current_patients < max_patients`, time.Now().UTC(), id)
	if err != nil {
		slog.Error("SQLiteStore BookTherapist failed", "error", err, "therapistID", id)
		return false, fmt.Errorf("failed to book therapist %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read booking result for %s: %w", id, err)
	}
	if affected == 0 {
		// Distinguish a missing therapist from a full one.
		if _, err := s.GetTherapistByID(id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// TherapistStats summarizes the roster.
func (s *SQLiteStore) TherapistStats() (models.TherapistStats, error) {
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
func (s *SQLiteStore) SaveWorkflowState(state models.ConversationState) error {
	state.UpdatedAt = time.Now().UTC()
	stateJSON, err := json.Marshal(state)
	if err != nil {
		slog.Error("SQLiteStore SaveWorkflowState JSON marshal failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to encode workflow state: %w", err)
	}

	_, err = s.db.Exec(`INSERT OR REPLACE INTO workflow_states
		(session_id, user_id, stage, state_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		state.SessionID, state.UserID, state.Stage, string(stateJSON), state.CreatedAt, state.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveWorkflowState failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to save workflow state for %s: %w", state.SessionID, err)
	}
	slog.Debug("SQLiteStore SaveWorkflowState succeeded", "sessionID", state.SessionID, "stage", state.Stage)
	return nil
}

// GetWorkflowState retrieves conversation state, nil when absent.
func (s *SQLiteStore) GetWorkflowState(sessionID string) (*models.ConversationState, error) {
	var stateJSON string
	err := s.db.QueryRow(`SELECT state_data FROM workflow_states WHERE session_id = ?`, sessionID).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetWorkflowState not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetWorkflowState failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query workflow state for %s: %w", sessionID, err)
	}

	var state models.ConversationState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		slog.Error("SQLiteStore GetWorkflowState JSON unmarshal failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to decode workflow state for %s: %w", sessionID, err)
	}
	return &state, nil
}

// DeleteWorkflowState removes a session's state.
func (s *SQLiteStore) DeleteWorkflowState(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM workflow_states WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow state for %s: %w", sessionID, err)
	}
	return nil
}

// AddSessionRecord stores a booked therapy session.
func (s *SQLiteStore) AddSessionRecord(rec models.SessionRecord) error {
	focusJSON, err := json.Marshal(rec.FocusAreas)
	if err != nil {
		return fmt.Errorf("failed to encode focus areas: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO session_records
		(id, user_id, therapist_id, scheduled_at, duration_minutes, status, focus_areas, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.TherapistID, rec.ScheduledAt, rec.DurationMinutes,
		rec.Status, string(focusJSON), rec.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddSessionRecord failed", "error", err, "recordID", rec.ID)
		return fmt.Errorf("failed to insert session record %s: %w", rec.ID, err)
	}
	return nil
}

// GetSessionRecords returns a user's booked sessions, oldest first.
func (s *SQLiteStore) GetSessionRecords(userID string) ([]models.SessionRecord, error) {
	rows, err := s.db.Query(`SELECT id, user_id, therapist_id, scheduled_at,
		duration_minutes, status, focus_areas, created_at
		FROM session_records WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session records for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []models.SessionRecord
	for rows.Next() {
		var rec models.SessionRecord
		var focusJSON string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.TherapistID, &rec.ScheduledAt,
			&rec.DurationMinutes, &rec.Status, &focusJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session record: %w", err)
		}
		if err := json.Unmarshal([]byte(focusJSON), &rec.FocusAreas); err != nil {
			return nil, fmt.Errorf("failed to decode focus areas: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
