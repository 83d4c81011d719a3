package models

import (
	"errors"
	"time"
)

// Specialization is an area of expertise a therapist can offer.
type Specialization string

const (
	SpecAnxiety         Specialization = "anxiety"
	SpecDepression      Specialization = "depression"
	SpecTrauma          Specialization = "trauma"
	SpecAddiction       Specialization = "addiction"
	SpecRelationships   Specialization = "relationships"
	SpecGrief           Specialization = "grief"
	SpecEatingDisorders Specialization = "eating_disorders"
	SpecOCD             Specialization = "ocd"
	SpecPTSD            Specialization = "ptsd"
	SpecGeneral         Specialization = "general"
)

// IsValidSpecialization checks if the given specialization is supported.
func IsValidSpecialization(s Specialization) bool {
	switch s {
	case SpecAnxiety, SpecDepression, SpecTrauma, SpecAddiction, SpecRelationships,
		SpecGrief, SpecEatingDisorders, SpecOCD, SpecPTSD, SpecGeneral:
		return true
	default:
		return false
	}
}

// TherapistStatus tracks whether a therapist can be matched.
type TherapistStatus string

const (
	TherapistStatusActive  TherapistStatus = "active"
	TherapistStatusPending TherapistStatus = "pending"
	TherapistStatusOffline TherapistStatus = "offline"
	TherapistStatusFull    TherapistStatus = "full"
)

// TimeSlot represents a recurring weekly availability window.
type TimeSlot struct {
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"` // HH:MM, 24-hour
	EndTime   string `json:"end_time"`
	Timezone  string `json:"timezone,omitempty"`
}

// Therapist is a volunteer therapist profile with availability and
// specializations. The matching engine treats these as read-only
// snapshots supplied by the store.
type Therapist struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone,omitempty"`
	Specializations []Specialization `json:"specializations"`
	LicenseNumber   string           `json:"license_number,omitempty"`
	YearsExperience int              `json:"years_experience"`
	TimeSlots       []TimeSlot       `json:"time_slots,omitempty"`
	IsVolunteer     bool             `json:"is_volunteer"`
	Status          TherapistStatus  `json:"status"`
	MaxPatients     int              `json:"max_patients"`
	CurrentPatients int              `json:"current_patients"`
	Bio             string           `json:"bio,omitempty"`
	JoinedAt        time.Time        `json:"joined_at,omitempty"`
	LastActive      time.Time        `json:"last_active,omitempty"`
}

// IsAvailable reports whether the therapist can take new patients.
func (t *Therapist) IsAvailable() bool {
	return t.Status == TherapistStatusActive &&
		t.CurrentPatients < t.MaxPatients &&
		len(t.TimeSlots) > 0
}

// HasSpecialization reports whether the therapist covers the given area.
func (t *Therapist) HasSpecialization(s Specialization) bool {
	for _, spec := range t.Specializations {
		if spec == s {
			return true
		}
	}
	return false
}

// AvailabilityPercentage reports how full the therapist's schedule is.
func (t *Therapist) AvailabilityPercentage() float64 {
	if t.MaxPatients == 0 {
		return 0
	}
	return float64(t.CurrentPatients) / float64(t.MaxPatients) * 100
}

// TherapistStats summarizes the therapist roster for monitoring.
type TherapistStats struct {
	Total           int     `json:"total_therapists"`
	Active          int     `json:"active"`
	Available       int     `json:"available"`
	Full            int     `json:"full"`
	UtilizationRate float64 `json:"utilization_rate"`
}

// ScoredTherapist pairs a candidate with its computed match score.
type ScoredTherapist struct {
	Therapist  Therapist `json:"therapist"`
	MatchScore float64   `json:"match_score"`
}

// MatchResult is the outcome of scoring candidates for a need profile.
// An empty candidate set produces MatchFound=false, never an error.
type MatchResult struct {
	MatchFound   bool              `json:"match_found"`
	Best         *ScoredTherapist  `json:"therapist,omitempty"`
	Alternatives []ScoredTherapist `json:"alternatives,omitempty"`
	Reason       string            `json:"reason,omitempty"`
}

// SessionRecordStatus tracks a booked therapy session's lifecycle.
type SessionRecordStatus string

const (
	SessionScheduled SessionRecordStatus = "scheduled"
	SessionCompleted SessionRecordStatus = "completed"
	SessionCancelled SessionRecordStatus = "cancelled"
)

// SessionRecord is a booked therapy session between a user and a
// matched therapist.
type SessionRecord struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	TherapistID     string              `json:"therapist_id"`
	ScheduledAt     time.Time           `json:"scheduled_at"`
	DurationMinutes int                 `json:"duration_minutes"`
	Status          SessionRecordStatus `json:"status"`
	FocusAreas      []string            `json:"focus_areas,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// TherapistInput is the payload for registering a new therapist.
type TherapistInput struct {
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone,omitempty"`
	Specializations []Specialization `json:"specializations,omitempty"`
	YearsExperience int              `json:"years_experience"`
	MaxPatients     int              `json:"max_patients,omitempty"`
	Bio             string           `json:"bio,omitempty"`
}

// Validate performs validation on a TherapistInput.
func (ti *TherapistInput) Validate() error {
	if ti.Name == "" {
		return ErrEmptyTherapistName
	}
	if ti.Email == "" {
		return ErrEmptyTherapistEmail
	}
	if ti.YearsExperience < 0 {
		return ErrNegativeExperience
	}
	for _, s := range ti.Specializations {
		if !IsValidSpecialization(s) {
			return ErrUnknownSpecialization
		}
	}
	return nil
}

var (
	// ErrEmptyTherapistName indicates a missing therapist name.
	ErrEmptyTherapistName = errors.New("therapist name is required")
	// ErrEmptyTherapistEmail indicates a missing therapist email.
	ErrEmptyTherapistEmail = errors.New("therapist email is required")
	// ErrNegativeExperience indicates an invalid years_experience value.
	ErrNegativeExperience = errors.New("years_experience cannot be negative")
	// ErrUnknownSpecialization indicates an unsupported specialization value.
	ErrUnknownSpecialization = errors.New("unknown specialization")
)
