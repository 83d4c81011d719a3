package store

import "github.com/mindbridge-ai/MindBridge/internal/models"

// SeedTherapists returns the demo volunteer therapist roster. Dr.
// Williams is intentionally at capacity so fallback matching has
// something to exercise.
func SeedTherapists() []models.Therapist {
	return []models.Therapist{
		{
			ID: "therapist_001", Name: "Dr. Sarah Johnson",
			Email: "sarah.johnson@mindbridge.org", Phone: "+1-555-0101",
			Specializations: []models.Specialization{models.SpecAnxiety, models.SpecDepression, models.SpecTrauma},
			LicenseNumber:   "PSY-48213-CA", YearsExperience: 12,
			TimeSlots: []models.TimeSlot{
				{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "17:00"},
				{DayOfWeek: "Wednesday", StartTime: "09:00", EndTime: "17:00"},
			},
			IsVolunteer: true, Status: models.TherapistStatusActive,
			MaxPatients: 12, CurrentPatients: 3,
			Bio: "Licensed psychologist focused on anxiety and trauma recovery.",
		},
		{
			ID: "therapist_002", Name: "Dr. Michael Chen",
			Email: "michael.chen@mindbridge.org", Phone: "+1-555-0102",
			Specializations: []models.Specialization{models.SpecAddiction, models.SpecRelationships, models.SpecGeneral},
			LicenseNumber:   "LMFT-29841-NY", YearsExperience: 8,
			TimeSlots: []models.TimeSlot{
				{DayOfWeek: "Tuesday", StartTime: "10:00", EndTime: "18:00"},
				{DayOfWeek: "Thursday", StartTime: "10:00", EndTime: "18:00"},
			},
			IsVolunteer: true, Status: models.TherapistStatusActive,
			MaxPatients: 10, CurrentPatients: 7,
			Bio: "Family therapist supporting recovery and relationship repair.",
		},
		{
			ID: "therapist_003", Name: "Dr. Emily Rodriguez",
			Email: "emily.rodriguez@mindbridge.org", Phone: "+1-555-0103",
			Specializations: []models.Specialization{models.SpecEatingDisorders, models.SpecAnxiety, models.SpecDepression},
			LicenseNumber:   "PSY-67122-TX", YearsExperience: 15,
			TimeSlots: []models.TimeSlot{
				{DayOfWeek: "Monday", StartTime: "08:00", EndTime: "14:00"},
				{DayOfWeek: "Friday", StartTime: "08:00", EndTime: "14:00"},
			},
			IsVolunteer: true, Status: models.TherapistStatusActive,
			MaxPatients: 15, CurrentPatients: 10,
			Bio: "Specialist in eating disorders and co-occurring anxiety.",
		},
		{
			ID: "therapist_004", Name: "Dr. James Williams",
			Email: "james.williams@mindbridge.org", Phone: "+1-555-0104",
			Specializations: []models.Specialization{models.SpecPTSD, models.SpecTrauma, models.SpecGrief},
			LicenseNumber:   "PSY-11894-WA", YearsExperience: 20,
			TimeSlots: []models.TimeSlot{
				{DayOfWeek: "Wednesday", StartTime: "12:00", EndTime: "20:00"},
			},
			IsVolunteer: true, Status: models.TherapistStatusActive,
			MaxPatients: 8, CurrentPatients: 8, // at capacity
			Bio: "Veteran trauma therapist with two decades of PTSD work.",
		},
		{
			ID: "therapist_005", Name: "Dr. Lisa Thompson",
			Email: "lisa.thompson@mindbridge.org", Phone: "+1-555-0105",
			Specializations: []models.Specialization{models.SpecAnxiety, models.SpecOCD, models.SpecGeneral},
			LicenseNumber:   "LPC-55310-IL", YearsExperience: 10,
			TimeSlots: []models.TimeSlot{
				{DayOfWeek: "Tuesday", StartTime: "09:00", EndTime: "17:00"},
				{DayOfWeek: "Saturday", StartTime: "09:00", EndTime: "13:00"},
			},
			IsVolunteer: true, Status: models.TherapistStatusActive,
			MaxPatients: 12, CurrentPatients: 5,
			Bio: "OCD and anxiety specialist using exposure-based methods.",
		},
		{
			ID: "therapist_006", Name: "Dr. David Martinez",
			Email: "david.martinez@mindbridge.org", Phone: "+1-555-0106",
			Specializations: []models.Specialization{models.SpecDepression, models.SpecGrief, models.SpecGeneral},
			LicenseNumber:   "LCSW-88472-FL", YearsExperience: 6,
			TimeSlots: []models.TimeSlot{
				{DayOfWeek: "Monday", StartTime: "13:00", EndTime: "19:00"},
				{DayOfWeek: "Thursday", StartTime: "13:00", EndTime: "19:00"},
			},
			IsVolunteer: true, Status: models.TherapistStatusActive,
			MaxPatients: 10, CurrentPatients: 4,
			Bio: "Clinical social worker focused on depression and loss.",
		},
		{
			ID: "therapist_007", Name: "Dr. Amanda Foster",
			Email: "amanda.foster@mindbridge.org", Phone: "+1-555-0107",
			Specializations: []models.Specialization{models.SpecRelationships, models.SpecAnxiety, models.SpecGeneral},
			LicenseNumber:   "LMFT-33901-OR", YearsExperience: 9,
			TimeSlots: []models.TimeSlot{
				{DayOfWeek: "Wednesday", StartTime: "09:00", EndTime: "17:00"},
				{DayOfWeek: "Friday", StartTime: "09:00", EndTime: "15:00"},
			},
			IsVolunteer: true, Status: models.TherapistStatusActive,
			MaxPatients: 10, CurrentPatients: 6,
			Bio: "Couples and individual therapist for relational anxiety.",
		},
		{
			ID: "therapist_008", Name: "Dr. Robert Kim",
			Email: "robert.kim@mindbridge.org", Phone: "+1-555-0108",
			Specializations: []models.Specialization{models.SpecAddiction, models.SpecDepression, models.SpecTrauma},
			LicenseNumber:   "PSY-20476-AZ", YearsExperience: 14,
			TimeSlots: []models.TimeSlot{
				{DayOfWeek: "Tuesday", StartTime: "08:00", EndTime: "16:00"},
				{DayOfWeek: "Thursday", StartTime: "08:00", EndTime: "16:00"},
			},
			IsVolunteer: true, Status: models.TherapistStatusActive,
			MaxPatients: 12, CurrentPatients: 0,
			Bio: "Addiction counselor helping individuals achieve lasting recovery.",
		},
		{
			ID: "therapist_009", Name: "Dr. Jennifer Lee",
			Email: "jennifer.lee@mindbridge.org", Phone: "+1-555-0109",
			Specializations: []models.Specialization{models.SpecAnxiety, models.SpecDepression, models.SpecGeneral},
			LicenseNumber:   "PSY-91234-CO", YearsExperience: 7,
			TimeSlots: []models.TimeSlot{
				{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "17:00"},
				{DayOfWeek: "Tuesday", StartTime: "09:00", EndTime: "17:00"},
				{DayOfWeek: "Thursday", StartTime: "09:00", EndTime: "13:00"},
			},
			IsVolunteer: true, Status: models.TherapistStatusActive,
			MaxPatients: 15, CurrentPatients: 2,
			Bio: "Evidence-based treatment for young adults and life transitions.",
		},
		{
			ID: "therapist_010", Name: "Dr. Patricia Brown",
			Email: "patricia.brown@mindbridge.org", Phone: "+1-555-0110",
			Specializations: []models.Specialization{models.SpecGrief, models.SpecTrauma, models.SpecDepression},
			LicenseNumber:   "LMHC-12345-NC", YearsExperience: 18,
			TimeSlots: []models.TimeSlot{
				{DayOfWeek: "Wednesday", StartTime: "08:00", EndTime: "16:00"},
				{DayOfWeek: "Friday", StartTime: "08:00", EndTime: "16:00"},
			},
			IsVolunteer: true, Status: models.TherapistStatusActive,
			MaxPatients: 10, CurrentPatients: 9,
			Bio: "Grief counselor helping individuals navigate loss and build resilience.",
		},
	}
}
