package triage

// CrisisResource is a hotline or service shared with users in distress.
type CrisisResource struct {
	Name         string `json:"name"`
	Contact      string `json:"contact"`
	Description  string `json:"description"`
	Availability string `json:"availability"`
}

// CrisisResources returns the standard set of crisis support lines.
// The list is static so it works even when every external dependency
// is down.
func CrisisResources() []CrisisResource {
	return []CrisisResource{
		{
			Name:         "988 Suicide & Crisis Lifeline",
			Contact:      "Call or text 988",
			Description:  "Free, confidential support for people in distress",
			Availability: "24/7",
		},
		{
			Name:         "Crisis Text Line",
			Contact:      "Text HOME to 741741",
			Description:  "Text-based crisis counseling",
			Availability: "24/7",
		},
		{
			Name:         "Emergency Services",
			Contact:      "Call 911",
			Description:  "Immediate emergency response",
			Availability: "24/7",
		},
	}
}
