package dto

// CandidateProfile is per-request input for matching. It is never persisted.
type CandidateProfile struct {
	Skills            []string `json:"skills"`
	ExperienceSummary string   `json:"experience_summary"`
	Education         string   `json:"education"`
	DesiredRole       string   `json:"desired_role"`
	YearsOfExperience int      `json:"years_of_experience"`
	Location          string   `json:"location"`
}
