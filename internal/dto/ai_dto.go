package dto

// MatchCandidateRequest matches a candidate profile against indexed jobs.
// JobIDs restricts the candidate pool when non-empty. Policy is one of
// "auto", "force-structured", "force-semantic"; empty means auto.
type MatchCandidateRequest struct {
	Candidate CandidateProfile `json:"candidate"`
	JobIDs    []string         `json:"job_ids"`
	Limit     int              `json:"limit"`
	Policy    string           `json:"policy"`
}

type SemanticSearchFilter struct {
	Status     string `json:"status"`
	Department string `json:"department"`
	Level      string `json:"level"`
}

type SemanticSearchRequest struct {
	Query  string               `json:"query"`
	Limit  int                  `json:"limit"`
	Filter SemanticSearchFilter `json:"filters"`
}

type SemanticSearchResult struct {
	JobID      string  `json:"job_id"`
	Score      float64 `json:"score"`
	Title      string  `json:"title"`
	Department string  `json:"department,omitempty"`
	Level      string  `json:"level,omitempty"`
}

// JobDescriptionDraft is the structured input for description generation.
// Only Title is required.
type JobDescriptionDraft struct {
	Title            string   `json:"title"`
	Department       string   `json:"department"`
	Level            string   `json:"level"`
	RequiredSkills   []string `json:"required_skills"`
	Responsibilities []string `json:"responsibilities"`
}

type GenerateDescriptionRequest struct {
	JobDescriptionDraft
	UseLLM bool `json:"use_llm"`
}

type JobDescriptionResponse struct {
	Description string `json:"description"`
	GeneratedBy string `json:"generated_by"` // "llm" or "template"
}

type JobQuestionRequest struct {
	Question string `json:"question"`
}

type JobQuestionResponse struct {
	Answer string `json:"answer"`
	JobID  string `json:"job_id"`
}

type JobIndexResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

type IndexAllResponse struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}
