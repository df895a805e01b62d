package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/hirewise/matchengine/internal/apperr"
	"github.com/hirewise/matchengine/internal/dto"
	"github.com/hirewise/matchengine/internal/model"
	"github.com/hirewise/matchengine/internal/service"
)

const insufficientInfoAnswer = "The job posting does not contain enough information to answer that question."

// GenerationUsecase produces job descriptions and answers questions about a
// single job. Each capability has an LLM variant and a deterministic
// fallback; the fallback is the resilience mechanism, not an error path.
type GenerationUsecase struct {
	catalog JobCatalog
	gemini  service.GeminiServiceInterface
}

func NewGenerationUsecase(catalog JobCatalog, gemini service.GeminiServiceInterface) *GenerationUsecase {
	return &GenerationUsecase{catalog: catalog, gemini: gemini}
}

// GenerateDescription renders a job description from the draft. With
// useLLM and a configured model it prompts Gemini; otherwise, or on any LLM
// failure, it falls back to the fixed template. Only the title is required.
func (uc *GenerationUsecase) GenerateDescription(ctx context.Context, draft dto.JobDescriptionDraft, useLLM bool) (dto.JobDescriptionResponse, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return dto.JobDescriptionResponse{}, apperr.Validationf("title is required")
	}

	if useLLM && uc.gemini.Available() {
		text, err := uc.gemini.GenerateText(ctx, descriptionPrompt(draft))
		if err == nil {
			return dto.JobDescriptionResponse{Description: text, GeneratedBy: "llm"}, nil
		}
		log.Printf("LLM description generation failed, using template: %v", err)
	}

	return dto.JobDescriptionResponse{
		Description: renderDescriptionTemplate(draft),
		GeneratedBy: "template",
	}, nil
}

// AnswerQuestion answers a free-text question about one job, grounded
// strictly in that job's own content. Without an LLM it extracts the most
// question-relevant sentences; when nothing in the posting is relevant it
// says so instead of inventing an answer.
func (uc *GenerationUsecase) AnswerQuestion(ctx context.Context, jobID uuid.UUID, question string) (dto.JobQuestionResponse, error) {
	if strings.TrimSpace(question) == "" {
		return dto.JobQuestionResponse{}, apperr.Validationf("question cannot be empty")
	}

	job, err := uc.catalog.GetJob(ctx, jobID)
	if err != nil {
		return dto.JobQuestionResponse{}, err
	}

	grounding := formatJobContext(job)

	if uc.gemini.Available() {
		answer, err := uc.gemini.GenerateText(ctx, questionPrompt(grounding, question))
		if err == nil {
			return dto.JobQuestionResponse{Answer: answer, JobID: jobID.String()}, nil
		}
		log.Printf("LLM answer failed, using extractive fallback: %v", err)
	}

	return dto.JobQuestionResponse{
		Answer: extractiveAnswer(grounding, question),
		JobID:  jobID.String(),
	}, nil
}

func descriptionPrompt(draft dto.JobDescriptionDraft) string {
	department := defaultString(draft.Department, "Engineering")
	level := defaultString(draft.Level, "Mid-level")

	return fmt.Sprintf(`Generate a professional job description based on these requirements:

Title: %s
Department: %s
Level: %s
Required Skills: %s
Key Responsibilities: %s

Create a comprehensive job description with:
- Job summary
- Key responsibilities
- Required qualifications
- Preferred qualifications
- Benefits (brief)`,
		draft.Title,
		department,
		level,
		strings.Join(draft.RequiredSkills, ", "),
		strings.Join(draft.Responsibilities, "; "),
	)
}

// renderDescriptionTemplate is the deterministic variant: the same draft
// always produces byte-identical output.
func renderDescriptionTemplate(draft dto.JobDescriptionDraft) string {
	department := defaultString(draft.Department, "Engineering")
	level := defaultString(draft.Level, "Mid-level")
	responsibilities := draft.Responsibilities
	if len(responsibilities) == 0 {
		responsibilities = []string{"Perform assigned tasks"}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", draft.Title)
	fmt.Fprintf(&b, "**Department:** %s\n**Level:** %s\n\n", department, level)
	fmt.Fprintf(&b, "## Job Summary\nWe are looking for a %s %s to join our %s team.\n\n", level, draft.Title, department)

	b.WriteString("## Key Responsibilities\n")
	for _, r := range responsibilities {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	if len(draft.RequiredSkills) > 0 {
		b.WriteString("\n## Required Skills\n")
		for _, s := range draft.RequiredSkills {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	fmt.Fprintf(&b, "\n## Qualifications\n- Relevant experience in %s\n- %s level expertise\n- Strong communication skills\n", department, level)
	return b.String()
}

func questionPrompt(grounding, question string) string {
	return fmt.Sprintf(`You are a helpful assistant answering questions about job postings.

Context about the job:
%s

Question: %s

Provide a clear, concise answer based only on the job information above.`, grounding, question)
}

// formatJobContext builds the grounding context from one job's own content.
// Nothing outside this string may influence an answer about the job.
func formatJobContext(job *model.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job: %s.\n", job.Title)
	if job.Department != "" {
		fmt.Fprintf(&b, "Department: %s.\n", job.Department)
	}
	if job.Level != "" {
		fmt.Fprintf(&b, "Level: %s.\n", job.Level)
	}
	if job.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", job.Description)
	}
	if len(job.RequiredSkills) > 0 {
		fmt.Fprintf(&b, "Required skills: %s.\n", strings.Join(job.RequiredSkills, ", "))
	}
	for _, r := range job.Responsibilities {
		fmt.Fprintf(&b, "Responsibility: %s.\n", r)
	}
	return b.String()
}

// extractiveAnswer scores each sentence of the grounding context by lexical
// overlap with the question and returns the best ones.
func extractiveAnswer(grounding, question string) string {
	questionTerms := significantTerms(question)
	if len(questionTerms) == 0 {
		return insufficientInfoAnswer
	}

	type scored struct {
		index    int
		sentence string
		overlap  int
	}

	sentences := splitSentences(grounding)
	candidates := []scored{}
	for i, sentence := range sentences {
		overlap := 0
		terms := significantTerms(sentence)
		for term := range questionTerms {
			if _, ok := terms[term]; ok {
				overlap++
			}
		}
		if overlap > 0 {
			candidates = append(candidates, scored{index: i, sentence: sentence, overlap: overlap})
		}
	}

	if len(candidates) == 0 {
		return insufficientInfoAnswer
	}

	// Best overlap first; document order for equally relevant sentences.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].overlap > candidates[j].overlap
	})
	if len(candidates) > 2 {
		candidates = candidates[:2]
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].index < candidates[j].index
	})

	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = c.sentence
	}
	return strings.Join(parts, " ")
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s+".")
		}
	}
	return out
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "what": {}, "which": {},
	"this": {}, "that": {}, "does": {}, "with": {}, "how": {}, "who": {},
	"job": {}, "position": {}, "role": {},
}

func significantTerms(text string) map[string]struct{} {
	terms := map[string]struct{}{}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:?!()\"'")
		if len(word) < 3 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		terms[word] = struct{}{}
	}
	return terms
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
