package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hirewise/matchengine/internal/apperr"
	"github.com/hirewise/matchengine/internal/dto"
	"github.com/hirewise/matchengine/internal/model"
)

type fakeGemini struct {
	available bool
	text      string
	err       error
	prompts   []string
}

func (f *fakeGemini) Available() bool { return f.available }

func (f *fakeGemini) GenerateEmbedding(context.Context, string) ([]float32, error) {
	return nil, apperr.Unavailablef("embedding model")
}

func (f *fakeGemini) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestGenerateDescriptionTemplateIsDeterministic(t *testing.T) {
	uc := NewGenerationUsecase(&fakeCatalog{}, &fakeGemini{})
	draft := dto.JobDescriptionDraft{Title: "Backend Engineer"}

	first, err := uc.GenerateDescription(context.Background(), draft, false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := uc.GenerateDescription(context.Background(), draft, false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if first.Description != second.Description {
		t.Fatalf("template output must be byte-identical across calls")
	}
	if first.GeneratedBy != "template" {
		t.Fatalf("expected template provenance, got %q", first.GeneratedBy)
	}
}

func TestGenerateDescriptionTemplateDefaults(t *testing.T) {
	uc := NewGenerationUsecase(&fakeCatalog{}, &fakeGemini{})

	resp, err := uc.GenerateDescription(context.Background(), dto.JobDescriptionDraft{Title: "Backend Engineer"}, false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, want := range []string{
		"# Backend Engineer",
		"**Department:** Engineering",
		"**Level:** Mid-level",
		"## Key Responsibilities",
		"- Perform assigned tasks",
		"## Qualifications",
	} {
		if !strings.Contains(resp.Description, want) {
			t.Fatalf("template output missing %q:\n%s", want, resp.Description)
		}
	}
	if strings.Contains(resp.Description, "## Required Skills") {
		t.Fatalf("skills section should be omitted for an empty skill list:\n%s", resp.Description)
	}
}

func TestGenerateDescriptionRequiresTitle(t *testing.T) {
	uc := NewGenerationUsecase(&fakeCatalog{}, &fakeGemini{})
	_, err := uc.GenerateDescription(context.Background(), dto.JobDescriptionDraft{}, false)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGenerateDescriptionUsesLLMWhenAvailable(t *testing.T) {
	gemini := &fakeGemini{available: true, text: "A great role."}
	uc := NewGenerationUsecase(&fakeCatalog{}, gemini)

	resp, err := uc.GenerateDescription(context.Background(), dto.JobDescriptionDraft{Title: "Backend Engineer"}, true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.GeneratedBy != "llm" || resp.Description != "A great role." {
		t.Fatalf("expected LLM output, got %+v", resp)
	}
	if len(gemini.prompts) != 1 || !strings.Contains(gemini.prompts[0], "Backend Engineer") {
		t.Fatalf("prompt should carry the draft title: %v", gemini.prompts)
	}
}

func TestGenerateDescriptionLLMFailureFallsBackToTemplate(t *testing.T) {
	gemini := &fakeGemini{available: true, err: errors.New("model overloaded")}
	uc := NewGenerationUsecase(&fakeCatalog{}, gemini)

	resp, err := uc.GenerateDescription(context.Background(), dto.JobDescriptionDraft{Title: "Backend Engineer"}, true)
	if err != nil {
		t.Fatalf("LLM failure must not surface: %v", err)
	}
	if resp.GeneratedBy != "template" {
		t.Fatalf("expected template fallback, got %q", resp.GeneratedBy)
	}
	if !strings.Contains(resp.Description, "# Backend Engineer") {
		t.Fatalf("fallback output malformed:\n%s", resp.Description)
	}
}

func TestAnswerQuestionUnknownJob(t *testing.T) {
	uc := NewGenerationUsecase(&fakeCatalog{}, &fakeGemini{})
	_, err := uc.AnswerQuestion(context.Background(), uuid.New(), "What skills are required?")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAnswerQuestionRequiresQuestion(t *testing.T) {
	uc := NewGenerationUsecase(&fakeCatalog{}, &fakeGemini{})
	_, err := uc.AnswerQuestion(context.Background(), uuid.New(), "  ")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAnswerQuestionExtractiveFallback(t *testing.T) {
	job := model.Job{
		ID:             uuid.New(),
		Title:          "Backend Engineer",
		Status:         "published",
		Description:    "We ship a payments platform. The team deploys weekly.",
		RequiredSkills: []string{"Python", "Docker"},
	}
	uc := NewGenerationUsecase(&fakeCatalog{jobs: []model.Job{job}}, &fakeGemini{})

	resp, err := uc.AnswerQuestion(context.Background(), job.ID, "What skills are required?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if resp.JobID != job.ID.String() {
		t.Fatalf("answer should name the job, got %q", resp.JobID)
	}
	if !strings.Contains(resp.Answer, "Python") || !strings.Contains(resp.Answer, "Docker") {
		t.Fatalf("expected the skills sentence, got %q", resp.Answer)
	}
}

func TestAnswerQuestionInsufficientInformation(t *testing.T) {
	job := model.Job{
		ID:          uuid.New(),
		Title:       "Backend Engineer",
		Status:      "published",
		Description: "We ship a payments platform.",
	}
	uc := NewGenerationUsecase(&fakeCatalog{jobs: []model.Job{job}}, &fakeGemini{})

	resp, err := uc.AnswerQuestion(context.Background(), job.ID, "What is the salary?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if resp.Answer != insufficientInfoAnswer {
		t.Fatalf("unanswerable questions must say so, got %q", resp.Answer)
	}
}

func TestAnswerQuestionUsesLLMWhenAvailable(t *testing.T) {
	job := model.Job{ID: uuid.New(), Title: "Backend Engineer", Status: "published"}
	gemini := &fakeGemini{available: true, text: "You need Go experience."}
	uc := NewGenerationUsecase(&fakeCatalog{jobs: []model.Job{job}}, gemini)

	resp, err := uc.AnswerQuestion(context.Background(), job.ID, "What do I need?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if resp.Answer != "You need Go experience." {
		t.Fatalf("expected LLM answer, got %q", resp.Answer)
	}
	if len(gemini.prompts) != 1 || !strings.Contains(gemini.prompts[0], "Job: Backend Engineer.") {
		t.Fatalf("prompt should be grounded in the job context: %v", gemini.prompts)
	}
}
