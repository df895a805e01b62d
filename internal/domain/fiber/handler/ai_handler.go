package handler

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hirewise/matchengine/internal/apperr"
	"github.com/hirewise/matchengine/internal/dto"
	"github.com/hirewise/matchengine/internal/middleware"
	"github.com/hirewise/matchengine/internal/usecase"
	"github.com/hirewise/matchengine/internal/util"
)

const maxResumeSize = 5 * 1024 * 1024

type AIHandler struct {
	matching   *usecase.MatchingUsecase
	generation *usecase.GenerationUsecase
}

func NewAIHandler(matching *usecase.MatchingUsecase, generation *usecase.GenerationUsecase) *AIHandler {
	return &AIHandler{matching: matching, generation: generation}
}

func (h *AIHandler) RegisterRoutes(app *fiber.App) {
	ai := app.Group("/api/v1/ai/jobs")
	ai.Post("/match-candidate", h.MatchCandidate)
	ai.Post("/match-cv", middleware.RateLimiter(1, 4*time.Second), h.MatchCV)
	ai.Post("/search-semantic", h.SearchSemantic)
	ai.Post("/generate-description", h.GenerateDescription)
	ai.Post("/index-all", h.IndexAll)
	ai.Post("/:id/ask", h.AskQuestion)
	ai.Post("/:id/index", h.IndexJob)
	ai.Delete("/:id/index", h.RemoveIndex)
}

// statusForError maps the engine's error taxonomy to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *AIHandler) fail(c *fiber.Ctx, message string, err error) error {
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    statusForError(err),
		Message: message,
	}, err)
}

func (h *AIHandler) MatchCandidate(c *fiber.Ctx) error {
	var req dto.MatchCandidateRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "invalid request body", apperr.Validationf("parse body: %v", err))
	}

	policy, err := usecase.ParsePolicy(req.Policy)
	if err != nil {
		return h.fail(c, "invalid match policy", err)
	}

	results, err := h.matching.MatchCandidate(c.Context(), req.Candidate, req.JobIDs, req.Limit, policy)
	if err != nil {
		return h.fail(c, "failed to match candidate", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success match candidate",
		Data:    fiber.Map{"matches": results, "total": len(results)},
	})
}

// MatchCV accepts a PDF resume upload and matches its extracted text as the
// candidate's experience summary. Skills and desired role can be passed as
// form fields alongside the file.
func (h *AIHandler) MatchCV(c *fiber.Ctx) error {
	file, err := c.FormFile("cv")
	if err != nil {
		return h.fail(c, "cv file is required", apperr.Validationf("missing cv file"))
	}
	if file.Size > maxResumeSize {
		return h.fail(c, "cv file size is too large (max 5MB)", apperr.Validationf("file too large"))
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		return h.fail(c, "unsupported cv file type", apperr.Validationf("only PDF resumes are supported"))
	}

	savePath := filepath.Join("./uploads/cv/", file.Filename)
	if err := c.SaveFile(file, savePath); err != nil {
		return h.fail(c, "cannot save cv file", err)
	}

	content, err := util.ExtractPDFText(savePath)
	if err != nil {
		return h.fail(c, "failed to extract cv text", apperr.Validationf("extract cv: %v", err))
	}

	profile := dto.CandidateProfile{
		ExperienceSummary: content,
		DesiredRole:       c.FormValue("desired_role"),
	}
	if skills := strings.TrimSpace(c.FormValue("skills")); skills != "" {
		for _, s := range strings.Split(skills, ",") {
			if s = strings.TrimSpace(s); s != "" {
				profile.Skills = append(profile.Skills, s)
			}
		}
	}

	results, err := h.matching.MatchCandidate(c.Context(), profile, nil, c.QueryInt("limit"), usecase.PolicyAuto)
	if err != nil {
		return h.fail(c, "failed to match cv", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success match cv",
		Data:    fiber.Map{"matches": results, "total": len(results)},
	})
}

func (h *AIHandler) SearchSemantic(c *fiber.Ctx) error {
	var req dto.SemanticSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "invalid request body", apperr.Validationf("parse body: %v", err))
	}

	results, err := h.matching.SearchSemantic(c.Context(), req.Query, req.Limit, req.Filter)
	if err != nil {
		return h.fail(c, "failed to search jobs", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success search jobs",
		Data:    fiber.Map{"results": results, "total": len(results)},
	})
}

func (h *AIHandler) GenerateDescription(c *fiber.Ctx) error {
	var req dto.GenerateDescriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "invalid request body", apperr.Validationf("parse body: %v", err))
	}

	resp, err := h.generation.GenerateDescription(c.Context(), req.JobDescriptionDraft, req.UseLLM)
	if err != nil {
		return h.fail(c, "failed to generate description", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success generate description",
		Data:    resp,
	})
}

func (h *AIHandler) AskQuestion(c *fiber.Ctx) error {
	jobID, err := h.jobID(c)
	if err != nil {
		return h.fail(c, "invalid job id", err)
	}

	var req dto.JobQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "invalid request body", apperr.Validationf("parse body: %v", err))
	}

	resp, err := h.generation.AnswerQuestion(c.Context(), jobID, req.Question)
	if err != nil {
		return h.fail(c, "failed to answer question", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success answer question",
		Data:    resp,
	})
}

func (h *AIHandler) IndexJob(c *fiber.Ctx) error {
	jobID, err := h.jobID(c)
	if err != nil {
		return h.fail(c, "invalid job id", err)
	}

	if err := h.matching.IndexJob(c.Context(), jobID); err != nil {
		return h.fail(c, "failed to index job", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success index job",
		Data: dto.JobIndexResponse{
			JobID:   jobID.String(),
			Message: fmt.Sprintf("job %s indexed", jobID),
		},
	})
}

func (h *AIHandler) RemoveIndex(c *fiber.Ctx) error {
	jobID, err := h.jobID(c)
	if err != nil {
		return h.fail(c, "invalid job id", err)
	}

	if err := h.matching.RemoveJobIndex(c.Context(), jobID); err != nil {
		return h.fail(c, "failed to remove job index", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success remove job index",
		Data: dto.JobIndexResponse{
			JobID:   jobID.String(),
			Message: fmt.Sprintf("job %s removed from index", jobID),
		},
	})
}

func (h *AIHandler) IndexAll(c *fiber.Ctx) error {
	indexed, failed, err := h.matching.IndexAllJobs(c.Context())
	if err != nil {
		return h.fail(c, "failed to index jobs", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success index jobs",
		Data:    dto.IndexAllResponse{Indexed: indexed, Failed: failed},
	})
}

func (h *AIHandler) jobID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.Validationf("job id must be a UUID")
	}
	return id, nil
}
