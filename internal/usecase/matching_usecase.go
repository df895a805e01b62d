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
	"github.com/hirewise/matchengine/internal/matching"
	"github.com/hirewise/matchengine/internal/model"
	"github.com/hirewise/matchengine/internal/repository"
	"github.com/hirewise/matchengine/internal/service"
)

type MatchPolicy string

const (
	PolicyAuto            MatchPolicy = "auto"
	PolicyForceStructured MatchPolicy = "force-structured"
	PolicyForceSemantic   MatchPolicy = "force-semantic"
)

func ParsePolicy(raw string) (MatchPolicy, error) {
	switch MatchPolicy(raw) {
	case "":
		return PolicyAuto, nil
	case PolicyAuto, PolicyForceStructured, PolicyForceSemantic:
		return MatchPolicy(raw), nil
	default:
		return "", apperr.Validationf("unknown match policy %q", raw)
	}
}

const (
	defaultMatchLimit = 10
	maxMatchLimit     = 50
	indexBatchSize    = 500
)

// JobCatalog is the read-only slice of the catalog service this engine
// consumes.
type JobCatalog interface {
	GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error)
	ListJobs(ctx context.Context, status string, limit, offset int) ([]model.Job, error)
}

// MatchingUsecase coordinates the structured matcher and the semantic
// fallback behind one result shape. The structured matcher and the
// embedding model are both optional; a fully unconfigured engine still
// answers every call with well-formed (possibly empty) results.
type MatchingUsecase struct {
	catalog JobCatalog
	index   repository.VectorIndex
	gemini  service.GeminiServiceInterface
	matcher service.StructuredMatcher // nil when MERCER_MODE=off
}

func NewMatchingUsecase(catalog JobCatalog, index repository.VectorIndex, gemini service.GeminiServiceInterface, matcher service.StructuredMatcher) *MatchingUsecase {
	return &MatchingUsecase{catalog: catalog, index: index, gemini: gemini, matcher: matcher}
}

// IndexJob fetches the job, embeds its searchable text and upserts the
// vector entry. Calling it again with unchanged content leaves the index
// query-equivalent. This is the one operation where a missing embedding
// model surfaces, since there is nothing useful to degrade to.
func (uc *MatchingUsecase) IndexJob(ctx context.Context, jobID uuid.UUID) error {
	job, err := uc.catalog.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	if !uc.gemini.Available() {
		return apperr.Unavailablef("embedding model not configured")
	}

	embedding, err := uc.gemini.GenerateEmbedding(ctx, buildSearchableText(job))
	if err != nil {
		return fmt.Errorf("embed job %s: %w", jobID, err)
	}

	return uc.index.Upsert(ctx, repository.VectorEntry{
		JobID:      job.ID,
		Embedding:  embedding,
		Document:   buildSearchableText(job),
		Title:      job.Title,
		Department: job.Department,
		Level:      job.Level,
		Status:     job.Status,
		Skills:     job.RequiredSkills,
	})
}

// IndexAllJobs indexes every published catalog job, skipping over
// individual failures.
func (uc *MatchingUsecase) IndexAllJobs(ctx context.Context) (indexed, failed int, err error) {
	jobs, err := uc.catalog.ListJobs(ctx, "published", indexBatchSize, 0)
	if err != nil {
		return 0, 0, err
	}
	for _, job := range jobs {
		if err := uc.IndexJob(ctx, job.ID); err != nil {
			log.Printf("index job %s failed: %v", job.ID, err)
			failed++
			continue
		}
		indexed++
	}
	return indexed, failed, nil
}

func (uc *MatchingUsecase) RemoveJobIndex(ctx context.Context, jobID uuid.UUID) error {
	return uc.index.Remove(ctx, jobID)
}

// MatchCandidate ranks jobs for a candidate profile. Policy auto tries the
// structured matcher first and falls back to semantic search; the forced
// policies pin one path. A missing backend never fails the request: the
// worst case is an empty list.
func (uc *MatchingUsecase) MatchCandidate(ctx context.Context, profile dto.CandidateProfile, jobIDs []string, limit int, policy MatchPolicy) ([]matching.MatchResult, error) {
	if len(profile.Skills) == 0 && profile.DesiredRole == "" && profile.ExperienceSummary == "" {
		return nil, apperr.Validationf("candidate profile needs skills, a desired role or an experience summary")
	}
	limit = clampLimit(limit)
	if policy == "" {
		policy = PolicyAuto
	}

	if policy != PolicyForceSemantic && uc.matcher != nil && uc.matcher.Available() {
		results, ok := uc.matchStructured(ctx, profile, jobIDs, limit)
		if ok {
			return results, nil
		}
	}

	if policy == PolicyForceStructured {
		return []matching.MatchResult{}, nil
	}

	return uc.matchSemantic(ctx, profile, jobIDs, limit)
}

// matchStructured runs the adapter and reports whether its answer is
// authoritative. Errors and empty answers both read as "no structured
// result" so the semantic path can take over.
func (uc *MatchingUsecase) matchStructured(ctx context.Context, profile dto.CandidateProfile, jobIDs []string, limit int) ([]matching.MatchResult, bool) {
	structured, err := uc.matcher.Match(ctx, profile, jobIDs, limit)
	if err != nil {
		log.Printf("structured matcher failed, falling back to semantic: %v", err)
		return nil, false
	}
	if len(structured) == 0 {
		return nil, false
	}

	results := make([]matching.MatchResult, 0, len(structured))
	for _, m := range structured {
		results = append(results, structuredToResult(m))
	}
	matching.Sort(results)
	return matching.Truncate(results, limit), true
}

func structuredToResult(m service.StructuredMatch) matching.MatchResult {
	reasons := []string{fmt.Sprintf("Structured match score: %.2f", m.Score)}
	if len(m.CompetencyScores) > 0 {
		reasons = append(reasons, fmt.Sprintf("Competency match: %d competencies", len(m.CompetencyScores)))
	}
	detailKeys := make([]string, 0, len(m.Details))
	for k := range m.Details {
		detailKeys = append(detailKeys, k)
	}
	sort.Strings(detailKeys)
	if len(detailKeys) > 3 {
		detailKeys = detailKeys[:3]
	}
	for _, k := range detailKeys {
		reasons = append(reasons, fmt.Sprintf("%s: %s", k, m.Details[k]))
	}

	matched := make([]string, 0, len(m.CompetencyScores))
	for skill := range m.CompetencyScores {
		matched = append(matched, skill)
	}
	sort.Strings(matched)

	missing := m.SkillGaps
	if missing == nil {
		missing = []string{}
	}

	return matching.MatchResult{
		JobID:         m.JobID,
		JobTitle:      m.JobTitle,
		MatchScore:    matching.Clamp01(m.Score),
		MatchReasons:  reasons,
		MatchedSkills: matched,
		MissingSkills: missing,
	}
}

func (uc *MatchingUsecase) matchSemantic(ctx context.Context, profile dto.CandidateProfile, jobIDs []string, limit int) ([]matching.MatchResult, error) {
	if !uc.gemini.Available() {
		return []matching.MatchResult{}, nil
	}

	embedding, err := uc.gemini.GenerateEmbedding(ctx, buildCandidateQuery(profile))
	if err != nil {
		// Availability over correctness: an embedding outage degrades to an
		// empty match list, it does not fail the request.
		log.Printf("candidate embedding failed: %v", err)
		return []matching.MatchResult{}, nil
	}

	// Over-fetch so a job-id restriction still leaves enough candidates.
	hits, err := uc.index.Search(ctx, embedding, limit*2, repository.VectorFilter{Status: "published"})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	wanted := map[string]struct{}{}
	for _, id := range jobIDs {
		wanted[id] = struct{}{}
	}

	results := make([]matching.MatchResult, 0, len(hits))
	for _, hit := range hits {
		if len(wanted) > 0 {
			if _, ok := wanted[hit.JobID.String()]; !ok {
				continue
			}
		}

		matched, missing := matching.Overlap(profile.Skills, hit.Skills)
		score := matching.Score(hit.Similarity, len(matched), len(matched)+len(missing))

		results = append(results, matching.MatchResult{
			JobID:         hit.JobID.String(),
			JobTitle:      hit.Title,
			MatchScore:    score,
			MatchReasons:  matching.Reasons(score, len(matched), hit.Level),
			MatchedSkills: matched,
			MissingSkills: missing,
		})
	}

	matching.Sort(results)
	return matching.Truncate(results, limit), nil
}

// SearchSemantic embeds the free-text query and returns the nearest indexed
// jobs. An unconfigured embedding model yields an empty result set.
func (uc *MatchingUsecase) SearchSemantic(ctx context.Context, query string, limit int, filter dto.SemanticSearchFilter) ([]dto.SemanticSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validationf("search query cannot be empty")
	}
	limit = clampLimit(limit)

	if !uc.gemini.Available() {
		return []dto.SemanticSearchResult{}, nil
	}

	embedding, err := uc.gemini.GenerateEmbedding(ctx, query)
	if err != nil {
		log.Printf("query embedding failed: %v", err)
		return []dto.SemanticSearchResult{}, nil
	}

	hits, err := uc.index.Search(ctx, embedding, limit, repository.VectorFilter{
		Status:     filter.Status,
		Department: filter.Department,
		Level:      filter.Level,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]dto.SemanticSearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, dto.SemanticSearchResult{
			JobID:      hit.JobID.String(),
			Score:      matching.Clamp01(hit.Similarity),
			Title:      hit.Title,
			Department: hit.Department,
			Level:      hit.Level,
		})
	}
	return results, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultMatchLimit
	}
	if limit > maxMatchLimit {
		return maxMatchLimit
	}
	return limit
}

// buildSearchableText flattens the indexable job fields into one string.
func buildSearchableText(job *model.Job) string {
	parts := []string{
		job.Title,
		job.Description,
		strings.Join(job.RequiredSkills, ", "),
		job.Department,
		job.Level,
		strings.Join(job.Responsibilities, " "),
	}
	return joinNonEmpty(parts)
}

// buildCandidateQuery flattens the candidate profile into the semantic
// query string.
func buildCandidateQuery(profile dto.CandidateProfile) string {
	parts := []string{
		strings.Join(profile.Skills, ", "),
		profile.ExperienceSummary,
		profile.Education,
		profile.DesiredRole,
	}
	return joinNonEmpty(parts)
}

func joinNonEmpty(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
