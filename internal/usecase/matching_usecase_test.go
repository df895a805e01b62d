package usecase

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"testing"
	"unicode"

	"github.com/google/uuid"
	"github.com/hirewise/matchengine/internal/apperr"
	"github.com/hirewise/matchengine/internal/dto"
	"github.com/hirewise/matchengine/internal/model"
	"github.com/hirewise/matchengine/internal/repository"
	"github.com/hirewise/matchengine/internal/service"
)

type fakeCatalog struct {
	jobs []model.Job
}

func (f *fakeCatalog) GetJob(_ context.Context, id uuid.UUID) (*model.Job, error) {
	for i := range f.jobs {
		if f.jobs[i].ID == id {
			return &f.jobs[i], nil
		}
	}
	return nil, apperr.NotFoundf("job %s", id)
}

func (f *fakeCatalog) ListJobs(_ context.Context, status string, _, _ int) ([]model.Job, error) {
	out := []model.Job{}
	for _, j := range f.jobs {
		if status == "" || j.Status == status {
			out = append(out, j)
		}
	}
	return out, nil
}

// fakeEmbedder produces deterministic bag-of-words vectors, so semantic
// similarity tracks token overlap between texts.
type fakeEmbedder struct {
	available bool
	embedErr  error
}

func (f *fakeEmbedder) Available() bool { return f.available }

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	const dim = 256
	vec := make([]float32, dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%dim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

func (f *fakeEmbedder) GenerateText(context.Context, string) (string, error) {
	return "", apperr.Unavailablef("generation model")
}

type fakeMatcher struct {
	available bool
	matches   []service.StructuredMatch
	err       error
	calls     int
}

func (f *fakeMatcher) Available() bool { return f.available }

func (f *fakeMatcher) Match(context.Context, dto.CandidateProfile, []string, int) ([]service.StructuredMatch, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func publishedJob(title, description string, skills ...string) model.Job {
	return model.Job{
		ID:             uuid.New(),
		Title:          title,
		Status:         "published",
		Description:    description,
		RequiredSkills: skills,
	}
}

func newEngine(catalog *fakeCatalog, matcher service.StructuredMatcher) (*MatchingUsecase, *repository.MemoryVectorIndex) {
	index := repository.NewMemoryVectorIndex()
	return NewMatchingUsecase(catalog, index, &fakeEmbedder{available: true}, matcher), index
}

func indexAll(t *testing.T, uc *MatchingUsecase, catalog *fakeCatalog) {
	t.Helper()
	for _, j := range catalog.jobs {
		if err := uc.IndexJob(context.Background(), j.ID); err != nil {
			t.Fatalf("index job %s: %v", j.ID, err)
		}
	}
}

func TestIndexThenRemoveExcludesJob(t *testing.T) {
	ctx := context.Background()
	job := publishedJob("Backend Engineer", "Builds APIs", "Go")
	catalog := &fakeCatalog{jobs: []model.Job{job}}
	uc, _ := newEngine(catalog, nil)

	if err := uc.IndexJob(ctx, job.ID); err != nil {
		t.Fatalf("index: %v", err)
	}
	results, err := uc.SearchSemantic(ctx, "backend engineer", 5, dto.SemanticSearchFilter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].JobID != job.ID.String() {
		t.Fatalf("expected the indexed job, got %v", results)
	}

	if err := uc.RemoveJobIndex(ctx, job.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	results, err = uc.SearchSemantic(ctx, "backend engineer", 5, dto.SemanticSearchFilter{})
	if err != nil {
		t.Fatalf("search after remove: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("removed job must never come back, got %v", results)
	}
}

func TestRepeatedIndexIsQueryEquivalent(t *testing.T) {
	ctx := context.Background()
	job := publishedJob("Backend Engineer", "Builds APIs", "Go")
	catalog := &fakeCatalog{jobs: []model.Job{job}}
	uc, _ := newEngine(catalog, nil)

	if err := uc.IndexJob(ctx, job.ID); err != nil {
		t.Fatalf("index: %v", err)
	}
	first, err := uc.SearchSemantic(ctx, "backend apis", 5, dto.SemanticSearchFilter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if err := uc.IndexJob(ctx, job.ID); err != nil {
		t.Fatalf("re-index: %v", err)
	}
	second, err := uc.SearchSemantic(ctx, "backend apis", 5, dto.SemanticSearchFilter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one hit both times, got %d then %d", len(first), len(second))
	}
	if math.Abs(first[0].Score-second[0].Score) > 1e-9 {
		t.Fatalf("re-index changed the score: %v vs %v", first[0].Score, second[0].Score)
	}
}

func TestIndexJobNotFound(t *testing.T) {
	uc, _ := newEngine(&fakeCatalog{}, nil)
	err := uc.IndexJob(context.Background(), uuid.New())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIndexJobEmbedderUnavailable(t *testing.T) {
	job := publishedJob("Backend Engineer", "", "Go")
	catalog := &fakeCatalog{jobs: []model.Job{job}}
	uc := NewMatchingUsecase(catalog, repository.NewMemoryVectorIndex(), &fakeEmbedder{available: false}, nil)

	err := uc.IndexJob(context.Background(), job.ID)
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestIndexAllJobs(t *testing.T) {
	catalog := &fakeCatalog{jobs: []model.Job{
		publishedJob("Backend Engineer", "", "Go"),
		publishedJob("Data Engineer", "", "SQL"),
		{ID: uuid.New(), Title: "Draft Role", Status: "draft"},
	}}
	uc, _ := newEngine(catalog, nil)

	indexed, failed, err := uc.IndexAllJobs(context.Background())
	if err != nil {
		t.Fatalf("index all: %v", err)
	}
	if indexed != 2 || failed != 0 {
		t.Fatalf("expected 2 indexed published jobs, got indexed=%d failed=%d", indexed, failed)
	}
}

func TestMatchCandidateSkillScenario(t *testing.T) {
	ctx := context.Background()
	pythonJob := publishedJob("Backend Developer", "", "Python")
	javaJob := publishedJob("Backend Developer", "", "Java")
	bothJob := publishedJob("Backend Developer", "", "Python", "Docker")
	catalog := &fakeCatalog{jobs: []model.Job{pythonJob, javaJob, bothJob}}
	uc, _ := newEngine(catalog, nil)
	indexAll(t, uc, catalog)

	results, err := uc.MatchCandidate(ctx, dto.CandidateProfile{
		Skills: []string{"Python", "Docker"},
	}, nil, 10, PolicyAuto)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].JobID != bothJob.ID.String() {
		t.Fatalf("job requiring Python+Docker should rank first, got %v", results[0])
	}
	if strings.Join(results[0].MatchedSkills, ",") != "docker,python" {
		t.Fatalf("unexpected matched skills: %v", results[0].MatchedSkills)
	}
	if len(results[0].MissingSkills) != 0 {
		t.Fatalf("expected no missing skills, got %v", results[0].MissingSkills)
	}

	for i := 1; i < len(results); i++ {
		if results[i].MatchScore > results[i-1].MatchScore {
			t.Fatalf("results not sorted by score: %v", results)
		}
	}
	for _, r := range results {
		if r.MatchScore < 0 || r.MatchScore > 1 {
			t.Fatalf("score out of range: %v", r.MatchScore)
		}
	}
}

func TestSearchSemanticRanksRelevantJobFirst(t *testing.T) {
	ctx := context.Background()
	devops := publishedJob("DevOps Engineer", "Kubernetes, Docker and CI pipelines", "Docker", "Kubernetes")
	pastry := publishedJob("Pastry Chef", "Baking croissants and cakes", "Baking")
	catalog := &fakeCatalog{jobs: []model.Job{devops, pastry}}
	uc, _ := newEngine(catalog, nil)
	indexAll(t, uc, catalog)

	results, err := uc.SearchSemantic(ctx, "devops engineer", 2, dto.SemanticSearchFilter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].JobID != devops.ID.String() {
		t.Fatalf("devops job should rank first, got %v", results)
	}
	if results[0].Score <= results[1].Score {
		t.Fatalf("devops job should score strictly higher: %v vs %v", results[0].Score, results[1].Score)
	}
}

func TestMatchCandidateEmbedderUnavailableYieldsEmpty(t *testing.T) {
	catalog := &fakeCatalog{}
	uc := NewMatchingUsecase(catalog, repository.NewMemoryVectorIndex(), &fakeEmbedder{available: false}, nil)

	results, err := uc.MatchCandidate(context.Background(), dto.CandidateProfile{
		Skills: []string{"Go"},
	}, nil, 10, PolicyAuto)
	if err != nil {
		t.Fatalf("degraded match must not fail: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %v", results)
	}
}

func TestMatchCandidateStructuredIsAuthoritative(t *testing.T) {
	ctx := context.Background()
	job := publishedJob("Backend Engineer", "", "Go")
	catalog := &fakeCatalog{jobs: []model.Job{job}}
	matcher := &fakeMatcher{available: true, matches: []service.StructuredMatch{
		{
			JobID:            "structured-1",
			JobTitle:         "Platform Engineer",
			Score:            0.91,
			CompetencyScores: map[string]float64{"go": 0.9, "k8s": 0.8},
			SkillGaps:        []string{"terraform"},
			Details:          map[string]string{"algorithm": "mercer"},
		},
	}}
	uc, _ := newEngine(catalog, matcher)
	indexAll(t, uc, catalog)

	results, err := uc.MatchCandidate(ctx, dto.CandidateProfile{Skills: []string{"Go"}}, nil, 10, PolicyAuto)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 1 || results[0].JobID != "structured-1" {
		t.Fatalf("structured result should be authoritative, got %v", results)
	}
	if results[0].MatchReasons[0] != "Structured match score: 0.91" {
		t.Fatalf("unexpected reasons: %v", results[0].MatchReasons)
	}
	if strings.Join(results[0].MatchedSkills, ",") != "go,k8s" {
		t.Fatalf("unexpected matched skills: %v", results[0].MatchedSkills)
	}
}

func TestMatchCandidateStructuredErrorFallsBack(t *testing.T) {
	ctx := context.Background()
	job := publishedJob("Backend Engineer", "", "Go")
	catalog := &fakeCatalog{jobs: []model.Job{job}}
	matcher := &fakeMatcher{available: true, err: errors.New("mercer exploded")}
	uc, _ := newEngine(catalog, matcher)
	indexAll(t, uc, catalog)

	results, err := uc.MatchCandidate(ctx, dto.CandidateProfile{Skills: []string{"Go"}}, nil, 10, PolicyAuto)
	if err != nil {
		t.Fatalf("matcher failure must not surface: %v", err)
	}
	if matcher.calls != 1 {
		t.Fatalf("matcher should have been tried once, got %d", matcher.calls)
	}
	if len(results) != 1 || results[0].JobID != job.ID.String() {
		t.Fatalf("expected semantic fallback result, got %v", results)
	}
}

func TestMatchCandidateForceSemanticSkipsMatcher(t *testing.T) {
	ctx := context.Background()
	job := publishedJob("Backend Engineer", "", "Go")
	catalog := &fakeCatalog{jobs: []model.Job{job}}
	matcher := &fakeMatcher{available: true, matches: []service.StructuredMatch{{JobID: "structured-1"}}}
	uc, _ := newEngine(catalog, matcher)
	indexAll(t, uc, catalog)

	results, err := uc.MatchCandidate(ctx, dto.CandidateProfile{Skills: []string{"Go"}}, nil, 10, PolicyForceSemantic)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if matcher.calls != 0 {
		t.Fatalf("force-semantic must not call the structured matcher")
	}
	if len(results) != 1 || results[0].JobID != job.ID.String() {
		t.Fatalf("expected semantic result, got %v", results)
	}
}

func TestMatchCandidateForceStructuredWithoutMatcher(t *testing.T) {
	job := publishedJob("Backend Engineer", "", "Go")
	catalog := &fakeCatalog{jobs: []model.Job{job}}
	uc, _ := newEngine(catalog, &fakeMatcher{available: false})
	indexAll(t, uc, catalog)

	results, err := uc.MatchCandidate(context.Background(), dto.CandidateProfile{Skills: []string{"Go"}}, nil, 10, PolicyForceStructured)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("force-structured without a matcher should yield empty, got %v", results)
	}
}

func TestMatchCandidateJobIDRestriction(t *testing.T) {
	ctx := context.Background()
	a := publishedJob("Backend Developer", "", "Go")
	b := publishedJob("Backend Developer", "", "Go")
	catalog := &fakeCatalog{jobs: []model.Job{a, b}}
	uc, _ := newEngine(catalog, nil)
	indexAll(t, uc, catalog)

	results, err := uc.MatchCandidate(ctx, dto.CandidateProfile{Skills: []string{"Go"}},
		[]string{a.ID.String()}, 10, PolicyAuto)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 1 || results[0].JobID != a.ID.String() {
		t.Fatalf("job id restriction should keep only job A, got %v", results)
	}
}

func TestMatchCandidateValidation(t *testing.T) {
	uc, _ := newEngine(&fakeCatalog{}, nil)
	_, err := uc.MatchCandidate(context.Background(), dto.CandidateProfile{}, nil, 10, PolicyAuto)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSearchSemanticValidation(t *testing.T) {
	uc, _ := newEngine(&fakeCatalog{}, nil)
	_, err := uc.SearchSemantic(context.Background(), "   ", 5, dto.SemanticSearchFilter{})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestParsePolicy(t *testing.T) {
	for raw, want := range map[string]MatchPolicy{
		"":                 PolicyAuto,
		"auto":             PolicyAuto,
		"force-structured": PolicyForceStructured,
		"force-semantic":   PolicyForceSemantic,
	} {
		got, err := ParsePolicy(raw)
		if err != nil || got != want {
			t.Fatalf("ParsePolicy(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParsePolicy("aggressive"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown policy, got %v", err)
	}
}
