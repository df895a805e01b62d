package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hirewise/matchengine/internal/dto"
	"github.com/hirewise/matchengine/internal/matching"
)

const stubJobFetchLimit = 100

// StubMatcher is the development stand-in for the Mercer library. It ranks
// published catalog jobs with a weighted blend of skill coverage, level fit
// and title relevance.
type StubMatcher struct {
	jobs JobSource
}

func NewStubMatcher(jobs JobSource) *StubMatcher {
	return &StubMatcher{jobs: jobs}
}

func (s *StubMatcher) Available() bool {
	return s != nil && s.jobs != nil
}

func (s *StubMatcher) Match(ctx context.Context, candidate dto.CandidateProfile, jobIDs []string, topN int) ([]StructuredMatch, error) {
	jobs, err := s.jobs.ListJobs(ctx, "published", stubJobFetchLimit, 0)
	if err != nil {
		return nil, err
	}

	wanted := map[string]struct{}{}
	for _, id := range jobIDs {
		wanted[id] = struct{}{}
	}

	candidateSkills := matching.NormalizeSkills(candidate.Skills)
	desiredRole := strings.ToLower(strings.TrimSpace(candidate.DesiredRole))

	matches := []StructuredMatch{}
	for _, job := range jobs {
		if len(wanted) > 0 {
			if _, ok := wanted[job.ID.String()]; !ok {
				continue
			}
		}

		matched, missing := matching.Overlap(candidateSkills, job.RequiredSkills)
		required := len(matched) + len(missing)
		skillScore := 0.0
		if required > 0 {
			skillScore = float64(len(matched)) / float64(required)
		}

		levelScore := levelFit(job.Level, candidate.YearsOfExperience)
		titleScore := titleRelevance(desiredRole, job.Title)

		score := skillScore*0.5 + levelScore*0.3 + titleScore*0.2

		competencies := map[string]float64{}
		for _, skill := range matched {
			competencies[skill] = matching.Clamp01(score + 0.1)
		}
		if len(competencies) == 0 {
			competencies = nil
		}

		if len(missing) > 5 {
			missing = missing[:5]
		}

		matches = append(matches, StructuredMatch{
			JobID:    job.ID.String(),
			JobTitle: job.Title,
			Score:    score,
			Details: map[string]string{
				"algorithm":   "dev-stub",
				"skill_match": fmt.Sprintf("%d/%d", len(matched), required),
			},
			CompetencyScores: competencies,
			SkillGaps:        missing,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].JobID < matches[j].JobID
	})

	if topN > 0 && len(matches) > topN {
		matches = matches[:topN]
	}
	return matches, nil
}

// levelFit penalizes seniority mismatches between the job and the
// candidate's years of experience.
func levelFit(jobLevel string, years int) float64 {
	level := strings.ToLower(jobLevel)
	switch {
	case level == "":
		return 1.0
	case strings.Contains(level, "senior") && years < 5:
		return 0.6
	case strings.Contains(level, "mid") && years < 2:
		return 0.7
	case strings.Contains(level, "entry") && years > 5:
		return 0.8
	default:
		return 1.0
	}
}

// titleRelevance is the share of desired-role words that appear in the job
// title. No desired role means no penalty.
func titleRelevance(desiredRole, jobTitle string) float64 {
	if desiredRole == "" {
		return 1.0
	}

	titleWords := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(jobTitle)) {
		titleWords[w] = struct{}{}
	}

	roleWords := strings.Fields(desiredRole)
	if len(roleWords) == 0 {
		return 1.0
	}

	common := 0
	for _, w := range roleWords {
		if _, ok := titleWords[w]; ok {
			common++
		}
	}
	score := float64(common) / float64(len(roleWords))
	if score > 1 {
		score = 1
	}
	return score
}

var _ StructuredMatcher = (*StubMatcher)(nil)
var _ StructuredMatcher = (*MercerService)(nil)
