// Package matching holds the pure scoring and explanation logic for
// candidate-to-job matches. It has no I/O so ranking behavior stays
// deterministic and directly testable.
package matching

import (
	"fmt"
	"sort"
	"strings"
)

// Weights for blending semantic similarity with required-skill coverage.
// The blend is linear, so the score is monotone in both inputs and stays
// inside [0,1] as long as both inputs do.
const (
	similarityWeight = 0.7
	overlapWeight    = 0.3
)

type MatchResult struct {
	JobID         string   `json:"job_id"`
	JobTitle      string   `json:"job_title"`
	MatchScore    float64  `json:"match_score"`
	MatchReasons  []string `json:"match_reasons"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
}

// NormalizeSkills lower-cases and trims skills and drops empties and
// duplicates. The result is sorted for stable output.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Overlap splits the job's required skills into those the candidate has and
// those they lack. Comparison is case-insensitive on trimmed values.
func Overlap(candidateSkills, requiredSkills []string) (matched, missing []string) {
	candidate := make(map[string]struct{})
	for _, s := range NormalizeSkills(candidateSkills) {
		candidate[s] = struct{}{}
	}

	matched = []string{}
	missing = []string{}
	for _, s := range NormalizeSkills(requiredSkills) {
		if _, ok := candidate[s]; ok {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}
	return matched, missing
}

// Score blends cosine similarity with the required-skill coverage ratio.
// Negative similarity (near-orthogonal vectors) is treated as zero.
func Score(similarity float64, matchedCount, requiredCount int) float64 {
	if requiredCount < 1 {
		requiredCount = 1
	}
	ratio := float64(matchedCount) / float64(requiredCount)
	return Clamp01(similarityWeight*Clamp01(similarity) + overlapWeight*ratio)
}

// Reasons builds the ordered human-readable explanation for a match:
// similarity tier first, then skill coverage, then the job level.
func Reasons(score float64, matchedCount int, level string) []string {
	reasons := []string{}

	switch {
	case score > 0.8:
		reasons = append(reasons, "Excellent semantic match")
	case score > 0.6:
		reasons = append(reasons, "Strong semantic match")
	case score > 0.4:
		reasons = append(reasons, "Moderate semantic match")
	default:
		reasons = append(reasons, "Weak semantic match")
	}

	if matchedCount > 0 {
		reasons = append(reasons, fmt.Sprintf("Matches %d required skills", matchedCount))
	}

	if level != "" {
		reasons = append(reasons, fmt.Sprintf("Level: %s", level))
	}

	return reasons
}

// Sort orders results by descending score, ties broken by job_id ascending.
func Sort(results []MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].MatchScore != results[j].MatchScore {
			return results[i].MatchScore > results[j].MatchScore
		}
		return results[i].JobID < results[j].JobID
	})
}

// Truncate caps the result list at limit without reordering.
func Truncate(results []MatchResult, limit int) []MatchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
