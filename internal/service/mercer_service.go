package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hirewise/matchengine/internal/apperr"
	"github.com/hirewise/matchengine/internal/config"
	"github.com/hirewise/matchengine/internal/dto"
	"github.com/tidwall/gjson"
)

const healthCacheTTL = 30 * time.Second

// MercerService talks to the remote Mercer job library API. The health
// probe result is cached briefly so Available stays cheap on the hot path.
type MercerService struct {
	client *resty.Client
	apiKey string

	mu          sync.Mutex
	lastProbe   time.Time
	lastHealthy bool
}

func NewMercerService() *MercerService {
	cfg := config.LoadMercerConfig()
	client := resty.New().
		SetBaseURL(cfg.APIURL).
		SetTimeout(15 * time.Second)
	return &MercerService{
		client: client,
		apiKey: cfg.APIKey,
	}
}

// Available probes the remote health endpoint. Missing credentials or an
// unreachable API both read as "absent"; the caller falls back to semantic
// matching.
func (s *MercerService) Available() bool {
	if s == nil || s.apiKey == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.lastProbe) < healthCacheTTL {
		return s.lastHealthy
	}

	resp, err := s.client.R().
		SetHeader("Authorization", "Bearer "+s.apiKey).
		Get("/health")

	s.lastProbe = time.Now()
	s.lastHealthy = err == nil && resp.IsSuccess()
	if !s.lastHealthy {
		log.Printf("Mercer health probe failed: err=%v status=%v", err, resp.StatusCode())
	}
	return s.lastHealthy
}

func (s *MercerService) Match(ctx context.Context, candidate dto.CandidateProfile, jobIDs []string, topN int) ([]StructuredMatch, error) {
	payload := map[string]any{
		"candidate": map[string]any{
			"skills": candidate.Skills,
			"experience": map[string]any{
				"years":   candidate.YearsOfExperience,
				"summary": candidate.ExperienceSummary,
			},
			"education": candidate.Education,
			"role":      candidate.DesiredRole,
			"location":  candidate.Location,
		},
		"job_ids": jobIDs,
		"top_n":   topN,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+s.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post("/match")
	if err != nil {
		return nil, fmt.Errorf("mercer match request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, apperr.Unavailablef("mercer match returned HTTP %d", resp.StatusCode())
	}

	return parseMercerMatches(resp.String()), nil
}

// parseMercerMatches pulls matches out of the response with gjson so minor
// schema drift (id vs job_id, title vs job_title) does not break the caller.
func parseMercerMatches(body string) []StructuredMatch {
	matches := []StructuredMatch{}

	gjson.Get(body, "matches").ForEach(func(_, m gjson.Result) bool {
		jobID := m.Get("job_id").String()
		if jobID == "" {
			jobID = m.Get("id").String()
		}
		title := m.Get("job_title").String()
		if title == "" {
			title = m.Get("title").String()
		}
		if title == "" {
			title = "Unknown"
		}

		details := map[string]string{}
		m.Get("details").ForEach(func(k, v gjson.Result) bool {
			details[k.String()] = v.String()
			return true
		})

		var competencies map[string]float64
		if comp := m.Get("competency_scores"); comp.Exists() {
			competencies = map[string]float64{}
			comp.ForEach(func(k, v gjson.Result) bool {
				competencies[k.String()] = v.Float()
				return true
			})
		}

		gaps := []string{}
		m.Get("skill_gaps").ForEach(func(_, v gjson.Result) bool {
			gaps = append(gaps, v.String())
			return true
		})

		matches = append(matches, StructuredMatch{
			JobID:            jobID,
			JobTitle:         title,
			Score:            m.Get("score").Float(),
			Details:          details,
			CompetencyScores: competencies,
			SkillGaps:        gaps,
		})
		return true
	})

	return matches
}
