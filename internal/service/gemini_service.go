package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/hirewise/matchengine/internal/apperr"
	"github.com/hirewise/matchengine/internal/config"
	"google.golang.org/genai"
)

type GeminiServiceInterface interface {
	Available() bool
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiService wraps the GenAI client behind the engine's embedding and
// generation contracts. A service constructed without an API key is a valid
// object that reports itself unavailable; callers degrade instead of failing.
type GeminiService struct {
	Client          *genai.Client
	EmbeddingModel  string
	GenerationModel string
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	RequestTimeout  time.Duration

	mu                sync.Mutex
	consecutiveErrors int
	circuitBreakerMax int
}

// NewGeminiService is the single construction point for the shared client.
// It is called once from main; everything downstream receives the instance.
func NewGeminiService(ctx context.Context) (*GeminiService, error) {
	cfg := config.LoadGeminiConfig()

	s := &GeminiService{
		EmbeddingModel:    cfg.EmbeddingModel,
		GenerationModel:   cfg.GenerationModel,
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		RequestTimeout:    60 * time.Second,
		circuitBreakerMax: 5,
	}

	if cfg.APIKey == "" {
		log.Println("GEMINI_API_KEY not set, AI features run in degraded mode")
		return s, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	s.Client = client
	return s, nil
}

func (s *GeminiService) Available() bool {
	return s != nil && s.Client != nil
}

// GenerateEmbedding returns a unit-normalized vector for the text, so
// downstream similarity reduces to a dot product.
func (s *GeminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if !s.Available() {
		return nil, apperr.Unavailablef("embedding model")
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, apperr.Validationf("text for embedding cannot be empty")
	}
	if len(trimmed) > 10000 {
		log.Printf("Warning: text length %d exceeds recommended limit, truncating...", len(trimmed))
		trimmed = trimmed[:10000]
	}

	if err := s.checkCircuitBreaker(); err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	content := []*genai.Content{genai.NewContentFromText(trimmed, genai.RoleUser)}

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := s.waitBackoff(timeoutCtx, attempt, "GenerateEmbedding"); err != nil {
				return nil, err
			}
		}

		result, err := s.Client.Models.EmbedContent(timeoutCtx, s.EmbeddingModel, content, nil)
		if err == nil {
			s.recordSuccess()
			embedding, err := validateEmbeddingResponse(result)
			if err != nil {
				return nil, fmt.Errorf("invalid embedding response: %w", err)
			}
			return normalize(embedding), nil
		}

		lastErr = err
		if !isRetryableError(err) {
			s.recordFailure()
			return nil, fmt.Errorf("generate embedding failed: %w", err)
		}
		log.Printf("Retryable error on attempt %d: %v", attempt+1, err)
	}

	s.recordFailure()
	return nil, fmt.Errorf("max retries (%d) exceeded for GenerateEmbedding: %w", s.MaxRetries, lastErr)
}

// GenerateText runs the prompt against the configured generation model and
// returns the first candidate's text.
func (s *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if !s.Available() {
		return "", apperr.Unavailablef("generation model")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", apperr.Validationf("prompt cannot be empty")
	}

	if err := s.checkCircuitBreaker(); err != nil {
		return "", err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	}

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := s.waitBackoff(timeoutCtx, attempt, "GenerateText"); err != nil {
				return "", err
			}
		}

		result, err := s.Client.Models.GenerateContent(timeoutCtx, s.GenerationModel, genai.Text(prompt), genConfig)
		if err == nil {
			s.recordSuccess()
			text := strings.TrimSpace(result.Text())
			if text == "" {
				return "", fmt.Errorf("model returned empty response")
			}
			return text, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			s.recordFailure()
			return "", fmt.Errorf("generate content failed: %w", err)
		}
		log.Printf("Retryable error on attempt %d: %v", attempt+1, err)
	}

	s.recordFailure()
	return "", fmt.Errorf("max retries (%d) exceeded for GenerateText: %w", s.MaxRetries, lastErr)
}

func (s *GeminiService) waitBackoff(ctx context.Context, attempt int, op string) error {
	delay := s.calculateBackoff(attempt)
	log.Printf("Retry attempt %d/%d for %s after %v", attempt, s.MaxRetries, op, delay)
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context timeout during retry: %w", ctx.Err())
	}
}

func (s *GeminiService) calculateBackoff(attempt int) time.Duration {
	delay := s.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > s.MaxDelay {
		delay = s.MaxDelay
	}
	jitter := time.Duration(float64(delay) * 0.25)
	return delay - jitter/2 + time.Duration(float64(jitter)*0.5)
}

func (s *GeminiService) checkCircuitBreaker() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consecutiveErrors >= s.circuitBreakerMax {
		return apperr.Unavailablef("circuit breaker open: %d consecutive errors", s.consecutiveErrors)
	}
	return nil
}

func (s *GeminiService) recordSuccess() {
	s.mu.Lock()
	s.consecutiveErrors = 0
	s.mu.Unlock()
}

func (s *GeminiService) recordFailure() {
	s.mu.Lock()
	s.consecutiveErrors++
	s.mu.Unlock()
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "context canceled") ||
		strings.Contains(errMsg, "context deadline exceeded") {
		return false
	}

	if apiErr, ok := err.(*genai.APIError); ok {
		switch apiErr.Code {
		case 429: // Rate limit
			return true
		case 500, 502, 503, 504: // Server errors
			return true
		case 400, 401, 403, 404: // Client errors
			return false
		}
	}

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF") {
		return true
	}

	return false
}

func validateEmbeddingResponse(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	embedding := resp.Embeddings[0].Values
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding vector is empty")
	}

	for i, val := range embedding {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("invalid embedding value at index %d: %v", i, val)
		}
	}
	return embedding, nil
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
