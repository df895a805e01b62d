package config

import (
	"os"
	"strconv"
	"sync"
)

type GeminiConfig struct {
	APIKey          string
	EmbeddingModel  string
	GenerationModel string
	EmbeddingDim    int
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		embModel := os.Getenv("GEMINI_EMBEDDING_MODEL")
		if embModel == "" {
			embModel = "gemini-embedding-001"
		}
		genModel := os.Getenv("GEMINI_GENERATION_MODEL")
		if genModel == "" {
			genModel = "gemini-2.5-flash"
		}
		dim, err := strconv.Atoi(os.Getenv("EMBEDDING_DIM"))
		if err != nil || dim <= 0 {
			dim = 3072
		}
		geminiConfig = &GeminiConfig{
			APIKey:          os.Getenv("GEMINI_API_KEY"),
			EmbeddingModel:  embModel,
			GenerationModel: genModel,
			EmbeddingDim:    dim,
		}
	})
	return geminiConfig
}
