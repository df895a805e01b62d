package config

import (
	"os"
	"sync"
)

type VectorConfig struct {
	Store string // "postgres" or "memory"
}

var (
	vectorConfig *VectorConfig
	vectorOnce   sync.Once
)

func LoadVectorConfig() *VectorConfig {
	vectorOnce.Do(func() {
		store := os.Getenv("VECTOR_STORE")
		if store != "memory" {
			store = "postgres"
		}
		vectorConfig = &VectorConfig{Store: store}
	})
	return vectorConfig
}
