package config

import (
	"os"
	"sync"
)

// Mercer is the external taxonomy-based job matcher. Mode "off" disables it,
// "remote" talks to the real API, "stub" uses the local development matcher.
type MercerConfig struct {
	Mode   string
	APIURL string
	APIKey string
}

var (
	mercerConfig *MercerConfig
	mercerOnce   sync.Once
)

func LoadMercerConfig() *MercerConfig {
	mercerOnce.Do(func() {
		mode := os.Getenv("MERCER_MODE")
		switch mode {
		case "remote", "stub":
		default:
			mode = "off"
		}
		apiURL := os.Getenv("MERCER_API_URL")
		if apiURL == "" {
			apiURL = "https://api.mercer.com/jobs"
		}
		mercerConfig = &MercerConfig{
			Mode:   mode,
			APIURL: apiURL,
			APIKey: os.Getenv("MERCER_API_KEY"),
		}
	})
	return mercerConfig
}
