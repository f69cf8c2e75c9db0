// internal/workers/conversation/match-utterance/config.go
package matchutterance

import "loan-desk/internal/common/config"

type Config struct {
	UtterancesFile   string
	FallbackResponse string
}

func LoadConfig(cat config.CatalogConfig) *Config {
	cfg := &Config{
		UtterancesFile:   cat.UtterancesFile,
		FallbackResponse: cat.FallbackResponse,
	}
	if cfg.FallbackResponse == "" {
		cfg.FallbackResponse = "Sorry, I did not understand that."
	}
	return cfg
}
