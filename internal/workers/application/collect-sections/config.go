// internal/workers/application/collect-sections/config.go
package collectsections

import (
	"loan-desk/internal/common/config"
	"loan-desk/internal/models"
)

type Config struct {
	ChatbotName string
	Rules       models.Rules
	// MaxExistingLoans bounds how many existing loans one applicant may list.
	MaxExistingLoans int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		ChatbotName: cfg.App.ChatbotName,
		Rules: models.Rules{
			UnemployedCeiling:        cfg.Rules.UnemployedCeiling,
			RetiredWarningThreshold:  cfg.Rules.RetiredWarningThreshold,
			DebtToIncomeWarningRatio: cfg.Rules.DebtToIncomeWarningRatio,
		},
		MaxExistingLoans: 10,
	}
}
