// internal/workers/application/check-status/config.go
package checkstatus

import (
	"time"

	"loan-desk/internal/common/config"
)

type Config struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	KeyPrefix    string
}

func LoadConfig(cfg config.CacheConfig) *Config {
	c := &Config{
		CacheEnabled: cfg.Enabled,
		CacheTTL:     cfg.TTLDuration(),
		KeyPrefix:    cfg.KeyPrefix,
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "loan-desk:status:"
	}
	return c
}
