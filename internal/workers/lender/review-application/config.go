// internal/workers/lender/review-application/config.go
package reviewapplication

import "time"

type Config struct {
	// RequireRejectionReason makes the interactive review insist on a reason
	// before rejecting.
	RequireRejectionReason bool
	NotifyTimeout          time.Duration
}

func LoadConfig() *Config {
	return &Config{
		NotifyTimeout: 30 * time.Second,
	}
}
