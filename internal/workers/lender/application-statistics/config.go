// internal/workers/lender/application-statistics/config.go
package applicationstatistics

type Config struct {
	// CountIncomplete includes in-progress checkpoints in the totals.
	CountIncomplete bool
}

func LoadConfig() *Config {
	return &Config{CountIncomplete: true}
}
