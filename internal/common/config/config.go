// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct. It is built once at
// startup and passed to every component that needs it.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Session       SessionConfig      `mapstructure:"session"`
	Catalog       CatalogConfig      `mapstructure:"catalog"`
	Rules         RulesConfig        `mapstructure:"rules"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Cache         CacheConfig        `mapstructure:"cache"`
	Audit         AuditConfig        `mapstructure:"audit"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// --- Core App Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	ChatbotName string `mapstructure:"chatbot_name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// StorageConfig locates the record file and the managed document directory.
type StorageConfig struct {
	RecordsFile  string `mapstructure:"records_file"`
	DocumentsDir string `mapstructure:"documents_dir"`
	Delimiter    string `mapstructure:"delimiter"`
	LockFile     string `mapstructure:"lock_file"`
	IDBaseline   int    `mapstructure:"id_baseline"`
}

// DelimiterRune returns the configured single-character delimiter.
func (s StorageConfig) DelimiterRune() rune {
	for _, r := range s.Delimiter {
		return r
	}
	return '|'
}

// LockPath returns the lock file, defaulting to "<records>.lock".
func (s StorageConfig) LockPath() string {
	if s.LockFile != "" {
		return s.LockFile
	}
	return s.RecordsFile + ".lock"
}

type SessionConfig struct {
	ExitSentinel string `mapstructure:"exit_sentinel"`
}

// CatalogConfig points at the read-only product tables and the utterance file.
type CatalogConfig struct {
	HomeFile         string `mapstructure:"home_file"`
	CarFile          string `mapstructure:"car_file"`
	ScooterFile      string `mapstructure:"scooter_file"`
	PersonalFile     string `mapstructure:"personal_file"`
	UtterancesFile   string `mapstructure:"utterances_file"`
	FallbackResponse string `mapstructure:"fallback_response"`
}

// Files maps loan type to its catalog table path.
func (c CatalogConfig) Files() map[string]string {
	return map[string]string{
		"home":     c.HomeFile,
		"car":      c.CarFile,
		"scooter":  c.ScooterFile,
		"personal": c.PersonalFile,
	}
}

type RulesConfig struct {
	UnemployedCeiling        float64 `mapstructure:"unemployed_ceiling"`
	RetiredWarningThreshold  float64 `mapstructure:"retired_warning_threshold"`
	DebtToIncomeWarningRatio float64 `mapstructure:"debt_to_income_warning_ratio"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig controls the status-check cache kept in Redis.
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	TTL       int    `mapstructure:"ttl"` // seconds
	KeyPrefix string `mapstructure:"key_prefix"`
}

// TTLDuration returns the cache TTL as a time.Duration.
func (c CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// AuditConfig enables the Postgres audit log.
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TextfilePath string `mapstructure:"textfile_path"`
}

// NotificationConfig holds settings for the send-notification worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled     bool   `mapstructure:"enabled"`
		SenderID    string `mapstructure:"sender_id"`
		CountryCode string `mapstructure:"country_code"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}
