// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "loan-desk/internal/common/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, then configs/config.<APP_ENVIRONMENT>.yaml,
// then the environment. A missing base file is not an error: defaults apply.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return build(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

// Default returns the built-in configuration with no file or environment input.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "loan-desk")
	v.SetDefault("app.chatbot_name", "LoanBot")
	v.SetDefault("app.environment", "development")
	v.SetDefault("storage.records_file", "data/applications.txt")
	v.SetDefault("storage.documents_dir", "data/documents")
	v.SetDefault("storage.delimiter", "|")
	v.SetDefault("storage.lock_file", "")
	v.SetDefault("storage.id_baseline", 1000)
	v.SetDefault("session.exit_sentinel", "exit")
	v.SetDefault("catalog.home_file", "data/catalog/home.txt")
	v.SetDefault("catalog.car_file", "data/catalog/car.txt")
	v.SetDefault("catalog.scooter_file", "data/catalog/scooter.txt")
	v.SetDefault("catalog.personal_file", "data/catalog/personal.txt")
	v.SetDefault("catalog.utterances_file", "data/utterances.txt")
	v.SetDefault("catalog.fallback_response", "Sorry, I did not understand that. Type 'help' to see what I can do.")
	v.SetDefault("rules.unemployed_ceiling", 100000)
	v.SetDefault("rules.retired_warning_threshold", 1000000)
	v.SetDefault("rules.debt_to_income_warning_ratio", 0.5)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 300)
	v.SetDefault("cache.key_prefix", "loan-desk:status:")
	v.SetDefault("audit.enabled", false)
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "loan_desk")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.textfile_path", "")
	v.SetDefault("notifications.email.enabled", false)
	v.SetDefault("notifications.email.from_email", "")
	v.SetDefault("notifications.sms.enabled", false)
	v.SetDefault("notifications.sms.country_code", "+92")
	v.SetDefault("notifications.aws.region", "us-east-1")
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, apperrors.NewConfigInvalidError(err.Error())
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found. It stays silent: stdout belongs to
// the console dialogue.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "loan-desk"
	}
	if cfg.App.ChatbotName == "" {
		cfg.App.ChatbotName = "LoanBot"
	}

	if cfg.Storage.RecordsFile == "" {
		cfg.Storage.RecordsFile = "data/applications.txt"
	}
	if cfg.Storage.DocumentsDir == "" {
		cfg.Storage.DocumentsDir = "data/documents"
	}
	if cfg.Storage.Delimiter == "" {
		cfg.Storage.Delimiter = "|"
	}
	if cfg.Storage.IDBaseline == 0 {
		cfg.Storage.IDBaseline = 1000
	}

	if cfg.Session.ExitSentinel == "" {
		cfg.Session.ExitSentinel = "exit"
	}

	if cfg.Catalog.HomeFile == "" {
		cfg.Catalog.HomeFile = "data/catalog/home.txt"
	}
	if cfg.Catalog.CarFile == "" {
		cfg.Catalog.CarFile = "data/catalog/car.txt"
	}
	if cfg.Catalog.ScooterFile == "" {
		cfg.Catalog.ScooterFile = "data/catalog/scooter.txt"
	}
	if cfg.Catalog.PersonalFile == "" {
		cfg.Catalog.PersonalFile = "data/catalog/personal.txt"
	}
	if cfg.Catalog.UtterancesFile == "" {
		cfg.Catalog.UtterancesFile = "data/utterances.txt"
	}
	if cfg.Catalog.FallbackResponse == "" {
		cfg.Catalog.FallbackResponse = "Sorry, I did not understand that. Type 'help' to see what I can do."
	}

	if cfg.Rules.UnemployedCeiling == 0 {
		cfg.Rules.UnemployedCeiling = 100000
	}
	if cfg.Rules.RetiredWarningThreshold == 0 {
		cfg.Rules.RetiredWarningThreshold = 1000000
	}
	if cfg.Rules.DebtToIncomeWarningRatio == 0 {
		cfg.Rules.DebtToIncomeWarningRatio = 0.5
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 5
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 300
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "loan-desk:status:"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Notifications.SMS.CountryCode == "" {
		cfg.Notifications.SMS.CountryCode = "+92"
	}
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "us-east-1"
	}
}

// reservedDelimiter reports whether r can occur inside a stored value: names,
// DD-MM-YYYY dates, money, e-mail addresses, file paths and COPY_FAILED markers.
func reservedDelimiter(r rune) bool {
	if unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsControl(r) {
		return true
	}
	return strings.ContainsRune(",-.:@/\\_", r)
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Storage.RecordsFile == "" {
		return fmt.Errorf("storage.records_file is required")
	}
	if cfg.Storage.DocumentsDir == "" {
		return fmt.Errorf("storage.documents_dir is required")
	}
	if utf8.RuneCountInString(cfg.Storage.Delimiter) != 1 {
		return fmt.Errorf("storage.delimiter must be exactly one character, got %q", cfg.Storage.Delimiter)
	}
	if reservedDelimiter(cfg.Storage.DelimiterRune()) {
		return fmt.Errorf("storage.delimiter %q is reserved", cfg.Storage.Delimiter)
	}
	if strings.TrimSpace(cfg.Session.ExitSentinel) == "" {
		return fmt.Errorf("session.exit_sentinel must not be blank")
	}
	if cfg.Storage.IDBaseline < 0 {
		return fmt.Errorf("storage.id_baseline must not be negative")
	}

	if cfg.Audit.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required when audit is enabled")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required when audit is enabled")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required when audit is enabled")
		}
	}

	if cfg.Cache.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when cache is enabled")
	}

	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.FromEmail == "" {
		return fmt.Errorf("notifications.email.from_email is required when email is enabled")
	}

	return nil
}
