// internal/workers/communication/send-notification/config.go
package sendnotification

import (
	"time"

	"loan-desk/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SenderID     string
	CountryCode  string
	AWSRegion    string
	Timeout      time.Duration
}

func LoadConfig(n config.NotificationConfig) *Config {
	cfg := &Config{
		EmailEnabled: n.Email.Enabled,
		SMSEnabled:   n.SMS.Enabled,
		FromEmail:    n.Email.FromEmail,
		SenderID:     n.SMS.SenderID,
		CountryCode:  n.SMS.CountryCode,
		AWSRegion:    n.AWS.Region,
		Timeout:      30 * time.Second,
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = "+92"
	}
	return cfg
}

// Enabled reports whether any channel is switched on.
func (c *Config) Enabled() bool {
	return c.EmailEnabled || c.SMSEnabled
}
