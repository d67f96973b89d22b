package email

import (
	"time"

	"github.com/Alijeyrad/clinic_ledger/config"
)

// Config holds email service configuration
type Config struct {
	Enabled bool
	From    string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	// SMTPUseTLS selects implicit TLS (port 465). Otherwise gomail upgrades
	// with STARTTLS when the server offers it.
	SMTPUseTLS  bool
	SMTPTimeout time.Duration

	AppName string
}

// FromCentralConfig converts central config.EmailConfig to package Config
func FromCentralConfig(c config.EmailConfig) Config {
	timeout := time.Duration(c.SMTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	port := c.SMTP.Port
	if port == 0 {
		port = 587
	}
	return Config{
		Enabled:      c.Enabled,
		From:         c.From,
		SMTPHost:     c.SMTP.Host,
		SMTPPort:     port,
		SMTPUsername: c.SMTP.Username,
		SMTPPassword: c.SMTP.Password,
		SMTPUseTLS:   c.SMTP.UseTLS,
		SMTPTimeout:  timeout,
		AppName:      "Clinic Ledger",
	}
}
