// internal/workers/qualification/check-document-expiry/config.go
package checkdocumentexpiry

import "time"

type Config struct {
	Timeout time.Duration
	// WarningDays is how far ahead a document counts as expiring soon.
	WarningDays  int
	Location     *time.Location
	EmailEnabled bool
	SMSEnabled   bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      20 * time.Second,
		WarningDays:  30,
		Location:     time.Local,
		EmailEnabled: true,
		SMSEnabled:   true,
	}
}
