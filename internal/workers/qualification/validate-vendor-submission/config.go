// internal/workers/qualification/validate-vendor-submission/config.go
package validatevendorsubmission

import "time"

type Config struct {
	Timeout time.Duration
	// Location is the zone whose midnight decides document expiry.
	Location *time.Location
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  10 * time.Second,
		Location: time.Local,
	}
}
