// internal/workers/qualification/compute-vendor-qualification/config.go
package computevendorqualification

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
