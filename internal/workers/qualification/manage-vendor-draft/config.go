// internal/workers/qualification/manage-vendor-draft/config.go
package managevendordraft

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
