// internal/workers/qualification/resolve-mandatory-documents/config.go
package resolvemandatorydocuments

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
