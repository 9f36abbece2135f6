// internal/workers/qualification/record-qualification-evaluation/config.go
package recordqualificationevaluation

import "time"

type Config struct {
	Timeout time.Duration
	// IndexTimeout bounds the search index update, which may fail without
	// failing the job.
	IndexTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		IndexTimeout: 5 * time.Second,
	}
}
