// internal/common/database/health.go
package database

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Pinger is anything whose connectivity can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health probes a named set of backends.
type Health struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealth returns a Health with a per-check timeout.
func NewHealth(timeout time.Duration) *Health {
	return &Health{checks: make(map[string]Pinger), timeout: timeout}
}

// Register adds a backend under name.
func (h *Health) Register(name string, p Pinger) {
	h.checks[name] = p
}

// Check pings every backend and returns one status per name ("ok" or the
// error text) plus an error when any failed.
func (h *Health) Check(ctx context.Context) (map[string]string, error) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(names))
	var failed []string
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.checks[name].Ping(cctx)
		cancel()
		if err != nil {
			status[name] = err.Error()
			failed = append(failed, name)
			continue
		}
		status[name] = "ok"
	}
	if len(failed) > 0 {
		return status, fmt.Errorf("unhealthy: %v", failed)
	}
	return status, nil
}
