// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read activity registry: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode activity registry: %w", err)
	}
	return &reg, nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// TaskTypes returns the registered task types, sorted.
func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.TaskType)
	}
	sort.Strings(out)
	return out
}

// Missing returns the task types that have no registry entry.
func (r *ActivityRegistry) Missing(taskTypes []string) []string {
	var out []string
	for _, tt := range taskTypes {
		if _, ok := r.Find(tt); !ok {
			out = append(out, tt)
		}
	}
	return out
}

// Validate checks that task types are unique, timeouts parse and every
// error code is one the workers can raise.
func (r *ActivityRegistry) Validate(knownCode func(string) bool) error {
	seen := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if a.TaskType == "" {
			return fmt.Errorf("activity %q has no taskType", a.ID)
		}
		if seen[a.TaskType] {
			return fmt.Errorf("taskType %q registered twice", a.TaskType)
		}
		seen[a.TaskType] = true

		if _, err := time.ParseDuration(a.Timeout); err != nil {
			return fmt.Errorf("activity %q: timeout %q: %w", a.ID, a.Timeout, err)
		}
		for _, code := range a.ErrorCodes {
			if knownCode != nil && !knownCode(code) {
				return fmt.Errorf("activity %q: unknown error code %q", a.ID, code)
			}
		}
	}
	return nil
}
