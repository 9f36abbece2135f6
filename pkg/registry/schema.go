// pkg/registry/schema.go
package registry

// ActivityRegistry describes the job types this service offers to process
// designers.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Version     string `json:"version"`
	TaskType    string `json:"taskType"`
	// InputSchema names the embedded JSON schema checked at the job boundary.
	InputSchema string   `json:"inputSchema,omitempty"`
	Inputs      []string `json:"inputs"`
	Outputs     []string `json:"outputs"`
	ErrorCodes  []string `json:"errorCodes"`
	Timeout     string   `json:"timeout"`
	Retries     int      `json:"retries"`
	Tags        []string `json:"tags,omitempty"`
}
