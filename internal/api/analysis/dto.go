package analysis

// HealthResponse mirrors the landmark provider status for the health
// endpoint.
type HealthResponse struct {
	Initialized bool   `json:"initialized"`
	Backend     string `json:"backend,omitempty"`
	Error       string `json:"error,omitempty"`
}
