package models

// WorkerStatus is a point-in-time snapshot of one worker in the pool.
type WorkerStatus struct {
	// Name is the pool slot the worker occupies.
	Name string `json:"name"`
	// Kind is the worker type, e.g. "specialist" or "generalist".
	Kind string `json:"kind"`
	// Alive reports whether the worker can accept work.
	Alive bool `json:"alive"`
	// ToolCount is the number of tools the worker can call.
	ToolCount int `json:"tool_count"`
	// Domains lists the domains the worker is specialized in.
	Domains []string `json:"domains,omitempty"`
	// Error is set when the worker could not be inspected.
	Error string `json:"error,omitempty"`
}
