package models

// Complexity is the ordinal difficulty estimate of a task.
type Complexity int

const (
	ComplexitySimple Complexity = iota
	ComplexityModerate
	ComplexityComplex
	ComplexityVeryComplex
)

// String returns the wire name of the complexity level.
func (c Complexity) String() string {
	switch c {
	case ComplexitySimple:
		return "simple"
	case ComplexityModerate:
		return "moderate"
	case ComplexityComplex:
		return "complex"
	case ComplexityVeryComplex:
		return "very_complex"
	default:
		return "unknown"
	}
}

// Valid returns true if the complexity is a known level.
func (c Complexity) Valid() bool {
	return c >= ComplexitySimple && c <= ComplexityVeryComplex
}

// MarshalText encodes the complexity by name.
func (c Complexity) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseComplexity returns the level for a wire name, defaulting to simple.
func ParseComplexity(s string) Complexity {
	switch s {
	case "moderate":
		return ComplexityModerate
	case "complex":
		return ComplexityComplex
	case "very_complex":
		return ComplexityVeryComplex
	default:
		return ComplexitySimple
	}
}

// Approach is the execution strategy chosen for a task.
type Approach string

const (
	// ApproachSingle runs the whole task on one worker.
	ApproachSingle Approach = "single"
	// ApproachSequential runs one subtask per domain, in order.
	ApproachSequential Approach = "sequential"
	// ApproachParallel runs independent subtasks concurrently.
	ApproachParallel Approach = "parallel"
	// ApproachCollaborative currently runs the sequential path.
	ApproachCollaborative Approach = "collaborative"
)

// Valid returns true if the approach is a known value.
func (a Approach) Valid() bool {
	switch a {
	case ApproachSingle, ApproachSequential, ApproachParallel, ApproachCollaborative:
		return true
	default:
		return false
	}
}

// TaskAnalysis is the result of classifying a task description.
type TaskAnalysis struct {
	Complexity             Complexity `json:"complexity"`
	Domains                []string   `json:"domains"`
	EstimatedSteps         int        `json:"estimated_steps"`
	RequiresSpecialization bool       `json:"requires_specialization"`
	ParallelPotential      bool       `json:"parallel_potential"`
	CollaborationNeeded    bool       `json:"collaboration_needed"`
	ToolsNeeded            []string   `json:"tools_needed"`
}

// HasDomain reports whether the analysis detected the given domain.
func (a TaskAnalysis) HasDomain(domain string) bool {
	for _, d := range a.Domains {
		if d == domain {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with the receiver.
func (a TaskAnalysis) Clone() TaskAnalysis {
	c := a
	c.Domains = append([]string(nil), a.Domains...)
	c.ToolsNeeded = append([]string(nil), a.ToolsNeeded...)
	return c
}

// UnmarshalText decodes a complexity name written by MarshalText.
func (c *Complexity) UnmarshalText(text []byte) error {
	*c = ParseComplexity(string(text))
	return nil
}
