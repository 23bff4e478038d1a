package classifier

import (
	"fmt"

	"github.com/ShayCichocki/tandem/pkg/models"
)

// Recommendation is an approach together with the rule that chose it.
type Recommendation struct {
	Approach models.Approach `json:"approach"`
	Rule     int             `json:"rule"`
	Reason   string          `json:"reason"`
}

// Recommend picks the execution approach for an analysis.
func Recommend(a models.TaskAnalysis) models.Approach {
	return Explain(a).Approach
}

// Explain evaluates the decision table in priority order and reports the
// first rule that applies. Every analysis matches exactly one rule.
func Explain(a models.TaskAnalysis) Recommendation {
	domains := len(a.Domains)

	switch {
	case a.Complexity == models.ComplexitySimple && domains <= 1 && !a.RequiresSpecialization:
		return Recommendation{models.ApproachSingle, 1,
			"simple task with at most one domain and no specialist needed"}
	case a.ParallelPotential && !a.CollaborationNeeded && domains > 1:
		return Recommendation{models.ApproachParallel, 2,
			fmt.Sprintf("%d independent domains can run concurrently", domains)}
	case a.CollaborationNeeded:
		return Recommendation{models.ApproachCollaborative, 3,
			"task asks for coordination between workers"}
	case a.Complexity >= models.ComplexityComplex || domains > 1:
		return Recommendation{models.ApproachSequential, 4,
			fmt.Sprintf("%s task spanning %d domains runs step by step", a.Complexity, domains)}
	default:
		return Recommendation{models.ApproachSingle, 5,
			"no rule called for decomposition"}
	}
}
