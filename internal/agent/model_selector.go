package agent

import (
	"strings"

	"github.com/ShayCichocki/tandem/internal/classifier"
	"github.com/ShayCichocki/tandem/pkg/models"
)

// Models an API worker chooses between when its profile pins none.
const (
	ModelHaiku  = "claude-3-5-haiku-20241022"
	ModelSonnet = "claude-sonnet-4-20250514"
	ModelOpus   = "claude-opus-4-5-20251101"
)

// Explicit hints in the task text override the complexity estimate.
var (
	lightHints = []string{"quick", "briefly", "one-liner", "typo"}
	heavyHints = []string{"in-depth", "thorough", "architecture", "deep dive"}
)

// SelectModel picks a model for description. Light hints win over heavy
// hints. Without hints the classifier's complexity decides: simple tasks run
// on haiku, complex and very complex ones on opus, the rest on fallback.
func SelectModel(description, fallback string) string {
	text := strings.ToLower(description)
	switch {
	case containsAny(text, lightHints):
		return ModelHaiku
	case containsAny(text, heavyHints):
		return ModelOpus
	}
	return modelFor(classifier.Classify(description).Complexity, fallback)
}

func modelFor(c models.Complexity, fallback string) string {
	switch {
	case c == models.ComplexitySimple:
		return ModelHaiku
	case c >= models.ComplexityComplex:
		return ModelOpus
	default:
		return fallback
	}
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
