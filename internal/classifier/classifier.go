// Package classifier estimates how complex a free-text task is and which
// execution approach suits it. Everything here is pure and deterministic.
package classifier

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ShayCichocki/tandem/pkg/models"
)

// Score thresholds for complexity levels.
const (
	simpleMaxScore   = 3
	moderateMaxScore = 7
	complexMaxScore  = 12
)

// baseSteps is the step estimate for each complexity level before
// sequencing keywords are added.
var baseSteps = map[models.Complexity]int{
	models.ComplexitySimple:      1,
	models.ComplexityModerate:    3,
	models.ComplexityComplex:     5,
	models.ComplexityVeryComplex: 8,
}

// Classifier holds the pattern tables used to analyze task text.
// A Classifier is safe for concurrent use once configured.
type Classifier struct {
	domains        []Domain
	toolKeywords   []ToolKeyword
	highComplexity []*regexp.Regexp
	parallel       []*regexp.Regexp
	independence   []*regexp.Regexp
	collaboration  []*regexp.Regexp
	sequencing     []*regexp.Regexp
}

// New returns a classifier with the default tables.
func New() *Classifier {
	return &Classifier{
		domains:        defaultDomains(),
		toolKeywords:   defaultToolKeywords(),
		highComplexity: highComplexityPatterns,
		parallel:       parallelPatterns,
		independence:   independencePatterns,
		collaboration:  collaborationPatterns,
		sequencing:     sequencingPatterns,
	}
}

var defaultClassifier = New()

// Classify analyzes text with the default tables.
func Classify(text string) models.TaskAnalysis {
	return defaultClassifier.Classify(text)
}

// AddDomainKeywords extends an existing domain with extra keywords, or
// appends a new non-specialist domain at the end of the table.
// It must be called before the classifier is shared.
func (c *Classifier) AddDomainKeywords(domain string, keywords ...string) error {
	if domain == "" {
		return fmt.Errorf("domain name is required")
	}
	patterns, err := keywordPatterns(keywords...)
	if err != nil {
		return fmt.Errorf("compile keywords for %s: %w", domain, err)
	}
	for i := range c.domains {
		if c.domains[i].Name == domain {
			c.domains[i].Patterns = append(c.domains[i].Patterns, patterns...)
			return nil
		}
	}
	c.domains = append(c.domains, Domain{Name: domain, Patterns: patterns})
	return nil
}

// Domains returns the domain names in detection order.
func (c *Classifier) Domains() []string {
	names := make([]string, len(c.domains))
	for i, d := range c.domains {
		names[i] = d.Name
	}
	return names
}

// Classify analyzes text. It never fails: empty or unrecognized input
// yields a simple, domain-less analysis.
func (c *Classifier) Classify(text string) models.TaskAnalysis {
	analysis := models.TaskAnalysis{
		Domains:     []string{},
		ToolsNeeded: []string{},
	}

	tools := make(map[string]struct{})
	for _, d := range c.domains {
		if !matchAny(d.Patterns, text) {
			continue
		}
		analysis.Domains = append(analysis.Domains, d.Name)
		if d.Specialist {
			analysis.RequiresSpecialization = true
		}
		for _, t := range d.Tools {
			tools[t] = struct{}{}
		}
	}
	for _, tk := range c.toolKeywords {
		if matchAny(tk.Patterns, text) {
			tools[tk.Tool] = struct{}{}
		}
	}
	for t := range tools {
		analysis.ToolsNeeded = append(analysis.ToolsNeeded, t)
	}
	sort.Strings(analysis.ToolsNeeded)

	score := 2*len(analysis.Domains) +
		len(analysis.ToolsNeeded) +
		lengthBonus(text) +
		2*countMatching(c.highComplexity, text)
	analysis.Complexity = levelFor(score)

	analysis.ParallelPotential = matchAny(c.parallel, text) || matchAny(c.independence, text)
	analysis.CollaborationNeeded = matchAny(c.collaboration, text)
	analysis.EstimatedSteps = baseSteps[analysis.Complexity] + countOccurrences(c.sequencing, text)

	return analysis
}

// Score returns the raw complexity score for text. Useful for explaining
// a classification.
func (c *Classifier) Score(text string) int {
	a := c.Classify(text)
	return 2*len(a.Domains) + len(a.ToolsNeeded) + lengthBonus(text) + 2*countMatching(c.highComplexity, text)
}

func levelFor(score int) models.Complexity {
	switch {
	case score <= simpleMaxScore:
		return models.ComplexitySimple
	case score <= moderateMaxScore:
		return models.ComplexityModerate
	case score <= complexMaxScore:
		return models.ComplexityComplex
	default:
		return models.ComplexityVeryComplex
	}
}

func lengthBonus(text string) int {
	n := len(strings.Fields(text))
	switch {
	case n < 10:
		return 0
	case n < 20:
		return 1
	case n < 50:
		return 2
	default:
		return 3
	}
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// countMatching counts patterns with at least one hit.
func countMatching(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}

// countOccurrences counts every hit of every pattern.
func countOccurrences(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, p := range patterns {
		n += len(p.FindAllStringIndex(text, -1))
	}
	return n
}
