package classifier

import (
	"regexp"
	"strings"
)

// Domain names, in detection order.
const (
	DomainResearch       = "research"
	DomainCoding         = "coding"
	DomainDataAnalysis   = "data_analysis"
	DomainWriting        = "writing"
	DomainWeb            = "web"
	DomainFileManagement = "file_management"
	DomainMath           = "math"
	DomainCommunication  = "communication"
	DomainPlanning       = "planning"
)

// Domain is one row of the domain table.
type Domain struct {
	Name string
	// Patterns are matched case-insensitively; any hit detects the domain.
	Patterns []*regexp.Regexp
	// Tools are implied whenever the domain is detected.
	Tools []string
	// Specialist reports whether a dedicated worker profile exists for the
	// domain. Detecting a specialist domain marks a task as requiring
	// specialization.
	Specialist bool
}

// ToolKeyword maps direct text hits to a tool name.
type ToolKeyword struct {
	Tool     string
	Patterns []*regexp.Regexp
}

// words compiles case-insensitive whole-word patterns. Each entry may itself
// be a regular expression fragment.
func words(fragments ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(fragments))
	for _, f := range fragments {
		out = append(out, regexp.MustCompile(`(?i)\b(?:`+f+`)\b`))
	}
	return out
}

// keywordPatterns compiles plain keywords, quoting regexp metacharacters.
func keywordPatterns(keywords ...string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(k) + `\b`)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func defaultDomains() []Domain {
	return []Domain{
		{
			Name:       DomainResearch,
			Patterns:   words(`research\w*`, `investigat\w*`, `stud(?:y|ies)`, `look up`, `find (?:out|information)`, `sources?`, `literature`, `survey`, `compare`),
			Tools:      []string{"web_search"},
			Specialist: true,
		},
		{
			Name:       DomainCoding,
			Patterns:   words(`code`, `coding`, `program\w*`, `function`, `implement\w*`, `debug\w*`, `refactor\w*`, `script`, `bug`, `compile`, `python`, `golang`, `javascript`, `api`),
			Tools:      []string{"shell", "file_write"},
			Specialist: true,
		},
		{
			Name:       DomainDataAnalysis,
			Patterns:   words(`data`, `dataset`, `statistic\w*`, `analy[sz]\w*`, `chart`, `csv`, `trends?`, `metrics`, `correlation`),
			Tools:      []string{"calculator", "database_query"},
			Specialist: true,
		},
		{
			Name:       DomainWriting,
			Patterns:   words(`write`, `writing`, `draft`, `essay`, `article`, `summar(?:y|ize|ise)`, `report`, `blog`, `proofread`),
			Tools:      []string{"file_write"},
			Specialist: true,
		},
		{
			Name:       DomainWeb,
			Patterns:   words(`website`, `web`, `url`, `browse`, `scrape`, `http`, `online`, `internet`, `webpage`),
			Tools:      []string{"web_fetch"},
			Specialist: true,
		},
		{
			Name:       DomainFileManagement,
			Patterns:   words(`files?`, `folders?`, `director(?:y|ies)`, `rename`, `move`, `copy`, `backup`),
			Tools:      []string{"list_dir", "file_read"},
			Specialist: true,
		},
		{
			Name:       DomainMath,
			Patterns:   append(words(`calculat\w*`, `compute`, `equation`, `math\w*`, `sum`, `integral`, `solve`, `percent\w*`), regexp.MustCompile(`\d+\s*[-+*/^]\s*\d+`)),
			Tools:      []string{"calculator"},
			Specialist: true,
		},
		{
			Name:       DomainCommunication,
			Patterns:   words(`e-?mail`, `send`, `message`, `notify`, `slack`, `reply`, `contact`, `announce\w*`),
			Tools:      []string{"send_message"},
			Specialist: true,
		},
		{
			Name:     DomainPlanning,
			Patterns: words(`plan`, `planning`, `schedule`, `roadmap`, `timeline`, `milestones?`, `strateg(?:y|ies)`),
		},
	}
}

func defaultToolKeywords() []ToolKeyword {
	return []ToolKeyword{
		{Tool: "web_search", Patterns: words(`search`, `google`, `look up`)},
		{Tool: "web_fetch", Patterns: words(`download`, `fetch`, `url`)},
		{Tool: "calculator", Patterns: words(`calculat\w*`, `compute`)},
		{Tool: "file_read", Patterns: words(`read`, `open`)},
		{Tool: "file_write", Patterns: words(`save`, `write to`)},
		{Tool: "shell", Patterns: words(`execute`, `run`, `command`)},
		{Tool: "send_message", Patterns: words(`e-?mail`, `send`)},
		{Tool: "database_query", Patterns: words(`sql`, `query`, `database`)},
		{Tool: "http_request", Patterns: words(`call`, `request`, `endpoint`)},
	}
}

var (
	highComplexityPatterns = words(`comprehensive`, `complex`, `multiple`, `end-to-end`, `in-depth`, `detailed`, `entire`, `across`, `architecture`, `optimi[sz]\w*`, `scal(?:e|able|ability)`, `thorough\w*`)
	parallelPatterns       = words(`in parallel`, `parallel`, `simultaneous\w*`, `concurrent\w*`, `at the same time`)
	independencePatterns   = words(`independent\w*`, `separately`, `each of`, `individually`, `respectively`)
	collaborationPatterns  = words(`coordinat\w*`, `collaborat\w*`, `together`, `integrat\w*`, `combine`, `work with`, `jointly`, `consensus`)
	sequencingPatterns     = words(`then`, `phases?`, `next`, `after that`, `finally`, `steps?`)
)
