package workflow

import (
	"regexp"
	"strings"

	"github.com/ShayCichocki/tandem/pkg/models"
)

// GenericToolName is the descriptor used when no specific tool is recognized.
const GenericToolName = "generic_tool"

var toolVerbs = regexp.MustCompile(`(?i)\b(?:search|find|look up|download|fetch|query|send|e-?mail|compute|calculate|read|write|save|open|call|request|execute|run|list)\b`)

// ClassifyStep reports whether a step needs a tool. Steps that start with or
// mention an operational verb are tool steps; everything else is generic.
func ClassifyStep(text string) models.StepKind {
	if toolVerbs.MatchString(text) {
		return models.StepKindTool
	}
	return models.StepKindGeneric
}

// ToolCallSpec is a tool name and its arguments extracted from step text.
type ToolCallSpec struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

type extractor struct {
	verb  *regexp.Regexp
	build func(text, rest string) ToolCallSpec
}

var (
	urlPattern   = regexp.MustCompile(`https?://[^\s"'<>]+`)
	pathPattern  = regexp.MustCompile(`(?:[\w.-]*/)*[\w-]+\.[A-Za-z0-9]{1,8}\b`)
	dirPattern   = regexp.MustCompile(`(?:\.{1,2}|~)?/[\w./-]*|[\w.-]+/`)
	emailPattern = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	exprPattern  = regexp.MustCompile(`[-+*/().\d\s^%]*\d[-+*/().\d\s^%]*[-+*/^%][-+*/().\d\s^%]*\d[)\s]*`)
	quoted       = regexp.MustCompile("[`\"']([^`\"']+)[`\"']")
	leadingFor   = regexp.MustCompile(`(?i)^(?:for|about|on|the|a|an)\s+`)
)

func verb(fragment string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + fragment + `)\b`)
}

// extractors are tried by earliest verb position in the step text; ties go
// to the earlier entry.
var extractors = []extractor{
	{verb(`search|find|look up`), func(text, rest string) ToolCallSpec {
		return call("web_search", "query", cleanQuery(rest, text))
	}},
	{verb(`download|fetch`), func(text, rest string) ToolCallSpec {
		return call("web_fetch", "url", firstOr(urlPattern, text, rest))
	}},
	{verb(`read|open`), func(text, rest string) ToolCallSpec {
		return call("file_read", "path", firstOr(pathPattern, text, rest))
	}},
	{verb(`write|save`), func(text, rest string) ToolCallSpec {
		spec := call("file_write", "path", firstOr(pathPattern, text, "output.txt"))
		spec.Arguments["content"] = rest
		return spec
	}},
	{verb(`compute|calculate`), func(text, rest string) ToolCallSpec {
		return call("calculator", "expression", strings.TrimSpace(firstOr(exprPattern, text, rest)))
	}},
	{verb(`send|e-?mail`), func(text, rest string) ToolCallSpec {
		spec := call("send_message", "message", rest)
		if to := emailPattern.FindString(text); to != "" {
			spec.Arguments["recipient"] = to
		}
		return spec
	}},
	{verb(`query`), func(text, rest string) ToolCallSpec {
		return call("database_query", "query", rest)
	}},
	{verb(`call|request`), func(text, rest string) ToolCallSpec {
		return call("http_request", "url", firstOr(urlPattern, text, rest))
	}},
	{verb(`list`), func(text, _ string) ToolCallSpec {
		return call("list_dir", "path", firstOr(dirPattern, text, "."))
	}},
	{verb(`execute|run`), func(text, rest string) ToolCallSpec {
		cmd := rest
		if m := quoted.FindStringSubmatch(text); m != nil {
			cmd = m[1]
		}
		return call("shell", "command", cmd)
	}},
}

// ExtractToolCall guesses a tool call from step text. Text that matches no
// known verb yields GenericToolName with the whole text as its task.
func ExtractToolCall(text string) ToolCallSpec {
	text = strings.TrimSpace(text)
	best := -1
	bestPos := len(text) + 1
	var bestEnd int
	for i, ex := range extractors {
		loc := ex.verb.FindStringIndex(text)
		if loc == nil || loc[0] >= bestPos {
			continue
		}
		best, bestPos, bestEnd = i, loc[0], loc[1]
	}
	if best < 0 {
		return call(GenericToolName, "task", text)
	}
	rest := strings.TrimSpace(text[bestEnd:])
	return extractors[best].build(text, rest)
}

func call(tool, key string, value any) ToolCallSpec {
	return ToolCallSpec{ToolName: tool, Arguments: map[string]any{key: value}}
}

func firstOr(re *regexp.Regexp, text, fallback string) string {
	if m := re.FindString(text); m != "" {
		return m
	}
	return fallback
}

func cleanQuery(rest, text string) string {
	if m := quoted.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	q := rest
	for {
		trimmed := leadingFor.ReplaceAllString(q, "")
		if trimmed == q {
			break
		}
		q = trimmed
	}
	q = strings.TrimRight(strings.TrimSpace(q), ".?!")
	if q == "" {
		return text
	}
	return q
}
