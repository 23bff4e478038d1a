package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ShayCichocki/tandem/pkg/models"
)

func TestClassifyStep(t *testing.T) {
	tests := []struct {
		text string
		want models.StepKind
	}{
		{"Search for X", models.StepKindTool},
		{"Summarize X", models.StepKindGeneric},
		{"Look up the population of Oslo", models.StepKindTool},
		{"Download the dataset", models.StepKindTool},
		{"Email the team", models.StepKindTool},
		{"Compute the average", models.StepKindTool},
		{"Review the findings", models.StepKindGeneric},
		{"Research the topic", models.StepKindGeneric},
		{"", models.StepKindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStep(tt.text))
		})
	}
}

func TestExtractToolCall(t *testing.T) {
	tests := []struct {
		text string
		tool string
		args map[string]any
	}{
		{"Search for X", "web_search", map[string]any{"query": "X"}},
		{"Search for 'golang generics'", "web_search", map[string]any{"query": "golang generics"}},
		{"Look up the weather in Paris.", "web_search", map[string]any{"query": "weather in Paris"}},
		{"Download https://example.com/data.csv", "web_fetch", map[string]any{"url": "https://example.com/data.csv"}},
		{"Read config.yaml", "file_read", map[string]any{"path": "config.yaml"}},
		{"Open the file notes/todo.md and summarize it", "file_read", map[string]any{"path": "notes/todo.md"}},
		{"Write the summary to report.md", "file_write", map[string]any{"path": "report.md", "content": "the summary to report.md"}},
		{"Calculate 3 + 4 * 2", "calculator", map[string]any{"expression": "3 + 4 * 2"}},
		{"Send an email to bob@example.com", "send_message", map[string]any{"message": "an email to bob@example.com", "recipient": "bob@example.com"}},
		{"Query the sales table", "database_query", map[string]any{"query": "the sales table"}},
		{"Call https://api.test/v1/status", "http_request", map[string]any{"url": "https://api.test/v1/status"}},
		{"List the files in ./docs/", "list_dir", map[string]any{"path": "./docs/"}},
		{"List everything", "list_dir", map[string]any{"path": "."}},
		{"Run `go test ./...`", "shell", map[string]any{"command": "go test ./..."}},
		{"Please read the docs before you search", "file_read", map[string]any{"path": "the docs before you search"}},
		{"Ponder the meaning", GenericToolName, map[string]any{"task": "Ponder the meaning"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ExtractToolCall(tt.text)
			assert.Equal(t, tt.tool, got.ToolName)
			assert.Equal(t, tt.args, got.Arguments)
		})
	}
}
