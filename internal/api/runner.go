package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/kaptinlin/jsonrepair"
)

// Runner provides simple text-in/text-out Claude API calls.
// It backs planning and other tool-free prompts.
type Runner struct {
	client *Client
}

// NewRunner creates a new API runner.
func NewRunner(client *Client) *Runner {
	return &Runner{client: client}
}

// Run executes a prompt and returns the text response.
func (r *Runner) Run(ctx context.Context, prompt string) (string, error) {
	return r.RunWithSystem(ctx, "", prompt)
}

// RunWithSystem executes a prompt with a system message.
func (r *Runner) RunWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := r.client.send(ctx, params)
	if err != nil {
		return "", err
	}
	return textOf(resp), nil
}

// RunJSON executes a prompt and decodes the JSON in the response into target.
// Malformed JSON is repaired before giving up.
func (r *Runner) RunJSON(ctx context.Context, systemPrompt, prompt string, target any) error {
	response, err := r.RunWithSystem(ctx, systemPrompt, prompt)
	if err != nil {
		return err
	}
	return DecodeJSON(response, target)
}

// DecodeJSON finds the outermost JSON object or array in text and decodes
// it into target.
func DecodeJSON(text string, target any) error {
	raw := extractJSON(text)
	if raw == "" {
		return fmt.Errorf("no valid JSON found in response: %s", truncate(text, 200))
	}

	err := json.Unmarshal([]byte(raw), target)
	if err == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return fmt.Errorf("parse JSON: %w (response: %s)", err, truncate(raw, 200))
	}
	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("parse repaired JSON: %w (response: %s)", err, truncate(repaired, 200))
	}
	return nil
}

// extractJSON strips code fences and returns the span from the first opening
// brace or bracket to its last matching closer. An unterminated document is
// returned from its opening character so the repairer can close it.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return ""
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return strings.TrimSpace(text[start:])
	}
	return text[start : end+1]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
