package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/kaptinlin/jsonrepair"

	"github.com/ShayCichocki/tandem/internal/logging"
	"github.com/ShayCichocki/tandem/internal/toolregistry"
	"github.com/ShayCichocki/tandem/internal/workflow"
)

const defaultMaxIterations = 20

// StreamEvent is emitted while the loop runs.
type StreamEvent struct {
	Type    string // "text", "tool_use", "tool_result", "done", "error"
	Content string
	Tool    string
	Input   json.RawMessage
}

// LoopResult contains the results of an agent loop execution.
type LoopResult struct {
	Output     string
	TokensIn   int64
	TokensOut  int64
	ToolCalls  int
	Iterations int
}

// AgentLoopConfig contains configuration for the agent loop.
type AgentLoopConfig struct {
	Client *Client
	// Tools executes tool_use requests. Nil disables tools.
	Tools workflow.ToolUser
	// Specs are advertised to the model. Only these tool names may be called.
	Specs []toolregistry.Spec
	// Model overrides the client's default model.
	Model         anthropic.Model
	MaxIterations int
	Logger        *slog.Logger
}

// AgentLoop manages the API call and tool execution cycle.
type AgentLoop struct {
	client        *Client
	tools         workflow.ToolUser
	specs         []toolregistry.Spec
	allowed       map[string]bool
	model         anthropic.Model
	maxIterations int
	onStream      func(StreamEvent)
	logger        *slog.Logger
}

// NewAgentLoop creates a new agent loop with the given configuration.
func NewAgentLoop(cfg AgentLoopConfig) *AgentLoop {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}
	allowed := make(map[string]bool, len(cfg.Specs))
	for _, s := range cfg.Specs {
		allowed[s.Name] = true
	}
	return &AgentLoop{
		client:        cfg.Client,
		tools:         cfg.Tools,
		specs:         cfg.Specs,
		allowed:       allowed,
		model:         cfg.Model,
		maxIterations: maxIter,
		logger:        logging.OrNop(cfg.Logger),
	}
}

// SetStreamHandler sets a callback for streaming events during execution.
func (l *AgentLoop) SetStreamHandler(fn func(StreamEvent)) {
	l.onStream = fn
}

func (l *AgentLoop) emit(event StreamEvent) {
	if l.onStream != nil {
		l.onStream(event)
	}
}

// Run executes the loop until the model ends its turn or the iteration
// limit is reached.
func (l *AgentLoop) Run(ctx context.Context, systemPrompt, userPrompt string) (*LoopResult, error) {
	result := &LoopResult{}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
	}

	var tools []anthropic.ToolUnionParam
	if l.tools != nil && len(l.specs) > 0 {
		tools = ToolDefinitions(l.specs)
	}

	for result.Iterations < l.maxIterations {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Iterations++

		params := anthropic.MessageNewParams{
			Model:    l.model,
			Messages: messages,
			Tools:    tools,
		}
		if systemPrompt != "" {
			params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
		}

		resp, err := l.client.send(ctx, params)
		if err != nil {
			l.emit(StreamEvent{Type: "error", Content: err.Error()})
			return result, err
		}
		result.TokensIn += resp.Usage.InputTokens
		result.TokensOut += resp.Usage.OutputTokens

		var assistantBlocks []anthropic.ContentBlockParamUnion
		var toolResultBlocks []anthropic.ContentBlockParamUnion
		var textOutput string

		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				textOutput += variant.Text
				l.emit(StreamEvent{Type: "text", Content: variant.Text})
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(variant.Text))

			case anthropic.ToolUseBlock:
				result.ToolCalls++
				l.emit(StreamEvent{Type: "tool_use", Tool: variant.Name, Input: variant.Input})
				assistantBlocks = append(assistantBlocks,
					anthropic.NewToolUseBlock(variant.ID, variant.Input, variant.Name))

				content, isError := l.execute(ctx, variant.Name, variant.Input)
				l.emit(StreamEvent{Type: "tool_result", Tool: variant.Name, Content: truncate(content, 500)})
				toolResultBlocks = append(toolResultBlocks,
					anthropic.NewToolResultBlock(variant.ID, content, isError))
			}
		}

		if resp.StopReason == anthropic.StopReasonEndTurn || len(toolResultBlocks) == 0 {
			result.Output = textOutput
			l.emit(StreamEvent{Type: "done"})
			return result, nil
		}

		messages = append(messages,
			anthropic.NewAssistantMessage(assistantBlocks...),
			anthropic.NewUserMessage(toolResultBlocks...),
		)
	}

	return result, fmt.Errorf("max iterations (%d) reached", l.maxIterations)
}

// execute runs one tool_use request and returns the tool_result content.
func (l *AgentLoop) execute(ctx context.Context, name string, input json.RawMessage) (string, bool) {
	if l.tools == nil || !l.allowed[name] {
		return fmt.Sprintf("tool %q is not available", name), true
	}

	args, err := decodeArgs(input)
	if err != nil {
		l.logger.Warn("invalid tool input", "tool", name, "error", err)
		return fmt.Sprintf("invalid input for %s: %v", name, err), true
	}

	outcome := l.tools.Use(ctx, workflow.ToolCall{ToolName: name, Arguments: args})
	if !outcome.Success {
		return outcome.Message, true
	}
	return outcome.Result, false
}

func decodeArgs(input json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(input) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(input, &args); err == nil {
		return args, nil
	}
	repaired, err := jsonrepair.JSONRepair(string(input))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(repaired), &args); err != nil {
		return nil, err
	}
	return args, nil
}
