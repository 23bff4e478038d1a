package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/tandem/internal/toolregistry"
	"github.com/ShayCichocki/tandem/internal/workflow"
)

var calcSpec = toolregistry.Spec{
	Name:        "calculator",
	Description: "Evaluate arithmetic",
	Parameters: map[string]toolregistry.Parameter{
		"expression": {Type: toolregistry.TypeString, Required: true},
	},
}

func TestAgentLoop_ToolRoundTrip(t *testing.T) {
	client, fake := newFakeClient(
		toolUseMessage("tu_1", "calculator", map[string]any{"expression": "2+2"}),
		textMessage("The answer is 4."),
	)

	var seen []workflow.ToolCall
	tools := workflow.ToolUserFunc(func(_ context.Context, call workflow.ToolCall) workflow.ToolOutcome {
		seen = append(seen, call)
		return workflow.ToolOutcome{Success: true, Result: "4"}
	})

	var events []string
	loop := NewAgentLoop(AgentLoopConfig{Client: client, Tools: tools, Specs: []toolregistry.Spec{calcSpec}})
	loop.SetStreamHandler(func(ev StreamEvent) { events = append(events, ev.Type) })

	result, err := loop.Run(context.Background(), "system", "what is 2+2")
	require.NoError(t, err)
	assert.Equal(t, "The answer is 4.", result.Output)
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, 1, result.ToolCalls)
	assert.Equal(t, int64(30), result.TokensIn)
	assert.Equal(t, int64(12), result.TokensOut)

	require.Len(t, seen, 1)
	assert.Equal(t, "calculator", seen[0].ToolName)
	assert.Equal(t, map[string]any{"expression": "2+2"}, seen[0].Arguments)

	calls := fake.calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0].Tools, 1)
	// user, assistant tool_use, user tool_result
	require.Len(t, calls[1].Messages, 3)
	result0 := calls[1].Messages[2].Content[0].OfToolResult
	require.NotNil(t, result0)
	assert.Equal(t, "tu_1", result0.ToolUseID)

	assert.Equal(t, []string{"text", "tool_use", "tool_result", "text", "done"}, events)
}

func TestAgentLoop_UnadvertisedTool(t *testing.T) {
	client, fake := newFakeClient(
		toolUseMessage("tu_1", "shell", map[string]any{"command": "rm -rf /"}),
		textMessage("ok"),
	)
	called := false
	tools := workflow.ToolUserFunc(func(context.Context, workflow.ToolCall) workflow.ToolOutcome {
		called = true
		return workflow.ToolOutcome{Success: true}
	})

	loop := NewAgentLoop(AgentLoopConfig{Client: client, Tools: tools, Specs: []toolregistry.Spec{calcSpec}})
	_, err := loop.Run(context.Background(), "", "go")
	require.NoError(t, err)
	assert.False(t, called)

	res := fake.calls()[1].Messages[2].Content[0].OfToolResult
	require.NotNil(t, res)
	assert.True(t, res.IsError.Value)
}

func TestAgentLoop_MaxIterations(t *testing.T) {
	client, _ := newFakeClient(
		toolUseMessage("tu_1", "calculator", map[string]any{"expression": "1"}),
		toolUseMessage("tu_2", "calculator", map[string]any{"expression": "2"}),
	)
	tools := workflow.ToolUserFunc(func(context.Context, workflow.ToolCall) workflow.ToolOutcome {
		return workflow.ToolOutcome{Success: true, Result: "x"}
	})

	loop := NewAgentLoop(AgentLoopConfig{Client: client, Tools: tools, Specs: []toolregistry.Spec{calcSpec}, MaxIterations: 2})
	result, err := loop.Run(context.Background(), "", "loop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max iterations (2)")
	assert.Equal(t, 2, result.Iterations)
}

func TestAgentLoop_CancelledContext(t *testing.T) {
	client, fake := newFakeClient(textMessage("never"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAgentLoop(AgentLoopConfig{Client: client}).Run(ctx, "", "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.calls())
}

func TestDecodeArgs(t *testing.T) {
	args, err := decodeArgs([]byte(`{"path": "a.txt",}`))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", args["path"])

	args, err = decodeArgs(nil)
	require.NoError(t, err)
	assert.Empty(t, args)
}
