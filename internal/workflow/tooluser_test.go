package workflow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/tandem/internal/toolregistry"
)

func countingTool(name string, cacheable bool, calls *atomic.Int32) toolregistry.Tool {
	return toolregistry.NewFunc(toolregistry.Spec{Name: name, Cacheable: cacheable},
		func(_ context.Context, args map[string]any) (any, error) {
			calls.Add(1)
			return map[string]any{"echo": args["q"]}, nil
		})
}

func TestRegistryToolUser_UnknownTool(t *testing.T) {
	u := NewRegistryToolUser(toolregistry.New(), ToolUserConfig{}, nil)

	out := u.Use(context.Background(), ToolCall{ToolName: "missing"})

	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "not registered")
}

func TestRegistryToolUser_Outcomes(t *testing.T) {
	reg := toolregistry.New()
	require.NoError(t, reg.Register("fails", toolregistry.NewFunc(toolregistry.Spec{Name: "fails"},
		func(context.Context, map[string]any) (any, error) { return nil, errors.New("bad input") })))
	require.NoError(t, reg.Register("panics", toolregistry.NewFunc(toolregistry.Spec{Name: "panics"},
		func(context.Context, map[string]any) (any, error) { panic("tool bug") })))
	require.NoError(t, reg.Register("text", toolregistry.NewFunc(toolregistry.Spec{Name: "text"},
		func(context.Context, map[string]any) (any, error) { return "plain", nil })))
	u := NewRegistryToolUser(reg, ToolUserConfig{}, nil)

	tests := []struct {
		tool    string
		success bool
		result  string
		message string
	}{
		{tool: "fails", message: "bad input"},
		{tool: "panics", message: "tool panics panicked: tool bug"},
		{tool: "text", success: true, result: "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			out := u.Use(context.Background(), ToolCall{ToolName: tt.tool})
			assert.Equal(t, tt.success, out.Success)
			assert.Equal(t, tt.result, out.Result)
			assert.Equal(t, tt.message, out.Message)
		})
	}
}

func TestRegistryToolUser_Timeout(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	reg := toolregistry.New()
	require.NoError(t, reg.Register("slow", toolregistry.NewFunc(toolregistry.Spec{Name: "slow"},
		func(context.Context, map[string]any) (any, error) {
			<-block
			return "late", nil
		})))
	u := NewRegistryToolUser(reg, ToolUserConfig{Timeout: time.Hour}, nil)

	start := time.Now()
	out := u.Use(context.Background(), ToolCall{ToolName: "slow", Timeout: 20 * time.Millisecond})

	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "timed out")
	assert.Less(t, time.Since(start), time.Second)
}

func TestRegistryToolUser_CachesCacheableTools(t *testing.T) {
	var cached, uncached atomic.Int32
	reg := toolregistry.New()
	require.NoError(t, reg.Register("lookup", countingTool("lookup", true, &cached)))
	require.NoError(t, reg.Register("mutate", countingTool("mutate", false, &uncached)))
	u := NewRegistryToolUser(reg, ToolUserConfig{}, nil)
	ctx := context.Background()

	first := u.Use(ctx, ToolCall{ToolName: "lookup", Arguments: map[string]any{"q": "a"}})
	second := u.Use(ctx, ToolCall{ToolName: "lookup", Arguments: map[string]any{"q": "a"}})
	u.Use(ctx, ToolCall{ToolName: "lookup", Arguments: map[string]any{"q": "b"}})

	assert.Equal(t, `{"echo":"a"}`, first.Result)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), cached.Load())
	hits, misses := u.CacheStats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)

	u.Use(ctx, ToolCall{ToolName: "mutate", Arguments: map[string]any{"q": "a"}})
	u.Use(ctx, ToolCall{ToolName: "mutate", Arguments: map[string]any{"q": "a"}})
	assert.Equal(t, int32(2), uncached.Load())
}

func TestRegistryToolUser_CacheExpires(t *testing.T) {
	var calls atomic.Int32
	reg := toolregistry.New()
	require.NoError(t, reg.Register("lookup", countingTool("lookup", true, &calls)))
	u := NewRegistryToolUser(reg, ToolUserConfig{CacheTTL: time.Nanosecond}, nil)

	u.Use(context.Background(), ToolCall{ToolName: "lookup"})
	time.Sleep(time.Millisecond)
	u.Use(context.Background(), ToolCall{ToolName: "lookup"})

	assert.Equal(t, int32(2), calls.Load())
}

func TestRegistryToolUser_SetTimeout(t *testing.T) {
	u := NewRegistryToolUser(toolregistry.New(), ToolUserConfig{}, nil)
	assert.Equal(t, defaultToolTimeout, u.Timeout())

	u.SetTimeout(5 * time.Second)
	assert.Equal(t, 5*time.Second, u.Timeout())

	u.SetTimeout(0)
	assert.Equal(t, 5*time.Second, u.Timeout())
}

func TestCacheKeyIsStable(t *testing.T) {
	a := cacheKey(ToolCall{ToolName: "t", Arguments: map[string]any{"b": 1, "a": 2}})
	b := cacheKey(ToolCall{ToolName: "t", Arguments: map[string]any{"a": 2, "b": 1}})
	assert.Equal(t, a, b)
	assert.Equal(t, `t:{"a":2,"b":1}`, a)
}
