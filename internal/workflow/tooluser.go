package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sourcegraph/conc/panics"

	"github.com/ShayCichocki/tandem/internal/logging"
	"github.com/ShayCichocki/tandem/internal/toolregistry"
)

const (
	defaultToolTimeout = 30 * time.Second
	defaultCacheSize   = 256
	defaultCacheTTL    = 5 * time.Minute
)

// ToolCall is a request to invoke one tool.
type ToolCall struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Timeout   time.Duration  `json:"timeout,omitempty"`
	Context   string         `json:"context,omitempty"`
}

// ToolOutcome is the result of a tool call. Failures are reported here,
// never as errors.
type ToolOutcome struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// ToolUser invokes tools on behalf of workflow steps.
type ToolUser interface {
	Use(ctx context.Context, call ToolCall) ToolOutcome
}

// ToolUserFunc adapts a function to ToolUser.
type ToolUserFunc func(ctx context.Context, call ToolCall) ToolOutcome

// Use calls f.
func (f ToolUserFunc) Use(ctx context.Context, call ToolCall) ToolOutcome { return f(ctx, call) }

// ToolUserConfig configures a RegistryToolUser. Zero values use defaults.
type ToolUserConfig struct {
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

type cacheEntry struct {
	result   string
	storedAt time.Time
}

// RegistryToolUser resolves tools by name in a registry and runs them with a
// timeout. Results of cacheable tools are kept in an LRU cache keyed by tool
// name and arguments.
type RegistryToolUser struct {
	registry *toolregistry.Registry
	cache    *lru.Cache[string, cacheEntry]
	ttl      time.Duration
	timeout  atomic.Int64
	hits     atomic.Uint64
	misses   atomic.Uint64
	logger   *slog.Logger
}

// NewRegistryToolUser creates a tool user over registry.
func NewRegistryToolUser(registry *toolregistry.Registry, cfg ToolUserConfig, logger *slog.Logger) *RegistryToolUser {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultToolTimeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	// lru.New only fails for non-positive sizes.
	cache, _ := lru.New[string, cacheEntry](cfg.CacheSize)

	u := &RegistryToolUser{
		registry: registry,
		cache:    cache,
		ttl:      cfg.CacheTTL,
		logger:   logging.OrNop(logger),
	}
	u.timeout.Store(int64(cfg.Timeout))
	return u
}

// SetTimeout changes the default per-call timeout.
func (u *RegistryToolUser) SetTimeout(d time.Duration) {
	if d > 0 {
		u.timeout.Store(int64(d))
	}
}

// Timeout returns the default per-call timeout.
func (u *RegistryToolUser) Timeout() time.Duration {
	return time.Duration(u.timeout.Load())
}

// CacheStats returns cache hits and misses so far.
func (u *RegistryToolUser) CacheStats() (hits, misses uint64) {
	return u.hits.Load(), u.misses.Load()
}

// Use implements ToolUser.
func (u *RegistryToolUser) Use(ctx context.Context, call ToolCall) ToolOutcome {
	tool, err := u.registry.Lookup(call.ToolName)
	if err != nil {
		return ToolOutcome{Message: fmt.Sprintf("tool %q is not registered", call.ToolName)}
	}

	cacheable := tool.Spec().Cacheable
	key := cacheKey(call)
	if cacheable {
		if entry, ok := u.cache.Get(key); ok {
			if time.Since(entry.storedAt) < u.ttl {
				u.hits.Add(1)
				return ToolOutcome{Success: true, Result: entry.result}
			}
			u.cache.Remove(key)
		}
		u.misses.Add(1)
	}

	timeout := call.Timeout
	if timeout <= 0 {
		timeout = u.Timeout()
	}
	result, err := u.run(ctx, tool, call, timeout)
	if err != nil {
		u.logger.Debug("tool call failed", "tool", call.ToolName, "error", err)
		return ToolOutcome{Message: err.Error()}
	}
	if cacheable {
		u.cache.Add(key, cacheEntry{result: result, storedAt: time.Now()})
	}
	return ToolOutcome{Success: true, Result: result}
}

type runResult struct {
	out any
	err error
}

func (u *RegistryToolUser) run(ctx context.Context, tool toolregistry.Tool, call ToolCall, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan runResult, 1)
	go func() {
		var res runResult
		var pc panics.Catcher
		pc.Try(func() {
			res.out, res.err = tool.Run(ctx, call.Arguments)
		})
		if r := pc.Recovered(); r != nil {
			res.err = fmt.Errorf("tool %s panicked: %v", call.ToolName, r.Value)
		}
		done <- res
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		return render(res.out), nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("tool %s timed out after %v", call.ToolName, timeout)
		}
		return "", fmt.Errorf("tool %s cancelled: %w", call.ToolName, ctx.Err())
	}
}

func cacheKey(call ToolCall) string {
	// encoding/json sorts map keys, which keeps the key stable.
	data, err := json.Marshal(call.Arguments)
	if err != nil {
		data = []byte(fmt.Sprint(call.Arguments))
	}
	return call.ToolName + ":" + string(data)
}

func render(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}
