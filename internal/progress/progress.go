// Package progress tracks the latest progress snapshot per task and forwards
// updates to an optional notification channel.
package progress

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ShayCichocki/tandem/internal/logging"
)

// NotificationType distinguishes progress updates from terminal notifications.
type NotificationType string

const (
	TypeProgress  NotificationType = "progress"
	TypeCompleted NotificationType = "completed"
	TypeFailed    NotificationType = "failed"
)

// Snapshot is the latest known progress of one task.
type Snapshot struct {
	TaskID      string            `json:"task_id"`
	Stage       string            `json:"stage"`
	Percentage  float64           `json:"percentage"`
	Kind        string            `json:"kind,omitempty"`
	Workers     []string          `json:"workers,omitempty"`
	CurrentStep int               `json:"current_step,omitempty"`
	TotalSteps  int               `json:"total_steps,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Notification is the JSON payload delivered to a Notifier.
type Notification struct {
	Type      NotificationType `json:"type"`
	TaskID    string           `json:"task_id"`
	Progress  *Snapshot        `json:"progress,omitempty"`
	Result    string           `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Notifier delivers notifications to some transport.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// Broadcaster holds one snapshot per in-flight task.
type Broadcaster struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithNotifier attaches a notification channel.
func WithNotifier(n Notifier) Option {
	return func(b *Broadcaster) { b.notifier = n }
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *Broadcaster) { b.logger = logging.OrNop(l) }
}

// NewBroadcaster creates a broadcaster. Without a notifier, updates are
// recorded but not delivered anywhere.
func NewBroadcaster(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		snapshots: make(map[string]Snapshot),
		logger:    logging.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetNotifier replaces the attached notifier. nil detaches it.
func (b *Broadcaster) SetNotifier(n Notifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifier = n
}

// Progress records s as the latest snapshot for taskID, clamping the
// percentage to [0, 100], and forwards it. The stored snapshot is returned.
func (b *Broadcaster) Progress(ctx context.Context, taskID string, s Snapshot) Snapshot {
	s.TaskID = taskID
	s.Percentage = clamp(s.Percentage)
	s.Timestamp = b.now()

	b.mu.Lock()
	b.snapshots[taskID] = s
	notifier := b.notifier
	b.mu.Unlock()

	snap := s
	b.deliver(ctx, notifier, Notification{
		Type:      TypeProgress,
		TaskID:    taskID,
		Progress:  &snap,
		Timestamp: s.Timestamp,
	})
	return s
}

// Complete sends a terminal success notification and forgets the task.
func (b *Broadcaster) Complete(ctx context.Context, taskID, result string) {
	b.finish(ctx, Notification{Type: TypeCompleted, TaskID: taskID, Result: result})
}

// Fail sends a terminal failure notification and forgets the task.
func (b *Broadcaster) Fail(ctx context.Context, taskID, errMsg string) {
	b.finish(ctx, Notification{Type: TypeFailed, TaskID: taskID, Error: errMsg})
}

func (b *Broadcaster) finish(ctx context.Context, n Notification) {
	n.Timestamp = b.now()
	b.mu.Lock()
	delete(b.snapshots, n.TaskID)
	notifier := b.notifier
	b.mu.Unlock()
	b.deliver(ctx, notifier, n)
}

// Get returns the latest snapshot for taskID.
func (b *Broadcaster) Get(taskID string) (Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.snapshots[taskID]
	return s, ok
}

// Active returns the ids of tasks with a live snapshot, sorted.
func (b *Broadcaster) Active() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.snapshots))
	for id := range b.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (b *Broadcaster) deliver(ctx context.Context, n Notifier, msg Notification) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, msg); err != nil {
		b.logger.Warn("progress notification not delivered",
			"task_id", msg.TaskID, "type", msg.Type, "error", err)
	}
}

// clamp bounds p to [0, 100]. NaN becomes 0 so notifications stay
// JSON-encodable.
func clamp(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
