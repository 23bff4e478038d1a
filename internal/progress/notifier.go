package progress

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrDropped is returned when a notification could not be queued in time.
var ErrDropped = errors.New("notification dropped")

// ErrClosed is returned after a notifier has been closed.
var ErrClosed = errors.New("notifier closed")

const defaultSendTimeout = 100 * time.Millisecond

// ChannelNotifier queues notifications on a buffered channel. When the
// buffer is full it waits briefly for the reader, then drops.
type ChannelNotifier struct {
	mu      sync.RWMutex
	ch      chan Notification
	closed  bool
	timeout time.Duration
	dropped atomic.Uint64
}

// NewChannelNotifier creates a notifier with the given buffer size.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer < 0 {
		buffer = 0
	}
	return &ChannelNotifier{
		ch:      make(chan Notification, buffer),
		timeout: defaultSendTimeout,
	}
}

// Notify queues n.
func (c *ChannelNotifier) Notify(ctx context.Context, n Notification) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	select {
	case c.ch <- n:
		return nil
	default:
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case c.ch <- n:
		return nil
	case <-ctx.Done():
		c.dropped.Add(1)
		return ctx.Err()
	case <-timer.C:
		c.dropped.Add(1)
		return ErrDropped
	}
}

// Notifications returns the receive side of the queue.
func (c *ChannelNotifier) Notifications() <-chan Notification {
	return c.ch
}

// Dropped returns how many notifications were dropped.
func (c *ChannelNotifier) Dropped() uint64 {
	return c.dropped.Load()
}

// Close closes the queue. Later Notify calls return ErrClosed.
func (c *ChannelNotifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// MultiNotifier fans a notification out to several notifiers.
type MultiNotifier []Notifier

// Notify delivers to every notifier and joins their errors.
func (m MultiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, target := range m {
		if target == nil {
			continue
		}
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
