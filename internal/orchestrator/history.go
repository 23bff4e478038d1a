package orchestrator

import (
	"sync"

	"github.com/ShayCichocki/tandem/pkg/models"
)

// ring keeps the most recent tasks.
type ring struct {
	mu    sync.Mutex
	items []models.Task
	next  int
	full  bool
}

func newRing(size int) *ring {
	return &ring{items: make([]models.Task, size)}
}

func (r *ring) add(t models.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[r.next] = t
	r.next = (r.next + 1) % len(r.items)
	if r.next == 0 {
		r.full = true
	}
}

// list returns the tasks oldest first.
func (r *ring) list() []models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]models.Task, r.next)
		for i := range out {
			out[i] = r.items[i].Clone()
		}
		return out
	}
	out := make([]models.Task, 0, len(r.items))
	for i := 0; i < len(r.items); i++ {
		t := r.items[(r.next+i)%len(r.items)]
		out = append(out, t.Clone())
	}
	return out
}
