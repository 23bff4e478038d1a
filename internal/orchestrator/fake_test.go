package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/ShayCichocki/tandem/internal/agent"
	"github.com/ShayCichocki/tandem/internal/progress"
	"github.com/ShayCichocki/tandem/internal/state"
	"github.com/ShayCichocki/tandem/pkg/models"
)

type fakeUnit struct {
	name      string
	run       func(ctx context.Context, description string) (string, error)
	statusErr error
	cleanErr  error

	mu      sync.Mutex
	prompts []string
	cleaned bool
}

func (u *fakeUnit) Name() string { return u.name }

func (u *fakeUnit) Run(ctx context.Context, description string) (string, error) {
	u.mu.Lock()
	u.prompts = append(u.prompts, description)
	u.mu.Unlock()
	if u.run != nil {
		return u.run(ctx, description)
	}
	return u.name + " done", nil
}

func (u *fakeUnit) Status(context.Context) (models.WorkerStatus, error) {
	if u.statusErr != nil {
		return models.WorkerStatus{}, u.statusErr
	}
	return models.WorkerStatus{Name: u.name, Kind: agent.KindSpecialist, Alive: true, ToolCount: 2}, nil
}

func (u *fakeUnit) Cleanup(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.cleaned = true
	return u.cleanErr
}

func (u *fakeUnit) received() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.prompts...)
}

// fakeFactory hands out preconfigured units by profile name and records
// what it was asked to build.
type fakeFactory struct {
	mu    sync.Mutex
	units map[string]*fakeUnit
	fail  map[string]bool
	built []agent.Profile
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{units: map[string]*fakeUnit{}, fail: map[string]bool{}}
}

func (f *fakeFactory) unit(name string) *fakeUnit {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.units[name]
	if !ok {
		u = &fakeUnit{name: name}
		f.units[name] = u
	}
	return u
}

func (f *fakeFactory) Build(_ context.Context, p agent.Profile) (agent.Unit, error) {
	f.mu.Lock()
	f.built = append(f.built, p)
	failing := f.fail[p.Name] && !p.IsGeneralist()
	f.mu.Unlock()
	if failing {
		return nil, errors.New("no credentials for " + p.Name)
	}
	return f.unit(p.Name), nil
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []progress.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n progress.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return nil
}

func (r *recordingNotifier) all() []progress.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]progress.Notification(nil), r.got...)
}

type memoryArchive struct {
	mu       sync.Mutex
	tasks    []models.Task
	subtasks map[string][]state.Subtask
	err      error
}

func (a *memoryArchive) SaveTask(_ context.Context, t models.Task, subs []state.Subtask) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.subtasks == nil {
		a.subtasks = map[string][]state.Subtask{}
	}
	a.tasks = append(a.tasks, t)
	a.subtasks[t.ID] = subs
	return nil
}

func (a *memoryArchive) RecentTasks(_ context.Context, limit int) ([]models.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if limit > len(a.tasks) {
		limit = len(a.tasks)
	}
	return append([]models.Task(nil), a.tasks[len(a.tasks)-limit:]...), nil
}

func twoWorkers() []agent.Profile {
	return []agent.Profile{
		{Name: "researcher", Kind: agent.KindSpecialist, Domains: []string{"research"}},
		{Name: "analyst", Kind: agent.KindSpecialist, Domains: []string{"data_analysis", "math"}},
	}
}
