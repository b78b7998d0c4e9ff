// Package scheduler runs periodic maintenance jobs from a single ticker
// instead of one goroutine and timer per job.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

var (
	ErrDuplicateTask = errors.New("task already registered")
	ErrInvalidTask   = errors.New("invalid task")
	ErrRunning       = errors.New("scheduler already running")
)

type TaskFunc func(ctx context.Context) error

type task struct {
	name     string
	every    time.Duration
	priority int
	fn       TaskFunc
	next     time.Time
}

type Manager struct {
	resolution time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	tasks   map[string]*task
	running bool
}

func New(resolution time.Duration, logger *slog.Logger) *Manager {
	if resolution <= 0 {
		resolution = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		resolution: resolution,
		logger:     logger,
		now:        time.Now,
		tasks:      map[string]*task{},
	}
}

// Register adds a job that runs every interval. Higher priority runs first
// when several jobs are due on the same tick.
func (m *Manager) Register(name string, every time.Duration, priority int, fn TaskFunc) error {
	if name == "" || every <= 0 || fn == nil {
		return fmt.Errorf("%w: %q", ErrInvalidTask, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTask, name)
	}
	m.tasks[name] = &task{
		name:     name,
		every:    every,
		priority: priority,
		fn:       fn,
		next:     m.now().Add(every),
	}
	return nil
}

func (m *Manager) Unregister(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[name]
	delete(m.tasks, name)
	return ok
}

func (m *Manager) Tasks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.tasks))
	for n := range m.tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run ticks until ctx is done. It returns ctx.Err() on shutdown.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrRunning
	}
	m.running = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	ticker := time.NewTicker(m.resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs every due job once, in priority order. Exposed for tests and for
// callers that drive the clock themselves.
func (m *Manager) Tick(ctx context.Context) {
	now := m.now()
	for _, t := range m.due(now) {
		if ctx.Err() != nil {
			return
		}
		start := m.now()
		err := t.fn(ctx)
		l := m.logger.With("task", t.name, "duration_ms", m.now().Sub(start).Milliseconds())
		if err != nil {
			l.Error("scheduled_task_failed", "error", err)
			continue
		}
		l.Debug("scheduled_task_done")
	}
}

func (m *Manager) due(now time.Time) []task {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []task
	for _, t := range m.tasks {
		if now.Before(t.next) {
			continue
		}
		out = append(out, *t)
		t.next = now.Add(t.every)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority > out[j].priority
		}
		return out[i].name < out[j].name
	})
	return out
}
