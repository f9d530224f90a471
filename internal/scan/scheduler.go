package scan

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultBatch is the number of items a task processes per tick.
const DefaultBatch = 8

type entry struct {
	key    string
	task   Task
	onDone func(cancelled bool)
}

// Scheduler advances submitted tasks once per Tick, in submission order.
// Keys are unique: a key may have at most one task in flight.
type Scheduler struct {
	mu      sync.Mutex
	batch   int
	entries []*entry
	stopCh  chan struct{}
	stop    sync.Once
}

// NewScheduler creates a scheduler stepping each task by batch items per tick.
func NewScheduler(batch int) *Scheduler {
	if batch <= 0 {
		batch = DefaultBatch
	}
	return &Scheduler{
		batch:  batch,
		stopCh: make(chan struct{}),
	}
}

// Batch returns the per-tick batch size.
func (s *Scheduler) Batch() int {
	return s.batch
}

// Submit queues t under key. onDone runs once, outside the scheduler lock,
// after the task finishes or is cancelled. Returns false if key already has a
// task in flight.
func (s *Scheduler) Submit(key string, t Task, onDone func(cancelled bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.key == key {
			return false
		}
	}
	s.entries = append(s.entries, &entry{key: key, task: t, onDone: onDone})
	return true
}

// Active reports whether key has a task in flight.
func (s *Scheduler) Active(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.key == key {
			return true
		}
	}
	return false
}

// Len returns the number of tasks in flight.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Tick steps every task once and returns how many were stepped and how many
// finished. Completion callbacks run after the lock is released, so they may
// submit new tasks; those are first stepped on the next Tick.
func (s *Scheduler) Tick() (stepped, finished int) {
	s.mu.Lock()
	var done []*entry
	kept := s.entries[:0]
	for _, e := range s.entries {
		stepped++
		if e.task.Step(s.batch) {
			done = append(done, e)
			continue
		}
		kept = append(kept, e)
	}
	// Обнуляем хвост, чтобы завершённые задачи не держались в памяти.
	clear(s.entries[len(kept):])
	s.entries = kept
	s.mu.Unlock()

	for _, e := range done {
		if e.onDone != nil {
			e.onDone(false)
		}
	}
	return stepped, len(done)
}

// Cancel cancels the task under key, if any.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	var victim *entry
	for i, e := range s.entries {
		if e.key == key {
			victim = e
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if victim == nil {
		return false
	}
	victim.task.Cancel()
	if victim.onDone != nil {
		victim.onDone(true)
	}
	return true
}

// CancelAll cancels every task in flight and returns how many there were.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	current := s.entries
	s.entries = nil
	s.mu.Unlock()

	for _, e := range current {
		e.task.Cancel()
		if e.onDone != nil {
			e.onDone(true)
		}
	}
	return len(current)
}

// Run ticks the scheduler every interval until ctx is cancelled or Stop is
// called. tick, if non-nil, is called instead of Tick so the owner can wrap it.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration, tick func()) error {
	if tick == nil {
		tick = func() { s.Tick() }
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("scan scheduler started", "interval", interval, "batch", s.batch)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scan scheduler stopping")
			return ctx.Err()
		case <-s.stopCh:
			slog.Info("scan scheduler stopped")
			return nil
		case <-ticker.C:
			tick()
		}
	}
}

// Stop stops Run.
func (s *Scheduler) Stop() {
	s.stop.Do(func() { close(s.stopCh) })
}
