package timer

import (
	"sync"
	"time"
)

// scheduler owns the per-timer tick callbacks: an explicit map from timer id
// to a cancellable scheduled task. There is at most one armed task per id;
// arming, cancelling and re-arming all happen inside the hub's mutation
// lock, so a timer leaving the running state always tears its task down
// synchronously. A task that fires after cancellation reaches the hub's
// tick guard and becomes a no-op.
type scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	tasks    map[string]*time.Timer
	fire     func(id string)
}

func newScheduler(interval time.Duration, fire func(id string)) *scheduler {
	return &scheduler{
		interval: interval,
		tasks:    make(map[string]*time.Timer),
		fire:     fire,
	}
}

// arm schedules the next tick for id, replacing any task already armed.
func (s *scheduler) arm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tasks[id]; ok {
		t.Stop()
	}
	s.tasks[id] = time.AfterFunc(s.interval, func() {
		s.fire(id)
	})
}

// cancel stops the pending task for id, if any.
func (s *scheduler) cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tasks[id]; ok {
		t.Stop()
		delete(s.tasks, id)
	}
}

func (s *scheduler) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.tasks {
		t.Stop()
		delete(s.tasks, id)
	}
}

// armed reports whether a task is currently scheduled for id.
func (s *scheduler) armed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	return ok
}
