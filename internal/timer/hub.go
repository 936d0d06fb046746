package timer

import (
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Validation errors reported by Add.
var (
	ErrEmptyName           = errors.New("timer name is empty")
	ErrEmptyCategory       = errors.New("timer category is empty")
	ErrNonPositiveDuration = errors.New("timer duration must be positive")
)

const tickInterval = time.Second

// Hub owns the timer collection, the completion history and the queue of
// completions awaiting acknowledgment. Every mutation is serialized through
// its mutex, so derived views always observe fully applied updates. After
// each mutation the collection is mirrored to the Gateway; mirror failures
// are logged and swallowed. Notification events are queued during the
// mutation and delivered after the mutex is released.
type Hub struct {
	mu       sync.Mutex
	gateway  Gateway
	notifier Notifier
	sched    *scheduler

	timers  []Timer        // insertion order
	history []HistoryEntry // most-recent-first
	pending []Timer        // FIFO of completion snapshots
	events  []event        // queued notifications, flushed on unlock

	now func() time.Time
}

// event is a queued notification awaiting delivery.
type event struct {
	halfway bool
	timer   Timer
}

// unlock releases the mutation lock and then delivers the notification
// events queued during the mutation, in detection order. The notifier runs
// with no lock held: the production notifier forwards into the UI event
// loop, which calls back into the hub, and a delivery made under the lock
// would wedge both sides.
func (h *Hub) unlock() {
	events := h.events
	h.events = nil
	h.mu.Unlock()

	for _, e := range events {
		if e.halfway {
			h.notifier.HalfwayReached(e.timer)
		} else {
			h.notifier.TimerCompleted(e.timer)
		}
	}
}

// New builds a Hub backed by gw, loading any persisted timers and history.
// Timers persisted in the running state resume ticking immediately. Both
// gw and n may be nil.
func New(gw Gateway, n Notifier) *Hub {
	return newHub(gw, n, tickInterval)
}

func newHub(gw Gateway, n Notifier, interval time.Duration) *Hub {
	h := &Hub{
		gateway:  gw,
		notifier: n,
		now:      time.Now,
	}
	h.sched = newScheduler(interval, h.tick)

	if gw != nil {
		timers, err := gw.LoadTimers()
		if err != nil {
			log.Printf("timer: load timers: %v", err)
		}
		history, err := gw.LoadHistory()
		if err != nil {
			log.Printf("timer: load history: %v", err)
		}
		h.timers = sanitize(timers)
		h.history = history
	}

	for _, t := range h.timers {
		if t.Status == StatusRunning {
			h.sched.arm(t.ID)
		}
	}
	return h
}

// sanitize repairs records loaded from storage so the in-memory invariants
// hold from the first observation.
func sanitize(timers []Timer) []Timer {
	out := timers[:0]
	for _, t := range timers {
		if t.ID == "" || t.Name == "" || t.Duration <= 0 {
			continue
		}
		if t.RemainingTime < 0 {
			t.RemainingTime = 0
		}
		if t.RemainingTime > t.Duration {
			t.RemainingTime = t.Duration
		}
		switch t.Status {
		case StatusRunning, StatusPaused, StatusCompleted:
		default:
			t.Status = StatusPaused
		}
		out = append(out, t)
	}
	return out
}

// Close cancels all tick callbacks and mirrors the final state.
func (h *Hub) Close() {
	h.sched.cancelAll()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.persistTimers()
	h.persistHistory()
}

// Add validates spec and inserts a new paused timer at the end of the
// collection. The status, remaining time and halfway latch are forced
// regardless of caller input.
func (h *Hub) Add(spec Spec) (Timer, error) {
	name := strings.TrimSpace(spec.Name)
	category := strings.TrimSpace(spec.Category)

	if name == "" {
		return Timer{}, ErrEmptyName
	}
	if spec.Duration <= 0 {
		return Timer{}, ErrNonPositiveDuration
	}
	if category == "" {
		return Timer{}, ErrEmptyCategory
	}

	t := Timer{
		ID:            uuid.NewString(),
		Name:          name,
		Duration:      spec.Duration,
		RemainingTime: spec.Duration,
		Category:      category,
		Status:        StatusPaused,
		HalfwayAlert:  spec.HalfwayAlert,
	}

	h.mu.Lock()
	defer h.unlock()
	h.timers = append(h.timers, t)
	h.persistTimers()
	return t, nil
}

// Update merges the non-nil fields of p into the timer with the given id.
// Unknown ids are a silent no-op. RemainingTime is clamped to
// [0, duration]. A status write to completed routes through the completion
// pipeline exactly once; a completed timer ignores status writes entirely
// (reset is the only way out of completed).
func (h *Hub) Update(id string, p Patch) {
	h.mu.Lock()
	defer h.unlock()

	i := h.index(id)
	if i < 0 {
		return
	}
	t := h.timers[i]

	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) != "" {
		t.Category = strings.TrimSpace(*p.Category)
	}
	if p.RemainingTime != nil {
		t.RemainingTime = clamp(*p.RemainingTime, 0, t.Duration)
	}
	if p.HalfwayAlert != nil {
		t.HalfwayAlert = *p.HalfwayAlert
	}
	if p.HalfwayAlertTriggered != nil {
		t.HalfwayAlertTriggered = *p.HalfwayAlertTriggered
	}

	if p.Status != nil && t.Status != StatusCompleted {
		switch *p.Status {
		case StatusRunning:
			t.Status = StatusRunning
			h.sched.arm(t.ID)
		case StatusPaused:
			t.Status = StatusPaused
			h.sched.cancel(t.ID)
		case StatusCompleted:
			h.timers[i] = t
			h.complete(i)
			h.persistTimers()
			return
		}
	}

	h.timers[i] = t
	if t.Status == StatusRunning {
		h.checkHalfway(i)
		if h.timers[i].RemainingTime == 0 {
			h.complete(i)
		}
	}
	h.persistTimers()
}

// Delete removes the timer and cancels its tick callback. Snapshots already
// on the pending-completion queue are untouched.
func (h *Hub) Delete(id string) {
	h.mu.Lock()
	defer h.unlock()

	i := h.index(id)
	if i < 0 {
		return
	}
	h.sched.cancel(id)
	h.timers = append(h.timers[:i], h.timers[i+1:]...)
	h.persistTimers()
}

// Get returns a copy of the timer with the given id.
func (h *Hub) Get(id string) (Timer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.index(id)
	if i < 0 {
		return Timer{}, false
	}
	return h.timers[i], true
}

// List returns the timers in insertion order. Grouping and sorting is the
// Grouper's job, not the hub's.
func (h *Hub) List() []Timer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Timer(nil), h.timers...)
}

// Categories returns the distinct categories in use, sorted.
func (h *Hub) Categories() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[string]bool)
	var cats []string
	for _, t := range h.timers {
		if !seen[t.Category] {
			seen[t.Category] = true
			cats = append(cats, t.Category)
		}
	}
	sort.Strings(cats)
	return cats
}

// Start transitions a paused timer to running and arms its tick callback.
// Completed and already-running timers are left alone.
func (h *Hub) Start(id string) {
	h.mu.Lock()
	defer h.unlock()
	h.start(id)
	h.persistTimers()
}

// Pause transitions a running timer to paused, cancelling its callback
// synchronously.
func (h *Hub) Pause(id string) {
	h.mu.Lock()
	defer h.unlock()
	h.pause(id)
	h.persistTimers()
}

// Reset returns a timer from any state to paused with a full remaining
// time and a cleared halfway latch. This is the only transition out of
// completed.
func (h *Hub) Reset(id string) {
	h.mu.Lock()
	defer h.unlock()
	h.reset(id)
	h.persistTimers()
}

func (h *Hub) start(id string) {
	i := h.index(id)
	if i < 0 || h.timers[i].Status != StatusPaused {
		return
	}
	h.timers[i].Status = StatusRunning
	h.sched.arm(id)
	h.checkHalfway(i)
}

func (h *Hub) pause(id string) {
	i := h.index(id)
	if i < 0 || h.timers[i].Status != StatusRunning {
		return
	}
	h.timers[i].Status = StatusPaused
	h.sched.cancel(id)
}

func (h *Hub) reset(id string) {
	i := h.index(id)
	if i < 0 {
		return
	}
	t := h.timers[i]
	t.Status = StatusPaused
	t.RemainingTime = t.Duration
	t.HalfwayAlertTriggered = false
	h.timers[i] = t
	h.sched.cancel(id)
}

// StartAll starts every startable timer; completed timers are skipped.
func (h *Hub) StartAll() { h.bulk("", (*Hub).start) }

// PauseAll pauses every running timer.
func (h *Hub) PauseAll() { h.bulk("", (*Hub).pause) }

// ResetAll resets every timer.
func (h *Hub) ResetAll() { h.bulk("", (*Hub).reset) }

// StartCategory starts every startable timer in the category.
func (h *Hub) StartCategory(category string) { h.bulk(category, (*Hub).start) }

// PauseCategory pauses every running timer in the category.
func (h *Hub) PauseCategory(category string) { h.bulk(category, (*Hub).pause) }

// ResetCategory resets every timer in the category.
func (h *Hub) ResetCategory(category string) { h.bulk(category, (*Hub).reset) }

func (h *Hub) bulk(category string, op func(*Hub, string)) {
	h.mu.Lock()
	defer h.unlock()

	ids := make([]string, 0, len(h.timers))
	for _, t := range h.timers {
		if category == "" || t.Category == category {
			ids = append(ids, t.ID)
		}
	}
	for _, id := range ids {
		op(h, id)
	}
	h.persistTimers()
}

// History returns the completion log, most recent first.
func (h *Hub) History() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HistoryEntry(nil), h.history...)
}

// ClearHistory wipes the completion log.
func (h *Hub) ClearHistory() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = nil
	h.persistHistory()
}

// PendingCompletion returns the snapshot at the front of the acknowledgment
// queue, if any.
func (h *Hub) PendingCompletion() (Timer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.pending) == 0 {
		return Timer{}, false
	}
	return h.pending[0], true
}

// PendingCount returns the number of unacknowledged completions.
func (h *Hub) PendingCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Acknowledge dequeues exactly one pending completion from the front.
// History is untouched.
func (h *Hub) Acknowledge() (Timer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.pending) == 0 {
		return Timer{}, false
	}
	t := h.pending[0]
	h.pending = h.pending[1:]
	return t, true
}

// tick is the scheduler's fire path. The guard makes a callback that
// outlives its timer's running state a no-op.
func (h *Hub) tick(id string) {
	h.mu.Lock()
	defer h.unlock()

	i := h.index(id)
	if i < 0 || h.timers[i].Status != StatusRunning {
		return
	}

	if h.timers[i].RemainingTime > 0 {
		h.timers[i].RemainingTime--
	}
	h.checkHalfway(i)

	if h.timers[i].RemainingTime == 0 {
		h.complete(i)
	} else {
		h.sched.arm(id)
	}
	h.persistTimers()
}

// checkHalfway fires the halfway alert once per run cycle. The threshold is
// fractional: half of an odd duration is not rounded, so a 5s timer fires
// at 2s remaining, not 3s. Re-checked on every tick and on every state
// change that can affect it, which covers missed ticks.
func (h *Hub) checkHalfway(i int) {
	t := h.timers[i]
	if !t.HalfwayAlert || t.HalfwayAlertTriggered || t.Status != StatusRunning {
		return
	}
	if 2*t.RemainingTime > t.Duration {
		return
	}
	h.timers[i].HalfwayAlertTriggered = true
	if h.notifier != nil {
		h.events = append(h.events, event{halfway: true, timer: h.timers[i]})
	}
}

// complete moves the timer at i into the terminal completed state, records
// a history entry and queues the snapshot for acknowledgment. Callers hold
// the lock and guarantee the timer is not already completed.
func (h *Hub) complete(i int) {
	h.timers[i].Status = StatusCompleted
	h.timers[i].RemainingTime = 0
	h.sched.cancel(h.timers[i].ID)

	snap := h.timers[i]
	entry := HistoryEntry{
		ID:          uuid.NewString(),
		TimerName:   snap.Name,
		Category:    snap.Category,
		Duration:    snap.Duration,
		CompletedAt: h.now(),
	}
	h.history = append([]HistoryEntry{entry}, h.history...)
	h.pending = append(h.pending, snap)
	h.persistHistory()

	if h.notifier != nil {
		h.events = append(h.events, event{timer: snap})
	}
}

func (h *Hub) index(id string) int {
	for i := range h.timers {
		if h.timers[i].ID == id {
			return i
		}
	}
	return -1
}

func (h *Hub) persistTimers() {
	if h.gateway == nil {
		return
	}
	if err := h.gateway.SaveTimers(append([]Timer(nil), h.timers...)); err != nil {
		log.Printf("timer: save timers: %v", err)
	}
}

func (h *Hub) persistHistory() {
	if h.gateway == nil {
		return
	}
	if err := h.gateway.SaveHistory(append([]HistoryEntry(nil), h.history...)); err != nil {
		log.Printf("timer: save history: %v", err)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
