package timer

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// recordingNotifier captures notification events in arrival order.
type recordingNotifier struct {
	mu        sync.Mutex
	halfway   []string
	completed []string
}

func (n *recordingNotifier) HalfwayReached(t Timer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.halfway = append(n.halfway, t.Name)
}

func (n *recordingNotifier) TimerCompleted(t Timer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, t.Name)
}

func (n *recordingNotifier) halfwayCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.halfway)
}

// newTestHub returns a hub whose scheduled callbacks effectively never
// fire, so tests drive ticks deterministically through tick().
func newTestHub(t *testing.T) (*Hub, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	h := newHub(nil, n, time.Hour)
	t.Cleanup(h.Close)
	return h, n
}

func addTimer(t *testing.T, h *Hub, name string, duration int, category string, halfway bool) Timer {
	t.Helper()
	tm, err := h.Add(Spec{Name: name, Duration: duration, Category: category, HalfwayAlert: halfway})
	if err != nil {
		t.Fatalf("add %q: %v", name, err)
	}
	return tm
}

func intPtr(v int) *int          { return &v }
func statusPtr(s Status) *Status { return &s }

// ============================================================
// Add
// ============================================================

func TestAddForcesDefaults(t *testing.T) {
	h, _ := newTestHub(t)

	tm := addTimer(t, h, "Workout", 300, "Fitness", true)
	if tm.ID == "" {
		t.Fatal("expected a generated id")
	}
	if tm.Status != StatusPaused {
		t.Fatalf("new timer status = %q, want paused", tm.Status)
	}
	if tm.RemainingTime != 300 {
		t.Fatalf("remaining = %d, want duration", tm.RemainingTime)
	}
	if tm.HalfwayAlertTriggered {
		t.Fatal("halfway latch should start cleared")
	}
	if !tm.HalfwayAlert {
		t.Fatal("halfway alert flag should be kept")
	}
}

func TestAddValidation(t *testing.T) {
	h, _ := newTestHub(t)

	cases := []struct {
		name string
		spec Spec
		want error
	}{
		{"empty name", Spec{Name: "", Duration: 60, Category: "c"}, ErrEmptyName},
		{"blank name", Spec{Name: "   ", Duration: 60, Category: "c"}, ErrEmptyName},
		{"zero duration", Spec{Name: "n", Duration: 0, Category: "c"}, ErrNonPositiveDuration},
		{"negative duration", Spec{Name: "n", Duration: -5, Category: "c"}, ErrNonPositiveDuration},
		{"empty category", Spec{Name: "n", Duration: 60, Category: ""}, ErrEmptyCategory},
		{"blank category", Spec{Name: "n", Duration: 60, Category: " "}, ErrEmptyCategory},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := h.Add(c.spec); !errors.Is(err, c.want) {
				t.Fatalf("Add(%+v) error = %v, want %v", c.spec, err, c.want)
			}
		})
	}

	if len(h.List()) != 0 {
		t.Fatal("no partial record may be created on validation failure")
	}
}

func TestAddInsertionOrder(t *testing.T) {
	h, _ := newTestHub(t)

	addTimer(t, h, "zeta", 60, "b", false)
	addTimer(t, h, "alpha", 60, "a", false)
	addTimer(t, h, "mid", 60, "b", false)

	got := h.List()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Name != "zeta" || got[1].Name != "alpha" || got[2].Name != "mid" {
		t.Fatalf("list is not in insertion order: %v", []string{got[0].Name, got[1].Name, got[2].Name})
	}
}

func TestAddTrimsFields(t *testing.T) {
	h, _ := newTestHub(t)
	tm := addTimer(t, h, "  Tea  ", 120, "  Kitchen ", false)
	if tm.Name != "Tea" || tm.Category != "Kitchen" {
		t.Fatalf("fields not trimmed: %q / %q", tm.Name, tm.Category)
	}
}

// ============================================================
// Update / Delete
// ============================================================

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	h, _ := newTestHub(t)
	addTimer(t, h, "a", 60, "c", false)

	h.Update("missing", Patch{RemainingTime: intPtr(1)})
	if h.List()[0].RemainingTime != 60 {
		t.Fatal("update of unknown id must not touch other timers")
	}
}

func TestUpdateClampsRemaining(t *testing.T) {
	h, _ := newTestHub(t)
	tm := addTimer(t, h, "a", 60, "c", false)

	h.Update(tm.ID, Patch{RemainingTime: intPtr(999)})
	if got, _ := h.Get(tm.ID); got.RemainingTime != 60 {
		t.Fatalf("remaining = %d, want clamped to duration", got.RemainingTime)
	}

	h.Update(tm.ID, Patch{RemainingTime: intPtr(-3)})
	if got, _ := h.Get(tm.ID); got.RemainingTime != 0 {
		t.Fatalf("remaining = %d, want clamped to 0", got.RemainingTime)
	}
}

func TestUpdateStatusToCompletedRunsPipelineOnce(t *testing.T) {
	h, _ := newTestHub(t)
	tm := addTimer(t, h, "a", 60, "c", false)

	h.Update(tm.ID, Patch{Status: statusPtr(StatusCompleted)})
	h.Update(tm.ID, Patch{Status: statusPtr(StatusCompleted)})

	if got, _ := h.Get(tm.ID); got.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if len(h.History()) != 1 {
		t.Fatalf("history entries = %d, want exactly 1", len(h.History()))
	}
	if h.PendingCount() != 1 {
		t.Fatalf("pending = %d, want exactly 1", h.PendingCount())
	}
}

func TestCompletedIgnoresStatusWrites(t *testing.T) {
	h, _ := newTestHub(t)
	tm := addTimer(t, h, "a", 60, "c", false)
	h.Update(tm.ID, Patch{Status: statusPtr(StatusCompleted)})

	h.Update(tm.ID, Patch{Status: statusPtr(StatusRunning)})
	if got, _ := h.Get(tm.ID); got.Status != StatusCompleted {
		t.Fatal("completed must not re-enter running except via reset")
	}
	h.Start(tm.ID)
	if got, _ := h.Get(tm.ID); got.Status != StatusCompleted {
		t.Fatal("Start on a completed timer must be a no-op")
	}
}

func TestDeleteRemovesTimer(t *testing.T) {
	h, _ := newTestHub(t)
	a := addTimer(t, h, "a", 60, "c", false)
	b := addTimer(t, h, "b", 60, "c", false)

	h.Delete(a.ID)
	got := h.List()
	if len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("unexpected list after delete: %+v", got)
	}

	// Unknown id is a silent no-op.
	h.Delete("missing")
	if len(h.List()) != 1 {
		t.Fatal("delete of unknown id must not change the collection")
	}
}

func TestDeleteKeepsQueuedSnapshot(t *testing.T) {
	h, _ := newTestHub(t)
	tm := addTimer(t, h, "a", 60, "c", false)
	h.Update(tm.ID, Patch{Status: statusPtr(StatusCompleted)})

	h.Delete(tm.ID)
	if len(h.List()) != 0 {
		t.Fatal("timer should be gone")
	}
	snap, ok := h.PendingCompletion()
	if !ok || snap.Name != "a" {
		t.Fatal("queued completion snapshot must survive deletion")
	}
}

// ============================================================
// State machine
// ============================================================

func TestStartPauseReset(t *testing.T) {
	h, _ := newTestHub(t)
	tm := addTimer(t, h, "a", 60, "c", false)

	h.Start(tm.ID)
	if got, _ := h.Get(tm.ID); got.Status != StatusRunning {
		t.Fatal("paused --start--> running")
	}
	if !h.sched.armed(tm.ID) {
		t.Fatal("starting must arm the tick callback")
	}

	// Start on running is a no-op.
	h.Start(tm.ID)
	if got, _ := h.Get(tm.ID); got.Status != StatusRunning {
		t.Fatal("start on running should stay running")
	}

	h.Pause(tm.ID)
	if got, _ := h.Get(tm.ID); got.Status != StatusPaused {
		t.Fatal("running --pause--> paused")
	}
	if h.sched.armed(tm.ID) {
		t.Fatal("pausing must cancel the tick callback synchronously")
	}

	// Pause on paused is a no-op.
	h.Pause(tm.ID)
	if got, _ := h.Get(tm.ID); got.Status != StatusPaused {
		t.Fatal("pause on paused should stay paused")
	}
}

func TestResetRestoresFromAnyState(t *testing.T) {
	h, _ := newTestHub(t)
	tm := addTimer(t, h, "a", 4, "c", true)

	h.Start(tm.ID)
	h.tick(tm.ID)
	h.tick(tm.ID) // halfway fires here
	h.tick(tm.ID)
	h.tick(tm.ID) // completes

	got, _ := h.Get(tm.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}

	h.Reset(tm.ID)
	got, _ = h.Get(tm.ID)
	if got.Status != StatusPaused {
		t.Fatal("reset re-opens completed to paused")
	}
	if got.RemainingTime != got.Duration {
		t.Fatal("reset restores remaining time to duration")
	}
	if got.HalfwayAlertTriggered {
		t.Fatal("reset clears the halfway latch")
	}
	if h.sched.armed(tm.ID) {
		t.Fatal("reset leaves the timer unarmed")
	}
}

func TestTickCountdownCompletesOnce(t *testing.T) {
	h, n := newTestHub(t)
	tm := addTimer(t, h, "Eggs", 3, "Kitchen", false)
	h.Start(tm.ID)

	for i := 0; i < 3; i++ {
		h.tick(tm.ID)
	}

	got, _ := h.Get(tm.ID)
	if got.Status != StatusCompleted || got.RemainingTime != 0 {
		t.Fatalf("after full countdown: %+v", got)
	}
	if h.sched.armed(tm.ID) {
		t.Fatal("completion must cancel the tick callback")
	}
	if len(h.History()) != 1 {
		t.Fatalf("history = %d entries, want 1", len(h.History()))
	}
	if h.PendingCount() != 1 {
		t.Fatalf("pending = %d, want 1", h.PendingCount())
	}
	if len(n.completed) != 1 || n.completed[0] != "Eggs" {
		t.Fatalf("completion notifications = %v", n.completed)
	}

	// A stale callback after completion must not re-emit.
	h.tick(tm.ID)
	if len(h.History()) != 1 || h.PendingCount() != 1 {
		t.Fatal("re-entering the completion check must not re-emit")
	}
}

func TestTickInvariantRemainingInRange(t *testing.T) {
	h, _ := newTestHub(t)
	tm := addTimer(t, h, "a", 5, "c", false)
	h.Start(tm.ID)

	for i := 0; i < 10; i++ {
		h.tick(tm.ID)
		got, _ := h.Get(tm.ID)
		if got.RemainingTime < 0 || got.RemainingTime > got.Duration {
			t.Fatalf("remaining %d out of [0, %d]", got.RemainingTime, got.Duration)
		}
	}
}

func TestStaleTickIsNoop(t *testing.T) {
	h, _ := newTestHub(t)
	tm := addTimer(t, h, "a", 10, "c", false)

	// Paused timer: tick must not decrement.
	h.tick(tm.ID)
	if got, _ := h.Get(tm.ID); got.RemainingTime != 10 {
		t.Fatal("tick on a paused timer must be a no-op")
	}

	// Deleted timer: tick must not panic or resurrect anything.
	h.Start(tm.ID)
	h.Delete(tm.ID)
	h.tick(tm.ID)
	if len(h.List()) != 0 {
		t.Fatal("tick after delete must be a no-op")
	}
}

// ============================================================
// Halfway alert
// ============================================================

func TestHalfwayFiresExactlyOnce(t *testing.T) {
	h, n := newTestHub(t)
	tm := addTimer(t, h, "Run", 4, "Fitness", true)
	h.Start(tm.ID)

	h.tick(tm.ID) // remaining 3: 6 > 4, below threshold not reached
	if n.halfwayCount() != 0 {
		t.Fatal("halfway fired too early")
	}
	h.tick(tm.ID) // remaining 2: 4 <= 4, fires
	if n.halfwayCount() != 1 {
		t.Fatalf("halfway notifications = %d, want 1", n.halfwayCount())
	}
	got, _ := h.Get(tm.ID)
	if !got.HalfwayAlertTriggered {
		t.Fatal("latch should be set")
	}

	// Ride it through completion: still exactly one.
	h.tick(tm.ID)
	h.tick(tm.ID)
	if n.halfwayCount() != 1 {
		t.Fatalf("halfway notifications = %d after completion, want 1", n.halfwayCount())
	}
}

func TestHalfwayFractionalThreshold(t *testing.T) {
	// Half of 5 is 2.5, not rounded: fires at remaining 2, not 3.
	h, n := newTestHub(t)
	tm := addTimer(t, h, "a", 5, "c", true)
	h.Start(tm.ID)

	h.tick(tm.ID) // 4
	h.tick(tm.ID) // 3
	if n.halfwayCount() != 0 {
		t.Fatal("fired at remaining 3 of 5")
	}
	h.tick(tm.ID) // 2
	if n.halfwayCount() != 1 {
		t.Fatal("should fire at remaining 2 of 5")
	}
}

func TestHalfwayCheckedOnStart(t *testing.T) {
	// Robustness to missed ticks: a timer already past the threshold
	// fires as soon as it runs, not only on a crossing tick.
	h, n := newTestHub(t)
	tm := addTimer(t, h, "a", 10, "c", true)
	h.Update(tm.ID, Patch{RemainingTime: intPtr(3)})
	if n.halfwayCount() != 0 {
		t.Fatal("must not fire while paused")
	}

	h.Start(tm.ID)
	if n.halfwayCount() != 1 {
		t.Fatal("should fire on entering running below the threshold")
	}
}

func TestHalfwayDisabledNeverFires(t *testing.T) {
	h, n := newTestHub(t)
	tm := addTimer(t, h, "a", 4, "c", false)
	h.Start(tm.ID)
	for i := 0; i < 4; i++ {
		h.tick(tm.ID)
	}
	if n.halfwayCount() != 0 {
		t.Fatal("halfway must not fire when the flag is off")
	}
}

// channelNotifier forwards each event over an unbuffered channel, the way
// the UI relay hands events to the program's event loop.
type channelNotifier struct {
	ch chan Timer
}

func (n *channelNotifier) HalfwayReached(t Timer) { n.ch <- t }
func (n *channelNotifier) TimerCompleted(t Timer) { n.ch <- t }

// blockingNotifier signals when delivery begins and holds it until
// released, standing in for a consumer that is busy calling the hub.
type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) HalfwayReached(Timer) {}

func (n *blockingNotifier) TimerCompleted(Timer) {
	close(n.entered)
	<-n.release
}

func TestBlockedNotifierDoesNotWedgeHub(t *testing.T) {
	n := &blockingNotifier{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	h := newHub(nil, n, time.Hour)
	t.Cleanup(h.Close)

	tm, err := h.Add(Spec{Name: "a", Duration: 1, Category: "c"})
	if err != nil {
		t.Fatal(err)
	}
	h.Start(tm.ID)

	// The countdown completes and delivery stalls in the notifier. Hub
	// calls made meanwhile, like the event loop running a keypress, must
	// still go through; they could not if delivery held the hub lock.
	tickDone := make(chan struct{})
	go func() {
		h.tick(tm.ID)
		close(tickDone)
	}()
	<-n.entered

	hubCall := make(chan struct{})
	go func() {
		h.List()
		h.Reset(tm.ID)
		close(hubCall)
	}()

	select {
	case <-hubCall:
	case <-time.After(2 * time.Second):
		t.Fatal("hub call blocked while the notifier was awaiting its consumer")
	}

	close(n.release)
	select {
	case <-tickDone:
	case <-time.After(2 * time.Second):
		t.Fatal("tick never returned after delivery")
	}
}

func TestHalfwayDeliveredBeforeCompletion(t *testing.T) {
	n := &channelNotifier{ch: make(chan Timer)}
	h := newHub(nil, n, time.Hour)
	t.Cleanup(h.Close)

	// Duration 1 with the alert on: the final tick queues the halfway
	// event and then the completion, and delivery keeps that order.
	tm, err := h.Add(Spec{Name: "a", Duration: 1, Category: "c", HalfwayAlert: true})
	if err != nil {
		t.Fatal(err)
	}
	h.Start(tm.ID)

	go h.tick(tm.ID)

	first := <-n.ch
	second := <-n.ch
	if !first.HalfwayAlertTriggered || first.Status != StatusRunning {
		t.Fatalf("first event = %+v, want the halfway snapshot", first)
	}
	if second.Status != StatusCompleted {
		t.Fatalf("second event = %+v, want the completion snapshot", second)
	}
}

// ============================================================
// Completion pipeline
// ============================================================

func TestSamePassCompletionsKeepDetectionOrder(t *testing.T) {
	h, n := newTestHub(t)
	a := addTimer(t, h, "first", 1, "cat-a", false)
	b := addTimer(t, h, "second", 1, "cat-b", false)
	h.Start(a.ID)
	h.Start(b.ID)

	h.tick(a.ID)
	h.tick(b.ID)

	history := h.History()
	if len(history) != 2 {
		t.Fatalf("history = %d entries, want 2", len(history))
	}
	// Most-recent-first: the later detection is at the front.
	if history[0].TimerName != "second" || history[1].TimerName != "first" {
		t.Fatalf("history order = %q, %q", history[0].TimerName, history[1].TimerName)
	}

	// The acknowledgment queue is FIFO in detection order.
	first, _ := h.Acknowledge()
	second, _ := h.Acknowledge()
	if first.Name != "first" || second.Name != "second" {
		t.Fatalf("queue order = %q, %q", first.Name, second.Name)
	}

	if len(n.completed) != 2 || n.completed[0] != "first" {
		t.Fatalf("notification order = %v", n.completed)
	}
}

func TestAcknowledgeDequeuesOne(t *testing.T) {
	h, _ := newTestHub(t)
	for _, name := range []string{"a", "b", "c"} {
		tm := addTimer(t, h, name, 60, "c", false)
		h.Update(tm.ID, Patch{Status: statusPtr(StatusCompleted)})
	}

	if h.PendingCount() != 3 {
		t.Fatalf("pending = %d, want 3", h.PendingCount())
	}
	front, ok := h.PendingCompletion()
	if !ok || front.Name != "a" {
		t.Fatalf("front = %+v", front)
	}

	got, _ := h.Acknowledge()
	if got.Name != "a" || h.PendingCount() != 2 {
		t.Fatal("acknowledge must pop exactly the front entry")
	}
	if len(h.History()) != 3 {
		t.Fatal("acknowledge must not touch history")
	}

	h.Acknowledge()
	h.Acknowledge()
	if _, ok := h.Acknowledge(); ok {
		t.Fatal("acknowledge on an empty queue reports none")
	}
}

func TestHistoryEntrySnapshotsValues(t *testing.T) {
	h, _ := newTestHub(t)
	tm := addTimer(t, h, "Bread", 120, "Kitchen", false)
	h.Update(tm.ID, Patch{Status: statusPtr(StatusCompleted)})
	h.Delete(tm.ID)

	history := h.History()
	if len(history) != 1 {
		t.Fatalf("history = %d, want 1", len(history))
	}
	e := history[0]
	if e.TimerName != "Bread" || e.Category != "Kitchen" || e.Duration != 120 {
		t.Fatalf("entry not captured by value: %+v", e)
	}
	if e.ID == tm.ID {
		t.Fatal("history id must be independent of the timer id")
	}
	if e.CompletedAt.IsZero() {
		t.Fatal("completedAt must be stamped")
	}
}

func TestClearHistory(t *testing.T) {
	h, _ := newTestHub(t)
	tm := addTimer(t, h, "a", 60, "c", false)
	h.Update(tm.ID, Patch{Status: statusPtr(StatusCompleted)})

	h.ClearHistory()
	if len(h.History()) != 0 {
		t.Fatal("history should be empty after clear")
	}
}

// ============================================================
// Bulk actions
// ============================================================

func TestCategoryBulkActions(t *testing.T) {
	h, _ := newTestHub(t)
	a := addTimer(t, h, "a", 60, "work", false)
	b := addTimer(t, h, "b", 60, "work", false)
	c := addTimer(t, h, "c", 60, "home", false)

	// A completed timer in the category is skipped by start.
	h.Update(b.ID, Patch{Status: statusPtr(StatusCompleted)})

	h.StartCategory("work")
	if got, _ := h.Get(a.ID); got.Status != StatusRunning {
		t.Fatal("start all should start paused timers in the category")
	}
	if got, _ := h.Get(b.ID); got.Status != StatusCompleted {
		t.Fatal("start all must skip completed timers")
	}
	if got, _ := h.Get(c.ID); got.Status != StatusPaused {
		t.Fatal("other categories must be untouched")
	}

	h.PauseCategory("work")
	if got, _ := h.Get(a.ID); got.Status != StatusPaused {
		t.Fatal("pause all should pause running timers in the category")
	}

	h.ResetCategory("work")
	if got, _ := h.Get(b.ID); got.Status != StatusPaused || got.RemainingTime != 60 {
		t.Fatal("reset all re-opens completed timers in the category")
	}
}

func TestGlobalBulkActions(t *testing.T) {
	h, _ := newTestHub(t)
	a := addTimer(t, h, "a", 60, "work", false)
	b := addTimer(t, h, "b", 60, "home", false)

	h.StartAll()
	ga, _ := h.Get(a.ID)
	gb, _ := h.Get(b.ID)
	if ga.Status != StatusRunning || gb.Status != StatusRunning {
		t.Fatal("start all spans every category")
	}

	tickAll(h, 3)

	h.PauseAll()
	ga, _ = h.Get(a.ID)
	gb, _ = h.Get(b.ID)
	if ga.Status != StatusPaused || gb.Status != StatusPaused {
		t.Fatal("pause all spans every category")
	}
	if ga.RemainingTime != 57 {
		t.Fatalf("remaining = %d after three ticks, want 57", ga.RemainingTime)
	}

	h.ResetAll()
	ga, _ = h.Get(a.ID)
	if ga.RemainingTime != 60 {
		t.Fatal("reset all restores remaining time")
	}
}

// tickAll advances every timer n ticks regardless of category.
func tickAll(h *Hub, n int) {
	for _, t := range h.List() {
		for i := 0; i < n; i++ {
			h.tick(t.ID)
		}
	}
}

// ============================================================
// Categories helper
// ============================================================

func TestCategoriesSortedUnique(t *testing.T) {
	h, _ := newTestHub(t)
	addTimer(t, h, "a", 60, "zeta", false)
	addTimer(t, h, "b", 60, "alpha", false)
	addTimer(t, h, "c", 60, "zeta", false)

	got := h.Categories()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "zeta" {
		t.Fatalf("categories = %v", got)
	}
}

// ============================================================
// Real-time scheduling
// ============================================================

func TestSchedulerDrivesCountdown(t *testing.T) {
	n := &recordingNotifier{}
	h := newHub(nil, n, 5*time.Millisecond)
	t.Cleanup(h.Close)

	tm, err := h.Add(Spec{Name: "quick", Duration: 2, Category: "c"})
	if err != nil {
		t.Fatal(err)
	}
	h.Start(tm.ID)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if got, _ := h.Get(tm.ID); got.Status == StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timer never completed under the real scheduler")
		}
		time.Sleep(time.Millisecond)
	}

	if len(h.History()) != 1 || h.PendingCount() != 1 {
		t.Fatal("exactly one completion expected")
	}
}

func TestPauseStopsScheduledTicks(t *testing.T) {
	h := newHub(nil, nil, 5*time.Millisecond)
	t.Cleanup(h.Close)

	tm, _ := h.Add(Spec{Name: "a", Duration: 1000, Category: "c"})
	h.Start(tm.ID)
	time.Sleep(20 * time.Millisecond)
	h.Pause(tm.ID)

	got, _ := h.Get(tm.ID)
	frozen := got.RemainingTime
	time.Sleep(30 * time.Millisecond)
	got, _ = h.Get(tm.ID)
	if got.RemainingTime != frozen {
		t.Fatalf("remaining moved from %d to %d while paused", frozen, got.RemainingTime)
	}
}

// ============================================================
// Gateway mirroring
// ============================================================

type fakeGateway struct {
	mu        sync.Mutex
	timers    []Timer
	history   []HistoryEntry
	saveCalls int
	failSaves bool
}

func (g *fakeGateway) SaveTimers(ts []Timer) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saveCalls++
	if g.failSaves {
		return errors.New("quota exceeded")
	}
	g.timers = ts
	return nil
}

func (g *fakeGateway) LoadTimers() ([]Timer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timers, nil
}

func (g *fakeGateway) SaveHistory(hs []HistoryEntry) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSaves {
		return errors.New("quota exceeded")
	}
	g.history = hs
	return nil
}

func (g *fakeGateway) LoadHistory() ([]HistoryEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.history, nil
}

func (g *fakeGateway) savedTimers() []Timer {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timers
}

func TestHubMirrorsToGateway(t *testing.T) {
	gw := &fakeGateway{}
	h := newHub(gw, nil, time.Hour)
	t.Cleanup(h.Close)

	tm, err := h.Add(Spec{Name: "a", Duration: 60, Category: "c"})
	if err != nil {
		t.Fatal(err)
	}
	if got := gw.savedTimers(); len(got) != 1 || got[0].ID != tm.ID {
		t.Fatalf("gateway not mirrored after add: %+v", got)
	}

	h.Delete(tm.ID)
	if got := gw.savedTimers(); len(got) != 0 {
		t.Fatal("gateway not mirrored after delete")
	}
}

func TestHubLoadsPersistedState(t *testing.T) {
	gw := &fakeGateway{
		timers: []Timer{
			{ID: "t1", Name: "loaded", Duration: 60, RemainingTime: 30, Category: "c", Status: StatusRunning},
			{ID: "t2", Name: "broken", Duration: 0, Category: "c", Status: StatusPaused},
			{ID: "t3", Name: "over", Duration: 10, RemainingTime: 99, Category: "c", Status: "bogus"},
		},
		history: []HistoryEntry{{ID: "h1", TimerName: "old", Category: "c", Duration: 5}},
	}
	h := newHub(gw, nil, time.Hour)
	t.Cleanup(h.Close)

	got := h.List()
	if len(got) != 2 {
		t.Fatalf("loaded %d timers, want 2 (invalid record dropped)", len(got))
	}
	if got[0].ID != "t1" || got[0].Status != StatusRunning {
		t.Fatalf("first loaded timer = %+v", got[0])
	}
	if !h.sched.armed("t1") {
		t.Fatal("a timer persisted as running must resume ticking")
	}
	if got[1].RemainingTime != 10 || got[1].Status != StatusPaused {
		t.Fatalf("loaded record not repaired: %+v", got[1])
	}
	if len(h.History()) != 1 {
		t.Fatal("history not loaded")
	}
}

func TestSaveFailureIsSwallowed(t *testing.T) {
	gw := &fakeGateway{failSaves: true}
	h := newHub(gw, nil, time.Hour)
	t.Cleanup(h.Close)

	tm, err := h.Add(Spec{Name: "a", Duration: 60, Category: "c"})
	if err != nil {
		t.Fatalf("save failure must not surface from Add: %v", err)
	}
	h.Start(tm.ID)
	h.tick(tm.ID)
	if got, _ := h.Get(tm.ID); got.RemainingTime != 59 {
		t.Fatal("in-memory state must stay correct despite save failures")
	}
}
