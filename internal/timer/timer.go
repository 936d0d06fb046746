package timer

import "time"

// Status is the lifecycle state of a timer.
type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Timer is one user-defined countdown. JSON tags match the persisted
// encoding under the "timer-hub-timers" key.
type Timer struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Duration              int    `json:"duration"` // total seconds, fixed after creation
	RemainingTime         int    `json:"remainingTime"`
	Category              string `json:"category"`
	Status                Status `json:"status"`
	HalfwayAlert          bool   `json:"halfwayAlert,omitempty"`
	HalfwayAlertTriggered bool   `json:"halfwayAlertTriggered,omitempty"`
}

// HistoryEntry is an immutable record of one completion. The fields are
// captured by value at completion time; the originating timer may be
// deleted afterwards.
type HistoryEntry struct {
	ID          string    `json:"id"`
	TimerName   string    `json:"timerName"`
	Category    string    `json:"category"`
	Duration    int       `json:"duration"`
	CompletedAt time.Time `json:"completedAt"`
}

// Spec describes a timer to be created. Status, remaining time and the
// halfway latch are forced by Add regardless of caller input.
type Spec struct {
	Name         string
	Duration     int
	Category     string
	HalfwayAlert bool
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Name                  *string
	Category              *string
	RemainingTime         *int
	Status                *Status
	HalfwayAlert          *bool
	HalfwayAlertTriggered *bool
}

// CategoryGroup is a derived view of the timers sharing one category.
type CategoryGroup struct {
	Category   string
	Timers     []Timer
	IsExpanded bool
}

// Gateway mirrors the timer collection and history to durable storage.
// Loads on missing or corrupt data return empty slices, not errors.
type Gateway interface {
	SaveTimers([]Timer) error
	LoadTimers() ([]Timer, error)
	SaveHistory([]HistoryEntry) error
	LoadHistory() ([]HistoryEntry, error)
}

// Notifier receives user-facing notification events. Events are delivered
// after the triggering mutation has fully applied, with no hub lock held,
// so implementations may block or call back into the Hub.
type Notifier interface {
	HalfwayReached(t Timer)
	TimerCompleted(t Timer)
}
