package tui

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/timerhub/internal/timer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimers viewState = iota
	viewHistory
	viewStats
)

var viewNames = []string{"Timers", "History", "Stats"}

// --- Messages ---

type tickMsg time.Time

type statusMsg struct {
	text    string
	isError bool
}

// halfwayMsg arrives when a running timer crosses half of its duration.
type halfwayMsg struct {
	timer timer.Timer
}

// completedMsg arrives when a timer finishes its countdown.
type completedMsg struct {
	timer timer.Timer
}

type exportDoneMsg struct {
	path string
}

// --- Notifier relay ---

// Relay forwards hub events into the Bubble Tea program. Events arriving
// before Attach are dropped; the program is not running yet and the views
// render from the hub anyway.
type Relay struct {
	program atomic.Pointer[tea.Program]
}

func NewRelay() *Relay {
	return &Relay{}
}

// Attach binds the relay to a running program.
func (r *Relay) Attach(p *tea.Program) {
	r.program.Store(p)
}

func (r *Relay) HalfwayReached(t timer.Timer) {
	if p := r.program.Load(); p != nil {
		p.Send(halfwayMsg{timer: t})
	}
}

func (r *Relay) TimerCompleted(t timer.Timer) {
	if p := r.program.Load(); p != nil {
		p.Send(completedMsg{timer: t})
	}
}
