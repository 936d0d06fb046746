package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/timerhub/internal/timer"
)

type historyModel struct {
	hub    *timer.Hub
	width  int
	height int

	entries []timer.HistoryEntry
	filter  string // empty = all categories
}

func newHistoryModel(hub *timer.Hub) historyModel {
	return historyModel{hub: hub}
}

func (h *historyModel) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
}

type historyDataMsg struct {
	entries []timer.HistoryEntry
}

func (h historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return historyDataMsg{entries: h.hub.History()}
	}
}

// filtered returns the entries matching the active category filter,
// preserving most-recent-first order.
func (h historyModel) filtered() []timer.HistoryEntry {
	if h.filter == "" {
		return h.entries
	}
	var out []timer.HistoryEntry
	for _, e := range h.entries {
		if e.Category == h.filter {
			out = append(out, e)
		}
	}
	return out
}

// categories lists the distinct categories present in the history, in
// first-seen order (most recent completion first).
func (h historyModel) categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, e := range h.entries {
		if !seen[e.Category] {
			seen[e.Category] = true
			cats = append(cats, e.Category)
		}
	}
	return cats
}

// cycleFilter advances all → first category → ... → last → all.
func (h *historyModel) cycleFilter() {
	cats := h.categories()
	if len(cats) == 0 {
		h.filter = ""
		return
	}
	if h.filter == "" {
		h.filter = cats[0]
		return
	}
	for i, c := range cats {
		if c == h.filter {
			if i+1 < len(cats) {
				h.filter = cats[i+1]
			} else {
				h.filter = ""
			}
			return
		}
	}
	h.filter = ""
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		h.entries = msg.entries
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Filter):
			h.cycleFilter()
			return h, nil
		case key.Matches(msg, keys.Clear):
			h.hub.ClearHistory()
			h.filter = ""
			return h, tea.Batch(h.refresh(), func() tea.Msg {
				return statusMsg{text: "History cleared"}
			})
		}
	}
	return h, nil
}

func (h historyModel) view() string {
	w := h.width - 4

	if len(h.entries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("History"),
			"",
			mutedStyle.Render("No history yet. Complete some timers!"),
		)
		return panelStyle.Width(w).Render(content)
	}

	entries := h.filtered()

	filterLabel := "all categories"
	if h.filter != "" {
		filterLabel = h.filter
	}
	noun := "timers"
	if len(entries) == 1 {
		noun = "timer"
	}
	header := fmt.Sprintf("%s  %s",
		titleStyle.Render("History"),
		mutedStyle.Render(fmt.Sprintf("%d completed %s (%s)", len(entries), noun, filterLabel)),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, "")

	for _, e := range entries {
		when := e.CompletedAt.Local().Format("Jan 02 15:04")
		line := fmt.Sprintf("  %s %-24s %-14s %10s  %s",
			successStyle.Render("✓"),
			e.TimerName,
			mutedStyle.Render(e.Category),
			timer.FormatDuration(e.Duration),
			mutedStyle.Render(when),
		)
		lines = append(lines, line)
	}

	lines = append(lines, "")
	lines = append(lines, mutedStyle.Render("  f: filter  e: export  x: clear"))

	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}
