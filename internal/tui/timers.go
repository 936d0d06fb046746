package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/timerhub/internal/timer"
)

type rowKind int

const (
	rowHeader rowKind = iota
	rowTimer
)

// listRow is one selectable line of the grouped timer list: either a
// category header or a timer inside an expanded category.
type listRow struct {
	kind     rowKind
	category string
	count    int
	timer    timer.Timer
}

type timersModel struct {
	hub     *timer.Hub
	grouper *timer.Grouper
	width   int
	height  int
	cursor  int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formName     *string
	formDuration *string
	formCategory *string
	formHalfway  *bool
}

func newTimersModel(hub *timer.Hub) timersModel {
	name, duration, category := "", "", ""
	halfway := false
	return timersModel{
		hub:          hub,
		grouper:      timer.NewGrouper(),
		formName:     &name,
		formDuration: &duration,
		formCategory: &category,
		formHalfway:  &halfway,
	}
}

func (m *timersModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

// rows flattens the derived category groups into the visible list.
func (m timersModel) rows() []listRow {
	groups := m.grouper.Derive(m.hub.List())
	var rows []listRow
	for _, g := range groups {
		rows = append(rows, listRow{kind: rowHeader, category: g.Category, count: len(g.Timers)})
		if !g.IsExpanded {
			continue
		}
		for _, t := range g.Timers {
			rows = append(rows, listRow{kind: rowTimer, category: g.Category, timer: t})
		}
	}
	return rows
}

func (m timersModel) selected() (listRow, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return listRow{}, false
	}
	return rows[m.cursor], true
}

func (m *timersModel) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m timersModel) update(msg tea.Msg) (timersModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows())-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if row, ok := m.selected(); ok {
				if row.kind == rowHeader {
					m.grouper.Toggle(row.category)
					m.clampCursor()
				} else {
					m.toggleTimer(row.timer)
				}
			}
		case key.Matches(msg, keys.Start):
			if row, ok := m.selected(); ok {
				if row.kind == rowHeader {
					m.hub.StartCategory(row.category)
				} else {
					m.hub.Start(row.timer.ID)
				}
			}
		case key.Matches(msg, keys.Pause):
			if row, ok := m.selected(); ok {
				if row.kind == rowHeader {
					m.hub.PauseCategory(row.category)
				} else {
					m.hub.Pause(row.timer.ID)
				}
			}
		case key.Matches(msg, keys.Reset):
			if row, ok := m.selected(); ok {
				if row.kind == rowHeader {
					m.hub.ResetCategory(row.category)
				} else {
					m.hub.Reset(row.timer.ID)
				}
			}
		case key.Matches(msg, keys.Delete):
			if row, ok := m.selected(); ok && row.kind == rowTimer {
				m.hub.Delete(row.timer.ID)
				m.clampCursor()
				return m, func() tea.Msg {
					return statusMsg{text: fmt.Sprintf("Deleted %q", row.timer.Name)}
				}
			}
		case key.Matches(msg, keys.StartAll):
			m.hub.StartAll()
		case key.Matches(msg, keys.PauseAll):
			m.hub.PauseAll()
		case key.Matches(msg, keys.ResetAll):
			m.hub.ResetAll()
		case key.Matches(msg, keys.New):
			return m.showAddForm()
		}
	}
	return m, nil
}

func (m timersModel) toggleTimer(t timer.Timer) {
	switch t.Status {
	case timer.StatusPaused:
		m.hub.Start(t.ID)
	case timer.StatusRunning:
		m.hub.Pause(t.ID)
	}
}

func (m timersModel) showAddForm() (timersModel, tea.Cmd) {
	*m.formName = ""
	*m.formDuration = ""
	*m.formCategory = ""
	*m.formHalfway = false

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Timer Name").
				Placeholder("e.g. Workout").
				Value(m.formName).
				Validate(validateNonEmpty("name")),
			huh.NewInput().
				Title("Duration").
				Description("M:SS, H:MM:SS, or seconds").
				Placeholder("5:00").
				Value(m.formDuration).
				Validate(validateDuration),
			huh.NewInput().
				Title("Category").
				Suggestions(m.hub.Categories()).
				Value(m.formCategory).
				Validate(validateNonEmpty("category")),
			huh.NewConfirm().
				Title("Halfway alert?").
				Value(m.formHalfway),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m timersModel) updateForm(msg tea.Msg) (timersModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		spec := timer.Spec{
			Name:         *m.formName,
			Duration:     timer.ParseTimeInput(*m.formDuration),
			Category:     *m.formCategory,
			HalfwayAlert: *m.formHalfway,
		}
		t, err := m.hub.Add(spec)
		if err != nil {
			return m, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
		}
		return m, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Added %q (%s)", t.Name, timer.FormatTime(t.Duration))}
		}
	}

	return m, cmd
}

func validateNonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateDuration(s string) error {
	if timer.ParseTimeInput(s) <= 0 {
		return fmt.Errorf("enter a positive duration")
	}
	return nil
}

func (m timersModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Timer")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	rows := m.rows()
	if len(rows) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Timers"),
			"",
			mutedStyle.Render("No timers yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var lines []string
	lines = append(lines, titleStyle.Render("Timers"))
	lines = append(lines, "")

	for i, row := range rows {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		if row.kind == rowHeader {
			lines = append(lines, m.renderHeaderRow(cursor, row, i == m.cursor))
		} else {
			lines = append(lines, m.renderTimerRow(cursor, row.timer, i == m.cursor))
		}
	}

	lines = append(lines, "")
	lines = append(lines, mutedStyle.Render("  s/p/r on a header applies to the whole category  S/P/R: all"))

	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func (m timersModel) renderHeaderRow(cursor string, row listRow, selected bool) string {
	chevron := "▸"
	if m.grouper.IsExpanded(row.category) {
		chevron = "▾"
	}
	noun := "timers"
	if row.count == 1 {
		noun = "timer"
	}
	label := fmt.Sprintf("%s%s %s", cursor, chevron, row.category)
	count := mutedStyle.Render(fmt.Sprintf(" (%d %s)", row.count, noun))

	style := titleStyle
	if selected {
		style = selectedItemStyle
	}
	return style.Render(label) + count
}

func (m timersModel) renderTimerRow(cursor string, t timer.Timer, selected bool) string {
	var icon, state string
	clock := timer.FormatTime(t.RemainingTime)

	switch t.Status {
	case timer.StatusRunning:
		icon = successStyle.Render("●")
		state = countdownRunningStyle.Render(clock)
	case timer.StatusPaused:
		icon = warningStyle.Render("⏸")
		state = countdownPausedStyle.Render(clock)
	case timer.StatusCompleted:
		icon = successStyle.Render("✓")
		state = countdownDoneStyle.Render("done")
	}

	name := t.Name
	if runes := []rune(name); len(runes) > 24 {
		name = string(runes[:21]) + "..."
	}

	style := normalItemStyle
	if selected {
		style = selectedItemStyle
	}

	line := fmt.Sprintf("%s  %s %s", cursor, icon, style.Render(fmt.Sprintf("%-24s", name)))
	line += fmt.Sprintf(" %s %s", state, mutedStyle.Render("/ "+timer.FormatTime(t.Duration)))
	if t.HalfwayAlert {
		marker := "½"
		if t.HalfwayAlertTriggered {
			marker = "½✓"
		}
		line += "  " + highlightStyle.Render(marker)
	}
	return line
}
