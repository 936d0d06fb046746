package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/timerhub/internal/export"
	"github.com/sadopc/timerhub/internal/timer"
)

// App is the root Bubble Tea model.
type App struct {
	hub    *timer.Hub
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	timers  timersModel
	history historyModel
	stats   statsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(hub *timer.Hub) App {
	h := help.New()
	h.ShowAll = false

	return App{
		hub:        hub,
		activeView: viewTimers,
		timers:     newTimersModel(hub),
		history:    newHistoryModel(hub),
		stats:      newStatsModel(hub),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.history.refresh(),
		tickCmd(),
	)
}

// tickCmd drives the once-a-second re-render. The countdowns themselves
// tick inside the hub; this only refreshes the display.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timers.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// The completion modal captures input until acknowledged.
		if _, ok := a.hub.PendingCompletion(); ok {
			return a.updateCompletionModal(msg)
		}

		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If the add-timer form is capturing input, delegate first.
		if a.timers.formActive {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Export):
			if a.activeView == viewHistory {
				a.exportPicking = true
				a.exportCursor = 0
				return a, nil
			}
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimers
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewHistory
			return a, a.history.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewStats
			return a, a.stats.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 3
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		return a, tickCmd()

	case halfwayMsg:
		a.status = fmt.Sprintf("Halfway point: %s", msg.timer.Name)
		a.statusErr = false
		return a, nil

	case completedMsg:
		a.status = fmt.Sprintf("Completed: %s", msg.timer.Name)
		a.statusErr = false
		return a, tea.Batch(a.history.refresh(), a.stats.refresh())

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimers:
		a.timers, cmd = a.timers.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	}

	// Data messages are broadcast so background views stay current.
	switch msg.(type) {
	case historyDataMsg, statsDataMsg:
		if a.activeView != viewHistory {
			a.history, _ = a.history.update(msg)
		}
		if a.activeView != viewStats {
			a.stats, _ = a.stats.update(msg)
		}
	}
	return a, cmd
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewHistory:
		return a.history.refresh()
	case viewStats:
		return a.stats.refresh()
	}
	return nil
}

// updateCompletionModal handles input while a completion notice is shown.
// Enter or esc acknowledges exactly one queued completion; everything else
// is swallowed so a finished timer is never missed.
func (a App) updateCompletionModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Back):
		if t, ok := a.hub.Acknowledge(); ok {
			a.status = fmt.Sprintf("Nice work on %q!", t.Name)
			a.statusErr = false
		}
		return a, tea.Batch(a.history.refresh(), a.stats.refresh())
	case msg.String() == "ctrl+c":
		return a, tea.Quit
	}
	return a, nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimers:
		content = a.timers.view()
	case viewHistory:
		content = a.history.view()
	case viewStats:
		content = a.stats.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}
	if t, ok := a.hub.PendingCompletion(); ok {
		content = a.renderCompletionModal(t)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("timerhub")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Running-timer indicator in the footer
	running := 0
	for _, t := range a.hub.List() {
		if t.Status == timer.StatusRunning {
			running++
		}
	}
	indicator := ""
	if running > 0 {
		indicator = successStyle.Render(fmt.Sprintf(" ● %d running", running))
	}
	if n := a.hub.PendingCount(); n > 1 {
		indicator += warningStyle.Render(fmt.Sprintf("  %d more done", n-1))
	}

	left := footerStyle.Render(helpView)
	right := indicator + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderCompletionModal(t timer.Timer) string {
	title := successStyle.Bold(true).Render("Timer Complete!")

	rows := []string{
		title,
		"",
		titleStyle.Render(t.Name),
		mutedStyle.Render(fmt.Sprintf("%s · %s", t.Category, timer.FormatDuration(t.Duration))),
		"",
		mutedStyle.Render("  enter: dismiss"),
	}

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"JSON", "CSV"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the history view's filtered entries to the home
// directory in the chosen format.
func (a App) doExport(format int) tea.Cmd {
	entries := a.history.filtered()
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("timer-history-%s.json", dateStr))
			if err := export.ToJSON(entries, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("timer-history-%s.csv", dateStr))
			if err := export.ToCSV(entries, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
