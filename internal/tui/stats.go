package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/timerhub/internal/timer"
)

// statsModel charts completions per day over the last week, one bar
// segment per category.
type statsModel struct {
	hub    *timer.Hub
	width  int
	height int

	entries []timer.HistoryEntry
	chart   barchart.Model
}

func newStatsModel(hub *timer.Hub) statsModel {
	return statsModel{
		hub:   hub,
		chart: barchart.New(60, 12),
	}
}

func (s *statsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type statsDataMsg struct {
	entries []timer.HistoryEntry
}

func (s statsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return statsDataMsg{entries: s.hub.History()}
	}
}

func (s statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	if msg, ok := msg.(statsDataMsg); ok {
		s.entries = msg.entries
		s.buildChart()
	}
	return s, nil
}

// categoryStyle assigns each category a stable color from the palette.
func categoryStyle(cat string, order map[string]int) lipgloss.Style {
	i, ok := order[cat]
	if !ok {
		i = len(order)
		order[cat] = i
	}
	return lipgloss.NewStyle().Foreground(categoryColors[i%len(categoryColors)])
}

func (s *statsModel) buildChart() {
	chartWidth := s.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if s.height > 30 {
		chartHeight = 16
	}

	s.chart = barchart.New(chartWidth, chartHeight)

	// Completion counts per day per category for the trailing week.
	type dayKey struct{ date, category string }
	counts := make(map[dayKey]int)
	for _, e := range s.entries {
		counts[dayKey{e.CompletedAt.Local().Format("2006-01-02"), e.Category}]++
	}

	order := make(map[string]int)
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var bars []barchart.BarData
	for d := today.AddDate(0, 0, -6); !d.After(today); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		label := d.Format("Mon 02")

		var values []barchart.BarValue
		for _, cat := range s.chartCategories() {
			if n := counts[dayKey{dateStr, cat}]; n > 0 {
				values = append(values, barchart.BarValue{
					Name:  cat,
					Value: float64(n),
					Style: categoryStyle(cat, order),
				})
			}
		}

		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: values,
		})
	}

	s.chart.PushAll(bars)
	s.chart.Draw()
}

// chartCategories lists the categories appearing in history, oldest
// completion first so colors stay stable as new entries arrive.
func (s statsModel) chartCategories() []string {
	seen := make(map[string]bool)
	var cats []string
	for i := len(s.entries) - 1; i >= 0; i-- {
		if !seen[s.entries[i].Category] {
			seen[s.entries[i].Category] = true
			cats = append(cats, s.entries[i].Category)
		}
	}
	return cats
}

func (s statsModel) view() string {
	w := s.width - 4

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Stats"),
		"  ",
		mutedStyle.Render("completions per day, last 7 days"),
	)

	if len(s.entries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			mutedStyle.Render("Nothing completed yet."),
		)
		return panelStyle.Width(w).Render(content)
	}

	legend := s.renderLegend()
	total := fmt.Sprintf("  %d completions total", len(s.entries))

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", s.chart.View(), "", legend, mutedStyle.Render(total),
		),
	)
}

func (s statsModel) renderLegend() string {
	order := make(map[string]int)
	var items []string
	for _, cat := range s.chartCategories() {
		dot := categoryStyle(cat, order).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, cat))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
