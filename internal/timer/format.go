package timer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	secondsPattern  = regexp.MustCompile(`^\d+$`)
	minSecPattern   = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	hrMinSecPattern = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`)
)

// ParseTimeInput converts a human time string into seconds. Accepted shapes
// are pure digits (seconds), M:SS and H:MM:SS. Anything else yields 0;
// callers reject non-positive durations separately.
func ParseTimeInput(input string) int {
	trimmed := strings.TrimSpace(input)

	switch {
	case secondsPattern.MatchString(trimmed):
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0
		}
		return n

	case minSecPattern.MatchString(trimmed):
		parts := strings.Split(trimmed, ":")
		m, _ := strconv.Atoi(parts[0])
		s, _ := strconv.Atoi(parts[1])
		return m*60 + s

	case hrMinSecPattern.MatchString(trimmed):
		parts := strings.Split(trimmed, ":")
		h, _ := strconv.Atoi(parts[0])
		m, _ := strconv.Atoi(parts[1])
		s, _ := strconv.Atoi(parts[2])
		return h*3600 + m*60 + s
	}

	return 0
}

// FormatTime renders seconds as M:SS, or H:MM:SS from one hour up.
// Minutes and seconds are zero-padded; the leading unit is not.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatDuration renders seconds in a compact human form: "45s", "5m",
// "2m 30s", "1h 15m 10s".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		m := seconds / 60
		s := seconds % 60
		if s > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	}

	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	out := fmt.Sprintf("%dh", h)
	if m > 0 {
		out += fmt.Sprintf(" %dm", m)
	}
	if s > 0 {
		out += fmt.Sprintf(" %ds", s)
	}
	return out
}
