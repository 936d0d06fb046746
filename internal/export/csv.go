package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/timerhub/internal/timer"
)

func ToCSV(entries []timer.HistoryEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Timer", "Category", "Duration (s)", "Duration", "Completed At"}); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			e.ID,
			e.TimerName,
			e.Category,
			fmt.Sprintf("%d", e.Duration),
			timer.FormatDuration(e.Duration),
			e.CompletedAt.Local().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
