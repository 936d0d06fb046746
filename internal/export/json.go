package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/timerhub/internal/timer"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          string `json:"id"`
	Timer       string `json:"timer"`
	Category    string `json:"category"`
	DurationSec int    `json:"duration_seconds"`
	Duration    string `json:"duration"`
	CompletedAt string `json:"completed_at"`
}

func ToJSON(entries []timer.HistoryEntry, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		export.Entries = append(export.Entries, jsonEntry{
			ID:          e.ID,
			Timer:       e.TimerName,
			Category:    e.Category,
			DurationSec: e.Duration,
			Duration:    timer.FormatDuration(e.Duration),
			CompletedAt: e.CompletedAt.Local().Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
