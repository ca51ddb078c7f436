package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ZeruiLi/FocusOrb/internal/stats"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	FocusSec  int64  `json:"focus_seconds"`
	BreakSec  int64  `json:"break_seconds"`
	Total     string `json:"total"`
	Mood      string `json:"mood,omitempty"`
}

func ToJSON(sessions []stats.Session, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	for _, s := range sessions {
		out.Sessions = append(out.Sessions, jsonSession{
			ID:        s.ID,
			StartTime: s.Start.Local().Format(time.RFC3339),
			EndTime:   s.End.Local().Format(time.RFC3339),
			FocusSec:  int64(s.Focus.Seconds()),
			BreakSec:  int64(s.Break.Seconds()),
			Total:     formatDuration(s.Total()),
			Mood:      s.Mood,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
