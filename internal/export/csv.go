package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/ZeruiLi/FocusOrb/internal/stats"
)

func ToCSV(sessions []stats.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Session", "Start", "End", "Focus (s)", "Break (s)", "Total", "Mood"}); err != nil {
		return err
	}

	for _, s := range sessions {
		row := []string{
			s.ID,
			s.Start.Local().Format(time.RFC3339),
			s.End.Local().Format(time.RFC3339),
			fmt.Sprintf("%d", int64(s.Focus.Seconds())),
			fmt.Sprintf("%d", int64(s.Break.Seconds())),
			formatDuration(s.Total()),
			s.Mood,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatDuration(d time.Duration) string {
	secs := int64(d.Seconds())
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
