package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/verte-zerg/vezaxff/internal/model"
)

// RenderAttempts lists encounter fights with their outcome and the window
// that would be analyzed. selected must be in fight order, as returned by
// analysis.SelectAttempts; fights without a window are marked skipped.
func RenderAttempts(w io.Writer, fights []model.Fight, selected []model.Attempt) error {
	headers := []string{"Fight", "Result", "Duration", "Window (ms)"}
	rows := make([][]string, 0, len(fights))
	next := 0
	for _, f := range fights {
		result := "wipe"
		if f.Kill {
			result = "kill"
		}
		window := "skipped"
		// Fight ids may be missing, so the start time disambiguates.
		if next < len(selected) && selected[next].FightID == f.ID && selected[next].Start == f.StartTime {
			window = fmt.Sprintf("%d-%d", selected[next].Start, selected[next].End)
			next++
		}
		rows = append(rows, []string{
			strconv.Itoa(f.ID),
			result,
			formatDuration(f.EndTime - f.StartTime),
			window,
		})
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No General Vezax attempts in this log.")
		return err
	}
	for _, line := range formatTable(headers, rows, map[int]bool{0: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
