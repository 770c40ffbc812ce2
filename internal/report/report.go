// Package report turns merged totals into console and CSV output.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/vezaxff/internal/model"
)

// ErrUnknownPlayer is returned when a total references a player missing from
// the report's friendlies.
var ErrUnknownPlayer = errors.New("unknown player")

const (
	// Every 5000 damage dealt through the mark heals Vezax for 100000.
	healDivisor = 5000
	healScale   = 100000

	tableTitle = "*** GENERAL VEZAX ***"
)

var titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)

// Healed converts friendly fire into Vezax healing. The division truncates
// before scaling, so only whole 5000-damage steps count.
func Healed(totalDamage int64) int64 {
	return totalDamage / healDivisor * healScale
}

// SortKey selects the ordering of report rows.
type SortKey int

const (
	ByDamage SortKey = iota
	ByDebuffs
)

// Build resolves names and orders rows by damage, highest first. Ties are
// ordered by player id.
func Build(total model.RunningTotal, dir model.PlayerDirectory) ([]model.PlayerTotal, error) {
	rows := make([]model.PlayerTotal, 0, len(total))
	for id, agg := range total {
		name, ok := dir[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownPlayer, id)
		}
		rows = append(rows, model.PlayerTotal{
			PlayerID:    id,
			Name:        name,
			DebuffCount: agg.DebuffCount,
			TotalDamage: agg.TotalDamage,
			Healed:      Healed(agg.TotalDamage),
		})
	}
	Sort(rows, ByDamage)
	return rows, nil
}

// Sort orders rows in place, descending on key.
func Sort(rows []model.PlayerTotal, key SortKey) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch key {
		case ByDebuffs:
			if a.DebuffCount != b.DebuffCount {
				return a.DebuffCount > b.DebuffCount
			}
			if a.TotalDamage != b.TotalDamage {
				return a.TotalDamage > b.TotalDamage
			}
		default:
			if a.TotalDamage != b.TotalDamage {
				return a.TotalDamage > b.TotalDamage
			}
		}
		return a.PlayerID < b.PlayerID
	})
}

// TableOptions controls console rendering.
type TableOptions struct {
	// Color styles the title for a terminal.
	Color bool
}

// Headers are the console column titles.
var Headers = []string{"Player", "# Debuffs", "Friendly Fire Dealt (pre-mit)", "Vezax Healed (pre-reductions)"}

// Cells formats one row for display.
func Cells(r model.PlayerTotal) []string {
	return []string{
		r.Name,
		strconv.Itoa(r.DebuffCount),
		humanize.Comma(r.TotalDamage),
		humanize.Comma(r.Healed),
	}
}

// RenderTable writes the fixed-width results table.
func RenderTable(w io.Writer, rows []model.PlayerTotal, opts TableOptions) error {
	title := tableTitle
	if opts.Color {
		title = titleStyle.Render(title)
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, Cells(r))
	}
	for _, line := range formatTable(Headers, cells, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No Mark of the Faceless debuffs found.")
		return err
	}
	return nil
}
