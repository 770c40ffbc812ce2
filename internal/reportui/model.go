// Package reportui provides the Bubble Tea results browser.
package reportui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/vezaxff/internal/model"
	"github.com/verte-zerg/vezaxff/internal/report"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// Model implements the Bubble Tea results view.
type Model struct {
	rows     []model.PlayerTotal
	attempts int
	sortKey  report.SortKey
	table    table.Model

	width  int
	height int
}

// NewModel constructs a results model. rows are copied.
func NewModel(rows []model.PlayerTotal, attempts int) *Model {
	m := &Model{
		rows:     append([]model.PlayerTotal(nil), rows...),
		attempts: attempts,
		sortKey:  report.ByDamage,
	}
	m.table = table.New(
		table.WithColumns(columns(0)),
		table.WithFocused(true),
		table.WithHeight(1),
	)
	m.table.SetStyles(tableStyles())
	m.refreshRows()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "s":
			if m.sortKey == report.ByDamage {
				m.sortKey = report.ByDebuffs
			} else {
				m.sortKey = report.ByDamage
			}
			m.refreshRows()
			return m, nil
		case "g", "home":
			m.table.GotoTop()
			return m, nil
		case "G", "end":
			m.table.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	return strings.Join([]string{m.renderHeader(), m.table.View(), m.renderHelp()}, "\n")
}

// Selected returns the highlighted row.
func (m *Model) Selected() (model.PlayerTotal, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return model.PlayerTotal{}, false
	}
	return m.rows[idx], true
}

func (m *Model) renderHeader() string {
	sortLabel := "damage"
	if m.sortKey == report.ByDebuffs {
		sortLabel = "debuffs"
	}
	var total int64
	for _, r := range m.rows {
		total += r.TotalDamage
	}
	summary := fmt.Sprintf("%d players, %d attempts, %s friendly fire, sorted by %s",
		len(m.rows), m.attempts, report.Cells(model.PlayerTotal{TotalDamage: total})[2], sortLabel)
	return titleStyle.Render("General Vezax") + " " + headerStyle.Render(summary)
}

func (m *Model) renderHelp() string {
	return helpStyle.Render("↑/↓ move • g/G top/bottom • s toggle sort • q quit")
}

func (m *Model) refreshRows() {
	report.Sort(m.rows, m.sortKey)
	rows := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		rows = append(rows, table.Row(report.Cells(r)))
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *Model) updateLayout() {
	m.table.SetColumns(columns(m.width))
	m.table.SetWidth(m.width)
	// Header and help take one line each; the table header two.
	m.table.SetHeight(maxInt(1, m.height-4))
}

func columns(width int) []table.Column {
	cols := []table.Column{
		{Title: report.Headers[0], Width: 16},
		{Title: report.Headers[1], Width: 9},
		{Title: report.Headers[2], Width: 29},
		{Title: report.Headers[3], Width: 29},
	}
	used := 0
	for _, c := range cols {
		used += c.Width + 1
	}
	if width > used {
		cols[0].Width += width - used
	}
	return cols
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
