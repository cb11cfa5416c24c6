package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

const (
	minBarWidth = 20
	maxBarWidth = 60
	nameWidth   = 16
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	nameStyle    = lipgloss.NewStyle().Width(nameWidth).Foreground(lipgloss.Color("#CCCCCC"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func render(b Board) string {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth(b.Width)))
	rows := make([]string, 0, len(b.Transfers))
	for _, t := range b.Transfers {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center,
			nameStyle.Render(truncate(t.Name, nameWidth-1)),
			bar.ViewAs(float64(t.Progress)/100),
			"  ",
			transferLabel(t),
		))
	}
	if len(rows) == 0 {
		rows = append(rows, nameStyle.Render("no transfers configured"))
	}
	header := titleStyle.Render(fmt.Sprintf("⬡ THREADWORK · %ds", b.Elapsed))
	footer := footerStyle.Render(b.Status)
	hints := help.New().ShortHelpView([]key.Binding{keys.Pause, keys.Resume, keys.Quit})
	return strings.Join([]string{header, boxStyle.Render(strings.Join(rows, "\n")), footer, hints}, "\n")
}

func transferLabel(t Transfer) string {
	switch {
	case t.Done:
		return doneStyle.Render("done")
	case t.Paused:
		return pausedStyle.Render("paused")
	default:
		return runningStyle.Render("running")
	}
}

func barWidth(width int) int {
	w := width - nameWidth - 20
	if w < minBarWidth {
		return minBarWidth
	}
	if w > maxBarWidth {
		return maxBarWidth
	}
	return w
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
