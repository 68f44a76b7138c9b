package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/mediaq/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func statusStyle(status string) lipgloss.Style {
	switch domain.JobStatus(status) {
	case domain.JobStatusCompleted:
		return okStyle
	case domain.JobStatusFailed:
		return errorStyle
	case domain.JobStatusCanceled, domain.JobStatusCancelling:
		return warnStyle
	default:
		return mutedStyle
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// historyTable renders entries as fixed-width rows inside a panel.
func historyTable(entries []domain.JobHistoryEntry) string {
	if len(entries) == 0 {
		return mutedStyle.Render("no jobs recorded")
	}

	nameWidth := len("NAME")
	for _, e := range entries {
		nameWidth = max(nameWidth, len(e.Name))
	}
	nameWidth = min(nameWidth, 32)

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%-8s  %-*s  %-10s  %-8s  %s", "ID", nameWidth, "NAME", "STATUS", "TOOK", "DETAIL")))
	for _, e := range entries {
		b.WriteByte('\n')
		status := statusStyle(string(e.Status)).Render(fmt.Sprintf("%-10s", e.Status))
		detail := e.OutputPath
		if e.ErrorMessage != "" {
			detail = e.ErrorMessage
		}
		fmt.Fprintf(&b, "%-8s  %-*s  %s  %-8s  %s",
			shortID(e.JobID), nameWidth, truncate(e.Name, nameWidth), status, took(e), detail)
	}
	return panelStyle.Render(b.String())
}

func took(e domain.JobHistoryEntry) string {
	if e.StartedAt.IsZero() || e.FinishedAt.Before(e.StartedAt) {
		return "-"
	}
	return e.FinishedAt.Sub(e.StartedAt).Round(100 * time.Millisecond).String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
