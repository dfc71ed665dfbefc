package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/pagegest/internal/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

func statusStyle(s pipeline.JobStatus) lipgloss.Style {
	switch s {
	case pipeline.StatusCompleted:
		return successStyle
	case pipeline.StatusPartial, pipeline.StatusDupSkipped:
		return warnStyle
	case pipeline.StatusFailed:
		return errorStyle
	}
	return dimStyle
}

// printSummary writes one line per file and a boxed total.
func printSummary(w io.Writer, snaps []pipeline.JobSnapshot, lat pipeline.StatsSnapshot, elapsed time.Duration) {
	counts := make(map[pipeline.JobStatus]int)
	chunks, tokens := 0, 0

	for _, s := range snaps {
		counts[s.Status]++
		chunks += s.Progress.TotalChunks
		tokens += s.Progress.EstimatedTokens

		line := fmt.Sprintf("%-18s %s", statusStyle(s.Status).Render(string(s.Status)), s.Filename)
		switch {
		case s.DuplicateOf != "":
			line += dimStyle.Render(" (same as " + s.DuplicateOf + ")")
		case s.DocID != "":
			line += dimStyle.Render(fmt.Sprintf(" → %s, %d chunks", s.DocID, s.Progress.TotalChunks))
		}
		fmt.Fprintln(w, line)
		for _, e := range s.Progress.Errors {
			fmt.Fprintln(w, "  "+errorStyle.Render(e))
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("pagegest ingest") + "\n")
	fmt.Fprintf(&b, "files      %d\n", len(snaps))
	fmt.Fprintf(&b, "completed  %s\n", successStyle.Render(fmt.Sprint(counts[pipeline.StatusCompleted])))
	if n := counts[pipeline.StatusPartial]; n > 0 {
		fmt.Fprintf(&b, "partial    %s\n", warnStyle.Render(fmt.Sprint(n)))
	}
	if n := counts[pipeline.StatusDupSkipped]; n > 0 {
		fmt.Fprintf(&b, "duplicates %s\n", warnStyle.Render(fmt.Sprint(n)))
	}
	if n := counts[pipeline.StatusFailed]; n > 0 {
		fmt.Fprintf(&b, "failed     %s\n", errorStyle.Render(fmt.Sprint(n)))
	}
	fmt.Fprintf(&b, "chunks     %d\n", chunks)
	fmt.Fprintf(&b, "tokens     ~%d\n", tokens)
	b.WriteString(dimStyle.Render(latencyLine(elapsed, lat)))

	fmt.Fprintln(w, boxStyle.Render(b.String()))
}

// latencyLine reports wall time plus p50/p95 for each phase that ran.
func latencyLine(elapsed time.Duration, lat pipeline.StatsSnapshot) string {
	parts := []string{elapsed.Round(time.Millisecond).String() + " wall"}
	for _, ph := range pipeline.Phases {
		l, ok := lat[ph]
		if !ok || l.Count == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s p50 %dms p95 %dms", ph, l.P50Ms, l.P95Ms))
	}
	return strings.Join(parts, ", ")
}
