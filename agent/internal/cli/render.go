package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/decisionstack/decisionstack/pkg/types"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Width(24)

	levelColors = map[string]lipgloss.Color{
		"High":   lipgloss.Color("9"),
		"Medium": lipgloss.Color("11"),
		"Low":    lipgloss.Color("10"),
	}
)

func levelStyle(level string) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	if c, ok := levelColors[level]; ok {
		s = s.Foreground(c)
	}
	return s
}

func row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  %s%s\n", labelStyle.Render(label), value)
}

// renderReport formats a report for a terminal.
func renderReport(r types.Report) string {
	var b strings.Builder

	title := r.Title
	if title == "" {
		title = r.SourceID
	}
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("%s: %s", title, r.Metric)))
	fmt.Fprintf(&b, "%d records (baseline %d, recent %d)\n\n", r.TotalRecords, r.BaselineN, r.RecentN)

	fmt.Fprintln(&b, headingStyle.Render("Decision"))
	row(&b, "Readiness score", fmt.Sprintf("%d / 100", r.Score))
	row(&b, "Priority", levelStyle(r.Priority).Render(r.Priority))
	row(&b, "Confidence", levelStyle(r.Confidence).Render(r.Confidence))
	row(&b, "Stability", levelStyle(r.Stability).Render(r.Stability))
	b.WriteString("\n")

	fmt.Fprintln(&b, headingStyle.Render("Rationale"))
	for _, reason := range r.Reasons {
		fmt.Fprintf(&b, "  - %s\n", reason)
	}
	b.WriteString("\n")

	fmt.Fprintln(&b, headingStyle.Render("Signals"))
	row(&b, "Change ratio", fmt.Sprintf("%+.4f", r.Signals.ChangeRatio))
	row(&b, "Variability ratio", fmt.Sprintf("%.4f", r.Signals.VariabilityRatio))
	row(&b, "Trend consistency", fmt.Sprintf("%.4f", r.Signals.TrendConsistency))
	b.WriteString("\n")

	sc := r.Scenario
	fmt.Fprintln(&b, headingStyle.Render(fmt.Sprintf("What if (drop %d%%, variability +%d%%)", sc.DropPct, sc.VariabilityPct)))
	row(&b, "Simulated change", fmt.Sprintf("%+.4f", sc.SimChange))
	row(&b, "Simulated variability", fmt.Sprintf("%.4f", sc.SimVariability))
	row(&b, "Priority", fmt.Sprintf("%s -> %s",
		levelStyle(r.Priority).Render(r.Priority),
		levelStyle(sc.SimPriority).Render(sc.SimPriority)))
	b.WriteString("\n")

	fmt.Fprintln(&b, headingStyle.Render("Recommended actions"))
	for _, a := range r.Actions {
		fmt.Fprintf(&b, "  - %s\n", a)
	}
	return b.String()
}
