package report

import (
	"fmt"
	"strings"
	"time"

	"ticketinsights/internal/insights"
)

const DefaultTitle = "Customer Support Trends Report"

// Data is everything the emitter renders for one run.
type Data struct {
	Title     string
	RunDate   time.Time
	Result    insights.Result
	Breakdown insights.Breakdown
	// Previous holds category counts from the last stored run; nil when no
	// history is available.
	Previous map[string]int
	// Summaries holds optional per-category text keyed by label.
	Summaries map[string]string
}

// RenderSummary renders the human-readable trend report. Categories are
// listed by descending count.
func RenderSummary(d Data) string {
	title := d.Title
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", 40) + "\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", d.RunDate.Format(DateStampLayout))

	b.WriteString("Top Problem Categories:\n")
	b.WriteString(strings.Repeat("-", 30) + "\n\n")
	categories := d.Result.Summary.ByCount()
	if len(categories) == 0 {
		b.WriteString("No tickets matched a problem category.\n\n")
	}
	for _, ci := range categories {
		fmt.Fprintf(&b, "- %s (%d occurrences)%s\n", ci.Label, ci.Count, deltaSuffix(d.Previous, ci.Label, ci.Count))
		if s := strings.TrimSpace(d.Summaries[ci.Label]); s != "" {
			fmt.Fprintf(&b, "  Summary: %s\n", s)
		}
		for _, ex := range ci.Excerpts {
			fmt.Fprintf(&b, "    > %s\n", ex)
		}
		b.WriteString("\n")
	}

	b.WriteString("Ticket Breakdown:\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	fmt.Fprintf(&b, "Total tickets: %d\n", d.Result.Total())
	fmt.Fprintf(&b, "Categorized: %d\n", len(d.Result.Rows))
	fmt.Fprintf(&b, "Unmatched: %d\n", len(d.Result.Unmatched))
	writeCounts(&b, "By Priority", d.Breakdown.ByPriority)
	writeCounts(&b, "By Ticket Type", d.Breakdown.ByType)
	writeCounts(&b, "By Issue Type", d.Breakdown.ByIssueType)
	return b.String()
}

func deltaSuffix(previous map[string]int, label string, count int) string {
	if previous == nil {
		return ""
	}
	prev, ok := previous[label]
	if !ok {
		return " (new vs previous run)"
	}
	diff := count - prev
	switch {
	case diff > 0:
		return fmt.Sprintf(" (+%d vs previous run)", diff)
	case diff < 0:
		return fmt.Sprintf(" (%d vs previous run)", diff)
	}
	return " (unchanged vs previous run)"
}

func writeCounts(b *strings.Builder, heading string, counts []insights.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", heading)
	for _, c := range counts {
		fmt.Fprintf(b, "- %s: %d\n", c.Name, c.N)
	}
}
