package report

import (
	"bytes"
	"encoding/csv"
	"strings"

	"ticketinsights/internal/domain"
	"ticketinsights/internal/insights"
	"ticketinsights/internal/textnorm"
)

var categoryMapHeader = []string{"Category", "Ticket ID", "Subject", "Created At", "Priority", "Type"}

var enrichedHeader = []string{
	"Ticket ID", "Subject", "Created At", "Priority", "Group ID",
	"Current Type", "Current Issue Type",
	"Trend Category", "Suggested Type", "Suggested Issue Type",
}

// RenderCategoryMap renders one CSV row per categorized ticket, in fold
// order. The Type column carries the suggested ticket type, falling back to
// the type the ticket already had.
func RenderCategoryMap(rows []insights.CategorizedRow) ([]byte, error) {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, categoryMapHeader)
	for _, r := range rows {
		t := r.Ticket.Ticket
		records = append(records, []string{
			r.Label,
			t.ID,
			t.Subject,
			t.CreatedAt,
			t.Priority,
			r.Ticket.TicketType.LabelOr(t.CurrentType),
		})
	}
	return encodeCSV(records)
}

// RenderEnriched joins the original ticket fields with all three tags.
func RenderEnriched(tickets []domain.CategorizedTicket) ([]byte, error) {
	records := make([][]string, 0, len(tickets)+1)
	records = append(records, enrichedHeader)
	for _, ct := range tickets {
		t := ct.Ticket
		records = append(records, []string{
			t.ID,
			t.Subject,
			t.CreatedAt,
			t.Priority,
			t.GroupID,
			t.CurrentType,
			t.CurrentIssueType,
			ct.Trend.LabelOr(domain.NotAvailable),
			ct.TicketType.LabelOr(domain.NotAvailable),
			ct.IssueType.LabelOr(domain.NotAvailable),
		})
	}
	return encodeCSV(records)
}

func encodeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const DefaultUnmatchedMaxChars = 500

// RenderUnmatched lists unmatched ticket texts, one paragraph each, for
// tuning the trend rules.
func RenderUnmatched(texts []string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultUnmatchedMaxChars
	}
	var b strings.Builder
	b.WriteString("Unmatched Samples\n")
	b.WriteString(strings.Repeat("=", 20) + "\n\n")
	for _, text := range texts {
		text = textnorm.Truncate(text, maxChars)
		if text == "" {
			text = "(no text)"
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String()
}
