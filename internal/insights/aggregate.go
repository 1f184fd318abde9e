// Package insights folds tagged tickets into per-category counts, sample
// excerpts, the categorized rows and the unmatched bucket.
package insights

import (
	"sort"

	"ticketinsights/internal/domain"
	"ticketinsights/internal/textnorm"
)

const (
	SampleCap              = 3
	DefaultExcerptMaxChars = 200
	MinExcerptMaxChars     = 150
	MaxExcerptMaxChars     = 300
)

type CategoryInsight struct {
	Label     string
	Count     int
	Excerpts  []string
	TicketIDs []string
}

// InsightSummary keeps categories in the order they were first seen.
type InsightSummary struct {
	order   []string
	byLabel map[string]*CategoryInsight
}

func newSummary() *InsightSummary {
	return &InsightSummary{byLabel: make(map[string]*CategoryInsight)}
}

// Labels returns the category labels in fold (first-seen) order.
func (s *InsightSummary) Labels() []string {
	return append([]string(nil), s.order...)
}

func (s *InsightSummary) Get(label string) (CategoryInsight, bool) {
	ci, ok := s.byLabel[label]
	if !ok {
		return CategoryInsight{}, false
	}
	return *ci, true
}

func (s *InsightSummary) Len() int { return len(s.order) }

// InFoldOrder returns categories as they were first encountered.
func (s *InsightSummary) InFoldOrder() []CategoryInsight {
	out := make([]CategoryInsight, 0, len(s.order))
	for _, label := range s.order {
		out = append(out, *s.byLabel[label])
	}
	return out
}

// ByCount returns categories by descending count; equal counts keep
// first-seen order.
func (s *InsightSummary) ByCount() []CategoryInsight {
	out := s.InFoldOrder()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Categorized sums the counts of every category.
func (s *InsightSummary) Categorized() int {
	n := 0
	for _, ci := range s.byLabel {
		n += ci.Count
	}
	return n
}

type CategorizedRow struct {
	Label  string
	Ticket domain.CategorizedTicket
}

type Result struct {
	Summary   *InsightSummary
	Rows      []CategorizedRow
	Unmatched []string
	Tickets   []domain.CategorizedTicket
}

func (r Result) Total() int { return len(r.Tickets) }

type Aggregator struct {
	ExcerptMaxChars int
}

// ClampExcerpt keeps the excerpt length inside the supported 150-300 range.
func ClampExcerpt(n int) int {
	switch {
	case n <= 0:
		return DefaultExcerptMaxChars
	case n < MinExcerptMaxChars:
		return MinExcerptMaxChars
	case n > MaxExcerptMaxChars:
		return MaxExcerptMaxChars
	}
	return n
}

// Aggregate folds tickets in input order.
func (a Aggregator) Aggregate(tickets []domain.CategorizedTicket) Result {
	maxChars := ClampExcerpt(a.ExcerptMaxChars)
	res := Result{Summary: newSummary(), Tickets: tickets}

	for _, t := range tickets {
		label := t.Trend.Label
		if label == "" {
			res.Unmatched = append(res.Unmatched, t.Ticket.ProblemText)
			continue
		}

		ci, ok := res.Summary.byLabel[label]
		if !ok {
			ci = &CategoryInsight{Label: label}
			res.Summary.byLabel[label] = ci
			res.Summary.order = append(res.Summary.order, label)
		}
		ci.Count++
		ci.TicketIDs = append(ci.TicketIDs, t.Ticket.ID)
		if len(ci.Excerpts) < SampleCap {
			ci.Excerpts = append(ci.Excerpts, textnorm.Truncate(t.Ticket.ProblemText, maxChars))
		}
		res.Rows = append(res.Rows, CategorizedRow{Label: label, Ticket: t})
	}
	return res
}

func Aggregate(tickets []domain.CategorizedTicket) Result {
	return Aggregator{}.Aggregate(tickets)
}
