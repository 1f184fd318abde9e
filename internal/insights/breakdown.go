package insights

import (
	"sort"

	"ticketinsights/internal/domain"
)

type Count struct {
	Name string
	N    int
}

// Breakdown is the per-field ticket tally printed alongside the trend report.
type Breakdown struct {
	Total       int
	ByPriority  []Count
	ByType      []Count
	ByIssueType []Count
}

func BuildBreakdown(tickets []domain.CategorizedTicket) Breakdown {
	priority := map[string]int{}
	types := map[string]int{}
	issues := map[string]int{}
	for _, t := range tickets {
		priority[t.Ticket.Priority]++
		types[t.Ticket.CurrentType]++
		issues[t.IssueType.LabelOr(domain.NotAvailable)]++
	}
	return Breakdown{
		Total:       len(tickets),
		ByPriority:  sortedCounts(priority),
		ByType:      sortedCounts(types),
		ByIssueType: sortedCounts(issues),
	}
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Name < out[j].Name
	})
	return out
}
