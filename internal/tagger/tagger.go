// Package tagger runs the three independent classification passes over each
// ticket: trend category, ticket type and issue type.
package tagger

import (
	"context"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"ticketinsights/internal/classify"
	"ticketinsights/internal/domain"
	"ticketinsights/internal/rules"
	"ticketinsights/internal/textnorm"
)

// Tag classifies one record. Trend and ticket type are scored on the problem
// text, issue type on the resolution text. The passes do not influence each
// other, and the input record is not modified.
func Tag(record domain.TicketRecord, b rules.Bundle) domain.CategorizedTicket {
	rec := record.WithDefaults()
	problem := textnorm.Normalize(rec.ProblemText)
	resolution := textnorm.Normalize(rec.ResolutionText)

	return domain.CategorizedTicket{
		Ticket:     rec,
		Trend:      classify.ClassifyWithSet(problem, b.Trend),
		TicketType: classify.ClassifyWithSet(problem, b.TicketType),
		IssueType:  classify.ClassifyWithSet(resolution, b.IssueType),
	}
}

// TagAll tags records concurrently with at most workers goroutines (0 means
// GOMAXPROCS). The result keeps input order so the aggregation fold sees the
// same first-seen order on every run. Only context cancellation stops it
// early.
func TagAll(ctx context.Context, records []domain.TicketRecord, b rules.Bundle, workers int) ([]domain.CategorizedTicket, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]domain.CategorizedTicket, len(records))
	if len(records) == 0 {
		return out, nil
	}

	chunk := (len(records) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(records); start += chunk {
		end := min(start+chunk, len(records))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i] = Tag(records[i], b)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Printf("tag-batch tickets=%d workers=%d chunk=%d", len(records), workers, chunk)
	return out, nil
}
