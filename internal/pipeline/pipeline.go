// Package pipeline runs one batch: ingest, tag, aggregate, report.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"ticketinsights/internal/domain"
	"ticketinsights/internal/ingest"
	"ticketinsights/internal/insights"
	"ticketinsights/internal/integrations/llm"
	slackbot "ticketinsights/internal/integrations/slack"
	"ticketinsights/internal/report"
	"ticketinsights/internal/rules"
	"ticketinsights/internal/storage/sqlite"
	"ticketinsights/internal/tagger"
)

// ErrNoTickets is returned when a batch had nothing to classify. The summary
// report is still written.
var ErrNoTickets = errors.New("no tickets to classify")

type Options struct {
	InputDir  string
	OutputDir string
	// RulesPath is optional; the built-in rule sets are used when empty.
	RulesPath string
	RunDate   time.Time

	// Zero keeps each rule set's own threshold.
	TrendThreshold int
	TypeThreshold  int
	IssueThreshold int

	ExcerptMaxChars   int
	UnmatchedMaxChars int
	Workers           int
	Title             string
	WriteEnriched     bool
}

// Deps holds the optional collaborators. Any nil field disables that step.
type Deps struct {
	DB         *sql.DB
	Summarizer *llm.Bounded
	Notifier   *slackbot.Notifier
}

type Result struct {
	RunID    string
	Insights insights.Result
	Outcome  report.Outcome
	// Malformed lists records that were classified with sentinel identity.
	Malformed []error
	// Warnings collects every non-fatal problem seen during the run.
	Warnings []error
}

// Run ingests opts.InputDir and processes the tickets found there.
func Run(ctx context.Context, opts Options, deps Deps) (Result, error) {
	if _, err := os.Stat(opts.InputDir); err != nil {
		return Result{}, fmt.Errorf("input dir: %w", err)
	}
	records, err := ingest.ParseDir(opts.InputDir)
	res, runErr := Process(ctx, records, opts, deps)
	if err != nil {
		res.Warnings = append(res.Warnings, err)
	}
	return res, runErr
}

// Process classifies records and emits every report artifact. Only context
// cancellation and an empty batch are returned as errors; everything else
// degrades and is listed in Result.Warnings.
func Process(ctx context.Context, records []domain.TicketRecord, opts Options, deps Deps) (Result, error) {
	if opts.RunDate.IsZero() {
		opts.RunDate = time.Now()
	}
	var res Result
	warn := func(err error) {
		if err != nil {
			log.Printf("pipeline warning: %v", err)
			res.Warnings = append(res.Warnings, err)
		}
	}

	for _, r := range records {
		if err := r.Validate(); err != nil {
			res.Malformed = append(res.Malformed, err)
		}
	}

	bundle, err := loadRules(opts.RulesPath)
	warn(err)
	warn(rules.ValidateLabels(bundle.TicketType, rules.TicketTypeReference))
	warn(rules.ValidateLabels(bundle.IssueType, rules.IssueTypeReference))
	bundle = bundle.WithThresholds(opts.TrendThreshold, opts.TypeThreshold, opts.IssueThreshold)
	log.Printf("rules loaded trend=%d/%d ticket_type=%d/%d issue_type=%d/%d",
		bundle.Trend.Len(), bundle.Trend.Threshold(),
		bundle.TicketType.Len(), bundle.TicketType.Threshold(),
		bundle.IssueType.Len(), bundle.IssueType.Threshold())

	tagged, err := tagger.TagAll(ctx, records, bundle, opts.Workers)
	if err != nil {
		return res, fmt.Errorf("tagging: %w", err)
	}
	res.Insights = insights.Aggregator{ExcerptMaxChars: opts.ExcerptMaxChars}.Aggregate(tagged)
	log.Printf("aggregate tickets=%d categories=%d unmatched=%d",
		res.Insights.Total(), res.Insights.Summary.Len(), len(res.Insights.Unmatched))

	data := report.Data{
		Title:     opts.Title,
		RunDate:   opts.RunDate,
		Result:    res.Insights,
		Breakdown: insights.BuildBreakdown(tagged),
	}

	if deps.DB != nil {
		res.RunID = sqlite.NewRunID(time.Now())
		prev, err := sqlite.LatestRunBefore(deps.DB, res.RunID)
		if err != nil {
			warn(fmt.Errorf("loading previous run: %w", err))
		} else if prev != nil {
			data.Previous = prev.Categories
		}
	}

	if deps.Summarizer != nil && res.Insights.Summary.Len() > 0 {
		excerpts := make(map[string][]string, res.Insights.Summary.Len())
		for _, ci := range res.Insights.Summary.InFoldOrder() {
			excerpts[ci.Label] = ci.Excerpts
		}
		data.Summaries = deps.Summarizer.SummarizeCategories(ctx, excerpts)
	}

	emitter := report.Emitter{
		OutputDir:         opts.OutputDir,
		UnmatchedMaxChars: opts.UnmatchedMaxChars,
		WriteEnriched:     opts.WriteEnriched,
	}
	res.Outcome = emitter.Emit(data)
	warn(res.Outcome.Err())

	if deps.DB != nil {
		warn(recordRun(deps.DB, res.RunID, opts.RunDate, res.Insights))
	}

	if deps.Notifier != nil {
		warn(deps.Notifier.NotifyRun(notification(opts.RunDate, res), reportPath(res.Outcome)))
	}

	if len(records) == 0 {
		return res, ErrNoTickets
	}
	return res, nil
}

func loadRules(path string) (rules.Bundle, error) {
	if path == "" {
		return rules.DefaultBundle(), nil
	}
	return rules.LoadFile(path)
}

func recordRun(db *sql.DB, runID string, runDate time.Time, r insights.Result) error {
	counts := make(map[string]int, r.Summary.Len())
	for _, ci := range r.Summary.InFoldOrder() {
		counts[ci.Label] = ci.Count
	}
	err := sqlite.InsertRun(db, sqlite.RunRecord{
		RunID:      runID,
		RunDate:    runDate,
		Total:      r.Total(),
		Unmatched:  len(r.Unmatched),
		Categories: counts,
	}, r.Summary.Labels())
	if err != nil {
		return fmt.Errorf("recording run history: %w", err)
	}
	log.Printf("run recorded run_id=%s", runID)
	return nil
}

func notification(runDate time.Time, res Result) slackbot.RunSummary {
	s := slackbot.RunSummary{
		RunDate:   runDate.Format(report.DateStampLayout),
		Total:     res.Insights.Total(),
		Unmatched: len(res.Insights.Unmatched),
	}
	for i, ci := range res.Insights.Summary.ByCount() {
		if i == 3 {
			break
		}
		s.TopCategories = append(s.TopCategories, fmt.Sprintf("%s (%d)", ci.Label, ci.Count))
	}
	for _, a := range res.Outcome.Artifacts {
		if a.Err != nil {
			s.FailedArtifact++
		}
	}
	return s
}

func reportPath(o report.Outcome) string {
	path, _ := o.Path(report.ArtifactSummary)
	return path
}
