package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"ticketinsights/internal/pipeline"
)

var watchFlags struct {
	schedule string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a batch on a cron schedule until interrupted",
	Long: "watch runs the same batch as 'run' on a standard 5-field cron expression\n" +
		"(minute hour day-of-month month day-of-week), e.g. \"0 9 * * 1-5\" for weekdays at 9am.",
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchFlags.schedule, "schedule", "", "Cron expression (overrides schedule)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if watchFlags.schedule != "" {
		cfg.Schedule = watchFlags.schedule
	}
	if cfg.InputDir == "" || cfg.OutputDir == "" {
		return errors.New("input_dir and output_dir are required for watch")
	}
	sched, err := parseSchedule(cfg.Schedule)
	if err != nil {
		return err
	}
	log.Printf("Batch runs scheduled (cron: %s) input=%s", strings.TrimSpace(cfg.Schedule), cfg.InputDir)

	rt := newServices(cfg)
	defer rt.Close()

	runScheduled(cmd.Context(), sched, cfg.Location, func(now time.Time) {
		res, err := pipeline.Run(cmd.Context(), pipelineOptions(cfg, now), rt.deps)
		switch {
		case errors.Is(err, pipeline.ErrNoTickets):
			log.Printf("Scheduled run found no tickets in %s", cfg.InputDir)
		case err != nil:
			log.Printf("Scheduled run error: %v", err)
		default:
			log.Printf("Scheduled run complete: tickets=%d unmatched=%d artifacts=%d warnings=%d",
				res.Insights.Total(), len(res.Insights.Unmatched), len(res.Outcome.Written()), len(res.Warnings))
		}
	})
	return nil
}

func parseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("schedule is not set (config schedule or --schedule)")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule '%s': %w", expr, err)
	}
	return sched, nil
}

// runScheduled calls run at every activation of sched until ctx is done.
func runScheduled(ctx context.Context, sched cron.Schedule, loc *time.Location, run func(time.Time)) {
	if loc == nil {
		loc = time.Local
	}
	for {
		now := time.Now().In(loc)
		next := sched.Next(now)
		wait := next.Sub(now)
		log.Printf("Next batch run at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("Scheduler stopped: %v", ctx.Err())
			return
		case <-timer.C:
		}
		run(next)
	}
}
