package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ticketinsights/internal/pipeline"
)

var runFlags struct {
	input  string
	output string
	rules  string
	date   string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Classify one batch of ticket exports and write the reports",
	RunE:  runBatch,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.input, "input", "", "Directory of helpdesk XML exports (overrides input_dir)")
	f.StringVar(&runFlags.output, "output", "", "Report output directory (overrides output_dir)")
	f.StringVar(&runFlags.rules, "rules", "", "Rule set YAML file (overrides rules_path)")
	f.StringVar(&runFlags.date, "date", "", "Run date stamped on artifacts, YYYYMMDD or YYYY-MM-DD (default today)")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runFlags.input != "" {
		cfg.InputDir = runFlags.input
	}
	if runFlags.output != "" {
		cfg.OutputDir = runFlags.output
	}
	if runFlags.rules != "" {
		cfg.RulesPath = runFlags.rules
	}
	if cfg.InputDir == "" || cfg.OutputDir == "" {
		return errors.New("input and output directories are required (--input/--output or input_dir/output_dir)")
	}

	runDate := time.Now().In(cfg.Location)
	if runFlags.date != "" {
		runDate, err = parseRunDate(runFlags.date, cfg.Location)
		if err != nil {
			return err
		}
	}

	rt := newServices(cfg)
	defer rt.Close()

	res, err := pipeline.Run(cmd.Context(), pipelineOptions(cfg, runDate), rt.deps)
	out := cmd.OutOrStdout()
	for _, path := range res.Outcome.Written() {
		fmt.Fprintf(out, "wrote %s\n", path)
	}
	if n := len(res.Malformed); n > 0 {
		fmt.Fprintf(out, "%d ticket(s) had no id and were reported as N/A\n", n)
	}
	if n := len(res.Warnings); n > 0 {
		fmt.Fprintf(out, "%d warning(s), see log\n", n)
	}
	if err != nil {
		return err
	}
	// Some artifacts written means the batch succeeded; failures stay warnings.
	if err := res.Outcome.Err(); err != nil && len(res.Outcome.Written()) == 0 {
		return fmt.Errorf("no report artifact could be written: %w", err)
	}
	return nil
}

func parseRunDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --date %q: want YYYYMMDD or YYYY-MM-DD", s)
}
