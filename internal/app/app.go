package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ticketinsights/internal/config"
	"ticketinsights/internal/httpx"
	"ticketinsights/internal/integrations/llm"
	slackbot "ticketinsights/internal/integrations/slack"
	"ticketinsights/internal/pipeline"
	"ticketinsights/internal/storage/sqlite"
)

var rootFlags struct {
	configPath string
}

var rootCmd = &cobra.Command{
	Use:   "ticketinsights",
	Short: "Classify support tickets and report recurring problem trends",
	Long: "ticketinsights reads helpdesk ticket exports, tags every ticket with a trend\n" +
		"category, ticket type and issue type, and writes a trend report, a category\n" +
		"map CSV and a file of unmatched samples.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "Config file (default $CONFIG_PATH or config.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(explainCmd)
}

func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	path := rootFlags.configPath
	if path == "" {
		path = config.Path()
	}
	return config.Load(path)
}

// services holds the collaborators shared by every batch of a process.
type services struct {
	deps pipeline.Deps
	db   *sql.DB
}

func (r *services) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// newServices wires the optional services. History, summaries and Slack are
// each skipped when unconfigured or unavailable; none of them stops a run.
func newServices(cfg config.Config) *services {
	applied := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Input=%s Output=%s Rules=%s Workers=%d Timezone=%s LLMProvider=%q History=%q ExternalHTTPTimeout=%s",
		cfg.InputDir, cfg.OutputDir, cfg.RulesPath, cfg.Workers, cfg.Timezone, cfg.LLMProvider, cfg.HistoryPath(), applied,
	)

	rt := &services{}
	if path := cfg.HistoryPath(); path != "" {
		db, err := sqlite.InitDB(path)
		if err != nil {
			log.Printf("run history disabled: %v", err)
		} else {
			runs, err := sqlite.CountRuns(db)
			if err != nil {
				log.Printf("run history count failed: %v", err)
			}
			log.Printf("Database initialized at %s runs=%d", path, runs)
			rt.db = db
			rt.deps.DB = db
		}
	}

	summarizer, err := llm.New(cfg.LLMProvider, cfg.LLMModel, cfg.AnthropicAPIKey, cfg.OpenAIAPIKey)
	if err != nil {
		log.Printf("category summaries disabled: %v", err)
	} else if summarizer != nil {
		rt.deps.Summarizer = &llm.Bounded{
			Summarizer:  summarizer,
			Provider:    cfg.LLMProvider,
			Timeout:     time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
			MaxAttempts: cfg.LLMMaxAttempts,
		}
	}

	if cfg.SlackConfigured() {
		rt.deps.Notifier = slackbot.NewNotifier(cfg.SlackBotToken, cfg.ReportChannelID)
	} else {
		log.Printf("Slack notifications disabled (slack_bot_token or report_channel_id not set)")
	}
	return rt
}

func pipelineOptions(cfg config.Config, runDate time.Time) pipeline.Options {
	return pipeline.Options{
		InputDir:          cfg.InputDir,
		OutputDir:         cfg.OutputDir,
		RulesPath:         cfg.RulesPath,
		RunDate:           runDate,
		TrendThreshold:    cfg.TrendThreshold,
		TypeThreshold:     cfg.TypeThreshold,
		IssueThreshold:    cfg.IssueThreshold,
		ExcerptMaxChars:   cfg.ExcerptMaxChars,
		UnmatchedMaxChars: cfg.UnmatchedMaxChars,
		Workers:           cfg.Workers,
		Title:             cfg.ReportTitle,
		WriteEnriched:     cfg.EnrichedCSV(),
	}
}
