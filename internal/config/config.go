package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultExternalHTTPTimeoutSeconds = 90
	defaultLLMTimeoutSeconds          = 30
	defaultLLMMaxAttempts             = 2
	defaultExcerptMaxChars            = 200
	defaultUnmatchedMaxChars          = 500
	defaultDBPath                     = "./ticket_insights.db"
	defaultReportTitle                = "Customer Support Trends Report"
)

type Config struct {
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
	RulesPath string `yaml:"rules_path"`

	// Zero thresholds keep the value carried by the rule set itself.
	TrendThreshold    int `yaml:"trend_threshold"`
	TypeThreshold     int `yaml:"type_threshold"`
	IssueThreshold    int `yaml:"issue_threshold"`
	ExcerptMaxChars   int `yaml:"excerpt_max_chars"`
	UnmatchedMaxChars int `yaml:"unmatched_max_chars"`
	Workers           int `yaml:"workers"`

	// DBPath is a pointer so an explicit empty value can disable history.
	DBPath   *string `yaml:"db_path"`
	Schedule string  `yaml:"schedule"`
	Timezone string  `yaml:"timezone"`

	LLMProvider       string `yaml:"llm_provider"`
	LLMModel          string `yaml:"llm_model"`
	AnthropicAPIKey   string `yaml:"anthropic_api_key"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`
	LLMTimeoutSeconds int    `yaml:"llm_timeout_seconds"`
	LLMMaxAttempts    int    `yaml:"llm_max_attempts"`

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	SlackBotToken    string `yaml:"slack_bot_token"`
	ReportChannelID  string `yaml:"report_channel_id"`
	ReportTitle      string `yaml:"report_title"`
	WriteEnrichedCSV *bool  `yaml:"write_enriched_csv"`

	Location *time.Location `yaml:"-"` // computed from Timezone, not from YAML
}

// Path returns CONFIG_PATH when set, otherwise config.yaml.
func Path() string {
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return envPath
	}
	return "config.yaml"
}

// Load parses path when it exists, applies env overrides and defaults, and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	var cfg Config
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		log.Printf("Loaded config from %s", path)
	}

	var errs []string
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	envOverride(&cfg.InputDir, "INPUT_DIR")
	envOverride(&cfg.OutputDir, "OUTPUT_DIR")
	envOverride(&cfg.RulesPath, "RULES_PATH")
	collect(envOverrideInt(&cfg.TrendThreshold, "TREND_THRESHOLD"))
	collect(envOverrideInt(&cfg.TypeThreshold, "TYPE_THRESHOLD"))
	collect(envOverrideInt(&cfg.IssueThreshold, "ISSUE_THRESHOLD"))
	collect(envOverrideInt(&cfg.ExcerptMaxChars, "EXCERPT_MAX_CHARS"))
	collect(envOverrideInt(&cfg.UnmatchedMaxChars, "UNMATCHED_MAX_CHARS"))
	collect(envOverrideInt(&cfg.Workers, "WORKERS"))
	if val, ok := os.LookupEnv("DB_PATH"); ok {
		cfg.DBPath = &val
	}
	envOverride(&cfg.Schedule, "SCHEDULE")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	collect(envOverrideInt(&cfg.LLMTimeoutSeconds, "LLM_TIMEOUT_SECONDS"))
	collect(envOverrideInt(&cfg.LLMMaxAttempts, "LLM_MAX_ATTEMPTS"))
	collect(envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS"))
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")
	envOverride(&cfg.ReportTitle, "REPORT_TITLE")
	if val := os.Getenv("WRITE_ENRICHED_CSV"); val != "" {
		enriched := strings.EqualFold(val, "true") || val == "1"
		cfg.WriteEnrichedCSV = &enriched
	}

	if cfg.ExcerptMaxChars == 0 {
		cfg.ExcerptMaxChars = defaultExcerptMaxChars
	}
	if cfg.UnmatchedMaxChars == 0 {
		cfg.UnmatchedMaxChars = defaultUnmatchedMaxChars
	}
	if cfg.DBPath == nil {
		p := defaultDBPath
		cfg.DBPath = &p
	}
	if cfg.LLMTimeoutSeconds == 0 {
		cfg.LLMTimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if cfg.LLMMaxAttempts == 0 {
		cfg.LLMMaxAttempts = defaultLLMMaxAttempts
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.ReportTitle == "" {
		cfg.ReportTitle = defaultReportTitle
	}
	if cfg.WriteEnrichedCSV == nil {
		enriched := true
		cfg.WriteEnrichedCSV = &enriched
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else if loc, err := time.LoadLocation(cfg.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("invalid timezone '%s': %v", cfg.Timezone, err))
	} else {
		cfg.Location = loc
	}

	if cfg.ExcerptMaxChars < 150 || cfg.ExcerptMaxChars > 300 {
		errs = append(errs, fmt.Sprintf("invalid excerpt_max_chars '%d': must be between 150 and 300", cfg.ExcerptMaxChars))
	}
	for name, v := range map[string]int{
		"trend_threshold": cfg.TrendThreshold,
		"type_threshold":  cfg.TypeThreshold,
		"issue_threshold": cfg.IssueThreshold,
	} {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("invalid %s '%d': must be >= 0", name, v))
		}
	}
	if cfg.UnmatchedMaxChars < 1 {
		errs = append(errs, fmt.Sprintf("invalid unmatched_max_chars '%d': must be >= 1", cfg.UnmatchedMaxChars))
	}
	if cfg.Workers < 0 {
		errs = append(errs, fmt.Sprintf("invalid workers '%d': must be >= 0", cfg.Workers))
	}
	if cfg.LLMTimeoutSeconds < 1 {
		errs = append(errs, fmt.Sprintf("invalid llm_timeout_seconds '%d': must be >= 1", cfg.LLMTimeoutSeconds))
	}
	if cfg.LLMMaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("invalid llm_max_attempts '%d': must be >= 1", cfg.LLMMaxAttempts))
	}
	if cfg.ExternalHTTPTimeoutSeconds < 5 {
		errs = append(errs, fmt.Sprintf("invalid external_http_timeout_seconds '%d': must be >= 5", cfg.ExternalHTTPTimeoutSeconds))
	}

	switch cfg.LLMProvider {
	case "":
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			errs = append(errs, "anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			errs = append(errs, "openai_api_key is required when llm_provider=openai")
		}
	default:
		errs = append(errs, fmt.Sprintf("llm_provider must be empty, 'anthropic' or 'openai', got '%s'", cfg.LLMProvider))
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

// HistoryPath returns the run history database path, empty when disabled.
func (c Config) HistoryPath() string {
	if c.DBPath == nil {
		return ""
	}
	return strings.TrimSpace(*c.DBPath)
}

func (c Config) EnrichedCSV() bool {
	return c.WriteEnrichedCSV == nil || *c.WriteEnrichedCSV
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.ReportChannelID != ""
}
