package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigFromEnvWithDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	t.Setenv("INPUT_DIR", "/data/tickets")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("DB_PATH", "")
	os.Unsetenv("DB_PATH")

	cfg, err := Load(Path())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.InputDir != "/data/tickets" {
		t.Fatalf("unexpected input dir: %q", cfg.InputDir)
	}
	if cfg.TrendThreshold != 0 || cfg.TypeThreshold != 0 || cfg.IssueThreshold != 0 {
		t.Fatalf("thresholds should defer to the rule sets: %d/%d/%d", cfg.TrendThreshold, cfg.TypeThreshold, cfg.IssueThreshold)
	}
	if cfg.ExcerptMaxChars != 200 {
		t.Fatalf("unexpected excerpt default: %d", cfg.ExcerptMaxChars)
	}
	if cfg.UnmatchedMaxChars != 500 {
		t.Fatalf("unexpected unmatched default: %d", cfg.UnmatchedMaxChars)
	}
	if cfg.HistoryPath() != "./ticket_insights.db" {
		t.Fatalf("unexpected db path default: %q", cfg.HistoryPath())
	}
	if cfg.ExternalHTTPTimeoutSeconds != defaultExternalHTTPTimeoutSeconds {
		t.Fatalf("unexpected external HTTP timeout default: %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.LLMTimeoutSeconds != 30 || cfg.LLMMaxAttempts != 2 {
		t.Fatalf("unexpected llm defaults: %d/%d", cfg.LLMTimeoutSeconds, cfg.LLMMaxAttempts)
	}
	if cfg.ReportTitle != "Customer Support Trends Report" {
		t.Fatalf("unexpected title default: %q", cfg.ReportTitle)
	}
	if !cfg.EnrichedCSV() {
		t.Fatalf("enriched CSV should default to on")
	}
	if cfg.LLMProvider != "" {
		t.Fatalf("summaries should be disabled by default, got %q", cfg.LLMProvider)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
input_dir: "/yaml/in"
output_dir: "/yaml/out"
trend_threshold: 2
excerpt_max_chars: 250
llm_provider: "anthropic"
anthropic_api_key: "yaml-anthropic"
timezone: "America/Los_Angeles"
db_path: ""
write_enriched_csv: false
external_http_timeout_seconds: 75
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("OUTPUT_DIR", "/env/out")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("EXTERNAL_HTTP_TIMEOUT_SECONDS", "120")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.InputDir != "/yaml/in" {
		t.Fatalf("expected input dir from yaml, got %q", cfg.InputDir)
	}
	if cfg.OutputDir != "/env/out" {
		t.Fatalf("expected output dir from env override, got %q", cfg.OutputDir)
	}
	if cfg.TrendThreshold != 2 || cfg.ExcerptMaxChars != 250 {
		t.Fatalf("expected yaml thresholds, got trend=%d excerpt=%d", cfg.TrendThreshold, cfg.ExcerptMaxChars)
	}
	if cfg.LLMProvider != "openai" || cfg.OpenAIAPIKey != "sk-env" {
		t.Fatalf("expected provider from env override, got %q", cfg.LLMProvider)
	}
	if cfg.HistoryPath() != "" {
		t.Fatalf("explicit empty db_path should disable history, got %q", cfg.HistoryPath())
	}
	if cfg.EnrichedCSV() {
		t.Fatalf("expected enriched CSV disabled from yaml")
	}
	if cfg.ExternalHTTPTimeoutSeconds != 120 {
		t.Fatalf("expected external HTTP timeout from env override, got %d", cfg.ExternalHTTPTimeoutSeconds)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"excerpt too short", map[string]string{"EXCERPT_MAX_CHARS": "100"}, "excerpt_max_chars"},
		{"excerpt too long", map[string]string{"EXCERPT_MAX_CHARS": "301"}, "excerpt_max_chars"},
		{"bad int", map[string]string{"TREND_THRESHOLD": "three"}, "TREND_THRESHOLD"},
		{"negative threshold", map[string]string{"ISSUE_THRESHOLD": "-2"}, "issue_threshold"},
		{"negative workers", map[string]string{"WORKERS": "-1"}, "workers"},
		{"unknown provider", map[string]string{"LLM_PROVIDER": "cohere"}, "llm_provider"},
		{"missing key", map[string]string{"LLM_PROVIDER": "anthropic", "ANTHROPIC_API_KEY": ""}, "anthropic_api_key"},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Colony"}, "invalid timezone"},
		{"short http timeout", map[string]string{"EXTERNAL_HTTP_TIMEOUT_SECONDS": "2"}, "external_http_timeout_seconds"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("input_dir: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrideHelpers(t *testing.T) {
	s := "initial"
	t.Setenv("TI_TEST_STR", "value")
	envOverride(&s, "TI_TEST_STR")
	if s != "value" {
		t.Fatalf("envOverride failed, got %q", s)
	}

	i := 1
	t.Setenv("TI_TEST_INT", "42")
	if err := envOverrideInt(&i, "TI_TEST_INT"); err != nil || i != 42 {
		t.Fatalf("envOverrideInt failed, got %d err=%v", i, err)
	}
	t.Setenv("TI_TEST_INT", "x")
	if err := envOverrideInt(&i, "TI_TEST_INT"); err == nil || i != 42 {
		t.Fatalf("expected error and unchanged value, got %d err=%v", i, err)
	}
}

func TestPathDefaultsToConfigYAML(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	if got := Path(); got != "config.yaml" {
		t.Fatalf("unexpected default path %q", got)
	}
	t.Setenv("CONFIG_PATH", "/etc/ticketinsights.yaml")
	if got := Path(); got != "/etc/ticketinsights.yaml" {
		t.Fatalf("expected CONFIG_PATH, got %q", got)
	}
}

func TestSlackConfigured(t *testing.T) {
	tests := []struct {
		token, channel string
		want           bool
	}{
		{"xoxb-test", "C1", true},
		{"xoxb-test", "", false},
		{"", "C1", false},
	}
	for _, tc := range tests {
		cfg := Config{SlackBotToken: tc.token, ReportChannelID: tc.channel}
		if got := cfg.SlackConfigured(); got != tc.want {
			t.Fatalf("SlackConfigured(%q, %q) = %v, want %v", tc.token, tc.channel, got, tc.want)
		}
	}
}
