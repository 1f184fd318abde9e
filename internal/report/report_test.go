package report

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ticketinsights/internal/domain"
	"ticketinsights/internal/insights"
)

var runDate = time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)

func ct(id, trend, ticketType, text string) domain.CategorizedTicket {
	t := domain.CategorizedTicket{
		Ticket: domain.TicketRecord{
			ID:          id,
			Subject:     "Subject " + id,
			ProblemText: text,
			CreatedAt:   "2026-02-19T10:00:00Z",
			Priority:    "High",
			CurrentType: "Incident",
		}.WithDefaults(),
	}
	if trend != "" {
		t.Trend = domain.ClassificationResult{Label: trend, Score: 3}
	}
	if ticketType != "" {
		t.TicketType = domain.ClassificationResult{Label: ticketType, Score: 1}
	}
	return t
}

func scenarioData() Data {
	var tickets []domain.CategorizedTicket
	for i, label := range []string{"Access", "Billing", "", "Billing", "Access", "Billing", "", "Billing", "Access", ""} {
		tickets = append(tickets, ct(string(rune('a'+i)), label, "", "text for "+label))
	}
	res := insights.Aggregate(tickets)
	return Data{
		RunDate:   runDate,
		Result:    res,
		Breakdown: insights.BuildBreakdown(tickets),
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		kind ArtifactKind
		want string
	}{
		{ArtifactSummary, "insights_report_20260220.txt"},
		{ArtifactCategoryMap, "categorized_ticket_map_20260220.csv"},
		{ArtifactUnmatched, "unmatched_samples_20260220.txt"},
		{ArtifactEnriched, "ticket_analysis_output_20260220.csv"},
	}
	for _, tt := range tests {
		if got := FileName(tt.kind, runDate); got != tt.want {
			t.Fatalf("FileName(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestRenderSummaryOrdersByCount(t *testing.T) {
	out := RenderSummary(scenarioData())

	if !strings.HasPrefix(out, DefaultTitle+"\n") {
		t.Fatalf("expected default title, got:\n%s", out)
	}
	if !strings.Contains(out, "Generated on: 20260220") {
		t.Fatalf("expected generation date, got:\n%s", out)
	}
	billing := strings.Index(out, "Billing (4 occurrences)")
	access := strings.Index(out, "Access (3 occurrences)")
	if billing < 0 || access < 0 || billing > access {
		t.Fatalf("expected Billing before Access, got:\n%s", out)
	}
	if strings.Count(out, "    > text for Billing") != insights.SampleCap {
		t.Fatalf("expected %d Billing excerpts, got:\n%s", insights.SampleCap, out)
	}
	for _, want := range []string{"Total tickets: 10", "Categorized: 7", "Unmatched: 3", "- High: 10"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary, got:\n%s", want, out)
		}
	}
}

func TestRenderSummaryDeltasAndSummaries(t *testing.T) {
	d := scenarioData()
	d.Title = "Weekly Trends"
	d.Previous = map[string]int{"Billing": 1, "Access": 3}
	d.Summaries = map[string]string{"Billing": "Customers see duplicate invoices."}
	out := RenderSummary(d)

	for _, want := range []string{
		"Weekly Trends\n",
		"Billing (4 occurrences) (+3 vs previous run)",
		"Access (3 occurrences) (unchanged vs previous run)",
		"  Summary: Customers see duplicate invoices.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary, got:\n%s", want, out)
		}
	}

	d.Previous = map[string]int{"Access": 5}
	out = RenderSummary(d)
	if !strings.Contains(out, "Billing (4 occurrences) (new vs previous run)") || !strings.Contains(out, "Access (3 occurrences) (-2 vs previous run)") {
		t.Fatalf("unexpected delta rendering:\n%s", out)
	}
}

func TestRenderCategoryMap(t *testing.T) {
	rows := []insights.CategorizedRow{
		{Label: "Billing", Ticket: ct("7", "Billing", "CEE - Task", "x")},
		{Label: "Access", Ticket: ct("8", "Access", "", "y")},
	}
	data, err := RenderCategoryMap(rows)
	if err != nil {
		t.Fatalf("RenderCategoryMap failed: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	want := [][]string{
		{"Category", "Ticket ID", "Subject", "Created At", "Priority", "Type"},
		{"Billing", "7", "Subject 7", "2026-02-19T10:00:00Z", "High", "CEE - Task"},
		{"Access", "8", "Subject 8", "2026-02-19T10:00:00Z", "High", "Incident"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("category map mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderEnrichedUsesSentinels(t *testing.T) {
	data, err := RenderEnriched([]domain.CategorizedTicket{ct("1", "", "", "x")})
	if err != nil {
		t.Fatalf("RenderEnriched failed: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	want := []string{"1", "Subject 1", "2026-02-19T10:00:00Z", "High", "unassigned", "Incident", "N/A", "N/A", "N/A", "N/A"}
	if diff := cmp.Diff(want, records[1]); diff != "" {
		t.Fatalf("enriched row mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderUnmatched(t *testing.T) {
	out := RenderUnmatched([]string{"first sample", "", strings.Repeat("x", 50)}, 10)
	if !strings.HasPrefix(out, "Unmatched Samples\n") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	for _, want := range []string{"first samp...", "(no text)", "xxxxxxxxxx..."} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in unmatched output:\n%s", want, out)
		}
	}
}

func TestEmitWritesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	outcome := Emitter{OutputDir: dir, WriteEnriched: true}.Emit(scenarioData())
	if err := outcome.Err(); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if got := len(outcome.Written()); got != 4 {
		t.Fatalf("expected 4 written artifacts, got %d: %v", got, outcome.Written())
	}

	mapPath, ok := outcome.Path(ArtifactCategoryMap)
	if !ok {
		t.Fatalf("category map not written")
	}
	data, err := os.ReadFile(mapPath)
	if err != nil {
		t.Fatalf("read map: %v", err)
	}
	if lines := strings.Count(strings.TrimSpace(string(data)), "\n"); lines != 7 {
		t.Fatalf("expected 7 data rows, got %d", lines)
	}

	unmatchedPath, _ := outcome.Path(ArtifactUnmatched)
	data, err = os.ReadFile(unmatchedPath)
	if err != nil {
		t.Fatalf("read unmatched: %v", err)
	}
	if got := strings.Count(string(data), "text for\n\n"); got != 3 {
		t.Fatalf("expected 3 unmatched entries, got %d:\n%s", got, data)
	}
}

func TestEmitSkipsEmptyArtifacts(t *testing.T) {
	dir := t.TempDir()
	d := Data{RunDate: runDate, Result: insights.Aggregate(nil)}
	outcome := Emitter{OutputDir: dir, WriteEnriched: true}.Emit(d)
	if err := outcome.Err(); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "insights_report_20260220.txt")}, outcome.Written()); diff != "" {
		t.Fatalf("only the summary should be written (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dir, "unmatched_samples_20260220.txt")); !os.IsNotExist(err) {
		t.Fatalf("unmatched file should not exist, err=%v", err)
	}
}

func TestEmitArtifactFailureDoesNotBlockOthers(t *testing.T) {
	dir := t.TempDir()
	// A directory squatting on the map's file name makes only that write fail.
	if err := os.Mkdir(filepath.Join(dir, FileName(ArtifactCategoryMap, runDate)), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	outcome := Emitter{OutputDir: dir}.Emit(scenarioData())
	err := outcome.Err()
	var writeErr *ArtifactWriteError
	if !errors.As(err, &writeErr) || writeErr.Kind != ArtifactCategoryMap {
		t.Fatalf("expected category map write error, got %v", err)
	}
	if _, ok := outcome.Path(ArtifactSummary); !ok {
		t.Fatalf("summary should still be written")
	}
	if _, ok := outcome.Path(ArtifactUnmatched); !ok {
		t.Fatalf("unmatched samples should still be written")
	}
}
