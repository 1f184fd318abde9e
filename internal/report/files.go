package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DateStampLayout = "20060102"

type ArtifactKind string

const (
	ArtifactSummary     ArtifactKind = "insights_report"
	ArtifactCategoryMap ArtifactKind = "categorized_ticket_map"
	ArtifactUnmatched   ArtifactKind = "unmatched_samples"
	ArtifactEnriched    ArtifactKind = "ticket_analysis_output"
)

func (k ArtifactKind) ext() string {
	switch k {
	case ArtifactCategoryMap, ArtifactEnriched:
		return ".csv"
	default:
		return ".txt"
	}
}

// FileName returns the date-stamped name for an artifact, e.g.
// insights_report_20260220.txt.
func FileName(kind ArtifactKind, runDate time.Time) string {
	return fmt.Sprintf("%s_%s%s", kind, runDate.Format(DateStampLayout), kind.ext())
}

// ArtifactWriteError reports that one artifact could not be persisted. Other
// artifacts of the same run are unaffected.
type ArtifactWriteError struct {
	Kind ArtifactKind
	Path string
	Err  error
}

func (e *ArtifactWriteError) Error() string {
	return fmt.Sprintf("write %s (%s): %v", e.Kind, e.Path, e.Err)
}

func (e *ArtifactWriteError) Unwrap() error { return e.Err }

func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	return replacer.Replace(s)
}

func writeArtifact(dir string, kind ArtifactKind, runDate time.Time, content []byte) (string, error) {
	path := filepath.Join(dir, sanitizeFilename(FileName(kind, runDate)))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return path, &ArtifactWriteError{Kind: kind, Path: path, Err: err}
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return path, &ArtifactWriteError{Kind: kind, Path: path, Err: err}
	}
	return path, nil
}
