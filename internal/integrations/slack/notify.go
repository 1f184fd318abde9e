package slackbot

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/slack-go/slack"
)

type slackClient interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
	UploadFileV2(params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

// RunSummary is the short digest posted after each batch run.
type RunSummary struct {
	RunDate        string
	Total          int
	Unmatched      int
	TopCategories  []string // "Label (n)" in report order
	FailedArtifact int
}

type Notifier struct {
	api       slackClient
	channelID string
}

// NewNotifier returns nil when Slack is not configured.
func NewNotifier(token, channelID string, opts ...slack.Option) *Notifier {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(channelID) == "" {
		return nil
	}
	return &Notifier{api: slack.New(token, opts...), channelID: channelID}
}

func FormatRunSummary(s RunSummary) string {
	msg := fmt.Sprintf("Ticket trends for %s: %d tickets, %d categorized, %d unmatched",
		s.RunDate, s.Total, s.Total-s.Unmatched, s.Unmatched)
	if len(s.TopCategories) > 0 {
		msg += "\nTop categories: " + strings.Join(s.TopCategories, ", ")
	}
	if s.FailedArtifact > 0 {
		msg += fmt.Sprintf("\nWarning: %d report artifact(s) could not be written", s.FailedArtifact)
	}
	return msg
}

// NotifyRun posts the digest and, when reportPath is set, uploads the report.
func (n *Notifier) NotifyRun(s RunSummary, reportPath string) error {
	if n == nil {
		return nil
	}
	text := FormatRunSummary(s)
	if _, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("post run summary: %w", err)
	}
	log.Printf("slack run summary posted channel=%s", n.channelID)

	if reportPath == "" {
		return nil
	}
	fi, err := os.Stat(reportPath)
	if err != nil {
		return fmt.Errorf("stat report: %w", err)
	}
	if fi.Size() <= 0 {
		return fmt.Errorf("report file is empty: %s", reportPath)
	}
	_, err = n.api.UploadFileV2(slack.UploadFileV2Parameters{
		File:     reportPath,
		FileSize: int(fi.Size()),
		Filename: filepath.Base(reportPath),
		Channel:  n.channelID,
		Title:    "Customer support trends " + s.RunDate,
	})
	if err != nil {
		return fmt.Errorf("upload report: %w", err)
	}
	log.Printf("slack report uploaded file=%s", reportPath)
	return nil
}
