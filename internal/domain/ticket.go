package domain

import "strings"

// NotAvailable stands in for any optional ticket field the export did not carry.
const NotAvailable = "N/A"

// UnknownType is what the export reader records when a ticket has no <type>.
const UnknownType = "Unknown"

// UnassignedGroup is used when a ticket has no group id.
const UnassignedGroup = "unassigned"

type TicketRecord struct {
	ID               string
	Subject          string
	ProblemText      string // subject + description
	ResolutionText   string // agent responses, may be empty
	CreatedAt        string
	Priority         string
	GroupID          string
	CurrentType      string
	CurrentIssueType string
}

// WithDefaults fills every optional field that is blank with its sentinel so
// downstream code never has to check for missing values.
func (r TicketRecord) WithDefaults() TicketRecord {
	r.ID = orDefault(r.ID, NotAvailable)
	r.Subject = orDefault(r.Subject, NotAvailable)
	r.CreatedAt = orDefault(r.CreatedAt, NotAvailable)
	r.Priority = orDefault(r.Priority, NotAvailable)
	r.GroupID = orDefault(r.GroupID, UnassignedGroup)
	r.CurrentType = orDefault(r.CurrentType, NotAvailable)
	r.CurrentIssueType = orDefault(r.CurrentIssueType, NotAvailable)
	r.ProblemText = strings.TrimSpace(r.ProblemText)
	r.ResolutionText = strings.TrimSpace(r.ResolutionText)
	return r
}

// Validate reports records that lack an identity. Classification still runs
// on such records.
func (r TicketRecord) Validate() error {
	id := strings.TrimSpace(r.ID)
	if id == "" || id == NotAvailable {
		return &MalformedInputError{Field: "id", Subject: r.Subject}
	}
	return nil
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

// ClassificationResult is the outcome of one scoring pass. An empty Label
// means no rule met the acceptance threshold.
type ClassificationResult struct {
	Label string
	Score int
}

func (c ClassificationResult) Matched() bool {
	return c.Label != ""
}

// LabelOr returns the label, or def when nothing matched.
func (c ClassificationResult) LabelOr(def string) string {
	if c.Label == "" {
		return def
	}
	return c.Label
}

type CategorizedTicket struct {
	Ticket     TicketRecord
	Trend      ClassificationResult
	TicketType ClassificationResult
	IssueType  ClassificationResult
}
