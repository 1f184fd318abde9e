// Package ingest reads Freshdesk XML ticket exports into TicketRecords.
package ingest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ticketinsights/internal/domain"
)

const issueTypeFieldPrefix = "cf_issue_type"

type xmlField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlCustomFields struct {
	Fields []xmlField `xml:",any"`
}

type xmlNote struct {
	Body    string `xml:"body"`
	Private string `xml:"private"`
}

type xmlTicket struct {
	DisplayID    string          `xml:"display-id"`
	Subject      string          `xml:"subject"`
	Description  string          `xml:"description"`
	CreatedAt    string          `xml:"created-at"`
	Priority     string          `xml:"priority"`
	Type         string          `xml:"type"`
	GroupID      string          `xml:"group-id"`
	CustomFields xmlCustomFields `xml:"custom_field"`
	Notes        []xmlNote       `xml:"helpdesk-notes>helpdesk-note"`
}

func (x xmlTicket) record() domain.TicketRecord {
	subject := strings.TrimSpace(x.Subject)
	description := strings.TrimSpace(x.Description)

	ticketType := strings.TrimSpace(x.Type)
	if ticketType == "" {
		ticketType = domain.UnknownType
	}

	issueType := ""
	for _, f := range x.CustomFields.Fields {
		if strings.HasPrefix(f.XMLName.Local, issueTypeFieldPrefix) && strings.TrimSpace(f.Value) != "" {
			issueType = strings.TrimSpace(f.Value)
			break
		}
	}

	var responses []string
	for _, n := range x.Notes {
		if body := strings.TrimSpace(n.Body); body != "" {
			responses = append(responses, body)
		}
	}

	return domain.TicketRecord{
		ID:               strings.TrimSpace(x.DisplayID),
		Subject:          subject,
		ProblemText:      strings.TrimSpace(subject + " " + description),
		ResolutionText:   strings.Join(responses, "\n"),
		CreatedAt:        strings.TrimSpace(x.CreatedAt),
		Priority:         strings.TrimSpace(x.Priority),
		GroupID:          strings.TrimSpace(x.GroupID),
		CurrentType:      ticketType,
		CurrentIssueType: issueType,
	}.WithDefaults()
}

// Parse reads every <helpdesk-ticket> element in r, at any depth, in
// document order.
func Parse(r io.Reader) ([]domain.TicketRecord, error) {
	dec := xml.NewDecoder(r)
	var out []domain.TicketRecord
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("decode xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "helpdesk-ticket" {
			continue
		}
		var x xmlTicket
		if err := dec.DecodeElement(&x, &start); err != nil {
			return out, fmt.Errorf("decode helpdesk-ticket: %w", err)
		}
		rec := x.record()
		if err := rec.Validate(); err != nil {
			log.Printf("ingest warning: %v", err)
		}
		out = append(out, rec)
	}
}

func ParseFile(path string) ([]domain.TicketRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	records, err := Parse(f)
	if err != nil {
		return records, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ParseDir parses every *.xml file in dir in name order. A file that fails to
// parse is logged and skipped; the returned error joins those failures and
// does not mean the records are unusable.
func ParseDir(dir string) ([]domain.TicketRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var all []domain.TicketRecord
	var errs []error
	for _, name := range names {
		records, err := ParseFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("ingest skipped file=%s err=%v", name, err)
			errs = append(errs, err)
			continue
		}
		log.Printf("ingest file=%s tickets=%d", name, len(records))
		all = append(all, records...)
	}
	return all, errors.Join(errs...)
}
