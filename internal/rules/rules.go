// Package rules holds the label -> matcher rule sets used by the scoring
// classifier. A RuleSet is ordered and immutable once built; its order is the
// tie-break order.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"ticketinsights/internal/textnorm"
)

type MatchMode int

const (
	// MatchLiteral counts a matcher when its normalized form occurs as a
	// substring of the normalized text.
	MatchLiteral MatchMode = iota
	// MatchPattern treats every matcher as a case-insensitive regular
	// expression evaluated against the normalized text.
	MatchPattern
)

func (m MatchMode) String() string {
	switch m {
	case MatchPattern:
		return "pattern"
	default:
		return "literal"
	}
}

func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "literal", "keyword", "keywords":
		return MatchLiteral, nil
	case "pattern", "regex", "regexp":
		return MatchPattern, nil
	default:
		return MatchLiteral, fmt.Errorf("unknown match mode %q", s)
	}
}

type Rule struct {
	Label    string
	Matchers []string
}

type compiledRule struct {
	label    string
	literals []string
	patterns []*regexp.Regexp
}

func (r compiledRule) hits(text string) int {
	n := 0
	for _, lit := range r.literals {
		if strings.Contains(text, lit) {
			n++
		}
	}
	for _, re := range r.patterns {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

type RuleSet struct {
	name      string
	mode      MatchMode
	threshold int
	rules     []compiledRule
}

// RuleSetError reports an empty or malformed rule set. A rule set that failed
// to build is replaced by an empty one, so every ticket classifies as None.
type RuleSetError struct {
	Set    string
	Reason string
	Err    error
}

func (e *RuleSetError) Error() string {
	msg := fmt.Sprintf("rule set %q: %s", e.Set, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RuleSetError) Unwrap() error { return e.Err }

// New compiles a rule set. Literal matchers are normalized the same way ticket
// text is; duplicate matchers inside a rule count once. Thresholds below 1 are
// raised to 1.
func New(name string, mode MatchMode, threshold int, rules []Rule) (*RuleSet, error) {
	if threshold < 1 {
		threshold = 1
	}
	rs := &RuleSet{name: name, mode: mode, threshold: threshold}
	if len(rules) == 0 {
		return rs, &RuleSetError{Set: name, Reason: "no rules defined"}
	}

	seen := make(map[string]bool, len(rules))
	var errs []error
	for i, rule := range rules {
		label := strings.TrimSpace(rule.Label)
		if label == "" {
			errs = append(errs, fmt.Errorf("rule %d has an empty label", i))
			continue
		}
		if seen[label] {
			errs = append(errs, fmt.Errorf("duplicate label %q", label))
			continue
		}
		seen[label] = true

		cr := compiledRule{label: label}
		distinct := make(map[string]bool, len(rule.Matchers))
		for _, m := range rule.Matchers {
			switch mode {
			case MatchPattern:
				m = strings.TrimSpace(m)
				if m == "" || distinct[m] {
					continue
				}
				re, err := regexp.Compile("(?i)" + m)
				if err != nil {
					errs = append(errs, fmt.Errorf("label %q: %w", label, err))
					continue
				}
				distinct[m] = true
				cr.patterns = append(cr.patterns, re)
			default:
				m = textnorm.Normalize(m)
				if m == "" || distinct[m] {
					continue
				}
				distinct[m] = true
				cr.literals = append(cr.literals, m)
			}
		}
		rs.rules = append(rs.rules, cr)
	}
	if len(errs) > 0 {
		return &RuleSet{name: name, mode: mode, threshold: threshold}, &RuleSetError{Set: name, Reason: "malformed rules", Err: errors.Join(errs...)}
	}
	return rs, nil
}

// MustNew is New for rule data compiled into the binary.
func MustNew(name string, mode MatchMode, threshold int, rules []Rule) *RuleSet {
	rs, err := New(name, mode, threshold, rules)
	if err != nil {
		panic(err)
	}
	return rs
}

// Empty returns a rule set with no rules; it never produces a label.
func Empty(name string) *RuleSet {
	return &RuleSet{name: name, threshold: 1}
}

func (rs *RuleSet) Name() string { return rs.name }
func (rs *RuleSet) Mode() MatchMode { return rs.mode }
func (rs *RuleSet) Threshold() int { return rs.threshold }
func (rs *RuleSet) Len() int { return len(rs.rules) }
func (rs *RuleSet) Label(i int) string { return rs.rules[i].label }
func (rs *RuleSet) MatcherCount(i int) int {
	return len(rs.rules[i].literals) + len(rs.rules[i].patterns)
}

// Hits returns how many distinct matchers of rule i occur in text. text is
// expected to be normalized already.
func (rs *RuleSet) Hits(i int, text string) int {
	return rs.rules[i].hits(text)
}

// Labels lists the rule labels in declaration order.
func (rs *RuleSet) Labels() []string {
	out := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = r.label
	}
	return out
}

// WithThreshold returns a copy of rs that accepts at threshold instead.
func (rs *RuleSet) WithThreshold(threshold int) *RuleSet {
	if threshold < 1 {
		threshold = 1
	}
	cp := *rs
	cp.threshold = threshold
	return &cp
}

// ValidateLabels reports labels that are not in the reference list.
func ValidateLabels(rs *RuleSet, reference []string) error {
	allowed := make(map[string]bool, len(reference))
	for _, r := range reference {
		allowed[r] = true
	}
	var unknown []string
	for _, label := range rs.Labels() {
		if !allowed[label] {
			unknown = append(unknown, label)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return &RuleSetError{Set: rs.name, Reason: "labels outside reference list: " + strings.Join(unknown, ", ")}
}
