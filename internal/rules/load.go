package rules

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ruleFile struct {
	Trend      *ruleSetDef `yaml:"trend"`
	TicketType *ruleSetDef `yaml:"ticket_type"`
	IssueType  *ruleSetDef `yaml:"issue_type"`
}

type ruleSetDef struct {
	Mode      string   `yaml:"mode"`
	Threshold int      `yaml:"threshold"`
	Rules     ruleList `yaml:"rules"`
}

// ruleList accepts either an ordered mapping (label: [matchers]) or a
// sequence of {label, matchers}. Document order is preserved either way.
type ruleList []Rule

func (l *ruleList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			label := node.Content[i].Value
			var matchers []string
			if err := node.Content[i+1].Decode(&matchers); err != nil {
				return fmt.Errorf("rule %q: %w", label, err)
			}
			*l = append(*l, Rule{Label: label, Matchers: matchers})
		}
		return nil
	case yaml.SequenceNode:
		var items []struct {
			Label    string   `yaml:"label"`
			Matchers []string `yaml:"matchers"`
		}
		if err := node.Decode(&items); err != nil {
			return err
		}
		for _, it := range items {
			*l = append(*l, Rule{Label: it.Label, Matchers: it.Matchers})
		}
		return nil
	default:
		return fmt.Errorf("rules must be a mapping or a list, line %d", node.Line)
	}
}

// LoadFile reads a YAML rule file. Sections the file omits keep the built-in
// rules. A section that fails to build is returned empty together with a
// RuleSetError; the bundle is always usable.
func LoadFile(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultBundle(), fmt.Errorf("read rules: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Bundle, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		empty := Bundle{
			Trend:      Empty(TrendSetName),
			TicketType: Empty(TicketTypeSetName),
			IssueType:  Empty(IssueTypeSetName),
		}
		return empty, &RuleSetError{Set: "*", Reason: "parse rules yaml", Err: err}
	}

	b := DefaultBundle()
	var errs []error
	build := func(name string, def *ruleSetDef, defThreshold int, dst **RuleSet) {
		if def == nil {
			return
		}
		mode, err := ParseMatchMode(def.Mode)
		if err != nil {
			*dst = Empty(name)
			errs = append(errs, &RuleSetError{Set: name, Reason: "invalid mode", Err: err})
			return
		}
		threshold := def.Threshold
		if threshold == 0 {
			threshold = defThreshold
		}
		rs, err := New(name, mode, threshold, def.Rules)
		*dst = rs
		if err != nil {
			errs = append(errs, err)
		}
	}
	build(TrendSetName, f.Trend, DefaultTrendThreshold, &b.Trend)
	build(TicketTypeSetName, f.TicketType, DefaultTicketTypeThreshold, &b.TicketType)
	build(IssueTypeSetName, f.IssueType, DefaultIssueTypeThreshold, &b.IssueType)
	return b, errors.Join(errs...)
}
