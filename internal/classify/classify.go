// Package classify picks the best-matching rule label for a piece of text.
package classify

import (
	"ticketinsights/internal/domain"
	"ticketinsights/internal/rules"
)

// Classify scores every rule in rs against text (already normalized) and
// returns the label with the strictly highest score among rules scoring at
// least threshold. Equal scores go to the rule declared first. Thresholds
// below 1 are treated as 1, so an empty text or an empty matcher list never
// produces a label.
func Classify(text string, rs *rules.RuleSet, threshold int) domain.ClassificationResult {
	if text == "" || rs == nil {
		return domain.ClassificationResult{}
	}
	if threshold < 1 {
		threshold = 1
	}

	best := domain.ClassificationResult{}
	for i := 0; i < rs.Len(); i++ {
		score := rs.Hits(i, text)
		if score < threshold || score <= best.Score {
			continue
		}
		best = domain.ClassificationResult{Label: rs.Label(i), Score: score}
	}
	return best
}

// ClassifyWithSet uses the rule set's own threshold.
func ClassifyWithSet(text string, rs *rules.RuleSet) domain.ClassificationResult {
	if rs == nil {
		return domain.ClassificationResult{}
	}
	return Classify(text, rs, rs.Threshold())
}

// Explain returns every rule's score in declaration order. Used when tuning
// rules against unmatched samples.
func Explain(text string, rs *rules.RuleSet) []domain.ClassificationResult {
	if rs == nil {
		return nil
	}
	out := make([]domain.ClassificationResult, rs.Len())
	for i := range out {
		score := 0
		if text != "" {
			score = rs.Hits(i, text)
		}
		out[i] = domain.ClassificationResult{Label: rs.Label(i), Score: score}
	}
	return out
}
