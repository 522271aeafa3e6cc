package usecase

import (
	"strings"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

// QueryClassifier infers query intent and topics from ordered phrase rules.
// Intent is single-label first-match, topics are multi-label.
type QueryClassifier struct {
	rules domain.QueryRules
}

func NewQueryClassifier(rules domain.QueryRules) *QueryClassifier {
	if rules.DefaultIntent == "" {
		rules.DefaultIntent = "foundational"
	}
	return &QueryClassifier{rules: rules}
}

// Classify matches the lowercased query against the rulesets. The first intent
// rule with any phrase hit wins; an unmatched query keeps the default intent.
func (c *QueryClassifier) Classify(query string) domain.QueryClassification {
	q := strings.ToLower(query)

	result := domain.QueryClassification{Intent: c.rules.DefaultIntent}

	for _, rule := range c.rules.Intents {
		if anyContained(q, rule.Phrases) {
			result.Intent = rule.Name
			break
		}
	}

	for _, topic := range c.rules.Topics {
		if anyContained(q, topic.Keywords) {
			result.Topics = append(result.Topics, topic.Name)
		}
	}
	return result
}

func anyContained(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
