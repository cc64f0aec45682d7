package ledger

import "strings"

// Classifier infers the account type of a free-text category label.
type Classifier interface {
	Classify(label string) AccountType
}

// KeywordRule maps any of its keywords to Type.
type KeywordRule struct {
	Type     AccountType
	Keywords []string
}

// KeywordClassifier matches labels against rules in order and falls back to
// Default. Matching is case-insensitive substring search.
type KeywordClassifier struct {
	Rules   []KeywordRule
	Default AccountType
}

// DefaultClassifier is the cash-book heuristic. Rule order is the precedence:
// a label such as "cash received" matches both Revenue and Asset keywords and
// resolves to Revenue.
var DefaultClassifier = KeywordClassifier{
	Rules: []KeywordRule{
		{Type: TypeLiability, Keywords: []string{"loan", "payable", "due", "outstanding"}},
		{Type: TypeRevenue, Keywords: []string{"received", "sale", "income", "revenue"}},
		{Type: TypeAsset, Keywords: []string{"machine", "equipment", "building", "vehicle", "furniture", "cash"}},
	},
	Default: TypeExpense,
}

func (c KeywordClassifier) Classify(label string) AccountType {
	l := strings.ToLower(label)
	for _, r := range c.Rules {
		for _, kw := range r.Keywords {
			if strings.Contains(l, kw) {
				return r.Type
			}
		}
	}
	return c.Default
}

// MapClassifier consults an exact (case-insensitive) label table before
// delegating to Fallback. Keys must be lower-case.
type MapClassifier struct {
	Types    map[string]AccountType
	Fallback Classifier
}

func (c MapClassifier) Classify(label string) AccountType {
	if t, ok := c.Types[strings.ToLower(strings.TrimSpace(label))]; ok {
		return t
	}
	if c.Fallback == nil {
		return DefaultClassifier.Classify(label)
	}
	return c.Fallback.Classify(label)
}
