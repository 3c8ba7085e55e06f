package temporal

// Rule is one ordered boundary condition for era/label classification.
// A period matches when From <= period < Until; an empty bound is open.
// Period keys are ISO strings, so the comparison is plain lexicographic.
type Rule struct {
	Label string
	From  string // inclusive lower bound, "" = unbounded
	Until string // exclusive upper bound, "" = unbounded
}

// Classifier assigns a label to a period via ordered boundary rules evaluated
// top-to-bottom, first match wins -- a priority-ordered case expression.
// Boundaries and labels are configuration; the engine hard-codes none.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier from rules in priority order.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Label returns the first matching rule's label, or "" when no rule matches.
func (c *Classifier) Label(period string) string {
	if c == nil {
		return ""
	}
	for _, r := range c.rules {
		if r.From != "" && period < r.From {
			continue
		}
		if r.Until != "" && period >= r.Until {
			continue
		}
		return r.Label
	}
	return ""
}
