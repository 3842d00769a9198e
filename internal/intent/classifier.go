// Package intent decides which extraction schema applies to a chat message.
//
// The decision is a plain keyword match: any income keyword routes the
// message to Income, everything else is an Expense. There is no negation
// handling; a message carrying both an income and an expense cue is Income.
package intent

import "strings"

type Intent int

const (
	Expense Intent = iota
	Income
)

func (i Intent) String() string {
	if i == Income {
		return "income"
	}
	return "expense"
}

// DefaultIncomeKeywords are matched case-insensitively as substrings.
var DefaultIncomeKeywords = []string{"sueldo", "ingreso"}

// Classifier is safe for concurrent use; it is immutable after New.
type Classifier struct {
	keywords []string
}

// Default classifies with DefaultIncomeKeywords.
var Default = New(DefaultIncomeKeywords...)

// New builds a classifier from income keywords. Blank keywords are ignored.
func New(incomeKeywords ...string) *Classifier {
	c := &Classifier{}
	for _, k := range incomeKeywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			c.keywords = append(c.keywords, k)
		}
	}
	return c
}

// Classify is total over all strings and depends only on the keyword set.
func (c *Classifier) Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, k := range c.keywords {
		if strings.Contains(lower, k) {
			return Income
		}
	}
	return Expense
}

// Keywords returns a copy of the income keywords.
func (c *Classifier) Keywords() []string {
	return append([]string(nil), c.keywords...)
}
