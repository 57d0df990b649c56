// Package eco holds the eco heuristics: merchant classification, item and
// merchant scoring, and the cashback and CO2 estimates derived from a score.
package eco

import (
	"regexp"
	"strings"

	"github.com/DrKat0m/GreenBucks/internal/models"
)

type ruleTarget int

const (
	targetMerchant ruleTarget = iota
	targetItems
)

type classifierRule struct {
	target  ruleTarget
	pattern *regexp.Regexp
	outcome models.EcoClassification
}

// classifierRules is evaluated top to bottom; the first match wins, so merchant
// signals always take precedence over item names.
var classifierRules = []classifierRule{
	{targetMerchant, regexp.MustCompile(`(?i)bus|transit|metro|subway|pass`), models.EcoPositive},
	{targetMerchant, regexp.MustCompile(`(?i)farmer|market|organic|co-op`), models.EcoPositive},
	{targetMerchant, regexp.MustCompile(`(?i)rideshare|uber|lyft|gas|fuel|oil`), models.EcoNegative},
	{targetItems, regexp.MustCompile(`(?i)vegetable|veggie|plant|green|recycle`), models.EcoPositive},
}

// Classify tags a purchase from its merchant name and item names. Either may
// be empty. Unknown is a normal outcome.
func Classify(merchant string, itemNames []string) models.EcoClassification {
	joined := strings.Join(itemNames, " ")
	for _, r := range classifierRules {
		subject := merchant
		if r.target == targetItems {
			subject = joined
		}
		if subject != "" && r.pattern.MatchString(subject) {
			return r.outcome
		}
	}
	return models.EcoUnknown
}
