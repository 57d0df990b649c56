package eco

import (
	"strings"

	"github.com/DrKat0m/GreenBucks/internal/models"
)

type co2Hint struct {
	key    string
	perUSD float64
}

// Category keyword -> kg CO2e per USD. Matched against whole category names.
var categoryCO2 = []co2Hint{
	{"public transit", 0.04},
	{"rail", 0.05},
	{"bicycle", 0.02},
	{"electric charging", 0.08},
	{"groceries", 0.28},
	{"coffee shop", 0.28},
	{"restaurant", 0.35},
	{"delivery", 0.45},
	{"utilities", 0.35},
	{"electric", 0.35},
	{"ride share", 1.20},
	{"gas", 1.50},
	{"air", 2.50},
	{"fast food", 0.40},
}

// Name keyword -> kg CO2e per USD. Substring match, first wins.
var nameCO2 = []co2Hint{
	{"organic", 0.05},
	{"kale", 0.06},
	{"banana", 0.08},
	{"coffee", 0.25},
	{"beef", 5.0},
	{"chicken", 1.8},
	{"pork", 3.0},
	{"rice", 0.4},
	{"bread", 0.3},
	{"salad", 0.2},
	{"grocery", 0.30},
	{"starbucks", 0.28},
	{"shell", 1.50},
	{"uber", 1.20},
	{"lyft", 1.20},
	{"amtrak", 0.05},
}

const defaultCO2PerUSD = 0.50

var mixedMerchants = []string{"walmart", "target", "amazon", "costco"}

// scoreThresholds maps an upper bound of kg CO2e per USD to a score.
var scoreThresholds = []struct {
	max   float64
	score int
}{
	{0.03, 10},
	{0.06, 9},
	{0.10, 8},
	{0.15, 7},
	{0.22, 6},
	{0.30, 5},
	{0.45, 4},
	{0.60, 3},
	{0.90, 2},
	{1.50, 1},
}

// ScoreFromCO2ePerDollar maps a footprint intensity to a 0-10 score.
// Negative inputs are treated as zero.
func ScoreFromCO2ePerDollar(perUSD float64) int {
	if perUSD < 0 {
		perUSD = 0
	}
	for _, t := range scoreThresholds {
		if perUSD <= t.max {
			return t.score
		}
	}
	return 0
}

func lookupName(name string) (float64, bool) {
	n := strings.ToLower(name)
	for _, h := range nameCO2 {
		if strings.Contains(n, h.key) {
			return h.perUSD, true
		}
	}
	return 0, false
}

// LookupCO2PerUSD resolves the footprint intensity of a merchant. Categories
// take precedence over the name; with neither matching the default applies.
func LookupCO2PerUSD(name string, categories []string) float64 {
	cats := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		cats[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	for _, h := range categoryCO2 {
		if _, ok := cats[h.key]; ok {
			return h.perUSD
		}
	}
	if v, ok := lookupName(name); ok {
		return v
	}
	return defaultCO2PerUSD
}

// MerchantScore is the transaction-level score for a merchant without a receipt.
func MerchantScore(merchant string, categories []string) int {
	return ScoreFromCO2ePerDollar(LookupCO2PerUSD(merchant, categories))
}

// IsMixedMerchant reports whether the merchant sells goods across the whole eco
// range, so only a receipt can tell what was bought.
func IsMixedMerchant(merchant string) bool {
	m := strings.ToLower(merchant)
	for _, mm := range mixedMerchants {
		if strings.Contains(m, mm) {
			return true
		}
	}
	return false
}

// TriageResult is the initial eco state of a freshly ingested transaction.
type TriageResult struct {
	EcoScore          *int
	EcoClassification models.EcoClassification
	NeedsReceipt      bool
}

// Triage decides the starting eco fields of a new transaction. Mixed merchants
// get no score and are flagged for a receipt.
func Triage(merchant string, categories []string) TriageResult {
	res := TriageResult{EcoClassification: Classify(merchant, nil)}
	if IsMixedMerchant(merchant) {
		res.NeedsReceipt = true
		return res
	}
	score := MerchantScore(merchant, categories)
	res.EcoScore = &score
	return res
}

// Apply sets the triage outcome on a transaction along with the matching estimate.
func (r TriageResult) Apply(tx *models.Transaction) {
	tx.EcoClassification = r.EcoClassification
	tx.NeedsReceipt = r.NeedsReceipt
	tx.EcoScore = nil
	if r.EcoScore != nil {
		s := *r.EcoScore
		tx.EcoScore = &s
	}
	est := Estimate(tx.Amount, tx.EcoScore, nil)
	tx.Cashback = est.Cashback
	tx.CO2Kg = est.CO2Kg
}
