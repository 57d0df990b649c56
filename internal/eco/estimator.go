package eco

import (
	"regexp"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/shopspring/decimal"
)

// Estimation is the cashback and footprint derived from a spend and its score.
type Estimation struct {
	Cashback decimal.Decimal     `json:"cashback"`
	CO2Kg    decimal.NullDecimal `json:"co2Kg"`

	// Items is a copy of the scored items with each line's footprint filled in.
	Items []models.ItemEcoScore `json:"items,omitempty"`
}

var cashbackRates = map[models.EcoTier]decimal.Decimal{
	models.TierEcoPlusPlus: decimal.RequireFromString("0.05"),
	models.TierEcoPlus:     decimal.RequireFromString("0.03"),
	models.TierNeutral:     decimal.RequireFromString("0.015"),
	models.TierLessEco:     decimal.RequireFromString("0.01"),
	models.TierNonEco:      decimal.RequireFromString("0.005"),
}

// co2Band is one linear segment: perUSD = base + (top - score) * step.
type co2Band struct {
	low, top   int
	base, step decimal.Decimal
}

var co2Bands = []co2Band{
	{9, 10, decimal.RequireFromString("0.05"), decimal.RequireFromString("0.05")},
	{7, 8, decimal.RequireFromString("0.15"), decimal.RequireFromString("0.10")},
	{5, 6, decimal.RequireFromString("0.40"), decimal.RequireFromString("0.15")},
	{3, 4, decimal.RequireFromString("0.80"), decimal.RequireFromString("0.30")},
	{0, 2, decimal.RequireFromString("1.50"), decimal.RequireFromString("0.50")},
}

type multiplierRule struct {
	pattern *regexp.Regexp
	factor  decimal.Decimal
}

// multiplierRules is checked in order; the first match wins.
var multiplierRules = []multiplierRule{
	{regexp.MustCompile(`(?i)meat|beef|steak|lamb|burger`), decimal.RequireFromString("2.5")},
	{regexp.MustCompile(`(?i)chicken|pork|fish|seafood`), decimal.RequireFromString("1.8")},
	{regexp.MustCompile(`(?i)dairy|milk|cheese|yogurt`), decimal.RequireFromString("1.4")},
	{regexp.MustCompile(`(?i)processed|packaged|frozen`), decimal.RequireFromString("1.2")},
	{regexp.MustCompile(`(?i)organic|local|sustainable`), decimal.RequireFromString("0.4")},
	{regexp.MustCompile(`(?i)vegetable|fruit|bean|lentil|grain|rice`), decimal.RequireFromString("0.3")},
}

// CashbackRate is the share of spend paid back for a score.
func CashbackRate(score int) decimal.Decimal {
	return cashbackRates[TierForScore(score)]
}

// CO2PerDollar is the kg CO2e per dollar spent for a score.
func CO2PerDollar(score int) decimal.Decimal {
	s := clampScore(score)
	for _, b := range co2Bands {
		if s >= b.low && s <= b.top {
			return b.base.Add(b.step.Mul(decimal.NewFromInt(int64(b.top - s))))
		}
	}
	// unreachable: bands cover 0-10
	return co2Bands[len(co2Bands)-1].base
}

// CategoryMultiplier scales an item's footprint by what kind of product it is.
func CategoryMultiplier(name string) decimal.Decimal {
	for _, r := range multiplierRules {
		if r.pattern.MatchString(name) {
			return r.factor
		}
	}
	return decimal.NewFromInt(1)
}

// Estimate computes cashback and CO2 for a spend. Without a score cashback is
// zero and CO2 is left absent. With scored items the footprint is summed per
// item; a zero item sum falls back to the spend-level figure.
func Estimate(amount decimal.Decimal, ecoScore *int, items []models.ItemEcoScore) Estimation {
	var out []models.ItemEcoScore
	if items != nil {
		out = make([]models.ItemEcoScore, len(items))
		copy(out, items)
		for i := range out {
			out[i].CO2Kg = decimal.NullDecimal{}
		}
	}
	if ecoScore == nil {
		return Estimation{Cashback: decimal.Zero, Items: out}
	}
	spend := amount.Abs()
	perUSD := CO2PerDollar(*ecoScore)

	co2 := decimal.Zero
	for i := range out {
		itemCO2 := out[i].Item.Price.Abs().Mul(perUSD).Mul(CategoryMultiplier(out[i].Item.Name))
		out[i].CO2Kg = decimal.NewNullDecimal(itemCO2.Round(3))
		co2 = co2.Add(itemCO2)
	}
	if co2.IsZero() {
		co2 = spend.Mul(perUSD)
	}

	return Estimation{
		Cashback: spend.Mul(CashbackRate(*ecoScore)).Round(2),
		CO2Kg:    decimal.NewNullDecimal(co2.Round(3)),
		Items:    out,
	}
}
