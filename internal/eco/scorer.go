package eco

import (
	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/shopspring/decimal"
)

const (
	MinScore = 0
	MaxScore = 10
)

func clampScore(score int) int {
	return max(MinScore, min(MaxScore, score))
}

// TierForScore returns the tier band containing score. Out of range scores
// are clamped first.
func TierForScore(score int) models.EcoTier {
	switch s := clampScore(score); {
	case s >= 9:
		return models.TierEcoPlusPlus
	case s >= 7:
		return models.TierEcoPlus
	case s >= 5:
		return models.TierNeutral
	case s >= 3:
		return models.TierLessEco
	default:
		return models.TierNonEco
	}
}

// ScoreItem attaches a tier to an item given its base score. Without a base
// score the item stays unscored.
func ScoreItem(item models.LineItem, base *int) models.ItemEcoScore {
	scored := models.ItemEcoScore{Item: item}
	if base == nil {
		return scored
	}
	s := clampScore(*base)
	tier := TierForScore(s)
	scored.Score = &s
	scored.Tier = &tier
	return scored
}

// ItemBaseScore looks the item name up in the item footprint table.
func ItemBaseScore(name string) (int, bool) {
	perUSD, ok := lookupName(name)
	if !ok {
		return 0, false
	}
	return ScoreFromCO2ePerDollar(perUSD), true
}

// ScoreItems scores each item from the item table, keeping order.
func ScoreItems(items []models.LineItem) []models.ItemEcoScore {
	scored := make([]models.ItemEcoScore, 0, len(items))
	for _, it := range items {
		var base *int
		if s, ok := ItemBaseScore(it.Name); ok {
			base = &s
		}
		scored = append(scored, ScoreItem(it, base))
	}
	return scored
}

// AggregateScore is the price-weighted mean of the scored items, rounded half up.
// When the scored items carry no price it falls back to the plain mean.
// It returns nil when no item has a score.
func AggregateScore(scored []models.ItemEcoScore) *int {
	var (
		weighted = decimal.Zero
		weight   = decimal.Zero
		sum      = decimal.Zero
		n        int64
	)
	for _, it := range scored {
		if it.Score == nil {
			continue
		}
		s := decimal.NewFromInt(int64(*it.Score))
		sum = sum.Add(s)
		n++
		if it.Item.Price.IsPositive() {
			weighted = weighted.Add(s.Mul(it.Item.Price))
			weight = weight.Add(it.Item.Price)
		}
	}
	if n == 0 {
		return nil
	}
	var mean decimal.Decimal
	if weight.IsPositive() {
		mean = weighted.Div(weight)
	} else {
		mean = sum.Div(decimal.NewFromInt(n))
	}
	score := clampScore(int(mean.Round(0).IntPart()))
	return &score
}
