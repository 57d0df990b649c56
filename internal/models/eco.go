package models

import "github.com/shopspring/decimal"

// EcoClassification is the tri-state eco tag of a transaction.
// The zero value means the transaction has never been classified.
type EcoClassification string

const (
	EcoPositive EcoClassification = "positive"
	EcoNegative EcoClassification = "negative"
	EcoUnknown  EcoClassification = "unknown"
)

// IsKnown reports whether the classification is positive or negative.
func (c EcoClassification) IsKnown() bool {
	return c == EcoPositive || c == EcoNegative
}

// EcoTier names a band of the 0-10 eco score.
type EcoTier string

const (
	TierEcoPlusPlus EcoTier = "eco++"    // 9-10
	TierEcoPlus     EcoTier = "eco+"     // 7-8
	TierNeutral     EcoTier = "neutral"  // 5-6
	TierLessEco     EcoTier = "less-eco" // 3-4
	TierNonEco      EcoTier = "non-eco"  // 0-2
)

// AllTiers lists the tiers from least to most eco-friendly.
var AllTiers = []EcoTier{TierNonEco, TierLessEco, TierNeutral, TierEcoPlus, TierEcoPlusPlus}

// ItemEcoScore is a receipt line with its eco score, tier and footprint.
// Score and Tier are nil when no base score is known for the item; CO2Kg is
// absent until the transaction itself has a score.
type ItemEcoScore struct {
	Item  LineItem            `json:"item"`
	Score *int                `json:"score"`
	Tier  *EcoTier            `json:"tier"`
	CO2Kg decimal.NullDecimal `json:"co2Kg"`
}
