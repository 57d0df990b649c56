package models

import (
	"github.com/shopspring/decimal"
)

// Transaction represents a single purchase as stored for a user.
type Transaction struct {
	ID                string              `json:"id"`
	Date              string              `json:"date"`
	Merchant          string              `json:"merchant"`
	Category          Category            `json:"category,omitempty"`
	Amount            decimal.Decimal     `json:"amount"`
	EcoScore          *int                `json:"ecoScore"`
	EcoClassification EcoClassification   `json:"ecoClassification,omitempty"`
	Cashback          decimal.Decimal     `json:"cashback"`
	CO2Kg             decimal.NullDecimal `json:"co2Kg"`
	NeedsReceipt      bool                `json:"needsReceipt"`
	Receipt           *ReceiptAttachment  `json:"receipt,omitempty"`

	// ETag is the store's version of the row, used for conditional updates.
	ETag string `json:"-"`
}

// Clone returns a deep copy so callers can modify it without touching the original.
func (t Transaction) Clone() Transaction {
	out := t
	if t.EcoScore != nil {
		s := *t.EcoScore
		out.EcoScore = &s
	}
	if t.Receipt != nil {
		r := t.Receipt.clone()
		out.Receipt = &r
	}
	return out
}

// Baseline captures the fields a receipt may change.
func (t Transaction) Baseline() ReceiptBaseline {
	b := ReceiptBaseline{
		Amount:            t.Amount,
		EcoClassification: t.EcoClassification,
		NeedsReceipt:      t.NeedsReceipt,
		Cashback:          t.Cashback,
		CO2Kg:             t.CO2Kg,
	}
	if t.EcoScore != nil {
		s := *t.EcoScore
		b.EcoScore = &s
	}
	return b
}

// Restore resets the fields a receipt may change to the given baseline.
func (t *Transaction) Restore(b ReceiptBaseline) {
	t.Amount = b.Amount
	t.EcoClassification = b.EcoClassification
	t.NeedsReceipt = b.NeedsReceipt
	t.Cashback = b.Cashback
	t.CO2Kg = b.CO2Kg
	t.EcoScore = nil
	if b.EcoScore != nil {
		s := *b.EcoScore
		t.EcoScore = &s
	}
}

func (r ReceiptAttachment) clone() ReceiptAttachment {
	out := r
	if r.Parsed.Items != nil {
		out.Parsed.Items = make([]LineItem, len(r.Parsed.Items))
		copy(out.Parsed.Items, r.Parsed.Items)
	}
	if r.Parsed.Date != nil {
		d := *r.Parsed.Date
		out.Parsed.Date = &d
	}
	if r.ScoredItems != nil {
		out.ScoredItems = make([]ItemEcoScore, len(r.ScoredItems))
		copy(out.ScoredItems, r.ScoredItems)
	}
	out.Baseline = r.Baseline
	if r.Baseline.EcoScore != nil {
		s := *r.Baseline.EcoScore
		out.Baseline.EcoScore = &s
	}
	return out
}
