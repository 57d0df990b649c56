package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnknownMerchant is the merchant name reported when no receipt line looks like one.
const UnknownMerchant = "Unknown Merchant"

// LineItem is a single purchased line read off a receipt.
type LineItem struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"amount"`
}

// ParsedReceipt holds the structured fields extracted from raw OCR text.
// Absent fields serialize as null so the display layer keeps a stable shape.
type ParsedReceipt struct {
	Merchant string              `json:"merchant"`
	Date     *string             `json:"date"`
	Subtotal decimal.NullDecimal `json:"subtotal"`
	Tax      decimal.NullDecimal `json:"tax"`
	Total    decimal.NullDecimal `json:"total"`
	Items    []LineItem          `json:"items"`
}

// IsEmpty reports whether nothing beyond the merchant sentinel was recognized.
func (p ParsedReceipt) IsEmpty() bool {
	return (p.Merchant == "" || p.Merchant == UnknownMerchant) &&
		p.Date == nil &&
		!p.Subtotal.Valid &&
		!p.Tax.Valid &&
		!p.Total.Valid &&
		len(p.Items) == 0
}

// ItemNames returns the item names in receipt order.
func (p ParsedReceipt) ItemNames() []string {
	names := make([]string, len(p.Items))
	for i, it := range p.Items {
		names[i] = it.Name
	}
	return names
}

// ReceiptBaseline is the state of a transaction before any receipt touched it.
type ReceiptBaseline struct {
	Amount            decimal.Decimal     `json:"amount"`
	EcoScore          *int                `json:"ecoScore"`
	EcoClassification EcoClassification   `json:"ecoClassification,omitempty"`
	NeedsReceipt      bool                `json:"needsReceipt"`
	Cashback          decimal.Decimal     `json:"cashback"`
	CO2Kg             decimal.NullDecimal `json:"co2Kg"`
}

// ReceiptAttachment is the audit record stored on a transaction for an uploaded receipt.
// It is replaced wholesale when another receipt is attached, never edited.
type ReceiptAttachment struct {
	RawText     string          `json:"rawText"`
	Parsed      ParsedReceipt   `json:"parsed"`
	FileName    string          `json:"fileName"`
	BlobName    string          `json:"blobName,omitempty"`
	AttachedAt  time.Time       `json:"attachedAt"`
	ScoredItems []ItemEcoScore  `json:"scoredItems,omitempty"`
	Baseline    ReceiptBaseline `json:"baseline"`
}
