// Package reconcile merges a parsed receipt into a stored transaction.
package reconcile

import (
	"time"

	"github.com/DrKat0m/GreenBucks/internal/eco"
	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/DrKat0m/GreenBucks/internal/receiptparse"
)

// Attach returns a copy of tx with the receipt applied. The input is never
// modified.
//
// A receipt fills gaps and never contradicts: a known classification or an
// existing eco score is kept, while the amount follows the receipt total.
// Attaching again first rolls the transaction back to its pre-receipt state,
// so repeated uploads do not compound. A parse that recognized nothing only
// records the attachment. The receipt flag clears only once the transaction
// is both classified and scored.
func Attach(tx models.Transaction, parsed models.ParsedReceipt, rawText, fileName string, attachedAt time.Time) models.Transaction {
	out := tx.Clone()
	if out.Receipt != nil {
		out.Restore(out.Receipt.Baseline)
	}

	att := &models.ReceiptAttachment{
		RawText:    rawText,
		Parsed:     cloneParsed(parsed),
		FileName:   fileName,
		AttachedAt: attachedAt,
		Baseline:   out.Baseline(),
	}
	out.Receipt = att

	if parsed.IsEmpty() {
		return out
	}

	if parsed.Total.Valid {
		out.Amount = parsed.Total.Decimal.Abs().Neg()
	}

	if !out.EcoClassification.IsKnown() {
		out.EcoClassification = eco.Classify(merchantFor(parsed, out), parsed.ItemNames())
	}

	scored := eco.ScoreItems(receiptparse.PurchasedItems(parsed.Items))
	if out.EcoScore == nil {
		out.EcoScore = eco.AggregateScore(scored)
	}

	est := eco.Estimate(out.Amount, out.EcoScore, scored)
	out.Cashback = est.Cashback
	out.CO2Kg = est.CO2Kg

	if out.EcoClassification.IsKnown() && out.EcoScore != nil {
		out.NeedsReceipt = false
	}

	att.ScoredItems = est.Items
	return out
}

func merchantFor(parsed models.ParsedReceipt, tx models.Transaction) string {
	if parsed.Merchant == "" || parsed.Merchant == models.UnknownMerchant {
		return tx.Merchant
	}
	return parsed.Merchant
}

func cloneParsed(p models.ParsedReceipt) models.ParsedReceipt {
	out := p
	if p.Date != nil {
		d := *p.Date
		out.Date = &d
	}
	out.Items = make([]models.LineItem, len(p.Items))
	copy(out.Items, p.Items)
	return out
}
