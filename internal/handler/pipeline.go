package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/DrKat0m/GreenBucks/internal/reconcile"
	"github.com/DrKat0m/GreenBucks/internal/services"
)

// maxAttachAttempts bounds the read-reconcile-write retries on ETag conflicts.
const maxAttachAttempts = 3

// receiptInput is everything known about one receipt before it is reconciled.
type receiptInput struct {
	TransactionID string
	RawText       string
	Parsed        models.ParsedReceipt
	FileName      string
	BlobName      string
}

// attachReceipt reconciles a parsed receipt into the stored transaction and
// writes it back. The read and the conditional write are retried together when
// another writer got in between.
func (d *Dependencies) attachReceipt(ctx context.Context, in receiptInput) (*models.Transaction, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttachAttempts; attempt++ {
		tx, err := d.Database.GetTransaction(ctx, in.TransactionID)
		if err != nil {
			return nil, err
		}

		updated := reconcile.Attach(*tx, in.Parsed, in.RawText, in.FileName, d.now())
		updated.Receipt.BlobName = in.BlobName

		saved, err := d.Database.UpdateTransaction(ctx, updated)
		if err == nil {
			slog.Info("receipt attached",
				"transaction_id", in.TransactionID,
				"merchant", in.Parsed.Merchant,
				"items_count", len(in.Parsed.Items),
				"eco_classification", saved.EcoClassification,
				"needs_receipt", saved.NeedsReceipt,
				"attempt", attempt,
			)
			return saved, nil
		}
		if !errors.Is(err, services.ErrConcurrentUpdate) {
			return nil, err
		}
		slog.Warn("concurrent update while attaching receipt, retrying", "transaction_id", in.TransactionID, "attempt", attempt)
		lastErr = err
	}
	return nil, fmt.Errorf("failed to attach receipt after %d attempts: %w", maxAttachAttempts, lastErr)
}
