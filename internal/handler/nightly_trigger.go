package handler

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// HandleNightlyTrigger emails a reminder listing the transactions still waiting
// on a receipt.
func (d *Dependencies) HandleNightlyTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slog.Info("Starting nightly trigger processing")

	userEmail := os.Getenv("USER_EMAIL")
	if userEmail == "" {
		slog.Warn("USER_EMAIL environment variable is not set; skipping email notifications")
		w.WriteHeader(http.StatusOK)
		return
	}
	if d.Email == nil {
		slog.Warn("email service not configured; skipping receipt reminder")
		w.WriteHeader(http.StatusOK)
		return
	}

	pending, err := d.Database.ListTransactionsNeedingReceipt(ctx)
	if err != nil {
		slog.Error("Failed to fetch transactions needing receipt", "error", err)
		http.Error(w, "Failed to fetch transactions", http.StatusInternalServerError)
		return
	}

	if len(pending) == 0 {
		slog.Info("No transactions waiting on a receipt")
		w.WriteHeader(http.StatusOK)
		return
	}

	recipients := strings.Split(userEmail, ",")
	for i := range recipients {
		recipients[i] = strings.TrimSpace(recipients[i])
	}

	if err := d.Email.SendReceiptReminder(ctx, recipients, pending); err != nil {
		slog.Error("Failed to send receipt reminder email", "email", userEmail, "pending_count", len(pending), "error", err)
		http.Error(w, "Failed to send reminder", http.StatusInternalServerError)
		return
	}

	slog.Info("Nightly trigger processing complete", "email", userEmail, "pending_count", len(pending))
	w.WriteHeader(http.StatusOK)
}
