package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/DrKat0m/GreenBucks/internal/services"
)

// Dependencies holds the services required by the handlers.
type Dependencies struct {
	Database DatabaseClient
	Blob     BlobClient
	Queue    QueueClient
	Email    EmailClient
	OCR      OCRClient

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func receiptsContainer() string {
	if c := os.Getenv("RECEIPTS_CONTAINER"); c != "" {
		return c
	}
	return "receipts"
}

func receiptQueue() string {
	if q := os.Getenv("RECEIPT_QUEUE"); q != "" {
		return q
	}
	return "receipt-queue"
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps store sentinels to 404 and 409; anything else is a 500.
func writeStoreError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, services.ErrTransactionNotFound):
		WriteError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, services.ErrConcurrentUpdate):
		WriteError(w, http.StatusConflict, "Transaction was modified by another request, try again")
	default:
		WriteError(w, http.StatusInternalServerError, message+": "+err.Error())
	}
}
