package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/DrKat0m/GreenBucks/internal/ocr"
	"github.com/DrKat0m/GreenBucks/internal/receiptparse"
	"github.com/DrKat0m/GreenBucks/internal/services"
)

// invokeRequest represents the payload from Azure Functions Custom Handler.
type invokeRequest struct {
	Data     map[string]any `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// ProcessQueue handles the queue trigger for receipts uploaded with async=true.
// A 500 makes the host retry the message; a 200 consumes it.
func (d *Dependencies) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	var invokeReq invokeRequest
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("failed to read queue request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if err := json.Unmarshal(bodyBytes, &invokeReq); err != nil {
		slog.Error("failed to unmarshal queue request", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to unmarshal request")
		return
	}

	queueItemVal, ok := invokeReq.Data["queueItem"]
	if !ok {
		queueItemVal, ok = invokeReq.Data["queueitem"]
		if !ok {
			WriteError(w, http.StatusBadRequest, "Missing queueItem in Data")
			return
		}
	}

	job, err := decodeReceiptJob(queueItemVal)
	if err != nil {
		slog.Error("failed to decode queueItem", "error", err)
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid queueItem: %v", err))
		return
	}
	if job.BlobName == "" || job.TransactionID == "" {
		slog.Warn("queue message missing fields", "blob_name", job.BlobName, "transaction_id", job.TransactionID)
		WriteError(w, http.StatusBadRequest, "Missing blobName or transactionId")
		return
	}

	container := receiptsContainer()
	slog.Info("processing queue item", "blob_name", job.BlobName, "container", container, "transaction_id", job.TransactionID)

	image, contentType, err := d.Blob.DownloadBytes(r.Context(), container, job.BlobName)
	if err != nil {
		slog.Error("failed to download receipt from blob", "blob_name", job.BlobName, "container", container, "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to download receipt: %v", err))
		return
	}
	if job.ContentType != "" {
		contentType = job.ContentType
	}

	res, err := d.OCR.ExtractText(r.Context(), image, contentType)
	if err != nil {
		if errors.Is(err, ocr.ErrNoText) {
			slog.Warn("no text found on receipt, dropping message", "blob_name", job.BlobName, "transaction_id", job.TransactionID)
			w.WriteHeader(http.StatusOK)
			return
		}
		slog.Error("ocr failed", "blob_name", job.BlobName, "transaction_id", job.TransactionID, "error", err)
		WriteError(w, http.StatusInternalServerError, ocrFailedMessage)
		return
	}

	_, err = d.attachReceipt(r.Context(), receiptInput{
		TransactionID: job.TransactionID,
		RawText:       res.Text,
		Parsed:        receiptparse.Parse(res.Text),
		FileName:      job.FileName,
		BlobName:      job.BlobName,
	})
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			slog.Warn("transaction deleted before its receipt was processed", "transaction_id", job.TransactionID)
			w.WriteHeader(http.StatusOK)
			return
		}
		slog.Error("failed to attach receipt", "transaction_id", job.TransactionID, "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to attach receipt: %v", err))
		return
	}

	slog.Info("queue processing complete", "blob_name", job.BlobName, "transaction_id", job.TransactionID)
	w.WriteHeader(http.StatusOK)
}

// decodeReceiptJob accepts the queue item either as a JSON string or as an
// already decoded object, since the host delivers both.
func decodeReceiptJob(v any) (ReceiptJob, error) {
	var raw []byte
	switch item := v.(type) {
	case string:
		raw = []byte(item)
	case map[string]any:
		b, err := json.Marshal(item)
		if err != nil {
			return ReceiptJob{}, err
		}
		raw = b
	default:
		return ReceiptJob{}, fmt.Errorf("unsupported queueItem type %T", v)
	}

	var job ReceiptJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return ReceiptJob{}, err
	}
	return job, nil
}
