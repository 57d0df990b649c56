package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/DrKat0m/GreenBucks/internal/ocr"
	"github.com/DrKat0m/GreenBucks/internal/receiptparse"
)

// maxReceiptSize caps uploaded receipt images.
const maxReceiptSize = 10 << 20

const ocrFailedMessage = "Receipt processing failed, try again"

// ReceiptJob is the queue message for asynchronous receipt processing.
type ReceiptJob struct {
	BlobName      string `json:"blobName"`
	TransactionID string `json:"transactionId"`
	FileName      string `json:"fileName"`
	ContentType   string `json:"contentType"`
}

// ReceiptResponse is returned once a receipt has been attached.
type ReceiptResponse struct {
	Transaction *models.Transaction  `json:"transaction"`
	Parsed      models.ParsedReceipt `json:"parsed"`
	Text        string               `json:"text"`
}

// HandleReceiptUpload stores a receipt image for a transaction, then either
// queues it or runs OCR and reconciliation inline.
func (d *Dependencies) HandleReceiptUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		slog.Warn("upload attempt with invalid method", "method", r.Method, "path", r.URL.Path)
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		slog.Warn("failed to parse multipart form", "error", err, "max_size_mb", maxReceiptSize>>20)
		WriteError(w, http.StatusBadRequest, "File too large or invalid form")
		return
	}

	txID := strings.TrimSpace(r.FormValue("transaction_id"))
	if txID == "" {
		WriteError(w, http.StatusBadRequest, "Missing transaction_id")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Warn("failed to get file from form", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to get file")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed to read uploaded file", "filename", header.Filename, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	if len(image) == 0 {
		WriteError(w, http.StatusBadRequest, "Uploaded file is empty")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(image)
	}
	slog.Info("received receipt upload", "transaction_id", txID, "filename", header.Filename, "size_bytes", len(image), "content_type", contentType)

	// fail fast on unknown transactions before storing anything
	if _, err := d.Database.GetTransaction(r.Context(), txID); err != nil {
		slog.Warn("receipt upload for unreadable transaction", "transaction_id", txID, "error", err)
		writeStoreError(w, err, "Failed to load transaction")
		return
	}

	filename := filepath.Base(header.Filename)
	container := receiptsContainer()
	blobName := fmt.Sprintf("%s/%s-%s", txID, d.now().Format("20060102-150405"), filename)

	if err := d.Blob.UploadBytes(r.Context(), container, blobName, image, contentType); err != nil {
		slog.Error("failed to upload blob", "blob_name", blobName, "container", container, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to upload receipt: "+err.Error())
		return
	}

	if async, _ := strconv.ParseBool(r.FormValue("async")); async {
		job := ReceiptJob{BlobName: blobName, TransactionID: txID, FileName: filename, ContentType: contentType}
		queue := receiptQueue()
		if err := d.Queue.EnqueueMessage(r.Context(), queue, job); err != nil {
			slog.Error("failed to enqueue message", "queue", queue, "blob_name", blobName, "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to enqueue receipt: "+err.Error())
			return
		}
		slog.Info("receipt queued for processing", "queue", queue, "transaction_id", txID, "blob_name", blobName)
		WriteJSON(w, http.StatusAccepted, map[string]string{
			"status":        "queued",
			"blobName":      blobName,
			"transactionId": txID,
		})
		return
	}

	res, err := d.OCR.ExtractText(r.Context(), image, contentType)
	if err != nil {
		slog.Error("ocr failed", "transaction_id", txID, "blob_name", blobName, "no_text", errors.Is(err, ocr.ErrNoText), "error", err)
		WriteError(w, http.StatusBadGateway, ocrFailedMessage)
		return
	}
	slog.Info("ocr complete", "transaction_id", txID, "method", res.Method, "chars", len(res.Text), "confidence", res.Confidence)

	d.respondWithAttachment(w, r, receiptInput{
		TransactionID: txID,
		RawText:       res.Text,
		Parsed:        receiptparse.Parse(res.Text),
		FileName:      filename,
		BlobName:      blobName,
	})
}

type receiptTextRequest struct {
	TransactionID string `json:"transaction_id"`
	Text          string `json:"text"`
	FileName      string `json:"file_name"`
}

// HandleReceiptText attaches already extracted receipt text to a transaction.
func (d *Dependencies) HandleReceiptText(w http.ResponseWriter, r *http.Request) {
	var req receiptTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("invalid receipt text request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TransactionID == "" {
		WriteError(w, http.StatusBadRequest, "Missing transaction_id")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		WriteError(w, http.StatusBadRequest, "Missing text")
		return
	}
	if req.FileName == "" {
		req.FileName = "manual.txt"
	}

	d.respondWithAttachment(w, r, receiptInput{
		TransactionID: req.TransactionID,
		RawText:       req.Text,
		Parsed:        receiptparse.Parse(req.Text),
		FileName:      req.FileName,
	})
}

// HandleParseReceipt parses receipt text without touching any transaction.
func (d *Dependencies) HandleParseReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	WriteJSON(w, http.StatusOK, receiptparse.Parse(req.Text))
}

type parsedReceiptRequest struct {
	TransactionID string          `json:"transaction_id"`
	RawText       string          `json:"raw_text"`
	FileName      string          `json:"file_name"`
	Parsed        json.RawMessage `json:"parsed"`
}

// HandleParsedReceipt attaches a receipt that was parsed elsewhere. The parsed
// payload must match the persisted receipt shape.
func (d *Dependencies) HandleParsedReceipt(w http.ResponseWriter, r *http.Request) {
	var req parsedReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TransactionID == "" {
		WriteError(w, http.StatusBadRequest, "Missing transaction_id")
		return
	}

	parsed, err := receiptparse.DecodeParsed(req.Parsed)
	if err != nil {
		slog.Warn("rejected parsed receipt", "transaction_id", req.TransactionID, "error", err)
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d.respondWithAttachment(w, r, receiptInput{
		TransactionID: req.TransactionID,
		RawText:       req.RawText,
		Parsed:        parsed,
		FileName:      req.FileName,
	})
}

func (d *Dependencies) respondWithAttachment(w http.ResponseWriter, r *http.Request, in receiptInput) {
	saved, err := d.attachReceipt(r.Context(), in)
	if err != nil {
		slog.Error("failed to attach receipt", "transaction_id", in.TransactionID, "error", err)
		writeStoreError(w, err, "Failed to attach receipt")
		return
	}
	WriteJSON(w, http.StatusOK, ReceiptResponse{
		Transaction: saved,
		Parsed:      in.Parsed,
		Text:        in.RawText,
	})
}
