package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/DrKat0m/GreenBucks/internal/csvparse"
	"github.com/DrKat0m/GreenBucks/internal/eco"
	"github.com/DrKat0m/GreenBucks/internal/export"
	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/DrKat0m/GreenBucks/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Imported   []models.Transaction `json:"imported"`
	Duplicates int                  `json:"duplicates"`
	Errors     []string             `json:"errors"`
}

// HandleListTransactions returns stored transactions, newest first.
// needs_receipt=true limits the list to transactions waiting on a receipt.
func (d *Dependencies) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		transactions []models.Transaction
		err          error
	)
	if needs, _ := strconv.ParseBool(r.URL.Query().Get("needs_receipt")); needs {
		transactions, err = d.Database.ListTransactionsNeedingReceipt(r.Context())
	} else {
		transactions, err = d.Database.ListTransactions(r.Context())
	}
	if err != nil {
		slog.Error("failed to list transactions", "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to list transactions: "+err.Error())
		return
	}
	slog.Info("successfully retrieved transactions", "count", len(transactions))
	WriteJSON(w, http.StatusOK, transactions)
}

// HandleGetTransaction returns a single transaction by ID.
func (d *Dependencies) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing transaction ID")
		return
	}
	tx, err := d.Database.GetTransaction(r.Context(), id)
	if err != nil {
		slog.Warn("failed to get transaction", "transaction_id", id, "error", err)
		writeStoreError(w, err, "Failed to get transaction")
		return
	}
	WriteJSON(w, http.StatusOK, tx)
}

// HandleCreateTransactions stores one transaction or an array of them. Each new
// transaction is triaged before it is saved.
func (d *Dependencies) HandleCreateTransactions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var transactions []models.Transaction
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &transactions)
	} else {
		var tx models.Transaction
		err = json.Unmarshal(trimmed, &tx)
		transactions = []models.Transaction{tx}
	}
	if err != nil {
		slog.Warn("invalid transaction request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(transactions) == 0 {
		WriteError(w, http.StatusBadRequest, "No transactions given")
		return
	}

	for i := range transactions {
		tx := &transactions[i]
		if strings.TrimSpace(tx.Merchant) == "" || strings.TrimSpace(tx.Date) == "" {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("Transaction %d: date and merchant are required", i))
			return
		}
		tx.Receipt = nil
		triage(tx)
	}

	created, err := d.Database.CreateTransactions(r.Context(), transactions)
	if err != nil {
		slog.Error("failed to save transactions", "total_count", len(transactions), "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to save transactions: "+err.Error())
		return
	}
	slog.Info("saved new transactions", "new_count", len(created), "total_given", len(transactions))
	WriteJSON(w, http.StatusCreated, created)
}

// HandleImportCSV imports a bank CSV, sent either as multipart field "file" or
// as the raw request body.
func (d *Dependencies) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	content, err := readCSVUpload(r)
	if err != nil {
		slog.Warn("failed to read CSV upload", "error", err)
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, rowErrors := csvparse.ParseCSV(content)
	slog.Info("parsed CSV content", "transactions_count", len(transactions), "errors_count", len(rowErrors))

	if rowErrors == nil {
		rowErrors = []string{}
	}
	if len(transactions) == 0 {
		WriteJSON(w, http.StatusOK, ImportResult{Imported: []models.Transaction{}, Errors: rowErrors})
		return
	}

	for i := range transactions {
		triage(&transactions[i])
	}

	created, err := d.Database.CreateTransactions(r.Context(), transactions)
	if err != nil {
		slog.Error("failed to save transactions", "total_count", len(transactions), "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to save transactions: "+err.Error())
		return
	}
	slog.Info("saved new transactions", "new_count", len(created), "total_parsed", len(transactions))

	WriteJSON(w, http.StatusOK, ImportResult{
		Imported:   created,
		Duplicates: len(transactions) - len(created),
		Errors:     rowErrors,
	})
}

// RecomputeResult summarizes a recompute run.
type RecomputeResult struct {
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// HandleRecompute re-triages stored transactions that have neither an eco score
// nor a receipt, so rows imported before the footprint tables changed get
// scored. Rows that changed underneath are skipped and picked up next run.
func (d *Dependencies) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	transactions, err := d.Database.ListTransactions(r.Context())
	if err != nil {
		slog.Error("failed to list transactions for recompute", "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to list transactions: "+err.Error())
		return
	}

	res := RecomputeResult{Errors: []string{}}
	for _, tx := range transactions {
		if tx.EcoScore != nil || tx.Receipt != nil {
			continue
		}
		triage(&tx)
		if _, err := d.Database.UpdateTransaction(r.Context(), tx); err != nil {
			if errors.Is(err, services.ErrConcurrentUpdate) || errors.Is(err, services.ErrTransactionNotFound) {
				slog.Warn("transaction changed during recompute, skipping", "transaction_id", tx.ID, "error", err)
				res.Skipped++
				continue
			}
			slog.Error("failed to save recomputed transaction", "transaction_id", tx.ID, "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", tx.ID, err))
			continue
		}
		res.Updated++
	}

	slog.Info("recompute complete", "total_count", len(transactions), "updated", res.Updated, "skipped", res.Skipped, "errors_count", len(res.Errors))
	WriteJSON(w, http.StatusOK, res)
}

// HandleExportTransactions returns all transactions as an Excel workbook.
func (d *Dependencies) HandleExportTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := d.Database.ListTransactions(r.Context())
	if err != nil {
		slog.Error("failed to list transactions for export", "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to list transactions: "+err.Error())
		return
	}

	data, err := export.TransactionsXLSX(transactions)
	if err != nil {
		slog.Error("failed to build export workbook", "count", len(transactions), "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to export transactions: "+err.Error())
		return
	}

	name := fmt.Sprintf("greenbucks-%s.xlsx", d.now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write export response", "error", err)
	}
}

func triage(tx *models.Transaction) {
	var categories []string
	if tx.Category != "" {
		categories = []string{string(tx.Category)}
	}
	eco.Triage(tx.Merchant, categories).Apply(tx)
}

func readCSVUpload(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
			return "", errors.New("File too large or invalid form")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", errors.New("Failed to get file")
		}
		defer file.Close()
		b, err := io.ReadAll(file)
		if err != nil {
			return "", errors.New("Failed to read file")
		}
		return string(b), nil
	}

	b, err := io.ReadAll(io.LimitReader(r.Body, maxReceiptSize))
	if err != nil {
		return "", errors.New("Failed to read request body")
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return "", errors.New("Empty CSV")
	}
	return string(b), nil
}
