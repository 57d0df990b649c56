package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/DrKat0m/GreenBucks/internal/handler"
	"github.com/DrKat0m/GreenBucks/internal/ocr"
	"github.com/DrKat0m/GreenBucks/internal/services"
	"github.com/shopspring/decimal"
)

// maxLoggedBody keeps receipt images out of the request log.
const maxLoggedBody = 512

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	ctx := context.Background()

	// Initialize Services
	dbService, err := services.NewDatabaseService()
	if err != nil {
		slog.Error("Failed to init DatabaseService", "error", err)
		os.Exit(1)
	}

	blobService, closeBlob, err := newBlobClient(ctx)
	if err != nil {
		slog.Error("Failed to init blob storage", "error", err)
		os.Exit(1)
	}
	defer closeBlob()

	queueService, err := services.NewQueueService()
	if err != nil {
		slog.Error("Failed to init QueueService", "error", err)
		os.Exit(1)
	}

	extractor, err := ocr.New(ctx, ocr.ConfigFromEnv())
	if err != nil {
		slog.Error("Failed to init OCR", "error", err)
		os.Exit(1)
	}

	deps := &handler.Dependencies{
		Database: dbService,
		Blob:     blobService,
		Queue:    queueService,
		OCR:      extractor,
	}

	emailService, err := services.NewEmailService(nil)
	if err != nil {
		slog.Warn("Failed to init EmailService (continuing anyway)", "error", err)
	} else {
		deps.Email = emailService
	}

	// Router
	mux := http.NewServeMux()

	// API Routes
	mux.HandleFunc("GET /api/transactions", deps.HandleListTransactions)
	mux.HandleFunc("POST /api/transactions", deps.HandleCreateTransactions)
	mux.HandleFunc("POST /api/transactions/import", deps.HandleImportCSV)
	mux.HandleFunc("GET /api/transactions/export", deps.HandleExportTransactions)
	mux.HandleFunc("POST /api/transactions/recompute", deps.HandleRecompute)
	mux.HandleFunc("GET /api/transactions/{id}", deps.HandleGetTransaction)

	mux.HandleFunc("POST /api/receipts/upload", deps.HandleReceiptUpload)
	mux.HandleFunc("POST /api/receipts/text", deps.HandleReceiptText)
	mux.HandleFunc("POST /api/receipts/parse", deps.HandleParseReceipt)
	mux.HandleFunc("POST /api/receipts/parsed", deps.HandleParsedReceipt)

	// Adapter for HTTP Trigger (since enableForwardingHttpRequest is false)
	mux.HandleFunc("/HttpTrigger", deps.HandleHttpTrigger(mux))

	// Use simpler path matching for ProcessQueue to avoid method mismatch issues
	mux.HandleFunc("/ProcessQueue", deps.ProcessQueue)

	mux.HandleFunc("/NightlyTrigger", deps.HandleNightlyTrigger)

	// Catch-all handler for unmatched requests to debug what the Host is sending
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		headers := make(map[string]string)
		for k, v := range r.Header {
			headers[k] = strings.Join(v, ", ")
		}
		slog.Warn("UNMATCHED REQUEST",
			"method", r.Method,
			"path", r.URL.Path,
			"headers", headers,
			"content_length", r.ContentLength,
		)
		http.NotFound(w, r)
	})

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Get port from environment or default to 8080
	port := os.Getenv("FUNCTIONS_CUSTOMHANDLER_PORT")
	if port == "" {
		port = "8080"
	}

	loggedMux := loggingMiddleware(mux)

	slog.Info("Starting server", "port", port)
	if err := http.ListenAndServe(":"+port, loggedMux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// newBlobClient picks receipt image storage from BLOB_BACKEND: "azure" (default) or "gcs".
func newBlobClient(ctx context.Context) (handler.BlobClient, func(), error) {
	switch strings.ToLower(os.Getenv("BLOB_BACKEND")) {
	case "", "azure":
		svc, err := services.NewBlobService()
		if err != nil {
			return nil, nil, err
		}
		return svc, func() {}, nil
	case "gcs":
		svc, err := services.NewGCSBlobService(ctx)
		if err != nil {
			return nil, nil, err
		}
		return svc, func() {
			if err := svc.Close(); err != nil {
				slog.Warn("failed to close GCS client", "error", err)
			}
		}, nil
	default:
		return nil, nil, errors.New("unknown BLOB_BACKEND " + os.Getenv("BLOB_BACKEND"))
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Read body for logging (and restore it)
		var bodyBytes []byte
		if r.Body != nil {
			bodyBytes, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		preview := ""
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			preview = string(bodyBytes)
			if len(preview) > maxLoggedBody {
				preview = preview[:maxLoggedBody] + "..."
			}
		}

		slog.Info("incoming request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
			"content_type", r.Header.Get("Content-Type"),
			"content_length", r.ContentLength,
			"body_preview", preview,
		)

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		slog.Info("request completed", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", duration)
	})
}
