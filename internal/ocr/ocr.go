// Package ocr turns a receipt image into raw text. Two providers are
// available: a local tesseract binary and the Gemini API.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrOCRFailed wraps every provider failure so callers can report a single
	// "try again" outcome.
	ErrOCRFailed = errors.New("ocr failed")
	// ErrNoText is returned when the provider ran but recognized nothing.
	ErrNoText = errors.New("ocr produced no text")
)

const (
	ProviderTesseract = "tesseract"
	ProviderGemini    = "gemini"
)

// Extractor reads the text printed on a receipt image.
type Extractor interface {
	ExtractText(ctx context.Context, image []byte, contentType string) (Result, error)
}

type Result struct {
	Text       string
	Method     string // "tesseract" | "gemini"
	Duration   time.Duration
	Confidence float32
}

type Config struct {
	Provider string

	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	PSM           int

	GeminiModel  string
	GeminiAPIKey string

	Timeout time.Duration
}

// ConfigFromEnv reads the OCR settings from the environment.
func ConfigFromEnv() Config {
	return Config{
		Provider:      getEnv("OCR_PROVIDER", ProviderTesseract),
		Tesseract:     getEnv("TESSERACT_PATH", "tesseract"),
		TesseractLang: getEnv("TESSERACT_LANG", "eng"),
		TessdataDir:   os.Getenv("TESSDATA_PREFIX"),
		PSM:           6,
		GeminiModel:   getEnv("GEMINI_MODEL", DefaultGeminiModel),
		GeminiAPIKey:  os.Getenv("GOOGLE_API_KEY"),
		Timeout:       60 * time.Second,
	}
}

// New builds the extractor selected by cfg.Provider.
func New(ctx context.Context, cfg Config) (Extractor, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderTesseract:
		return NewTesseractExtractor(cfg, nil), nil
	case ProviderGemini:
		return NewGeminiExtractor(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", cfg.Provider)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var (
	reBoxNoise   = regexp.MustCompile(`[│┃┆┇┊┋╎╏║]+`)
	reTrailingWS = regexp.MustCompile(`[ \t]+\n`)
	reManyBlank  = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans line endings and layout noise. Characters inside words are
// left alone so dates and amounts survive untouched.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reTrailingWS.ReplaceAllString(s, "\n")
	s = reManyBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

var (
	reDate   = regexp.MustCompile(`\b(20\d{2})[-/]\d{1,2}[-/]\d{1,2}\b|\b\d{1,2}[-/]\d{1,2}[-/]20\d{2}\b`)
	reCurr   = regexp.MustCompile(`\b(usd)\b|\$`)
	reAmount = regexp.MustCompile(`\b\d+\.\d{2}\b`)
	reTotal  = regexp.MustCompile(`\b(total|amount due|balance)\b`)
)

// heuristicConfidence scores how receipt-like the text is.
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2)
	if reDate.MatchString(txtL) {
		score += 0.2
	}
	if reCurr.MatchString(txtL) {
		score += 0.15
	}
	if reAmount.MatchString(txtL) {
		score += 0.15
	}
	if reTotal.MatchString(txtL) {
		score += 0.2
	}
	if len(txt) > 120 {
		score += 0.1
	}
	return min(score, 1.0)
}

func finish(method, raw string, start time.Time) (Result, error) {
	txt := Normalize(raw)
	if txt == "" {
		return Result{Method: method, Duration: time.Since(start)}, fmt.Errorf("%w: %w", ErrOCRFailed, ErrNoText)
	}
	return Result{
		Text:       txt,
		Method:     method,
		Duration:   time.Since(start),
		Confidence: heuristicConfidence(txt),
	}, nil
}
