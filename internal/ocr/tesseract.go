package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// TesseractExtractor shells out to the tesseract CLI.
type TesseractExtractor struct {
	cfg    Config
	runner Runner
}

// NewTesseractExtractor uses the real exec runner when runner is nil.
func NewTesseractExtractor(cfg Config, runner Runner) *TesseractExtractor {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &TesseractExtractor{cfg: cfg, runner: runner}
}

func (e *TesseractExtractor) ExtractText(ctx context.Context, image []byte, contentType string) (Result, error) {
	start := time.Now()
	if len(image) == 0 {
		return Result{}, fmt.Errorf("%w: empty image", ErrOCRFailed)
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	f, err := os.CreateTemp("", "receipt-*"+extensionFor(contentType))
	if err != nil {
		return Result{}, fmt.Errorf("%w: create temp file: %w", ErrOCRFailed, err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(image); err != nil {
		f.Close()
		return Result{}, fmt.Errorf("%w: write temp file: %w", ErrOCRFailed, err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("%w: close temp file: %w", ErrOCRFailed, err)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.args(f.Name())...)
	if err != nil {
		return Result{Method: ProviderTesseract}, fmt.Errorf("%w: tesseract: %w: %s", ErrOCRFailed, err, truncate(strings.TrimSpace(string(errb)), 512))
	}

	res, err := finish(ProviderTesseract, string(out), start)
	if err != nil {
		return res, err
	}
	slog.Info("Tesseract OCR complete", "chars", len(res.Text), "confidence", res.Confidence, "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

func (e *TesseractExtractor) args(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/tiff":
		return ".tif"
	case "image/bmp":
		return ".bmp"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
