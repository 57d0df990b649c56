package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

const transcribePrompt = "You are an OCR engine for shopping receipts.\n" +
	"Transcribe ALL text printed on the attached receipt image exactly as it appears.\n" +
	"- Keep one receipt line per output line, top to bottom.\n" +
	"- Keep prices with their item on the same line, including the $ sign.\n" +
	"- Do NOT summarize, translate, correct, or add any text.\n" +
	"- Do NOT use Markdown or code fences.\n" +
	"If the image contains no readable text, return an empty response.\n"

// contentGenerator is the slice of the genai client we use.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor transcribes receipts with a Gemini vision model.
type GeminiExtractor struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

func NewGeminiExtractor(ctx context.Context, cfg Config) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.GeminiAPIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newGeminiExtractor(client.Models, cfg), nil
}

func newGeminiExtractor(models contentGenerator, cfg Config) *GeminiExtractor {
	model := cfg.GeminiModel
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiExtractor{models: models, model: model, timeout: cfg.Timeout}
}

func (e *GeminiExtractor) ExtractText(ctx context.Context, image []byte, contentType string) (Result, error) {
	start := time.Now()
	if len(image) == 0 {
		return Result{}, fmt.Errorf("%w: empty image", ErrOCRFailed)
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	mimeType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: transcribePrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := e.models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return Result{Method: ProviderGemini}, fmt.Errorf("%w: generate content: %w", ErrOCRFailed, err)
	}

	res, err := finish(ProviderGemini, stripFences(resp.Text()), start)
	if err != nil {
		return res, err
	}
	slog.Info("Gemini OCR complete", "model", e.model, "chars", len(res.Text), "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

// stripFences removes a Markdown code fence if the model added one anyway.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return ""
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
