package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/DrKat0m/GreenBucks/internal/models"
)

const (
	acsScope      = "https://communication.azure.com//.default"
	acsAPIVersion = "2023-03-31"
)

// EmailService sends mail through the Azure Communication Services email API.
// Requests go through an azcore pipeline, which handles bearer auth and retries.
type EmailService struct {
	endpoint string
	sender   string
	pipeline runtime.Pipeline
}

// NewEmailService reads COMMUNICATION_SERVICES_ENDPOINT and SENDER_EMAIL.
// A nil cred falls back to DefaultAzureCredential.
func NewEmailService(cred azcore.TokenCredential) (*EmailService, error) {
	endpoint := os.Getenv("COMMUNICATION_SERVICES_ENDPOINT")
	if endpoint == "" {
		return nil, errors.New("COMMUNICATION_SERVICES_ENDPOINT environment variable is required")
	}
	sender := os.Getenv("SENDER_EMAIL")
	if sender == "" {
		return nil, errors.New("SENDER_EMAIL environment variable is required")
	}

	if cred == nil {
		var err error
		if cred, err = newDefaultAzureCredential(); err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
	}
	return newEmailService(endpoint, sender, cred, nil), nil
}

func newEmailService(endpoint, sender string, cred azcore.TokenCredential, opts *policy.ClientOptions) *EmailService {
	auth := runtime.NewBearerTokenPolicy(cred, []string{acsScope}, nil)
	return &EmailService{
		endpoint: endpoint,
		sender:   sender,
		pipeline: runtime.NewPipeline("greenbucks/email", "v1.0.0", runtime.PipelineOptions{
			PerCall: []policy.Policy{auth},
		}, opts),
	}
}

type acsAddress struct {
	Address string `json:"address"`
}

type acsMessage struct {
	SenderAddress string `json:"senderAddress"`
	Content       struct {
		Subject string `json:"subject"`
		HTML    string `json:"html"`
	} `json:"content"`
	Recipients struct {
		To []acsAddress `json:"to"`
	} `json:"recipients"`
}

func (s *EmailService) message(to []string, subject, html string) acsMessage {
	var m acsMessage
	m.SenderAddress = s.sender
	m.Content.Subject = subject
	m.Content.HTML = html
	for _, addr := range to {
		m.Recipients.To = append(m.Recipients.To, acsAddress{Address: addr})
	}
	return m
}

// SendEmail queues one HTML message for the given recipients. The API accepts
// with 202; anything else surfaces as an *azcore.ResponseError.
func (s *EmailService) SendEmail(ctx context.Context, to []string, subject, body string) error {
	req, err := runtime.NewRequest(ctx, http.MethodPost, runtime.JoinPaths(s.endpoint, "emails:send"))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	q := req.Raw().URL.Query()
	q.Set("api-version", acsAPIVersion)
	req.Raw().URL.RawQuery = q.Encode()

	if err := runtime.MarshalAsJSON(req, s.message(to, subject, body)); err != nil {
		return fmt.Errorf("failed to encode email request: %w", err)
	}

	resp, err := s.pipeline.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email request: %w", err)
	}
	defer resp.Body.Close()

	if !runtime.HasStatusCode(resp, http.StatusAccepted) {
		return runtime.NewResponseError(resp)
	}

	// TODO: poll Operation-Location so delivery failures after 202 are logged
	slog.Info("email queued", "recipients", len(to), "operation", resp.Header.Get("Operation-Location"))
	return nil
}

// SendReceiptReminder emails the list of transactions still waiting for a receipt.
func (s *EmailService) SendReceiptReminder(ctx context.Context, recipients []string, transactions []models.Transaction) error {
	subject := fmt.Sprintf("GreenBucks - %d receipt(s) to upload", len(transactions))
	return s.SendEmail(ctx, recipients, subject, RenderReminderBody(transactions))
}
