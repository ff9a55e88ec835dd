package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultAPITimeout = 15 * time.Second
	// Transactional mail providers throttle around a few requests per
	// second on entry-level plans.
	defaultAPIRate  = 2
	defaultAPIBurst = 2
)

type APIMailer struct {
	endpoint   string
	apiKey     string
	fromName   string
	fromAddr   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

type apiSendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func NewAPIMailer(endpoint, apiKey, fromAddr, fromName string, logger *logrus.Logger) *APIMailer {
	return &APIMailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		fromAddr: fromAddr,
		fromName: fromName,
		httpClient: &http.Client{
			Timeout: defaultAPITimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultAPIRate), defaultAPIBurst),
		logger:  logger,
	}
}

// Send posts one message to the provider's send endpoint. Any transport,
// authentication or remote-rejection problem folds into the returned error.
func (m *APIMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if m.endpoint == "" || m.apiKey == "" {
		m.logger.Warn("MAIL_API_URL / MAIL_API_KEY not configured; cannot send email")
		return fmt.Errorf("mail API credentials not configured")
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait aborted: %w", err)
	}

	payload := apiSendRequest{
		From:    fmt.Sprintf("%s <%s>", m.fromName, m.fromAddr),
		To:      recipient,
		Subject: subject,
		Text:    body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		m.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"detail": string(detail),
		}).Debug("Mail API rejected message")
		return fmt.Errorf("mail API error (status %d)", resp.StatusCode)
	}

	return nil
}
