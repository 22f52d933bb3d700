package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultSendTimeout = 10 * time.Second

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// ResendMailer delivers email through a Resend-compatible HTTP API.
type ResendMailer struct {
	client   *resty.Client
	endpoint string
	from     string
}

func NewResendMailer(endpoint, apiKey, from string) (*ResendMailer, error) {
	client := resty.New()
	client.SetTimeout(defaultSendTimeout)
	client.SetRetryCount(0)
	client.SetAuthToken(apiKey)

	return NewResendMailerWithClient(endpoint, from, client)
}

func NewResendMailerWithClient(endpoint, from string, client *resty.Client) (*ResendMailer, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("mail endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid mail endpoint: %w", err)
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("sender address is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSendTimeout)
	}
	client.SetRetryCount(0)

	return &ResendMailer{
		client:   client,
		endpoint: trimmedEndpoint,
		from:     strings.TrimSpace(from),
	}, nil
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) (*SendResponse, error) {
	if m == nil || m.client == nil {
		return nil, fmt.Errorf("mailer is not initialized")
	}
	if strings.TrimSpace(msg.To) == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return nil, fmt.Errorf("subject is required")
	}

	reqBody := resendRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}

	response, err := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post(m.endpoint)
	if err != nil {
		return nil, &MailerError{
			Message:   "mail provider request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &MailerError{
			Message:   "mail provider returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendResponse{
			StatusCode: statusCode,
			Body:       responseBody,
			MessageID:  messageIDFromBody(responseBody),
		}, nil
	}

	return nil, &MailerError{
		StatusCode: statusCode,
		Message:    providerErrorMessage(statusCode, responseBody),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func providerErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("mail provider returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}

func messageIDFromBody(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}

	var parsed resendResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.ID)
}
