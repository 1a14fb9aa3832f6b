package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oakmart/storefront-backend/pkg/config"
	pkgerrors "github.com/oakmart/storefront-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.sendgrid.com/v3"
	errorBodyReadLimit   int64 = 1024
	defaultClientTimeout       = 10 * time.Second
)

var errAPIKeyRequired = errors.New("sendgrid api key is required")

// Client wraps the SendGrid v3 mail send API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	from       address
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// NewClient builds a SendGrid client from configuration.
func NewClient(cfg config.MailConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errAPIKeyRequired
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, errors.New("sendgrid from email is required")
	}

	client := &Client{
		httpClient: &http.Client{Timeout: defaultClientTimeout},
		baseURL:    defaultBaseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		from:       address{Email: strings.TrimSpace(cfg.DefaultFrom), Name: strings.TrimSpace(cfg.FromName)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Message is a single transactional email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendPayload struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Send posts the message to the mail provider. Callers treat failures as
// best-effort; nothing here retries.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "mail client unavailable")
	}
	if strings.TrimSpace(msg.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subject is required")
	}

	contents := make([]content, 0, 2)
	if msg.TextBody != "" {
		contents = append(contents, content{Type: "text/plain", Value: msg.TextBody})
	}
	if msg.HTMLBody != "" {
		contents = append(contents, content{Type: "text/html", Value: msg.HTMLBody})
	}
	if len(contents) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}

	payload := sendPayload{
		Personalizations: []personalization{{To: []address{{Email: msg.To, Name: msg.ToName}}}},
		From:             c.from,
		Subject:          msg.Subject,
		Content:          contents,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send mail")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("mail provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}
	return nil
}
