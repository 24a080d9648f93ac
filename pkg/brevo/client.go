package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/akeren/go-waitlist/pkg/circuitbreaker"
)

const (
	DefaultBaseURL    = "https://api.brevo.com/v3"
	DefaultTimeout    = 10 * time.Second
	DefaultSenderName = "Waitlist Team"

	contactsPath          = "/contacts"
	transactionalMailPath = "/smtp/email"

	// maxResponseBodyBytes caps how much of a provider response is kept for logs.
	maxResponseBodyBytes = 64 << 10
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Breaker circuitbreaker.CircuitBreaker
}

// Client talks to the Brevo contacts and transactional email APIs. It is safe
// for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker
}

type Contact struct {
	Email         string            `json:"email"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	UpdateEnabled bool              `json:"updateEnabled"`
	ListIDs       []int64           `json:"listIds,omitempty"`
}

type Sender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Recipient struct {
	Email string `json:"email"`
}

type TransactionalEmail struct {
	Sender      Sender      `json:"sender"`
	To          []Recipient `json:"to"`
	TemplateID  *int64      `json:"templateId,omitempty"`
	Subject     string      `json:"subject,omitempty"`
	HTMLContent string      `json:"htmlContent,omitempty"`
}

// Response is the raw provider answer. Non-2xx statuses are returned as a
// Response, not as an error.
type Response struct {
	StatusCode int
	Body       []byte
}

func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	breaker := config.Breaker
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(nil)
	}

	return &Client{
		apiKey:  config.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: breaker,
	}
}

func (c *Client) CreateContact(ctx context.Context, contact *Contact) (*Response, error) {
	if contact == nil {
		return nil, fmt.Errorf("brevo: contact is nil")
	}
	return c.post(ctx, contactsPath, contact)
}

func (c *Client) SendTransactionalEmail(ctx context.Context, email *TransactionalEmail) (*Response, error) {
	if email == nil {
		return nil, fmt.Errorf("brevo: email is nil")
	}
	return c.post(ctx, transactionalMailPath, email)
}

func (c *Client) BreakerState() circuitbreaker.CircuitState {
	return c.breaker.State()
}

func (c *Client) post(ctx context.Context, path string, payload any) (*Response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("brevo: failed to marshal payload: %w", err)
	}

	var response *Response

	err = c.breaker.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
		if err != nil {
			return fmt.Errorf("brevo: failed to create request: %w", err)
		}

		req.Header.Set("api-key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("brevo: failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
		if err != nil {
			return fmt.Errorf("brevo: failed to read response body: %w", err)
		}

		response = &Response{StatusCode: resp.StatusCode, Body: body}

		// Only provider-side failures count against the breaker.
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("brevo: server error (status %d)", resp.StatusCode)
		}
		return nil
	})

	if response != nil {
		return response, nil
	}
	return nil, err
}
