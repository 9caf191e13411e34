package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client talks to the external payment processor over HTTP. The processor
// hosts the actual checkout page; we only initiate a session and verify its
// outcome afterwards.
type Client interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Verify(ctx context.Context, ref string) (*VerifyResult, error)
}

type InitiateRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	SuccessURL  string          `json:"success_url"`
	FailURL     string          `json:"fail_url"`
}

type InitiateResult struct {
	Ref        string `json:"ref"`
	PaymentURL string `json:"payment_url"`
}

type VerifyResult struct {
	Ref     string `json:"ref"`
	Success bool   `json:"success"`
}

// Config configures the gateway HTTP client.
type Config struct {
	BaseURL    string
	AppToken   string
	SuccessURL string
	FailURL    string
	Timeout    time.Duration
}

// ConfigFromEnv builds the config from environment variables.
func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL:    strings.TrimSpace(os.Getenv("PAYMENT_GATEWAY_URL")),
		AppToken:   strings.TrimSpace(os.Getenv("PAYMENT_GATEWAY_TOKEN")),
		SuccessURL: strings.TrimSpace(os.Getenv("PAYMENT_SUCCESS_URL")),
		FailURL:    strings.TrimSpace(os.Getenv("PAYMENT_FAIL_URL")),
		Timeout:    20 * time.Second,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://gateway.pawhome.local"
	}
	return cfg
}

type httpClient struct {
	cfg    Config
	client *http.Client
}

// New returns a Client backed by the configured processor endpoint.
func New(cfg Config) Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *httpClient) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	payload := map[string]interface{}{
		"amount":      req.Amount.StringFixed(2),
		"currency":    req.Currency,
		"description": req.Description,
		"success_url": firstNonEmpty(req.SuccessURL, c.cfg.SuccessURL),
		"fail_url":    firstNonEmpty(req.FailURL, c.cfg.FailURL),
	}

	var result InitiateResult
	if err := c.post(ctx, "/api/payments", payload, &result); err != nil {
		return nil, err
	}
	if result.Ref == "" || result.PaymentURL == "" {
		return nil, fmt.Errorf("gateway returned an incomplete payment session")
	}
	return &result, nil
}

func (c *httpClient) Verify(ctx context.Context, ref string) (*VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/payments/"+ref, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AppToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway verify failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("gateway responded %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var result VerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	return &result, nil
}

func (c *httpClient) post(ctx context.Context, path string, payload, out interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AppToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gateway responded %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
