package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/template"
	"time"
)

// Mailer sends a templated email to a single recipient. Implementations
// report failure with an error; callers decide whether that failure matters.
type Mailer interface {
	Send(ctx context.Context, tmpl, to string, data map[string]interface{}) error
}

// Email template names
const (
	TmplReportApproved   = "report-approved"
	TmplReportRejected   = "report-rejected"
	TmplReportMatched    = "report-matched"
	TmplReportUnmatched  = "report-unmatched"
	TmplAdoptionApproved = "adoption-approved"
	TmplAdoptionRejected = "adoption-rejected"
)

var emailTemplates = map[string]struct {
	Subject string
	Body    string
}{
	TmplReportApproved: {
		Subject: "Your report has been approved",
		Body:    "Hello,\n\nYour {{.ReportType}} report{{if .PetName}} for {{.PetName}}{{end}} is now live and eligible for matching.\n\nThe PawHome team",
	},
	TmplReportRejected: {
		Subject: "Your report has been removed",
		Body:    "Hello,\n\nYour {{.ReportType}} report was removed by our moderators. You can submit a new report at any time.\n\nThe PawHome team",
	},
	TmplReportMatched: {
		Subject: "We found a potential match for your report",
		Body:    "Hello,\n\nYour report was matched with a {{.CounterpartType}} report. Contact: {{.ContactName}}, {{.ContactEmail}}, {{.ContactPhone}}.\n\nThe PawHome team",
	},
	TmplReportUnmatched: {
		Subject: "Your report match was removed",
		Body:    "Hello,\n\nThe match on your report was removed by our moderators. Your report is pending again and stays eligible for new matches.\n\nThe PawHome team",
	},
	TmplAdoptionApproved: {
		Subject: "Your adoption request was approved",
		Body:    "Hello,\n\nGood news! Your request to adopt {{.PetName}} was approved. The owner will reach out to arrange the handover.\n\nThe PawHome team",
	},
	TmplAdoptionRejected: {
		Subject: "Your adoption request was declined",
		Body:    "Hello,\n\nYour request to adopt {{.PetName}} was declined. Keep an eye on new listings.\n\nThe PawHome team",
	},
}

// SendGridConfig configures the outbound email client.
type SendGridConfig struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// SendGridConfigFromEnv builds the config from environment variables with
// development-friendly defaults.
func SendGridConfigFromEnv() SendGridConfig {
	cfg := SendGridConfig{
		APIKey:    strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
		BaseURL:   strings.TrimSpace(os.Getenv("SENDGRID_BASE_URL")),
		FromEmail: strings.TrimSpace(os.Getenv("SENDGRID_FROM_EMAIL")),
		FromName:  strings.TrimSpace(os.Getenv("SENDGRID_FROM_NAME")),
		Timeout:   15 * time.Second,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = "no-reply@pawhome.local"
	}
	if cfg.FromName == "" {
		cfg.FromName = "PawHome"
	}
	return cfg
}

type sendGridMailer struct {
	cfg    SendGridConfig
	client *http.Client
}

// NewSendGridMailer returns a Mailer backed by the SendGrid v3 mail API.
func NewSendGridMailer(cfg SendGridConfig) Mailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &sendGridMailer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (m *sendGridMailer) Send(ctx context.Context, tmpl, to string, data map[string]interface{}) error {
	def, ok := emailTemplates[tmpl]
	if !ok {
		return fmt.Errorf("unknown email template %q", tmpl)
	}

	t, err := template.New(tmpl).Parse(def.Body)
	if err != nil {
		return fmt.Errorf("parse template %q: %w", tmpl, err)
	}
	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("render template %q: %w", tmpl, err)
	}

	payload := map[string]interface{}{
		"personalizations": []map[string]interface{}{
			{"to": []map[string]string{{"email": to}}},
		},
		"from":    map[string]string{"email": m.cfg.FromEmail, "name": m.cfg.FromName},
		"subject": def.Subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": body.String()},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
