// Package twilio dispatches emergency notifications through the Twilio
// REST API: a WhatsApp text to the guardian and a voice call that reads
// the generated instructions aloud.
package twilio

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/respiguard/backend/internal/domain/emergency"
)

const defaultBaseURL = "https://api.twilio.com"

// Config holds REST credentials and sender numbers.
type Config struct {
	AccountSID string
	AuthToken  string
	// FromText is the WhatsApp-enabled sender, e.g. "+14155238886".
	FromText string
	// FromCall is the voice-enabled sender.
	FromCall string
	BaseURL  string
}

// Notifier calls the Twilio Messages and Calls endpoints.
type Notifier struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNotifier constructs the dispatcher.
func NewNotifier(cfg Config, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Notifier{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.With("component", "notify.twilio"),
	}
}

// SendText delivers the alert body as a WhatsApp message.
func (n *Notifier) SendText(ctx context.Context, body, phone string) string {
	form := url.Values{}
	form.Set("From", "whatsapp:"+n.cfg.FromText)
	form.Set("To", "whatsapp:"+phone)
	form.Set("Body", body)

	sid, err := n.post(ctx, "Messages", form)
	if err != nil {
		n.logger.Warn("text dispatch failed", "error", err)
		return "Failed: " + err.Error()
	}
	return "Sent (" + sid + ")"
}

// PlaceCall rings the guardian and reads the script via TwiML.
func (n *Notifier) PlaceCall(ctx context.Context, script, phone string) string {
	form := url.Values{}
	form.Set("From", n.cfg.FromCall)
	form.Set("To", phone)
	form.Set("Twiml", buildTwiML(script))

	sid, err := n.post(ctx, "Calls", form)
	if err != nil {
		n.logger.Warn("call dispatch failed", "error", err)
		return "Failed: " + err.Error()
	}
	return "Calling (" + sid + ")"
}

func (n *Notifier) post(ctx context.Context, resource string, form url.Values) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/%s.json", n.cfg.BaseURL, n.cfg.AccountSID, resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(n.cfg.AccountSID, n.cfg.AuthToken)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio request error: status=%d body=%s", resp.StatusCode, string(payload))
	}
	var decoded struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil || decoded.SID == "" {
		return "unknown", nil
	}
	return decoded.SID, nil
}

func buildTwiML(script string) string {
	var say strings.Builder
	_ = xml.EscapeText(&say, []byte(script))
	return `<Response><Say voice="alice">` + say.String() + `</Say></Response>`
}

var _ emergency.Notifier = (*Notifier)(nil)
