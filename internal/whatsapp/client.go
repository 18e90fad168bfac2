// Package whatsapp delivers notification messages through a UzApi-compatible
// WhatsApp gateway. Delivery is two calls: a number verification followed by
// the text send. Every failure mode maps to a channel outcome; the package
// never returns a Go error to callers.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"pretor/internal/notification"
	"pretor/internal/platform/config"
)

const requestTimeout = 15 * time.Second

// Client is the UzApi gateway channel.
type Client struct {
	cfg    config.Whatsapp
	http   *http.Client
	logger *slog.Logger
}

func New(cfg config.Whatsapp, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: requestTimeout},
		logger: logger,
	}
}

// Send verifies the number is on WhatsApp and delivers the message.
func (c *Client) Send(ctx context.Context, phone, message string) notification.SendResult {
	if !validPhone(phone) {
		return notification.SendResult{
			Outcome: notification.OutcomeInvalidPhone,
			Detail:  fmt.Sprintf("malformed phone number %q", phone),
		}
	}

	exists, result := c.verifyNumber(ctx, phone)
	if result != nil {
		return *result
	}
	if !exists {
		c.logger.InfoContext(ctx, "number is not on whatsapp", "phone", phone)
		return notification.SendResult{Outcome: notification.OutcomeNotOnChannel}
	}

	if result := c.sendText(ctx, phone, message); result != nil {
		return *result
	}
	return notification.SendResult{Outcome: notification.OutcomeSent}
}

// verifyNumber asks the gateway whether the number has a WhatsApp account.
// A non-nil result short-circuits the send.
func (c *Client) verifyNumber(ctx context.Context, phone string) (bool, *notification.SendResult) {
	var verdict struct {
		NumberExists bool `json:"numberExists"`
	}
	if result := c.post(ctx, "/verifyNumber", map[string]string{
		"session": c.cfg.SessionID,
		"number":  phone,
	}, &verdict); result != nil {
		return false, result
	}
	return verdict.NumberExists, nil
}

func (c *Client) sendText(ctx context.Context, phone, message string) *notification.SendResult {
	return c.post(ctx, "/sendText", map[string]string{
		"session": c.cfg.SessionID,
		"number":  phone,
		"text":    message,
	}, nil)
}

// post issues a gateway call. Returns nil on success; any transport or
// protocol failure comes back as an unknown-outcome result.
func (c *Client) post(ctx context.Context, path string, payload map[string]string, out any) *notification.SendResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return unknown(fmt.Sprintf("encode %s payload: %v", path, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return unknown(fmt.Sprintf("build %s request: %v", path, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("sessionKey", c.cfg.SessionKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "whatsapp gateway call failed", "path", path, "error", err)
		return unknown(fmt.Sprintf("%s: %v", path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorContext(ctx, "whatsapp gateway rejected call",
			"path", path, "status", resp.StatusCode)
		return unknown(fmt.Sprintf("%s: status %d", path, resp.StatusCode))
	}

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return unknown(fmt.Sprintf("read %s response: %v", path, err))
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return unknown(fmt.Sprintf("decode %s response: %v", path, err))
		}
	}
	return nil
}

func unknown(detail string) *notification.SendResult {
	return &notification.SendResult{Outcome: notification.OutcomeUnknown, Detail: detail}
}

// validPhone accepts international-format numbers: an optional leading plus,
// then 8 to 15 digits, with spaces and dashes tolerated.
func validPhone(phone string) bool {
	trimmed := strings.TrimPrefix(strings.TrimSpace(phone), "+")
	digits := 0
	for _, r := range trimmed {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == ' ' || r == '-':
		default:
			return false
		}
	}
	return digits >= 8 && digits <= 15
}

var _ notification.Channel = (*Client)(nil)
