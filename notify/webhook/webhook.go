// Package webhook is a notify.Channel that POSTs signed JSON deliveries.
//
// Every delivery carries X-Vexsync-Timestamp and X-Vexsync-Signature headers;
// receivers verify the signature with Verify and the shared secret.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/xraph/vexsync/id"
	"github.com/xraph/vexsync/notify"
)

// compile-time interface check.
var _ notify.Channel = (*Channel)(nil)

// Delivery kinds.
const (
	KindMessage  = "message"
	KindReaction = "reaction"
)

const maxResponseBody = 1024

// ErrNoURL is returned when a channel is configured without a URL.
var ErrNoURL = errors.New("vexsync: webhook url is required")

// Delivery is the JSON body of every webhook request.
type Delivery struct {
	Kind      string `json:"kind"`
	MessageID string `json:"message_id"`
	Channel   string `json:"channel"`
	Guild     string `json:"guild"`
	Text      string `json:"text,omitempty"`
	Payload   any    `json:"payload,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
}

// Config configures a webhook channel.
type Config struct {
	ID      string
	Guild   string
	URL     string
	Secret  string
	Timeout time.Duration
}

// Channel delivers notifications to one webhook URL.
type Channel struct {
	cfg    Config
	client *http.Client
}

// New creates a webhook channel.
func New(cfg Config) (*Channel, error) {
	if cfg.URL == "" {
		return nil, ErrNoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ID == "" {
		cfg.ID = cfg.URL
	}
	return &Channel{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// ID implements notify.Channel.
func (c *Channel) ID() string { return c.cfg.ID }

// Guild implements notify.Channel.
func (c *Channel) Guild() string { return c.cfg.Guild }

// Send implements notify.Channel. The message ID is generated locally.
func (c *Channel) Send(ctx context.Context, text string, payload any) (string, error) {
	messageID := id.NewMessageID().String()
	err := c.post(ctx, Delivery{
		Kind:      KindMessage,
		MessageID: messageID,
		Channel:   c.cfg.ID,
		Guild:     c.cfg.Guild,
		Text:      text,
		Payload:   payload,
	})
	if err != nil {
		return "", err
	}
	return messageID, nil
}

// React implements notify.Channel.
func (c *Channel) React(ctx context.Context, messageID, emoji string) error {
	return c.post(ctx, Delivery{
		Kind:      KindReaction,
		MessageID: messageID,
		Channel:   c.cfg.ID,
		Guild:     c.cfg.Guild,
		Emoji:     emoji,
	})
}

func (c *Channel) post(ctx context.Context, d Delivery) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("webhook: marshal delivery: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}

	ts := time.Now().Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "vexsync/1.0")
	req.Header.Set("X-Vexsync-Message-ID", d.MessageID)
	req.Header.Set("X-Vexsync-Kind", d.Kind)
	req.Header.Set("X-Vexsync-Timestamp", strconv.FormatInt(ts, 10))
	if c.cfg.Secret != "" {
		req.Header.Set("X-Vexsync-Signature", Sign(body, c.cfg.Secret, ts))
	}

	resp, err := c.client.Do(req) //nolint:gosec // URL is operator-configured.
	if err != nil {
		return fmt.Errorf("webhook: post %s: %w", d.Kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		return fmt.Errorf("webhook: post %s: status %d: %s", d.Kind, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
