// Package notify posts short messages to a chat webhook that accepts a
// Discord-style {"content": "..."} payload.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTimeout bounds one delivery attempt.
const DefaultTimeout = 5 * time.Second

// ErrDisabled is returned by Send when no webhook URL is configured.
var ErrDisabled = errors.New("notifications disabled: no webhook url")

// NotificationError reports a failed delivery. StatusCode is zero when the
// request never got a response.
type NotificationError struct {
	StatusCode int
	Err        error
}

func (e *NotificationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("notify: webhook returned %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("notify: %v", e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Message is the webhook payload.
type Message struct {
	Content string `json:"content"`
}

// Client delivers messages to one webhook. There is no retry.
type Client struct {
	url    string
	client *http.Client
}

// NewClient returns a client for url. An empty url yields a disabled client;
// timeout <= 0 selects DefaultTimeout.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a webhook URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Send posts content to the webhook. Any 2xx status is success.
func (c *Client) Send(ctx context.Context, content string) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	body, err := json.Marshal(Message{Content: content})
	if err != nil {
		return &NotificationError{Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return &NotificationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &NotificationError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(detail))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &NotificationError{StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
