// Package whatsapp sends messages through the WhatsApp Cloud API.
package whatsapp

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

	"easyservice/models"

	"go.uber.org/zap"
)

// HTTPStatusError is a non-2xx response from the Graph API.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("whatsapp: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client posts messages to /{phone-number-id}/messages.
type Client struct {
	baseURL       string
	apiVersion    string
	phoneNumberID string
	token         string
	httpClient    *http.Client
	logger        *zap.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version = strings.TrimSpace(version); version != "" {
			c.apiVersion = version
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(phoneNumberID, token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(phoneNumberID) == "" {
		return nil, errors.New("whatsapp: phone number id must not be empty")
	}
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("whatsapp: access token must not be empty")
	}
	c := &Client{
		baseURL:       "https://graph.facebook.com",
		apiVersion:    "v19.0",
		phoneNumberID: phoneNumberID,
		token:         token,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", strings.TrimRight(c.baseURL, "/"), c.apiVersion, c.phoneNumberID)
}

type outbound struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *textBody    `json:"text,omitempty"`
	Interactive      *interactive `json:"interactive,omitempty"`
}

type textBody struct {
	Body string `json:"body"`
}

type interactive struct {
	Type   string   `json:"type"`
	Body   textBody `json:"body"`
	Action action   `json:"action"`
}

type action struct {
	Button   string               `json:"button,omitempty"`
	Buttons  []replyButton        `json:"buttons,omitempty"`
	Sections []models.ListSection `json:"sections,omitempty"`
}

type replyButton struct {
	Type  string        `json:"type"`
	Reply models.Button `json:"reply"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func newOutbound(to, kind string) outbound {
	return outbound{MessagingProduct: "whatsapp", RecipientType: "individual", To: to, Type: kind}
}

func (c *Client) SendText(ctx context.Context, to, body string) error {
	msg := newOutbound(to, "text")
	msg.Text = &textBody{Body: body}
	return c.send(ctx, msg)
}

// SendButtons sends a reply-button message. WhatsApp accepts one to three buttons.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []models.Button) error {
	if len(buttons) == 0 || len(buttons) > 3 {
		return fmt.Errorf("whatsapp: button message needs 1 to 3 buttons, got %d", len(buttons))
	}
	replies := make([]replyButton, 0, len(buttons))
	for _, b := range buttons {
		replies = append(replies, replyButton{Type: "reply", Reply: b})
	}
	msg := newOutbound(to, "interactive")
	msg.Interactive = &interactive{Type: "button", Body: textBody{Body: body}, Action: action{Buttons: replies}}
	return c.send(ctx, msg)
}

func (c *Client) SendList(ctx context.Context, to, body, actionLabel string, sections []models.ListSection) error {
	if len(sections) == 0 {
		return errors.New("whatsapp: list message needs at least one section")
	}
	msg := newOutbound(to, "interactive")
	msg.Interactive = &interactive{
		Type:   "list",
		Body:   textBody{Body: body},
		Action: action{Button: actionLabel, Sections: sections},
	}
	return c.send(ctx, msg)
}

func (c *Client) send(ctx context.Context, msg outbound) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("whatsapp: marshal message: %w", err)
	}
	url := c.messagesURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("whatsapp: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPStatusError{StatusCode: resp.StatusCode, URL: url, Body: strings.TrimSpace(string(raw))}
	}

	var out sendResponse
	if err := json.Unmarshal(raw, &out); err == nil && len(out.Messages) > 0 {
		c.logger.Debug("Message sent", zap.String("to", msg.To), zap.String("messageId", out.Messages[0].ID))
	}
	return nil
}
