package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultPostmarkBaseURL is the public Postmark API endpoint.
	DefaultPostmarkBaseURL = "https://api.postmarkapp.com"
	postmarkTokenHeader    = "X-Postmark-Server-Token"
	defaultMessageStream   = "outbound"
)

// PostmarkConfig configures a PostmarkSender.
type PostmarkConfig struct {
	BaseURL       string
	ServerToken   string
	From          string
	MessageStream string
	Timeout       time.Duration
}

// PostmarkSender posts messages to the Postmark /email endpoint.
type PostmarkSender struct {
	cfg    PostmarkConfig
	client *http.Client
}

type postmarkEmail struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HTMLBody      string `json:"HtmlBody"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

// NewPostmarkSender validates cfg and returns a sender. A nil client gets a
// dedicated *http.Client with cfg.Timeout.
func NewPostmarkSender(cfg PostmarkConfig, client *http.Client) (*PostmarkSender, error) {
	if strings.TrimSpace(cfg.ServerToken) == "" {
		return nil, fmt.Errorf("postmark server token is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("postmark sender address is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultPostmarkBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MessageStream == "" {
		cfg.MessageStream = defaultMessageStream
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &PostmarkSender{cfg: cfg, client: client}, nil
}

// Send delivers msg. Any transport error or non-2xx response is ErrDelivery.
func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(postmarkEmail{
		From:          s.cfg.From,
		To:            msg.To.String(),
		Subject:       msg.Subject,
		HTMLBody:      msg.HTMLBody,
		TextBody:      msg.TextBody,
		MessageStream: s.cfg.MessageStream,
	})
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(postmarkTokenHeader, s.cfg.ServerToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: postmark status %d: %s", ErrDelivery, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
