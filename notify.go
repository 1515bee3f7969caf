package glitchreveal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Ping is the body of the unlock notification.
type Ping struct {
	Topic    string `json:"topic"`
	Message  string `json:"message"`
	Title    string `json:"title"`
	Priority int    `json:"priority"`
}

// Notifier tells the creator that someone completed the experience.
type Notifier interface {
	Notify(ctx context.Context, p Ping) error
}

// HTTPNotifier POSTs pings as JSON to a webhook (ntfy.sh style).
type HTTPNotifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

type HTTPNotifierConfig struct {
	URL     string // empty only logs the ping
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

func NewHTTPNotifier(cfg HTTPNotifierConfig) *HTTPNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	return &HTTPNotifier{url: cfg.URL, client: cfg.Client, logger: cfg.Logger}
}

func (n *HTTPNotifier) Notify(ctx context.Context, p Ping) error {
	if n.url == "" {
		n.logger.Info("magic ping", "topic", p.Topic, "message", p.Message)
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode ping: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ping rejected with status %d", resp.StatusCode)
	}
	return nil
}

// unlockPing builds the notification for a finished glitch sequence.
func unlockPing(topic, code string) Ping {
	if code == "" {
		code = "Unknown"
	}
	return Ping{
		Topic:    topic,
		Message:  fmt.Sprintf("Code %s just opened the experience.", code),
		Title:    "Someone found love!",
		Priority: 3,
	}
}
