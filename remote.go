package glitchreveal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// maxRemoteBody caps how much of a remote response is read.
const maxRemoteBody int64 = 64 << 10

// RemoteData is the payload of the remote content endpoint.
type RemoteData struct {
	Found   bool   `json:"found"`
	Message string `json:"message,omitempty"`
}

// RemoteClient fetches personalized content. Implementations must return
// nil on any failure or when the code is not found; they never error.
type RemoteClient interface {
	Fetch(ctx context.Context, code, userAgent string) *RemoteData
}

// HTTPRemote calls GET <endpoint>?code=<code>&ua=<ua>.
type HTTPRemote struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	logger   *slog.Logger
}

type HTTPRemoteConfig struct {
	Endpoint string
	Timeout  time.Duration // defaults to 4s
	Client   *http.Client
	Logger   *slog.Logger
}

// NewHTTPRemote returns nil when no endpoint is configured, which disables
// remote content entirely.
func NewHTTPRemote(cfg HTTPRemoteConfig) *HTTPRemote {
	if cfg.Endpoint == "" {
		return nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 4 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	return &HTTPRemote{
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
		client:   cfg.Client,
		logger:   cfg.Logger,
	}
}

func (h *HTTPRemote) Fetch(ctx context.Context, code, userAgent string) *RemoteData {
	if h == nil {
		return nil
	}
	data, err := h.fetch(ctx, code, userAgent)
	if err != nil {
		h.logger.Debug("remote content unavailable", "code", code, "error", err)
		return nil
	}
	if !data.Found {
		h.logger.Debug("remote content not found", "code", code)
		return nil
	}
	return data
}

func (h *HTTPRemote) fetch(ctx context.Context, code, userAgent string) (*RemoteData, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	u, err := url.Parse(h.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("code", code)
	q.Set("ua", userAgent)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call remote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("remote returned status %d", resp.StatusCode)
	}

	var data RemoteData
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRemoteBody)).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode remote response: %w", err)
	}
	return &data, nil
}

// pendingFetch is a remote call started ahead of the point that needs it.
type pendingFetch struct {
	done    chan struct{}
	result  *RemoteData
	started time.Time
}

// startFetch launches the call in the background. A nil client or empty
// code yields an already-resolved empty fetch. started is the time the
// wait budget counts from.
func startFetch(ctx context.Context, client RemoteClient, code, userAgent string, started time.Time) *pendingFetch {
	p := &pendingFetch{done: make(chan struct{}), started: started}
	if client == nil || code == "" {
		close(p.done)
		return p
	}
	go func() {
		defer close(p.done)
		p.result = client.Fetch(ctx, code, userAgent)
	}()
	return p
}

// message returns the remote message, or "" when the fetch failed, found
// nothing, or is still unresolved once budget has elapsed since the fetch
// started. Only the part of budget left at now is waited for; an exhausted
// budget never blocks.
func (p *pendingFetch) message(ctx context.Context, now time.Time, budget time.Duration) string {
	remaining := budget - now.Sub(p.started)
	if remaining <= 0 {
		select {
		case <-p.done:
			return p.text()
		default:
			return ""
		}
	}

	// The call itself runs on real time.
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-p.done:
		return p.text()
	case <-timer.C:
		return ""
	case <-ctx.Done():
		return ""
	}
}

func (p *pendingFetch) text() string {
	if p.result == nil {
		return ""
	}
	return p.result.Message
}
