package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/emberly/internal/logging"
	"github.com/aretw0/emberly/pkg/domain"
)

const (
	// DefaultLocale is used when a respond call passes an empty locale.
	DefaultLocale = "en-US"
	// DefaultPlatform identifies the calling client to the upstream.
	DefaultPlatform = "web"
	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
)

// Client talks to the conversation API, with session routing and a stateless fallback.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	platform   string
	httpClient *http.Client
	logger     *slog.Logger
	newCorrID  func() string

	mu            sync.Mutex
	sessionID     string
	fallback      bool
	correlationID string
	// epoch increments on Reset; results started under an older epoch are dropped.
	epoch uint64
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-exchange timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithPlatform overrides the platform reported in respond bodies.
func WithPlatform(platform string) Option {
	return func(c *Client) {
		c.platform = platform
	}
}

// WithCorrelationIDFunc overrides the correlation identifier generator.
func WithCorrelationIDFunc(fn func() string) Option {
	return func(c *Client) {
		c.newCorrID = fn
	}
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		platform:   DefaultPlatform,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logging.NewNop(),
		newCorrID:  NewCorrelationID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AcquireSession tries to create a server-side session.
// Any failure switches the client to fallback mode until Reset and returns ok == false.
// It never returns an error. A canceled ctx returns ok == false without entering fallback.
func (c *Client) AcquireSession(ctx context.Context) (string, bool) {
	c.mu.Lock()
	if c.fallback {
		c.mu.Unlock()
		return "", false
	}
	epoch := c.epoch
	c.mu.Unlock()

	corrID := c.nextCorrelationID()
	resp, err := c.post(ctx, c.baseURL+PathSessions, corrID, struct{}{})
	if err != nil {
		c.enterFallback(ctx, epoch, "transport", corrID)
		return "", false
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNotImplemented:
		c.enterFallback(ctx, epoch, "unsupported", corrID)
		return "", false
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.enterFallback(ctx, epoch, "status", corrID)
		return "", false
	}

	var body SessionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil || body.SessionID == "" {
		c.enterFallback(ctx, epoch, "malformed", corrID)
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fallback || c.epoch != epoch || canceled(ctx) {
		return "", false
	}
	c.sessionID = body.SessionID
	c.logger.Debug("session acquired", "correlation_id", corrID)
	return body.SessionID, true
}

// Respond submits text and returns the assistant reply.
// It acquires a session first when none is held and fallback is not active.
func (c *Client) Respond(ctx context.Context, text, locale string) (*domain.Reply, error) {
	if locale == "" {
		locale = DefaultLocale
	}

	c.mu.Lock()
	needSession := !c.fallback && c.sessionID == ""
	c.mu.Unlock()

	if needSession {
		c.AcquireSession(ctx)
		if canceled(ctx) {
			return nil, fmt.Errorf("%w: %v", domain.ErrCanceled, ctx.Err())
		}
	}

	endpoint := c.respondURL()
	corrID := c.nextCorrelationID()

	resp, err := c.post(ctx, endpoint, corrID, RespondRequest{
		InputText: text,
		Client:    ClientInfo{Platform: c.platform, Locale: locale},
	})
	if err != nil {
		if canceled(ctx) {
			return nil, fmt.Errorf("%w: %v", domain.ErrCanceled, ctx.Err())
		}
		c.logger.Debug("respond transport failure", "correlation_id", corrID)
		return nil, fmt.Errorf("%w: transport", domain.ErrRequestFailed)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("respond rejected", "correlation_id", corrID, "status", resp.StatusCode)
		return nil, &domain.StatusError{Status: resp.StatusCode}
	}

	var body RespondResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		if canceled(ctx) {
			return nil, fmt.Errorf("%w: %v", domain.ErrCanceled, ctx.Err())
		}
		return nil, fmt.Errorf("%w: malformed reply", domain.ErrRequestFailed)
	}

	return &domain.Reply{
		MessageID:   body.AssistantMessageID,
		Text:        body.Text,
		PolicyFlags: body.Policy.Flags,
	}, nil
}

// Reset clears session identity, fallback mode and the last correlation id. Idempotent.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = ""
	c.fallback = false
	c.correlationID = ""
	c.epoch++
}

// SessionID returns the held session id, or "" when none.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Fallback reports whether session routing has been abandoned.
func (c *Client) Fallback() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fallback
}

// CorrelationID returns the identifier of the most recent request.
func (c *Client) CorrelationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.correlationID
}

func (c *Client) respondURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fallback || c.sessionID == "" {
		return c.baseURL + PathFallbackRespond
	}
	return c.baseURL + fmt.Sprintf(PathSessionRespond, url.PathEscape(c.sessionID))
}

func (c *Client) nextCorrelationID() string {
	id := c.newCorrID()
	c.mu.Lock()
	c.correlationID = id
	c.mu.Unlock()
	return id
}

// enterFallback switches to fallback unless ctx was canceled or a Reset
// happened since the attempt started.
func (c *Client) enterFallback(ctx context.Context, epoch uint64, cause, corrID string) {
	if canceled(ctx) {
		c.logger.Debug("session acquisition canceled", "correlation_id", corrID)
		return
	}
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.logger.Debug("stale session attempt dropped", "correlation_id", corrID)
		return
	}
	c.fallback = true
	c.sessionID = ""
	c.mu.Unlock()
	c.logger.Debug("session routing unavailable, using fallback", "cause", cause, "correlation_id", corrID)
}

func (c *Client) post(ctx context.Context, endpoint, corrID string, payload any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderCorrelationID, corrID)
	return c.httpClient.Do(req)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
}

func canceled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

// IsCanceled reports whether err is a cancellation rather than a failure.
func IsCanceled(err error) bool {
	return errors.Is(err, domain.ErrCanceled)
}
