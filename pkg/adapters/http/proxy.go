package http

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
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/emberly/internal/logging"
	"github.com/aretw0/emberly/pkg/client"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultUpstreamTimeout bounds every relayed request.
	DefaultUpstreamTimeout = 15 * time.Second
	// DefaultMaxBodyBytes caps inbound request bodies.
	DefaultMaxBodyBytes = 64 << 10

	routeSessions       = "sessions"
	routeSessionRespond = "session_respond"
	routeRespond        = "respond"
)

// Safe error bodies. Nothing from upstream is ever copied into a response error.
const (
	msgInvalidBody      = "Invalid request body"
	msgMethodNotAllowed = "Method not allowed"
	msgTimeout          = "Request timeout"
	msgUpstreamFailed   = "API request failed"
	msgInternal         = "Internal server error"
)

// Metrics holds the proxy collectors.
type Metrics struct {
	Requests *prometheus.CounterVec
	Upstream *prometheus.HistogramVec
}

// NewMetrics creates the proxy collectors and registers them on reg (if non-nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emberly_proxy_requests_total",
				Help: "Proxied requests by route and response status",
			},
			[]string{"route", "status"},
		),
		Upstream: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emberly_proxy_upstream_duration_seconds",
				Help:    "Duration of upstream calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Upstream)
	}
	return m
}

// Proxy relays the conversation API to an upstream base URL so browsers and
// local clients avoid CORS. Payloads are decoded into typed structs on the way
// in and out; unknown fields are dropped.
type Proxy struct {
	upstream   string
	httpClient *http.Client
	timeout    time.Duration
	maxBody    int64
	logger     *slog.Logger
	metrics    *Metrics
}

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy)

// WithUpstreamTimeout overrides DefaultUpstreamTimeout.
func WithUpstreamTimeout(d time.Duration) ProxyOption {
	return func(p *Proxy) {
		p.timeout = d
	}
}

// WithHTTPClient replaces the client used for upstream calls.
func WithHTTPClient(hc *http.Client) ProxyOption {
	return func(p *Proxy) {
		p.httpClient = hc
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ProxyOption {
	return func(p *Proxy) {
		p.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) ProxyOption {
	return func(p *Proxy) {
		p.metrics = m
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) ProxyOption {
	return func(p *Proxy) {
		p.maxBody = n
	}
}

// NewProxy creates a Proxy for the API rooted at upstream.
func NewProxy(upstream string, opts ...ProxyOption) *Proxy {
	p := &Proxy{
		upstream:   strings.TrimRight(upstream, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultUpstreamTimeout,
		maxBody:    DefaultMaxBodyBytes,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewHandler mounts the proxy under /api. A nil proxy serves only /healthz,
// which is how the proxy is switched off.
func NewHandler(p *Proxy) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if p != nil {
		r.Route("/api/v1", func(r chi.Router) {
			r.HandleFunc("/voice/sessions", p.route(routeSessions, p.createSession))
			r.HandleFunc("/voice/sessions/{sessionID}/respond", p.route(routeSessionRespond, p.sessionRespond))
			r.HandleFunc("/respond", p.route(routeRespond, p.respond))
		})
	}
	return r
}

// route applies CORS, preflight and method filtering around a POST handler.
func (p *Proxy) route(name string, post http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		switch r.Method {
		case http.MethodOptions:
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+client.HeaderCorrelationID)
			w.WriteHeader(http.StatusOK)
		case http.MethodPost:
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			post(rec, r)
			if p.metrics != nil {
				p.metrics.Requests.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
			}
		default:
			writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		}
	}
}

func (p *Proxy) createSession(w http.ResponseWriter, r *http.Request) {
	var out client.SessionResponse
	p.relay(w, r, routeSessions, client.PathSessions, struct{}{}, &out)
}

func (p *Proxy) sessionRespond(w http.ResponseWriter, r *http.Request) {
	var in client.RespondRequest
	if !p.decode(w, r, routeSessionRespond, &in) {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	path := fmt.Sprintf(client.PathSessionRespond, url.PathEscape(sessionID))
	var out client.RespondResponse
	p.relay(w, r, routeSessionRespond, path, in, &out)
}

func (p *Proxy) respond(w http.ResponseWriter, r *http.Request) {
	var in client.RespondRequest
	if !p.decode(w, r, routeRespond, &in) {
		return
	}
	var out client.RespondResponse
	p.relay(w, r, routeRespond, client.PathFallbackRespond, in, &out)
}

func (p *Proxy) decode(w http.ResponseWriter, r *http.Request, route string, v any) bool {
	body := http.MaxBytesReader(w, r.Body, p.maxBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		p.logger.Warn("proxy: invalid request body", "route", route)
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

// relay posts payload upstream and writes the decoded reply back.
// Only route, status, correlation id and duration are logged.
func (p *Proxy) relay(w http.ResponseWriter, r *http.Request, route, path string, payload, out any) {
	corrID := r.Header.Get(client.HeaderCorrelationID)
	if corrID == "" {
		corrID = client.NewCorrelationID()
	}
	w.Header().Set(client.HeaderCorrelationID, corrID)

	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	start := time.Now()
	status, err := p.forward(ctx, path, corrID, payload, out)
	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.Upstream.WithLabelValues(route).Observe(elapsed.Seconds())
	}

	switch {
	case err == nil && status >= 200 && status <= 299:
		p.logger.Info("proxy", "route", route, "status", status, "correlation_id", corrID, "duration", elapsed)
		writeJSON(w, http.StatusOK, out)
	case err == nil:
		p.logger.Warn("proxy: upstream rejected", "route", route, "status", status, "correlation_id", corrID, "duration", elapsed)
		writeError(w, status, msgUpstreamFailed)
	case errors.Is(err, context.DeadlineExceeded):
		p.logger.Warn("proxy: upstream timeout", "route", route, "correlation_id", corrID, "duration", elapsed)
		writeError(w, http.StatusGatewayTimeout, msgTimeout)
	default:
		p.logger.Error("proxy: upstream failed", "route", route, "correlation_id", corrID, "duration", elapsed)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func (p *Proxy) forward(ctx context.Context, path, corrID string, payload, out any) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.upstream+path, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(client.HeaderCorrelationID, corrID)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, p.maxBody))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, err
	}
	return resp.StatusCode, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("proxy: response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
