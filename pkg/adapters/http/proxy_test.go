package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/emberly/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seen struct {
	path   string
	corrID string
	body   map[string]any
}

func newUpstream(t *testing.T, status int, reply string, delay time.Duration) (*httptest.Server, chan seen) {
	t.Helper()
	calls := make(chan seen, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls <- seen{path: r.URL.Path, corrID: r.Header.Get(client.HeaderCorrelationID), body: body}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestProxy_RelaysRespond(t *testing.T) {
	upstream, calls := newUpstream(t, http.StatusOK,
		`{"assistant_message_id":"m1","text":"Hi there","policy":{"flags":["safe"]},"debug":"internal"}`, 0)
	h := NewHandler(NewProxy(upstream.URL))

	w := do(t, h, http.MethodPost, "/api/v1/respond",
		`{"input_text":"hello","client":{"platform":"web","locale":"en-US"},"cookie":"x"}`,
		map[string]string{client.HeaderCorrelationID: "corr_1_abcdefghi"})

	require.Equal(t, http.StatusOK, w.Code)
	var out client.RespondResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Hi there", out.Text)
	assert.NotContains(t, w.Body.String(), "internal")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	got := <-calls
	assert.Equal(t, "/v1/respond", got.path)
	assert.Equal(t, "corr_1_abcdefghi", got.corrID)
	assert.Equal(t, "hello", got.body["input_text"])
	assert.NotContains(t, got.body, "cookie")
}

func TestProxy_SessionRoutes(t *testing.T) {
	upstream, calls := newUpstream(t, http.StatusOK, `{"session_id":"abc"}`, 0)
	h := NewHandler(NewProxy(upstream.URL))

	w := do(t, h, http.MethodPost, "/api/v1/voice/sessions", `{"ignored":true}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session_id":"abc"}`, w.Body.String())

	got := <-calls
	assert.Equal(t, "/v1/voice/sessions", got.path)
	assert.Empty(t, got.body)
	assert.True(t, strings.HasPrefix(got.corrID, "corr_"), "correlation id generated when missing")
	assert.Equal(t, got.corrID, w.Header().Get(client.HeaderCorrelationID))

	do(t, h, http.MethodPost, "/api/v1/voice/sessions/abc/respond", `{"input_text":"hi"}`, nil)
	assert.Equal(t, "/v1/voice/sessions/abc/respond", (<-calls).path)
}

func TestProxy_UpstreamFailureIsGeneric(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusBadGateway, `{"error":"db password wrong","stack":"..."}`, 0)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	h := NewHandler(NewProxy(upstream.URL, WithMetrics(metrics)))

	w := do(t, h, http.MethodPost, "/api/v1/respond", `{"input_text":"hello"}`, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "API request failed", errorBody(t, w))
	assert.NotContains(t, w.Body.String(), "password")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("respond", "502")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.Upstream))
}

func TestProxy_Timeout(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusOK, `{}`, time.Second)
	h := NewHandler(NewProxy(upstream.URL, WithUpstreamTimeout(20*time.Millisecond)))

	w := do(t, h, http.MethodPost, "/api/v1/respond", `{"input_text":"hello"}`, nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "Request timeout", errorBody(t, w))
}

func TestProxy_UnreachableUpstream(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusOK, `{}`, 0)
	url := upstream.URL
	upstream.Close()
	h := NewHandler(NewProxy(url))

	w := do(t, h, http.MethodPost, "/api/v1/respond", `{"input_text":"hello"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", errorBody(t, w))
}

func TestProxy_InvalidBody(t *testing.T) {
	upstream, calls := newUpstream(t, http.StatusOK, `{}`, 0)
	h := NewHandler(NewProxy(upstream.URL))

	w := do(t, h, http.MethodPost, "/api/v1/respond", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", errorBody(t, w))
	assert.Empty(t, calls)
}

func TestProxy_MethodsAndPreflight(t *testing.T) {
	h := NewHandler(NewProxy("http://unused.invalid"))

	for _, path := range []string{"/api/v1/respond", "/api/v1/voice/sessions", "/api/v1/voice/sessions/x/respond"} {
		w := do(t, h, http.MethodOptions, path, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, X-Correlation-ID", w.Header().Get("Access-Control-Allow-Headers"))

		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
			w := do(t, h, method, path, "", nil)
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method+" "+path)
			assert.Equal(t, "Method not allowed", errorBody(t, w))
		}
	}
}

func TestHandler_DisabledProxy(t *testing.T) {
	h := NewHandler(nil)

	w := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/v1/respond", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
