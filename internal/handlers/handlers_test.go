package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/halloween/internal/config"
	"github.com/lehigh-university-libraries/halloween/internal/gemini"
	"github.com/lehigh-university-libraries/halloween/internal/models"
	"github.com/lehigh-university-libraries/halloween/internal/ratelimit"
	"github.com/lehigh-university-libraries/halloween/internal/retry"
	"github.com/lehigh-university-libraries/halloween/internal/storage"
	"github.com/lehigh-university-libraries/halloween/internal/transform"
)

var validBody = `{"imageData":"data:image/jpeg;base64,` + base64.StdEncoding.EncodeToString([]byte("photo")) + `"}`

type fakeUpstream struct {
	calls  atomic.Int32
	status int
	body   string
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(f.body))
}

func newTestHandler(t *testing.T, up *fakeUpstream, mutate func(*config.Config)) *Handler {
	t.Helper()
	server := httptest.NewServer(up)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.APIKey = "key"
	cfg.BaseURL = server.URL
	cfg.MaxAttempts = 3
	if mutate != nil {
		mutate(cfg)
	}

	svc := transform.NewService(gemini.New(cfg.APIKey, cfg.BaseURL, server.Client()), transform.Options{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		Prompt: cfg.Prompt,
		Policy: retry.Policy{MaxAttempts: cfg.MaxAttempts, Backoff: retry.NoBackoff, Retryable: transform.IsUpstreamInternal},
	})
	return New(cfg, svc, ratelimit.New(storage.NewMemoryStore(), cfg.RateLimitWindow))
}

func okUpstream() *fakeUpstream {
	return &fakeUpstream{
		status: http.StatusOK,
		body:   `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"SEFMTE9XRUVO"}}]}}]}`,
	}
}

func post(h http.Handler, body, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/transform-halloween", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) models.TransformResult {
	t.Helper()
	var result models.TransformResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}

func TestHandleTransformSuccess(t *testing.T) {
	up := okUpstream()
	h := newTestHandler(t, up, nil).Routes()

	rec := post(h, validBody, "203.0.113.1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeResult(t, rec)
	if !result.Success || result.TransformedImage != "data:image/png;base64,SEFMTE9XRUVO" {
		t.Errorf("unexpected result %+v", result)
	}
	if up.calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", up.calls.Load())
	}
}

func TestHandleTransformOptions(t *testing.T) {
	h := newTestHandler(t, okUpstream(), nil).Routes()

	req := httptest.NewRequest(http.MethodOptions, "/transform", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected origin echo, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
		t.Errorf("unexpected allow methods %q", got)
	}
}

func TestHandleTransformMethodNotAllowed(t *testing.T) {
	up := okUpstream()
	h := newTestHandler(t, up, nil).Routes()

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/transform-halloween", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected 405, got %d", method, rec.Code)
		}
	}
	if up.calls.Load() != 0 {
		t.Errorf("expected no upstream calls, got %d", up.calls.Load())
	}
}

func TestHandleTransformBadInput(t *testing.T) {
	oversized := base64.StdEncoding.EncodeToString(make([]byte, transform.MaxImageBytes+1))

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"imageData":`},
		{"missing image", `{}`},
		{"wrong prefix", `{"imageData":"data:application/pdf;base64,AAAA"}`},
		{"bare base64", `{"imageData":"AAAA"}`},
		{"invalid base64", `{"imageData":"data:image/png;base64,@@@@"}`},
		{"oversized", `{"imageData":"data:image/png;base64,` + oversized + `"}`},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := okUpstream()
			h := newTestHandler(t, up, nil).Routes()

			rec := post(h, tt.body, "198.51.100."+string(rune('1'+i)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			result := decodeResult(t, rec)
			if result.Success || result.Error == "" {
				t.Errorf("expected error body, got %+v", result)
			}
			if result.Retryable != nil {
				t.Error("retryable should be omitted for client errors")
			}
			if up.calls.Load() != 0 {
				t.Errorf("expected no upstream calls, got %d", up.calls.Load())
			}
		})
	}
}

func TestHandleTransformRateLimited(t *testing.T) {
	up := okUpstream()
	h := newTestHandler(t, up, nil).Routes()

	if rec := post(h, validBody, "192.0.2.10"); rec.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec.Code)
	}
	rec := post(h, validBody, "192.0.2.10")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if result := decodeResult(t, rec); result.Error == "" {
		t.Error("expected error message")
	}
	if rec := post(h, validBody, "192.0.2.11"); rec.Code != http.StatusOK {
		t.Errorf("expected other client to succeed, got %d", rec.Code)
	}
	if up.calls.Load() != 2 {
		t.Errorf("expected 2 upstream calls, got %d", up.calls.Load())
	}
}

func TestHandleTransformUpstreamAlwaysFails(t *testing.T) {
	up := &fakeUpstream{status: http.StatusInternalServerError, body: `{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`}
	h := newTestHandler(t, up, nil).Routes()

	rec := post(h, validBody, "192.0.2.20")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	result := decodeResult(t, rec)
	if result.Retryable == nil || !*result.Retryable {
		t.Errorf("expected retryable=true, got %+v", result)
	}
	if result.Details != "" {
		t.Errorf("details must not leak in production, got %q", result.Details)
	}
	if up.calls.Load() != 3 {
		t.Errorf("expected 3 upstream calls, got %d", up.calls.Load())
	}
}

func TestHandleTransformNoImage(t *testing.T) {
	up := &fakeUpstream{status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[{"text":"nope"}]}}]}`}
	h := newTestHandler(t, up, func(c *config.Config) { c.Environment = "development" }).Routes()

	rec := post(h, validBody, "192.0.2.30")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	result := decodeResult(t, rec)
	if result.Retryable == nil || *result.Retryable {
		t.Errorf("expected retryable=false, got %+v", result)
	}
	if !strings.Contains(result.Details, "no image generated") {
		t.Errorf("expected diagnostic details in development, got %q", result.Details)
	}
	if up.calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", up.calls.Load())
	}
}

func TestHandleTransformMissingAPIKey(t *testing.T) {
	up := okUpstream()
	h := newTestHandler(t, up, func(c *config.Config) { c.APIKey = "" }).Routes()

	rec := post(h, validBody, "192.0.2.40")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	result := decodeResult(t, rec)
	if strings.Contains(result.Error, "GEMINI_API_KEY") || result.Details != "" {
		t.Errorf("configuration details leaked: %+v", result)
	}
	if up.calls.Load() != 0 {
		t.Errorf("expected no upstream calls, got %d", up.calls.Load())
	}
}

func TestCORSOrigins(t *testing.T) {
	h := newTestHandler(t, okUpstream(), func(c *config.Config) { c.Origin = "spooky.example.com" }).Routes()

	tests := []struct {
		origin string
		want   string
	}{
		{"https://spooky.example.com", "https://spooky.example.com"},
		{"http://localhost:3000", "http://localhost:3000"},
		{"https://evil.example.com", ""},
		{"http://spooky.example.com", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/transform-halloween", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %q: expected %q, got %q", tt.origin, tt.want, got)
		}
	}
}

func TestAllowedOrigins(t *testing.T) {
	if got := AllowedOrigins(""); len(got) != len(developmentOrigins) {
		t.Errorf("expected only development origins, got %v", got)
	}
	got := AllowedOrigins("https://halloween.example.com/")
	if got[len(got)-1] != "https://halloween.example.com" {
		t.Errorf("expected full origin kept verbatim, got %v", got)
	}
}

func TestHandleDebug(t *testing.T) {
	h := newTestHandler(t, okUpstream(), nil).Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/debug", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.DebugResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !resp.Success || !resp.Debug.HasAPIKey || resp.Debug.MaxAttempts != 3 {
		t.Errorf("unexpected debug response %+v", resp)
	}
	if time.Since(resp.Debug.Timestamp) > time.Minute {
		t.Errorf("unexpected timestamp %v", resp.Debug.Timestamp)
	}
	if strings.Contains(rec.Body.String(), `"key"`) {
		t.Error("api key must not be exposed")
	}
}

func TestHealthcheck(t *testing.T) {
	h := newTestHandler(t, okUpstream(), nil).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("unexpected healthcheck response %d %q", rec.Code, rec.Body.String())
	}
}
