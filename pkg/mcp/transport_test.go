package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestIsOriginAllowed(t *testing.T) {
	cases := []struct {
		origin  string
		allowed []string
		want    bool
	}{
		{"https://example.com", []string{"*"}, true},
		{"https://app.example.com", []string{"*.example.com"}, true},
		{"https://evil.com", []string{"*.example.com"}, false},
		{"https://example.com", []string{"https://example.com"}, true},
		{"https://example.com", []string{"https://other.com"}, false},
	}
	for _, c := range cases {
		if got := isOriginAllowed(c.origin, c.allowed); got != c.want {
			t.Errorf("isOriginAllowed(%q, %v) = %v, want %v", c.origin, c.allowed, got, c.want)
		}
	}
}

func TestAcceptContains(t *testing.T) {
	if !acceptContains("application/json, text/event-stream", "application/json") {
		t.Error("expected application/json to be found")
	}
	if !acceptContains("application/json, text/event-stream", "text/event-stream") {
		t.Error("expected text/event-stream to be found")
	}
	if acceptContains("application/json", "text/event-stream") {
		t.Error("expected text/event-stream to not be found")
	}
}

func TestSessionTimeout(t *testing.T) {
	cfg := HttpConfig{SessionTimeout: 300}
	if got := sessionTimeout(cfg); got != 300*time.Second {
		t.Errorf("sessionTimeout = %v, want 300s", got)
	}
}

func TestDefaultHttpConfig(t *testing.T) {
	cfg := DefaultHttpConfig()
	if cfg.Port != 8080 || cfg.EndpointPath != "/mcp" || !cfg.EnableCORS {
		t.Errorf("DefaultHttpConfig = %+v", cfg)
	}
}

func newTestTransport() (*Transport, *SessionStore) {
	sessions := NewSessionStore(time.Minute)
	d := NewDispatcher(NewResourceManager(), NewToolManager(), NewPromptManager(), sessions, nil)
	e := echo.New()
	cfg := DefaultHttpConfig()
	tr := NewTransport(e, d, sessions, nil, nil, cfg)
	return tr, sessions
}

func TestTransportHandlePostRejectsBadAccept(t *testing.T) {
	tr, _ := newTestTransport()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	tr.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestTransportHandlePostPing(t *testing.T) {
	tr, _ := newTestTransport()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	tr.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, want %d, body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if rec.Header().Get("Mcp-Session-Id") == "" {
		t.Error("expected Mcp-Session-Id header to be set")
	}
}

func TestTransportHandlePostRejectsDisallowedOrigin(t *testing.T) {
	tr, _ := newTestTransport()
	tr.cfg.CORSOrigins = []string{"https://allowed.com"}
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("Origin", "https://evil.com")
	rec := httptest.NewRecorder()
	tr.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Code = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestTransportHandleGetRequiresEventStreamAccept(t *testing.T) {
	tr, _ := newTestTransport()
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	tr.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Code = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestTransportHandleGetNoNATSConfigured(t *testing.T) {
	tr, _ := newTestTransport()
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	tr.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("Code = %d, want %d", rec.Code, http.StatusNotImplemented)
	}
}

func TestTransportHandleDeleteRequiresSessionHeader(t *testing.T) {
	tr, _ := newTestTransport()
	req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	rec := httptest.NewRecorder()
	tr.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestTransportHandleDeleteRemovesSession(t *testing.T) {
	tr, sessions := newTestTransport()
	sess := sessions.Create()

	req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	req.Header.Set("Mcp-Session-Id", sess.ID)
	rec := httptest.NewRecorder()
	tr.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Code = %d, want %d", rec.Code, http.StatusOK)
	}
	if _, ok := sessions.Get(sess.ID); ok {
		t.Error("expected session to be removed")
	}
}

type rejectingAuthValidator struct{}

func (rejectingAuthValidator) Validate(ctx context.Context, r *http.Request) error {
	return newErr(KindAuth, "rejected by test validator")
}

type acceptingAuthValidator struct{}

func (acceptingAuthValidator) Validate(ctx context.Context, r *http.Request) error {
	return nil
}

func TestTransportHandlePostRejectsWhenAuthFails(t *testing.T) {
	tr, _ := newTestTransport()
	tr.auth = rejectingAuthValidator{}
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec := httptest.NewRecorder()
	tr.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestTransportHandlePostAllowsWhenAuthSucceeds(t *testing.T) {
	tr, _ := newTestTransport()
	tr.auth = acceptingAuthValidator{}
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec := httptest.NewRecorder()
	tr.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestTransportHandleGetRejectsWhenAuthFails(t *testing.T) {
	tr, _ := newTestTransport()
	tr.auth = rejectingAuthValidator{}
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	tr.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestLimiterForReusesLimiterPerSession(t *testing.T) {
	tr, _ := newTestTransport()
	l1 := tr.limiterFor("session-a")
	l2 := tr.limiterFor("session-a")
	if l1 != l2 {
		t.Error("expected same limiter instance for same session id")
	}
	l3 := tr.limiterFor("session-b")
	if l1 == l3 {
		t.Error("expected different limiter instance for different session id")
	}
}
