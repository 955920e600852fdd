package mcp

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HttpConfig is the Streamable HTTP transport's configuration surface,
// per spec.md §6.
type HttpConfig struct {
	BindAddress      string   `koanf:"bind_address"`
	Port             int      `koanf:"port"`
	EndpointPath     string   `koanf:"endpoint_path"`
	SessionTimeout   int      `koanf:"session_timeout"`
	EnableCORS       bool     `koanf:"enable_cors"`
	CORSOrigins      []string `koanf:"cors_origins"`
	EnableTLS        bool     `koanf:"enable_tls"`
	CertFile         string   `koanf:"cert_file"`
	KeyFile          string   `koanf:"key_file"`
	QueueSize        int      `koanf:"queue_size"`
}

// DefaultHttpConfig matches original_source/src/config.rs's defaults.
func DefaultHttpConfig() HttpConfig {
	return HttpConfig{
		BindAddress:    "127.0.0.1",
		Port:           8080,
		EndpointPath:   "/mcp",
		SessionTimeout: 300,
		EnableCORS:     true,
		CORSOrigins:    []string{"*"},
		QueueSize:      1000,
	}
}

// Transport is the Streamable HTTP transport of spec.md §4.7: it maps
// the three HTTP verbs on a single endpoint path to dispatcher calls and
// enforces Origin/Accept header contracts.
type Transport struct {
	Echo       *echo.Echo
	Dispatcher *Dispatcher
	Sessions   *SessionStore
	NATS       *nats.Conn
	log        *zap.Logger
	cfg        HttpConfig
	auth       AuthValidator

	queue chan struct{}

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

// NewTransport wires the HTTP routes onto e; e may already carry other
// routes (e.g. /metrics) registered by the caller.
func NewTransport(e *echo.Echo, d *Dispatcher, sessions *SessionStore, nc *nats.Conn, log *zap.Logger, cfg HttpConfig) *Transport {
	t := &Transport{
		Echo:       e,
		Dispatcher: d,
		Sessions:   sessions,
		NATS:       nc,
		log:        log,
		cfg:        cfg,
		queue:      make(chan struct{}, cfg.QueueSize),
		limiters:   make(map[string]*rate.Limiter),
	}
	t.registerRoutes()
	return t
}

func (t *Transport) registerRoutes() {
	path := t.cfg.EndpointPath
	if path == "" {
		path = "/mcp"
	}
	t.Echo.POST(path, t.handlePost)
	t.Echo.GET(path, t.handleGet)
	t.Echo.DELETE(path, t.handleDelete)
}

// isOriginAllowed follows original_source/src/transport/http.rs's
// is_origin_allowed literally: "*" allows everything; "*.suffix"
// matches any Origin host ending in ".suffix"; anything else is an
// exact string compare against the full Origin header.
func isOriginAllowed(origin string, allowed []string) bool {
	for _, entry := range allowed {
		if entry == "*" {
			return true
		}
		if strings.HasPrefix(entry, "*.") {
			suffix := entry[1:] // keeps the leading dot
			if strings.HasSuffix(origin, suffix) {
				return true
			}
			continue
		}
		if entry == origin {
			return true
		}
	}
	return false
}

func (t *Transport) checkOrigin(c echo.Context) error {
	origin := c.Request().Header.Get("Origin")
	if origin == "" {
		return nil
	}
	if !t.cfg.EnableCORS {
		return nil
	}
	if !isOriginAllowed(origin, t.cfg.CORSOrigins) {
		return echo.NewHTTPError(http.StatusForbidden, "origin not allowed")
	}
	return nil
}

// checkAuth gates the request on t.auth when one has been supplied via
// WithAuth; it is a no-op otherwise, since spec.md places auth plumbing
// out of scope for the core except as an optional collaborator hook.
func (t *Transport) checkAuth(c echo.Context) error {
	if t.auth == nil {
		return nil
	}
	if err := t.auth.Validate(c.Request().Context(), c.Request()); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return nil
}

func acceptContains(accept, mediaType string) bool {
	for _, part := range strings.Split(accept, ",") {
		if strings.HasPrefix(strings.TrimSpace(part), mediaType) {
			return true
		}
	}
	return false
}

// resolveSession reads Mcp-Session-Id; if absent or unknown it mints a
// fresh session rather than failing, per spec.md §4.2's "expired
// sessions are indistinguishable from absent ones".
func (t *Transport) resolveSession(c echo.Context) *Session {
	id := c.Request().Header.Get("Mcp-Session-Id")
	if id != "" {
		if sess, ok := t.Sessions.Get(id); ok && !sess.IsExpired(sessionTimeout(t.cfg)) {
			t.Sessions.Touch(id)
			c.Response().Header().Set("Mcp-Session-Id", id)
			return sess
		}
	}
	sess := t.Sessions.Create()
	c.Response().Header().Set("Mcp-Session-Id", sess.ID)
	return sess
}

func (t *Transport) handlePost(c echo.Context) error {
	if err := t.checkOrigin(c); err != nil {
		return err
	}
	if err := t.checkAuth(c); err != nil {
		return err
	}
	accept := c.Request().Header.Get("Accept")
	if !acceptContains(accept, "application/json") || !acceptContains(accept, "text/event-stream") {
		return echo.NewHTTPError(http.StatusBadRequest,
			"Accept header must contain application/json and text/event-stream")
	}

	sess := t.resolveSession(c)

	if !t.limiterFor(sess.ID).Allow() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "rate limit exceeded for session")
	}

	select {
	case t.queue <- struct{}{}:
		defer func() { <-t.queue }()
	default:
		return echo.NewHTTPError(http.StatusServiceUnavailable, "server is at capacity")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(nil, ToJSONRPCError(ParseErr("failed to read request body: %v", err))))
	}

	parsed, err := ParseMessage(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(nil, ToJSONRPCError(err)))
	}

	if parsed.Kind == kindBatch {
		requestCount := 0
		for _, elem := range parsed.Batch {
			if elem.Kind == kindRequest {
				requestCount++
			}
		}
		if requestCount == 0 {
			return c.NoContent(http.StatusAccepted)
		}
		if requestCount > 1 {
			return c.NoContent(http.StatusNotImplemented)
		}
		responses := t.Dispatcher.HandleBatch(parsed.Batch)
		return c.JSON(http.StatusOK, responses)
	}

	if parsed.Kind != kindRequest {
		return c.NoContent(http.StatusAccepted)
	}

	resp := t.Dispatcher.HandleParsed(parsed)
	return c.JSON(http.StatusOK, resp)
}

func (t *Transport) handleGet(c echo.Context) error {
	if err := t.checkOrigin(c); err != nil {
		return err
	}
	if err := t.checkAuth(c); err != nil {
		return err
	}
	accept := c.Request().Header.Get("Accept")
	if !acceptContains(accept, "text/event-stream") {
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "Accept header must contain text/event-stream")
	}

	sess := t.resolveSession(c)
	_ = c.Request().Header.Get("Last-Event-ID")

	if t.NATS == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "SSE streaming is not configured")
	}
	return handleSSEStream(c, t.NATS, sess.ID)
}

func (t *Transport) handleDelete(c echo.Context) error {
	id := c.Request().Header.Get("Mcp-Session-Id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Mcp-Session-Id header required")
	}
	if !t.Sessions.Remove(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown session")
	}
	return c.NoContent(http.StatusOK)
}

func sessionTimeout(cfg HttpConfig) time.Duration {
	return time.Duration(cfg.SessionTimeout) * time.Second
}

// limiterFor returns the per-session token bucket limiter, creating one
// on first use, wiring golang.org/x/time/rate into the per-client side
// of the bounded-queue backpressure policy in spec.md §5.
func (t *Transport) limiterFor(sessionID string) *rate.Limiter {
	t.limiterMu.Lock()
	defer t.limiterMu.Unlock()
	l, ok := t.limiters[sessionID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(50), 100)
		t.limiters[sessionID] = l
	}
	return l
}
