package mcp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/mcp-go-server/internal/logging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server assembles the protocol dispatcher, the three feature managers,
// the session store, and the Streamable HTTP transport into one running
// process, mirroring the composition role of the teacher's server.go
// while replacing its NATS-operation/checkpoint domain with the generic
// MCP core.
type Server struct {
	cfg       Config
	log       *logging.Logger
	echo      *echo.Echo
	transport *Transport
	fsRoot    string
	gitRoot   string
	auth      AuthValidator

	sessions  *SessionStore
	resources *ResourceManager
	tools     *ToolManager
	prompts   *PromptManager
	registry  *ToolHandlerRegistry
	dispatch  *Dispatcher

	natsServer *server.Server
	natsConn   *nats.Conn
}

// ServerOption customizes NewServer beyond cfg.
type ServerOption func(*Server)

// WithSampling wires a SamplingProvider collaborator into the dispatcher.
func WithSampling(p SamplingProvider) ServerOption {
	return func(s *Server) { s.dispatch.Sampling = p }
}

// WithCompletion wires a CompletionProvider collaborator.
func WithCompletion(p CompletionProvider) ServerOption {
	return func(s *Server) { s.dispatch.Completion = p }
}

// WithRoots wires a RootsEnumerator collaborator.
func WithRoots(r RootsEnumerator) ServerOption {
	return func(s *Server) { s.dispatch.Roots = r }
}

// WithFilesystemRoot bootstraps a FileSystemProvider rooted at dir.
func WithFilesystemRoot(dir string) ServerOption {
	return func(s *Server) { s.fsRoot = dir }
}

// WithGitRoot bootstraps a GitResourceProvider against the local git
// repository at dir.
func WithGitRoot(dir string) ServerOption {
	return func(s *Server) { s.gitRoot = dir }
}

// WithAuth gates every POST/GET /mcp request on validator, per spec.md
// §6's "auth validator" collaborator. Disabled (no gating) unless this
// option is supplied.
func WithAuth(validator AuthValidator) ServerOption {
	return func(s *Server) { s.auth = validator }
}

// NewServer constructs a fully wired server but does not start listening;
// call Start to do that. An embedded nats-server is started in-process so
// SSE notification fan-out has no external dependency to stand up,
// grounded on the teacher's nats-server/v2 dependency. Logging is built on
// the teacher's internal/logging package (Zap plus optional OTEL bridging,
// context-field injection, and redaction) rather than a bare zap logger.
func NewServer(cfg Config, log *logging.Logger, opts ...ServerOption) (*Server, error) {
	if log == nil {
		var err error
		log, err = logging.NewLogger(logging.NewDefaultConfig(), nil)
		if err != nil {
			return nil, InternalErr("failed to build logger: %v", err)
		}
	}
	zl := log.Underlying()

	sessions := NewSessionStore(sessionTimeout(cfg.HTTP))
	resources := NewResourceManager()
	tools := NewToolManager()
	prompts := NewPromptManager()
	registry := NewToolHandlerRegistry(zl)
	dispatch := NewDispatcher(resources, tools, prompts, sessions, zl)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(zapAccessLog(log))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	natsSrv, natsConn, err := startEmbeddedNATS()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		log:        log,
		echo:       e,
		sessions:   sessions,
		resources:  resources,
		tools:      tools,
		prompts:    prompts,
		registry:   registry,
		dispatch:   dispatch,
		natsServer: natsSrv,
		natsConn:   natsConn,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.transport = NewTransport(e, dispatch, sessions, natsConn, zl, cfg.HTTP)
	s.transport.auth = s.auth
	dispatch.Bootstrap(registry, &cfg.Tools, s.fsRoot, s.gitRoot)

	return s, nil
}

// Start begins serving HTTP on cfg.HTTP.BindAddress:Port. It blocks until
// ctx is cancelled or the listener errors.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.HTTP.BindAddress, s.cfg.HTTP.Port)

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.cfg.HTTP.EnableTLS {
			err = s.echo.StartTLS(addr, s.cfg.HTTP.CertFile, s.cfg.HTTP.KeyFile)
		} else {
			err = s.echo.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server, the session store's
// background cleanup loop, and the embedded NATS server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.Stop()
	if s.natsConn != nil {
		s.natsConn.Close()
	}
	if s.natsServer != nil {
		s.natsServer.Shutdown()
	}
	return s.echo.Shutdown(ctx)
}

func startEmbeddedNATS() (*server.Server, *nats.Conn, error) {
	opts := &server.Options{Port: server.RANDOM_PORT, DontListen: false}
	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, nil, InternalErr("failed to start embedded nats-server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		return nil, nil, InternalErr("embedded nats-server did not become ready")
	}
	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		ns.Shutdown()
		return nil, nil, InternalErr("failed to connect to embedded nats-server: %v", err)
	}
	return ns, nc, nil
}

func zapAccessLog(log *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			ctx := c.Request().Context()
			if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
				ctx = logging.WithRequestID(ctx, reqID)
			}
			if sessID := c.Response().Header().Get("Mcp-Session-Id"); sessID != "" {
				ctx = logging.WithSessionID(ctx, sessID)
			}

			log.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("elapsed", time.Since(start)),
			)
			return err
		}
	}
}
