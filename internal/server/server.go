// Package server exposes the authentication engine over HTTP/JSON.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/logging"
	"github.com/MrEthical07/authcore/middleware"
)

// maxBodyBytes caps request bodies; every payload is a handful of short fields.
const maxBodyBytes = 1 << 16

// Options configures the HTTP surface.
type Options struct {
	// CookieName is the session cookie set on login. Defaults to "jwt".
	CookieName string
	// SecureCookies marks the session cookie Secure. Requests arriving over
	// TLS always get Secure cookies.
	SecureCookies bool
	// Metrics, when non-nil, is mounted at /metrics.
	Metrics http.Handler
	Logger  *slog.Logger
}

// Server routes HTTP requests to an Engine.
type Server struct {
	engine *authcore.Engine
	opts   Options
	log    logging.Logger
}

// New returns a Server for engine.
func New(engine *authcore.Engine, opts Options) *Server {
	if opts.CookieName == "" {
		opts.CookieName = middleware.DefaultCookieName
	}
	return &Server{
		engine: engine,
		opts:   opts,
		log:    logging.NewSlogLogger(opts.Logger).With("component", "http"),
	}
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /heartbeat", heartbeatHandler)
	mux.HandleFunc("POST /signup", s.signupHandler)
	mux.HandleFunc("POST /login", s.loginHandler)
	mux.HandleFunc("POST /verify-2fa", s.verifySecondFactorHandler)
	mux.HandleFunc("POST /logout", s.logoutHandler)
	mux.HandleFunc("POST /verify-token", s.verifyTokenHandler)

	guard := middleware.Guard(s.engine, s.opts.CookieName)
	mux.Handle("GET /me", guard(http.HandlerFunc(meHandler)))

	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics)
	}

	return s.logRequests(mux)
}

// Serve runs an http.Server on addr until ctx is cancelled, then shuts it
// down within shutdownTimeout.
func (s *Server) Serve(ctx context.Context, addr string, readHeaderTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	s.log.Info(shutdownCtx, "shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// withRequestContext attaches the peer address for throttling and audit.
func withRequestContext(r *http.Request) context.Context {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return authcore.WithClientIP(r.Context(), host)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
