package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rzbill/blinkhub/internal/metrics"
	"github.com/rzbill/blinkhub/internal/runtime"
	"github.com/rzbill/blinkhub/internal/server/http/controllers"
	chatsvc "github.com/rzbill/blinkhub/internal/services/chat"
	motionsvc "github.com/rzbill/blinkhub/internal/services/motion"
	settingsvc "github.com/rzbill/blinkhub/internal/services/settings"
	logpkg "github.com/rzbill/blinkhub/pkg/log"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Services are the handlers' dependencies. Nil services are built with
// defaults over the runtime.
type Services struct {
	Settings *settingsvc.Service
	Chat     *chatsvc.Manager
	Motion   *motionsvc.Service
	// Metrics, when set, instruments every route and serves /metrics.
	Metrics *metrics.Metrics
}

type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	logger logpkg.Logger
}

func New(rt *runtime.Runtime, logger logpkg.Logger, svcs Services) *Server {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	logger = logger.WithComponent("http")
	if svcs.Settings == nil {
		svcs.Settings = settingsvc.NewWithLogger(rt, logger)
	}
	if svcs.Chat == nil {
		svcs.Chat = chatsvc.New(rt, chatsvc.Options{Logger: logger})
	}
	if svcs.Motion == nil {
		// The default prefix always validates.
		svcs.Motion, _ = motionsvc.New(rt, motionsvc.Options{Notifier: svcs.Chat, Logger: logger})
	}

	mux := http.NewServeMux()
	router := &instrumentedMux{mux: mux, metrics: svcs.Metrics}
	controllers.NewControllerRegistry(rt, svcs.Settings, svcs.Chat, svcs.Motion).RegisterAllRoutes(router)
	if svcs.Metrics != nil {
		mux.Handle("/metrics", svcs.Metrics.Handler())
	}

	s := &Server{rt: rt, logger: logger}
	s.srv = &http.Server{
		Handler:           cors(requestID(accessLog(logger, mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on an existing listener until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.logger.Info("http listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		s.drain()
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Close stops accepting connections and waits for in-flight requests, the
// same drain Serve runs when its context ends.
func (s *Server) Close() { s.drain() }

// drain shuts the server down gracefully, forcing connections closed once
// shutdownTimeout passes.
func (s *Server) drain() {
	cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(cctx); err != nil {
		s.logger.Warn("http drain incomplete", logpkg.Err(err))
		_ = s.srv.Close()
	}
}

const shutdownTimeout = 5 * time.Second

type instrumentedMux struct {
	mux     *http.ServeMux
	metrics *metrics.Metrics
}

func (m *instrumentedMux) Handle(pattern string, h http.Handler) {
	if m.metrics != nil {
		h = m.metrics.Middleware(pattern, h)
	}
	m.mux.Handle(pattern, h)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestID keeps a caller-supplied X-Request-ID or assigns a new one, and
// stores it in the request context for loggers.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, rid)
		ctx := logpkg.ContextWithValue(r.Context(), logpkg.RequestIDKey, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func accessLog(logger logpkg.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.WithContext(r.Context()).Debug("http request",
			logpkg.Str("method", r.Method),
			logpkg.Str("path", r.URL.Path),
			logpkg.Int("status", rec.status),
			logpkg.Duration("elapsed", time.Since(start)),
		)
	})
}
