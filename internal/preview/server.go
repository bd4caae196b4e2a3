// Package preview serves a rendered chart over HTTP and refreshes it when
// its SQL file changes.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/sqlchart/pkg/chart"
	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/sync/errgroup"
)

// RenderFunc produces the figure to display. It is called once per
// refresh, never concurrently.
type RenderFunc func(ctx context.Context) (chart.Figure, error)

// ErrNoFigure is returned while no render has succeeded yet.
var ErrNoFigure = errors.New("no chart rendered yet")

// Config holds configuration for the preview server.
type Config struct {
	Addr   string
	Render RenderFunc
	// WatchPath, when set, re-renders whenever the file changes.
	WatchPath string
	Debounce  time.Duration
	Logger    *slog.Logger
}

// Server displays the latest figure produced by its RenderFunc.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	notifier *notifier

	// renderMu serialises renders; the engine behind Render is not safe
	// for concurrent use.
	renderMu sync.Mutex

	mu      sync.RWMutex
	fig     chart.Figure
	lastErr error
}

// New creates a preview server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		notifier: newNotifier(),
	}
}

// Refresh renders a new figure. On failure the previous figure stays on
// display and the error is shown on the page.
func (s *Server) Refresh(ctx context.Context) error {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	fig, err := s.cfg.Render(ctx)

	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		s.fig = fig
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("render failed", "error", err)
		s.notifier.broadcast("")
		return err
	}
	s.logger.Info("chart rendered", "id", fig.ID(), "kind", fig.Kind(), "title", fig.Title())
	s.notifier.broadcast(fig.ID())
	return nil
}

// Figure returns the figure on display and the error of the last render.
func (s *Server) Figure() (chart.Figure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fig, s.lastErr
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Recoverer,
		s.requestLogger,
	)

	r.Get("/", s.handleIndex)
	r.Get("/chart.{format}", s.handleChart)
	r.Get("/events", s.handleEvents)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

// Serve starts the HTTP server, and the file watcher when configured, and
// blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting preview server", "addr", "http://"+ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.WatchPath != "" {
		eg.Go(func() error {
			return Watch(egctx, s.cfg.WatchPath, s.cfg.Debounce, s.logger, func() {
				// Render errors are shown on the page.
				_ = s.Refresh(egctx)
			})
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down preview server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format, err := chart.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	fig, lastErr := s.Figure()
	if fig == nil {
		if lastErr == nil {
			lastErr = ErrNoFigure
		}
		http.Error(w, lastErr.Error(), http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := fig.Render(&buf, format); err != nil {
		var formatErr *chart.UnsupportedFormatError
		if errors.As(err, &formatErr) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Error("failed to encode chart", "format", format, "error", err)
		http.Error(w, "failed to encode chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Figure-Id", fig.ID())
	_, _ = w.Write(buf.Bytes())
}

// handleEvents streams a reload script to the page whenever a new figure
// has been rendered.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ch := s.notifier.subscribe()
	defer s.notifier.unsubscribe(ch)

	sse := datastar.NewSSE(w, r)
	for {
		select {
		case <-r.Context().Done():
			return
		case id := <-ch:
			s.logger.Debug("reloading preview", "id", id)
			if err := sse.ExecuteScript("window.location.reload()"); err != nil {
				return
			}
		}
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}
