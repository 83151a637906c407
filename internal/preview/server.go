// Package preview serves a live HTML preview of the export template rendered
// against a sample window. Connected browsers reload over a websocket when
// the template changes.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conneroisu/tabsidian/internal/logging"
	"github.com/conneroisu/tabsidian/internal/template"
)

// Source returns the current template text.
type Source func() (string, error)

// Config configures the listener.
type Config struct {
	Host string
	Port int
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server is the preview HTTP server.
type Server struct {
	config   Config
	source   Source
	renderer *Renderer
	hub      *Hub
	logger   logging.Logger
	router   chi.Router
}

// NewServer creates and configures the preview server.
func NewServer(config Config, source Source, renderer *Renderer, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("preview")

	s := &Server{
		config:   config,
		source:   source,
		renderer: renderer,
		hub:      NewHub(logger, "localhost:*", "127.0.0.1:*", config.Host+":*"),
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(securityHeaders(DefaultCSP()))

	r.Get("/", s.handlePage)
	r.Get("/health", s.handleHealth)
	r.Get("/markdown", s.handleMarkdown)
	r.Get("/api/preview", s.handlePreview)
	r.Get("/ws", s.hub.ServeHTTP)

	s.router = r
}

// Notify tells connected browsers to reload. A template error is pushed so
// the page can show it without reloading.
func (s *Server) Notify(ctx context.Context) {
	if _, err := s.source(); err != nil {
		s.hub.Broadcast(Message{Type: MessageError, Message: err.Error()})
		return
	}
	s.logger.Debug(ctx, "Template changed, reloading clients", "clients", s.hub.ClientCount())
	s.hub.Broadcast(Message{Type: MessageReload})
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Preview server listening", "url", "http://"+ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) render(r *http.Request) (Page, error) {
	tpl, err := s.source()
	if err != nil {
		return Page{}, err
	}
	return s.renderer.Render(r.Context(), tpl)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := s.render(r)
	if err != nil {
		s.logger.Warn(r.Context(), err, "Preview render failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out, err := template.Render(pageTemplate, page.values(nonceFrom(r.Context())))
	if err != nil {
		s.logger.Error(r.Context(), err, "Page shell failed to render")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	page, err := s.render(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(page.Markdown))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	page, err := s.render(r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "clients": s.hub.ClientCount()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
