package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/assets"
)

// Sentinel errors for server operations.
var (
	ErrListen   = errors.New("failed to listen")
	ErrServe    = errors.New("server stopped unexpectedly")
	ErrTemplate = errors.New("failed to load editor page")
)

// Limits and timeouts.
const (
	MaxSourceSize     = 16 << 20
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	heartbeatInterval = 30 * time.Second
)

// Editor is the part of *mdpreview.Editor the server drives.
type Editor interface {
	Snapshot(ctx context.Context) (mdpreview.Snapshot, error)
	SetSource(ctx context.Context, source string) (mdpreview.Snapshot, error)
	ImportFile(ctx context.Context, name string, r io.Reader) (mdpreview.Snapshot, error)
	Copy(ctx context.Context, blockID string) (mdpreview.CopyState, error)
	Print(ctx context.Context) ([]byte, error)
	Subscribe(ctx context.Context) (<-chan mdpreview.Snapshot, func(), error)
	Accept() string
	ResetDelay() time.Duration
	StyleSheets() *mdpreview.StyleSheets
	PageSettings() mdpreview.PageSettings
}

// Compile-time interface check.
var _ Editor = (*mdpreview.Editor)(nil)

// Server exposes an Editor over HTTP.
type Server struct {
	editor    Editor
	logger    zerolog.Logger
	assetPath string
	page      *template.Template
	router    chi.Router

	quit     chan struct{}
	quitOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithAssetPath sets a directory whose editor template overrides the
// embedded one.
func WithAssetPath(path string) Option {
	return func(s *Server) {
		s.assetPath = path
	}
}

// New creates a server for editor and registers its routes.
func New(editor Editor, opts ...Option) (*Server, error) {
	s := &Server{
		editor: editor,
		logger: zerolog.Nop(),
		quit:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	loader, err := assets.Open(s.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	text, err := loader.LoadTemplate(assets.TemplateEditor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	s.page, err = template.New(assets.TemplateEditor).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	s.RegisterHTTP(r)
	s.router = r

	return s, nil
}

// RegisterHTTP registers the editor page, the API and the stylesheets on r.
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Get("/", s.handleIndex)
	r.Get("/assets/styles/{name}.css", s.handleStyle)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.With(middleware.RequestSize(MaxSourceSize)).Put("/source", s.handleSource)
		r.Get("/preview", s.handlePreview)
		r.Post("/import", s.handleImport)
		r.Post("/copy/{blockID}", s.handleCopy)
		r.Get("/print.pdf", s.handlePrint)
		r.Get("/events", s.handleEvents)
	})
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen opens a TCP listener on addr.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListen, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until ctx is cancelled, then closes open
// event streams and shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("%w: %v", ErrServe, err)
	case <-ctx.Done():
	}

	s.quitOnce.Do(func() { close(s.quit) })

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%w: %v", ErrServe, err)
	}
	return nil
}

// requestLogger logs one line per request with zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				event := logger.Debug()
				if status >= http.StatusInternalServerError {
					event = logger.Warn()
				}
				event.
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// pageData fills the editor template.
type pageData struct {
	Title        string
	Accept       string
	Source       string
	Fragment     template.HTML
	Version      uint64
	ResetDelayMS int64
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, err := s.editor.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := pageData{
		Title:  snap.Title,
		Accept: s.editor.Accept(),
		Source: snap.Source,
		// The fragment went through the sanitizer before enhancement.
		Fragment:     template.HTML(snap.HTML), // #nosec G203 -- sanitized fragment
		Version:      snap.Version,
		ResetDelayMS: s.editor.ResetDelay().Milliseconds(),
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.logger.Error().Err(err).Msg("executing editor template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	styles := s.editor.StyleSheets()
	var css string
	switch chi.URLParam(r, "name") {
	case assets.StyleEditor:
		css = styles.Editor
	case assets.StyleMarkdown:
		css = styles.Markdown
	case "highlight":
		css = styles.Highlight
	case assets.StylePrint:
		// window.print() follows the same page rule as PDF export.
		css = styles.Print + "\n" + s.editor.PageSettings().CSS()
	default:
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = io.WriteString(w, css)
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "document is too large"})
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	snap, err := s.editor.SetSource(r.Context(), string(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	snap, err := s.editor.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// handleImport streams the multipart "file" field into the editor.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expected a multipart upload"})
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart upload"})
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		snap, err := s.editor.ImportFile(r.Context(), part.FileName(), part)
		_ = part.Close()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, snap)
		return
	}

	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: `missing "file" field`})
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	state, err := s.editor.Copy(r.Context(), chi.URLParam(r, "blockID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	pdf, err := s.editor.Print(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="document.pdf"`)
	_, _ = w.Write(pdf)
}

// handleEvents streams every new snapshot as a server-sent "snapshot" event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	updates, unsubscribe, err := s.editor.Subscribe(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	_, _ = io.WriteString(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snap := <-updates:
			data, err := json.Marshal(snap)
			if err != nil {
				s.logger.Error().Err(err).Msg("encoding snapshot")
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
