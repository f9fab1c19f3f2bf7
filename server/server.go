// Package server exposes the render loop over HTTP: clients post viewport
// changes and read back frames.
package server

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

	"github.com/vcnkl/areamap/logger"
	"github.com/vcnkl/areamap/models"
)

type Index interface {
	Views(bounds models.Bounds, zoom int) ([]models.View, error)
	Area(index int) (*models.Area, error)
}

// Backend is the running render session behind the HTTP surface.
type Backend interface {
	// Trigger schedules a render of vp.
	Trigger(vp models.Viewport)
	Current() *models.Frame
	Index() Index
	Subscribe() (<-chan *models.Frame, func())
}

type Options struct {
	Addr   string
	Width  int
	Height int
	Logger logger.Logger
}

type Server struct {
	backend Backend
	opts    Options
	log     logger.Logger
	router  chi.Router
}

func New(backend Backend, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	s := &Server{
		backend: backend,
		opts:    opts,
		log:     opts.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/viewport", s.handleViewport)
	r.Get("/frame", s.handleFrame)
	r.Get("/events", s.handleEvents)
	r.Get("/areas/{index}", s.handleArea)
	r.Get("/clusters", s.handleClusters)

	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server starting", logger.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Debug("http request",
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Int("bytes", ww.BytesWritten()),
			logger.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req models.ViewportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	vp, err := req.Viewport(s.opts.Width, s.opts.Height, "api")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.backend.Trigger(vp)
	writeJSON(w, http.StatusAccepted, vp)
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	frame := s.backend.Current()
	if frame == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

// handleEvents streams every published frame as a server-sent event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	frames, unsubscribe := s.backend.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			data, err := json.Marshal(frame)
			if err != nil {
				s.log.Error("failed to marshal frame", logger.Err(err))
				return
			}
			fmt.Fprintf(w, "id: %d\nevent: frame\ndata: %s\n\n", frame.Seq, data)
			flusher.Flush()
		}
	}
}

func (s *Server) handleArea(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid area index %q", chi.URLParam(r, "index")))
		return
	}

	area, err := s.backend.Index().Area(index)
	var notFound *models.AreaNotFoundError
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, area)
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	bounds, err := models.ParseBBox(q.Get("bbox"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	zoom, err := strconv.Atoi(q.Get("zoom"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid zoom %q", q.Get("zoom")))
		return
	}

	vp := models.Viewport{Bounds: bounds, Zoom: zoom}
	if err = vp.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	views, err := s.backend.Index().Views(bounds, zoom)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if views == nil {
		views = []models.View{}
	}
	writeJSON(w, http.StatusOK, views)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
