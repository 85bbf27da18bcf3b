package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lazypower/rhythm/internal/engine"
	"github.com/lazypower/rhythm/internal/store"
	"go.uber.org/zap"
)

// Server is the rhythm HTTP API server. Subject ids arrive in the path,
// already authenticated by whatever sits in front of it.
type Server struct {
	eng     *engine.Engine
	db      *store.DB
	log     *zap.Logger
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server over the engine. db is only used for health.
func New(eng *engine.Engine, db *store.DB, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		eng:     eng,
		db:      db,
		log:     log,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/subjects", s.handleCreateSubject)
		r.Route("/subjects/{subjectID}", func(r chi.Router) {
			r.Get("/", s.handleGetSubject)
			r.Get("/profile", s.handleLoadProfile)
			r.Get("/digest", s.handleDigest)

			r.Post("/moments", s.handleRecordMoment)
			r.Get("/moments", s.handleListMoments)

			r.Post("/state", s.handleRecordState)
			r.Get("/state", s.handleCurrentState)

			r.Get("/rhythm", s.handleRhythm)
			r.Get("/practice", s.handlePractice)

			r.Post("/threads", s.handleRecordThread)
			r.Get("/threads", s.handleListThreads)
			r.Post("/threads/{threadID}/contemplate", s.handleContemplate)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.PingContext(r.Context()); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine and store errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrExists):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status >= 500 {
		s.log.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
