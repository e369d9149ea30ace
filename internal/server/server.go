// Package server exposes any db.Backend over the document wire API the
// remote backend's driver speaks. The bundled davenportd binary serves it
// over a pebble store; tests serve it over httptest.
package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BobWall23/davenport/pkg/db"
	"github.com/BobWall23/davenport/pkg/log"
)

type Server struct {
	backend     db.Backend
	bucket      string
	maxInFlight int
}

// New serves a single named bucket over backend. Requests addressed to any
// other bucket get a 404. maxInFlight caps concurrent requests; zero means
// unlimited.
func New(backend db.Backend, bucket string, maxInFlight int) *Server {
	return &Server{backend: backend, bucket: bucket, maxInFlight: maxInFlight}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLog)
	if s.maxInFlight > 0 {
		r.Use(middleware.Throttle(s.maxInFlight))
	}

	r.Get("/health", s.health)
	r.Route("/v1/{bucket}", func(r chi.Router) {
		r.Use(s.checkBucket)
		r.Get("/docs/{key}", s.getDocument)
		r.Post("/docs/{key}", s.createDocument)
		r.Put("/docs/{key}", s.updateDocument)
		r.Delete("/docs/{key}", s.removeDocument)
		r.Get("/counters/{key}", s.getCounter)
		r.Post("/counters/{key}", s.incrementCounter)
	})
	return r
}

func (s *Server) checkBucket(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "bucket") != s.bucket {
			writeJSON(w, http.StatusNotFound, errorBody{Error: CodeNotFound, Message: "unknown bucket"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if !s.backend.Connected() {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: CodeInternal, Message: "backend unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	key := db.Key(chi.URLParam(r, "key"))
	doc, err := s.backend.GetDocument(r.Context(), key).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeDocument(w, http.StatusOK, doc)
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	key := db.Key(chi.URLParam(r, "key"))
	content, ok := readContent(w, r)
	if !ok {
		return
	}
	doc, err := s.backend.CreateDocument(r.Context(), key, content).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeDocument(w, http.StatusCreated, doc)
}

func (s *Server) updateDocument(w http.ResponseWriter, r *http.Request) {
	key := db.Key(chi.URLParam(r, "key"))
	var body documentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: CodeDecode, Message: err.Error()})
		return
	}
	content, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: CodeDecode, Message: err.Error()})
		return
	}
	doc, err := s.backend.UpdateDocument(r.Context(), key, content, db.Cas(body.Cas)).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeDocument(w, http.StatusOK, doc)
}

func (s *Server) removeDocument(w http.ResponseWriter, r *http.Request) {
	key := db.Key(chi.URLParam(r, "key"))
	if _, err := s.backend.RemoveDocument(r.Context(), key).Await(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getCounter(w http.ResponseWriter, r *http.Request) {
	key := db.Key(chi.URLParam(r, "key"))
	v, err := s.backend.Counter(r.Context(), key).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counterBody{Value: v})
}

func (s *Server) incrementCounter(w http.ResponseWriter, r *http.Request) {
	key := db.Key(chi.URLParam(r, "key"))
	var body deltaBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: CodeDecode, Message: err.Error()})
		return
	}
	v, err := s.backend.IncrementCounter(r.Context(), key, body.Delta).Await(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counterBody{Value: v})
}

func readContent(w http.ResponseWriter, r *http.Request) (db.RawContent, bool) {
	var body documentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: CodeDecode, Message: err.Error()})
		return nil, false
	}
	content, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: CodeDecode, Message: err.Error()})
		return nil, false
	}
	return content, true
}

func writeDocument(w http.ResponseWriter, status int, doc db.Document) {
	writeJSON(w, status, documentBody{
		Content: base64.StdEncoding.EncodeToString(doc.Content),
		Cas:     uint64(doc.Cas),
	})
}

func writeError(w http.ResponseWriter, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, db.ErrNotFound):
		status, code = http.StatusNotFound, CodeNotFound
	case errors.Is(err, db.ErrAlreadyExists):
		status, code = http.StatusConflict, CodeAlreadyExists
	case errors.Is(err, db.ErrCasMismatch):
		status, code = http.StatusConflict, CodeCasMismatch
	case errors.Is(err, db.ErrDecode):
		status, code = http.StatusUnprocessableEntity, CodeDecode
	case errors.Is(err, db.ErrInvalidKey):
		status, code = http.StatusBadRequest, CodeInvalidKey
	default:
		status, code = http.StatusInternalServerError, CodeInternal
		log.Server.Error().Err(err).Msg("backend failure")
	}
	writeJSON(w, status, errorBody{Error: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLog records one line per request at debug level.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Server.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
