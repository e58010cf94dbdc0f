// Package server exposes one in-memory outline document over HTTP. Edit
// intents are applied one at a time; readers always see a whole snapshot.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/salmonumbrella/outline-cli/internal/outline"
)

// PersistFunc is called with every new snapshot before it becomes current.
// A returned error rejects the edit.
type PersistFunc func(*outline.Document) error

// Server is the HTTP adapter around a document session.
type Server struct {
	router  chi.Router
	log     *slog.Logger
	persist PersistFunc

	mu  sync.RWMutex
	doc *outline.Document
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and edit logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithPersist stores each accepted snapshot, e.g. back to the document file.
func WithPersist(fn PersistFunc) Option {
	return func(s *Server) { s.persist = fn }
}

// New creates the server for doc.
func New(doc *outline.Document, opts ...Option) *Server {
	s := &Server{
		doc: doc,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Document returns the current snapshot.
func (s *Server) Document() *outline.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/blocks", s.handleBlocks)
		r.Get("/blocks/{key}/visible", s.handleVisible)
		r.Get("/tree", s.handleTree)
		r.Get("/parents", s.handleParents)
		r.Post("/edits", s.handleEdit)
	})

	s.router = r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
