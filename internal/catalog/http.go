package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

type Server struct {
	Store Store
	Log   *zap.Logger

	// Verbose exposes internal error causes in 500 responses.
	Verbose bool
}

func (s *Server) register(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.logger().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", s.list)
		r.Get("/{id}", s.get)
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.ListSortedByID(r.Context())
	if err != nil {
		s.logger().Error("list products failed", zap.Error(err))
		kit.WriteServerError(w, r, err, s.Verbose)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")

	// A non-numeric id cannot match any product, so it is a miss rather
	// than a bad request.
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeNotFound(w, r, raw)
		return
	}

	p, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.logger().Error("get product failed", zap.Error(err), zap.Int64("id", id))
		kit.WriteServerError(w, r, err, s.Verbose)
		return
	}
	if !ok {
		writeNotFound(w, r, raw)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func writeNotFound(w http.ResponseWriter, r *http.Request, id string) {
	kit.WriteError(w, r, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id), nil)
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
