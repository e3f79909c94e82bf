package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cacheaside"
)

const msgNotFound = "user not found"

type server struct {
	users cacheaside.Store[int, string]
	log   *zap.Logger
	mux   *http.ServeMux
}

func newServer(users cacheaside.Store[int, string], log *zap.Logger, gatherer prometheus.Gatherer) *server {
	s := &server{users: users, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /users/{id}", s.getUser)
	s.mux.HandleFunc("POST /users/{id}", s.addUser)
	s.mux.HandleFunc("DELETE /users/{id}", s.deleteUser)
	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	name, found, err := s.users.Read(r.Context(), id)
	if err != nil {
		s.fail(w, "read", id, err)
		return
	}
	if !found {
		http.Error(w, msgNotFound, http.StatusNotFound)
		return
	}
	fmt.Fprint(w, name)
}

func (s *server) addUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := s.users.Write(r.Context(), id, name); err != nil {
		s.fail(w, "write", id, err)
		return
	}
	fmt.Fprintf(w, "user %s added", name)
}

func (s *server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.users.Delete(r.Context(), id); err != nil {
		s.fail(w, "delete", id, err)
		return
	}
	fmt.Fprint(w, "user deleted")
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *server) fail(w http.ResponseWriter, op string, id int, err error) {
	switch {
	case errors.Is(err, cacheaside.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, cacheaside.ErrUnavailable):
		s.log.Warn("user store unavailable", zap.String("op", op), zap.Int("id", id), zap.Error(err))
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	default:
		s.log.Error("user store failed", zap.String("op", op), zap.Int("id", id), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
