// Package metrics — server.go поднимает HTTP-сервер для /metrics и /healthz.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// HealthFunc проверяет зависимости (например, пинг БД). nil = всё хорошо.
type HealthFunc func(ctx context.Context) error

// Server — служебный HTTP-сервер.
type Server struct {
	srv    *http.Server
	health HealthFunc
}

// NewServer создаёт сервер на addr. health может быть nil.
func NewServer(addr string, health HealthFunc) *Server {
	s := &Server{health: health}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler возвращает chi-роутер со всеми маршрутами.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok"}

	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]string{"status": "degraded", "error": err.Error()}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Start запускает сервер в отдельной горутине.
func (s *Server) Start() {
	go func() {
		log.WithField("addr", s.srv.Addr).Info("HTTP-сервер метрик запущен")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP-сервер метрик упал")
		}
	}()
}

// Shutdown останавливает сервер, дожидаясь активных запросов.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
