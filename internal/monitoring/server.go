// internal/monitoring/server.go
package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grantio/grantscraper/internal/utils"
)

// Server serves /metrics and /healthz while a scrape run is active.
type Server struct {
	metrics *Metrics
	logger  utils.Logger
	srv     *http.Server
	started time.Time
}

func NewServer(listen string, metrics *Metrics, logger utils.Logger) *Server {
	s := &Server{
		metrics: metrics,
		logger:  logger,
		started: time.Now(),
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:         listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		err := s.srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("monitoring server: %v", err)
		}
	}()
	s.logger.WithField("listen", s.srv.Addr).Info("monitoring server started")
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}
