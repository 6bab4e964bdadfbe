package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chainlens/aiopool/pool"
	"github.com/chainlens/aiopool/task"
)

// newServer builds the demo's observability HTTP surface, grounded on the
// teacher's chi+cors router setup for its own API server.
func newServer(p *pool.Pool[int], t *task.Task[int, int]) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		length, _ := t.QueueLength(r.Context())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Pool        pool.Stats `json:"pool"`
			BrokerQueue int64      `json:"broker_queue_length"`
		}{
			Pool:        p.Stats(),
			BrokerQueue: length,
		})
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(newPoolCollector(p))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}
