package metrics

import (
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	collectors "github.com/matdaan/vicore/internal/metrics/collectors/sql"
)

// CreateMetricsServer starts an HTTP server exposing ledger metrics on
// /metrics. The collectors read from the given database handle on every
// scrape. The caller owns the returned server and should Shutdown it.
func CreateMetricsServer(db *sql.DB, addr string) (*http.Server, error) {
	sqlCollectors, err := collectors.DefaultSqlRegistry.CreateSqlCollectors(db)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	for _, collector := range sqlCollectors {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		slog.Info("Metrics server listening", "address", addr)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server terminated", "error", err)
		}
	}()

	return server, nil
}
