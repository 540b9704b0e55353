package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/danmaps/GridScaper/internal/logging"
	"github.com/danmaps/GridScaper/internal/observability"
	"github.com/danmaps/GridScaper/internal/server"
	"github.com/danmaps/GridScaper/internal/store"
)

func main() {
	addr := flag.String("addr", ":8080", "TCP address the HTTP API listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	dbPath := flag.String("db", "data/scenes.db", "Path to the SQLite scene database")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	collector, err := observability.NewEngineCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		log.Error(ctx, "failed to open scene store", logging.String("path", *dbPath), logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer st.Close()

	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	app := server.New(server.Config{
		Logger:    log,
		Collector: collector,
		Store:     st,
	}).App()

	log.Info(ctx, "starting scene server", logging.String("addr", *addr), logging.String("db", *dbPath))
	go func() {
		if err := app.Listen(*addr); err != nil {
			log.Error(ctx, "http server exited", logging.String("error", err.Error()))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down scene server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
}

func serveMetrics(addr string, collector *observability.EngineCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
