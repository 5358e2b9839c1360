package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tracenet/core-go/internal/config"
	"tracenet/core-go/internal/db"
	"tracenet/core-go/internal/enrichment/snmp"
	"tracenet/core-go/internal/feed"
	"tracenet/core-go/internal/httpapi"
	"tracenet/core-go/internal/metrics"
	"tracenet/core-go/internal/resolve"
	"tracenet/core-go/internal/trace"
	"tracenet/core-go/internal/view"
)

func main() {
	cfg, cfgPath, err := config.Load()
	if err != nil {
		// Logger is not up yet; fall back to stderr.
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}

	addr := envOr("HTTP_ADDR", cfg.HTTPAddr)
	logLevel := envOr("LOG_LEVEL", cfg.LogLevel)
	databaseURL := envOr("DATABASE_URL", cfg.DatabaseURL)
	traceURL := envOr("TRACE_SERVICE_URL", cfg.Trace.ServiceURL)

	logger := httpapi.NewLogger(logLevel)
	if cfgPath != "" {
		logger.Info().Str("path", cfgPath).Msg("config loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var pool *db.Pool
	if databaseURL != "" {
		p, err := db.Open(ctx, databaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer p.Close()
		pool = p
	}

	var queries feed.Queries
	var devStore httpapi.DeviceStore
	if pool != nil {
		q := pool.Queries()
		queries = q
		devStore = q
	}
	feedWorker := feed.New(logger, queries, feed.Options{
		PollInterval: cfg.Feed.PollInterval.Duration(),
		QueryTimeout: cfg.Feed.QueryTimeout.Duration(),
	}, m)
	if pool != nil {
		go feedWorker.Run(ctx)
	}

	var tracer trace.Tracer
	if traceURL != "" {
		tracer = trace.NewClient(traceURL, cfg.Trace.Timeout.Duration())
	} else {
		logger.Warn().Msg("no trace service configured; trace requests will fail")
		tracer = unavailableTracer{}
	}

	var resolver trace.HostResolver
	if r, err := resolve.NewDNS(cfg.DNS.Server, cfg.DNS.Timeout.Duration()); err != nil {
		logger.Warn().Err(err).Msg("dns resolver unavailable; hostname search disabled")
	} else {
		resolver = r
	}

	orch := trace.New(logger, tracer, resolver, m)
	engine := view.NewEngine(m)

	var snmpClient *snmp.Client
	if cfg.SNMP.Enabled {
		snmpClient = snmp.NewClient(snmp.Config{
			Community: cfg.SNMP.Community,
			Port:      cfg.SNMP.Port,
			Timeout:   cfg.SNMP.Timeout.Duration(),
			Retries:   cfg.SNMP.Retries,
		})
	}

	h := httpapi.NewHandler(logger, pool, devStore, feedWorker, engine, orch, snmpClient, m)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("tracenet core listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}

type unavailableTracer struct{}

func (unavailableTracer) Trace(ctx context.Context, deviceID int64) (trace.Result, error) {
	return trace.Result{}, errors.New("trace service not configured")
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
