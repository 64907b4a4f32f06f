// Command activity-stream runs the activity-stream ingestion and search
// service: one process that, if it wins the leader lease, ingests every
// configured feed and samples backend metrics, and always serves the
// authenticated read façade regardless of leadership.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/uktrade/activity-stream/internal/config"
	"github.com/uktrade/activity-stream/internal/errreport"
	"github.com/uktrade/activity-stream/internal/esgateway"
	"github.com/uktrade/activity-stream/internal/feeds"
	"github.com/uktrade/activity-stream/internal/httpclient"
	"github.com/uktrade/activity-stream/internal/ingest"
	"github.com/uktrade/activity-stream/internal/kv"
	"github.com/uktrade/activity-stream/internal/lock"
	"github.com/uktrade/activity-stream/internal/metricsampler"
	"github.com/uktrade/activity-stream/internal/obslog"
	"github.com/uktrade/activity-stream/internal/readapi"
	"github.com/uktrade/activity-stream/internal/supervisor"
)

func main() {
	cfg, err := config.LoadFromOS()
	if err != nil {
		fmt.Fprintf(os.Stderr, "activity-stream: config: %v\n", err)
		os.Exit(1)
	}

	logger, err := obslog.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "activity-stream: logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	reporter, err := errreport.New(cfg.SentryDSN, cfg.SentryEnvironment)
	if err != nil {
		logger.Fatal("error reporter init failed", zap.Error(err))
	}
	defer reporter.Close(2 * time.Second)

	kvClient, err := kv.New(cfg.RedisURI)
	if err != nil {
		logger.Fatal("kv client init failed", zap.Error(err))
	}
	defer kvClient.Close()

	gateway, err := esgateway.New(cfg.Elasticsearch)
	if err != nil {
		logger.Fatal("elasticsearch gateway init failed", zap.Error(err))
	}

	httpClient := httpclient.New(30 * time.Second)
	registry := feeds.NewRegistry()
	metrics := metricsampler.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())

	readServer := readapi.New(
		fmt.Sprintf(":%d", cfg.Port),
		gateway,
		kvClient,
		cfg.IncomingAccessKeyPairs,
		cfg.IncomingIPWhitelist,
		logger,
	)

	go func() {
		logger.Info("starting read façade", zap.Int("port", cfg.Port))
		if err := readServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("read façade stopped unexpectedly", zap.Error(err))
		}
	}()

	holderID, err := os.Hostname()
	if err != nil || holderID == "" {
		holderID = "activity-stream"
	}

	go runLeaderOnlyWork(ctx, logger, reporter, kvClient, gateway, httpClient, registry, metrics, cfg, holderID)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := readServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("read façade shutdown error", zap.Error(err))
	}
	cancel()
	time.Sleep(250 * time.Millisecond)
}

// runLeaderOnlyWork blocks acquiring the leader lease, then runs the
// ingestion engine and metrics sampler for as long as this process holds it.
// Only the leader does either; every process still serves the read façade.
func runLeaderOnlyWork(
	ctx context.Context,
	logger *zap.Logger,
	reporter *errreport.Client,
	kvClient *kv.Client,
	gateway *esgateway.Gateway,
	httpClient *httpclient.Client,
	registry *feeds.Registry,
	metrics *metricsampler.Registry,
	cfg *config.Config,
	holderID string,
) {
	_, err := lock.AcquireAndKeep(ctx, logger, kvClient, cfg.LockKey, holderID, cfg.LockTTL, cfg.LockRenewalInterval, nil)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error("failed to acquire leader lease", zap.Error(err))
		return
	}
	logger.Info("acquired leader lease", zap.String("holder", holderID))

	engine := ingest.New(gateway, kvClient, httpClient, registry, metrics, logger, reporter)

	sampler := metricsampler.New(gateway, kvClient, cfg.Feeds, metrics, logger)
	go sampler.Run(ctx, reporter)

	if err := engine.Start(ctx, cfg.Feeds); err != nil && ctx.Err() == nil {
		logger.Error("ingestion engine stopped unexpectedly", zap.Error(err))
	}
}
