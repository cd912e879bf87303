// Command streamapi runs the per-network ingestion supervisor and the HTTP
// request surface over its shared state and cache.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"dexstream/core"
	"dexstream/httpapi"
	"dexstream/ingest"
	"dexstream/ingest/tychoclient"
	"dexstream/pkg/cache"
	"dexstream/pkg/config"
)

const serviceVersion = "0.1.0"

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	networks, err := core.LoadNetworks(cfg.Networks)
	if err != nil {
		log.WithError(err).Fatal("failed to resolve enabled networks")
	}
	if len(networks) == 0 {
		log.Fatal("no networks enabled; set NETWORKS")
	}

	store, err := cache.Dial(cfg.RedisHost, log.StandardLogger())
	if err != nil {
		log.WithError(err).Fatal("failed to construct cache client")
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.CachePingTimeoutSeconds)*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		log.WithError(err).Fatal("cache is not reachable")
	}
	cancel()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	restartDelay := ingest.ProductionRestartDelay
	if cfg.Testing {
		restartDelay = ingest.TestingRestartDelay
	}

	upstreamClient := tychoclient.New(cfg.TychoAPIKey, nil)

	netContexts := make([]*httpapi.NetworkContext, 0, len(networks))
	for _, n := range networks {
		state := core.NewSharedState()
		cache.Set(ctx, store, cache.Keys.Status(n.Name), core.StatusLaunching)
		cache.Set(ctx, store, cache.Keys.Latest(n.Name), uint64(0))

		nc := &httpapi.NetworkContext{Network: n, State: state, Cache: store}
		netContexts = append(netContexts, nc)

		w := &ingest.Worker{
			Network: n,
			Builder: upstreamClient,
			Tokens:  upstreamClient.ForNetwork(n.UpstreamEndpoint),
			Cache:   store,
			State:   state,
			Logger:  log.WithField("network", n.Name),
		}

		// Token enumeration runs once, up front: a failure here permanently
		// skips the network for this process's lifetime rather than being
		// retried by the supervisor, which only restarts the streaming loop.
		if err := w.FetchTokens(ctx); err != nil {
			w.Logger.WithError(err).Error("token fetch failed, network will not be started")
			cache.Set(ctx, store, cache.Keys.Status(n.Name), core.StatusError)
			continue
		}

		go ingest.Supervise(ctx, w, restartDelay)
	}

	server := httpapi.NewServer(":"+cfg.APIPort, httpapi.Config{
		Origin:    cfg.Origin,
		Testing:   cfg.Testing,
		WebAPIKey: cfg.WebAPIKey,
		Version:   serviceVersion,
	}, netContexts, nil, log.WithField("component", "http"))

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http surface stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
