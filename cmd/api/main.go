package main

import (
	"context"
	"crypto/rsa"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ETAnderson/skubridge/internal/api/auth"
	"github.com/ETAnderson/skubridge/internal/api/handlers"
	"github.com/ETAnderson/skubridge/internal/api/middleware"
	"github.com/ETAnderson/skubridge/internal/config"
	"github.com/ETAnderson/skubridge/internal/logging"
	"github.com/ETAnderson/skubridge/internal/metrics"
	"github.com/ETAnderson/skubridge/internal/migrate"
	"github.com/ETAnderson/skubridge/internal/state"
	"github.com/ETAnderson/skubridge/internal/sync"
	"github.com/ETAnderson/skubridge/internal/woo"
)

const syncScope = "sync:write"

func main() {
	cfg := config.Load()
	logger := logging.NewStdLogger("api-service ")

	logger.Printf("ENV=%q STATE_BACKEND=%q sites=%v primary=%s",
		cfg.Env, cfg.StateBackend, cfg.SiteCodes(), cfg.PrimarySite)

	factoryRes, err := state.NewStore(context.Background(), state.FactoryConfig{
		Backend:  cfg.StateBackend,
		MySQLDSN: cfg.MySQLDSN,
	})
	if err != nil {
		logger.Printf("state store init failed: %v", err)
		os.Exit(1)
	}

	if factoryRes.DB != nil && cfg.RunMigrations {
		if err := migrate.Apply(context.Background(), factoryRes.DB); err != nil {
			logger.Printf("migrations failed: %v", err)
			os.Exit(1)
		}
	}

	store := factoryRes.Store

	sources := make(map[string]sync.CatalogSource, len(cfg.Sites))
	for _, site := range cfg.Sites {
		if site.URL == "" {
			logger.Printf("site %s has no URL configured, skipping", site.Code)
			continue
		}
		sources[site.Code] = woo.NewClient(woo.Config{
			Site:     site.Code,
			BaseURL:  site.URL,
			Key:      site.Key,
			Secret:   site.Secret,
			PageSize: cfg.PageSize,
		}, logger)
	}

	reporter := sync.StoreReporter{Store: store, Logger: logger}
	engine := &sync.Engine{
		Store:         store,
		Sources:       sources,
		Primary:       cfg.PrimarySite,
		Workers:       cfg.Workers,
		BatchSize:     cfg.BatchSize,
		ProgressEvery: cfg.ProgressEvery,
		Reporter:      reporter,
		Cancel:        reporter,
		Logger:        logger,
	}

	var publicKey *rsa.PublicKey
	if key, err := auth.LoadRSAPublicKeyFromEnv("JWT_PUBLIC_KEY_PEM"); err != nil {
		if cfg.Env != "dev" {
			logger.Printf("load public key failed: %v", err)
			os.Exit(1)
		}
		logger.Printf("no JWT public key configured, dev requests pass unauthenticated")
	} else {
		publicKey = key
	}

	guard := func(next http.Handler) http.Handler {
		return middleware.AuthMiddleware{
			Env:       cfg.Env,
			PublicKey: publicKey,
			Scope:     syncScope,
			Next:      next,
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/v1/sync", guard(handlers.SyncHandler{
		Runner:       engine,
		DefaultSites: cfg.SiteCodes(),
		DefaultSite:  cfg.PrimarySite,
	}))
	mux.Handle("/v1/sync/cancel", guard(handlers.CancelHandler{Store: store}))
	mux.Handle("/v1/sync/progress", handlers.ProgressHandler{Store: store})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Printf("starting (env=%s) on %s", cfg.Env, server.Addr)

		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Printf("server error: %v", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(logger, server)
}

func waitForShutdown(logger interface{ Printf(string, ...any) }, server *http.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Printf("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = server.Shutdown(ctx)
	logger.Printf("shutdown complete")
}
