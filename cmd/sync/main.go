package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ETAnderson/skubridge/internal/config"
	"github.com/ETAnderson/skubridge/internal/logging"
	"github.com/ETAnderson/skubridge/internal/migrate"
	"github.com/ETAnderson/skubridge/internal/state"
	"github.com/ETAnderson/skubridge/internal/sync"
	"github.com/ETAnderson/skubridge/internal/woo"
)

func main() {
	var site = flag.String("site", "", "sync a single site; empty syncs every configured site")
	flag.Parse()

	cfg := config.Load()
	logger := logging.NewStdLogger("sync-cli ")

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
	for _, s := range cfg.Sites {
		if s.URL == "" {
			logger.Printf("site %s has no URL configured, skipping", s.Code)
			continue
		}
		sources[s.Code] = woo.NewClient(woo.Config{
			Site:     s.Code,
			BaseURL:  s.URL,
			Key:      s.Key,
			Secret:   s.Secret,
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

	// Ctrl-C requests cooperative cancellation; in-flight work finishes.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var out any
	if *site != "" {
		report, err := engine.SyncSite(ctx, *site)
		if err != nil {
			logger.Printf("sync failed: %v", err)
		}
		out = report
	} else {
		report, err := engine.SyncAll(ctx, cfg.SiteCodes())
		if err != nil {
			logger.Printf("sync failed: %v", err)
		}
		out = report
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
