package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/seobundles/internal/bundle"
	"github.com/yanizio/seobundles/internal/bundle/store"
	"github.com/yanizio/seobundles/internal/cache"
	"github.com/yanizio/seobundles/internal/config"
	"github.com/yanizio/seobundles/internal/content"
	"github.com/yanizio/seobundles/internal/database"
	"github.com/yanizio/seobundles/internal/defaults"
	"github.com/yanizio/seobundles/internal/logger"
	"github.com/yanizio/seobundles/internal/site"
	"github.com/yanizio/seobundles/internal/vault"
)

const (
	metaCacheSize    = 4096
	sitemapCacheSize = 512
)

// app is everything a subcommand needs, built once per process.
type app struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	db       *sqlx.DB
	sites    *site.Directory
	defaults *defaults.Loader
	deps     bundle.Deps
}

// bootstrap loads config, starts the logger, opens the pool, and wires the
// bundle collaborators.  ctx bounds the Vault renewal loop and the
// connect retries.
func bootstrap(ctx context.Context, levelOverride string) (*app, error) {
	var secrets config.SecretReader
	if config.NeedsVault() {
		cli, err := vault.New(ctx, zap.S())
		if err != nil {
			return nil, fmt.Errorf("vault: %w", err)
		}
		secrets = cli
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	level := cfg.Log.Level
	if levelOverride != "" {
		level = levelOverride
	}
	log, err := logger.New(cfg.Paths.Root, level, cfg.Log.Tee)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	db, err := database.OpenWithOptions(ctx, cfg.DSN(), database.Options{
		MaxOpen:      cfg.Database.MaxOpen,
		MaxIdle:      cfg.Database.MaxIdle,
		ConnectTries: cfg.Database.ConnectTries,
		ConnectDelay: cfg.Database.ConnectDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.Infow("database online")

	sites := site.NewDirectory(db)
	defs := defaults.New(cfg.Defaults.Dir)

	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		sites:    sites,
		defaults: defs,
		deps: bundle.Deps{
			Content:   content.NewLookup(db, sites),
			Query:     content.NewQuery(db),
			Languages: sites,
			Defaults:  defs,
			Store:     store.New(db),
			Meta:      cache.NewMeta(metaCacheSize),
			Sitemaps:  cache.NewSitemaps(sitemapCacheSize),
			Log:       log,
			Flights:   new(singleflight.Group),
		},
	}
	return a, nil
}

// reload drops the cached site list and built-in defaults.
func (a *app) reload() {
	a.sites.Reset()
	a.defaults.Reset()
	a.log.Infow("site and defaults caches reset")
}

func (a *app) close() {
	_ = a.log.Sync()
	_ = a.db.Close()
}
