package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/config"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/extract"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/logging"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/schema"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/staging"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/store"
)

// commandContext lazily wires the pieces a subcommand needs. Nothing is
// constructed until a command asks for it, so `portal schemas` never opens
// a database connection and `portal ingest` without auto-confirm never
// touches Postgres.
type commandContext struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	recStore  store.Store
	catalog   *schema.Catalog
	artifacts *staging.ArtifactStore
	assembler *staging.Assembler
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) ensureCatalog() (*schema.Catalog, error) {
	if c.catalog != nil {
		return c.catalog, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	cat, err := schema.Load(cfg.Paths.SchemaDir)
	if err != nil {
		return nil, err
	}
	c.catalog = cat
	return cat, nil
}

func (c *commandContext) ensureArtifacts() (*staging.ArtifactStore, error) {
	if c.artifacts != nil {
		return c.artifacts, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	arts, err := staging.NewArtifactStore(cfg.Paths.StagingDir)
	if err != nil {
		return nil, err
	}
	c.artifacts = arts
	return arts, nil
}

func (c *commandContext) ensureAssembler() (*staging.Assembler, error) {
	if c.assembler != nil {
		return c.assembler, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	cat, err := c.ensureCatalog()
	if err != nil {
		return nil, err
	}
	blobs, err := staging.NewFSBlobStore(cfg.Paths.UploadsDir)
	if err != nil {
		return nil, err
	}
	c.assembler = staging.NewAssembler(blobs, extract.NewIngestor(cat))
	return c.assembler, nil
}

// ensureStore connects to Postgres and verifies the connection.
func (c *commandContext) ensureStore(ctx context.Context) (store.Store, error) {
	if c.recStore != nil {
		return c.recStore, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	c.pool = pool
	c.recStore = store.NewPostgres(pool)
	return c.recStore, nil
}

func (c *commandContext) close() {
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
		c.recStore = nil
	}
}
