package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"resumerag/config"
	"resumerag/internal/adapter/cache"
	"resumerag/internal/adapter/chunker"
	"resumerag/internal/adapter/embedding"
	"resumerag/internal/adapter/llm"
	"resumerag/internal/adapter/memstore"
	"resumerag/internal/adapter/retriever"
	"resumerag/internal/adapter/store"
	"resumerag/internal/port"
	"resumerag/internal/usecase"
)

// app is the wired service plus whatever has to be closed afterwards.
type app struct {
	service *usecase.Service
	closer  io.Closer
	path    string
}

func (a *app) Close() error {
	return a.closer.Close()
}

// openApp opens the configured collection and wires the service. An
// ephemeral app keeps everything in memory and never touches disk.
func openApp(ctx context.Context, ephemeral bool) (*app, error) {
	cfg := GetConfig()

	emb, err := embedding.NewHashingEmbedder(cfg.Embedding.Dimension)
	if err != nil {
		return nil, err
	}

	var (
		st     port.DocumentStore
		closer io.Closer
		path   = "(memory)"
	)
	if ephemeral {
		ms := memstore.NewMemoryStore(emb.Dimension())
		st, closer = ms, ms
	} else {
		bs, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		st, closer, path = bs, bs, bs.Path()
	}

	gen, err := llm.New(cfg.Generation)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to configure generation backend: %w", err)
	}
	if gen == nil {
		logger.Info("generation backend disabled, answers will list evidence only")
	}

	var retr port.Retriever = retriever.NewSemanticRetriever(st, emb)
	if cfg.Retrieve.CacheSize > 0 {
		retr = cache.NewCachedRetriever(retr, cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL))
	}

	svc := usecase.NewService(usecase.Deps{
		Chunker:   chunker.NewSectionChunker(cfg.Chunking.MaxChars, cfg.Chunking.OverlapChars),
		Embedder:  emb,
		Store:     st,
		Retriever: retr,
		Generator: gen,
		Logger:    logger,
	}, usecase.Options{
		TopK:              cfg.Retrieve.TopK,
		MinRelevanceScore: cfg.Retrieve.MinRelevanceScore,
		GenerationTimeout: cfg.Generation.Timeout,
	})

	return &app{service: svc, closer: closer, path: path}, nil
}

// openStore opens the bolt collection, clearing it when it was built with
// different chunking or embedding settings.
func openStore(ctx context.Context, cfg *config.Config) (*store.BoltStore, error) {
	if !filepath.IsAbs(cfg.Store.PersistDir) {
		cfg.Store.PersistDir = filepath.Join(GetRootDir(), cfg.Store.PersistDir)
	}
	if err := cfg.EnsureStoreDir(); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	st, err := store.NewBoltStore(cfg.StorePath(), cfg.Embedding.Dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	migration, err := st.CheckMigration(cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to check migration: %w", err)
	}
	if migration.NeedsRebuild {
		logger.Warn("collection rebuild required, clearing records", "reason", migration.Reason)
		if err := st.Reset(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to clear collection: %w", err)
		}
	} else if migration.NeedsMigration {
		logger.Info("running schema migration", "reason", migration.Reason)
	}

	if err := st.Migrate(cfg); err != nil {
		st.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return st, nil
}
