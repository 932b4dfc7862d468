package retriever

import (
	"fmt"

	"semdex/internal/chunker"
	"semdex/internal/config"
	"semdex/internal/embedder"
	"semdex/internal/gitdiff"
	"semdex/internal/rerank"
	"semdex/internal/state"
	"semdex/internal/store"
)

// Open assembles an Engine for a project root from its on-disk
// configuration. The returned store must be closed by the caller.
func Open(root string) (*Engine, *store.Store, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}

	emb, err := embedder.New(embedder.Config{
		Provider:  cfg.Embedding.Provider,
		APIKey:    cfg.Embedding.APIKey,
		CacheSize: cfg.Embedding.CacheSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	st := store.New(cfg.DBPath())

	engine := New(Config{
		Root:      root,
		BatchSize: cfg.Index.BatchSize,
		Workers:   cfg.Index.Workers,
		Chunker:   chunker.NewWithThreshold(cfg.Chunker.ClassSplitLines),
		Embedder:  emb,
		Store:     st,
		Reranker:  rerank.New(cfg.Rerank.APIKey, cfg.Rerank.Model),
		Tracker:   state.NewTracker(cfg.StatePath()),
		VCS:       gitdiff.New(root),
	})
	return engine, st, nil
}
