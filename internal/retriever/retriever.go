// Package retriever orchestrates the indexing and retrieval pipeline:
// discover files, chunk them, embed the chunks, persist vectors, and answer
// queries with reranked context blocks.
package retriever

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"semdex/internal/chunker"
	"semdex/internal/embedder"
	"semdex/internal/parser"
	"semdex/internal/rerank"
	"semdex/internal/state"
	"semdex/internal/store"
	"semdex/pkg/types"
)

const (
	// DefaultBatchSize is how many chunks one embedding call carries.
	DefaultBatchSize = 20

	// DefaultWorkers is how many embedding batches run concurrently.
	DefaultWorkers = 4

	// DefaultCandidatePool is how many nearest neighbors feed the reranker.
	DefaultCandidatePool = 20

	// DefaultLimit is how many context blocks a query returns.
	DefaultLimit = 5
)

// markdownExtensions lists documentation files indexed whole, alongside the
// source extensions the chunker understands structurally.
var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// skippedDirs are directory names never descended into during discovery.
var skippedDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
}

// VersionControl reports the current revision and the files changed since a
// previous one. The git client implements it; a nil value makes indexing
// fall back to content-marker comparison.
type VersionControl interface {
	Head(ctx context.Context) (string, error)
	ChangedSince(ctx context.Context, rev string) ([]string, error)
}

// Config assembles an Engine from its collaborators. Zero tuning fields
// take the package defaults.
type Config struct {
	Root          string
	BatchSize     int
	Workers       int
	CandidatePool int
	DefaultLimit  int

	Chunker  *chunker.Chunker
	Embedder embedder.Embedder
	Store    *store.Store
	Reranker *rerank.Reranker
	Tracker  *state.Tracker
	VCS      VersionControl
}

// Engine runs indexing passes over a project tree and serves context
// queries against the resulting index.
type Engine struct {
	root          string
	batchSize     int
	workers       int
	candidatePool int
	defaultLimit  int

	chunker  *chunker.Chunker
	embedder embedder.Embedder
	store    *store.Store
	reranker *rerank.Reranker
	tracker  *state.Tracker
	vcs      VersionControl
}

// New creates an Engine from cfg.
func New(cfg Config) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.CandidatePool <= 0 {
		cfg.CandidatePool = DefaultCandidatePool
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	return &Engine{
		root:          cfg.Root,
		batchSize:     cfg.BatchSize,
		workers:       cfg.Workers,
		candidatePool: cfg.CandidatePool,
		defaultLimit:  cfg.DefaultLimit,
		chunker:       cfg.Chunker,
		embedder:      cfg.Embedder,
		store:         cfg.Store,
		reranker:      cfg.Reranker,
		tracker:       cfg.Tracker,
		vcs:           cfg.VCS,
	}
}

// IndexSummary reports what an indexing run did.
type IndexSummary struct {
	FilesProcessed int
	FilesRemoved   int
	ChunksAdded    int
	ChunksRemoved  int
	BatchesFailed  int
	NoOp           bool
}

// IndexProject brings the index up to date with the project tree. Files
// unchanged since the last run are left alone; changed files have their old
// chunks deleted before the new ones are inserted, so a crash mid-run can
// leave a file missing from the index but never duplicated in it. The
// bookkeeping is saved only after all store writes succeed.
func (e *Engine) IndexProject(ctx context.Context) (IndexSummary, error) {
	if err := e.tracker.Load(); err != nil {
		return IndexSummary{}, err
	}

	head := ""
	if e.vcs != nil {
		if rev, err := e.vcs.Head(ctx); err == nil {
			head = rev
		} else {
			log.Printf("index: revision unavailable: %v", err)
		}
	}

	contents, markers, err := e.discoverFiles()
	if err != nil {
		return IndexSummary{}, err
	}

	diff := e.tracker.Diff(ctx, head, markers, e.vcs)
	if diff.NoOp {
		return IndexSummary{NoOp: true}, nil
	}

	summary := IndexSummary{
		FilesProcessed: len(diff.Changed),
		FilesRemoved:   len(diff.Removed),
	}

	// Old chunks go first. Deleting before inserting means a failure can
	// only under-populate the index, never duplicate entries in it.
	staleIDs := make([]string, 0)
	for _, path := range diff.Removed {
		staleIDs = append(staleIDs, e.tracker.ChunkIDs(path)...)
	}
	for _, path := range diff.Changed {
		staleIDs = append(staleIDs, e.tracker.ChunkIDs(path)...)
	}
	if err := e.store.Delete(ctx, staleIDs); err != nil {
		return summary, fmt.Errorf("failed to delete stale chunks: %w", err)
	}
	summary.ChunksRemoved = len(staleIDs)
	for _, path := range diff.Removed {
		e.tracker.ForgetFile(path)
	}

	chunks := make([]types.Chunk, 0)
	for _, path := range diff.Changed {
		chunks = append(chunks, e.chunker.ChunkFile(path, contents[path])...)
	}

	embedded, failedFiles, failedBatches := e.embedChunks(ctx, chunks)
	summary.BatchesFailed = failedBatches

	ids, err := e.store.Add(ctx, embedded)
	if err != nil {
		return summary, fmt.Errorf("failed to store chunks: %w", err)
	}
	summary.ChunksAdded = len(ids)

	idsByFile := make(map[string][]string)
	for i := range embedded {
		idsByFile[embedded[i].FilePath] = append(idsByFile[embedded[i].FilePath], ids[i])
	}

	for _, path := range diff.Changed {
		if failedFiles[path] {
			// The old chunks are gone and the new ones never made it in.
			// Forgetting the file forces a retry on the next run.
			e.tracker.ForgetFile(path)
			continue
		}
		e.tracker.RecordFile(path, markers[path], idsByFile[path])
	}

	e.tracker.SetRevision(head)
	if err := e.tracker.Save(); err != nil {
		return summary, fmt.Errorf("failed to save index state: %w", err)
	}
	return summary, nil
}

// RetrieveContext answers a query with up to limit context blocks drawn from
// the index, most relevant first. A limit of zero or less selects the
// default. An empty index, an unanswerable query, or an embedding failure
// yields an empty string: retrieval degrades, it does not abort.
func (e *Engine) RetrieveContext(ctx context.Context, query string, limit int) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", nil
	}
	if limit <= 0 {
		limit = e.defaultLimit
	}

	vectors, err := e.embedder.EmbedBatch(ctx, []string{query})
	if err != nil || len(vectors) != 1 {
		log.Printf("retrieve: query embedding failed, returning no context: %v", err)
		return "", nil
	}

	candidates := e.store.Search(ctx, vectors[0], e.candidatePool)
	if len(candidates) == 0 {
		return "", nil
	}

	docs := make([]string, len(candidates))
	for i := range candidates {
		docs[i] = candidates[i].Content
	}
	indices := e.reranker.Rerank(ctx, query, docs, limit)

	var b strings.Builder
	for i, idx := range indices {
		if i > 0 {
			b.WriteString("\n")
		}
		c := candidates[idx]
		fmt.Fprintf(&b, "--- %s:%d-%d (%s) ---\n%s\n", c.FilePath, c.StartLine, c.EndLine, c.Label, c.Content)
	}
	return b.String(), nil
}

// Status describes the current index for reporting.
type Status struct {
	TrackedFiles int
	ChunkCount   int
	Revision     string
}

// Status loads the bookkeeping and counts the stored chunks.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	if err := e.tracker.Load(); err != nil {
		return Status{}, err
	}
	count, err := e.store.Count(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		TrackedFiles: len(e.tracker.TrackedFiles()),
		ChunkCount:   count,
		Revision:     e.tracker.Revision(),
	}, nil
}

// discoverFiles walks the project tree and returns the content and content
// marker of every indexable file, keyed by root-relative path. Hidden
// directories and common build output directories are skipped.
func (e *Engine) discoverFiles() (map[string]string, map[string]string, error) {
	contents := make(map[string]string)
	markers := make(map[string]string)

	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path == e.root {
				return nil
			}
			if skippedDirs[name] || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		if !parser.IsSourceFile(path) && !markdownExtensions[ext] {
			return nil
		}

		rel, err := filepath.Rel(e.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("index: skipping unreadable file %s: %v", rel, err)
			return nil
		}
		contents[rel] = string(data)
		markers[rel] = embedder.ComputeHash(string(data))
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk project tree: %w", err)
	}
	return contents, markers, nil
}

// embedChunks embeds chunks in fixed-size batches with bounded concurrency.
// A failed batch drops its chunks and marks their files; it never fails the
// run. The returned slice holds only successfully embedded chunks, in their
// original order.
func (e *Engine) embedChunks(ctx context.Context, chunks []types.Chunk) ([]types.Chunk, map[string]bool, int) {
	if len(chunks) == 0 {
		return []types.Chunk{}, map[string]bool{}, 0
	}

	vectors := make([][]float32, len(chunks))
	var mu sync.Mutex
	failedFiles := make(map[string]bool)
	failedBatches := 0

	var g errgroup.Group
	g.SetLimit(e.workers)

	for start := 0; start < len(chunks); start += e.batchSize {
		end := start + e.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		start, end := start, end

		g.Go(func() error {
			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = chunks[i].Content
			}
			batch, err := e.embedder.EmbedBatch(ctx, texts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil || len(batch) != len(texts) {
				failedBatches++
				for i := start; i < end; i++ {
					failedFiles[chunks[i].FilePath] = true
				}
				log.Printf("index: embedding batch failed, %d chunks dropped: %v", end-start, err)
				return nil
			}
			for i, v := range batch {
				vectors[start+i] = v
			}
			return nil
		})
	}
	_ = g.Wait()

	embedded := make([]types.Chunk, 0, len(chunks))
	for i := range chunks {
		if vectors[i] == nil || failedFiles[chunks[i].FilePath] {
			continue
		}
		c := chunks[i]
		c.Vector = vectors[i]
		embedded = append(embedded, c)
	}
	sortByFile(embedded)
	return embedded, failedFiles, failedBatches
}

// sortByFile keeps chunks grouped by file and in line order within a file,
// so inserted ids map back to files deterministically.
func sortByFile(chunks []types.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].FilePath != chunks[j].FilePath {
			return chunks[i].FilePath < chunks[j].FilePath
		}
		return chunks[i].StartLine < chunks[j].StartLine
	})
}
