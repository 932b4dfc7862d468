// Package embedder generates vector embeddings for chunk content.
//
// Three providers are supported:
//   - openai: text-embedding-3-small, 1536 dimensions
//   - jina: jina-embeddings-v3, 1024 dimensions
//   - local: deterministic hash-derived vectors, 384 dimensions, offline
//
// The provider is chosen once at construction; see New and NewFromEnv.
// Remote calls retry with exponential backoff and every provider shares an
// LRU cache keyed by the SHA-256 of the text, so re-indexing unchanged
// content costs nothing.
//
// # Basic Usage
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	vectors, err := emb.EmbedBatch(ctx, []string{"func main() {}"})
//
// EmbedBatch preserves input order: vectors[i] always corresponds to
// texts[i], even when some entries come from the cache and others from the
// provider.
package embedder
