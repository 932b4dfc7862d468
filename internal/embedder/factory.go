package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted by NewFromEnv.
const (
	EnvProvider     = "SEMDEX_EMBEDDING_PROVIDER"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvJinaAPIKey   = "JINA_API_KEY"
)

// Config holds embedder configuration.
type Config struct {
	Provider  string
	APIKey    string
	CacheSize int
}

// New creates an embedder with explicit configuration. The provider choice
// is resolved once here; nothing downstream consults the environment.
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderJina:
		return NewJinaProvider(cfg.APIKey, cache)
	case ProviderLocal, "":
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// NewFromEnv creates an embedder based on environment variables.
// Priority: explicit SEMDEX_EMBEDDING_PROVIDER, then whichever API key is
// present, then the offline local provider.
func NewFromEnv() (Embedder, error) {
	provider := os.Getenv(EnvProvider)
	openaiKey := os.Getenv(EnvOpenAIAPIKey)
	jinaKey := os.Getenv(EnvJinaAPIKey)

	if provider != "" {
		key := openaiKey
		if strings.EqualFold(provider, ProviderJina) {
			key = jinaKey
		}
		return New(Config{Provider: provider, APIKey: key})
	}

	if openaiKey != "" {
		return New(Config{Provider: ProviderOpenAI, APIKey: openaiKey})
	}
	if jinaKey != "" {
		return New(Config{Provider: ProviderJina, APIKey: jinaKey})
	}
	return New(Config{Provider: ProviderLocal})
}
