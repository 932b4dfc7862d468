package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToLocal(t *testing.T) {
	emb, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, emb.Provider())
	assert.Equal(t, LocalDimension, emb.Dimension())
}

func TestNew_OpenAIRequiresKey(t *testing.T) {
	_, err := New(Config{Provider: ProviderOpenAI})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestNew_JinaRequiresKey(t *testing.T) {
	_, err := New(Config{Provider: ProviderJina})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New(Config{Provider: "cohere"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestNew_ProviderNameCaseInsensitive(t *testing.T) {
	emb, err := New(Config{Provider: "OpenAI", APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, emb.Provider())
	assert.Equal(t, OpenAIDimension, emb.Dimension())
}

func TestNewFromEnv_Offline(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvJinaAPIKey, "")

	emb, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, emb.Provider())
}
