package embedder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	h1 := ComputeHash("func main() {}")
	h2 := ComputeHash("func main() {}")
	h3 := ComputeHash("func other() {}")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestCache_GetReturnsCopy(t *testing.T) {
	cache := NewCache(10)
	cache.Set("key", []float32{1, 2, 3})

	vec, ok := cache.Get("key")
	require.True(t, ok)
	vec[0] = 99

	again, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, float32(1), again[0])
}

func TestCache_Miss(t *testing.T) {
	cache := NewCache(10)
	_, ok := cache.Get("absent")
	assert.False(t, ok)
}

func TestLocalProvider_Deterministic(t *testing.T) {
	p, err := NewLocalProvider(nil)
	require.NoError(t, err)

	first, err := p.EmbedBatch(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	second, err := p.EmbedBatch(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Len(t, first[0], LocalDimension)
	assert.NotEqual(t, first[0], first[1])
}

func TestLocalProvider_EmptyBatch(t *testing.T) {
	p, err := NewLocalProvider(nil)
	require.NoError(t, err)

	vectors, err := p.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestLocalProvider_UsesCache(t *testing.T) {
	cache := NewCache(10)
	p, err := NewLocalProvider(cache)
	require.NoError(t, err)

	_, err = p.EmbedBatch(context.Background(), []string{"cached text"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	_, ok := cache.Get(ComputeHash("cached text"))
	assert.True(t, ok)
}
