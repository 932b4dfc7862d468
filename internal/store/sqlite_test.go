package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semdex/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "index.db"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testChunk(path string, vec []float32) types.Chunk {
	return types.Chunk{
		FilePath:  path,
		StartLine: 1,
		EndLine:   5,
		Label:     "sample",
		Content:   "Function sample:\nfunc sample() {}",
		Vector:    vec,
	}
}

func TestAddAssignsIDsInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids, err := s.Add(ctx, []types.Chunk{
		testChunk("a.go", []float32{1, 0, 0}),
		testChunk("b.go", []float32{0, 1, 0}),
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAdd_RejectsMissingVector(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add(context.Background(), []types.Chunk{testChunk("a.go", nil)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vector")
}

func TestAdd_EmptyInput(t *testing.T) {
	s := newTestStore(t)

	ids, err := s.Add(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids, err := s.Add(ctx, []types.Chunk{
		testChunk("x.go", []float32{1, 0, 0}),
		testChunk("y.go", []float32{0, 1, 0}),
		testChunk("near.go", []float32{0.9, 0.1, 0}),
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	results := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "x.go", results[0].FilePath)
	assert.Equal(t, "near.go", results[1].FilePath)
	assert.Equal(t, []float32{1, 0, 0}, results[0].Vector)
	assert.Equal(t, ids[0], results[0].ID)
}

func TestSearch_MissingDatabase(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "never-created.db"))

	results := s.Search(context.Background(), []float32{1, 0, 0}, 5)
	assert.Empty(t, results)
}

func TestSearch_SkipsDimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, []types.Chunk{
		testChunk("three.go", []float32{1, 0, 0}),
		testChunk("four.go", []float32{1, 0, 0, 0}),
	})
	require.NoError(t, err)

	results := s.Search(ctx, []float32{1, 0, 0}, 10)
	require.Len(t, results, 1)
	assert.Equal(t, "three.go", results[0].FilePath)
}

func TestSearch_LimitClamped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, []types.Chunk{testChunk("a.go", []float32{1, 0, 0})})
	require.NoError(t, err)

	assert.Len(t, s.Search(ctx, []float32{1, 0, 0}, 10), 1)
	assert.Empty(t, s.Search(ctx, []float32{1, 0, 0}, 0))
}

func TestDelete_RemovesAndIgnoresUnknown(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids, err := s.Add(ctx, []types.Chunk{
		testChunk("a.go", []float32{1, 0, 0}),
		testChunk("b.go", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	err = s.Delete(ctx, []string{ids[0], "no-such-id"})
	require.NoError(t, err)

	remaining, err := s.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ids[1]}, remaining)
}

func TestDelete_ManyIDsCrossBatchBoundary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chunks := make([]types.Chunk, DeleteBatchSize+20)
	for i := range chunks {
		chunks[i] = testChunk(fmt.Sprintf("f%d.go", i), []float32{1, 0, 0})
	}
	ids, err := s.Add(ctx, chunks)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, ids))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestConnect_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Connect(ctx))
}
