package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	r := New("", "")
	assert.False(t, r.Enabled())

	r = New("key", "")
	assert.True(t, r.Enabled())
}

func TestRerank_EmptyInput(t *testing.T) {
	r := New("", "")
	assert.Empty(t, r.Rerank(context.Background(), "query", nil, 5))
	assert.Empty(t, r.Rerank(context.Background(), "query", []string{"doc"}, 0))
}

func TestRerank_FullQueryMatchWinsOverTerms(t *testing.T) {
	r := New("", "")
	docs := []string{
		"parse configuration flags and options",
		"the parse configuration step reads the file",
	}

	indices := r.Rerank(context.Background(), "parse configuration step", docs, 2)
	require.Len(t, indices, 2)
	// The second document contains the whole query verbatim.
	assert.Equal(t, 1, indices[0])
	assert.Equal(t, 0, indices[1])
}

func TestRerank_DistinctTermScoring(t *testing.T) {
	r := New("", "")
	docs := []string{
		"nothing relevant here",
		"vector index storage",
		"vector storage only",
	}

	indices := r.Rerank(context.Background(), "vector index storage", docs, 3)
	require.Len(t, indices, 3)
	assert.Equal(t, 1, indices[0])
	assert.Equal(t, 2, indices[1])
	assert.Equal(t, 0, indices[2])
}

func TestRerank_ShortTermsIgnored(t *testing.T) {
	r := New("", "")
	docs := []string{
		"at in an",
		"if only it worked",
	}

	// No document contains the full query and every term is too short to
	// score, so input order is kept.
	indices := r.Rerank(context.Background(), "an if", docs, 2)
	require.Len(t, indices, 2)
	assert.Equal(t, []int{0, 1}, indices)
}

func TestRerank_TiesKeepInputOrder(t *testing.T) {
	r := New("", "")
	docs := []string{
		"storage layer alpha",
		"storage layer beta",
		"storage layer gamma",
	}

	first := r.Rerank(context.Background(), "storage layer", docs, 3)
	second := r.Rerank(context.Background(), "storage layer", docs, 3)
	assert.Equal(t, []int{0, 1, 2}, first)
	assert.Equal(t, first, second)
}

func TestRerank_TopNClampedToDocCount(t *testing.T) {
	r := New("", "")
	indices := r.Rerank(context.Background(), "anything", []string{"one", "two"}, 10)
	assert.Len(t, indices, 2)
}

func TestRerank_RemoteOrderingUsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))
		var body rerankRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "find the parser", body.Query)

		// Rank the last document first, contradicting the local heuristic.
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"index": 2, "relevance_score": 0.9},
				{"index": 0, "relevance_score": 0.4},
			},
		})
	}))
	defer srv.Close()

	r := New("test-key", "")
	r.endpoint = srv.URL

	docs := []string{"find the parser here", "unrelated", "other text"}
	indices := r.Rerank(context.Background(), "find the parser", docs, 2)
	assert.Equal(t, []int{2, 0}, indices)
}

func TestRerank_RemoteFailureFallsBackToLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "quota exceeded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := New("test-key", "")
	r.endpoint = srv.URL

	docs := []string{
		"nothing relevant here",
		"vector index storage",
		"vector storage only",
	}
	indices := r.Rerank(context.Background(), "vector index storage", docs, 3)

	// The remote scorer errored, so the deterministic local ordering wins.
	local := New("", "").Rerank(context.Background(), "vector index storage", docs, 3)
	assert.Equal(t, local, indices)
	assert.Equal(t, []int{1, 2, 0}, indices)
}

func TestRerank_MalformedRemoteResponseFallsBackToLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"results": [{"index": 99, "relevance_score": 1.0}]}`))
	}))
	defer srv.Close()

	r := New("test-key", "")
	r.endpoint = srv.URL

	docs := []string{"alpha", "beta"}
	indices := r.Rerank(context.Background(), "alpha", docs, 2)
	assert.Equal(t, []int{0, 1}, indices)
}

func TestRerank_CaseInsensitive(t *testing.T) {
	r := New("", "")
	docs := []string{
		"unrelated",
		"The Retrieval ENGINE schedules work",
	}

	indices := r.Rerank(context.Background(), "retrieval engine", docs, 1)
	require.Len(t, indices, 1)
	assert.Equal(t, 1, indices[0])
}
