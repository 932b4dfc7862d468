// Package rerank reorders retrieval candidates by relevance to the query.
//
// When a Jina reranker API key is configured the candidates are scored
// remotely; otherwise, or whenever the remote call fails or times out, a
// deterministic lexical fallback ranks them locally. Reranking never fails
// the caller.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultModel is the reranker model used when none is configured.
	DefaultModel = "jina-reranker-v2-base-multilingual"

	// APIEndpoint is the Jina rerank API URL.
	APIEndpoint = "https://api.jina.ai/v1/rerank"

	// RemoteTimeout bounds a single remote rerank call. On expiry the
	// local fallback takes over.
	RemoteTimeout = 10 * time.Second
)

// Reranker scores documents against a query and returns them in relevance
// order. The zero value is not usable; construct with New.
type Reranker struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// New creates a Reranker. An empty apiKey disables the remote scorer and the
// local fallback handles every call. An empty model selects DefaultModel.
func New(apiKey, model string) *Reranker {
	if model == "" {
		model = DefaultModel
	}
	return &Reranker{
		apiKey:   apiKey,
		model:    model,
		endpoint: APIEndpoint,
		httpClient: &http.Client{
			Timeout: RemoteTimeout,
		},
	}
}

// Enabled reports whether remote reranking is configured.
func (r *Reranker) Enabled() bool {
	return r.apiKey != ""
}

// Rerank returns the indices of the topN most relevant documents, best
// first. The result is a permutation prefix of the input indices: every
// returned index is valid and no index repeats. Rerank never returns an
// error; remote failures fall back to local lexical scoring.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []string, topN int) []int {
	if len(docs) == 0 || topN <= 0 {
		return []int{}
	}
	if topN > len(docs) {
		topN = len(docs)
	}

	if r.Enabled() {
		if indices, err := r.tryRemote(ctx, query, docs, topN); err == nil {
			return indices
		} else {
			log.Printf("rerank: remote scoring failed, using local fallback: %v", err)
		}
	}

	return r.localRank(query, docs, topN)
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (r *Reranker) tryRemote(ctx context.Context, query string, docs []string, topN int) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, RemoteTimeout)
	defer cancel()

	body, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: docs,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rerank API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}

	indices := make([]int, 0, topN)
	seen := make(map[int]bool, topN)
	for _, result := range parsed.Results {
		if result.Index < 0 || result.Index >= len(docs) || seen[result.Index] {
			return nil, fmt.Errorf("rerank API returned invalid index %d", result.Index)
		}
		seen[result.Index] = true
		indices = append(indices, result.Index)
		if len(indices) == topN {
			break
		}
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("rerank API returned no results")
	}
	return indices, nil
}

// localRank scores each document lexically: a document containing the whole
// query (case-insensitive) earns a large bonus, and each distinct query term
// longer than two characters it contains earns one point. Ties keep the
// input order, so results are deterministic for a fixed candidate list.
func (r *Reranker) localRank(query string, docs []string, topN int) []int {
	loweredQuery := strings.ToLower(query)
	terms := queryTerms(loweredQuery)

	scores := make([]int, len(docs))
	for i, doc := range docs {
		lowered := strings.ToLower(doc)
		if loweredQuery != "" && strings.Contains(lowered, loweredQuery) {
			scores[i] += 10
		}
		for term := range terms {
			if strings.Contains(lowered, term) {
				scores[i]++
			}
		}
	}

	indices := make([]int, len(docs))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})

	return indices[:topN]
}

// queryTerms splits a lowercased query into its distinct terms, dropping
// terms of two characters or fewer.
func queryTerms(loweredQuery string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, field := range strings.Fields(loweredQuery) {
		if len(field) > 2 {
			terms[field] = struct{}{}
		}
	}
	return terms
}
