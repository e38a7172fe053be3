package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmbedder struct {
	dim   int
	calls [][]string
	err   error
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.calls = append(m.calls, texts)
	results := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, m.dim)
		v[0] = float32(len(text))
		results[i] = v
	}
	return results, nil
}

func (m *mockEmbedder) Dimension() int { return m.dim }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildTable(t *testing.T) {
	emb := &mockEmbedder{dim: 4}
	table, err := BuildTable(context.Background(), quietLogger(), emb, []string{"parse", "", "main", "parse", "  main "})
	require.NoError(t, err)

	// Distinct, trimmed, sorted; the empty word is never embedded.
	require.Len(t, emb.calls, 1)
	assert.Equal(t, []string{"main", "parse"}, emb.calls[0])

	assert.Equal(t, 4, table.Dim())
	assert.Equal(t, 3, table.Len())
	v, ok := table.Lookup("parse")
	require.True(t, ok)
	assert.Equal(t, []float32{5, 0, 0, 0}, v)

	zero, ok := table.Lookup("")
	require.True(t, ok)
	assert.Equal(t, []float32{0, 0, 0, 0}, zero)
	assert.Equal(t, zero, table.Vector("unseen"))
}

func TestBuildTable_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := BuildTable(ctx, quietLogger(), nil, []string{"a"})
	assert.Error(t, err)

	_, err = BuildTable(ctx, quietLogger(), &mockEmbedder{dim: 2}, []string{"", " "})
	assert.ErrorContains(t, err, "vocabulary is empty")

	boom := errors.New("boom")
	_, err = BuildTable(ctx, quietLogger(), &mockEmbedder{dim: 2, err: boom}, []string{"a"})
	assert.ErrorIs(t, err, boom)
}

func TestNewEmbedder(t *testing.T) {
	ctx := context.Background()

	emb, err := NewEmbedder(ctx, EmbedderOptions{Provider: "OpenAI", APIKey: "k", Model: "m", Dimension: 8})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, emb)
	assert.Equal(t, 8, emb.Dimension())

	emb, err = NewEmbedder(ctx, EmbedderOptions{Provider: "ollama", Model: "nomic-embed-text"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, emb)

	_, err = NewEmbedder(ctx, EmbedderOptions{Provider: "bert"})
	assert.ErrorContains(t, err, "unsupported embedder provider")

	_, err = NewEmbedder(ctx, EmbedderOptions{Provider: "openai", Dimension: -1})
	assert.Error(t, err)

	_, err = NewEmbedder(ctx, EmbedderOptions{Provider: "gemini"})
	assert.ErrorContains(t, err, "api key is required")
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req openAIEmbeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		assert.Nil(t, req.Dimensions)

		// Items come back in reverse order; index decides placement.
		type item struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		var data []item
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, item{Index: i, Embedding: []float32{float32(i), 1}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	defer srv.Close()

	emb := NewOpenAIEmbedder("secret", "text-embedding-3-small", 0, srv.URL)
	vecs, err := emb.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}, {2, 1}}, vecs)
	assert.Equal(t, 2, emb.Dimension())
}

func TestOpenAIEmbedder_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.5]}]}`))
	}))
	defer srv.Close()

	emb := NewOpenAIEmbedder("secret", "m", 1, srv.URL)
	emb.retryDelay = 0
	vecs, err := emb.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5}}, vecs)
	assert.Equal(t, int32(2), hits.Load())
}

func TestOpenAIEmbedder_ClientErrorIsFinal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model"}}`))
	}))
	defer srv.Close()

	emb := NewOpenAIEmbedder("secret", "m", 0, srv.URL)
	_, err := emb.Embed(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "bad model")
	assert.Equal(t, int32(1), hits.Load())
}

func TestOpenAIEmbedder_RequiresKey(t *testing.T) {
	_, err := NewOpenAIEmbedder("", "m", 0, "").Embed(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req ollamaEmbedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out := ollamaEmbedResponse{}
		for range req.Input {
			out.Embeddings = append(out.Embeddings, []float32{1, 2, 3})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	emb := NewOllamaEmbedder("nomic-embed-text", 0, srv.URL+"/")
	assert.Zero(t, emb.Dimension())

	vecs, err := emb.Embed(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, 3, emb.Dimension())
}

func TestOllamaEmbedder_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1]]}`))
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder("m", 0, srv.URL).Embed(context.Background(), []string{"x", "y"})
	assert.ErrorContains(t, err, "count mismatch")
}
