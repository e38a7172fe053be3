package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var openAIPolicy = batchPolicy{size: 64, delay: 400 * time.Millisecond}

const openAIEmbedRetries = 5

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client     *http.Client
	apiKey     string
	model      string
	dimension  int
	endpoint   string
	retryDelay time.Duration
}

type openAIEmbeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions *int     `json:"dimensions,omitempty"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type openAIErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewOpenAIEmbedder(apiKey, model string, dim int, baseURL string) *OpenAIEmbedder {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/embeddings"
	}
	return &OpenAIEmbedder{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		apiKey:     apiKey,
		model:      model,
		dimension:  dim,
		endpoint:   endpoint,
		retryDelay: 3 * time.Second,
	}
}

func (o *OpenAIEmbedder) Dimension() int {
	return o.dimension
}

func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if strings.TrimSpace(o.apiKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if strings.TrimSpace(o.model) == "" {
		return nil, fmt.Errorf("openai embedding model is required")
	}
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := embedInBatches(ctx, texts, openAIPolicy, o.embedBatch)
	if err != nil {
		return nil, err
	}
	if o.dimension <= 0 && len(vecs) > 0 {
		o.dimension = len(vecs[0])
	}
	return vecs, nil
}

func (o *OpenAIEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	payload := openAIEmbeddingRequest{
		Model: o.model,
		Input: batch,
	}
	if o.dimension > 0 {
		dim := o.dimension
		payload.Dimensions = &dim
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= openAIEmbedRetries; attempt++ {
		if attempt > 0 && !waitOrCancel(ctx, o.retryDelay) {
			return nil, ctx.Err()
		}

		data, status, err := o.post(ctx, body)
		if err != nil {
			lastErr = err
			continue
		}

		// Rate limits and server errors are retried; other failures are final.
		if status == http.StatusTooManyRequests || status >= 500 {
			lastErr = fmt.Errorf("openai embeddings request failed (%d): %s", status, strings.TrimSpace(string(data)))
			continue
		}
		if status < 200 || status >= 300 {
			msg := strings.TrimSpace(string(data))
			var errBody openAIErrorBody
			if json.Unmarshal(data, &errBody) == nil && strings.TrimSpace(errBody.Error.Message) != "" {
				msg = strings.TrimSpace(errBody.Error.Message)
			}
			return nil, fmt.Errorf("openai embeddings request failed (%d): %s", status, msg)
		}

		return decodeOpenAIEmbeddings(data, len(batch))
	}
	return nil, lastErr
}

func (o *OpenAIEmbedder) post(ctx context.Context, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return data, resp.StatusCode, nil
}

// decodeOpenAIEmbeddings orders the response items by their index field.
func decodeOpenAIEmbeddings(data []byte, want int) ([][]float32, error) {
	var parsed openAIEmbeddingResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) != want {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(parsed.Data), want)
	}

	out := make([][]float32, want)
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= want {
			continue
		}
		out[item.Index] = item.Embedding
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, fmt.Errorf("embedding missing at index %d", i)
		}
	}
	return out, nil
}
