package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rhuss/zettel/pkg/debug"
)

// HTTPEmbedder calls any OpenAI-compatible /v1/embeddings endpoint.
//
// Unlike HashEmbedder it can fail per call; the ranking layer treats
// such failures as per-candidate exclusions. The dimensionality is
// fixed by configuration so that stored vectors and the database column
// width agree regardless of what the remote model returns; a response
// vector of a different length is an error.
type HTTPEmbedder struct {
	URL        string
	Model      string
	APIKey     string
	HTTPClient *http.Client

	dims int
}

// Compile-time check that HTTPEmbedder implements Embedder.
var _ Embedder = (*HTTPEmbedder)(nil)

// NewHTTPEmbedder creates an embedding client for an OpenAI-compatible
// endpoint. Non-positive dims falls back to DefaultDimensions.
func NewHTTPEmbedder(url, model, apiKey string, dims int) *HTTPEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HTTPEmbedder{
		URL:        url,
		Model:      model,
		APIKey:     apiKey,
		HTTPClient: &http.Client{},
		dims:       dims,
	}
}

// embeddingRequest is the JSON request body for the embeddings API.
type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// embeddingResponse is the JSON response from the embeddings API.
type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// Embed sends texts to the embeddings endpoint and returns the vectors.
func (c *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	endpoint := c.URL
	if !strings.HasSuffix(endpoint, "/v1/embeddings") {
		endpoint = strings.TrimRight(endpoint, "/") + "/v1/embeddings"
	}

	body, err := json.Marshal(embeddingRequest{Input: texts, Model: c.Model})
	if err != nil {
		return nil, fmt.Errorf("marshaling embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	debug.Log("vector", "embedding request", "endpoint", endpoint, "model", c.Model, "inputs", len(texts))
	debug.Trace("vector", "embedding request body", "body", debug.Truncate(string(body), 2000))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading embedding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("parsing embedding response: %w", err)
	}

	if len(embResp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	// Order results by index.
	vectors := make([][]float32, len(texts))
	for _, d := range embResp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding response index %d out of range [0, %d)", d.Index, len(texts))
		}
		vectors[d.Index] = d.Embedding
	}
	for i, vec := range vectors {
		if vec == nil {
			return nil, fmt.Errorf("embedding response missing vector for input %d", i)
		}
		if len(vec) != c.dims {
			return nil, fmt.Errorf("embedding dimensionality %d does not match configured %d", len(vec), c.dims)
		}
	}

	return vectors, nil
}

// Dimensions returns the configured dimensionality.
func (c *HTTPEmbedder) Dimensions() int {
	return c.dims
}
