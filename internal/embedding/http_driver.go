// Package embedding provides the EP driver backing graph.EmbeddingProvider:
// the text-to-vector call that edge vectorization invokes on the
// "vectorize" reserved property key. It talks to an OpenAI-compatible
// /v1/embeddings endpoint via a single-text Embed(ctx, text) call.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPDriver implements graph.EmbeddingProvider against an OpenAI-compatible
// embeddings endpoint (OpenAI itself, or a local server exposing the same
// /v1/embeddings contract, e.g. Ollama's OpenAI-compatible route).
type HTTPDriver struct {
	endpoint string
	model  string
	apiKey  string
	client  *http.Client
}

// NewHTTPDriver creates a single-text embedding driver. endpoint is the
// base URL (e.g. https://api.openai.com); apiKey may be empty for
// unauthenticated local servers.
func NewHTTPDriver(endpoint, model, apiKey string) *HTTPDriver {
	return &HTTPDriver{
		endpoint: endpoint,
		model:  model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed turns text into a single vector via one /v1/embeddings call.
func (d *HTTPDriver) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{Model: d.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result embedResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal embed response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("embedding API returned no vectors")
	}
	return result.Data[0].Embedding, nil
}

// HealthCheck embeds a short fixed probe string.
func (d *HTTPDriver) HealthCheck(ctx context.Context) error {
	_, err := d.Embed(ctx, "health check")
	return err
}
