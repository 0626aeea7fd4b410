// Package openai is a minimal client for the OpenAI embeddings API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "text-embedding-3-small"
)

// Client turns idea text into fixed-length similarity vectors.
type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	Model() string
}

type client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the API base URL (for proxies or compatible APIs).
func WithBaseURL(url string) Option {
	return func(c *client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithModel overrides the embedding model.
func WithModel(model string) Option {
	return func(c *client) {
		if model != "" {
			c.model = model
		}
	}
}

// New creates an embeddings client
func New(apiKey string, opts ...Option) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: missing API key")
	}
	c := &client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *client) Model() string {
	return c.model
}

// Unconfigured returns a client that fails every Embed call. Used when no
// API key is present so similarity lookups stay in the "pending" state
// instead of crashing the service.
func Unconfigured() Client {
	return unconfigured{}
}

type unconfigured struct{}

func (unconfigured) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	return nil, fmt.Errorf("openai: embedding provider not configured")
}

func (unconfigured) Model() string {
	return "unconfigured"
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Embed returns one vector per input, in input order.
func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingRequest{Model: c.model, Input: inputs})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: embeddings request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("openai: bad embeddings response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return nil, fmt.Errorf("openai: %s (%s)", parsed.Error.Message, parsed.Error.Type)
		}
		return nil, fmt.Errorf("openai: embeddings returned status %d", resp.StatusCode)
	}
	if len(parsed.Data) != len(inputs) {
		return nil, fmt.Errorf("openai: expected %d embeddings, got %d", len(inputs), len(parsed.Data))
	}

	vectors := make([][]float32, len(inputs))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
