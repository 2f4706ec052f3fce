// Package embedding generates normalized text embeddings for skill and
// need descriptions, the input to vectorindex's similarity search
// (spec §4.1). The original service used a local SentenceTransformers
// model; this port calls an Azure-OpenAI-compatible embeddings
// endpoint instead, keeping the same encode/encode-batch/normalize
// contract.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"

	"github.com/otitou/wap-backend-go/internal/apperr"
)

// Config configures the embedding client.
type Config struct {
	Endpoint       string
	APIKey         string
	APIVersion     string
	DeploymentName string
	Dimension      int
}

// Client generates L2-normalized embeddings of a fixed dimension.
type Client struct {
	inner     openai.Client
	model     string
	dimension int
}

// New builds a Client against an Azure-OpenAI-compatible endpoint.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, apperr.DependencyUnavailablef(nil, "embedding client requires endpoint and api key")
	}
	client := openai.NewClient(
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)
	return &Client{inner: client, model: cfg.DeploymentName, dimension: cfg.Dimension}, nil
}

// Encode returns a single normalized embedding. There is no retry on
// failure: callers fail the enclosing operation rather than index a
// stale or zero vector (spec §8 fail-fast on embedding errors).
func (c *Client) Encode(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EncodeBatch generates normalized embeddings for multiple texts in one call.
func (c *Client) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if c == nil {
		return nil, apperr.DependencyUnavailablef(nil, "embedding client is not configured")
	}
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.inner.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:          c.model,
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Dimensions:     openai.Int(int64(c.dimension)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, apperr.DependencyUnavailablef(err, "generate embeddings")
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response count mismatch: want %d got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = normalize(vec)
	}
	return out, nil
}

// Dimension reports the configured embedding width.
func (c *Client) Dimension() int { return c.dimension }

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
