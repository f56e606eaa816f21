package embeddings

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1/"
	DefaultModel   = "text-embedding-ada-002"
)

// Client calls the embeddings endpoint of an OpenAI compatible API. The
// credential is supplied per call since it comes from the form.
type Client struct {
	sdk   openai.Client
	model string
}

func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}

	return &Client{
		sdk: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithHTTPClient(&http.Client{Timeout: timeout}),
			option.WithMaxRetries(0),
		),
		model: model,
	}
}

// Model returns the embedding model identifier sent with every request.
func (c *Client) Model() string {
	return c.model
}

// Embed returns the embedding for a single text. A response without any
// embedding entry is reported as ErrRequestFailed.
func (c *Client) Embed(ctx context.Context, apiKey, text string) (Result, error) {
	resp, err := c.sdk.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(text),
		},
		Model: openai.EmbeddingModel(c.model),
	}, option.WithAPIKey(apiKey))
	if err != nil {
		return Result{}, fmt.Errorf("embeddings request: %w", err)
	}

	if len(resp.Data) == 0 {
		return Result{}, ErrRequestFailed
	}

	return Result{
		Text:         text,
		Vector:       resp.Data[0].Embedding,
		Model:        resp.Model,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}
