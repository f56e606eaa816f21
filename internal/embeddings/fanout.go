package embeddings

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Embedder produces the embedding of one text.
type Embedder interface {
	Embed(ctx context.Context, apiKey, text string) (Result, error)
}

// FetchEmbeddings embeds every non-empty text concurrently with the same
// credential and waits for all calls to settle. The batch succeeds or fails
// as a unit: the first error is returned and no partial results are.
//
// Results are ordered by Index, the position of the text once empty strings
// are dropped. A batch with no non-empty text returns an empty slice without
// calling the embedder.
func FetchEmbeddings(ctx context.Context, e Embedder, apiKey string, texts []string) ([]Result, error) {
	inputs := nonEmpty(texts)
	results := make([]Result, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	// A failed call does not cancel its siblings; requests are never
	// withdrawn once issued.
	var g errgroup.Group
	for i, text := range inputs {
		g.Go(func() error {
			res, err := e.Embed(ctx, apiKey, text)
			if err != nil {
				return err
			}
			res.Text = text
			res.Index = i
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func nonEmpty(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
