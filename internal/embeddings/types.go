package embeddings

import "errors"

// ErrRequestFailed is returned when the provider answers without any
// embedding entry. The transport call itself may have succeeded.
var ErrRequestFailed = errors.New("request failed")

// Result is the embedding of a single text of a batch.
type Result struct {
	Text   string    `json:"text"`
	Vector []float64 `json:"vector"`
	// Index is the position of Text in the batch after empty texts were dropped.
	Index        int    `json:"index"`
	Model        string `json:"model"`
	PromptTokens int64  `json:"promptTokens"`
	TotalTokens  int64  `json:"totalTokens"`
}
