package ai

import "context"

// Summarizer turns a short data summary into advisory text. Implementations
// may call an external model.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}
