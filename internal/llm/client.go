package llm

import (
	"context"
)

// Client is the minimal surface the oracle needs from a language model.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
