package llm

import (
	"context"
	"errors"
)

// Completer produces one chat completion for a system instruction and a user
// prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

const (
	defaultMaxTokens   = 150
	defaultTemperature = 0.3
)

var ErrEmptyCompletion = errors.New("llm returned an empty completion")
