// Package inference wraps the external AI text generation backend behind a
// narrow client interface.
package inference

import (
	"context"
	"errors"
)

// ErrTimeout is returned when a generation call exceeds the configured
// deadline.
var ErrTimeout = errors.New("inference timed out")

// ErrEmptyResponse is returned when the backend answers without any text.
var ErrEmptyResponse = errors.New("inference returned empty text")

// Client generates text from a fully rendered prompt. Calls may take
// seconds; callers bound them with a context deadline.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
