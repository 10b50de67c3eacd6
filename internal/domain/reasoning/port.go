package reasoning

import "context"

// Client port for the external language-reasoning service. Single-shot text
// completion, no session reuse; may fail with timeout or transport error.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
