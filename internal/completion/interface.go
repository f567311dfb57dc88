package completion

import "context"

// Completer is the interface the pipeline depends on for text generation.
type Completer interface {
	// Complete sends a prompt to the selected model and returns the text.
	Complete(ctx context.Context, model ModelSelection, prompt string) (string, error)
	// Name returns the provider name.
	Name() string
}
