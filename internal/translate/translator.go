package translate

import (
	"context"
)

// Translator converts one utterance of text into the target language. A call
// may take seconds and must only run on the worker's own goroutine.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}
