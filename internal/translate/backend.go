package translate

import (
	"context"
	"fmt"

	"lingostream/pkg/logger"

	"go.uber.org/zap"
)

// FailureMarker prefixes the sentinel string a Backend returns after all
// attempts fail. Callers should rely on the returned error (or the task
// record) rather than on the string itself.
const FailureMarker = "Translation failed"

const defaultMaxAttempts = 3

// Backend wraps a Translator with a bounded retry loop. Retries are immediate;
// the pipeline favors low latency over spacing attempts out.
type Backend struct {
	translator  Translator
	maxAttempts int
}

// NewBackend creates a retrying backend. maxAttempts <= 0 selects the default
// of 3 attempts.
func NewBackend(translator Translator, maxAttempts int) *Backend {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Backend{
		translator:  translator,
		maxAttempts: maxAttempts,
	}
}

// TranslateWithRetries calls the translator until it yields a non-empty
// result, up to the attempt bound. An attempt that errors or comes back empty
// counts as failed. When every attempt fails the returned string is a
// sentinel beginning with FailureMarker and the error is non-nil; the
// sentinel is never a real translation.
func (b *Backend) TranslateWithRetries(ctx context.Context, text string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		translation, err := b.translator.Translate(ctx, text)
		if err == nil && translation != "" {
			return translation, nil
		}

		if err != nil {
			lastErr = err
			logger.Warn("Translation attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", b.maxAttempts),
				zap.Error(err))
		} else {
			logger.Warn("Empty translation result",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", b.maxAttempts))
		}
	}

	if lastErr != nil {
		err := fmt.Errorf("translation failed after %d attempts: %w", b.maxAttempts, lastErr)
		return fmt.Sprintf("%s after %d attempts: %v", FailureMarker, b.maxAttempts, lastErr), err
	}

	err := fmt.Errorf("translation produced no result after %d attempts", b.maxAttempts)
	return fmt.Sprintf("%s after %d attempts: empty result", FailureMarker, b.maxAttempts), err
}
