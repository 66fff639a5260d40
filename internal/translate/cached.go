package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"lingostream/pkg/cache"
	"lingostream/pkg/logger"

	"go.uber.org/zap"
)

// CachedTranslator serves repeated utterances out of the cache instead of
// taking another round trip through the engine. Cache failures fall through
// to the inner translator.
type CachedTranslator struct {
	inner Translator
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedTranslator(inner Translator, c cache.Cache, ttl time.Duration) *CachedTranslator {
	return &CachedTranslator{
		inner: inner,
		cache: c,
		ttl:   ttl,
	}
}

func (t *CachedTranslator) Translate(ctx context.Context, text string) (string, error) {
	key := cache.TranslationCacheKey(textDigest(text))

	var cached string
	if err := t.cache.Get(ctx, key, &cached); err == nil && cached != "" {
		logger.Debug("Translation cache hit", zap.String("key", key))
		return cached, nil
	}

	translation, err := t.inner.Translate(ctx, text)
	if err != nil || translation == "" {
		return translation, err
	}

	if err := t.cache.SetWithTTL(ctx, key, translation, t.ttl); err != nil {
		logger.Warn("Failed to cache translation", zap.String("key", key), zap.Error(err))
	}

	return translation, nil
}

func textDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:8])
}
