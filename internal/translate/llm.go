package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lingostream/pkg/logger"
	"lingostream/pkg/resilience"

	"go.uber.org/zap"
)

const (
	startTag = "<START>"
	endTag   = "<END>"

	requestTimeout = 30 * time.Second
)

// LLMTranslator translates text through an OpenAI-compatible chat-completions
// endpoint. The model is asked to wrap its translation in <START>/<END> tags;
// a reply without the tags is used whole rather than treated as an error.
type LLMTranslator struct {
	url        string
	apiKey     string
	model      string
	targetLang string
	client     *http.Client
	breaker    *resilience.CircuitBreaker
	limiter    *resilience.RateLimiter
}

// NewLLMTranslator creates a translator against the given chat-completions URL.
func NewLLMTranslator(url, apiKey, model, targetLang string) *LLMTranslator {
	return &LLMTranslator{
		url:        url,
		apiKey:     apiKey,
		model:      model,
		targetLang: targetLang,
		client: &http.Client{
			Timeout: requestTimeout,
		},
		breaker: resilience.NewCircuitBreaker(5, 30*time.Second),
		limiter: resilience.NewRateLimiter(10, time.Second),
	}
}

// Translate performs one translation attempt. An empty input translates to an
// empty result without touching the engine.
func (t *LLMTranslator) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		logger.Warn("Empty text provided for translation")
		return "", nil
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	var raw string
	err := t.breaker.Execute(func() error {
		var callErr error
		raw, callErr = t.complete(ctx, text)
		return callErr
	})
	if err != nil {
		return "", err
	}

	translation := extractTranslation(raw)
	logger.Debug("Translation extracted",
		zap.Int("raw_length", len(raw)),
		zap.Int("translation_length", len(translation)))

	return translation, nil
}

func (t *LLMTranslator) complete(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(
		"Please translate the text between %s and %s into %s, and wrap the translation in %s and %s as well.\n\n%s\n%s\n%s\n",
		startTag, endTag, t.targetLang, startTag, endTag, startTag, text, endTag)

	reqBody := ChatRequest{
		Model: t.model,
		Messages: []ChatMessage{
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation request failed: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("translation engine error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("translation response has no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// extractTranslation pulls the payload between the first <START>/<END> pair.
// A reply without both tags in order is returned whole.
func extractTranslation(raw string) string {
	start := strings.Index(raw, startTag)
	end := strings.Index(raw, endTag)

	if start == -1 || end == -1 || start >= end {
		return strings.TrimSpace(raw)
	}

	return strings.TrimSpace(raw[start+len(startTag) : end])
}
