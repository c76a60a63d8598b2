package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/medcheck/api/internal/apperrors"
)

// OllamaClient speaks the local text-generation protocol: a single
// non-streaming POST with {model, prompt, stream:false} whose response
// carries the generated text in a "response" field.
type OllamaClient struct {
	url        string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// NewOllamaClient creates a client for the configured generation
// endpoint. A zero timeout means the request blocks until the endpoint
// answers or the connection drops.
func NewOllamaClient(url, model string, timeout time.Duration, logger *zap.Logger) *OllamaClient {
	return &OllamaClient{
		url:        url,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Generate sends the prompt to the generation endpoint and returns the
// raw generated text. The call is synchronous and never retried; an
// unreachable endpoint or non-success status surfaces as
// KindInferenceUnavailable.
func (c *OllamaClient) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if systemPrompt != "" {
		prompt = systemPrompt + "\n\n" + prompt
	}

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Inference endpoint unreachable", zap.String("url", c.url), zap.Error(err))
		return "", apperrors.Wrap(err, apperrors.KindInferenceUnavailable, "inference endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Inference endpoint returned non-success status",
			zap.String("url", c.url),
			zap.Int("status", resp.StatusCode))
		return "", apperrors.Newf(apperrors.KindInferenceUnavailable, "inference endpoint error: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindInferenceUnavailable, "failed to read inference response")
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", apperrors.Wrap(err, apperrors.KindInferenceUnavailable, "failed to decode inference response")
	}

	return out.Response, nil
}
