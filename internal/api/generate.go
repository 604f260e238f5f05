package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	apierrors "github.com/diogo/nimbus/internal/errors"
)

const opGenerate = "generate"

// Generate sends prompt to the configured model and returns the reply text.
// Every failure is returned as a *errors.RequestError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", apierrors.NewRequestError(opGenerate, apierrors.ErrEmptyPrompt)
	}

	c.mu.RLock()
	closed := c.closed
	model := c.model
	timeout := c.timeout
	c.mu.RUnlock()

	if closed {
		return "", apierrors.NewRequestError(opGenerate, fmt.Errorf("client is closed"))
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, model, genai.Text(prompt), c.generateConfig())
	elapsed := time.Since(start)

	if err != nil {
		err = classifyError(err, endpointFor(model))
		c.logger.Debug("generate failed",
			zap.String("model", model),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return "", err
	}

	text, err := extractText(resp)
	if err != nil {
		return "", apierrors.NewRequestError(opGenerate, err)
	}

	c.logger.Debug("generate succeeded",
		zap.String("model", model),
		zap.Duration("elapsed", elapsed),
		zap.Int("prompt_bytes", len(prompt)),
		zap.Int("reply_bytes", len(text)))

	return text, nil
}

func (c *Client) generateConfig() *genai.GenerateContentConfig {
	if c.systemInstruction == "" && c.temperature == nil {
		return nil
	}
	cfg := &genai.GenerateContentConfig{Temperature: c.temperature}
	if c.systemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(c.systemInstruction, genai.RoleUser)
	}
	return cfg
}

// extractText returns the reply text, or an error when the prompt or every
// candidate was withheld.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", apierrors.ErrNoContent
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", apierrors.NewBlockedError(string(fb.BlockReason))
	}

	text := resp.Text()
	if text != "" {
		return text, nil
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		if reason := resp.Candidates[0].FinishReason; reason == genai.FinishReasonSafety {
			return "", apierrors.NewBlockedError(string(reason))
		}
	}

	return "", apierrors.ErrNoContent
}

func endpointFor(model string) string {
	return "models/" + model + ":generateContent"
}

// classifyError maps transport and API failures onto the error taxonomy.
func classifyError(err error, endpoint string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apierrors.NewRequestError(opGenerate, apierrors.NewTimeoutError(err.Error()))
	}
	if errors.Is(err, context.Canceled) {
		return apierrors.NewRequestError(opGenerate, err)
	}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return apierrors.NewRequestError(opGenerate, err)
	}

	switch {
	case apiErr.Code == http.StatusUnauthorized,
		apiErr.Code == http.StatusForbidden,
		apiErr.Status == "UNAUTHENTICATED",
		apiErr.Status == "PERMISSION_DENIED",
		strings.Contains(apiErr.Message, "API key not valid"):
		return apierrors.NewRequestError(opGenerate, apierrors.NewAuthError(apiErr.Message))
	case apiErr.Code == http.StatusTooManyRequests, apiErr.Status == "RESOURCE_EXHAUSTED":
		return apierrors.NewRequestError(opGenerate, apierrors.NewUsageLimitError(apiErr.Message))
	case apiErr.Code == http.StatusGatewayTimeout, apiErr.Status == "DEADLINE_EXCEEDED":
		return apierrors.NewRequestError(opGenerate, apierrors.NewTimeoutError(apiErr.Message))
	}

	return apierrors.NewRequestError(opGenerate, &apierrors.APIError{
		StatusCode: apiErr.Code,
		Status:     apiErr.Status,
		Message:    apiErr.Message,
		Endpoint:   endpoint,
	})
}
