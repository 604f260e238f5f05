// Package api provides the client for the Gemini generative-language API.
package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	apierrors "github.com/diogo/nimbus/internal/errors"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.5-flash"

// modelsAPI is the subset of *genai.Models the client calls
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client sends prompts to the Gemini API and returns the reply text
type Client struct {
	models            modelsAPI
	model             string
	timeout           time.Duration
	systemInstruction string
	temperature       *float32
	logger            *zap.Logger
	mu                sync.RWMutex
	closed            bool
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithModel sets the model for the client
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model = strings.TrimSpace(model); model != "" {
			c.model = model
		}
	}
}

// WithTimeout bounds every request; zero disables the bound
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithSystemInstruction sets the system instruction sent with every prompt
func WithSystemInstruction(instruction string) ClientOption {
	return func(c *Client) {
		c.systemInstruction = instruction
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(temperature float32) ClientOption {
	return func(c *Client) {
		c.temperature = &temperature
	}
}

// WithLogger sets the logger for request diagnostics
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client authenticated with apiKey
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apierrors.ErrNoAPIKey
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newClient(gc.Models, opts...), nil
}

func newClient(m modelsAPI, opts ...ClientOption) *Client {
	client := &Client{
		models: m,
		model:  DefaultModel,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Model returns the configured model name
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// Close marks the client closed; later requests fail
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
