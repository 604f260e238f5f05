package api

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"google.golang.org/genai"

	apierrors "github.com/diogo/nimbus/internal/errors"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error
	wait time.Duration

	calls       int
	lastModel   string
	lastText    string
	lastCfg     *genai.GenerateContentConfig
	hadDeadline bool
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.lastModel = model
	f.lastCfg = cfg
	_, f.hadDeadline = ctx.Deadline()
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.lastText = contents[0].Parts[0].Text
	}
	if f.wait > 0 {
		select {
		case <-time.After(f.wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	fake := &fakeModels{resp: textResponse("world")}
	client := newClient(fake, WithModel("gemini-test"))

	got, err := client.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate() returned error: %v", err)
	}
	if got != "world" {
		t.Errorf("Generate() = %q, want world", got)
	}
	if fake.lastModel != "gemini-test" {
		t.Errorf("model = %q, want gemini-test", fake.lastModel)
	}
	if fake.lastText != "hello" {
		t.Errorf("prompt = %q, want hello", fake.lastText)
	}
	if fake.lastCfg != nil {
		t.Error("expected nil config without system instruction or temperature")
	}
	if fake.hadDeadline {
		t.Error("no deadline expected without timeout")
	}
}

func TestGenerate_Config(t *testing.T) {
	fake := &fakeModels{resp: textResponse("ok")}
	client := newClient(fake,
		WithSystemInstruction("be terse"),
		WithTemperature(0.2),
		WithTimeout(time.Minute),
	)

	if _, err := client.Generate(context.Background(), "hi"); err != nil {
		t.Fatalf("Generate() returned error: %v", err)
	}
	if fake.lastCfg == nil || fake.lastCfg.SystemInstruction == nil {
		t.Fatal("expected system instruction in config")
	}
	if got := fake.lastCfg.SystemInstruction.Parts[0].Text; got != "be terse" {
		t.Errorf("system instruction = %q", got)
	}
	if fake.lastCfg.Temperature == nil || *fake.lastCfg.Temperature != 0.2 {
		t.Errorf("temperature = %v", fake.lastCfg.Temperature)
	}
	if !fake.hadDeadline {
		t.Error("expected deadline from WithTimeout")
	}
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	fake := &fakeModels{resp: textResponse("x")}
	client := newClient(fake)

	_, err := client.Generate(context.Background(), "   ")
	if !errors.Is(err, apierrors.ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if fake.calls != 0 {
		t.Error("API should not be called for an empty prompt")
	}
}

func TestGenerate_Closed(t *testing.T) {
	fake := &fakeModels{resp: textResponse("x")}
	client := newClient(fake)
	client.Close()

	_, err := client.Generate(context.Background(), "hi")
	if !errors.Is(err, apierrors.ErrRequestFailed) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if fake.calls != 0 {
		t.Error("closed client should not call the API")
	}
}

func TestGenerate_Timeout(t *testing.T) {
	fake := &fakeModels{resp: textResponse("late"), wait: time.Second}
	client := newClient(fake, WithTimeout(10*time.Millisecond))

	_, err := client.Generate(context.Background(), "hi")
	if !apierrors.IsTimeoutError(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestGenerate_ErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name:  "unauthenticated",
			err:   genai.APIError{Code: 401, Status: "UNAUTHENTICATED", Message: "bad"},
			check: apierrors.IsAuthError,
		},
		{
			name:  "invalid key",
			err:   genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "API key not valid. Please pass a valid API key."},
			check: apierrors.IsAuthError,
		},
		{
			name:  "quota",
			err:   genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"},
			check: apierrors.IsRateLimitError,
		},
		{
			name:  "server",
			err:   genai.APIError{Code: 503, Status: "UNAVAILABLE", Message: "overloaded"},
			check: func(err error) bool { return apierrors.GetHTTPStatus(err) == 503 },
		},
		{
			name:  "wrapped api error",
			err:   fmt.Errorf("transport: %w", genai.APIError{Code: 500, Message: "boom"}),
			check: func(err error) bool { return apierrors.GetHTTPStatus(err) == 500 },
		},
		{
			name:  "network",
			err:   errors.New("dial tcp: connection refused"),
			check: func(err error) bool { return errors.Is(err, apierrors.ErrRequestFailed) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(&fakeModels{err: tt.err})
			_, err := client.Generate(context.Background(), "hi")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, apierrors.ErrRequestFailed) {
				t.Errorf("error is not a RequestError: %v", err)
			}
			if !tt.check(err) {
				t.Errorf("classification failed for %v", err)
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	if _, err := extractText(nil); !errors.Is(err, apierrors.ErrNoContent) {
		t.Errorf("nil response: expected ErrNoContent, got %v", err)
	}

	blocked := &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	}
	if _, err := extractText(blocked); !apierrors.IsBlockedError(err) {
		t.Errorf("blocked prompt: expected BlockedError, got %v", err)
	}

	safety := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	}
	if _, err := extractText(safety); !apierrors.IsBlockedError(err) {
		t.Errorf("safety finish: expected BlockedError, got %v", err)
	}

	empty := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}
	if _, err := extractText(empty); !errors.Is(err, apierrors.ErrNoContent) {
		t.Errorf("empty candidate: expected ErrNoContent, got %v", err)
	}
}

func TestClientModel(t *testing.T) {
	client := newClient(&fakeModels{})
	if client.Model() != DefaultModel {
		t.Errorf("Model() = %q, want %q", client.Model(), DefaultModel)
	}
	client = newClient(&fakeModels{}, WithModel("gemini-2.5-pro"))
	if client.Model() != "gemini-2.5-pro" {
		t.Errorf("Model() = %q", client.Model())
	}
}

func TestNewClient_NoKey(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	if !errors.Is(err, apierrors.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}
