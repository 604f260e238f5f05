package api

import (
	"context"
	"sync"
)

// MockClient is a scripted stand-in for Client in tests.
//
// Replies are consumed in order; once exhausted, Reply/Err are returned.
// When Block is set, Generate waits for it to be closed (or for ctx to be
// done) before answering, which lets tests observe in-flight state.
type MockClient struct {
	Reply   string
	Err     error
	Replies []MockReply
	Block   chan struct{}
	Started chan struct{}

	mu      sync.Mutex
	prompts []string
}

// MockReply is one scripted answer
type MockReply struct {
	Text string
	Err  error
}

// Generate records prompt and returns the next scripted answer
func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	reply := MockReply{Text: m.Reply, Err: m.Err}
	if len(m.Replies) > 0 {
		reply = m.Replies[0]
		m.Replies = m.Replies[1:]
	}
	m.mu.Unlock()

	if m.Started != nil {
		select {
		case m.Started <- struct{}{}:
		default:
		}
	}

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return reply.Text, reply.Err
}

// Calls returns how many times Generate was called
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns the prompts received, in order
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// LastPrompt returns the most recent prompt, or ""
func (m *MockClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
