// Package chat implements the chat session controller: it records the
// transcript, forwards user text to a Generator, formats replies and tracks
// whether a request is in flight.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/diogo/nimbus/internal/formatter"
)

// FallbackMessage replaces the reply when the request fails.
const FallbackMessage = "Sorry, I encountered an error. Please try again."

// ErrBusy is returned by Submit while another request is pending.
var ErrBusy = errors.New("a request is already pending")

// Generator produces a reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Observer is called with a fresh snapshot after every transcript append
// and every pending transition. It runs on the goroutine that caused the
// change, without the session lock held. A panicking observer is logged
// and skipped.
type Observer func(Snapshot)

// Session is a single conversation. At most one request is in flight at a
// time; a Submit made while one is pending is rejected with ErrBusy.
type Session struct {
	id     string
	gen    Generator
	format func(string) string
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	messages  []Message
	pending   bool
	input     string
	observers map[int]Observer
	nextObs   int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the diagnostic logger. Request failures are reported
// here and nowhere else.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFormatter replaces formatter.Format as the reply post-processor.
func WithFormatter(format func(string) string) SessionOption {
	return func(s *Session) {
		if format != nil {
			s.format = format
		}
	}
}

// WithID sets the session ID used in logs.
func WithID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithObserver registers an observer at construction time.
func WithObserver(obs Observer) SessionOption {
	return func(s *Session) {
		s.addObserver(obs)
	}
}

// withClock overrides time.Now for tests.
func withClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession creates an idle session with an empty transcript.
func NewSession(gen Generator, opts ...SessionOption) *Session {
	s := &Session{
		id:        uuid.NewString(),
		gen:       gen,
		format:    formatter.Format,
		logger:    zap.NewNop(),
		now:       time.Now,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session", s.id))
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Subscribe registers obs and returns a function that removes it.
func (s *Session) Subscribe(obs Observer) (unsubscribe func()) {
	s.mu.Lock()
	key := s.addObserver(obs)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, key)
		s.mu.Unlock()
	}
}

func (s *Session) addObserver(obs Observer) int {
	key := s.nextObs
	s.nextObs++
	if obs != nil {
		s.observers[key] = obs
	}
	return key
}

// SetInput replaces the pending input buffer.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

// Input returns the pending input buffer.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// SubmitInput submits the input buffer.
func (s *Session) SubmitInput(ctx context.Context) error {
	return s.Submit(ctx, s.Input())
}

// Submit runs one turn. Whitespace-only text is ignored. Otherwise the user
// message is appended and the input buffer cleared before the generator is
// called; the formatted reply, or FallbackMessage on failure, is appended
// after. Generator errors are logged and never returned. The only error is
// ErrBusy, when another turn is still pending.
func (s *Session) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		s.logger.Debug("submit rejected while pending")
		return ErrBusy
	}
	s.messages = append(s.messages, Message{Text: text, Sender: SenderUser, Time: s.now()})
	s.input = ""
	s.pending = true
	s.mu.Unlock()
	defer s.settle()
	s.notify()

	reply := s.respond(ctx, text)
	s.appendMessage(Message{Text: reply, Sender: SenderAssistant, Time: s.now()})
	return nil
}

// respond calls the generator and formats its reply, turning any error or
// panic into FallbackMessage.
func (s *Session) respond(ctx context.Context, prompt string) (reply string) {
	start := s.now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("request panicked",
				zap.Error(fmt.Errorf("panic: %v", r)),
				zap.Duration("elapsed", s.now().Sub(start)))
			reply = FallbackMessage
		}
	}()

	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("generate failed",
			zap.Error(err),
			zap.Int("prompt_bytes", len(prompt)),
			zap.Duration("elapsed", s.now().Sub(start)))
		return FallbackMessage
	}

	s.logger.Debug("reply received",
		zap.Int("reply_bytes", len(raw)),
		zap.String("category", formatter.Classify(raw).String()),
		zap.Duration("elapsed", s.now().Sub(start)))
	return s.format(raw)
}

func (s *Session) appendMessage(msg Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify()
}

// settle clears the pending flag; it runs deferred so it cannot be skipped.
func (s *Session) settle() {
	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	s.mu.Lock()
	if len(s.observers) == 0 {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	observers := make([]Observer, 0, len(s.observers))
	for k := 0; k < s.nextObs; k++ {
		if obs, ok := s.observers[k]; ok {
			observers = append(observers, obs)
		}
	}
	s.mu.Unlock()

	for _, obs := range observers {
		s.callObserver(obs, snap)
	}
}

// callObserver isolates the session from a failing observer.
func (s *Session) callObserver(obs Observer, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("observer panicked", zap.Error(fmt.Errorf("panic: %v", r)))
		}
	}()
	obs(snap)
}

// Pending reports whether a request is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyMessagesLocked()
}

// Len returns the number of messages in the transcript.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Snapshot returns the transcript and pending flag read together.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID: s.id,
		Messages:  s.copyMessagesLocked(),
		Pending:   s.pending,
	}
}

func (s *Session) copyMessagesLocked() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
