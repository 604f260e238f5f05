package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/nimbus/internal/api"
	"github.com/diogo/nimbus/internal/chat"
	"github.com/diogo/nimbus/internal/render"
)

func newTestModel(t *testing.T, gen chat.Generator) Model {
	t.Helper()
	session := chat.NewSession(gen)
	m := NewChatModel(context.Background(), session, "gemini-test", render.DefaultOptions().WithStyle(render.StyleNoTTY))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func pressEnter(m Model) (Model, tea.Cmd) {
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

func TestViewBeforeReady(t *testing.T) {
	m := NewChatModel(context.Background(), chat.NewSession(&api.MockClient{}), "m", render.DefaultOptions())
	if !strings.Contains(m.View(), "Initializing") {
		t.Error("expected initializing view before the first size message")
	}
	if m.Init() == nil {
		t.Error("Init should start the cursor blink")
	}
}

func TestViewWelcome(t *testing.T) {
	m := newTestModel(t, &api.MockClient{})
	view := m.View()
	if !strings.Contains(view, "Welcome to Nimbus") {
		t.Error("expected welcome screen for empty transcript")
	}
	if !strings.Contains(view, "gemini-test") {
		t.Error("expected model name in header")
	}
}

func TestEnterStartsTurn(t *testing.T) {
	m := newTestModel(t, &api.MockClient{Reply: "hi"})
	m.textarea.SetValue("hello")

	m, cmd := pressEnter(m)

	if cmd == nil {
		t.Fatal("expected a command to run the turn")
	}
	if !m.snap.Pending {
		t.Error("expected pending state right after enter")
	}
	if m.textarea.Value() != "" {
		t.Errorf("input not cleared: %q", m.textarea.Value())
	}
	if len(m.snap.Messages) != 1 || !m.snap.Messages[0].IsUser() || m.snap.Messages[0].Text != "hello" {
		t.Errorf("expected user message shown, got %+v", m.snap.Messages)
	}
	if !strings.Contains(m.View(), "Thinking") {
		t.Error("expected thinking indicator while pending")
	}
}

func TestEnterIgnoredWhilePending(t *testing.T) {
	m := newTestModel(t, &api.MockClient{})
	m.snap.Pending = true
	m.textarea.SetValue("second")

	m, cmd := pressEnter(m)

	if cmd != nil {
		t.Error("enter must not start a turn while pending")
	}
	if m.textarea.Value() != "second" {
		t.Errorf("input changed while pending: %q", m.textarea.Value())
	}
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	m := newTestModel(t, &api.MockClient{})
	m.textarea.SetValue("   ")

	m, cmd := pressEnter(m)

	if cmd != nil || m.snap.Pending || len(m.snap.Messages) != 0 {
		t.Error("blank input should be ignored")
	}
}

func TestExitCommands(t *testing.T) {
	for _, word := range []string{"exit", "quit", "/exit", "/quit"} {
		m := newTestModel(t, &api.MockClient{})
		m.textarea.SetValue(word)

		_, cmd := pressEnter(m)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", word)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected tea.QuitMsg", word)
		}
	}
}

func TestSubmitDoneShowsFormattedReply(t *testing.T) {
	m := newTestModel(t, &api.MockClient{Reply: "1. alpha\nbeta"})

	msg := m.submit("list")()
	done, ok := msg.(submitDoneMsg)
	if !ok {
		t.Fatalf("expected submitDoneMsg, got %T", msg)
	}

	updated, _ := m.Update(done)
	m = updated.(Model)

	if m.snap.Pending {
		t.Error("expected idle after the turn settles")
	}
	if len(m.snap.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(m.snap.Messages))
	}
	if got := m.snap.Messages[1].Text; got != "1. alpha\n2. beta" {
		t.Errorf("reply = %q", got)
	}
	if !strings.Contains(m.viewport.View(), "beta") {
		t.Error("reply not rendered into the viewport")
	}
}

func TestSubmitFailureShowsFallback(t *testing.T) {
	m := newTestModel(t, &api.MockClient{Err: errors.New("down")})

	updated, _ := m.Update(m.submit("hi")())
	m = updated.(Model)

	if got := m.snap.Messages[1].Text; got != chat.FallbackMessage {
		t.Errorf("reply = %q, want fallback", got)
	}
	if m.err != nil {
		t.Errorf("generator errors are not surfaced: %v", m.err)
	}
}

func TestPendingTurnOutlivesQuit(t *testing.T) {
	mock := &api.MockClient{Reply: "late", Block: make(chan struct{}), Started: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	m := NewChatModel(ctx, chat.NewSession(mock), "gemini-test", render.DefaultOptions().WithStyle(render.StyleNoTTY))

	result := make(chan tea.Msg, 1)
	cmd := m.submit("slow")
	go func() { result <- cmd() }()

	select {
	case <-mock.Started:
	case <-time.After(time.Second):
		t.Fatal("request did not start")
	}

	m.snap.Pending = true
	_, quit := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if quit == nil {
		t.Fatal("esc should quit")
	}
	if _, ok := quit().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}

	// Leaving the program cancels the screen context; the turn still completes.
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(mock.Block)

	select {
	case msg := <-result:
		done := msg.(submitDoneMsg)
		if got := done.snap.Messages[1].Text; got != "late" {
			t.Errorf("reply = %q, want the generated reply", got)
		}
	case <-time.After(time.Second):
		t.Fatal("turn did not settle")
	}
}

func TestSnapshotMsg(t *testing.T) {
	m := newTestModel(t, &api.MockClient{})
	snap := chat.Snapshot{
		Messages: []chat.Message{{Text: "q", Sender: chat.SenderUser}},
		Pending:  true,
	}

	updated, _ := m.Update(snapshotMsg(snap))
	m = updated.(Model)

	if !m.snap.Pending || len(m.snap.Messages) != 1 {
		t.Errorf("snapshot not applied: %+v", m.snap)
	}
	if strings.Contains(m.View(), "Welcome") {
		t.Error("welcome screen should hide once messages exist")
	}
}

func TestAnimationOnlyWhilePending(t *testing.T) {
	m := newTestModel(t, &api.MockClient{})

	updated, _ := m.Update(animationTickMsg(time.Now()))
	if updated.(Model).animationFrame != 0 {
		t.Error("animation should not advance while idle")
	}

	m.snap.Pending = true
	updated, cmd := m.Update(animationTickMsg(time.Now()))
	if updated.(Model).animationFrame != 1 {
		t.Error("animation should advance while pending")
	}
	if cmd == nil {
		t.Error("expected next tick to be scheduled")
	}
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(t, &api.MockClient{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 8})
	m = updated.(Model)

	if m.viewport.Width != 56 {
		t.Errorf("viewport width = %d, want 56", m.viewport.Width)
	}
	if m.viewport.Height != 5 {
		t.Errorf("viewport height = %d, want minimum 5", m.viewport.Height)
	}
}

func TestSaveCommand(t *testing.T) {
	m := newTestModel(t, &api.MockClient{Reply: "answer"})
	updated, _ := m.Update(m.submit("question")())
	m = updated.(Model)

	dir := t.TempDir()
	for _, name := range []string{"chat.md", "chat.json"} {
		path := filepath.Join(dir, name)
		m.textarea.SetValue("/save " + path)

		var cmd tea.Cmd
		m, cmd = pressEnter(m)
		if cmd != nil {
			t.Errorf("%s: /save should not start a turn", name)
		}
		if m.err != nil {
			t.Fatalf("%s: unexpected error: %v", name, m.err)
		}
		if !strings.Contains(m.notice, path) {
			t.Errorf("%s: notice = %q", name, m.notice)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "answer") {
			t.Errorf("%s: transcript missing reply: %s", name, data)
		}
		if strings.HasSuffix(name, ".json") && !strings.HasPrefix(string(data), "{") {
			t.Errorf("expected JSON export, got %s", data)
		}
	}

	if !strings.Contains(m.View(), "Saved 2 messages") {
		t.Error("expected save notice in view")
	}
}

func TestSaveCommandError(t *testing.T) {
	m := newTestModel(t, &api.MockClient{})
	m.textarea.SetValue("/save " + filepath.Join(t.TempDir(), "missing", "dir", "x.md"))

	m, _ = pressEnter(m)
	if m.err == nil {
		t.Fatal("expected error for unwritable path")
	}
	if !strings.Contains(m.View(), "failed to save transcript") {
		t.Error("expected error in view")
	}
}
