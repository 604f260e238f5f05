package commands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/nimbus/internal/api"
	"github.com/diogo/nimbus/internal/chat"
	apierrors "github.com/diogo/nimbus/internal/errors"
)

func TestQueryFormatsReply(t *testing.T) {
	h := newHarness(t)
	h.mock.Reply = "1. first\nsecond"

	require.NoError(t, h.run("list please"))

	assert.Equal(t, "list please", h.mock.LastPrompt())
	assert.Equal(t, "1. first\n2. second\n", h.stdout.String())
	assert.Contains(t, h.stderr.String(), "Done")
	assert.True(t, h.cleanedUp)
}

func TestQueryRaw(t *testing.T) {
	h := newHarness(t)
	h.mock.Reply = "- a\nb"

	require.NoError(t, h.run("--raw", "hi"))
	assert.Equal(t, "- a\n- b", h.stdout.String())
	assert.Empty(t, h.stderr.String(), "raw mode draws no spinner")
}

func TestQueryFailureShowsFallback(t *testing.T) {
	h := newHarness(t)
	h.mock.Reply = ""
	h.mock.Err = apierrors.NewRequestError("generate", apierrors.NewUsageLimitError("quota"))

	err := h.run("hi")
	require.Error(t, err)
	assert.True(t, apierrors.IsRateLimitError(err))
	assert.Contains(t, h.stdout.String(), chat.FallbackMessage)
}

func TestQueryRawFailurePrintsNothing(t *testing.T) {
	h := newHarness(t)
	h.mock.Err = errors.New("down")

	require.Error(t, h.run("--raw", "hi"))
	assert.Empty(t, h.stdout.String())
}

func TestQueryGeneratorSetupError(t *testing.T) {
	h := newHarness(t)
	h.genErr = apierrors.ErrNoAPIKey

	err := h.run("hi")
	assert.ErrorIs(t, err, apierrors.ErrNoAPIKey)
	assert.Zero(t, h.mock.Calls())
}

func TestQueryEmptyPrompt(t *testing.T) {
	h := newHarness(t)
	err := h.run("   ")
	assert.ErrorIs(t, err, apierrors.ErrEmptyPrompt)
}

func TestQueryFromStdin(t *testing.T) {
	h := newHarness(t)
	h.deps.Stdin = strings.NewReader("from pipe\n")

	require.NoError(t, h.run("--raw"))
	assert.Equal(t, "from pipe\n", h.mock.LastPrompt())
}

func TestQueryFromFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "prompt.md")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o644))

	require.NoError(t, h.run("-f", path, "--raw"))
	assert.Equal(t, "from file", h.mock.LastPrompt())
}

func TestQueryOutputFile(t *testing.T) {
	h := newHarness(t)
	h.mock.Reply = "- x\ny"
	out := filepath.Join(t.TempDir(), "reply.md")

	require.NoError(t, h.run("-o", out, "hi"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "- x\n- y", string(data))
	assert.Empty(t, h.stdout.String())
	assert.Contains(t, h.stderr.String(), "saved to")
}

func TestQueryClipboard(t *testing.T) {
	h := newHarness(t)
	writeConfig(t, h.home, `{"copy_to_clipboard":true}`)

	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error { copied = s; return nil }
	defer func() { copyToClipboard = orig }()

	require.NoError(t, h.run("hi"))
	assert.Equal(t, "ok", copied)
	assert.Contains(t, h.stderr.String(), "Copied to clipboard")
}

func TestQueryClipboardFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	writeConfig(t, h.home, `{"copy_to_clipboard":true}`)

	orig := copyToClipboard
	copyToClipboard = func(string) error { return errors.New("no display") }
	defer func() { copyToClipboard = orig }()

	require.NoError(t, h.run("hi"))
	assert.Contains(t, h.stderr.String(), "Failed to copy")
	assert.Contains(t, h.stdout.String(), "ok")
}

func TestQueryTerminalBubble(t *testing.T) {
	h := newHarness(t)
	h.deps.IsTerminal = func() bool { return true }
	h.mock.Reply = "const x = 1"

	require.NoError(t, h.run("code please"))
	out := h.stdout.String()
	assert.Contains(t, out, "Nimbus")
	// Highlighting wraps each token in its own escape sequence.
	for _, token := range []string{"const", "x", "1"} {
		assert.Contains(t, out, token)
	}
}

func TestErrorRecorder(t *testing.T) {
	boom := errors.New("boom")
	rec := &errorRecorder{Generator: &api.MockClient{Replies: []api.MockReply{{Err: boom}, {Text: "ok"}}}}

	_, err := rec.Generate(t.Context(), "a")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, rec.lastErr(), boom)

	_, err = rec.Generate(t.Context(), "b")
	assert.NoError(t, err)
	assert.NoError(t, rec.lastErr(), "a later success clears the error")
}
