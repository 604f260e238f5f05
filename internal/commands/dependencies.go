package commands

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/nimbus/internal/api"
	"github.com/diogo/nimbus/internal/chat"
	"github.com/diogo/nimbus/internal/config"
	"github.com/diogo/nimbus/internal/render"
	"github.com/diogo/nimbus/internal/server"
	"github.com/diogo/nimbus/internal/tui"
)

// GeneratorFactory builds the generator behind a session. The returned
// cleanup func is always non-nil.
type GeneratorFactory func(ctx context.Context, cfg config.Config, model string, logger *zap.Logger) (chat.Generator, func(), error)

// Dependencies holds the external collaborators of the commands, so tests
// can swap the API client, the TUI and the HTTP listener.
type Dependencies struct {
	NewGenerator GeneratorFactory
	RunChat      func(ctx context.Context, session tui.ChatSession, modelName string, opts render.Options) error
	Serve        func(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// IsTerminal reports whether stdout is a terminal.
	IsTerminal func() bool
	// TerminalWidth returns the stdout width in columns.
	TerminalWidth func() int
}

// NewDependencies returns the production dependencies.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewGenerator:  newAPIGenerator,
		RunChat:       tui.RunChat,
		Serve:         server.Serve,
		Stdin:         os.Stdin,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		IsTerminal:    isStdoutTTY,
		TerminalWidth: getTerminalWidth,
	}
}

func newAPIGenerator(ctx context.Context, cfg config.Config, model string, logger *zap.Logger) (chat.Generator, func(), error) {
	key, err := config.LoadAPIKey()
	if err != nil {
		return nil, func() {}, err
	}

	client, err := api.NewClient(ctx, key, clientOptions(cfg, model, logger)...)
	if err != nil {
		return nil, func() {}, err
	}
	return client, client.Close, nil
}

func clientOptions(cfg config.Config, model string, logger *zap.Logger) []api.ClientOption {
	opts := []api.ClientOption{
		api.WithModel(model),
		api.WithTimeout(time.Duration(cfg.Timeout) * time.Second),
		api.WithSystemInstruction(cfg.SystemPrompt),
		api.WithLogger(logger),
	}
	if cfg.Temperature != nil {
		opts = append(opts, api.WithTemperature(*cfg.Temperature))
	}
	return opts
}
