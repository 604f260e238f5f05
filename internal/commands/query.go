package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/diogo/nimbus/internal/chat"
	apierrors "github.com/diogo/nimbus/internal/errors"
	"github.com/diogo/nimbus/internal/render"
)

// queryFlags are the root command's local flags.
type queryFlags struct {
	output string
	file   string
	raw    bool
}

// copyToClipboard is swapped in tests.
var copyToClipboard = clipboard.WriteAll

// errorRecorder remembers the last generator error. The session turns
// failures into its fallback reply; the one-shot query still needs the
// cause for the exit status and the hint.
type errorRecorder struct {
	chat.Generator

	mu  sync.Mutex
	err error
}

func (r *errorRecorder) Generate(ctx context.Context, prompt string) (string, error) {
	reply, err := r.Generator.Generate(ctx, prompt)
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	return reply, err
}

func (r *errorRecorder) lastErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// runQuery sends one prompt through a fresh session and prints the reply.
func runQuery(ctx context.Context, deps *Dependencies, g *globals, q queryFlags, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return apierrors.ErrEmptyPrompt
	}
	if ctx == nil {
		ctx = context.Background()
	}

	model := g.modelName()
	logger := g.logger.With(zap.String("command", "query"), zap.String("model", model))

	gen, cleanup, err := deps.NewGenerator(ctx, g.cfg, model, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	recorder := &errorRecorder{Generator: gen}
	session := chat.NewSession(recorder, chat.WithLogger(logger))

	var spin *spinner
	if !q.raw {
		spin = newSpinner(deps.Stderr, "Asking "+model)
		spin.start()
	}

	if err := session.Submit(ctx, prompt); err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		return err
	}

	genErr := recorder.lastErr()
	if spin != nil {
		if genErr != nil {
			spin.stopWithError()
		} else {
			spin.stopWithSuccess("Done")
		}
	}

	msgs := session.Messages()
	reply := msgs[len(msgs)-1].Text

	if q.raw {
		if genErr != nil {
			return fmt.Errorf("generation failed: %w", genErr)
		}
		return writeRaw(deps, q.output, reply)
	}

	if genErr == nil {
		if err := deliver(deps, g, q.output, reply); err != nil {
			return err
		}
		if q.output != "" {
			return nil
		}
	}

	printBubble(deps, g, reply)
	if genErr != nil {
		return fmt.Errorf("generation failed: %w", genErr)
	}
	return nil
}

func writeRaw(deps *Dependencies, output, reply string) error {
	if output != "" {
		if err := os.WriteFile(output, []byte(reply), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	fmt.Fprint(deps.Stdout, reply)
	return nil
}

// deliver copies the reply to the clipboard when configured and writes it
// to output when set.
func deliver(deps *Dependencies, g *globals, output, reply string) error {
	if g.cfg.CopyToClipboard {
		if err := copyToClipboard(reply); err != nil {
			g.logger.Warn("clipboard copy failed", zap.Error(err))
			fmt.Fprintln(deps.Stderr, warnStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(deps.Stderr, successStyle.Render("✓ Copied to clipboard"))
		}
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(reply), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintln(deps.Stderr, successStyle.Render("✓ Reply saved to "+output))
	}
	return nil
}

// printBubble renders the reply as markdown inside the assistant bubble.
// Without a terminal the reply is printed as is.
func printBubble(deps *Dependencies, g *globals, reply string) {
	if !deps.IsTerminal() {
		fmt.Fprintln(deps.Stdout, reply)
		return
	}

	bubbleWidth := deps.TerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	opts := render.OptionsFromConfig(g.cfg).WithWidth(contentWidth)
	rendered, err := render.Markdown(reply, opts)
	if err != nil {
		g.logger.Debug("markdown render failed", zap.Error(err))
		rendered = reply
	}

	fmt.Fprintln(deps.Stdout, assistantLabelStyle.Render("☁ Nimbus"))
	fmt.Fprintln(deps.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(strings.TrimRight(rendered, "\n")))
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
