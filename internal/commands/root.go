// Package commands provides the nimbus CLI.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/nimbus/internal/config"
	"github.com/diogo/nimbus/internal/logging"
)

// Version info (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globals holds persistent flag values and what PersistentPreRunE derives
// from them.
type globals struct {
	model   string
	verbose bool

	cfg    config.Config
	logger *zap.Logger
}

// modelName returns the --model flag, falling back to the config default.
func (g *globals) modelName() string {
	if m := strings.TrimSpace(g.model); m != "" {
		return m
	}
	return g.cfg.DefaultModel
}

// NewRootCmd builds the command tree on deps.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	g := &globals{logger: zap.NewNop()}
	var q queryFlags

	cmd := &cobra.Command{
		Use:   "nimbus [prompt]",
		Short: "Chat with Gemini from the terminal",
		Long: `nimbus sends prompts to a Gemini model and tidies up the replies:
numbered and bulleted lists are normalized, tables get a header separator
and code is fenced.

Examples:
  nimbus "What is Go?"              Send a single query
  nimbus -f prompt.md               Read prompt from file
  cat prompt.md | nimbus            Read prompt from stdin
  nimbus "Hello" -o reply.md        Save the reply to a file
  nimbus chat                       Start interactive chat
  nimbus serve --addr :8100         Serve the chat over HTTP
  nimbus config set-key             Store your API key`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = g.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "nimbus %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := readPrompt(deps, q.file, args)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}
			return runQuery(cmd.Context(), deps, g, q, prompt)
		},
	}

	cmd.SetIn(deps.Stdin)
	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	cmd.PersistentFlags().StringVarP(&g.model, "model", "m", "", "Model to use (e.g., gemini-2.5-flash)")
	cmd.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "Enable debug logging")
	cmd.Flags().StringVarP(&q.output, "output", "o", "", "Save the reply to a file")
	cmd.Flags().StringVarP(&q.file, "file", "f", "", "Read prompt from file")
	cmd.Flags().BoolVar(&q.raw, "raw", false, "Print the reply without decoration")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(
		newChatCmd(deps, g),
		newServeCmd(deps, g),
		newFormatCmd(deps),
		newConfigCmd(deps),
	)

	return cmd
}

// setup loads the config and builds the logger. The log goes to the
// configured file so it never mixes with terminal output.
func (g *globals) setup() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	g.cfg = cfg

	logPath, err := config.GetLogPath(cfg)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Path:        logPath,
		Verbose:     g.verbose || cfg.Verbose,
		Development: cfg.LogFormat == "console",
	})
	if err != nil {
		return err
	}
	g.logger = logger.With(zap.String("version", Version))
	return nil
}

// readPrompt picks the prompt from -f, piped stdin or the argument, in
// that order. ok is false when none was given.
func readPrompt(deps *Dependencies, file string, args []string) (string, bool, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if stdinHasData(deps.Stdin) {
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		// An empty pipe does not shadow the argument.
		if strings.TrimSpace(string(data)) != "" || len(args) == 0 {
			return string(data), true, nil
		}
	}

	if len(args) > 0 {
		return args[0], true, nil
	}
	return "", false, nil
}

// stdinHasData reports whether r is a pipe or file rather than a terminal.
// Readers that are not files count as piped input.
func stdinHasData(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := NewDependencies()
	if err := NewRootCmd(deps).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Error"))
		stop()
		os.Exit(1)
	}
}
