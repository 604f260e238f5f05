package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diogo/nimbus/internal/config"
	"github.com/diogo/nimbus/internal/render"
)

func newConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change nimbus settings stored in config.json.

Without a subcommand the current settings are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(deps)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the current settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfig(deps)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.GetConfigPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(deps.Stdout, path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change a setting",
			Long: "Change a setting. Keys: " + strings.Join(config.Keys(), ", ") +
				"\nMarkdown styles: " + strings.Join(styleNames(), ", ") +
				"\nTUI themes: " + strings.Join(render.PaletteNames(), ", "),
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := validateSetting(args[0], args[1]); err != nil {
					return err
				}
				cfg, err := config.LoadConfig()
				if err != nil {
					return err
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := config.SaveConfig(cfg); err != nil {
					return err
				}
				fmt.Fprintln(deps.Stderr, successStyle.Render(fmt.Sprintf("✓ %s = %s", args[0], args[1])))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-key [key]",
			Short: "Store the Gemini API key in the config directory .env file",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key := ""
				if len(args) > 0 {
					key = args[0]
				} else {
					var err error
					if key, err = promptAPIKey(deps); err != nil {
						return err
					}
				}
				if err := config.SaveAPIKey(key); err != nil {
					return err
				}
				fmt.Fprintln(deps.Stderr, successStyle.Render("✓ API key saved ("+config.MaskAPIKey(strings.TrimSpace(key))+")"))
				return nil
			},
		},
	)

	return cmd
}

func showConfig(deps *Dependencies) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	keyStatus := dimStyle.Render("not set")
	if key, err := config.LoadAPIKey(); err == nil {
		keyStatus = config.MaskAPIKey(key)
	}

	fmt.Fprintf(deps.Stdout, "%s %s\n", keyStyle.Render("Config:"), path)
	fmt.Fprintf(deps.Stdout, "%s %s\n", keyStyle.Render("API key:"), keyStatus)
	fmt.Fprintln(deps.Stdout, string(data))
	return nil
}

// promptAPIKey reads the key without echo on a terminal, or one line
// from piped stdin.
func promptAPIKey(deps *Dependencies) (string, error) {
	if f, ok := deps.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(deps.Stderr, "API key: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(deps.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return string(raw), nil
	}

	if deps.Stdin == nil {
		return "", fmt.Errorf("no API key given")
	}
	line, err := bufio.NewReader(deps.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// validateSetting rejects values that only the renderers can judge.
func validateSetting(key, value string) error {
	switch key {
	case "markdown.style":
		if render.IsBuiltinStyle(value) {
			return nil
		}
		if _, err := os.Stat(value); err != nil {
			return fmt.Errorf("unknown markdown style %q (built-in: %s, or a path to a JSON style file)",
				value, strings.Join(styleNames(), ", "))
		}
	case "tui_theme":
		if _, ok := render.PaletteByName(value); !ok {
			return fmt.Errorf("unknown TUI theme %q (available: %s)", value, strings.Join(render.PaletteNames(), ", "))
		}
	}
	return nil
}

func styleNames() []string {
	styles := render.AvailableStyles()
	names := make([]string, len(styles))
	for i, s := range styles {
		names[i] = s.Name
	}
	return names
}
