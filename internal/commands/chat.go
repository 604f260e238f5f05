package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/nimbus/internal/chat"
	"github.com/diogo/nimbus/internal/render"
	"github.com/diogo/nimbus/internal/tui"
)

func newChatCmd(deps *Dependencies, g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Replies are tidied up and rendered as markdown. One message is answered at
a time; press Esc while waiting to cancel it.
Type 'exit', 'quit', or press Ctrl+C to end the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			model := g.modelName()

			gen, cleanup, err := deps.NewGenerator(ctx, g.cfg, model, g.logger)
			if err != nil {
				return err
			}
			defer cleanup()

			session := chat.NewSession(gen, chat.WithLogger(g.logger.With(zap.String("command", "chat"))))
			if !tui.ApplyPalette(g.cfg.TUITheme) {
				g.logger.Warn("unknown tui theme, using default",
					zap.String("theme", g.cfg.TUITheme),
					zap.String("default", render.DefaultPalette))
			}

			g.logger.Info("chat started", zap.String("session", session.ID()), zap.String("model", model))
			if err := deps.RunChat(ctx, session, model, render.OptionsFromConfig(g.cfg)); err != nil {
				return fmt.Errorf("chat failed: %w", err)
			}
			g.logger.Info("chat ended", zap.String("session", session.ID()), zap.Int("messages", session.Len()))
			return nil
		},
	}
}
