// Package tui provides the terminal chat interface for nimbus.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/nimbus/internal/errors"
	"github.com/diogo/nimbus/internal/render"
)

// Active palette; ApplyPalette swaps it and rebuilds the styles.
var palette render.Palette

var (
	headerStyle    lipgloss.Style
	titleStyle     lipgloss.Style
	subtitleStyle  lipgloss.Style
	separatorStyle lipgloss.Style

	messagesAreaStyle    lipgloss.Style
	userLabelStyle       lipgloss.Style
	userBubbleStyle      lipgloss.Style
	assistantLabelStyle  lipgloss.Style
	assistantBubbleStyle lipgloss.Style

	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	thinkingStyle   lipgloss.Style

	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style

	errorStyle  lipgloss.Style
	detailStyle lipgloss.Style
	noticeStyle lipgloss.Style

	welcomeIconStyle  lipgloss.Style
	welcomeTitleStyle lipgloss.Style
	welcomeTextStyle  lipgloss.Style
)

func init() {
	ApplyPalette(render.DefaultPalette)
}

// ApplyPalette activates the named palette, falling back to the default
// for unknown names. It reports whether name was found.
func ApplyPalette(name string) bool {
	_, ok := render.PaletteByName(name)
	palette = render.ResolvePalette(name)
	rebuildStyles()
	return ok
}

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(palette.Border).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(palette.Assistant).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(palette.Dim)

	separatorStyle = lipgloss.NewStyle().
		Foreground(palette.Muted)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(palette.Border).
		Padding(0, 1)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(palette.User).
		Bold(true).
		MarginLeft(4)

	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(palette.User).
		Foreground(palette.Text).
		Padding(0, 1).
		MarginLeft(4)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(palette.Assistant).
		Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(palette.Assistant).
		Padding(0, 1).
		MarginRight(4)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(palette.Border).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(palette.Assistant).
		Bold(true)

	thinkingStyle = lipgloss.NewStyle().
		Foreground(palette.Text)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(palette.Muted)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(palette.Dim).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(palette.Muted)

	errorStyle = lipgloss.NewStyle().
		Foreground(palette.Error).
		Bold(true)

	detailStyle = lipgloss.NewStyle().
		Foreground(palette.Dim).
		PaddingLeft(2)

	noticeStyle = lipgloss.NewStyle().
		Foreground(palette.User)

	welcomeIconStyle = lipgloss.NewStyle().
		Foreground(palette.Accent).
		Align(lipgloss.Center)

	welcomeTitleStyle = lipgloss.NewStyle().
		Foreground(palette.Assistant).
		Bold(true).
		Align(lipgloss.Center)

	welcomeTextStyle = lipgloss.NewStyle().
		Foreground(palette.Dim).
		Align(lipgloss.Center)
}

// ErrorHint returns a one-line suggestion for well-known failures, or "".
func ErrorHint(err error) string {
	switch {
	case err == nil:
		return ""
	case apierrors.IsAuthError(err):
		return "Set GEMINI_API_KEY or run 'nimbus config set-key'"
	case apierrors.IsRateLimitError(err):
		return "Usage limit reached. Try again later or use a different model"
	case apierrors.IsTimeoutError(err):
		return "Request timed out. Try again or raise 'timeout' in the config"
	case apierrors.IsBlockedError(err):
		return "The prompt or reply was blocked by safety filters"
	}
	return ""
}

// FormatError returns a styled error with status, endpoint and hint lines.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %v", err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString("\n")
		sb.WriteString(detailStyle.Render(fmt.Sprintf("HTTP Status: %d", status)))
	}
	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString("\n")
		sb.WriteString(detailStyle.Render("Endpoint: " + endpoint))
	}
	if hint := ErrorHint(err); hint != "" {
		sb.WriteString("\n")
		sb.WriteString(detailStyle.Render("Hint: " + hint))
	}

	return sb.String()
}
