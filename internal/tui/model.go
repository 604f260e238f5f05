package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/nimbus/internal/chat"
	"github.com/diogo/nimbus/internal/render"
)

// ChatSession is the part of chat.Session the interface drives.
type ChatSession interface {
	Submit(ctx context.Context, text string) error
	Snapshot() chat.Snapshot
	Subscribe(obs chat.Observer) (unsubscribe func())
}

type (
	// snapshotMsg carries session state pushed by the session observer.
	snapshotMsg chat.Snapshot

	// submitDoneMsg is returned by the submit command once the turn settles.
	submitDoneMsg struct {
		snap chat.Snapshot
		err  error
	}

	animationTickMsg time.Time
)

// Model is the chat screen.
type Model struct {
	session   ChatSession
	ctx       context.Context
	modelName string
	renderOpt render.Options

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	snap           chat.Snapshot
	ready          bool
	err            error
	notice         string
	animationFrame int

	width  int
	height int
}

// NewChatModel creates the chat screen for session. Requests inherit the
// values of ctx but not its cancellation: a dispatched turn always runs to
// completion.
func NewChatModel(ctx context.Context, session ChatSession, modelName string, opts render.Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(palette.Text)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(palette.Dim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(palette.Accent).Bold(true)

	return Model{
		session:   session,
		ctx:       ctx,
		modelName: modelName,
		renderOpt: opts,
		textarea:  ta,
		spinner:   s,
		snap:      session.Snapshot(),
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func animationTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		inputHeight := 5
		statusHeight := 1
		borders := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - borders
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			// Submitting is disabled while a turn is pending.
			if m.snap.Pending {
				return m, nil
			}
			input := m.textarea.Value()
			trimmed := strings.TrimSpace(input)
			if trimmed == "" {
				return m, nil
			}
			if trimmed == "exit" || trimmed == "quit" || trimmed == "/exit" || trimmed == "/quit" {
				return m, tea.Quit
			}
			if trimmed == "/save" || strings.HasPrefix(trimmed, "/save ") {
				m.textarea.Reset()
				m.saveTranscript(strings.TrimSpace(strings.TrimPrefix(trimmed, "/save")))
				return m, nil
			}

			m.textarea.Reset()
			m.err = nil
			m.notice = ""
			m.animationFrame = 0

			// Show the user message and pending state before the session
			// reports them.
			m.snap.Messages = append(m.snap.Messages, chat.Message{Text: input, Sender: chat.SenderUser, Time: time.Now()})
			m.snap.Pending = true
			m.updateViewport()
			m.viewport.GotoBottom()

			return m, tea.Batch(m.submit(input), m.spinner.Tick, animationTick())
		}

	case snapshotMsg:
		m.applySnapshot(chat.Snapshot(msg))

	case submitDoneMsg:
		m.applySnapshot(msg.snap)
		if msg.err != nil {
			m.err = msg.err
		}

	case spinner.TickMsg:
		if m.snap.Pending {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.snap.Pending {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only key presses reach the textarea, and only while idle.
	if !m.snap.Pending {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit runs one session turn off the event loop.
func (m Model) submit(text string) tea.Cmd {
	ctx := context.WithoutCancel(m.ctx)
	session := m.session
	return func() tea.Msg {
		err := session.Submit(ctx, text)
		return submitDoneMsg{snap: session.Snapshot(), err: err}
	}
}

// saveTranscript writes the transcript to path, as JSON when the path ends
// in .json and as markdown otherwise. An empty path uses a name derived
// from the session ID in the working directory.
func (m *Model) saveTranscript(path string) {
	m.err = nil
	m.notice = ""

	if path == "" {
		id := m.snap.SessionID
		if len(id) > 8 {
			id = id[:8]
		}
		path = "nimbus-" + id + ".md"
	}

	format := chat.ExportMarkdown
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = chat.ExportJSON
	}

	data, err := chat.Export(m.snap, format)
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		m.err = fmt.Errorf("failed to save transcript: %w", err)
		return
	}
	m.notice = fmt.Sprintf("Saved %d messages to %s", len(m.snap.Messages), path)
}

func (m *Model) applySnapshot(snap chat.Snapshot) {
	grew := len(snap.Messages) != len(m.snap.Messages)
	m.snap = snap
	if grew {
		m.updateViewport()
		m.viewport.GotoBottom()
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return subtitleStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	var sections []string

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("☁ Nimbus"),
		separatorStyle.Render("  •  "),
		subtitleStyle.Render(m.modelName),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(header))

	body := m.viewport.View()
	if len(m.snap.Messages) == 0 {
		body = m.renderWelcome()
	}
	sections = append(sections, messagesAreaStyle.Width(contentWidth).Height(m.viewport.Height).Render(body))

	var input string
	if m.snap.Pending {
		input = m.renderThinking()
	} else {
		input = lipgloss.JoinVertical(lipgloss.Left, inputLabelStyle.Render("You"), m.textarea.View())
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(input))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	} else if m.notice != "" {
		sections = append(sections, noticeStyle.Render("✓ "+m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	content := lipgloss.JoinVertical(lipgloss.Center,
		welcomeIconStyle.Width(width).Render("☁"),
		"",
		welcomeTitleStyle.Width(width).Render("Welcome to Nimbus"),
		"",
		welcomeTextStyle.Width(width).Render("Ask anything. Lists, tables and code in replies are tidied up for you."),
	)

	topPadding := (m.viewport.Height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderThinking draws the pending indicator: the spinner, a label whose
// color cycles through the palette, and a row of filling dots.
func (m Model) renderThinking() string {
	colors := palette.Thinking
	frame := m.animationFrame

	label := lipgloss.NewStyle().
		Foreground(colors[frame%len(colors)]).
		Bold(true).
		Render("Thinking")

	var dots strings.Builder
	filled := frame % 4
	for i := 0; i < 3; i++ {
		if i < filled {
			dots.WriteString(lipgloss.NewStyle().Foreground(colors[(frame+i)%len(colors)]).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(palette.Muted).Render("○"))
		}
	}

	return thinkingStyle.Render(m.spinner.View() + " " + label + " " + dots.String())
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
		{"/save", "Export"},
	}
	if m.snap.Pending {
		shortcuts[0].desc = "Waiting"
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport re-renders the transcript into the viewport.
func (m *Model) updateViewport() {
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	var content strings.Builder
	for i, msg := range m.snap.Messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.IsUser() {
			content.WriteString(userLabelStyle.Render("● You"))
			content.WriteString("\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Text))
		} else {
			rendered, err := render.Markdown(msg.Text, m.renderOpt.WithWidth(bubbleWidth-4))
			if err != nil {
				rendered = msg.Text
			}
			content.WriteString(assistantLabelStyle.Render("☁ Nimbus"))
			content.WriteString("\n")
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(strings.TrimRight(rendered, "\n")))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat runs the chat screen until the user quits. Session changes made
// by in-flight requests are pushed to the screen as they happen.
func RunChat(ctx context.Context, session ChatSession, modelName string, opts render.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewChatModel(ctx, session, modelName, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := session.Subscribe(func(snap chat.Snapshot) {
		p.Send(snapshotMsg(snap))
	})
	defer unsubscribe()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
