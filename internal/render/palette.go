package render

import "github.com/charmbracelet/lipgloss"

// Palette is the color set used by the chat interface chrome. Markdown
// bodies are colored by the glamour style instead.
type Palette struct {
	Name string

	Border    lipgloss.Color
	User      lipgloss.Color
	Assistant lipgloss.Color
	Accent    lipgloss.Color
	Error     lipgloss.Color

	Text  lipgloss.Color
	Dim   lipgloss.Color
	Muted lipgloss.Color

	// Thinking cycles through these while a reply is pending.
	Thinking []lipgloss.Color
}

// DefaultPalette is used when the configured name is unknown.
const DefaultPalette = "tokyonight"

var palettes = []Palette{
	{
		Name:      "tokyonight",
		Border:    "#414868",
		User:      "#9ece6a",
		Assistant: "#7aa2f7",
		Accent:    "#bb9af7",
		Error:     "#f7768e",
		Text:      "#c0caf5",
		Dim:       "#565f89",
		Muted:     "#3b4261",
		Thinking:  []lipgloss.Color{"#7aa2f7", "#7dcfff", "#bb9af7", "#9ece6a"},
	},
	{
		Name:      "catppuccin",
		Border:    "#45475a",
		User:      "#a6e3a1",
		Assistant: "#89b4fa",
		Accent:    "#cba6f7",
		Error:     "#f38ba8",
		Text:      "#cdd6f4",
		Dim:       "#6c7086",
		Muted:     "#45475a",
		Thinking:  []lipgloss.Color{"#89b4fa", "#94e2d5", "#cba6f7", "#f5c2e7"},
	},
	{
		Name:      "nord",
		Border:    "#4c566a",
		User:      "#a3be8c",
		Assistant: "#88c0d0",
		Accent:    "#b48ead",
		Error:     "#bf616a",
		Text:      "#eceff4",
		Dim:       "#7b88a1",
		Muted:     "#4c566a",
		Thinking:  []lipgloss.Color{"#88c0d0", "#81a1c1", "#5e81ac", "#b48ead"},
	},
	{
		Name:      "light",
		Border:    "#c0c4d0",
		User:      "#40a02b",
		Assistant: "#1e66f5",
		Accent:    "#8839ef",
		Error:     "#d20f39",
		Text:      "#4c4f69",
		Dim:       "#8c8fa1",
		Muted:     "#bcc0cc",
		Thinking:  []lipgloss.Color{"#1e66f5", "#04a5e5", "#8839ef", "#40a02b"},
	},
}

// PaletteByName looks up a palette.
func PaletteByName(name string) (Palette, bool) {
	for _, p := range palettes {
		if p.Name == name {
			return p, true
		}
	}
	return Palette{}, false
}

// ResolvePalette returns the named palette or the default one.
func ResolvePalette(name string) Palette {
	if p, ok := PaletteByName(name); ok {
		return p
	}
	p, _ := PaletteByName(DefaultPalette)
	return p
}

// PaletteNames lists the available palettes.
func PaletteNames() []string {
	names := make([]string, len(palettes))
	for i, p := range palettes {
		names[i] = p.Name
	}
	return names
}
