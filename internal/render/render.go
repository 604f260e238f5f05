package render

import (
	"strings"

	"github.com/diogo/nimbus/internal/formatter"
)

// Markdown renders markdown content for terminal display.
// Uses a pooled renderer for thread safety.
func Markdown(content string, opts Options) (string, error) {
	if opts.TagCodeFences {
		content = TagCodeFences(content)
	}

	renderer, release, err := borrow(opts)
	if err != nil {
		return "", err
	}
	defer release()

	return renderer.Render(content)
}

// TagCodeFences adds a detected language to every opening ``` fence that
// has none. Fences whose body matches no language are left untagged.
func TagCodeFences(content string) string {
	if !strings.Contains(content, formatter.Fence) {
		return content
	}

	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		open := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(open, formatter.Fence) {
			continue
		}

		end := i + 1
		for end < len(lines) && strings.TrimSpace(lines[end]) != formatter.Fence {
			end++
		}
		if end == len(lines) {
			// Unterminated fence; leave the rest alone.
			break
		}

		if open == formatter.Fence {
			body := strings.Join(lines[i+1:end], "\n")
			if lang, ok := formatter.DetectLanguage(body); ok {
				lines[i] = strings.Replace(lines[i], formatter.Fence, formatter.Fence+lang, 1)
			}
		}
		i = end
	}
	return strings.Join(lines, "\n")
}
