package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// rendererKey is the part of Options that shapes a renderer. TagCodeFences
// only preprocesses the input and is left out.
type rendererKey struct {
	style       string
	width       int
	emoji       bool
	newlines    bool
	tableWrap   bool
	inlineLinks bool
}

func keyFor(opts Options) rendererKey {
	return rendererKey{
		style:       opts.Style,
		width:       opts.Width,
		emoji:       opts.EnableEmoji,
		newlines:    opts.PreserveNewLines,
		tableWrap:   opts.TableWrap,
		inlineLinks: opts.InlineTableLinks,
	}
}

// renderers maps a rendererKey to a *sync.Pool of idle renderers. A
// glamour.TermRenderer must not serve two Render calls at once.
var renderers sync.Map

// borrow returns a renderer for opts and the func that hands it back.
func borrow(opts Options) (*glamour.TermRenderer, func(), error) {
	key := keyFor(opts)
	v, ok := renderers.Load(key)
	if !ok {
		v, _ = renderers.LoadOrStore(key, new(sync.Pool))
	}
	pool := v.(*sync.Pool)

	r, ok := pool.Get().(*glamour.TermRenderer)
	if !ok {
		var err error
		if r, err = newRenderer(opts); err != nil {
			return nil, nil, err
		}
	}
	return r, func() { pool.Put(r) }, nil
}

// newRenderer builds a TermRenderer; glamour resolves both built-in style
// names and JSON style paths.
func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	style := opts.Style
	if style == "" {
		style = StyleDark
	}

	options := []glamour.TermRendererOption{
		glamour.WithStylePath(style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		options = append(options, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		options = append(options, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(options...)
}

// ClearCache drops every pooled renderer.
func ClearCache() {
	renderers.Clear()
}

// CacheSize returns the number of distinct renderer configurations seen.
func CacheSize() int {
	n := 0
	renderers.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
