// Package markdown renders memories and assistant replies for the terminal.
package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Renderer renders markdown with glamour and caches the output per source text.
// It is not safe for concurrent use.
type Renderer struct {
	glamour *glamour.TermRenderer
	width   int
	cache   map[string]string
}

// NewRenderer creates a renderer wrapping at width.
func NewRenderer(width int) (*Renderer, error) {
	gr, err := glamour.NewTermRenderer(
		glamour.WithStyles(customStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{glamour: gr, width: width, cache: map[string]string{}}, nil
}

// Render returns the terminal rendering of content. Content glamour rejects is returned as is.
func (r *Renderer) Render(content string) string {
	if rendered, ok := r.cache[content]; ok {
		return rendered
	}
	rendered, err := r.glamour.Render(content)
	if err != nil {
		return content
	}
	rendered = strings.Trim(rendered, "\n")
	r.cache[content] = rendered
	return rendered
}

// Width returns the wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// SetWidth updates the wrap width, dropping the cache when it changes.
func (r *Renderer) SetWidth(width int) error {
	if r.width == width {
		return nil
	}
	newRenderer, err := NewRenderer(width)
	if err != nil {
		return err
	}
	*r = *newRenderer
	return nil
}

// customStyle returns a modified glamour style for cleaner output.
func customStyle() ansi.StyleConfig {
	style := styles.DraculaStyleConfig
	zero := uint(0)
	style.Document.Margin = &zero
	style.CodeBlock.Margin = &zero
	style.CodeBlock.Indent = &zero
	style.CodeBlock.Prefix = ""
	style.CodeBlock.BlockPrefix = ""

	style.Code.Margin = &zero
	style.Code.Indent = &zero
	style.Code.Prefix = ""
	style.Code.Suffix = ""

	style.Paragraph.BlockPrefix = ""
	style.Paragraph.BlockSuffix = ""

	return style
}
