package richtext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer turns optimizer prose into sanitized HTML and strips markup from
// short free-text fields.
type Renderer struct {
	markdown goldmark.Markdown
	ugc      *bluemonday.Policy
	strict   *bluemonday.Policy
}

// New constructs a renderer with GFM tables and autolinks enabled.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	ugc := bluemonday.UGCPolicy()
	ugc.RequireNoFollowOnLinks(true)
	ugc.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		markdown: md,
		ugc:      ugc,
		strict:   bluemonday.StrictPolicy(),
	}
}

// Markdown renders source and sanitizes the result. Blank input yields "".
func (r *Renderer) Markdown(source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(r.ugc.Sanitize(buf.String())), nil
}

// PlainText removes every tag from input and trims surrounding whitespace.
func (r *Renderer) PlainText(input string) string {
	return strings.TrimSpace(r.strict.Sanitize(input))
}

// PlainTextPtr applies PlainText to an optional value. Values that become
// empty are returned as nil.
func (r *Renderer) PlainTextPtr(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := r.PlainText(*input)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
