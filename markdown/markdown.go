// Package markdown converts article markdown into the inline-styled HTML
// accepted by the WeChat editor, and exposes the pieces of that conversion:
// image reference extraction, the style table and a preview component.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// ContainerStyle is the baseline typography of the outer article container.
const ContainerStyle = "margin: 0; padding: 16px; font-family: -apple-system, 'PingFang SC', 'Microsoft YaHei', sans-serif; line-height: 1.75; color: #333;"

const defaultHighlightStyle = "github"

// Converter renders markdown with tables, fenced code and code highlighting.
// A Converter is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// Option configures a Converter.
type Option func(*converterOptions)

type converterOptions struct {
	highlightStyle string
}

// WithHighlightStyle selects the chroma style used for fenced code blocks.
func WithHighlightStyle(name string) Option {
	return func(o *converterOptions) {
		o.highlightStyle = name
	}
}

// NewConverter builds a Converter. Raw HTML inside markdown is passed through.
func NewConverter(opts ...Option) *Converter {
	o := converterOptions{highlightStyle: defaultHighlightStyle}
	for _, opt := range opts {
		opt(&o)
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Footnote,
			extension.DefinitionList,
			highlighting.NewHighlighting(
				highlighting.WithStyle(o.highlightStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithLineNumbers(false),
					chromahtml.PreventSurroundingPre(true),
				),
				highlighting.WithWrapperRenderer(codeBlockWrapper),
			),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Converter{md: md}
}

// codeBlockWrapper emits a bare <pre><code> around every fenced block so the
// style table applies to highlighted and plain blocks alike.
func codeBlockWrapper(w util.BufWriter, _ highlighting.CodeBlockContext, entering bool) {
	if entering {
		_, _ = w.WriteString("<pre><code>")
		return
	}
	_, _ = w.WriteString("</code></pre>\n")
}

// Convert renders src as unstyled HTML.
func (c *Converter) Convert(src string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return buf.String(), nil
}

// ToHTML renders src, applies the style table and wraps the result in the
// article container. Empty input is returned unchanged.
func (c *Converter) ToHTML(src string) (string, error) {
	if src == "" {
		return src, nil
	}
	body, err := c.Convert(src)
	if err != nil {
		return "", err
	}
	styled, err := ApplyStyles(body)
	if err != nil {
		return "", err
	}
	return Container(styled), nil
}

// Container wraps body in the styled article section.
func Container(body string) string {
	return "\n<section style=\"" + ContainerStyle + "\">\n" + body + "\n</section>\n"
}

// Preview returns a templ.Component rendering a standalone page around an
// already converted article body, sized like the WeChat reading view.
func Preview(title, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">"+
			"<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">"+
			"<title>"+templ.EscapeString(title)+"</title></head>"+
			"<body style=\"max-width: 677px; margin: 0 auto;\">"+
			"<h1 style=\"font-size: 24px; padding: 0 16px;\">"+templ.EscapeString(title)+"</h1>"+
			body+"</body></html>")
		return err
	})
}
