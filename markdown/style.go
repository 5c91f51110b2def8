package markdown

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StyleRule injects Style into opening tags named Tag.
type StyleRule struct {
	Tag   string
	Style string
}

// StyleRules is applied in order. A rule only touches elements that carry no
// attributes; img always carries src and alt, so it only needs to lack a style.
var StyleRules = []StyleRule{
	{"img", "max-width: 100%; height: auto; display: block; margin: 20px auto; border-radius: 4px;"},
	{"p", "margin: 16px 0; text-align: justify; font-size: 15px; line-height: 1.8;"},
	{"h2", "font-size: 22px; font-weight: bold; margin: 28px 0 18px; padding: 14px 20px; background-color: #4a6cf7; color: #ffffff; text-align: center; letter-spacing: 1px;"},
	{"h3", "font-size: 19px; font-weight: bold; margin: 24px 0 14px; padding: 10px 0 10px 16px; color: #2d3748; border-left: 5px solid #4a6cf7; background-color: #f7fafc;"},
	{"code", "padding: 2px 6px; background: #f5f5f5; border-radius: 3px; font-family: Consolas, Monaco, monospace; font-size: 14px;"},
	{"pre", "background: #f8f8f8; padding: 16px; border-radius: 4px; overflow-x: auto; margin: 16px 0;"},
	{"blockquote", "border-left: 4px solid #5b7be8; padding-left: 16px; margin: 16px 0; color: #666; background-color: #f7f9fa; padding: 12px 16px;"},
	{"ul", "margin: 16px 0; padding-left: 24px;"},
	{"li", "margin: 8px 0; line-height: 1.8;"},
	{"strong", "color: #5b7be8; font-weight: bold;"},
}

// ApplyStyles parses fragment as HTML body content and adds the StyleRules
// styles to matching bare elements.
func ApplyStyles(fragment string) (string, error) {
	rules := make(map[string]string, len(StyleRules))
	for _, r := range StyleRules {
		if _, dup := rules[r.Tag]; !dup {
			rules[r.Tag] = r.Style
		}
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var buf strings.Builder
	for _, n := range nodes {
		styleTree(n, rules)
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}

func styleTree(n *html.Node, rules map[string]string) {
	if n.Type == html.ElementNode {
		if style, ok := rules[n.Data]; ok && unstyled(n) {
			n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: style})
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		styleTree(c, rules)
	}
}

func unstyled(n *html.Node) bool {
	if n.DataAtom != atom.Img {
		return len(n.Attr) == 0
	}
	for _, a := range n.Attr {
		if a.Key == "style" {
			return false
		}
	}
	return true
}
