package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func styleFor(tag string) string {
	for _, r := range StyleRules {
		if r.Tag == tag {
			return r.Style
		}
	}
	return ""
}

func TestExtractImages(t *testing.T) {
	md := "intro ![a](https://x.example.com/1.png) text ![](https://x.example.com/2.jpg?w=1)\n![a](https://x.example.com/1.png)"
	refs := ExtractImages(md)
	if len(refs) != 3 {
		t.Fatalf("ExtractImages returned %d refs, want 3", len(refs))
	}
	if refs[0].Alt != "a" || refs[0].URL != "https://x.example.com/1.png" {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if refs[1].Alt != "" || refs[1].URL != "https://x.example.com/2.jpg?w=1" {
		t.Errorf("refs[1] = %+v", refs[1])
	}
	if refs[2] != refs[0] {
		t.Errorf("duplicate reference should be kept: %+v", refs[2])
	}
}

func TestExtractImagesNone(t *testing.T) {
	if refs := ExtractImages("no images, just [a link](https://example.com)"); refs != nil {
		t.Errorf("ExtractImages = %v, want nil", refs)
	}
}

func TestReplaceImageRewritesEveryOccurrence(t *testing.T) {
	md := "![a](u1)\n![a](u1)\n![b](u1)"
	got := ReplaceImage(md, ImageRef{Alt: "a", URL: "u1"}, "remote")
	want := "![a](remote)\n![a](remote)\n![b](u1)"
	if got != want {
		t.Errorf("ReplaceImage = %q, want %q", got, want)
	}
}

func TestApplyStylesHeading(t *testing.T) {
	got, err := ApplyStyles("<h2>Title</h2>")
	if err != nil {
		t.Fatalf("ApplyStyles: %v", err)
	}
	want := `<h2 style="` + styleFor("h2") + `">Title</h2>`
	if got != want {
		t.Errorf("ApplyStyles = %q, want %q", got, want)
	}
	if n := strings.Count(got, "style="); n != 1 {
		t.Errorf("style attribute count = %d, want 1", n)
	}
}

func TestApplyStylesSkipsAttributedTags(t *testing.T) {
	tests := []string{
		`<p class="lead">kept</p>`,
		`<h3 id="x">kept</h3>`,
		`<pre tabindex="0">kept</pre>`,
	}
	for _, input := range tests {
		got, err := ApplyStyles(input)
		if err != nil {
			t.Fatalf("ApplyStyles(%q): %v", input, err)
		}
		if got != input {
			t.Errorf("ApplyStyles(%q) = %q, want unchanged", input, got)
		}
	}
}

func TestApplyStylesImage(t *testing.T) {
	got, err := ApplyStyles(`<img src="a.png" alt="A"><img src="b.png" style="width: 50%">`)
	if err != nil {
		t.Fatalf("ApplyStyles: %v", err)
	}
	if !strings.Contains(got, `<img src="a.png" alt="A" style="`+styleFor("img")+`"/>`) {
		t.Errorf("image without style should be styled: %q", got)
	}
	if !strings.Contains(got, `<img src="b.png" style="width: 50%"/>`) {
		t.Errorf("image with style should be left alone: %q", got)
	}
}

func TestApplyStylesNested(t *testing.T) {
	got, err := ApplyStyles("<ul><li>one <strong>bold</strong></li><li>two</li></ul>")
	if err != nil {
		t.Fatalf("ApplyStyles: %v", err)
	}
	for _, tag := range []string{"ul", "strong"} {
		if n := strings.Count(got, `<`+tag+` style="`+styleFor(tag)+`">`); n != 1 {
			t.Errorf("%s styled %d times, want 1: %q", tag, n, got)
		}
	}
	if n := strings.Count(got, `<li style="`+styleFor("li")+`">`); n != 2 {
		t.Errorf("li styled %d times, want 2: %q", n, got)
	}
}

func TestToHTMLHeadingsAndParagraphs(t *testing.T) {
	c := NewConverter()
	got, err := c.ToHTML("## Section\n\nSome **bold** text with `code`.\n\n### Sub\n\n> quoted")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if !strings.HasPrefix(got, "\n<section style=\""+ContainerStyle+"\">\n") {
		t.Errorf("missing container: %q", got)
	}
	for _, want := range []string{
		`<h2 style="` + styleFor("h2") + `">Section</h2>`,
		`<h3 style="` + styleFor("h3") + `">Sub</h3>`,
		`<strong style="` + styleFor("strong") + `">bold</strong>`,
		`<code style="` + styleFor("code") + `">code</code>`,
		`<blockquote style="` + styleFor("blockquote") + `">`,
		`<p style="` + styleFor("p") + `">Some `,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ToHTML output missing %q:\n%s", want, got)
		}
	}
}

func TestToHTMLTable(t *testing.T) {
	c := NewConverter()
	got, err := c.ToHTML("| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if !strings.Contains(got, "<table>") || !strings.Contains(got, "<th>a</th>") || !strings.Contains(got, "<td>2</td>") {
		t.Errorf("table not rendered: %q", got)
	}
}

func TestToHTMLCodeBlock(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"language tagged", "```go\nfmt.Println(1)\n```\n"},
		{"unknown language", "```nosuchlang\nfmt.Println(1)\n```\n"},
		{"untagged", "```\nfmt.Println(1)\n```\n"},
		{"indented", "    fmt.Println(1)\n"},
	}
	c := NewConverter()
	wantPre := `<pre style="` + styleFor("pre") + `">`
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ToHTML(tt.src)
			if err != nil {
				t.Fatalf("ToHTML: %v", err)
			}
			if !strings.Contains(got, wantPre) {
				t.Errorf("pre not styled: %q", got)
			}
			if strings.Count(got, "<pre") != 1 {
				t.Errorf("want exactly one pre element: %q", got)
			}
			if !strings.Contains(got, "Println") {
				t.Errorf("code block missing content: %q", got)
			}
		})
	}
}

func TestToHTMLBareURLStaysText(t *testing.T) {
	c := NewConverter()
	got, err := c.ToHTML("see https://example.com/page today\n")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if strings.Contains(got, "<a") {
		t.Errorf("bare URL should not be linked: %q", got)
	}
	if !strings.Contains(got, "https://example.com/page") {
		t.Errorf("URL text missing: %q", got)
	}
}

func TestToHTMLImage(t *testing.T) {
	c := NewConverter()
	got, err := c.ToHTML("![cover](https://mmbiz.example.com/a.png)")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if !strings.Contains(got, `src="https://mmbiz.example.com/a.png"`) {
		t.Errorf("image src missing: %q", got)
	}
	if !strings.Contains(got, `style="`+styleFor("img")+`"`) {
		t.Errorf("image not styled: %q", got)
	}
}

func TestToHTMLKeepsRawHTML(t *testing.T) {
	c := NewConverter()
	got, err := c.ToHTML("<p class=\"keep\">raw</p>\n\n## T\n")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if !strings.Contains(got, `<p class="keep">raw</p>`) {
		t.Errorf("raw HTML should pass through untouched: %q", got)
	}
}

func TestToHTMLEmpty(t *testing.T) {
	got, err := NewConverter().ToHTML("")
	if err != nil || got != "" {
		t.Errorf("ToHTML(\"\") = %q, %v; want empty", got, err)
	}
}

func TestPreview(t *testing.T) {
	var buf bytes.Buffer
	if err := Preview("A <b> title", "<p>body</p>").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "<title>A &lt;b&gt; title</title>") {
		t.Errorf("title should be escaped: %q", got)
	}
	if !strings.Contains(got, "<p>body</p>") {
		t.Errorf("body should be written as-is: %q", got)
	}
}
