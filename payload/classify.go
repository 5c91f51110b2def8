package payload

import "strings"

// Format is the detected markup of record content.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPlain    Format = "plain"
)

const headingProbeRunes = 100

var htmlBlockOpeners = []string{"<p>", "<div>", "<section>"}

// Classify reports whether content is markdown, HTML or plain text.
// Markdown wins over HTML: generated markdown often embeds a few raw tags.
func Classify(content string) Format {
	if content == "" {
		return FormatPlain
	}
	if strings.Contains(content, "![") {
		return FormatMarkdown
	}
	if strings.Count(content, "#") > 2 && !strings.Contains(firstRunes(content, headingProbeRunes), "<") {
		return FormatMarkdown
	}
	for _, tag := range htmlBlockOpeners {
		if strings.Contains(content, tag) {
			return FormatHTML
		}
	}
	return FormatPlain
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
