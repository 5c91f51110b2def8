package markdown

import (
	"regexp"
	"strings"
)

// ![alt](url); alt may be empty, url stops at the first ")".
var reImage = regexp.MustCompile(`!\[([^\]]*)\]\(([^\)]+)\)`)

// ImageRef is a markdown image reference.
type ImageRef struct {
	Alt string
	URL string
}

// Snippet returns the markdown source of the reference.
func (r ImageRef) Snippet() string {
	return "![" + r.Alt + "](" + r.URL + ")"
}

// ExtractImages returns every image reference in md in order of appearance,
// duplicates included.
func ExtractImages(md string) []ImageRef {
	matches := reImage.FindAllStringSubmatch(md, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]ImageRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, ImageRef{Alt: m[1], URL: m[2]})
	}
	return refs
}

// ReplaceImage points every occurrence of ref in md at newURL.
func ReplaceImage(md string, ref ImageRef, newURL string) string {
	return strings.ReplaceAll(md, ref.Snippet(), ImageRef{Alt: ref.Alt, URL: newURL}.Snippet())
}
