package payload

import (
	"encoding/json"
	"testing"
)

func sseBody(t *testing.T, sep string, title, output, cover string) string {
	t.Helper()
	inner, err := json.Marshal(map[string]string{"title": title, "output": output, "cover": cover})
	if err != nil {
		t.Fatalf("marshal inner: %v", err)
	}
	outer, err := json.Marshal(map[string]string{"content": string(inner), "role": "assistant"})
	if err != nil {
		t.Fatalf("marshal outer: %v", err)
	}
	return "event" + sep + "Start\ndata" + sep + "{}\n\n" +
		"event" + sep + "Message\ndata" + sep + string(outer) + "\n\n" +
		"event" + sep + "Done\ndata" + sep + "{}\n"
}

func TestNormalizeShapes(t *testing.T) {
	tests := []struct {
		name    string
		raw     Raw
		title   string
		content string
	}{
		{"empty sequence", Sequence(), "", ""},
		{"single element sequence", Sequence(map[string]any{"title": "T", "content": "C"}), "T", "C"},
		{"mapping", Mapping(map[string]any{"title": "T", "output": "O"}), "T", "O"},
		{"json string", String(`{"title":"T","content":"C"}`), "T", "C"},
		{"non-json string", String("just some words"), "", "just some words"},
		{"sequence of json string", Sequence(`{"title":"T"}`), "T", ""},
		{"nested sequence", Sequence([]any{map[string]any{"title": "T"}}), "", ""},
		{"null", FromValue(nil), "", ""},
		{"number", FromValue(42.0), "", ""},
		{"nil mapping", Mapping(nil), "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalize(tt.raw)
			if n.Fields == nil {
				t.Fatal("Fields should never be nil")
			}
			if n.Record.Title != tt.title {
				t.Errorf("Title = %q, want %q", n.Record.Title, tt.title)
			}
			if n.Record.Content != tt.content {
				t.Errorf("Content = %q, want %q", n.Record.Content, tt.content)
			}
		})
	}
}

func TestNormalizeFieldFallbacks(t *testing.T) {
	n := Normalize(Mapping(map[string]any{
		"content":        "",
		"output":         "from output",
		"cover":          "https://img.example.com/c.png",
		"thumb_media_id": "thumb-1",
		"body":           "stream text",
	}))
	if n.Record.Content != "from output" {
		t.Errorf("Content = %q, want fallback to output", n.Record.Content)
	}
	if n.Record.CoverURL != "https://img.example.com/c.png" {
		t.Errorf("CoverURL = %q", n.Record.CoverURL)
	}
	if n.Record.ThumbMediaID != "thumb-1" {
		t.Errorf("ThumbMediaID = %q", n.Record.ThumbMediaID)
	}
	if n.StreamText != "stream text" {
		t.Errorf("StreamText = %q, want body fallback", n.StreamText)
	}
}

func TestNormalizeReportsDiagnostics(t *testing.T) {
	n := Normalize(String("not json"))
	if len(n.Diagnostics) != 1 || n.Diagnostics[0].Kind != DecodeError {
		t.Fatalf("Diagnostics = %v, want one decode error", n.Diagnostics)
	}

	n = Normalize(Mapping(map[string]any{"title": map[string]any{"x": 1}, "content": 12.5}))
	if n.Record.Title != "" {
		t.Errorf("Title = %q, want empty for object value", n.Record.Title)
	}
	if n.Record.Content != "12.5" {
		t.Errorf("Content = %q, want formatted number", n.Record.Content)
	}
	if len(n.Diagnostics) != 1 || n.Diagnostics[0].Kind != DegradedInput {
		t.Errorf("Diagnostics = %v, want one degraded input", n.Diagnostics)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		body string
		kind Kind
	}{
		{`[{"title":"a"}]`, KindSequence},
		{`{"title":"a"}`, KindMapping},
		{`"{\"title\":\"a\"}"`, KindString},
		{`event: Message`, KindString},
		{`null`, KindOther},
		{``, KindOther},
	}
	for _, tt := range tests {
		if got := Decode([]byte(tt.body)).Kind(); got != tt.kind {
			t.Errorf("Decode(%q).Kind() = %v, want %v", tt.body, got, tt.kind)
		}
	}
}

func TestExtractStreamEventSpacings(t *testing.T) {
	for _, sep := range []string{": ", ":"} {
		text := sseBody(t, sep, "标题", "## Body\n\ntext", "https://img.example.com/cover.png")
		rec, ok := ExtractStreamEvent(text)
		if !ok {
			t.Fatalf("separator %q: expected a match", sep)
		}
		if rec.Title != "标题" {
			t.Errorf("separator %q: Title = %q", sep, rec.Title)
		}
		if rec.Content != "## Body\n\ntext" {
			t.Errorf("separator %q: Content = %q", sep, rec.Content)
		}
		if rec.CoverURL != "https://img.example.com/cover.png" {
			t.Errorf("separator %q: CoverURL = %q", sep, rec.CoverURL)
		}
		if rec.Source != SourceStream {
			t.Errorf("separator %q: Source = %q", sep, rec.Source)
		}
	}
}

func TestExtractStreamEventNoMatch(t *testing.T) {
	tests := []string{
		"",
		"plain content without events",
		"event: Done\ndata: {}\n",
		"event: Message\ndata: {not json}\n",
		"event: Message\ndata: {\"content\": \"not json either\"}\n",
	}
	for _, text := range tests {
		if _, ok := ExtractStreamEvent(text); ok {
			t.Errorf("ExtractStreamEvent(%q) matched, want no match", text)
		}
	}
}

func TestExtractStreamEventSingleEncoding(t *testing.T) {
	text := "event: Message\ndata: {\"content\": {\"title\": \"T\", \"output\": \"O\"}}\n"
	rec, ok := ExtractStreamEvent(text)
	if !ok {
		t.Fatal("expected a match for an object content field")
	}
	if rec.Title != "T" || rec.Content != "O" {
		t.Errorf("got %+v", rec)
	}
}

func TestResolvePrefersStream(t *testing.T) {
	body := sseBody(t, ": ", "Stream title", "stream output", "")
	raw := Sequence(map[string]any{
		"data":           body,
		"title":          "outer title",
		"thumb_media_id": "ignored",
	})
	rec, _ := Resolve(raw)
	if rec.Title != "Stream title" || rec.Content != "stream output" {
		t.Errorf("Resolve = %+v, want stream fields", rec)
	}
	if rec.ThumbMediaID != "" {
		t.Errorf("ThumbMediaID = %q, want empty for stream records", rec.ThumbMediaID)
	}

	rec, _ = Resolve(Mapping(map[string]any{"data": "no events here", "title": "outer"}))
	if rec.Title != "outer" || rec.Source != SourceStandard {
		t.Errorf("Resolve fallback = %+v", rec)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		content string
		want    Format
	}{
		{"", FormatPlain},
		{"hello world", FormatPlain},
		{"intro ![x](y) outro", FormatMarkdown},
		{"<p>![x](y)</p>", FormatMarkdown},
		{"# A\n## B\n### C", FormatMarkdown},
		{"<p>para</p>", FormatHTML},
		{"<div>block</div>", FormatHTML},
		{"<section># a ## b ### c</section>", FormatHTML},
		{"only # two #", FormatPlain},
	}
	for _, tt := range tests {
		if got := Classify(tt.content); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestClassifyHeadingProbeCountsRunes(t *testing.T) {
	// 100 multi-byte runes push the "<" past the probe window.
	prefix := ""
	for i := 0; i < 100; i++ {
		prefix += "文"
	}
	content := prefix + "<br>\n# a\n## b\n### c"
	if got := Classify(content); got != FormatMarkdown {
		t.Errorf("Classify = %q, want markdown", got)
	}
}
