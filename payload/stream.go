package payload

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Both header spacings seen in agent event streams:
//
//	event: Message\ndata: {...}
//	event:Message\ndata:{...}
var messageEventPatterns = []*regexp.Regexp{
	regexp.MustCompile(`event:\s*Message\s*\ndata:\s*(\{[^\n]+\})`),
	regexp.MustCompile(`(?s)event: Message\ndata: (\{.*?\})\n`),
}

type messageEvent struct {
	Content json.RawMessage `json:"content"`
}

type messageContent struct {
	Title  string `json:"title"`
	Output string `json:"output"`
	Cover  string `json:"cover"`
}

// ExtractStreamEvent finds the first "Message" event in a server-sent-event
// stream and decodes its doubly JSON-encoded article. It reports false when
// text is not a stream, has no Message event, or the event does not decode.
func ExtractStreamEvent(text string) (Record, bool) {
	if !strings.Contains(text, "event") {
		return Record{}, false
	}
	for _, re := range messageEventPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		mc, ok := decodeMessage(m[1])
		if !ok {
			continue
		}
		return Record{
			Title:    mc.Title,
			Content:  mc.Output,
			CoverURL: mc.Cover,
			Source:   SourceStream,
		}, true
	}
	return Record{}, false
}

func decodeMessage(data string) (messageContent, bool) {
	var ev messageEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return messageContent{}, false
	}

	inner := []byte(ev.Content)
	if len(inner) == 0 || string(inner) == "null" {
		inner = []byte("{}")
	}
	// content normally holds a JSON document encoded as a string.
	var encoded string
	if err := json.Unmarshal(inner, &encoded); err == nil {
		inner = []byte(encoded)
	}

	var mc messageContent
	if err := json.Unmarshal(inner, &mc); err != nil {
		return messageContent{}, false
	}
	return mc, true
}
