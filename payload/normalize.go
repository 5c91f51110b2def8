package payload

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DiagnosticKind classifies a tolerated input problem.
type DiagnosticKind string

const (
	// DegradedInput marks a payload or field with an unexpected shape.
	DegradedInput DiagnosticKind = "degraded_input"
	// DecodeError marks JSON that could not be parsed.
	DecodeError DiagnosticKind = "decode_error"
)

// Diagnostic describes how normalization degraded the input.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	return string(d.Kind) + ": " + d.Message
}

// Source tells which extraction path produced a Record.
type Source string

const (
	SourceStandard Source = "standard"
	SourceStream   Source = "stream"
)

// Record is the canonical article record passed between pipeline stages.
type Record struct {
	Title        string
	Content      string
	CoverURL     string
	ThumbMediaID string
	Source       Source
}

// Normalized is the result of coercing a Raw payload into a mapping.
type Normalized struct {
	// Fields is the mapping the record was read from. Never nil.
	Fields map[string]any
	// StreamText is the candidate event-stream text from "data" or "body".
	StreamText string
	// Record holds the standard-format fields.
	Record      Record
	Diagnostics []Diagnostic
}

// Normalize coerces raw into a mapping and reads the standard fields from it.
// It never fails.
func Normalize(raw Raw) Normalized {
	var n Normalized
	n.Fields = n.coerce(raw, true)

	n.StreamText = n.firstString("data", "body")
	n.Record = Record{
		Title:        n.firstString("title"),
		Content:      n.firstString("content", "output"),
		CoverURL:     n.firstString("cover_url", "cover"),
		ThumbMediaID: n.firstString("thumb_media_id"),
		Source:       SourceStandard,
	}
	return n
}

// Resolve normalizes raw and prefers a decoded stream event over the
// standard fields when the payload carries one.
func Resolve(raw Raw) (Record, []Diagnostic) {
	n := Normalize(raw)
	if rec, ok := ExtractStreamEvent(n.StreamText); ok {
		return rec, n.Diagnostics
	}
	return n.Record, n.Diagnostics
}

func (n *Normalized) coerce(raw Raw, top bool) map[string]any {
	switch raw.kind {
	case KindMapping:
		if raw.obj == nil {
			return map[string]any{}
		}
		return raw.obj
	case KindSequence:
		if !top {
			n.degrade("nested sequence ignored")
			return map[string]any{}
		}
		if len(raw.seq) == 0 {
			return map[string]any{}
		}
		if len(raw.seq) > 1 {
			n.degrade(fmt.Sprintf("sequence of %d elements, using the first", len(raw.seq)))
		}
		return n.coerce(FromValue(raw.seq[0]), false)
	case KindString:
		var v any
		if err := json.Unmarshal([]byte(raw.str), &v); err != nil {
			n.Diagnostics = append(n.Diagnostics, Diagnostic{
				Kind:    DecodeError,
				Message: "string payload is not JSON, treating it as content",
			})
			return map[string]any{"content": raw.str}
		}
		if m, ok := v.(map[string]any); ok {
			return m
		}
		n.degrade("string payload decoded to a non-object value")
		return map[string]any{}
	default:
		if raw.other != nil {
			n.degrade(fmt.Sprintf("unsupported payload value of type %T", raw.other))
		}
		return map[string]any{}
	}
}

// firstString returns the first key whose value renders to a non-empty string.
func (n *Normalized) firstString(keys ...string) string {
	for _, key := range keys {
		v, ok := n.Fields[key]
		if !ok {
			continue
		}
		if s := n.stringify(key, v); s != "" {
			return s
		}
	}
	return ""
}

func (n *Normalized) stringify(key string, v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		n.degrade(fmt.Sprintf("field %q has unsupported type %T", key, v))
		return ""
	}
}

func (n *Normalized) degrade(msg string) {
	n.Diagnostics = append(n.Diagnostics, Diagnostic{Kind: DegradedInput, Message: msg})
}
