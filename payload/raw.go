// Package payload turns an arbitrarily shaped publish request body into a
// canonical article record.
//
// Request bodies arrive from workflow tools and AI agents in several shapes:
// a JSON array wrapping an object, a plain object, a JSON document serialized
// into a string, or a server-sent-event stream captured as text. Normalization
// is total: malformed input degrades to an empty or partial record and the
// degradation is reported as a Diagnostic instead of an error.
package payload

import (
	"bytes"
	"encoding/json"
)

// Kind identifies which shape a Raw payload has.
type Kind int

const (
	KindOther Kind = iota
	KindSequence
	KindMapping
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindString:
		return "string"
	default:
		return "other"
	}
}

// Raw is a request payload of uncertain shape. Exactly one of the variant
// fields is meaningful, selected by Kind.
type Raw struct {
	kind  Kind
	seq   []any
	obj   map[string]any
	str   string
	other any
}

// Sequence returns a sequence payload.
func Sequence(items ...any) Raw {
	return Raw{kind: KindSequence, seq: items}
}

// Mapping returns a mapping payload.
func Mapping(m map[string]any) Raw {
	return Raw{kind: KindMapping, obj: m}
}

// String returns a string payload.
func String(s string) Raw {
	return Raw{kind: KindString, str: s}
}

// FromValue wraps a value produced by encoding/json (or built by hand with the
// same types) in the matching variant.
func FromValue(v any) Raw {
	switch t := v.(type) {
	case []any:
		return Sequence(t...)
	case map[string]any:
		return Mapping(t)
	case string:
		return String(t)
	default:
		return Raw{kind: KindOther, other: v}
	}
}

// Decode builds a payload from request body bytes. Bodies that are not valid
// JSON are kept verbatim as a string payload.
func Decode(body []byte) Raw {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Raw{kind: KindOther}
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return String(string(body))
	}
	return FromValue(v)
}

// Kind reports the payload shape.
func (r Raw) Kind() Kind { return r.kind }

// Len returns the number of elements of a sequence payload and 0 otherwise.
func (r Raw) Len() int { return len(r.seq) }
