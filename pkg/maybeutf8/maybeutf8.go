// Package maybeutf8 provides a byte container for ZIP name and comment
// fields. Whether such a field is UTF-8 text is a per-entry runtime fact
// (general-purpose flag bit 11), so values keep their raw bytes and a
// validity tag instead of being forced into a string.
package maybeutf8

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Value holds either known-valid UTF-8 text or raw bytes. The zero Value is
// an empty raw-bytes value. Values are immutable; the bytes handed to
// FromBytes must not be modified afterwards.
type Value struct {
	b    []byte
	utf8 bool
}

// FromString builds a text Value. It always reports valid UTF-8, which Go
// strings are whenever they come from source literals or validated input.
func FromString(s string) Value {
	return Value{b: []byte(s), utf8: true}
}

// FromBytes builds a raw Value. It reports raw bytes even when b happens to
// be valid UTF-8; use Decode to promote it explicitly.
func FromBytes(b []byte) Value {
	return Value{b: b}
}

// IsUTF8 reports whether the value was constructed as (or decoded into)
// valid text.
func (v Value) IsUTF8() bool { return v.utf8 }

// Bytes returns the underlying bytes regardless of variant.
func (v Value) Bytes() []byte { return v.b }

// Len returns the byte length.
func (v Value) Len() int { return len(v.b) }

// AsString returns the value as text. For a raw value it checks UTF-8
// validity on the fly without changing the variant.
func (v Value) AsString() (string, bool) {
	if v.utf8 || utf8.Valid(v.b) {
		return string(v.b), true
	}
	return "", false
}

// Decode promotes a raw value to a text value. It reports false and returns
// the receiver unchanged when the bytes are not valid UTF-8.
func (v Value) Decode() (Value, bool) {
	if v.utf8 {
		return v, true
	}
	if !utf8.Valid(v.b) {
		return v, false
	}
	return Value{b: v.b, utf8: true}, true
}

// String returns a lossy display form: invalid byte sequences are replaced
// with the Unicode replacement character.
func (v Value) String() string {
	if v.utf8 {
		return string(v.b)
	}
	return strings.ToValidUTF8(string(v.b), string(utf8.RuneError))
}

// Equal compares by underlying byte content; the text/raw tag does not
// participate.
func (v Value) Equal(o Value) bool { return bytes.Equal(v.b, o.b) }

// Compare orders by underlying byte content, like bytes.Compare.
func (v Value) Compare(o Value) int { return bytes.Compare(v.b, o.b) }
