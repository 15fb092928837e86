package fdt

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"
)

// Kind is the inferred type of a property value.
type Kind uint8

const (
	// KindEmpty is a zero-length property (a boolean flag).
	KindEmpty Kind = iota
	// KindInt is one or more big-endian 32-bit cells.
	KindInt
	// KindString is a single NUL-terminated string.
	KindString
	// KindStrings is a list of NUL-terminated strings.
	KindStrings
	// KindBytes is anything else.
	KindBytes
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindStrings:
		return "strings"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Value is a typed property value. The zero Value is an empty property.
type Value struct {
	kind Kind
	raw  []byte
}

// ParseValue infers the type of raw property bytes.
//
// A value is a string (or string list) when it is NUL-terminated, starts
// with a printable byte, and contains only printable bytes and isolated
// NULs. Otherwise it is a cell array when its length is a multiple of four,
// and raw bytes when it is not.
func ParseValue(raw []byte) Value {
	switch {
	case len(raw) == 0:
		return Value{kind: KindEmpty}
	case isStringList(raw):
		if strings.IndexByte(string(raw[:len(raw)-1]), 0) < 0 {
			return Value{kind: KindString, raw: raw}
		}
		return Value{kind: KindStrings, raw: raw}
	case len(raw)%4 == 0:
		return Value{kind: KindInt, raw: raw}
	default:
		return Value{kind: KindBytes, raw: raw}
	}
}

func isStringList(raw []byte) bool {
	if raw[len(raw)-1] != 0 || raw[0] == 0 {
		return false
	}
	prevNul := false
	for _, b := range raw[:len(raw)-1] {
		if b == 0 {
			if prevNul {
				return false
			}
			prevNul = true
			continue
		}
		prevNul = false
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return !prevNul
}

// StringValue creates a single-string value.
func StringValue(s string) Value {
	raw := make([]byte, 0, len(s)+1)
	raw = append(raw, s...)
	return Value{kind: KindString, raw: append(raw, 0)}
}

// StringsValue creates a string list value.
func StringsValue(list ...string) Value {
	if len(list) == 1 {
		return StringValue(list[0])
	}
	var raw []byte
	for _, s := range list {
		raw = append(raw, s...)
		raw = append(raw, 0)
	}
	if len(raw) == 0 {
		return Value{kind: KindEmpty}
	}
	return Value{kind: KindStrings, raw: raw}
}

// IntValue creates a cell array value.
func IntValue(cells ...uint32) Value {
	if len(cells) == 0 {
		return Value{kind: KindEmpty}
	}
	raw := make([]byte, 4*len(cells))
	for i, c := range cells {
		binary.BigEndian.PutUint32(raw[4*i:], c)
	}
	return Value{kind: KindInt, raw: raw}
}

// BytesValue creates a raw byte value.
func BytesValue(b []byte) Value {
	if len(b) == 0 {
		return Value{kind: KindEmpty}
	}
	return Value{kind: KindBytes, raw: append([]byte(nil), b...)}
}

// Kind returns the inferred type.
func (v Value) Kind() Kind {
	return v.kind
}

// Bytes returns the raw encoded bytes.
func (v Value) Bytes() []byte {
	return v.raw
}

// Len returns the encoded length in bytes.
func (v Value) Len() int {
	return len(v.raw)
}

// Str returns the value of a single-string property.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return string(v.raw[:len(v.raw)-1]), true
}

// Strings returns the strings of a string or string list property.
func (v Value) Strings() []string {
	if v.kind != KindString && v.kind != KindStrings {
		return nil
	}
	return strings.Split(string(v.raw[:len(v.raw)-1]), "\x00")
}

// Int returns the value of a property holding exactly one cell. Strings
// and byte arrays of cell size are not cells.
func (v Value) Int() (uint32, bool) {
	if v.kind != KindInt || len(v.raw) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(v.raw), true
}

// Ints returns all cells of a cell array property.
func (v Value) Ints() []uint32 {
	if v.kind != KindInt {
		return nil
	}
	cells := make([]uint32, len(v.raw)/4)
	for i := range cells {
		cells[i] = binary.BigEndian.Uint32(v.raw[4*i:])
	}
	return cells
}

// String renders the value as text: strings verbatim, string lists and
// cell arrays space-separated, bytes as hex.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		s, _ := v.Str()
		return s
	case KindStrings:
		return strings.Join(v.Strings(), " ")
	case KindInt:
		cells := v.Ints()
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = strconv.FormatUint(uint64(c), 10)
		}
		return strings.Join(parts, " ")
	case KindBytes:
		return hex.EncodeToString(v.raw)
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and encoding.
func (v Value) Equal(other Value) bool {
	return v.kind == other.kind && string(v.raw) == string(other.raw)
}
