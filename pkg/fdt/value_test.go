package fdt

import (
	"reflect"
	"testing"
)

func TestParseValueKinds(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want Kind
	}{
		{"empty", nil, KindEmpty},
		{"single string", []byte("reef\x00"), KindString},
		{"string list", []byte("a\x00bc\x00"), KindStrings},
		{"one cell", []byte{0, 0, 0, 7}, KindInt},
		{"two cells", []byte{0, 0, 0, 1, 0, 0, 0, 2}, KindInt},
		{"odd bytes", []byte{1, 2, 3}, KindBytes},
		{"empty string inside list", []byte("a\x00\x00b\x00"), KindBytes},
		{"lone NUL", []byte{0}, KindBytes},
		{"non-printable", []byte{0x01, 0x02, 0x03, 0x00}, KindInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseValue(tt.raw).Kind(); got != tt.want {
				t.Errorf("ParseValue(%v).Kind() = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValueAccessors(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		v := StringValue("bcs://reef_ec.bin")
		s, ok := v.Str()
		if !ok || s != "bcs://reef_ec.bin" {
			t.Errorf("Str() = %q, %v", s, ok)
		}
		if _, ok := v.Int(); ok {
			t.Error("Int() should fail for a 18-byte string")
		}
		if v.String() != "bcs://reef_ec.bin" {
			t.Errorf("String() = %q", v.String())
		}
	})

	t.Run("Strings", func(t *testing.T) {
		v := StringsValue("google,reef", "google,coral")
		if v.Kind() != KindStrings {
			t.Fatalf("Kind() = %v, want strings", v.Kind())
		}
		if _, ok := v.Str(); ok {
			t.Error("Str() should fail for a string list")
		}
		want := []string{"google,reef", "google,coral"}
		if got := v.Strings(); !reflect.DeepEqual(got, want) {
			t.Errorf("Strings() = %v, want %v", got, want)
		}
		if v.String() != "google,reef google,coral" {
			t.Errorf("String() = %q", v.String())
		}
	})

	t.Run("Int", func(t *testing.T) {
		v := IntValue(42)
		n, ok := v.Int()
		if !ok || n != 42 {
			t.Errorf("Int() = %d, %v", n, ok)
		}
		if v.String() != "42" {
			t.Errorf("String() = %q", v.String())
		}
	})

	t.Run("Int rejects cell-sized non-cells", func(t *testing.T) {
		for _, v := range []Value{StringValue("abc"), BytesValue([]byte{0, 0, 0, 1})} {
			if n, ok := v.Int(); ok {
				t.Errorf("Int() on %s = %d, want failure", v.Kind(), n)
			}
		}
	})

	t.Run("Ints", func(t *testing.T) {
		v := IntValue(1, 2, 3)
		if _, ok := v.Int(); ok {
			t.Error("Int() should fail for three cells")
		}
		if got := v.Ints(); !reflect.DeepEqual(got, []uint32{1, 2, 3}) {
			t.Errorf("Ints() = %v", got)
		}
		if v.String() != "1 2 3" {
			t.Errorf("String() = %q", v.String())
		}
	})

	t.Run("Bytes", func(t *testing.T) {
		v := BytesValue([]byte{0xde, 0xad, 0xbe})
		if v.String() != "deadbe" {
			t.Errorf("String() = %q", v.String())
		}
	})

	t.Run("Zero", func(t *testing.T) {
		var v Value
		if v.Kind() != KindEmpty || v.Len() != 0 || v.String() != "" {
			t.Errorf("zero Value = %v/%d/%q", v.Kind(), v.Len(), v.String())
		}
	})
}

func TestValueRoundTripThroughParse(t *testing.T) {
	values := []Value{
		StringValue("overlay-reef-private"),
		StringsValue("a", "b"),
		IntValue(1),
		IntValue(1, 0xffffffff),
		BytesValue([]byte{9, 8, 7}),
	}
	for _, v := range values {
		if got := ParseValue(v.Bytes()); !got.Equal(v) {
			t.Errorf("ParseValue(%q) = %v %q, want %v", v.String(), got.Kind(), got.String(), v.Kind())
		}
	}
}
