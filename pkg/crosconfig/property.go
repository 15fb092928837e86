package crosconfig

import (
	"fmt"
	"iter"

	"github.com/crosconfig/crosconfig-go/pkg/fdt"
)

// Property is a single named property of a configuration node.
type Property struct {
	name  string
	value fdt.Value
}

// Name returns the property name.
func (p *Property) Name() string {
	return p.name
}

// Value returns the decoded property value.
func (p *Property) Value() fdt.Value {
	return p.value
}

// Type returns the value type inferred when the blob was decoded.
func (p *Property) Type() fdt.Kind {
	return p.value.Kind()
}

// String returns the value rendered as text.
func (p *Property) String() string {
	return p.value.String()
}

// GetPhandle returns the property value as a phandle. The value must be a
// single cell holding a handle of at least 1.
func (p *Property) GetPhandle() (uint32, error) {
	ph, ok := p.value.Int()
	if !ok {
		return 0, fmt.Errorf("%w: %q is %s of %d bytes", ErrNotPhandle, p.name, p.value.Kind(), p.value.Len())
	}
	if ph < 1 {
		return 0, fmt.Errorf("%w: %q is <%d>", ErrNotPhandle, p.name, ph)
	}
	return ph, nil
}

// PropertyMap is an insertion-ordered mapping of property names to values.
// The zero value is not usable; create one with NewPropertyMap.
type PropertyMap struct {
	keys   []string
	values map[string]fdt.Value
}

// NewPropertyMap creates an empty map.
func NewPropertyMap() *PropertyMap {
	return &PropertyMap{values: make(map[string]fdt.Value)}
}

// Len returns the number of entries.
func (m *PropertyMap) Len() int {
	return len(m.keys)
}

// Has reports whether name is present.
func (m *PropertyMap) Has(name string) bool {
	_, ok := m.values[name]
	return ok
}

// Get returns the value stored under name.
func (m *PropertyMap) Get(name string) (fdt.Value, bool) {
	v, ok := m.values[name]
	return v, ok
}

// GetString returns the value stored under name if it is a single string.
func (m *PropertyMap) GetString(name string) (string, bool) {
	v, ok := m.values[name]
	if !ok {
		return "", false
	}
	return v.Str()
}

// Set stores a value. Replacing an existing entry keeps its position; new
// entries are appended.
func (m *PropertyMap) Set(name string, value fdt.Value) {
	if _, ok := m.values[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.values[name] = value
}

// SetString stores a single-string value.
func (m *PropertyMap) SetString(name, value string) {
	m.Set(name, fdt.StringValue(value))
}

// Delete removes an entry.
func (m *PropertyMap) Delete(name string) {
	if _, ok := m.values[name]; !ok {
		return
	}
	delete(m.values, name)
	for i, k := range m.keys {
		if k == name {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the names in insertion order.
func (m *PropertyMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// All iterates over the entries in insertion order.
func (m *PropertyMap) All() iter.Seq2[string, fdt.Value] {
	return func(yield func(string, fdt.Value) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Strings returns every entry rendered as text, for serialization.
func (m *PropertyMap) Strings() map[string]string {
	out := make(map[string]string, len(m.keys))
	for _, k := range m.keys {
		out[k] = m.values[k].String()
	}
	return out
}
