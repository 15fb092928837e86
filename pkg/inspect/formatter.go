package inspect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/crosconfig/crosconfig-go/pkg/crosconfig"
	"github.com/crosconfig/crosconfig-go/pkg/fdt"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowTypes includes the inferred value type after each property.
	ShowTypes bool

	// IndentWidth is the number of spaces per indent level.
	IndentWidth int

	// MaxDepth limits how many levels below the start node are printed.
	// Zero means unlimited.
	MaxDepth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowTypes:   false,
		IndentWidth: 2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	indent := strings.Repeat(" ", depth*width)
	return indent + content
}

// FormatValue formats a property value in device tree source notation.
func (f *Formatter) FormatValue(v fdt.Value) string {
	switch v.Kind() {
	case fdt.KindEmpty:
		return ""
	case fdt.KindString:
		s, _ := v.Str()
		return fmt.Sprintf("%q", s)
	case fdt.KindStrings:
		quoted := make([]string, 0, len(v.Strings()))
		for _, s := range v.Strings() {
			quoted = append(quoted, fmt.Sprintf("%q", s))
		}
		return strings.Join(quoted, ", ")
	case fdt.KindInt:
		cells := v.Ints()
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = fmt.Sprintf("0x%x", c)
		}
		return "<" + strings.Join(parts, " ") + ">"
	case fdt.KindBytes:
		parts := make([]string, len(v.Bytes()))
		for i, b := range v.Bytes() {
			parts[i] = fmt.Sprintf("%02x", b)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return v.String()
	}
}

// FormatProperty formats a single property as a DTS assignment.
func (f *Formatter) FormatProperty(name string, v fdt.Value) string {
	var line string
	if v.Kind() == fdt.KindEmpty {
		line = name + ";"
	} else {
		line = fmt.Sprintf("%s = %s;", name, f.FormatValue(v))
	}
	if f.ShowTypes {
		line += "  // " + v.Kind().String()
	}
	return line
}

// FormatNode formats a node and its descendants in device tree source
// notation.
func (f *Formatter) FormatNode(n *crosconfig.Node) string {
	var b strings.Builder
	f.writeNode(&b, n, 0)
	return b.String()
}

func (f *Formatter) writeNode(b *strings.Builder, n *crosconfig.Node, depth int) {
	name := n.Name()
	if name == "" {
		name = "/"
	}
	b.WriteString(f.Indent(depth, name+" {\n"))
	for _, p := range n.Properties() {
		b.WriteString(f.Indent(depth+1, f.FormatProperty(p.Name(), p.Value())))
		b.WriteByte('\n')
	}
	if f.MaxDepth > 0 && depth >= f.MaxDepth {
		if len(n.Subnodes()) > 0 {
			b.WriteString(f.Indent(depth+1, fmt.Sprintf("/* %d subnodes */\n", len(n.Subnodes()))))
		}
	} else {
		for _, child := range n.Subnodes() {
			f.writeNode(b, child, depth+1)
		}
	}
	b.WriteString(f.Indent(depth, "};\n"))
}

// FormatPropertyMap formats merged properties one per line, sorted by name.
func (f *Formatter) FormatPropertyMap(m *crosconfig.PropertyMap) string {
	keys := m.Keys()
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v, _ := m.Get(k)
		b.WriteString(f.FormatProperty(k, v))
		b.WriteByte('\n')
	}
	return b.String()
}
