// Package treespec compiles a YAML description of a configuration tree into
// a flattened device tree.
//
// A mapping value is a subnode and any other value is a property:
//
//	chromeos:
//	  family:
//	    firmware:
//	      shared:
//	        $label: reef_fw
//	        bcs-overlay: overlay-reef-private
//	        ec-image: bcs://reef_ec.bin
//	  models:
//	    reef:
//	      firmware:
//	        shares: !ref reef_fw
//
// Value rules:
//
//	"text"            string
//	42                one u32 cell
//	[a, b]            string list
//	[1, 2]            cell array
//	!ref label        phandle cell of the node labelled label
//	!bytes "0a0b"     raw bytes, hex encoded
//	~ / true          empty property
//	false             property omitted
//
// Nodes named by a !ref get a "phandle" property assigned in tree order,
// unless they already declare one.
package treespec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crosconfig/crosconfig-go/pkg/fdt"
)

// LabelKey is the mapping key that labels the enclosing node.
const LabelKey = "$label"

// YAML tags understood by the compiler.
const (
	RefTag   = "!ref"
	BytesTag = "!bytes"
)

// Compile errors.
var (
	ErrUnknownLabel   = errors.New("unknown label")
	ErrDuplicateLabel = errors.New("duplicate label")
	ErrBadValue       = errors.New("unsupported value")
)

// cell is one element of a cell array, either a literal or a reference.
type cell struct {
	value uint32
	label string
	line  int
}

type pendingRef struct {
	node  *fdt.Node
	name  string
	cells []cell
}

type compiler struct {
	labels map[string]*fdt.Node
	refs   []pendingRef
}

// Compile parses a YAML tree description and returns the indexed tree.
func Compile(data []byte) (*fdt.Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}

	tree := fdt.NewTree()
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: %w: top level must be a mapping", root.Line, ErrBadValue)
		}
		c := &compiler{labels: make(map[string]*fdt.Node)}
		if err := c.fillNode(tree.Root, root); err != nil {
			return nil, err
		}
		if err := c.resolveRefs(tree); err != nil {
			return nil, err
		}
	}

	if err := tree.Index(); err != nil {
		return nil, err
	}
	return tree, nil
}

// CompileFile compiles the YAML tree description at path.
func CompileFile(path string) (*fdt.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	tree, err := Compile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// CompileBlob compiles a YAML tree description straight to a blob.
func CompileBlob(data []byte) ([]byte, error) {
	tree, err := Compile(data)
	if err != nil {
		return nil, err
	}
	return fdt.Encode(tree)
}

func (c *compiler) fillNode(n *fdt.Node, m *yaml.Node) error {
	for i := 0; i < len(m.Content)-1; i += 2 {
		key, val := m.Content[i], m.Content[i+1]
		name := key.Value

		if name == LabelKey {
			if err := c.addLabel(n, val); err != nil {
				return err
			}
			continue
		}

		if val.Kind == yaml.MappingNode {
			child := n.AddSubnode(fdt.NewNode(name))
			if err := c.fillNode(child, val); err != nil {
				return err
			}
			continue
		}

		if err := c.setProp(n, name, val); err != nil {
			return fmt.Errorf("line %d: property %q: %w", key.Line, name, err)
		}
	}
	return nil
}

func (c *compiler) addLabel(n *fdt.Node, val *yaml.Node) error {
	if val.Kind != yaml.ScalarNode || val.Value == "" {
		return fmt.Errorf("line %d: %w: %s must be a non-empty string", val.Line, ErrBadValue, LabelKey)
	}
	if _, dup := c.labels[val.Value]; dup {
		return fmt.Errorf("line %d: %w: %s", val.Line, ErrDuplicateLabel, val.Value)
	}
	c.labels[val.Value] = n
	return nil
}

func (c *compiler) setProp(n *fdt.Node, name string, val *yaml.Node) error {
	switch val.Kind {
	case yaml.ScalarNode:
		return c.setScalar(n, name, val)
	case yaml.SequenceNode:
		return c.setSequence(n, name, val)
	case yaml.AliasNode:
		return c.setProp(n, name, val.Alias)
	default:
		return fmt.Errorf("%w: node kind %d", ErrBadValue, val.Kind)
	}
}

func (c *compiler) setScalar(n *fdt.Node, name string, val *yaml.Node) error {
	switch val.Tag {
	case RefTag:
		c.refs = append(c.refs, pendingRef{node: n, name: name, cells: []cell{{label: val.Value, line: val.Line}}})
		// Placeholder keeps property order; resolveRefs fills in the cell.
		n.SetProp(name, fdt.IntValue(0))
	case BytesTag:
		b, err := hex.DecodeString(strings.ReplaceAll(val.Value, " ", ""))
		if err != nil {
			return fmt.Errorf("%w: bad hex: %v", ErrBadValue, err)
		}
		n.SetProp(name, fdt.BytesValue(b))
	case "!!null":
		n.SetProp(name, fdt.Value{})
	case "!!bool":
		if val.Value == "true" || val.Value == "True" || val.Value == "TRUE" {
			n.SetProp(name, fdt.Value{})
		}
	case "!!int":
		v, err := parseCell(val.Value)
		if err != nil {
			return err
		}
		n.SetProp(name, fdt.IntValue(v))
	case "!!str", "!!float", "!!timestamp", "!":
		n.SetProp(name, fdt.StringValue(val.Value))
	default:
		return fmt.Errorf("%w: tag %s", ErrBadValue, val.Tag)
	}
	return nil
}

func (c *compiler) setSequence(n *fdt.Node, name string, seq *yaml.Node) error {
	if len(seq.Content) == 0 {
		n.SetProp(name, fdt.Value{})
		return nil
	}

	var strs []string
	var cells []cell
	hasRef := false
	for _, item := range seq.Content {
		if item.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w: nested sequences and mappings are not properties", ErrBadValue)
		}
		switch item.Tag {
		case "!!str":
			strs = append(strs, item.Value)
		case "!!int":
			v, err := parseCell(item.Value)
			if err != nil {
				return err
			}
			cells = append(cells, cell{value: v})
		case RefTag:
			hasRef = true
			cells = append(cells, cell{label: item.Value, line: item.Line})
		default:
			return fmt.Errorf("%w: sequence item tag %s", ErrBadValue, item.Tag)
		}
	}

	switch {
	case len(strs) > 0 && len(cells) > 0:
		return fmt.Errorf("%w: sequence mixes strings and cells", ErrBadValue)
	case len(strs) > 0:
		n.SetProp(name, fdt.StringsValue(strs...))
	case hasRef:
		c.refs = append(c.refs, pendingRef{node: n, name: name, cells: cells})
		n.SetProp(name, fdt.IntValue(make([]uint32, len(cells))...))
	default:
		vals := make([]uint32, len(cells))
		for i, cl := range cells {
			vals[i] = cl.value
		}
		n.SetProp(name, fdt.IntValue(vals...))
	}
	return nil
}

// resolveRefs assigns phandles to referenced nodes and patches every
// reference property.
func (c *compiler) resolveRefs(tree *fdt.Tree) error {
	wanted := make(map[*fdt.Node]bool)
	for _, r := range c.refs {
		for _, cl := range r.cells {
			if cl.label == "" {
				continue
			}
			target, ok := c.labels[cl.label]
			if !ok {
				return fmt.Errorf("line %d: %w: %s", cl.line, ErrUnknownLabel, cl.label)
			}
			wanted[target] = true
		}
	}

	used := make(map[uint32]bool)
	var order []*fdt.Node
	walk(tree.Root, func(n *fdt.Node) {
		order = append(order, n)
		if ph, ok := declaredPhandle(n); ok {
			used[ph] = true
		}
	})

	next := uint32(1)
	for _, n := range order {
		if !wanted[n] {
			continue
		}
		if ph, ok := declaredPhandle(n); ok {
			n.Phandle = ph
			continue
		}
		for used[next] {
			next++
		}
		used[next] = true
		n.Phandle = next
		n.SetProp(fdt.PhandleProp, fdt.IntValue(next))
	}

	for _, r := range c.refs {
		vals := make([]uint32, len(r.cells))
		for i, cl := range r.cells {
			if cl.label == "" {
				vals[i] = cl.value
				continue
			}
			vals[i] = c.labels[cl.label].Phandle
		}
		r.node.SetProp(r.name, fdt.IntValue(vals...))
	}
	return nil
}

func declaredPhandle(n *fdt.Node) (uint32, bool) {
	for _, name := range []string{fdt.PhandleProp, fdt.LegacyPhandleProp} {
		if p, ok := n.Prop(name); ok {
			if ph, ok := p.Value.Int(); ok && ph != 0 {
				return ph, true
			}
		}
	}
	return 0, false
}

func walk(n *fdt.Node, fn func(*fdt.Node)) {
	fn(n)
	for _, child := range n.Subnodes {
		walk(child, fn)
	}
}

func parseCell(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a 32-bit cell", ErrBadValue, s)
	}
	return uint32(v), nil
}
