package fdt

import (
	"errors"
	"fmt"
	"strings"
)

// Blob format constants.
const (
	// Magic is the first word of every blob.
	Magic uint32 = 0xd00dfeed

	// Version is the structure version written by Encode.
	Version uint32 = 17

	// LastCompatibleVersion is the oldest version a reader of Version
	// blobs must understand.
	LastCompatibleVersion uint32 = 16

	// HeaderSize is the size of the v17 header in bytes.
	HeaderSize = 40

	// PhandleProp is the standard phandle property name.
	PhandleProp = "phandle"

	// LegacyPhandleProp is the pre-ePAPR phandle property name.
	LegacyPhandleProp = "linux,phandle"
)

// Structure block tokens.
const (
	tokenBeginNode uint32 = 0x1
	tokenEndNode   uint32 = 0x2
	tokenProp      uint32 = 0x3
	tokenNop       uint32 = 0x4
	tokenEnd       uint32 = 0x9
)

// Decoding errors.
var (
	ErrBadMagic         = errors.New("bad blob magic")
	ErrTruncated        = errors.New("blob truncated")
	ErrBadVersion       = errors.New("unsupported blob version")
	ErrBadToken         = errors.New("unexpected structure token")
	ErrBadString        = errors.New("unterminated string")
	ErrDuplicatePhandle = errors.New("duplicate phandle")
)

// Reservation is one entry of the memory reservation block.
type Reservation struct {
	Address uint64
	Size    uint64
}

// Tree is a decoded device tree.
type Tree struct {
	// Root is the unnamed root node.
	Root *Node

	// Phandles maps every phandle value to the node that declares it.
	Phandles map[uint32]*Node

	// BootCPU is the physical ID of the boot CPU from the header.
	BootCPU uint32

	// Reservations is the memory reservation block.
	Reservations []Reservation
}

// NewTree creates an empty tree with a root node.
func NewTree() *Tree {
	return &Tree{
		Root:     NewNode(""),
		Phandles: make(map[uint32]*Node),
	}
}

// Lookup returns the node at an absolute path such as "/chromeos/models".
func (t *Tree) Lookup(path string) (*Node, bool) {
	node := t.Root
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		child, ok := node.Subnode(part)
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

// Index recomputes node paths and the phandle map from the current tree
// contents. It must be called after building a tree by hand.
func (t *Tree) Index() error {
	t.Phandles = make(map[uint32]*Node)
	return t.index(t.Root, nil)
}

func (t *Tree) index(n, parent *Node) error {
	n.parent = parent
	switch {
	case parent == nil:
		n.path = "/"
	case parent.parent == nil:
		n.path = "/" + n.Name
	default:
		n.path = parent.path + "/" + n.Name
	}

	n.Phandle = 0
	for _, name := range []string{PhandleProp, LegacyPhandleProp} {
		p, ok := n.Prop(name)
		if !ok {
			continue
		}
		ph, ok := p.Value.Int()
		if !ok || ph == 0 {
			continue
		}
		if other, dup := t.Phandles[ph]; dup && other != n {
			return fmt.Errorf("%w: %d on %s and %s", ErrDuplicatePhandle, ph, other.path, n.path)
		}
		t.Phandles[ph] = n
		n.Phandle = ph
		break
	}

	for _, child := range n.Subnodes {
		if err := t.index(child, n); err != nil {
			return err
		}
	}
	return nil
}

// Node is a single device tree node.
type Node struct {
	// Name is the node name including any unit address ("cpu@0").
	Name string

	// Subnodes are the child nodes in blob order.
	Subnodes []*Node

	// Props are the node's properties in blob order.
	Props []*Prop

	// Phandle is the node's phandle, or 0 if it has none.
	Phandle uint32

	path   string
	parent *Node
}

// NewNode creates a detached node.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// Path returns the absolute path of the node. It is only valid once the
// node belongs to a decoded or indexed tree.
func (n *Node) Path() string {
	return n.path
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Subnode returns the direct child with the given name.
func (n *Node) Subnode(name string) (*Node, bool) {
	for _, child := range n.Subnodes {
		if child.Name == name {
			return child, true
		}
	}
	return nil, false
}

// Prop returns the property with the given name.
func (n *Node) Prop(name string) (*Prop, bool) {
	for _, p := range n.Props {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// AddSubnode appends a child node and returns it.
func (n *Node) AddSubnode(child *Node) *Node {
	n.Subnodes = append(n.Subnodes, child)
	return child
}

// SetProp sets a property, replacing the value of an existing property with
// the same name in place so ordering is preserved.
func (n *Node) SetProp(name string, value Value) {
	if p, ok := n.Prop(name); ok {
		p.Value = value
		return
	}
	n.Props = append(n.Props, &Prop{Name: name, Value: value})
}

// Prop is a single named property.
type Prop struct {
	Name  string
	Value Value
}
