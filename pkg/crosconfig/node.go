package crosconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/crosconfig/crosconfig-go/pkg/log"
)

// Well-known property names.
const (
	// SharesProp links a node to the node it inherits from.
	SharesProp = "shares"

	// RegProp is the device tree addressing property, never configuration.
	RegProp = "reg"
)

// ErrStopWalk can be returned from a Walk callback to end the walk early
// without reporting an error.
var ErrStopWalk = errors.New("stop walk")

// Traverser is the read-only capability set shared by Node and Model.
type Traverser interface {
	Name() string
	Path() string
	ChildNodeFromPath(relativePath string) (*Node, error)
	ChildPropertyFromPath(relativePath, propertyName string) (*Property, error)
	FollowPhandle(propertyName string) (*Node, error)
	GetMergedProperties(phandleProp string) (*PropertyMap, error)
}

// Node is a vertex of the configuration tree. Nodes are created when a
// Config is loaded and never change afterwards.
type Node struct {
	arena *arena
	id    int
	name  string
	path  string

	subnodes   []*Node
	childIndex map[string]int

	properties []*Property
	propIndex  map[string]int
}

// Name returns the node name.
func (n *Node) Name() string {
	return n.name
}

// Path returns the absolute path of the node.
func (n *Node) Path() string {
	return n.path
}

// Subnodes returns the child nodes in tree order.
func (n *Node) Subnodes() []*Node {
	return n.subnodes
}

// Subnode returns the direct child with the given name.
func (n *Node) Subnode(name string) (*Node, bool) {
	i, ok := n.childIndex[name]
	if !ok {
		return nil, false
	}
	return n.subnodes[i], true
}

// Properties returns the node's properties in tree order.
func (n *Node) Properties() []*Property {
	return n.properties
}

// Property returns the node's own property with the given name.
func (n *Node) Property(name string) (*Property, bool) {
	i, ok := n.propIndex[name]
	if !ok {
		return nil, false
	}
	return n.properties[i], true
}

// ChildNodeFromPath returns the node at a '/'-separated path relative to n.
// Empty segments are ignored, so "/firmware", "firmware/" and "firmware"
// are equivalent and "" returns n itself.
//
// A segment that is not a direct child is looked up on the node n shares
// with, if any. Descent then continues from the shared node's child. It
// returns nil, nil when the path does not exist.
func (n *Node) ChildNodeFromPath(relativePath string) (*Node, error) {
	node := n
	for _, part := range strings.Split(relativePath, "/") {
		if part == "" {
			continue
		}
		next, err := node.childOrShared(part)
		if err != nil || next == nil {
			return nil, err
		}
		node = next
	}
	return node, nil
}

func (n *Node) childOrShared(name string) (*Node, error) {
	if child, ok := n.Subnode(name); ok {
		return child, nil
	}
	if _, ok := n.Property(SharesProp); !ok {
		return nil, nil
	}

	shared, err := n.FollowPhandle(SharesProp)
	if err != nil {
		return nil, err
	}
	child, ok := shared.Subnode(name)
	n.arena.trace(log.Event{
		Category: log.CategoryLookup,
		NodePath: n.path,
		Lookup:   &log.LookupEvent{Segment: name, SharedPath: shared.path, Found: ok},
	})
	if !ok {
		return nil, nil
	}
	return child, nil
}

// ChildPropertyFromPath returns a property of the node at relativePath.
// When that node lacks the property but shares with another node, the
// shared node's property is returned. It returns nil, nil when neither has
// it.
func (n *Node) ChildPropertyFromPath(relativePath, propertyName string) (*Property, error) {
	child, err := n.ChildNodeFromPath(relativePath)
	if err != nil || child == nil {
		return nil, err
	}
	if p, ok := child.Property(propertyName); ok {
		return p, nil
	}
	if _, ok := child.Property(SharesProp); !ok {
		return nil, nil
	}

	shared, err := child.FollowPhandle(SharesProp)
	if err != nil {
		return nil, err
	}
	p, ok := shared.Property(propertyName)
	if !ok {
		return nil, nil
	}
	return p, nil
}

// FollowPhandle returns the node referenced by the named phandle property,
// or nil, nil if n has no such property. A phandle that is not in the
// index is a corrupt configuration and reported as ErrMissingReference.
func (n *Node) FollowPhandle(propertyName string) (*Node, error) {
	p, ok := n.Property(propertyName)
	if !ok {
		return nil, nil
	}

	ph, err := p.GetPhandle()
	if err != nil {
		err = fmt.Errorf("node %s: %w", n.path, err)
		n.arena.traceError(n.path, propertyName, "follow phandle", err)
		return nil, err
	}
	target, ok := n.arena.byPhandle(ph)
	if !ok {
		err := fmt.Errorf("%w: node %s property %q = <%d>", ErrMissingReference, n.path, propertyName, ph)
		n.arena.traceError(n.path, propertyName, "follow phandle", err)
		return nil, err
	}

	n.arena.trace(log.Event{
		Category:  log.CategoryReference,
		NodePath:  n.path,
		Property:  propertyName,
		Reference: &log.ReferenceEvent{Phandle: ph, Target: target.path},
	})
	return target, nil
}

// GetMergedProperties returns n's properties combined with those of the
// node linked by phandleProp. Properties of n take precedence; the linked
// node only fills in names n does not have. The link property itself and
// "reg" are left out, as is any linked property whose name ends in
// "phandle".
func (n *Node) GetMergedProperties(phandleProp string) (*PropertyMap, error) {
	props := NewPropertyMap()
	for _, p := range n.properties {
		if p.name == phandleProp || p.name == RegProp {
			continue
		}
		props.Set(p.name, p.value)
	}
	own := props.Len()

	linked, err := n.FollowPhandle(phandleProp)
	if err != nil {
		return nil, err
	}

	merge := &log.MergeEvent{Own: own}
	if linked != nil {
		merge.Linked = linked.path
		for _, p := range linked.properties {
			if props.Has(p.name) || strings.HasSuffix(p.name, "phandle") {
				continue
			}
			props.Set(p.name, p.value)
		}
		merge.Inherited = props.Len() - own
	}

	n.arena.trace(log.Event{
		Category: log.CategoryMerge,
		NodePath: n.path,
		Property: phandleProp,
		Merge:    merge,
	})
	return props, nil
}

// Walk calls fn for n and every descendant in depth-first tree order.
// Returning ErrStopWalk ends the walk with a nil error.
func (n *Node) Walk(fn func(*Node) error) error {
	err := n.walk(fn)
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

func (n *Node) walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, child := range n.subnodes {
		if err := child.walk(fn); err != nil {
			return err
		}
	}
	return nil
}

var _ Traverser = (*Node)(nil)
