package crosconfig

import (
	"errors"
	"fmt"
	"strings"
)

// Resolution errors.
var (
	ErrNotPhandle         = errors.New("property is not a phandle")
	ErrMissingReference   = errors.New("phandle has no target node")
	ErrMissingTemplateKey = errors.New("template references unknown property")
	ErrBadTemplate        = errors.New("malformed template")
	ErrNodeNotFound       = errors.New("node not found")
	ErrNotString          = errors.New("property is not a string")
	ErrInvalidOptions     = errors.New("invalid options")
)

// MissingKeyError reports a filename template that references a property
// absent from the merged property set of a device node.
type MissingKeyError struct {
	// NodePath is the node the filename was being built for.
	NodePath string

	// Template is the template text as written in the configuration,
	// before '$' characters are stripped. It is empty when the template
	// property itself is missing.
	Template string

	// Keys are the available property names, in merge order.
	Keys []string

	// Key is the missing property name.
	Key string
}

func (e *MissingKeyError) Error() string {
	keys := strings.Join(e.Keys, ", ")
	if e.Template == "" {
		return fmt.Sprintf("node '%s': has properties [%s] but lacks template property '%s'",
			e.NodePath, keys, e.Key)
	}
	return fmt.Sprintf("node '%s': format string '%s' has properties [%s] but lacks '%s'",
		e.NodePath, e.Template, keys, e.Key)
}

// Unwrap lets errors.Is match ErrMissingTemplateKey.
func (e *MissingKeyError) Unwrap() error {
	return ErrMissingTemplateKey
}
