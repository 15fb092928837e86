package log

import (
	"fmt"
	"strings"
	"time"
)

// Event represents a single resolution trace event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the loaded configuration (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Model is the model being queried, if any.
	Model string `cbor:"4,keyasint,omitempty"`

	// NodePath is the absolute path of the node the event concerns.
	NodePath string `cbor:"5,keyasint,omitempty"`

	// Property is the property name involved, if any.
	Property string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Load      *LoadEvent      `cbor:"10,keyasint,omitempty"`
	Lookup    *LookupEvent    `cbor:"11,keyasint,omitempty"`
	Reference *ReferenceEvent `cbor:"12,keyasint,omitempty"`
	Merge     *MergeEvent     `cbor:"13,keyasint,omitempty"`
	Template  *TemplateEvent  `cbor:"14,keyasint,omitempty"`
	Error     *ErrorEventData `cbor:"15,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryLoad indicates a configuration tree was loaded.
	CategoryLoad Category = 0
	// CategoryLookup indicates a traversal fallback through "shares".
	CategoryLookup Category = 1
	// CategoryReference indicates a phandle was followed.
	CategoryReference Category = 2
	// CategoryMerge indicates merged properties were computed.
	CategoryMerge Category = 3
	// CategoryTemplate indicates a filename template was expanded.
	CategoryTemplate Category = 4
	// CategoryError indicates an error event.
	CategoryError Category = 5
)

var categoryNames = []string{"LOAD", "LOOKUP", "REFERENCE", "MERGE", "TEMPLATE", "ERROR"}

// String returns the category name.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "UNKNOWN"
}

// ParseCategory parses a category name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if strings.EqualFold(s, name) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("invalid category %q (use load, lookup, reference, merge, template, error)", s)
}

// LoadEvent records a configuration tree load.
type LoadEvent struct {
	// Source is the file the tree was read from (empty for in-memory blobs).
	Source string `cbor:"1,keyasint,omitempty"`

	// Models is the number of models found.
	Models int `cbor:"2,keyasint"`

	// Phandles is the number of phandle targets indexed.
	Phandles int `cbor:"3,keyasint"`
}

// LookupEvent records a path segment that was answered by a shared node.
type LookupEvent struct {
	// Segment is the path segment being resolved.
	Segment string `cbor:"1,keyasint"`

	// SharedPath is the path of the node the "shares" link points to.
	SharedPath string `cbor:"2,keyasint"`

	// Found reports whether the shared node had the segment.
	Found bool `cbor:"3,keyasint,omitempty"`
}

// ReferenceEvent records a followed phandle.
type ReferenceEvent struct {
	// Phandle is the handle value read from the property.
	Phandle uint32 `cbor:"1,keyasint"`

	// Target is the path of the referenced node.
	Target string `cbor:"2,keyasint"`
}

// MergeEvent records a merged property computation.
type MergeEvent struct {
	// Linked is the path of the linked node, empty if there was no link.
	Linked string `cbor:"1,keyasint,omitempty"`

	// Own is the number of properties contributed by the node itself.
	Own int `cbor:"2,keyasint"`

	// Inherited is the number of properties filled in from the linked node.
	Inherited int `cbor:"3,keyasint"`
}

// TemplateEvent records a filename template expansion.
type TemplateEvent struct {
	// Template is the template text after '$' stripping.
	Template string `cbor:"1,keyasint"`

	// Result is the expanded filename.
	Result string `cbor:"2,keyasint"`
}

// ErrorEventData records an error returned to a caller.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}

// Summary returns a one-line description of the event payload.
func (e Event) Summary() string {
	switch {
	case e.Load != nil:
		return fmt.Sprintf("loaded %d models, %d phandles %s", e.Load.Models, e.Load.Phandles, e.Load.Source)
	case e.Lookup != nil:
		if e.Lookup.Found {
			return fmt.Sprintf("%q via shares -> %s", e.Lookup.Segment, e.Lookup.SharedPath)
		}
		return fmt.Sprintf("%q not in shared %s", e.Lookup.Segment, e.Lookup.SharedPath)
	case e.Reference != nil:
		return fmt.Sprintf("<%d> -> %s", e.Reference.Phandle, e.Reference.Target)
	case e.Merge != nil:
		if e.Merge.Linked == "" {
			return fmt.Sprintf("%d own, no link", e.Merge.Own)
		}
		return fmt.Sprintf("%d own + %d from %s", e.Merge.Own, e.Merge.Inherited, e.Merge.Linked)
	case e.Template != nil:
		return fmt.Sprintf("%q -> %q", e.Template.Template, e.Template.Result)
	case e.Error != nil:
		if e.Error.Context != "" {
			return e.Error.Context + ": " + e.Error.Message
		}
		return e.Error.Message
	default:
		return ""
	}
}
