// Package fdt reads and writes flattened device tree blobs (DTB).
//
// A blob holds a single tree of named nodes. Each node carries an ordered
// list of properties and an ordered list of child nodes. Properties are raw
// byte strings; this package infers a typed [Value] for each one when the
// blob is decoded, the same way dtc and libfdt tooling do.
//
// # Blob Layout
//
//	+---------------------+
//	| header (40 bytes)   |
//	+---------------------+
//	| memory reservations |
//	+---------------------+
//	| structure block     |  BEGIN_NODE / PROP / END_NODE tokens
//	+---------------------+
//	| strings block       |  NUL-terminated property names
//	+---------------------+
//
// All integers are big-endian.
//
// # Phandles
//
// A node that is the target of a reference carries a "phandle" (or legacy
// "linux,phandle") property holding a single 32-bit cell. [Decode] collects
// them into [Tree].Phandles so references can be followed in O(1).
package fdt
