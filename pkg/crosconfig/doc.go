// Package crosconfig resolves a ChromeOS master configuration tree into
// queryable per-model settings for build-time tooling.
//
// # Tree Model
//
// The configuration is a device tree blob. Every node has ordered child
// nodes and ordered properties:
//
//	/chromeos
//	├── family
//	│   ├── firmware/shared      (phandle = <1>, bcs-overlay, ...)
//	│   └── touch/elan-touch     (phandle = <2>, firmware-bin, ...)
//	└── models
//	    ├── reef
//	    │   ├── firmware         (shares = <1>)
//	    │   └── touch/stylus     (touch-type = <2>)
//	    └── pyro
//	        └── ...
//
// A [Config] loads the tree once and indexes every phandle. After that all
// queries are read-only and safe for concurrent use.
//
// # Inheritance
//
// A node with a "shares" property inherits from the node its phandle points
// to. [Node.ChildNodeFromPath] looks a missing child up on the shared node,
// and [Node.ChildPropertyFromPath] falls back to the shared node's
// properties. The link is single-level: a shared node's own "shares" is not
// followed during fallback.
//
// [Node.GetMergedProperties] overlays a linked node's properties beneath a
// node's own properties. The node always wins; the link only fills gaps.
//
// # Model Queries
//
//   - [Model.GetFirmwareURIs] builds gs:// URIs for bcs:// firmware images.
//   - [Model.GetTouchFirmwareFiles] expands firmware-bin and
//     firmware-symlink filename templates for each touch device.
//   - [Config.GetTouchFirmwareFiles] collects those across models,
//     deduplicated and sorted.
//
// # Errors
//
// Absent paths and properties are reported as nil results, not errors.
// A phandle without an index entry ([ErrMissingReference]) and a template
// naming an unknown property ([MissingKeyError]) are errors.
package crosconfig
