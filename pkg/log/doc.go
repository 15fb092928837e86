// Package log provides structured resolution tracing for crosconfig.
//
// This package defines the Logger interface and Event types for capturing
// what the configuration engine did while answering a query: which "shares"
// links it fell back through, which phandles it followed, which properties
// it merged and which filename templates it expanded. It is separate from
// operational logging (slog) - a trace is a complete machine-readable
// record for debugging configuration sources.
//
// # Basic Usage
//
// Callers enable tracing by setting Options.Tracer:
//
//	// For development: trace to console via slog
//	opts.Tracer = log.NewSlogAdapter(slog.Default())
//
//	// For tooling: write to a trace file
//	opts.Tracer, _ = log.NewFileLogger("/tmp/reef.ctrace")
//
//	// Both: use MultiLogger
//	opts.Tracer = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Categories
//
//   - LOAD: a configuration tree was loaded (LoadEvent)
//   - LOOKUP: traversal fell back through a "shares" link (LookupEvent)
//   - REFERENCE: a phandle was followed (ReferenceEvent)
//   - MERGE: merged properties were computed (MergeEvent)
//   - TEMPLATE: a filename template was expanded (TemplateEvent)
//   - ERROR: an error was returned to the caller (ErrorEventData)
//
// # File Format
//
// Trace files are a stream of CBOR-encoded events with the .ctrace
// extension. The cros-config-trace tool views and summarizes them.
package log
