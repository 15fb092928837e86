// Package commands implements the cros-config-trace CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/crosconfig/crosconfig-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Category   *log.Category
	Model      string
	PathPrefix string
}

func (f ViewFilter) logFilter() log.Filter {
	return log.Filter{Category: f.Category, Model: f.Model, PathPrefix: f.PathPrefix}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session] CATEGORY model node
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	model := event.Model
	if model == "" {
		model = "-"
	}
	fmt.Fprintf(w, "%s [%s] %-9s %s %s\n", ts, shortenSessionID(event.SessionID), event.Category, model, event.NodePath)
	if event.Property != "" {
		fmt.Fprintf(w, "  Property: %s\n", event.Property)
	}

	switch {
	case event.Load != nil:
		if event.Load.Source != "" {
			fmt.Fprintf(w, "  Source: %s\n", event.Load.Source)
		}
		fmt.Fprintf(w, "  Models: %d  Phandles: %d\n", event.Load.Models, event.Load.Phandles)
	case event.Lookup != nil:
		fmt.Fprintf(w, "  Segment: %s\n", event.Lookup.Segment)
		fmt.Fprintf(w, "  Shared: %s (found=%t)\n", event.Lookup.SharedPath, event.Lookup.Found)
	case event.Reference != nil:
		fmt.Fprintf(w, "  <%d> -> %s\n", event.Reference.Phandle, event.Reference.Target)
	case event.Merge != nil:
		formatMergeDetails(w, event.Merge)
	case event.Template != nil:
		fmt.Fprintf(w, "  Template: %s\n", event.Template.Template)
		fmt.Fprintf(w, "  Result:   %s\n", event.Template.Result)
	case event.Error != nil:
		fmt.Fprintf(w, "  Message: %s\n", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, "  Context: %s\n", event.Error.Context)
		}
	}

	fmt.Fprintln(w) // Blank line between events
}

func formatMergeDetails(w io.Writer, m *log.MergeEvent) {
	if m.Linked == "" {
		fmt.Fprintf(w, "  Own: %d (no link)\n", m.Own)
		return
	}
	fmt.Fprintf(w, "  Linked: %s\n", m.Linked)
	fmt.Fprintf(w, "  Own: %d  Inherited: %d\n", m.Own, m.Inherited)
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatTimestamp is shared by the export formats.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return log.ParseCategory(s)
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.logFilter())
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
