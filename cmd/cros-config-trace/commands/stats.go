package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/crosconfig/crosconfig-go/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Sessions         map[string]*SessionStats
	Models           map[string]int
	Targets          map[string]int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single loaded configuration.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Source    string
	Models    int
}

// CollectStats reads the trace file and aggregates its events.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Sessions:         make(map[string]*SessionStats),
		Models:           make(map[string]int),
		Targets:          make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		sess, ok := stats.Sessions[event.SessionID]
		if !ok {
			sess = &SessionStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Sessions[event.SessionID] = sess
		}
		sess.Events++
		if event.Timestamp.After(sess.LastSeen) {
			sess.LastSeen = event.Timestamp
		}
		if event.Load != nil {
			sess.Source = event.Load.Source
			sess.Models = event.Load.Models
		}

		if event.Model != "" {
			stats.Models[event.Model]++
		}
		if event.Reference != nil {
			stats.Targets[event.Reference.Target]++
		}
		if event.Error != nil {
			stats.Errors++
		}
	}

	return stats, nil
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Config Resolution Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryLoad, log.CategoryLookup, log.CategoryReference,
		log.CategoryMerge, log.CategoryTemplate, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	type sessionInfo struct {
		id    string
		stats *SessionStats
	}
	sessions := make([]sessionInfo, 0, len(stats.Sessions))
	for id, ss := range stats.Sessions {
		sessions = append(sessions, sessionInfo{id, ss})
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
	})
	for _, s := range sessions {
		fmt.Fprintf(w, "  [%s] %d events, %d models", shortenSessionID(s.id), s.stats.Events, s.stats.Models)
		if s.stats.Source != "" {
			fmt.Fprintf(w, ", %s", s.stats.Source)
		}
		fmt.Fprintln(w)
	}

	if len(stats.Models) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Events by Model:")
		for _, name := range sortedKeys(stats.Models) {
			fmt.Fprintf(w, "  %-12s %d\n", name+":", stats.Models[name])
		}
	}

	if len(stats.Targets) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Most Referenced Nodes:")
		targets := sortedKeys(stats.Targets)
		sort.SliceStable(targets, func(i, j int) bool {
			return stats.Targets[targets[i]] > stats.Targets[targets[j]]
		})
		if len(targets) > 5 {
			targets = targets[:5]
		}
		for _, t := range targets {
			fmt.Fprintf(w, "  %4d  %s\n", stats.Targets[t], t)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
