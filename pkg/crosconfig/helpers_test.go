package crosconfig

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crosconfig/crosconfig-go/pkg/log"
	"github.com/crosconfig/crosconfig-go/pkg/treespec"
)

// compileConfig builds a Config from a YAML tree description, going through
// the blob encoder and decoder.
func compileConfig(t *testing.T, src string, opts Options) *Config {
	t.Helper()
	blob, err := treespec.CompileBlob([]byte(src))
	require.NoError(t, err)
	cfg, err := Parse(blob, opts)
	require.NoError(t, err)
	return cfg
}

// loadTestdata builds a Config from a file under testdata/.
func loadTestdata(t *testing.T, name string, opts Options) *Config {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return compileConfig(t, string(src), opts)
}

func mustModel(t *testing.T, cfg *Config, name string) *Model {
	t.Helper()
	m, ok := cfg.Model(name)
	require.True(t, ok, "model %s", name)
	return m
}

type recorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recorder) Log(event log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) byCategory(c log.Category) []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []log.Event
	for _, e := range r.events {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}
