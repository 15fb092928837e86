package log

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvents() []Event {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []Event{
		{
			Timestamp: base,
			SessionID: "sess-a",
			Category:  CategoryLoad,
			Load:      &LoadEvent{Source: "config.dtb", Models: 2, Phandles: 4},
		},
		{
			Timestamp: base.Add(time.Millisecond),
			SessionID: "sess-a",
			Category:  CategoryReference,
			Model:     "reef",
			NodePath:  "/chromeos/models/reef/firmware",
			Property:  "shares",
			Reference: &ReferenceEvent{Phandle: 1, Target: "/chromeos/family/firmware/shared"},
		},
		{
			Timestamp: base.Add(2 * time.Millisecond),
			SessionID: "sess-b",
			Category:  CategoryTemplate,
			Model:     "pyro",
			NodePath:  "/chromeos/models/pyro/touch/stylus",
			Template:  &TemplateEvent{Template: "{MODEL}.bin", Result: "PYRO.bin"},
		},
	}
}

func writeTrace(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.ctrace")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	for _, e := range events {
		logger.Log(e)
	}
	assert.Equal(t, len(events), logger.Written())
	require.NoError(t, logger.Close())
	return path
}

func TestFileLoggerRoundTrip(t *testing.T) {
	events := sampleEvents()
	path := writeTrace(t, events)

	got, err := ReadAll(path, Filter{})
	require.NoError(t, err)
	require.Len(t, got, len(events))

	for i := range events {
		assert.True(t, events[i].Timestamp.Equal(got[i].Timestamp), "timestamp %d", i)
		assert.Equal(t, events[i].SessionID, got[i].SessionID)
		assert.Equal(t, events[i].Category, got[i].Category)
		assert.Equal(t, events[i].NodePath, got[i].NodePath)
	}
	assert.Equal(t, "/chromeos/family/firmware/shared", got[1].Reference.Target)
	assert.Equal(t, "PYRO.bin", got[2].Template.Result)
	assert.Equal(t, 2, got[0].Load.Models)
}

func TestFileLoggerAppends(t *testing.T) {
	events := sampleEvents()
	path := writeTrace(t, events[:1])

	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	logger.Log(events[1])
	require.NoError(t, logger.Close())

	got, err := ReadAll(path, Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFileLoggerCloseTwiceAndLogAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.ctrace")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())
	logger.Log(sampleEvents()[0])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.ctrace")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				logger.Log(Event{Timestamp: time.Now(), SessionID: "s", Category: CategoryMerge, Merge: &MergeEvent{Own: j}})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	got, err := ReadAll(path, Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 200)
}

func TestReaderFilter(t *testing.T) {
	path := writeTrace(t, sampleEvents())
	ref := CategoryReference
	start := time.Date(2026, 3, 1, 12, 0, 0, int(time.Millisecond), time.UTC)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 3},
		{"session", Filter{SessionID: "sess-a"}, 2},
		{"category", Filter{Category: &ref}, 1},
		{"model", Filter{Model: "pyro"}, 1},
		{"path prefix", Filter{PathPrefix: "/chromeos/models/"}, 2},
		{"time start", Filter{TimeStart: &start}, 2},
		{"time end", Filter{TimeEnd: &start}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadAll(path, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestReaderEOF(t *testing.T) {
	path := writeTrace(t, sampleEvents()[:1])
	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestEncodeDecodeEvent(t *testing.T) {
	in := sampleEvents()[1]
	data, err := EncodeEvent(in)
	require.NoError(t, err)

	out, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, in.Property, out.Property)
	assert.Equal(t, in.Reference.Phandle, out.Reference.Phandle)

	_, err = DecodeEvent([]byte{0xff})
	assert.Error(t, err)
}

func TestDecodeEventRejectsOversized(t *testing.T) {
	nested := append(bytes.Repeat([]byte{0x81}, maxEventDepth+4), 0x00)
	_, err := DecodeEvent(nested)
	var depthErr *cbor.MaxNestedLevelError
	assert.ErrorAs(t, err, &depthErr)

	// Array header announcing more elements than an event ever carries.
	wide := []byte{0x9a, 0x00, 0x01, 0x00, 0x00}
	_, err = DecodeEvent(wide)
	var arrErr *cbor.MaxArrayElementsError
	assert.ErrorAs(t, err, &arrErr)
}
