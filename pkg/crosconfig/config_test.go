package crosconfig

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosconfig/crosconfig-go/pkg/fdt"
	"github.com/crosconfig/crosconfig-go/pkg/log"
	"github.com/crosconfig/crosconfig-go/pkg/treespec"
)

func TestConfigModels(t *testing.T) {
	cfg := loadTestdata(t, "config.yaml", DefaultOptions())

	assert.Equal(t, []string{"reef", "pyro", "bare"}, cfg.ModelNames())
	require.Len(t, cfg.Models(), 3)
	assert.Equal(t, "/chromeos/models/pyro", cfg.Models()[1].Path())

	_, ok := cfg.Model("nope")
	assert.False(t, ok)

	assert.Equal(t, 3, cfg.PhandleCount())
	shared, ok := cfg.NodeByPhandle(1)
	require.True(t, ok)
	assert.Equal(t, "/chromeos/family/firmware/shared", shared.Path())
	_, ok = cfg.NodeByPhandle(42)
	assert.False(t, ok)

	assert.Equal(t, "/", cfg.Root().Path())
	assert.Empty(t, cfg.Source())
	assert.NotEmpty(t, cfg.SessionID())
}

func TestConfigGetTouchFirmwareFiles(t *testing.T) {
	cfg := loadTestdata(t, "config.yaml", DefaultOptions())

	files, err := cfg.GetTouchFirmwareFiles()
	require.NoError(t, err)
	assert.Equal(t, []TouchFile{
		{Firmware: "elan/PYRO_elan_3158.bin", Symlink: "elants_i2c_3158.bin"},
		{Firmware: "elan/REEF_elan_3158.bin", Symlink: "elants_i2c_3158.bin"},
		{Firmware: "weida/wdt_weida.bin", Symlink: "wdt87xx.bin"},
	}, files)
}

func TestConfigGetTouchFirmwareFilesKeepsDistinctSymlinks(t *testing.T) {
	src := `
chromeos:
  family:
    touch:
      ts:
        $label: ts
        firmware-bin: same.bin
        firmware-symlink: "${MODEL}.lnk"
  models:
    b:
      touch:
        screen:
          touch-type: !ref ts
    a:
      touch:
        screen:
          touch-type: !ref ts
`
	cfg := compileConfig(t, src, DefaultOptions())
	files, err := cfg.GetTouchFirmwareFiles()
	require.NoError(t, err)
	assert.Equal(t, []TouchFile{
		{Firmware: "same.bin", Symlink: "A.lnk"},
		{Firmware: "same.bin", Symlink: "B.lnk"},
	}, files)
}

func TestConfigGetFirmwareURIs(t *testing.T) {
	cfg := loadTestdata(t, "config.yaml", DefaultOptions())

	uris, err := cfg.GetFirmwareURIs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		uriPrefix + "bcs-pyro-private/overlay-pyro-private/chromeos-base/chromeos-firmware-pyro/pyro_main.bin",
		uriPrefix + "bcs-pyro-private/overlay-pyro-private/chromeos-base/chromeos-firmware-pyro/reef_ec.bin",
		uriPrefix + "bcs-reef-private/overlay-reef-private/chromeos-base/chromeos-firmware-reef/reef_ec.bin",
	}, uris)
}

func TestLoad(t *testing.T) {
	tree, err := treespec.CompileFile(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.dtb")
	require.NoError(t, fdt.WriteFile(path, tree))

	cfg, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source())
	assert.Len(t, cfg.Models(), 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.dtb"), DefaultOptions())
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(bytes.Repeat([]byte("not a device tree "), 4), DefaultOptions())
	assert.ErrorIs(t, err, fdt.ErrBadMagic)
}

func TestOptions(t *testing.T) {
	t.Run("relative models path", func(t *testing.T) {
		opts := Options{ModelsPath: "chromeos/models"}
		assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions)

		_, err := FromTree(fdt.NewTree(), opts)
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})

	t.Run("missing models node", func(t *testing.T) {
		_, err := FromTree(fdt.NewTree(), Options{})
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("custom models path", func(t *testing.T) {
		src := `
boards:
  hatch: {}
  kohaku: {}
`
		cfg := compileConfig(t, src, Options{ModelsPath: "/boards/"})
		assert.Equal(t, []string{"hatch", "kohaku"}, cfg.ModelNames())
	})

	t.Run("defaults", func(t *testing.T) {
		assert.Equal(t, DefaultModelsPath, DefaultOptions().ModelsPath)
		assert.NoError(t, (&Options{}).Validate())
	})
}

func TestLoadLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	loadTestdata(t, "config.yaml", Options{Logger: logger})
	assert.Contains(t, buf.String(), "configuration loaded")
	assert.Contains(t, buf.String(), "models=3")
	assert.Contains(t, buf.String(), "phandles=3")
}

func TestTracing(t *testing.T) {
	rec := &recorder{}
	cfg := loadTestdata(t, "config.yaml", Options{Tracer: rec})

	load := rec.byCategory(log.CategoryLoad)
	require.Len(t, load, 1)
	assert.Equal(t, 3, load[0].Load.Models)
	assert.Equal(t, cfg.SessionID(), load[0].SessionID)

	_, err := mustModel(t, cfg, "reef").GetTouchFirmwareFiles()
	require.NoError(t, err)

	refs := rec.byCategory(log.CategoryReference)
	require.NotEmpty(t, refs)
	assert.Equal(t, "reef", refs[0].Model)
	assert.Equal(t, TouchTypeProp, refs[0].Property)
	assert.Equal(t, "/chromeos/family/touch/elan-touchscreen", refs[0].Reference.Target)

	merges := rec.byCategory(log.CategoryMerge)
	require.Len(t, merges, 2)
	assert.Equal(t, 1, merges[0].Merge.Own)
	assert.Equal(t, 3, merges[0].Merge.Inherited)

	templates := rec.byCategory(log.CategoryTemplate)
	require.Len(t, templates, 4)
	assert.Equal(t, "elan/{MODEL}_{vendor}_{pid}.bin", templates[0].Template.Template)
	assert.Equal(t, "elan/REEF_elan_3158.bin", templates[0].Template.Result)

	_, err = mustModel(t, cfg, "pyro").ChildNodeFromPath("firmware/build-targets")
	require.NoError(t, err)
	lookups := rec.byCategory(log.CategoryLookup)
	require.Len(t, lookups, 1)
	assert.Equal(t, "pyro", lookups[0].Model)
	assert.True(t, lookups[0].Lookup.Found)

	assert.Empty(t, rec.byCategory(log.CategoryError))
}

func TestTracingErrors(t *testing.T) {
	rec := &recorder{}
	cfg, err := FromTree(badLinkTree(fdt.IntValue(99)), Options{Tracer: rec})
	require.NoError(t, err)

	_, err = mustModel(t, cfg, "reef").GetFirmwareURIs()
	require.ErrorIs(t, err, ErrMissingReference)

	errs := rec.byCategory(log.CategoryError)
	require.Len(t, errs, 1)
	assert.Equal(t, "reef", errs[0].Model)
	assert.Equal(t, SharesProp, errs[0].Property)
	assert.Contains(t, errs[0].Error.Message, "<99>")
}

func TestConcurrentQueries(t *testing.T) {
	cfg := loadTestdata(t, "config.yaml", Options{Tracer: log.NoopLogger{}})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			files, err := cfg.GetTouchFirmwareFiles()
			assert.NoError(t, err)
			assert.Len(t, files, 3)
			_, err = cfg.GetFirmwareURIs()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
