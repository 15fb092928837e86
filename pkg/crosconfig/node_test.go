package crosconfig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosconfig/crosconfig-go/pkg/fdt"
)

func TestChildNodeFromPath(t *testing.T) {
	cfg := loadTestdata(t, "config.yaml", DefaultOptions())
	reef := mustModel(t, cfg, "reef")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty is self", "", "/chromeos/models/reef"},
		{"leading slash", "/firmware", "/chromeos/models/reef/firmware"},
		{"trailing slash", "firmware/", "/chromeos/models/reef/firmware"},
		{"nested", "touch/screen", "/chromeos/models/reef/touch/screen"},
		{"via shares", "firmware/build-targets", "/chromeos/family/firmware/shared/build-targets"},
		{"absent", "audio", ""},
		{"absent under shares", "firmware/nope", ""},
		{"absent nested", "touch/screen/deeper", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := reef.ChildNodeFromPath(tt.path)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, n)
				return
			}
			require.NotNil(t, n)
			assert.Equal(t, tt.want, n.Path())
		})
	}
}

func TestChildNodeFromPathComposes(t *testing.T) {
	cfg := loadTestdata(t, "config.yaml", DefaultOptions())
	root := cfg.Root()

	direct, err := root.ChildNodeFromPath("/chromeos/models/reef/touch")
	require.NoError(t, err)
	require.NotNil(t, direct)

	n := root
	for _, part := range []string{"chromeos", "models", "reef", "touch"} {
		n, err = n.ChildNodeFromPath(part)
		require.NoError(t, err)
		require.NotNil(t, n)
	}
	assert.Same(t, direct, n)
}

func TestChildPropertyFromPath(t *testing.T) {
	cfg := loadTestdata(t, "config.yaml", DefaultOptions())
	pyro := mustModel(t, cfg, "pyro")

	tests := []struct {
		name string
		path string
		prop string
		want string
	}{
		{"own wins over shared", "firmware", "bcs-overlay", "overlay-pyro-private"},
		{"falls back to shared", "firmware", "ec-image", "bcs://reef_ec.bin"},
		{"node reached via shares", "firmware/build-targets", "coreboot", "reef"},
		{"plain node", "touch/screen", "pid", "3158"},
		{"absent property", "firmware", "nope", ""},
		{"absent node", "audio", "anything", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := pyro.ChildPropertyFromPath(tt.path, tt.prop)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, p)
				return
			}
			require.NotNil(t, p)
			assert.Equal(t, tt.prop, p.Name())
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestSharesIsSingleLevel(t *testing.T) {
	src := `
base:
  $label: base
  depth: base
middle:
  $label: middle
  shares: !ref base
leaf:
  shares: !ref middle
models: {}
`
	cfg := compileConfig(t, src, Options{ModelsPath: "/models"})
	leaf, err := cfg.Root().ChildNodeFromPath("leaf")
	require.NoError(t, err)
	require.NotNil(t, leaf)

	p, err := leaf.ChildPropertyFromPath("", "depth")
	require.NoError(t, err)
	assert.Nil(t, p, "grandparent properties are not inherited")

	p, err = leaf.ChildPropertyFromPath("", "shares")
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestFollowPhandle(t *testing.T) {
	cfg := loadTestdata(t, "config.yaml", DefaultOptions())
	screen, err := cfg.Root().ChildNodeFromPath("/chromeos/models/reef/touch/screen")
	require.NoError(t, err)

	target, err := screen.FollowPhandle(TouchTypeProp)
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, "/chromeos/family/touch/elan-touchscreen", target.Path())

	missing, err := screen.FollowPhandle("no-such-link")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func badLinkTree(value fdt.Value) *fdt.Tree {
	tree := fdt.NewTree()
	chromeos := tree.Root.AddSubnode(fdt.NewNode("chromeos"))
	models := chromeos.AddSubnode(fdt.NewNode("models"))
	reef := models.AddSubnode(fdt.NewNode("reef"))
	reef.AddSubnode(fdt.NewNode("firmware")).SetProp(SharesProp, value)
	return tree
}

func TestFollowPhandleErrors(t *testing.T) {
	tests := []struct {
		name  string
		value fdt.Value
		want  error
	}{
		{"dangling", fdt.IntValue(99), ErrMissingReference},
		{"zero", fdt.IntValue(0), ErrNotPhandle},
		{"string", fdt.StringValue("shared"), ErrNotPhandle},
		{"cell-sized string", fdt.StringValue("abc"), ErrNotPhandle},
		{"two cells", fdt.IntValue(1, 2), ErrNotPhandle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromTree(badLinkTree(tt.value), DefaultOptions())
			require.NoError(t, err)
			fw, err := mustModel(t, cfg, "reef").ChildNodeFromPath("firmware")
			require.NoError(t, err)

			_, err = fw.FollowPhandle(SharesProp)
			assert.ErrorIs(t, err, tt.want)

			// Traversal through a broken link reports the same failure.
			_, err = fw.ChildNodeFromPath("anything")
			assert.ErrorIs(t, err, tt.want)
			_, err = mustModel(t, cfg, "reef").GetFirmwareURIs()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetMergedProperties(t *testing.T) {
	cfg := loadTestdata(t, "config.yaml", DefaultOptions())
	screen, err := cfg.Root().ChildNodeFromPath("/chromeos/models/reef/touch/screen")
	require.NoError(t, err)

	props, err := screen.GetMergedProperties(TouchTypeProp)
	require.NoError(t, err)

	assert.Equal(t, []string{"pid", "vendor", "firmware-bin", "firmware-symlink"}, props.Keys())

	pid, ok := props.GetString("pid")
	require.True(t, ok)
	assert.Equal(t, "3158", pid, "own value takes precedence")

	assert.False(t, props.Has(TouchTypeProp))
	assert.False(t, props.Has(RegProp))
	assert.False(t, props.Has(fdt.PhandleProp))
}

func TestGetMergedPropertiesWithoutLink(t *testing.T) {
	cfg := loadTestdata(t, "config.yaml", DefaultOptions())
	shared, err := cfg.Root().ChildNodeFromPath("/chromeos/family/firmware/shared")
	require.NoError(t, err)

	props, err := shared.GetMergedProperties(SharesProp)
	require.NoError(t, err)

	// A node's own phandle is kept; only linked ones are filtered.
	assert.Equal(t, []string{"bcs-overlay", "ec-image", "pd-image", "phandle"}, props.Keys())
}

func TestWalk(t *testing.T) {
	cfg := loadTestdata(t, "config.yaml", DefaultOptions())
	reef := mustModel(t, cfg, "reef")

	var paths []string
	err := reef.Walk(func(n *Node) error {
		paths = append(paths, n.Path())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/chromeos/models/reef",
		"/chromeos/models/reef/firmware",
		"/chromeos/models/reef/touch",
		"/chromeos/models/reef/touch/screen",
		"/chromeos/models/reef/touch/pad",
	}, paths)

	count := 0
	err = cfg.Root().Walk(func(*Node) error {
		count++
		if count == 3 {
			return ErrStopWalk
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	boom := errors.New("boom")
	err = reef.Walk(func(*Node) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestNodeAccessors(t *testing.T) {
	cfg := loadTestdata(t, "config.yaml", DefaultOptions())
	reef := mustModel(t, cfg, "reef")

	assert.Equal(t, "reef", reef.Name())
	require.Len(t, reef.Subnodes(), 2)

	touch, ok := reef.Subnode("touch")
	require.True(t, ok)
	screen, ok := touch.Subnode("screen")
	require.True(t, ok)

	names := make([]string, 0, len(screen.Properties()))
	for _, p := range screen.Properties() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"touch-type", "pid", "reg"}, names)

	reg, ok := screen.Property(RegProp)
	require.True(t, ok)
	assert.Equal(t, fdt.KindInt, reg.Type())

	_, ok = screen.Property("nope")
	assert.False(t, ok)
}
