package crosconfig

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crosconfig/crosconfig-go/pkg/fdt"
	"github.com/crosconfig/crosconfig-go/pkg/log"
)

// arena owns every node of a loaded tree. Nodes refer to each other through
// phandle keys into the arena rather than through the decoded blob.
type arena struct {
	nodes      []*Node
	phandles   map[uint32]int
	modelsPath string
	sessionID  string
	tracer     log.Logger
}

func (a *arena) byPhandle(ph uint32) (*Node, bool) {
	i, ok := a.phandles[ph]
	if !ok {
		return nil, false
	}
	return a.nodes[i], true
}

// modelOf returns the model name a node path belongs to, if any.
func (a *arena) modelOf(path string) string {
	rest, ok := strings.CutPrefix(path, a.modelsPath+"/")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, "/")
	return name
}

func (a *arena) trace(event log.Event) {
	if a.tracer == nil {
		return
	}
	event.Timestamp = time.Now()
	event.SessionID = a.sessionID
	if event.Model == "" {
		event.Model = a.modelOf(event.NodePath)
	}
	a.tracer.Log(event)
}

func (a *arena) traceError(path, property, context string, err error) {
	a.trace(log.Event{
		Category: log.CategoryError,
		NodePath: path,
		Property: property,
		Error:    &log.ErrorEventData{Message: err.Error(), Context: context},
	})
}

// Config is a loaded master configuration.
type Config struct {
	arena  *arena
	root   *Node
	models []*Model
	byName map[string]*Model
	source string
}

// Load reads and resolves the configuration blob at path.
func Load(path string, opts Options) (*Config, error) {
	tree, err := fdt.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := fromTree(tree, opts, path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return cfg, nil
}

// Parse resolves an in-memory configuration blob.
func Parse(blob []byte, opts Options) (*Config, error) {
	tree, err := fdt.Decode(blob)
	if err != nil {
		return nil, err
	}
	return fromTree(tree, opts, "")
}

// FromTree resolves an already decoded tree. The tree is re-indexed, so
// hand-built trees need not call Index first.
func FromTree(tree *fdt.Tree, opts Options) (*Config, error) {
	if err := tree.Index(); err != nil {
		return nil, err
	}
	return fromTree(tree, opts, "")
}

func fromTree(tree *fdt.Tree, opts Options, source string) (*Config, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	a := &arena{
		phandles:   make(map[uint32]int, len(tree.Phandles)),
		modelsPath: strings.TrimSuffix(opts.ModelsPath, "/"),
		sessionID:  uuid.New().String(),
		tracer:     opts.Tracer,
	}

	ids := make(map[*fdt.Node]int)
	root := a.build(tree.Root, ids)

	for ph, target := range tree.Phandles {
		id, ok := ids[target]
		if !ok {
			return nil, fmt.Errorf("%w: phandle <%d> targets a node outside the tree", ErrMissingReference, ph)
		}
		a.phandles[ph] = id
	}

	modelsNode, err := root.ChildNodeFromPath(a.modelsPath)
	if err != nil {
		return nil, err
	}
	if modelsNode == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, opts.ModelsPath)
	}

	cfg := &Config{
		arena:  a,
		root:   root,
		byName: make(map[string]*Model, len(modelsNode.subnodes)),
		source: source,
	}
	for _, n := range modelsNode.subnodes {
		m := &Model{Node: n}
		cfg.models = append(cfg.models, m)
		cfg.byName[n.name] = m
	}

	opts.Logger.Debug("configuration loaded",
		slog.String("source", source),
		slog.Int("models", len(cfg.models)),
		slog.Int("phandles", len(a.phandles)),
		slog.String("session", a.sessionID),
	)
	a.trace(log.Event{
		Category: log.CategoryLoad,
		NodePath: a.modelsPath,
		Load:     &log.LoadEvent{Source: source, Models: len(cfg.models), Phandles: len(a.phandles)},
	})
	return cfg, nil
}

// build copies a decoded node and its descendants into the arena.
func (a *arena) build(fn *fdt.Node, ids map[*fdt.Node]int) *Node {
	n := &Node{
		arena:      a,
		id:         len(a.nodes),
		name:       fn.Name,
		path:       fn.Path(),
		childIndex: make(map[string]int, len(fn.Subnodes)),
		propIndex:  make(map[string]int, len(fn.Props)),
	}
	a.nodes = append(a.nodes, n)
	ids[fn] = n.id

	for _, p := range fn.Props {
		if _, dup := n.propIndex[p.Name]; dup {
			continue
		}
		n.propIndex[p.Name] = len(n.properties)
		n.properties = append(n.properties, &Property{name: p.Name, value: p.Value})
	}
	for _, child := range fn.Subnodes {
		if _, dup := n.childIndex[child.Name]; dup {
			continue
		}
		n.childIndex[child.Name] = len(n.subnodes)
		n.subnodes = append(n.subnodes, a.build(child, ids))
	}
	return n
}

// Root returns the root node of the tree.
func (c *Config) Root() *Node {
	return c.root
}

// Source returns the file the configuration was loaded from, if any.
func (c *Config) Source() string {
	return c.source
}

// SessionID returns the identifier attached to this configuration's trace
// events.
func (c *Config) SessionID() string {
	return c.arena.sessionID
}

// Models returns all models in tree order.
func (c *Config) Models() []*Model {
	return c.models
}

// Model returns the model with the given name.
func (c *Config) Model(name string) (*Model, bool) {
	m, ok := c.byName[name]
	return m, ok
}

// ModelNames returns the model names in tree order.
func (c *Config) ModelNames() []string {
	names := make([]string, len(c.models))
	for i, m := range c.models {
		names[i] = m.name
	}
	return names
}

// NodeByPhandle returns the node declaring the given phandle.
func (c *Config) NodeByPhandle(ph uint32) (*Node, bool) {
	return c.arena.byPhandle(ph)
}

// PhandleCount returns the number of indexed phandles.
func (c *Config) PhandleCount() int {
	return len(c.arena.phandles)
}

// GetTouchFirmwareFiles returns the distinct touch firmware files of all
// models, sorted by firmware filename.
func (c *Config) GetTouchFirmwareFiles() ([]TouchFile, error) {
	seen := make(map[TouchFile]struct{})
	var files []TouchFile
	for _, m := range c.models {
		perDevice, err := m.GetTouchFirmwareFiles()
		if err != nil {
			return nil, err
		}
		for _, f := range perDevice {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			files = append(files, f)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Firmware != files[j].Firmware {
			return files[i].Firmware < files[j].Firmware
		}
		return files[i].Symlink < files[j].Symlink
	})
	return files, nil
}

// GetFirmwareURIs returns the distinct firmware URIs of all models, sorted.
func (c *Config) GetFirmwareURIs() ([]string, error) {
	seen := make(map[string]struct{})
	var uris []string
	for _, m := range c.models {
		modelURIs, err := m.GetFirmwareURIs()
		if err != nil {
			return nil, err
		}
		for _, u := range modelURIs {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			uris = append(uris, u)
		}
	}
	sort.Strings(uris)
	return uris, nil
}
