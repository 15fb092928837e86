// Package commands implements the cros-config-host CLI commands.
package commands

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crosconfig/crosconfig-go/pkg/crosconfig"
	"github.com/crosconfig/crosconfig-go/pkg/log"
	"github.com/crosconfig/crosconfig-go/pkg/treespec"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
	exitNotFound     = 2
)

// SourceEnv names the environment variable consulted when -source is not
// given.
const SourceEnv = "CROS_CONFIG_SOURCE"

// GlobalOptions are the flags shared by every query command.
type GlobalOptions struct {
	Source     string // .dtb blob or .yaml tree description
	ModelsPath string
	Format     string // text, json, yaml
	TracePath  string
	Verbose    bool
}

func registerGlobal(fs *flag.FlagSet, opts *GlobalOptions) {
	fs.StringVar(&opts.Source, "source", "", "Config source (.dtb or .yaml); default $"+SourceEnv)
	fs.StringVar(&opts.ModelsPath, "models-path", crosconfig.DefaultModelsPath, "Path of the node listing models")
	fs.StringVar(&opts.Format, "format", "text", "Output format: text, json, yaml")
	fs.StringVar(&opts.TracePath, "trace", "", "Append resolution trace events to this file")
	fs.BoolVar(&opts.Verbose, "v", false, "Log resolution steps to stderr")
}

func (o *GlobalOptions) validate() error {
	if o.Source == "" {
		o.Source = os.Getenv(SourceEnv)
	}
	if o.Source == "" {
		return fmt.Errorf("no config source: use -source or set %s", SourceEnv)
	}
	switch o.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (use text, json, yaml)", o.Format)
	}
	return nil
}

// session is a loaded configuration plus the trace sinks opened for it.
type session struct {
	cfg   *crosconfig.Config
	trace *log.FileLogger
}

func (s *session) Close() error {
	if s.trace == nil {
		return nil
	}
	return s.trace.Close()
}

// openConfig loads the configuration named by opts, wiring the logger and
// tracer the flags ask for.
func openConfig(opts *GlobalOptions, stderr io.Writer) (*session, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	s := &session{}
	var tracers []log.Logger
	if opts.TracePath != "" {
		fl, err := log.NewFileLogger(opts.TracePath)
		if err != nil {
			return nil, fmt.Errorf("opening trace file: %w", err)
		}
		s.trace = fl
		tracers = append(tracers, fl)
	}
	if opts.Verbose {
		tracers = append(tracers, log.NewSlogAdapter(logger))
	}

	cfgOpts := crosconfig.Options{ModelsPath: opts.ModelsPath, Logger: logger}
	if len(tracers) > 0 {
		cfgOpts.Tracer = log.NewMultiLogger(tracers...)
	}

	cfg, err := loadSource(opts.Source, cfgOpts)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.cfg = cfg
	return s, nil
}

func loadSource(path string, opts crosconfig.Options) (*crosconfig.Config, error) {
	if isTreeSource(path) {
		tree, err := treespec.CompileFile(path)
		if err != nil {
			return nil, err
		}
		return crosconfig.FromTree(tree, opts)
	}
	return crosconfig.Load(path, opts)
}

func isTreeSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// writeOutput renders v as JSON or YAML, or calls text for plain output.
func writeOutput(w io.Writer, format string, v any, text func(io.Writer)) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(data))
	default:
		text(w)
	}
	return nil
}

// reportError prints err and maps it to an exit code.
func reportError(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	if errors.Is(err, crosconfig.ErrNodeNotFound) {
		return exitNotFound
	}
	return exitCommandError
}

func newFlagSet(name, usage string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fmt.Fprintln(stderr, "\nFlags:")
		fs.PrintDefaults()
	}
	return fs
}
