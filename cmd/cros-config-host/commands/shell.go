package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/crosconfig/crosconfig-go/pkg/crosconfig"
	"github.com/crosconfig/crosconfig-go/pkg/inspect"
)

const shellUsage = `cros-config-host shell - Browse a configuration interactively

Usage:
  cros-config-host shell [flags]
`

// Shell is an interactive browser over a loaded configuration.
type Shell struct {
	cfg       *crosconfig.Config
	formatter *inspect.Formatter
	cwd       string
	out       io.Writer
}

// NewShell creates a shell positioned at the root node.
func NewShell(cfg *crosconfig.Config, out io.Writer) *Shell {
	return &Shell{
		cfg:       cfg,
		formatter: inspect.NewFormatter(),
		cwd:       "/",
		out:       out,
	}
}

// Cwd returns the path of the current node.
func (s *Shell) Cwd() string {
	return s.cwd
}

// Prompt returns the prompt for the current node.
func (s *Shell) Prompt() string {
	return "cros-config:" + s.cwd + "> "
}

// RunShell runs the shell command.
func RunShell(args []string, stdout, stderr io.Writer) int {
	var opts GlobalOptions
	fs := newFlagSet("shell", shellUsage, stderr)
	registerGlobal(fs, &opts)
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}

	s, err := openConfig(&opts, stderr)
	if err != nil {
		return reportError(stderr, err)
	}
	defer s.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "cros-config:/> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return reportError(stderr, fmt.Errorf("failed to create readline: %w", err))
	}

	sh := NewShell(s.cfg, rl.Stdout())
	sh.Run(ctx, rl)
	return exitSuccess
}

// Run reads commands until EOF, quit or ctx is cancelled.
func (s *Shell) Run(ctx context.Context, rl *readline.Instance) {
	defer rl.Close()

	fmt.Fprintf(s.out, "%d models loaded. Type 'help' for commands.\n", len(s.cfg.Models()))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return
		}
		if s.Exec(line) {
			return
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "ls":
		s.cmdLs(args)
	case "cd":
		s.cmdCd(args)
	case "pwd":
		fmt.Fprintln(s.out, s.cwd)
	case "show", "cat":
		s.cmdShow(args)
	case "get":
		s.cmdGet(args)
	case "follow":
		s.cmdFollow(args)
	case "merged":
		s.cmdMerged(args)
	case "models":
		for _, name := range s.cfg.ModelNames() {
			fmt.Fprintln(s.out, name)
		}
	case "uris":
		s.cmdURIs(args)
	case "touch":
		s.cmdTouch(args)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help')\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `Commands:
  ls [path]              List subnodes and properties
  cd <path>              Change the current node
  pwd                    Print the current node path
  show [path]            Print a subtree in source notation
  get <prop> [path]      Read a property, falling back to shared nodes
  follow <prop>          Jump to the node a phandle property points at
  merged <prop> [path]   Print properties merged with a linked node
  models                 List model names
  uris [model]           List firmware URIs
  touch [model]          List touch firmware files
  quit                   Leave the shell
`)
}

// node resolves a user path against the current node.
func (s *Shell) node(input string) (*crosconfig.Node, string, error) {
	path := s.cwd
	if input != "" {
		var err error
		path, err = inspect.Resolve(s.cwd, input)
		if err != nil {
			return nil, "", err
		}
	}
	n, err := s.cfg.Root().ChildNodeFromPath(path)
	if err != nil {
		return nil, "", err
	}
	if n == nil {
		return nil, "", fmt.Errorf("%w: %s", crosconfig.ErrNodeNotFound, path)
	}
	return n, path, nil
}

func (s *Shell) errorf(err error) {
	fmt.Fprintf(s.out, "Error: %v\n", err)
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func (s *Shell) cmdLs(args []string) {
	n, _, err := s.node(optionalArg(args, 0))
	if err != nil {
		s.errorf(err)
		return
	}
	for _, child := range n.Subnodes() {
		fmt.Fprintf(s.out, "%s/\n", child.Name())
	}
	for _, p := range n.Properties() {
		fmt.Fprintln(s.out, s.formatter.FormatProperty(p.Name(), p.Value()))
	}
}

func (s *Shell) cmdCd(args []string) {
	target := optionalArg(args, 0)
	if target == "" {
		target = "/"
	}
	_, path, err := s.node(target)
	if err != nil {
		s.errorf(err)
		return
	}
	s.cwd = path
}

func (s *Shell) cmdShow(args []string) {
	n, _, err := s.node(optionalArg(args, 0))
	if err != nil {
		s.errorf(err)
		return
	}
	fmt.Fprint(s.out, s.formatter.FormatNode(n))
}

func (s *Shell) cmdGet(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: get <prop> [path]")
		return
	}
	n, _, err := s.node("")
	if err != nil {
		s.errorf(err)
		return
	}
	p, err := n.ChildPropertyFromPath(optionalArg(args, 1), args[0])
	if err != nil {
		s.errorf(err)
		return
	}
	if p == nil {
		fmt.Fprintf(s.out, "No property %s\n", args[0])
		return
	}
	fmt.Fprintln(s.out, s.formatter.FormatProperty(p.Name(), p.Value()))
}

func (s *Shell) cmdFollow(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: follow <prop>")
		return
	}
	n, _, err := s.node("")
	if err != nil {
		s.errorf(err)
		return
	}
	target, err := n.FollowPhandle(args[0])
	if err != nil {
		s.errorf(err)
		return
	}
	if target == nil {
		fmt.Fprintf(s.out, "No property %s\n", args[0])
		return
	}
	s.cwd = target.Path()
	fmt.Fprintln(s.out, s.cwd)
}

func (s *Shell) cmdMerged(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: merged <prop> [path]")
		return
	}
	n, _, err := s.node(optionalArg(args, 1))
	if err != nil {
		s.errorf(err)
		return
	}
	props, err := n.GetMergedProperties(args[0])
	if err != nil {
		s.errorf(err)
		return
	}
	fmt.Fprint(s.out, s.formatter.FormatPropertyMap(props))
}

// model returns the named model, or the model containing the current node.
func (s *Shell) model(name string) (*crosconfig.Model, error) {
	if name == "" {
		for _, m := range s.cfg.Models() {
			if s.cwd == m.Path() || strings.HasPrefix(s.cwd, m.Path()+"/") {
				return m, nil
			}
		}
		return nil, errors.New("not inside a model; name one")
	}
	m, ok := s.cfg.Model(name)
	if !ok {
		return nil, fmt.Errorf("%w: model %s", crosconfig.ErrNodeNotFound, name)
	}
	return m, nil
}

func (s *Shell) cmdURIs(args []string) {
	m, err := s.model(optionalArg(args, 0))
	if err != nil {
		s.errorf(err)
		return
	}
	uris, err := m.GetFirmwareURIs()
	if err != nil {
		s.errorf(err)
		return
	}
	if len(uris) == 0 {
		fmt.Fprintln(s.out, "No firmware URIs")
	}
	for _, u := range uris {
		fmt.Fprintln(s.out, u)
	}
}

func (s *Shell) cmdTouch(args []string) {
	m, err := s.model(optionalArg(args, 0))
	if err != nil {
		s.errorf(err)
		return
	}
	files, err := m.GetTouchFirmwareFiles()
	if err != nil {
		s.errorf(err)
		return
	}
	devices := make([]string, 0, len(files))
	for d := range files {
		devices = append(devices, d)
	}
	sort.Strings(devices)
	for _, d := range devices {
		fmt.Fprintf(s.out, "%-12s %s -> %s\n", d, files[d].Firmware, files[d].Symlink)
	}
}
