package commands

import (
	"fmt"
	"io"
)

const listUsage = `cros-config-host list-models - List model names

Usage:
  cros-config-host list-models [flags]
`

// RunListModels runs the list-models command.
func RunListModels(args []string, stdout, stderr io.Writer) int {
	var opts GlobalOptions
	fs := newFlagSet("list-models", listUsage, stderr)
	registerGlobal(fs, &opts)
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}

	s, err := openConfig(&opts, stderr)
	if err != nil {
		return reportError(stderr, err)
	}
	defer s.Close()

	names := s.cfg.ModelNames()
	err = writeOutput(stdout, opts.Format, names, func(w io.Writer) {
		for _, name := range names {
			fmt.Fprintln(w, name)
		}
	})
	if err != nil {
		return reportError(stderr, err)
	}
	return exitSuccess
}
