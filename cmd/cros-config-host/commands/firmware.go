package commands

import (
	"fmt"
	"io"

	"github.com/crosconfig/crosconfig-go/pkg/crosconfig"
)

const firmwareUsage = `cros-config-host get-firmware-uris - List firmware download URIs

Without a model, prints the sorted, deduplicated URIs of every model.

Usage:
  cros-config-host get-firmware-uris [flags] [model]
`

// RunGetFirmwareURIs runs the get-firmware-uris command.
func RunGetFirmwareURIs(args []string, stdout, stderr io.Writer) int {
	var opts GlobalOptions
	fs := newFlagSet("get-firmware-uris", firmwareUsage, stderr)
	registerGlobal(fs, &opts)
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitCommandError
	}

	s, err := openConfig(&opts, stderr)
	if err != nil {
		return reportError(stderr, err)
	}
	defer s.Close()

	var uris []string
	if fs.NArg() == 1 {
		model, ok := s.cfg.Model(fs.Arg(0))
		if !ok {
			return reportError(stderr, fmt.Errorf("%w: model %s", crosconfig.ErrNodeNotFound, fs.Arg(0)))
		}
		uris, err = model.GetFirmwareURIs()
	} else {
		uris, err = s.cfg.GetFirmwareURIs()
	}
	if err != nil {
		return reportError(stderr, err)
	}
	if uris == nil {
		uris = []string{}
	}

	err = writeOutput(stdout, opts.Format, uris, func(w io.Writer) {
		for _, u := range uris {
			fmt.Fprintln(w, u)
		}
	})
	if err != nil {
		return reportError(stderr, err)
	}
	return exitSuccess
}
