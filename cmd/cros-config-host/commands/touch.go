package commands

import (
	"fmt"
	"io"

	"github.com/crosconfig/crosconfig-go/pkg/crosconfig"
)

const touchUsage = `cros-config-host get-touch-firmware-files - List touch firmware files

Prints one "firmware symlink" pair per line, sorted by firmware file and
without duplicates across models.

Usage:
  cros-config-host get-touch-firmware-files [flags]
`

// RunGetTouchFirmwareFiles runs the get-touch-firmware-files command.
func RunGetTouchFirmwareFiles(args []string, stdout, stderr io.Writer) int {
	var opts GlobalOptions
	fs := newFlagSet("get-touch-firmware-files", touchUsage, stderr)
	registerGlobal(fs, &opts)
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}

	s, err := openConfig(&opts, stderr)
	if err != nil {
		return reportError(stderr, err)
	}
	defer s.Close()

	files, err := s.cfg.GetTouchFirmwareFiles()
	if err != nil {
		return reportError(stderr, err)
	}
	if files == nil {
		files = []crosconfig.TouchFile{}
	}

	err = writeOutput(stdout, opts.Format, files, func(w io.Writer) {
		for _, f := range files {
			fmt.Fprintf(w, "%s %s\n", f.Firmware, f.Symlink)
		}
	})
	if err != nil {
		return reportError(stderr, err)
	}
	return exitSuccess
}
