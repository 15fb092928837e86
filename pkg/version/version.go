// Package version reports the tool version and the blob format it reads.
package version

import (
	"fmt"

	"github.com/crosconfig/crosconfig-go/pkg/fdt"
)

// Current is the release of the cros-config tools.
const Current = "0.3.0"

// String returns the version line printed by the command line tools.
func String(tool string) string {
	return fmt.Sprintf("%s version %s (dtb v%d, compatible with v%d)",
		tool, Current, fdt.Version, fdt.LastCompatibleVersion)
}
