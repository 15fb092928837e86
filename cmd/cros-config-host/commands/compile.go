package commands

import (
	"fmt"
	"io"

	"github.com/crosconfig/crosconfig-go/pkg/crosconfig"
	"github.com/crosconfig/crosconfig-go/pkg/fdt"
	"github.com/crosconfig/crosconfig-go/pkg/treespec"
)

const compileUsage = `cros-config-host compile - Compile a YAML tree description to a blob

The result is checked by loading it before it is written.

Usage:
  cros-config-host compile [flags] <input.yaml>
`

// RunCompile runs the compile command.
func RunCompile(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("compile", compileUsage, stderr)
	output := fs.String("o", "", "Output blob (required)")
	modelsPath := fs.String("models-path", crosconfig.DefaultModelsPath, "Path of the node listing models")
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}
	if fs.NArg() != 1 || *output == "" {
		fmt.Fprintln(stderr, "Error: need one input file and -o")
		fs.Usage()
		return exitCommandError
	}

	tree, err := treespec.CompileFile(fs.Arg(0))
	if err != nil {
		return reportError(stderr, err)
	}
	cfg, err := crosconfig.FromTree(tree, crosconfig.Options{ModelsPath: *modelsPath})
	if err != nil {
		return reportError(stderr, err)
	}
	if err := fdt.WriteFile(*output, tree); err != nil {
		return reportError(stderr, err)
	}

	fmt.Fprintf(stdout, "Wrote %s: %d models, %d phandles\n", *output, len(cfg.Models()), cfg.PhandleCount())
	return exitSuccess
}
