package commands

import (
	"fmt"
	"io"

	"github.com/crosconfig/crosconfig-go/pkg/crosconfig"
)

const getUsage = `cros-config-host get - Read one property of a model

The property is looked up on the node at <path> below the model, falling
back to the node it shares with.

Usage:
  cros-config-host get [flags] <model> <path> <property>

Example:
  cros-config-host get -source config.dtb reef /firmware bcs-overlay
`

// GetOutput is the structured result of the get command.
type GetOutput struct {
	Model    string `json:"model" yaml:"model"`
	Path     string `json:"path" yaml:"path"`
	Property string `json:"property" yaml:"property"`
	Type     string `json:"type" yaml:"type"`
	Value    string `json:"value" yaml:"value"`
}

// RunGet runs the get command.
func RunGet(args []string, stdout, stderr io.Writer) int {
	var opts GlobalOptions
	fs := newFlagSet("get", getUsage, stderr)
	registerGlobal(fs, &opts)
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(stderr, "Error: expected <model> <path> <property>")
		fs.Usage()
		return exitCommandError
	}
	modelName, path, propName := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	s, err := openConfig(&opts, stderr)
	if err != nil {
		return reportError(stderr, err)
	}
	defer s.Close()

	model, ok := s.cfg.Model(modelName)
	if !ok {
		return reportError(stderr, fmt.Errorf("%w: model %s", crosconfig.ErrNodeNotFound, modelName))
	}
	prop, err := model.ChildPropertyFromPath(path, propName)
	if err != nil {
		return reportError(stderr, err)
	}
	if prop == nil {
		fmt.Fprintf(stderr, "%s: no property %s at %s\n", modelName, propName, path)
		return exitNotFound
	}

	out := GetOutput{
		Model:    modelName,
		Path:     path,
		Property: propName,
		Type:     prop.Type().String(),
		Value:    prop.String(),
	}
	err = writeOutput(stdout, opts.Format, out, func(w io.Writer) {
		fmt.Fprintln(w, out.Value)
	})
	if err != nil {
		return reportError(stderr, err)
	}
	return exitSuccess
}
