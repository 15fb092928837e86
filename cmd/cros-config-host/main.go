// Command cros-config-host queries a ChromeOS model configuration at build
// time.
//
// The configuration is read from a compiled blob (.dtb) or from a YAML tree
// description (.yaml), named by -source or the CROS_CONFIG_SOURCE
// environment variable.
//
// Usage:
//
//	cros-config-host <command> [flags] [args]
//
// Examples:
//
//	# List every model
//	cros-config-host list-models -source config.dtb
//
//	# Firmware download URIs for one model, as JSON
//	cros-config-host get-firmware-uris -format json reef
//
//	# Touch firmware install list, tracing every template expansion
//	cros-config-host get-touch-firmware-files -trace build.ctrace
package main

import (
	"fmt"
	"os"

	"github.com/crosconfig/crosconfig-go/cmd/cros-config-host/commands"
	"github.com/crosconfig/crosconfig-go/pkg/version"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitCommandError)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var exitCode int
	switch cmd {
	case "list-models":
		exitCode = commands.RunListModels(args, os.Stdout, os.Stderr)
	case "get":
		exitCode = commands.RunGet(args, os.Stdout, os.Stderr)
	case "get-firmware-uris":
		exitCode = commands.RunGetFirmwareURIs(args, os.Stdout, os.Stderr)
	case "get-touch-firmware-files":
		exitCode = commands.RunGetTouchFirmwareFiles(args, os.Stdout, os.Stderr)
	case "compile":
		exitCode = commands.RunCompile(args, os.Stdout, os.Stderr)
	case "shell":
		exitCode = commands.RunShell(args, os.Stdout, os.Stderr)
	case "help", "-h", "--help":
		printUsage()
		exitCode = exitSuccess
	case "version", "--version":
		fmt.Println(version.String("cros-config-host"))
		exitCode = exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		exitCode = exitCommandError
	}

	os.Exit(exitCode)
}

func printUsage() {
	fmt.Println(`cros-config-host - ChromeOS model configuration query tool

Usage:
  cros-config-host <command> [flags] [args]

Commands:
  list-models                List model names
  get                        Read one property of a model
  get-firmware-uris          List firmware download URIs
  get-touch-firmware-files   List touch firmware files and symlinks
  compile                    Compile a YAML tree description to a blob
  shell                      Browse the configuration interactively
  help                       Show this help message
  version                    Show version information

Common flags:
  -source <file>    Config source (.dtb or .yaml), default $CROS_CONFIG_SOURCE
  -format <fmt>     Output format: text, json, yaml
  -trace <file>     Append resolution trace events to a file
  -v                Log resolution steps to stderr

Exit codes:
  0  Success
  1  Command or configuration error
  2  Model, node or property not found

Run 'cros-config-host <command> -h' for command-specific help.`)
}
