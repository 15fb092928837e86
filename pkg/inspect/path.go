// Package inspect provides configuration tree browsing utilities.
//
// The inspect package offers:
//   - Resolving shell-style node paths ("..", ".", relative segments)
//   - Formatting nodes, properties and values for display
package inspect

import (
	"errors"
	"strings"
)

// Path errors.
var (
	ErrEmptyPath = errors.New("empty path")
)

// Resolve joins a path typed by a user onto the current node path and
// normalizes it. Absolute input replaces cwd; ".." stops at the root.
//
// Examples:
//   - Resolve("/chromeos", "models/reef") = "/chromeos/models/reef"
//   - Resolve("/chromeos/models", "..") = "/chromeos"
//   - Resolve("/chromeos", "/") = "/"
func Resolve(cwd, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyPath
	}

	var parts []string
	if !strings.HasPrefix(input, "/") {
		parts = Split(cwd)
	}
	for _, seg := range strings.Split(input, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, seg)
		}
	}
	return "/" + strings.Join(parts, "/"), nil
}

// Split returns the non-empty segments of a node path.
func Split(path string) []string {
	var parts []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return parts
}

// Base returns the last segment of a node path, or "/" for the root.
func Base(path string) string {
	parts := Split(path)
	if len(parts) == 0 {
		return "/"
	}
	return parts[len(parts)-1]
}
