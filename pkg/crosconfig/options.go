package crosconfig

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/crosconfig/crosconfig-go/pkg/log"
)

// DefaultModelsPath is where model nodes live in the master configuration.
const DefaultModelsPath = "/chromeos/models"

// Options configures loading of a Config.
type Options struct {
	// ModelsPath is the absolute path of the node whose children are models.
	// Empty means DefaultModelsPath.
	ModelsPath string

	// Logger is the optional operational logger.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Tracer receives resolution trace events.
	// If nil, tracing is disabled.
	Tracer log.Logger
}

// DefaultOptions returns Options with defaults filled in.
func DefaultOptions() Options {
	return Options{ModelsPath: DefaultModelsPath}
}

// Validate checks if the options are usable.
func (o *Options) Validate() error {
	if o.ModelsPath != "" && !strings.HasPrefix(o.ModelsPath, "/") {
		return fmt.Errorf("%w: models path %q is not absolute", ErrInvalidOptions, o.ModelsPath)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.ModelsPath == "" {
		o.ModelsPath = DefaultModelsPath
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

