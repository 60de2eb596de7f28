package app

import (
	"github.com/spf13/afero"

	"github.com/marciopocebon/bolt-1/logger"
)

// Option configures the Application during creation.
type Option func(*options)

// options collects all option values before applying to Application.
type options struct {
	root          string
	pathOverrides map[string]string
	debug         bool
	logger        *logger.Logger
	fs            afero.Fs
	providers     []Provider
}

// resolveOptions applies all options and returns the collected values.
func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithRoot sets the installation root every path alias resolves under.
// Defaults to the working directory.
func WithRoot(path string) Option {
	return func(o *options) {
		o.root = path
	}
}

// WithPathOverrides replaces the default relative location of path
// aliases, e.g. mapping "web" somewhere other than public/.
func WithPathOverrides(overrides map[string]string) Option {
	return func(o *options) {
		o.pathOverrides = overrides
	}
}

// WithDebug toggles debug mode: verbose logging and the general/debug
// configuration flag.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// WithLogger sets a custom logger for the application. If not set, a
// logger is initialized from defaults and installed globally.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithFilesystem routes all of the application's file access through
// fsys. Defaults to the OS filesystem.
func WithFilesystem(fsys afero.Fs) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithProviders appends extra providers after the built-in set.
func WithProviders(providers ...Provider) Option {
	return func(o *options) {
		o.providers = append(o.providers, providers...)
	}
}
