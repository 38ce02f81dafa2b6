// Package plugin loads capability providers at runtime. A provider is an
// external artifact (a Go plugin, a Lua script) exposing a factory symbol
// named GetPlugin and a destructor named DeletePlugin. The runtime never
// depends on a concrete provider: hosts choose one and hand the resulting
// Loader to whatever needs the plugin.
package plugin

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	FactorySymbol    = "GetPlugin"
	DestructorSymbol = "DeletePlugin"
)

var (
	ErrAlreadyLoaded  = errors.New("plugin: already loaded")
	ErrNotLoaded      = errors.New("plugin: not loaded")
	ErrSymbolNotFound = errors.New("plugin: symbol not found")
)

// Library is an opened plugin artifact.
type Library[P any] interface {
	// Create calls the factory symbol.
	Create() (P, error)
	// Destroy calls the destructor symbol on a value returned by Create.
	Destroy(p P) error
	// Close releases the artifact.
	Close() error
}

// Provider opens plugin artifacts of one kind.
type Provider[P any] interface {
	Open(path string) (Library[P], error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc[P any] func(path string) (Library[P], error)

func (f ProviderFunc[P]) Open(path string) (Library[P], error) { return f(path) }

// Loader holds at most one loaded plugin instance.
type Loader[P any] struct {
	provider Provider[P]
	log      *zap.Logger

	path    string
	library Library[P]
	plugin  P
	loaded  bool
}

// Option configures a Loader.
type Option func(*loaderOptions)

type loaderOptions struct {
	log *zap.Logger
}

// WithLogger sets the loader logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *loaderOptions) {
		o.log = log
	}
}

// NewLoader creates a loader that opens artifacts with provider.
func NewLoader[P any](provider Provider[P], opts ...Option) *Loader[P] {
	o := loaderOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[P]{provider: provider, log: o.log}
}

// Load opens the artifact at path and creates the plugin. Loading the path
// that is already loaded fails with ErrAlreadyLoaded; loading another path
// unloads the current plugin first.
func (l *Loader[P]) Load(path string) error {
	if l.loaded {
		if l.path == path {
			return errors.Wrap(ErrAlreadyLoaded, path)
		}
		if err := l.Unload(); err != nil {
			return err
		}
	}

	library, err := l.provider.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open plugin %s", path)
	}
	p, err := library.Create()
	if err != nil {
		if cerr := library.Close(); cerr != nil {
			l.log.Warn("closing plugin after failed create", zap.String("path", path), zap.Error(cerr))
		}
		return errors.Wrapf(err, "create plugin %s", path)
	}

	l.path = path
	l.library = library
	l.plugin = p
	l.loaded = true
	l.log.Info("plugin loaded", zap.String("path", path))
	return nil
}

// Reload unloads the plugin if needed and loads the last path again.
func (l *Loader[P]) Reload() error {
	if l.path == "" {
		return errors.Wrap(ErrNotLoaded, "no path to reload")
	}
	path := l.path
	if l.loaded {
		if err := l.Unload(); err != nil {
			return err
		}
	}
	return l.Load(path)
}

// Plugin returns the loaded plugin instance.
func (l *Loader[P]) Plugin() (P, error) {
	if !l.loaded {
		var zero P
		return zero, ErrNotLoaded
	}
	return l.plugin, nil
}

// Path returns the path of the last loaded artifact.
func (l *Loader[P]) Path() string {
	return l.path
}

// Loaded reports whether a plugin instance is held.
func (l *Loader[P]) Loaded() bool {
	return l.loaded
}

// Unload destroys the plugin and closes its artifact. A failing destructor
// is logged and does not stop the artifact from being closed.
func (l *Loader[P]) Unload() error {
	if !l.loaded {
		return ErrNotLoaded
	}

	if err := l.library.Destroy(l.plugin); err != nil {
		l.log.Error("plugin destructor failed", zap.String("path", l.path), zap.Error(err))
	}
	closeErr := l.library.Close()

	var zero P
	l.plugin = zero
	l.library = nil
	l.loaded = false

	if closeErr != nil {
		return errors.Wrapf(closeErr, "close plugin %s", l.path)
	}
	l.log.Info("plugin unloaded", zap.String("path", l.path))
	return nil
}
