package plugin

import (
	"fmt"
	goplugin "plugin"

	"github.com/pkg/errors"
)

// Native opens Go plugins built with -buildmode=plugin. The plugin must
// export
//
//	func GetPlugin() P
//	func DeletePlugin(P)
//
// Go plugins cannot be unmapped, so closing a native library only forgets it.
func Native[P any]() Provider[P] {
	return ProviderFunc[P](openNative[P])
}

type nativeLibrary[P any] struct {
	factory    func() P
	destructor func(P)
}

func openNative[P any](path string) (Library[P], error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, err
	}

	factorySym, err := p.Lookup(FactorySymbol)
	if err != nil {
		return nil, errors.Wrap(ErrSymbolNotFound, FactorySymbol)
	}
	factory, ok := factorySym.(func() P)
	if !ok {
		return nil, errors.Wrap(ErrSymbolNotFound, fmt.Sprintf("%s has type %T", FactorySymbol, factorySym))
	}

	destructorSym, err := p.Lookup(DestructorSymbol)
	if err != nil {
		return nil, errors.Wrap(ErrSymbolNotFound, DestructorSymbol)
	}
	destructor, ok := destructorSym.(func(P))
	if !ok {
		return nil, errors.Wrap(ErrSymbolNotFound, fmt.Sprintf("%s has type %T", DestructorSymbol, destructorSym))
	}

	return &nativeLibrary[P]{factory: factory, destructor: destructor}, nil
}

func (n *nativeLibrary[P]) Create() (p P, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%s panicked: %v", FactorySymbol, r)
		}
	}()
	return n.factory(), nil
}

func (n *nativeLibrary[P]) Destroy(p P) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%s panicked: %v", DestructorSymbol, r)
		}
	}()
	n.destructor(p)
	return nil
}

func (n *nativeLibrary[P]) Close() error {
	n.factory = nil
	n.destructor = nil
	return nil
}
