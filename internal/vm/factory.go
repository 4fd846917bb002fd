package vm

import (
	"fmt"

	"github.com/coregx/coregex"
	"github.com/pkg/errors"

	"github.com/kolkov/usaol/internal/compiler"
	"github.com/kolkov/usaol/internal/engine"
)

// ErrUnknownInstrument is returned by New for names never registered.
var ErrUnknownInstrument = errors.New("unknown instrument")

// Factory maps instrument names to compiled units and creates instances.
// Registration happens during compilation; afterwards the factory is
// only read and may be shared.
type Factory struct {
	units map[string]*compiler.Unit
	names []string // registration order
}

// NewFactory returns an empty factory.
func NewFactory() *Factory {
	return &Factory{units: make(map[string]*compiler.Unit)}
}

// Register adds a unit under name.
func (f *Factory) Register(name string, u *compiler.Unit) error {
	if _, dup := f.units[name]; dup {
		return fmt.Errorf("instrument %s already registered", name)
	}
	f.units[name] = u
	f.names = append(f.names, name)
	return nil
}

// New creates an instance of the named unit and runs its construct slot.
func (f *Factory) New(name string) (engine.Instrument, error) {
	u, ok := f.units[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownInstrument, name)
	}
	in := newInstance(u)
	if err := in.construct(); err != nil {
		return nil, err
	}
	return in, nil
}

// Unit returns the unit registered under name.
func (f *Factory) Unit(name string) (*compiler.Unit, bool) {
	u, ok := f.units[name]
	return u, ok
}

// Names returns the registered names in registration order.
func (f *Factory) Names() []string {
	return append([]string(nil), f.names...)
}

// Match returns the registered names matching the regular expression
// pattern, in registration order.
func (f *Factory) Match(pattern string) ([]string, error) {
	re, err := coregex.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "instrument pattern %q", pattern)
	}
	var names []string
	for _, name := range f.names {
		if re.MatchString(name) {
			names = append(names, name)
		}
	}
	return names, nil
}
