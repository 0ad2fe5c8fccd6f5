package back

import (
	"tlog.app/go/errors"

	"github.com/katiehur5/toy-compiler/compiler/asm/amd64"
)

type (
	// Locations maps variables and constant values to the stack slots holding them.
	// Rebinding a key makes the newest slot win.
	Locations struct {
		names  map[string]amd64.Slot
		consts map[int64]amd64.Slot
	}
)

var ErrNoLocation = errors.New("no location")

func (l *Locations) Bind(name string, s amd64.Slot) {
	if l.names == nil {
		l.names = map[string]amd64.Slot{}
	}

	l.names[name] = s
}

func (l *Locations) BindConst(v int64, s amd64.Slot) {
	if l.consts == nil {
		l.consts = map[int64]amd64.Slot{}
	}

	l.consts[v] = s
}

// Unbind forgets the location of name, so later reads fail instead of seeing a stale value.
func (l *Locations) Unbind(name string) {
	delete(l.names, name)
}

func (l *Locations) Lookup(name string) (amd64.Slot, error) {
	s, ok := l.names[name]
	if !ok {
		return 0, errors.Wrap(ErrNoLocation, "%v", name)
	}

	return s, nil
}

func (l *Locations) LookupConst(v int64) (amd64.Slot, bool) {
	s, ok := l.consts[v]
	return s, ok
}

func (l *Locations) Reset() {
	clear(l.names)
	clear(l.consts)
}
