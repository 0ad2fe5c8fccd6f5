package back

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog/tlwire"

	"github.com/katiehur5/toy-compiler/compiler/asm/amd64"
	"github.com/katiehur5/toy-compiler/compiler/set"
)

type (
	// Pool tracks which general purpose registers are free.
	// Registers are handed out in amd64.PoolOrder.
	Pool struct {
		free  set.Bits[amd64.Reg]
		taken []amd64.Reg
	}
)

var ErrRegisterBusy = errors.New("register busy")

func NewPool() *Pool {
	p := &Pool{}
	p.Reset()

	return p
}

// Reset makes every pool register available.
func (p *Pool) Reset() {
	p.free.Reset()
	p.free.SetAll(amd64.PoolOrder[:]...)

	p.taken = p.taken[:0]
}

// Next returns the first available register, skipping the accumulator if noAcc.
func (p *Pool) Next(noAcc bool) (amd64.Reg, bool) {
	for _, r := range amd64.PoolOrder {
		if noAcc && r == amd64.Acc {
			continue
		}

		if p.free.IsSet(r) {
			return r, true
		}
	}

	return -1, false
}

// Take marks r unavailable.
func (p *Pool) Take(r amd64.Reg) error {
	if !p.free.IsSet(r) {
		return errors.Wrap(ErrRegisterBusy, "%v", r)
	}

	p.free.Clear(r)
	p.taken = append(p.taken, r)

	return nil
}

// ReleaseAll frees every register taken since the last release.
func (p *Pool) ReleaseAll() {
	for _, r := range p.taken {
		p.free.Set(r)
	}

	p.taken = p.taken[:0]
}

func (p *Pool) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 2)

	b = e.AppendKey(b, "free")
	b = p.free.TlogAppend(b)

	b = e.AppendKey(b, "taken")
	b = e.AppendArray(b, len(p.taken))

	for _, r := range p.taken {
		b = e.AppendFormat(b, "%v", r)
	}

	return b
}
