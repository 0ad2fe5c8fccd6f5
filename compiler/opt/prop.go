package opt

import (
	"context"

	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/katiehur5/toy-compiler/compiler/ir"
)

// Propagate substitutes known constant values at variable use sites.
// Values are tracked per function by a single forward scan;
// names are matched textually and the table is reset between functions.
func Propagate(ctx context.Context, p ir.Program) (changed bool) {
	for _, f := range p {
		if propagateFunc(ctx, f) {
			changed = true
		}
	}

	return changed
}

func propagateFunc(ctx context.Context, f *ir.Node) (changed bool) {
	tr := tlog.SpanFromContext(ctx)

	consts := map[string]int64{}

	for i, s := range f.Body {
		s.Reads(func(ref *ir.Node) {
			v, ok := consts[ref.Name]
			if !ok {
				return
			}

			tr.V("opt").Printw("propagate", "func", f.Name, "stmt", i, "name", ref.Name, "value", v, "from", loc.Caller(1))

			ref.SetConst(v)
			changed = true
		})

		if !s.IsAssign() {
			continue
		}

		// call results are unknown, and any other source ends the old value's life
		if s.Right.IsConst() {
			consts[s.Name] = s.Right.Value
		} else {
			delete(consts, s.Name)
		}
	}

	return changed
}
