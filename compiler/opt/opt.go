package opt

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/katiehur5/toy-compiler/compiler/ir"
)

type (
	Options struct {
		// MaxRounds caps driver rounds. Zero means no cap.
		MaxRounds int

		Faults FaultPolicy
	}

	// Stats counts driver rounds, including the final no-op one,
	// and the rounds in which each pass changed the program.
	Stats struct {
		Rounds     int
		Folded     int
		Propagated int
		Eliminated int
	}
)

var ErrNoFixedPoint = errors.New("no fixed point")

func DefaultOptions() Options {
	return Options{
		MaxRounds: 1000,
		Faults:    FaultDefer,
	}
}

// Optimize runs folding, propagation and dead assignment elimination
// over the whole program until a full round changes nothing.
func Optimize(ctx context.Context, p ir.Program, opts Options) (st Stats, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "optimize", "funcs", len(p), "max_rounds", opts.MaxRounds)
	defer tr.Finish("err", &err)

	for {
		if opts.MaxRounds > 0 && st.Rounds >= opts.MaxRounds {
			return st, errors.Wrap(ErrNoFixedPoint, "after %d rounds", st.Rounds)
		}

		st.Rounds++

		folded, err := Fold(ctx, p, opts.Faults)
		if err != nil {
			return st, errors.Wrap(err, "fold")
		}

		propagated := Propagate(ctx, p)
		eliminated := EliminateDead(ctx, p)

		st.Folded += b2i(folded)
		st.Propagated += b2i(propagated)
		st.Eliminated += b2i(eliminated)

		tr.V("opt").Printw("round", "round", st.Rounds, "folded", folded, "propagated", propagated, "eliminated", eliminated, "nodes", ir.Count(p))

		if !folded && !propagated && !eliminated {
			break
		}
	}

	tr.Printw("fixed point", "rounds", st.Rounds, "folded", st.Folded, "propagated", st.Propagated, "eliminated", st.Eliminated)

	return st, nil
}

func b2i(b bool) int {
	if b {
		return 1
	}

	return 0
}
