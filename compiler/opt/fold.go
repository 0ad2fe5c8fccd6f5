package opt

import (
	"context"
	"fmt"
	"math"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/katiehur5/toy-compiler/compiler/ir"
)

type (
	// FaultPolicy decides what folding does with an operation it can't evaluate:
	// division by zero, MinInt64 / -1, or a shift count outside [0, 63].
	// At run time the divisions trap and the shifts use the count masked to 6 bits.
	FaultPolicy int

	FaultError struct {
		Op     ir.Op
		L, R   int64
		Reason string
	}
)

const (
	// FaultDefer leaves the operation unfolded for the generated code to execute natively.
	FaultDefer FaultPolicy = iota
	// FaultReject rejects the program.
	FaultReject
)

var ErrFoldFault = errors.New("arithmetic fault")

// Fold replaces every assignment source that is a non-call operation
// over constant operands with the constant it evaluates to.
func Fold(ctx context.Context, p ir.Program, faults FaultPolicy) (changed bool, err error) {
	for _, f := range p {
		c, err := foldFunc(ctx, f, faults)
		if err != nil {
			return changed, errors.Wrap(err, "func %v", f.Name)
		}

		changed = changed || c
	}

	return changed, nil
}

func foldFunc(ctx context.Context, f *ir.Node, faults FaultPolicy) (changed bool, err error) {
	tr := tlog.SpanFromContext(ctx)

	for i, s := range f.Body {
		if !s.IsAssign() {
			continue
		}

		x := s.Right

		if !x.IsOp() || x.IsCall() || !x.Left.IsConst() {
			continue
		}

		var r int64

		if x.Op.Arity() == 2 {
			if !x.Right.IsConst() {
				continue
			}

			r = x.Right.Value
		}

		v, err := Eval(x.Op, x.Left.Value, r)
		if _, ok := err.(*FaultError); ok && faults == FaultDefer {
			tr.V("opt").Printw("fold deferred", "func", f.Name, "stmt", i, "target", s.Name, "reason", err)
			continue
		}
		if err != nil {
			return changed, errors.Wrap(err, "stmt %d: %v", i, s.Name)
		}

		tr.V("opt").Printw("fold", "func", f.Name, "stmt", i, "target", s.Name, "op", x.Op, "value", v)

		x.SetConst(v)
		changed = true
	}

	return changed, nil
}

// Eval computes op over constant operands in 64-bit two's complement.
// b is ignored for unary operators.
// Operations that would fault at run time return *FaultError.
func Eval(op ir.Op, a, b int64) (int64, error) {
	switch op {
	case ir.Mul:
		switch {
		case a == 1:
			return b, nil
		case b == 1:
			return a, nil
		case a == 0, b == 0:
			return 0, nil
		case a == 2:
			return b + b, nil
		case b == 2:
			return a + a, nil
		}

		return a * b, nil
	case ir.Div:
		switch {
		case b == 1:
			return a, nil
		case b == 0:
			return 0, &FaultError{Op: op, L: a, R: b, Reason: "division by zero"}
		case a == math.MinInt64 && b == -1:
			return 0, &FaultError{Op: op, L: a, R: b, Reason: "division overflow"}
		}

		return a / b, nil
	case ir.Add:
		return a + b, nil
	case ir.Sub:
		return a - b, nil
	case ir.Neg:
		return -a, nil
	case ir.Or:
		return a | b, nil
	case ir.And:
		return a & b, nil
	case ir.Xor:
		return a ^ b, nil
	case ir.Shr, ir.Shl:
		if b < 0 || b > 63 {
			return 0, &FaultError{Op: op, L: a, R: b, Reason: "shift count out of range"}
		}

		if op == ir.Shr {
			return a >> b, nil
		}

		return a << b, nil
	}

	return 0, errors.New("unsupported operator: %v", op)
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%v: %d %v %d", e.Reason, e.L, e.Op.Symbol(), e.R)
}

func (e *FaultError) Unwrap() error { return ErrFoldFault }
