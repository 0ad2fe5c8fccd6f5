package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/katiehur5/toy-compiler/compiler/ir"
)

// Program prints p as C-like source, one function after another.
func Program(ctx context.Context, b []byte, p ir.Program) (_ []byte, err error) {
	for i, f := range p {
		if i != 0 {
			b = append(b, '\n')
		}

		b, err = Func(ctx, b, f)
		if err != nil {
			return b, errors.Wrap(err, "func %v", f.Name)
		}
	}

	return b, nil
}

func Func(ctx context.Context, b []byte, f *ir.Node) (_ []byte, err error) {
	return formatFunc(ctx, b, f, 0)
}

func formatFunc(ctx context.Context, b []byte, f *ir.Node, d int) (_ []byte, err error) {
	if f.Kind != ir.FuncDecl {
		return b, errors.New("not a function: %v", f.Kind)
	}

	b = app(b, d, "long %s(", f.Name)

	for i, a := range f.Args {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = app(b, 0, "long %s", a.Name)
	}

	b = append(b, ") {\n"...)

	for i, s := range f.Body {
		b, err = formatStmt(ctx, b, s, d+1)
		if err != nil {
			return b, errors.Wrap(err, "stmt %d", i)
		}
	}

	b = app(b, d, "}\n")

	return b, nil
}

func formatStmt(ctx context.Context, b []byte, s *ir.Node, d int) (_ []byte, err error) {
	switch {
	case s.IsAssign():
		b = app(b, d, "%s = ", s.Name)

		b, err = Expr(b, s.Right)
		if err != nil {
			return b, errors.Wrap(err, "rhs")
		}
	case s.IsReturn():
		b = app(b, d, "return ")

		b, err = Expr(b, s.Left)
		if err != nil {
			return b, errors.Wrap(err, "value")
		}
	default:
		return b, errors.New("unsupported stmt: %v/%v", s.Kind, s.Stmt)
	}

	b = append(b, ";\n"...)

	return b, nil
}

// Expr prints an expression tree. Operations are fully parenthesized.
func Expr(b []byte, x *ir.Node) (_ []byte, err error) {
	switch {
	case x.IsConst():
		b = hfmt.Appendf(b, "%d", x.Value)
	case x.IsRef():
		b = append(b, x.Name...)
	case x.IsCall():
		b = app(b, 0, "%s(", x.Callee())

		for i, a := range x.Args {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = Expr(b, a)
			if err != nil {
				return b, errors.Wrap(err, "arg %d", i)
			}
		}

		b = append(b, ')')
	case x.IsOp() && x.Op.Arity() == 1:
		b = app(b, 0, "(%s", x.Op.Symbol())

		b, err = Expr(b, x.Left)
		if err != nil {
			return b, errors.Wrap(err, "operand")
		}

		b = append(b, ')')
	case x.IsOp() && x.Op.Arity() == 2:
		b = append(b, '(')

		b, err = Expr(b, x.Left)
		if err != nil {
			return b, errors.Wrap(err, "left")
		}

		b = app(b, 0, " %s ", x.Op.Symbol())

		b, err = Expr(b, x.Right)
		if err != nil {
			return b, errors.Wrap(err, "right")
		}

		b = append(b, ')')
	case x == nil:
		return b, errors.New("missing expression")
	default:
		return b, errors.New("unsupported expr: %v/%v", x.Expr, x.Op)
	}

	return b, nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
