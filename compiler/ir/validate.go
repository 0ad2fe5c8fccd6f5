package ir

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"tlog.app/go/errors"
)

type (
	// MalformedError is a node shape that violates the IR invariants.
	// It signals a front-end or earlier-pass bug.
	MalformedError struct {
		Func   string
		Stmt   int // -1 for the declaration itself
		Reason string
	}
)

var ErrMalformed = errors.New("malformed ir")

// Validate checks every function against the IR invariants and
// reports all violations at once.
func Validate(p Program) error {
	var merr *multierror.Error

	funcs := map[string]struct{}{}

	for i, f := range p {
		if f == nil || f.Kind != FuncDecl {
			merr = multierror.Append(merr, &MalformedError{Func: fmt.Sprintf("#%d", i), Stmt: -1, Reason: "not a function declaration"})
			continue
		}

		if _, ok := funcs[f.Name]; ok && f.Name != "" {
			merr = multierror.Append(merr, &MalformedError{Func: f.Name, Stmt: -1, Reason: "duplicate function"})
		}

		funcs[f.Name] = struct{}{}

		for _, err := range validateFunc(f) {
			merr = multierror.Append(merr, err)
		}
	}

	if err := merr.ErrorOrNil(); err != nil {
		return errors.Wrap(err, "validate")
	}

	return nil
}

func validateFunc(f *Node) (errs []error) {
	bad := func(stmt int, format string, args ...any) {
		errs = append(errs, &MalformedError{Func: f.Name, Stmt: stmt, Reason: fmt.Sprintf(format, args...)})
	}

	if f.Name == "" {
		bad(-1, "function without a name")
	}

	if len(f.Args) > MaxArgs {
		bad(-1, "%d parameters, at most %d supported", len(f.Args), MaxArgs)
	}

	seen := map[string]struct{}{}

	for _, a := range f.Args {
		if a == nil || a.Kind != Expression || a.Expr != Parameter || a.Name == "" {
			bad(-1, "bad parameter: %v", a)
			continue
		}

		if _, ok := seen[a.Name]; ok {
			bad(-1, "duplicate parameter: %v", a.Name)
		}

		seen[a.Name] = struct{}{}
	}

	for i, s := range f.Body {
		if reason := checkStmt(s); reason != "" {
			bad(i, "%s", reason)
		}
	}

	return errs
}

func checkStmt(s *Node) string {
	switch {
	case s == nil:
		return "nil statement"
	case s.IsAssign():
		if s.Name == "" {
			return "assignment without a target"
		}

		if s.Right == nil {
			return "assignment without a source"
		}

		return checkExpr(s.Right)
	case s.IsReturn():
		if s.Left == nil {
			return "return without a value"
		}

		if !isLeaf(s.Left) {
			return fmt.Sprintf("return of %v: want a constant or a variable", s.Left.Expr)
		}

		return ""
	default:
		return fmt.Sprintf("unsupported statement: %v/%v", s.Kind, s.Stmt)
	}
}

func checkExpr(x *Node) string {
	if x.Kind != Expression {
		return fmt.Sprintf("expected expression, got %v", x.Kind)
	}

	switch x.Expr {
	case Constant:
		return ""
	case Variable, Parameter:
		if x.Name == "" {
			return "reference without a name"
		}

		return ""
	case Operation:
	default:
		return fmt.Sprintf("unsupported expression: %v", x.Expr)
	}

	switch x.Op {
	case Call:
		if x.Left == nil || x.Left.Name == "" {
			return "call without a callee"
		}

		if x.Right != nil {
			return "call with a right operand"
		}

		if len(x.Args) > MaxArgs {
			return fmt.Sprintf("call to %v with %d arguments, at most %d supported", x.Left.Name, len(x.Args), MaxArgs)
		}

		for i, a := range x.Args {
			if !isLeaf(a) {
				return fmt.Sprintf("call to %v: argument %d is not a constant or a variable", x.Left.Name, i)
			}
		}

		return ""
	case OpNone:
		return "operation without an operator"
	}

	if x.Op.Arity() == 0 {
		return fmt.Sprintf("unsupported operator: %v", x.Op)
	}

	if !isLeaf(x.Left) {
		return fmt.Sprintf("%v: left operand is not a constant or a variable", x.Op)
	}

	if x.Op.Arity() == 1 {
		if x.Right != nil {
			return fmt.Sprintf("%v: unexpected right operand", x.Op)
		}

		return ""
	}

	if !isLeaf(x.Right) {
		return fmt.Sprintf("%v: right operand is not a constant or a variable", x.Op)
	}

	return ""
}

func isLeaf(x *Node) bool {
	return x.IsConst() || x.IsRef() && x.Name != ""
}

func (e *MalformedError) Error() string {
	if e.Stmt < 0 {
		return fmt.Sprintf("func %v: %v", e.Func, e.Reason)
	}

	return fmt.Sprintf("func %v: stmt %d: %v", e.Func, e.Stmt, e.Reason)
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }
