package ir

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func sample() *Node {
	return Func("f", []string{"a", "b"},
		AssignStmt("x", Const(5)),
		AssignStmt("y", Binary(Add, Var("x"), Param("a"))),
		AssignStmt("z", CallExpr("g", Var("y"), Const(1), Param("b"))),
		AssignStmt("w", Var("z")),
		AssignStmt("n", Unary(Neg, Var("w"))),
		ReturnStmt(Var("n")),
	)
}

func TestReads(t *testing.T) {
	f := sample()

	var reads []string

	for _, s := range f.Body {
		s.Reads(func(ref *Node) {
			reads = append(reads, ref.Name)
		})
	}

	assert.Equal(t, []string{"x", "a", "y", "b", "z", "w", "n"}, reads)
}

func TestSetConst(t *testing.T) {
	x := Binary(Mul, Var("a"), Const(3))
	x.SetConst(7)

	assert.Equal(t, &Node{Kind: Expression, Expr: Constant, Value: 7}, x)
}

func TestRemoveStmts(t *testing.T) {
	f := sample()

	n := f.RemoveStmts(func(s *Node) bool {
		return s.IsAssign() && (s.Name == "x" || s.Name == "w")
	})

	assert.Equal(t, 2, n)

	var names []string

	for _, s := range f.Body {
		names = append(names, s.Name)
	}

	assert.Equal(t, []string{"y", "z", "n", ""}, names)
}

func TestCloneCount(t *testing.T) {
	p := Program{sample(), Func("g", nil, ReturnStmt(Const(0)))}

	c := p.Clone()
	require.Equal(t, p, c)

	// f: decl, 2 params, statements 2+4+6+2+3+2; g: decl, return, constant
	assert.Equal(t, 25, Count(p))

	c[0].Body[1].Right.SetConst(1)
	assert.True(t, p[0].Body[1].Right.IsOp())
	assert.Equal(t, Count(p)-2, Count(c))
}

func TestValidateOK(t *testing.T) {
	assert.NoError(t, Validate(Program{sample()}))
}

func TestValidateMalformed(t *testing.T) {
	p := Program{
		Func("f", []string{"a", "a", "b", "c", "d", "e", "g"},
			AssignStmt("", Const(1)),
			AssignStmt("x", Binary(Add, Var("a"), nil)),
			AssignStmt("y", Binary(Add, Binary(Mul, Const(1), Const(2)), Const(3))),
			AssignStmt("z", Unary(Neg, nil)),
			ReturnStmt(nil),
		),
		Func("h", nil,
			AssignStmt("r", CallExpr("f", Const(1), Const(2), Const(3), Const(4), Const(5), Const(6), Const(7))),
			ReturnStmt(Binary(Add, Const(1), Const(1))),
			&Node{Kind: Statement},
		),
		nil,
	}

	err := Validate(p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 11)

	var m *MalformedError
	require.ErrorAs(t, merr.Errors[0], &m)
	assert.Equal(t, "f", m.Func)
	assert.Equal(t, -1, m.Stmt)
}

func TestValidateDuplicateFunc(t *testing.T) {
	p := Program{
		Func("f", nil, ReturnStmt(Const(1))),
		Func("g", nil, ReturnStmt(Const(2))),
		Func("f", []string{"a"}, ReturnStmt(Param("a"))),
	}

	err := Validate(p)
	assert.ErrorIs(t, err, ErrMalformed)

	var m *MalformedError
	require.ErrorAs(t, err, &m)
	assert.Equal(t, "f", m.Func)
	assert.Equal(t, "duplicate function", m.Reason)

	assert.NoError(t, Validate(p[:2]))
}

func TestOpNames(t *testing.T) {
	for op := Call; op <= Shl; op++ {
		got, ok := OpByName(op.String())
		assert.True(t, ok, op)
		assert.Equal(t, op, got)
	}

	assert.Equal(t, 1, Neg.Arity())
	assert.Equal(t, 2, Shl.Arity())
	assert.Equal(t, 0, Call.Arity())
	assert.Equal(t, "<<", Shl.Symbol())
}

func TestRemoveStmtsKeepsOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOf(rapid.SampledFrom([]string{"a", "b", "c", "d"})).Draw(t, "names")
		dead := rapid.SampledFrom([]string{"a", "b", "c", "d"}).Draw(t, "dead")

		f := Func("f", nil)

		var exp []string

		for i, n := range names {
			f.Body = append(f.Body, AssignStmt(n, Const(int64(i))))

			if n != dead {
				exp = append(exp, n)
			}
		}

		before := Count(Program{f})

		removed := f.RemoveStmts(func(s *Node) bool { return s.Name == dead })

		var got []string

		for _, s := range f.Body {
			got = append(got, s.Name)
		}

		assert.Equal(t, exp, got)
		assert.Equal(t, len(names)-len(exp), removed)
		assert.Equal(t, before-2*removed, Count(Program{f}))
	})
}
