package back

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katiehur5/toy-compiler/compiler/asm/amd64"
	"github.com/katiehur5/toy-compiler/compiler/ir"
)

func compile(t *testing.T, opts Options, p ...*ir.Node) string {
	t.Helper()

	ctx := context.Background()

	b, err := New(opts).CompileProgram(ctx, nil, p)
	require.NoError(t, err)

	return string(b)
}

func TestSum(t *testing.T) {
	f := ir.Func("f", []string{"a", "b"},
		ir.AssignStmt("t", ir.Binary(ir.Add, ir.Param("a"), ir.Param("b"))),
		ir.ReturnStmt(ir.Var("t")),
	)

	assert.Equal(t, `.globl f
f:
pushq %rbp
movq %rsp, %rbp
subq $24, %rsp
movq %rdi, -8(%rbp)
movq %rsi, -16(%rbp)
movq -8(%rbp), %rax
movq -16(%rbp), %rcx
addq %rcx, %rax
movq %rax, -24(%rbp)
movq -24(%rbp), %rax
addq $24, %rsp
popq %rbp
retq
`, compile(t, Options{}, f))
}

func TestOperations(t *testing.T) {
	f := ir.Func("f", []string{"a"},
		ir.AssignStmt("x", ir.Const(3)),
		ir.AssignStmt("y", ir.Var("x")),
		ir.AssignStmt("q", ir.Binary(ir.Div, ir.Param("a"), ir.Var("y"))),
		ir.AssignStmt("s", ir.Binary(ir.Shl, ir.Var("q"), ir.Const(2))),
		ir.AssignStmt("n", ir.Unary(ir.Neg, ir.Var("s"))),
		ir.ReturnStmt(ir.Var("n")),
	)

	assert.Equal(t, `.globl f
f:
pushq %rbp
movq %rsp, %rbp
subq $48, %rsp
movq %rdi, -8(%rbp)
movq $3, -16(%rbp)
movq -16(%rbp), %rax
movq %rax, -24(%rbp)
movq -8(%rbp), %rax
movq -24(%rbp), %rcx
cqto
idivq %rcx
movq %rax, -32(%rbp)
movq -32(%rbp), %rax
movq $2, %rcx
salq %cl, %rax
movq %rax, -40(%rbp)
movq -40(%rbp), %rax
negq %rax
movq %rax, -48(%rbp)
movq -48(%rbp), %rax
addq $48, %rsp
popq %rbp
retq
`, compile(t, Options{}, f))
}

func TestCall(t *testing.T) {
	f := ir.Func("g", []string{"a"},
		ir.AssignStmt("r", ir.CallExpr("h", ir.Param("a"), ir.Const(5))),
		ir.ReturnStmt(ir.Param("a")),
	)

	assert.Equal(t, `.globl g
g:
pushq %rbp
movq %rsp, %rbp
subq $16, %rsp
movq %rdi, -8(%rbp)
movq -8(%rbp), %rdi
movq $5, %rsi
call h
movq -8(%rbp), %rax
addq $16, %rsp
popq %rbp
retq
`, compile(t, Options{}, f))
}

func TestCallResult(t *testing.T) {
	f := ir.Func("g", nil,
		ir.AssignStmt("r", ir.Const(1)),
		ir.AssignStmt("r", ir.CallExpr("h")),
		ir.ReturnStmt(ir.Var("r")),
	)

	ctx := context.Background()

	_, err := New(Options{}).CompileProgram(ctx, nil, ir.Program{f})
	assert.ErrorIs(t, err, ErrNoLocation)

	assert.Equal(t, `.globl g
g:
pushq %rbp
movq %rsp, %rbp
subq $16, %rsp
movq $1, -8(%rbp)
call h
movq %rax, -16(%rbp)
movq -16(%rbp), %rax
addq $16, %rsp
popq %rbp
retq
`, compile(t, Options{CaptureCallResults: true}, f))
}

func TestLargeImmediate(t *testing.T) {
	const big = 1 << 40

	f := ir.Func("f", nil,
		ir.AssignStmt("x", ir.Const(big)),
		ir.AssignStmt("y", ir.Binary(ir.Add, ir.Var("x"), ir.Const(big))),
		ir.AssignStmt("z", ir.CallExpr("g", ir.Const(math.MinInt64))),
		ir.ReturnStmt(ir.Var("y")),
	)

	assert.Equal(t, `.globl f
f:
pushq %rbp
movq %rsp, %rbp
subq $24, %rsp
movabsq $1099511627776, %rax
movq %rax, -8(%rbp)
movq -8(%rbp), %rax
movq -8(%rbp), %rcx
addq %rcx, %rax
movq %rax, -16(%rbp)
movabsq $-9223372036854775808, %rdi
call g
movq -16(%rbp), %rax
addq $24, %rsp
popq %rbp
retq
`, compile(t, Options{}, f))
}

func TestUnreachable(t *testing.T) {
	f := ir.Func("f", nil,
		ir.ReturnStmt(ir.Const(1)),
		ir.AssignStmt("x", ir.Var("undefined")),
		ir.ReturnStmt(ir.Var("x")),
	)

	assert.Equal(t, `.globl f
f:
pushq %rbp
movq %rsp, %rbp
subq $16, %rsp
movq $1, %rax
addq $16, %rsp
popq %rbp
retq
`, compile(t, Options{AlignStack: true}, f))
}

func TestTwoFuncs(t *testing.T) {
	p := []*ir.Node{
		ir.Func("a", nil, ir.ReturnStmt(ir.Const(0))),
		ir.Func("b", nil, ir.ReturnStmt(ir.Const(1))),
	}

	assert.Equal(t, `.globl a
a:
pushq %rbp
movq %rsp, %rbp
subq $0, %rsp
movq $0, %rax
addq $0, %rsp
popq %rbp
retq

.globl b
b:
pushq %rbp
movq %rsp, %rbp
subq $0, %rsp
movq $1, %rax
addq $0, %rsp
popq %rbp
retq
`, compile(t, Options{}, p...))
}

func TestLocationsAreFunctionScoped(t *testing.T) {
	ctx := context.Background()

	p := ir.Program{
		ir.Func("a", []string{"x"}, ir.ReturnStmt(ir.Param("x"))),
		ir.Func("b", nil, ir.ReturnStmt(ir.Var("x"))),
	}

	_, err := New(Options{}).CompileProgram(ctx, nil, p)
	assert.ErrorIs(t, err, ErrNoLocation)
}

func TestTooManyArgs(t *testing.T) {
	ctx := context.Background()

	args := make([]*ir.Node, 7)
	for i := range args {
		args[i] = ir.Const(int64(i))
	}

	p := ir.Program{
		ir.Func("f", nil, ir.AssignStmt("x", ir.CallExpr("g", args...))),
	}

	_, err := New(Options{}).CompileProgram(ctx, nil, p)
	assert.ErrorIs(t, err, ErrTooManyArgs)

	p = ir.Program{
		ir.Func("f", []string{"a", "b", "c", "d", "e", "f", "g"}),
	}

	_, err = New(Options{}).CompileProgram(ctx, nil, p)
	assert.ErrorIs(t, err, ErrTooManyArgs)
}

func TestFrameSize(t *testing.T) {
	f := ir.Func("f", []string{"a"},
		ir.AssignStmt("x", ir.Const(1)),
		ir.AssignStmt("y", ir.Const(2)),
		ir.ReturnStmt(ir.Var("y")),
	)

	assert.Equal(t, int64(24), New(Options{}).frameSize(f))
	assert.Equal(t, int64(32), New(Options{AlignStack: true}).frameSize(f))
}

func TestPool(t *testing.T) {
	p := NewPool()

	r, ok := p.Next(false)
	assert.True(t, ok)
	assert.Equal(t, amd64.RAX, r)

	r, ok = p.Next(true)
	assert.True(t, ok)
	assert.Equal(t, amd64.RBX, r)

	require.NoError(t, p.Take(amd64.RAX))
	require.NoError(t, p.Take(amd64.RBX))
	assert.ErrorIs(t, p.Take(amd64.RAX), ErrRegisterBusy)
	assert.ErrorIs(t, p.Take(amd64.RBP), ErrRegisterBusy)

	r, _ = p.Next(false)
	assert.Equal(t, amd64.R9, r)

	for _, r := range amd64.PoolOrder {
		_ = p.Take(r)
	}

	_, ok = p.Next(false)
	assert.False(t, ok)

	p.ReleaseAll()

	for _, r := range amd64.PoolOrder {
		assert.NoError(t, p.Take(r), "%v", r)
	}

	p.Reset()

	r, ok = p.Next(false)
	assert.True(t, ok)
	assert.Equal(t, amd64.RAX, r)
}

func TestStoreImmStaging(t *testing.T) {
	const big = 1<<40 + 3

	pool := NewPool()
	require.NoError(t, pool.Take(amd64.RAX))

	fc := &funContext{pool: pool, locs: &Locations{}}

	err := fc.storeImm(big, amd64.SlotN(1))
	require.NoError(t, err)

	assert.Equal(t, `movabsq $1099511627779, %rbx
movq %rbx, -8(%rbp)
`, string(fc.b))
}

func TestStoreImmNoRegister(t *testing.T) {
	pool := NewPool()

	for _, r := range amd64.PoolOrder {
		require.NoError(t, pool.Take(r))
	}

	fc := &funContext{pool: pool, locs: &Locations{}}

	err := fc.storeImm(1<<40+3, amd64.SlotN(1))
	require.NoError(t, err)

	err = fc.storeImm(-1<<40, amd64.SlotN(2))
	require.NoError(t, err)

	assert.Equal(t, `movl $3, -8(%rbp)
movl $256, -4(%rbp)
movl $0, -16(%rbp)
movl $-256, -12(%rbp)
`, string(fc.b))
}

func TestLocations(t *testing.T) {
	var l Locations

	_, err := l.Lookup("x")
	assert.ErrorIs(t, err, ErrNoLocation)

	l.Bind("x", amd64.SlotN(1))
	l.Bind("x", amd64.SlotN(3))
	l.BindConst(7, amd64.SlotN(2))

	s, err := l.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, amd64.SlotN(3), s)

	s, ok := l.LookupConst(7)
	assert.True(t, ok)
	assert.Equal(t, amd64.SlotN(2), s)

	l.Unbind("x")

	_, err = l.Lookup("x")
	assert.ErrorIs(t, err, ErrNoLocation)

	l.Reset()

	_, ok = l.LookupConst(7)
	assert.False(t, ok)
}
