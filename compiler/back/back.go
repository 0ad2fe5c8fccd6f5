package back

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/katiehur5/toy-compiler/compiler/asm"
	"github.com/katiehur5/toy-compiler/compiler/asm/amd64"
	"github.com/katiehur5/toy-compiler/compiler/ir"
)

type (
	Options struct {
		// CaptureCallResults stores a call's %rax into the assigned variable.
		// Without it the target has no location after the call.
		CaptureCallResults bool

		// AlignStack rounds the frame size up to 16 bytes.
		AlignStack bool
	}

	Compiler struct {
		Options
	}

	funContext struct {
		*ir.Node

		b []byte

		pool  *Pool
		locs  *Locations
		slots int
		frame int64
	}
)

var ErrTooManyArgs = errors.New("too many arguments")

var ops = map[ir.Op]string{
	ir.Mul: "imulq",
	ir.Add: "addq",
	ir.Sub: "subq",
	ir.Or:  "orq",
	ir.And: "andq",
	ir.Xor: "xorq",
	ir.Shr: "sarq",
	ir.Shl: "salq",
}

func New(opts Options) *Compiler {
	return &Compiler{Options: opts}
}

// CompileProgram appends assembly for every function of p to b.
func (c *Compiler) CompileProgram(ctx context.Context, b []byte, p ir.Program) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: compile program", "funcs", len(p))
	defer tr.Finish("err", &err)

	pool := NewPool()
	var locs Locations

	for i, f := range p {
		if i != 0 {
			b = append(b, '\n')
		}

		pool.Reset()
		locs.Reset()

		b, err = c.CompileFunc(ctx, b, f, pool, &locs)
		if err != nil {
			return b, errors.Wrap(err, "func %v", f.Name)
		}
	}

	return b, nil
}

// CompileFunc appends assembly for f to b.
// Registers are taken from pool, which must be fully available,
// and locs must hold no bindings from other functions.
func (c *Compiler) CompileFunc(ctx context.Context, b []byte, f *ir.Node, pool *Pool, locs *Locations) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "func", "name", f.Name, "params", len(f.Args), "stmts", len(f.Body))
	defer tr.Finish("err", &err)

	if tr.If("hide_func_" + f.Name) {
		tr.Printw("hide func logs")
		tr.Logger = nil
		ctx = tlog.ContextWithSpan(ctx, tr)
	}

	if f.Kind != ir.FuncDecl {
		return b, errors.New("not a function: %v", f.Kind)
	}

	if len(f.Args) > len(amd64.ArgRegs) {
		return b, errors.Wrap(ErrTooManyArgs, "%d parameters", len(f.Args))
	}

	st := 0

	if tr.If("dump_func") {
		st = len(b)
	}

	fc := &funContext{
		Node:  f,
		b:     b,
		pool:  pool,
		locs:  locs,
		frame: c.frameSize(f),
	}

	fc.prologue()

	for i, s := range f.Body {
		tr.V("stmt").Printw("lower", "i", i, "stmt", s)

		err = c.compileStmt(ctx, fc, s)
		if err != nil {
			return fc.b, errors.Wrap(err, "stmt %d", i)
		}

		if tr.If("regs") {
			tr.Printw("registers", "stmt", i, "pool", fc.pool, "from", loc.Caller(0))
		}

		fc.pool.ReleaseAll()

		if s.IsReturn() {
			if rest := len(f.Body) - i - 1; rest != 0 {
				tr.V("back").Printw("unreachable statements skipped", "count", rest)
			}

			break
		}
	}

	fc.epilogue()

	if tr.If("dump_func") {
		tr.Printw("func asm", "name", f.Name, "frame", fc.frame, "slots", fc.slots, "asm", fc.b[st:])
	}

	return fc.b, nil
}

// frameSize reserves one slot per parameter and per assignment.
func (c *Compiler) frameSize(f *ir.Node) int64 {
	n := len(f.Args) + f.Stmts(ir.Assign)

	size := int64(n) * amd64.WordSize

	if c.AlignStack {
		size = (size + 15) &^ 15
	}

	return size
}

func (c *Compiler) compileStmt(ctx context.Context, fc *funContext, s *ir.Node) (err error) {
	switch {
	case s.IsReturn():
		return fc.load(amd64.Acc, s.Left)
	case !s.IsAssign():
		return errors.New("unsupported statement: %v", s.Stmt)
	}

	x := s.Right

	switch {
	case x.IsConst():
		slot := fc.newSlot()

		err = fc.storeImm(x.Value, slot)
		if err != nil {
			return err
		}

		fc.locs.Bind(s.Name, slot)
		fc.locs.BindConst(x.Value, slot)

		return nil
	case x.IsRef():
		err = fc.load(amd64.Acc, x)
		if err != nil {
			return err
		}
	case x.IsCall():
		err = fc.call(x)
		if err != nil {
			return err
		}

		if !c.CaptureCallResults {
			tlog.SpanFromContext(ctx).V("back").Printw("call result dropped", "target", s.Name, "callee", x.Callee())

			fc.locs.Unbind(s.Name)

			return nil
		}
	case x.IsOp():
		err = fc.operation(x)
		if err != nil {
			return err
		}
	default:
		return errors.New("unsupported source: %v", x.Expr)
	}

	slot := fc.newSlot()

	fc.b = asm.Append(fc.b, "movq", amd64.Acc, slot)
	fc.locs.Bind(s.Name, slot)

	return nil
}

func (fc *funContext) prologue() {
	fc.b = asm.Global(fc.b, asm.Label(fc.Name))
	fc.b = asm.Append(fc.b, "pushq", amd64.FP)
	fc.b = asm.Append(fc.b, "movq", amd64.SP, amd64.FP)
	fc.b = asm.Append(fc.b, "subq", amd64.Imm(fc.frame), amd64.SP)

	for i, p := range fc.Args {
		slot := fc.newSlot()

		fc.b = asm.Append(fc.b, "movq", amd64.ArgRegs[i], slot)
		fc.locs.Bind(p.Name, slot)
	}
}

func (fc *funContext) epilogue() {
	fc.b = asm.Append(fc.b, "addq", amd64.Imm(fc.frame), amd64.SP)
	fc.b = asm.Append(fc.b, "popq", amd64.FP)
	fc.b = asm.Append(fc.b, "retq")
}

func (fc *funContext) call(x *ir.Node) error {
	if len(x.Args) > len(amd64.ArgRegs) {
		return errors.Wrap(ErrTooManyArgs, "call %v: %d arguments", x.Callee(), len(x.Args))
	}

	for i, a := range x.Args {
		err := fc.load(amd64.ArgRegs[i], a)
		if err != nil {
			return errors.Wrap(err, "arg %d", i)
		}
	}

	fc.b = asm.Append(fc.b, "call", asm.Label(x.Callee()))

	return nil
}

func (fc *funContext) operation(x *ir.Node) (err error) {
	err = fc.load(amd64.Acc, x.Left)
	if err != nil {
		return err
	}

	if x.Op == ir.Neg {
		fc.b = asm.Append(fc.b, "negq", amd64.Acc)

		return nil
	}

	err = fc.load(amd64.Scratch, x.Right)
	if err != nil {
		return err
	}

	switch x.Op {
	case ir.Div:
		err = fc.pool.Take(amd64.RDX)
		if err != nil {
			return err
		}

		fc.b = asm.Append(fc.b, "cqto")
		fc.b = asm.Append(fc.b, "idivq", amd64.Scratch)
	case ir.Shr, ir.Shl:
		fc.b = asm.Append(fc.b, ops[x.Op], amd64.Scratch.Low8(), amd64.Acc)
	default:
		m, ok := ops[x.Op]
		if !ok {
			return errors.New("unsupported operator: %v", x.Op)
		}

		fc.b = asm.Append(fc.b, m, amd64.Scratch, amd64.Acc)
	}

	return nil
}

// load takes r and moves the value of leaf x into it.
func (fc *funContext) load(r amd64.Reg, x *ir.Node) error {
	err := fc.pool.Take(r)
	if err != nil {
		return err
	}

	switch {
	case x.IsConst():
		imm := amd64.Imm(x.Value)

		if imm.Fits32() {
			fc.b = asm.Append(fc.b, "movq", imm, r)
		} else if slot, ok := fc.locs.LookupConst(x.Value); ok {
			fc.b = asm.Append(fc.b, "movq", slot, r)
		} else {
			fc.b = asm.Append(fc.b, "movabsq", imm, r)
		}
	case x.IsRef():
		slot, err := fc.locs.Lookup(x.Name)
		if err != nil {
			return err
		}

		fc.b = asm.Append(fc.b, "movq", slot, r)
	default:
		return errors.New("operand is not a leaf: %v", x.Expr)
	}

	return nil
}

// storeImm writes v into slot. Values that don't fit an immediate are staged
// through the next free register, or written as two halves if there is none.
func (fc *funContext) storeImm(v int64, slot amd64.Slot) error {
	imm := amd64.Imm(v)

	if imm.Fits32() {
		fc.b = asm.Append(fc.b, "movq", imm, slot)

		return nil
	}

	r, ok := fc.pool.Next(false)
	if !ok {
		fc.b = asm.Append(fc.b, "movl", amd64.Imm(int32(uint32(v))), slot)
		fc.b = asm.Append(fc.b, "movl", amd64.Imm(int32(v>>32)), slot+4)

		return nil
	}

	err := fc.load(r, ir.Const(v))
	if err != nil {
		return err
	}

	fc.b = asm.Append(fc.b, "movq", r, slot)

	return nil
}

func (fc *funContext) newSlot() amd64.Slot {
	fc.slots++

	return amd64.SlotN(fc.slots)
}
