package compiler

import (
	"bytes"
	"context"

	"github.com/natefinch/atomic"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/katiehur5/toy-compiler/compiler/back"
	"github.com/katiehur5/toy-compiler/compiler/format"
	"github.com/katiehur5/toy-compiler/compiler/ir"
	"github.com/katiehur5/toy-compiler/compiler/irfile"
	"github.com/katiehur5/toy-compiler/compiler/opt"
)

type (
	Options struct {
		NoOpt bool

		Opt  opt.Options
		Back back.Options
	}
)

func DefaultOptions() Options {
	return Options{
		Opt: opt.DefaultOptions(),
	}
}

func CompileFile(ctx context.Context, name string, opts Options) (obj []byte, err error) {
	p, err := irfile.ReadFile(name)
	if err != nil {
		return nil, err
	}

	tlog.SpanFromContext(ctx).Printw("read file", "name", name, "funcs", len(p), "nodes", ir.Count(p))

	return Compile(ctx, p, opts)
}

// Compile validates p, optimizes it in place unless disabled, and generates assembly.
func Compile(ctx context.Context, p ir.Program, opts Options) (obj []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "funcs", len(p), "no_opt", opts.NoOpt)
	defer tr.Finish("err", &err)

	err = ir.Validate(p)
	if err != nil {
		return nil, err
	}

	if tr.If("dump_ir") {
		dumpIR(ctx, "ir before", p)
	}

	if !opts.NoOpt {
		st, err := opt.Optimize(ctx, p, opts.Opt)
		if err != nil {
			return nil, errors.Wrap(err, "optimize")
		}

		tr.Printw("optimized", "rounds", st.Rounds, "nodes", ir.Count(p))

		if tr.If("dump_ir") {
			dumpIR(ctx, "ir after", p)
		}
	}

	obj, err = back.New(opts.Back).CompileProgram(ctx, nil, p)
	if err != nil {
		return nil, errors.Wrap(err, "codegen")
	}

	return obj, nil
}

// WriteFile replaces name with data atomically,
// so a failed write leaves no partial artifact.
func WriteFile(name string, data []byte) error {
	err := atomic.WriteFile(name, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "write %v", name)
	}

	return nil
}

func dumpIR(ctx context.Context, msg string, p ir.Program) {
	tr := tlog.SpanFromContext(ctx)

	b, err := format.Program(ctx, nil, p)
	if err != nil {
		tr.Printw(msg, "err", err)
		return
	}

	tr.Printw(msg, "funcs", len(p), "text", b)
}
