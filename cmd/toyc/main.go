package main

import (
	"context"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/katiehur5/toy-compiler/compiler"
	"github.com/katiehur5/toy-compiler/compiler/format"
	"github.com/katiehur5/toy-compiler/compiler/ir"
	"github.com/katiehur5/toy-compiler/compiler/irfile"
	"github.com/katiehur5/toy-compiler/compiler/opt"
)

func main() {
	optFlags := []*cli.Flag{
		cli.NewFlag("max-rounds", opt.DefaultOptions().MaxRounds, "optimizer round cap, 0 for none"),
		cli.NewFlag("strict-fold", false, "reject constant operations that fault at run time instead of leaving them"),
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile ir documents to x86-64 assembly",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: append([]*cli.Flag{
			cli.NewFlag("output,o", "", "output file, stdout if empty"),
			cli.NewFlag("no-opt", false, "skip optimization"),
			cli.NewFlag("capture-calls", false, "store call results into the assigned variable"),
			cli.NewFlag("align-stack", false, "round frame sizes up to 16 bytes"),
		}, optFlags...),
	}

	optCmd := &cli.Command{
		Name:        "opt",
		Description: "print ir before and after optimization",
		Action:      optAct,
		Args:        cli.Args{},
		Flags: append([]*cli.Flag{
			cli.NewFlag("yaml", false, "print the optimized program as an ir document"),
		}, optFlags...),
	}

	printCmd := &cli.Command{
		Name:        "print",
		Description: "print ir documents as source",
		Action:      printAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "toyc",
		Description: "toyc optimizes and compiles straight-line function trees",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			compileCmd,
			optCmd,
			printCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func optOptions(c *cli.Command) opt.Options {
	o := opt.DefaultOptions()

	o.MaxRounds = c.Int("max-rounds")

	if c.Bool("strict-fold") {
		o.Faults = opt.FaultReject
	}

	return o
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	opts := compiler.DefaultOptions()
	opts.NoOpt = c.Bool("no-opt")
	opts.Opt = optOptions(c)
	opts.Back.CaptureCallResults = c.Bool("capture-calls")
	opts.Back.AlignStack = c.Bool("align-stack")

	var res []byte

	for i, a := range c.Args {
		obj, err := compiler.CompileFile(ctx, a, opts)
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		if i != 0 {
			res = append(res, '\n')
		}

		res = append(res, obj...)
	}

	if out := c.String("output"); out != "" {
		return compiler.WriteFile(out, res)
	}

	_, err = os.Stdout.Write(res)

	return err
}

func optAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		p, err := irfile.ReadFile(a)
		if err != nil {
			return err
		}

		err = ir.Validate(p)
		if err != nil {
			return errors.Wrap(err, "%v", a)
		}

		var b []byte

		if !c.Bool("yaml") {
			b = append(b, "// before optimization\n"...)

			b, err = format.Program(ctx, b, p)
			if err != nil {
				return errors.Wrap(err, "print %v", a)
			}
		}

		st, err := opt.Optimize(ctx, p, optOptions(c))
		if err != nil {
			return errors.Wrap(err, "optimize %v", a)
		}

		if c.Bool("yaml") {
			y, err := irfile.Encode(p)
			if err != nil {
				return errors.Wrap(err, "encode %v", a)
			}

			b = append(b, y...)
		} else {
			b = append(b, "\n// after optimization\n"...)

			b, err = format.Program(ctx, b, p)
			if err != nil {
				return errors.Wrap(err, "print %v", a)
			}
		}

		tlog.Printw("optimized", "file", a, "rounds", st.Rounds, "folded", st.Folded, "propagated", st.Propagated, "eliminated", st.Eliminated)

		_, err = os.Stdout.Write(b)
		if err != nil {
			return err
		}
	}

	return nil
}

func printAct(c *cli.Command) (err error) {
	ctx := context.Background()

	for _, a := range c.Args {
		p, err := irfile.ReadFile(a)
		if err != nil {
			return err
		}

		b, err := format.Program(ctx, nil, p)
		if err != nil {
			return errors.Wrap(err, "print %v", a)
		}

		_, err = os.Stdout.Write(b)
		if err != nil {
			return err
		}
	}

	return nil
}
