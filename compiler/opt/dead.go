package opt

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/katiehur5/toy-compiler/compiler/ir"
	"github.com/katiehur5/toy-compiler/compiler/set"
)

// EliminateDead removes assignments whose target is never read in the function.
//
// It is a single static pass: reads are collected over the statement list
// as it was before any removal, so values feeding a removed assignment
// become dead only on the next invocation.
func EliminateDead(ctx context.Context, p ir.Program) (changed bool) {
	tr := tlog.SpanFromContext(ctx)

	for _, f := range p {
		read := trackReads(f)

		if tr.If("dump_reads") {
			tr.Printw("reads", "func", f.Name, "names", read.List())
		}

		n := f.RemoveStmts(func(s *ir.Node) bool {
			return s.IsAssign() && !read.Has(s.Name)
		})

		if n == 0 {
			continue
		}

		tr.V("opt").Printw("dead assignments removed", "func", f.Name, "removed", n)

		changed = true
	}

	return changed
}

func trackReads(f *ir.Node) *set.NameSet {
	var read set.NameSet

	for _, s := range f.Body {
		s.Reads(func(ref *ir.Node) {
			read.Add(ref.Name)
		})
	}

	return &read
}
