package ir

import "tlog.app/go/tlog/tlwire"

func (n *Node) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if n == nil {
		return e.AppendNil(b)
	}

	b = e.AppendMap(b, -1)

	b = e.AppendKeyValue(b, "kind", n.Kind.String())

	switch n.Kind {
	case Statement:
		b = e.AppendKeyValue(b, "stmt", n.Stmt.String())
	case Expression:
		b = e.AppendKeyValue(b, "expr", n.Expr.String())
	}

	if n.Op != OpNone {
		b = e.AppendKeyValue(b, "op", n.Op.String())
	}

	if n.Name != "" {
		b = e.AppendKeyValue(b, "name", n.Name)
	}

	if n.IsConst() {
		b = e.AppendKeyInt64(b, "value", n.Value)
	}

	if n.Left != nil {
		b = e.AppendKey(b, "l")
		b = n.Left.TlogAppend(b)
	}

	if n.Right != nil {
		b = e.AppendKey(b, "r")
		b = n.Right.TlogAppend(b)
	}

	if n.Kind == FuncDecl && len(n.Body) != 0 {
		b = e.AppendKeyInt(b, "stmts", len(n.Body))
	}

	b = e.AppendBreak(b)

	return b
}
