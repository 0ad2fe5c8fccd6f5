package ir

// Walk visits every node of every function in pre-order.
// Returning false from f skips the node's children.
func (p Program) Walk(f func(n *Node) bool) {
	for _, fn := range p {
		fn.Walk(f)
	}
}

// Walk visits n and its subtree in pre-order:
// the node, Left, Right, Args, then Body.
func (n *Node) Walk(f func(n *Node) bool) {
	if n == nil || !f(n) {
		return
	}

	n.Left.Walk(f)
	n.Right.Walk(f)

	for _, x := range n.Args {
		x.Walk(f)
	}

	for _, x := range n.Body {
		x.Walk(f)
	}
}

// Count returns the total number of nodes in the program.
func Count(p Program) (r int) {
	p.Walk(func(*Node) bool {
		r++
		return true
	})

	return r
}

// Stmts counts the function's statements of the given kind.
func (n *Node) Stmts(code StmtCode) (r int) {
	for _, s := range n.Body {
		if s.Kind == Statement && s.Stmt == code {
			r++
		}
	}

	return r
}
