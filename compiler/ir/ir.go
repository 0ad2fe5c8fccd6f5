package ir

type (
	Kind     uint8
	StmtCode uint8
	ExprCode uint8
	Op       uint8

	// Node is a function declaration, a statement or an expression.
	// A node exclusively owns Left, Right, Args and Body.
	//
	//	FuncDecl:  Name, Args (parameters), Body (statements)
	//	Assign:    Name (target), Right (source)
	//	Return:    Left (source)
	//	Constant:  Value
	//	Variable,
	//	Parameter: Name
	//	Operation: Op, Left, Right (binary only)
	//	Call:      Op == Call, Left (FuncDecl reference, callee name), Args
	Node struct {
		Kind Kind
		Stmt StmtCode
		Expr ExprCode
		Op   Op

		Name  string
		Value int64

		Left  *Node
		Right *Node

		Args []*Node
		Body []*Node
	}

	// Program is the worklist: independent function trees in source order.
	Program []*Node
)

const (
	KindNone Kind = iota
	FuncDecl
	Statement
	Expression
)

const (
	StmtNone StmtCode = iota
	Assign
	Return
)

const (
	ExprNone ExprCode = iota
	Variable
	Constant
	Parameter
	Operation
)

const (
	OpNone Op = iota
	Call
	Mul
	Div
	Add
	Sub
	Neg
	Or
	And
	Xor
	Shr
	Shl
)

// MaxArgs is the number of integer argument registers.
const MaxArgs = 6

func Func(name string, params []string, body ...*Node) *Node {
	f := &Node{
		Kind: FuncDecl,
		Name: name,
		Body: body,
	}

	for _, p := range params {
		f.Args = append(f.Args, Param(p))
	}

	return f
}

func AssignStmt(name string, src *Node) *Node {
	return &Node{Kind: Statement, Stmt: Assign, Name: name, Right: src}
}

func ReturnStmt(src *Node) *Node {
	return &Node{Kind: Statement, Stmt: Return, Left: src}
}

func Const(v int64) *Node {
	return &Node{Kind: Expression, Expr: Constant, Value: v}
}

func Var(name string) *Node {
	return &Node{Kind: Expression, Expr: Variable, Name: name}
}

func Param(name string) *Node {
	return &Node{Kind: Expression, Expr: Parameter, Name: name}
}

func Binary(op Op, l, r *Node) *Node {
	return &Node{Kind: Expression, Expr: Operation, Op: op, Left: l, Right: r}
}

func Unary(op Op, x *Node) *Node {
	return &Node{Kind: Expression, Expr: Operation, Op: op, Left: x}
}

func CallExpr(callee string, args ...*Node) *Node {
	return &Node{
		Kind: Expression,
		Expr: Operation,
		Op:   Call,
		Left: &Node{Kind: FuncDecl, Name: callee},
		Args: args,
	}
}

func (n *Node) IsAssign() bool { return n != nil && n.Kind == Statement && n.Stmt == Assign }
func (n *Node) IsReturn() bool { return n != nil && n.Kind == Statement && n.Stmt == Return }

func (n *Node) IsConst() bool { return n != nil && n.Kind == Expression && n.Expr == Constant }

// IsRef reports whether n reads a variable or a parameter.
func (n *Node) IsRef() bool {
	return n != nil && n.Kind == Expression && (n.Expr == Variable || n.Expr == Parameter)
}

func (n *Node) IsOp() bool { return n != nil && n.Kind == Expression && n.Expr == Operation }

func (n *Node) IsCall() bool { return n.IsOp() && n.Op == Call }

// Source returns the expression a statement evaluates.
func (n *Node) Source() *Node {
	switch {
	case n.IsAssign():
		return n.Right
	case n.IsReturn():
		return n.Left
	default:
		return nil
	}
}

// Callee returns the called function name of a Call operation.
func (n *Node) Callee() string {
	if !n.IsCall() || n.Left == nil {
		return ""
	}

	return n.Left.Name
}

// SetConst overwrites n in place with a constant.
func (n *Node) SetConst(v int64) {
	*n = Node{
		Kind:  Expression,
		Expr:  Constant,
		Value: v,
	}
}

// Reads calls f for every reference the statement reads:
// operation operands, a bare assignment source, call arguments and the returned value.
func (n *Node) Reads(f func(ref *Node)) {
	src := n.Source()

	switch {
	case src == nil:
	case src.IsRef():
		f(src)
	case src.IsCall():
		for _, a := range src.Args {
			if a.IsRef() {
				f(a)
			}
		}
	case src.IsOp():
		if src.Left.IsRef() {
			f(src.Left)
		}

		if src.Right.IsRef() {
			f(src.Right)
		}
	}
}

// RemoveStmts splices out of the function body every statement dead reports,
// keeping the order of the rest. It returns the number of removed statements.
func (n *Node) RemoveStmts(dead func(s *Node) bool) int {
	j := 0

	for _, s := range n.Body {
		if dead(s) {
			continue
		}

		n.Body[j] = s
		j++
	}

	removed := len(n.Body) - j

	clear(n.Body[j:])
	n.Body = n.Body[:j]

	return removed
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	c := *n
	c.Left = n.Left.Clone()
	c.Right = n.Right.Clone()
	c.Args = cloneList(n.Args)
	c.Body = cloneList(n.Body)

	return &c
}

func (p Program) Clone() Program {
	return cloneList(p)
}

func cloneList(l []*Node) []*Node {
	if l == nil {
		return nil
	}

	r := make([]*Node, len(l))

	for i, x := range l {
		r[i] = x.Clone()
	}

	return r
}

// Arity is the number of operand children op takes.
func (op Op) Arity() int {
	switch op {
	case Neg:
		return 1
	case Mul, Div, Add, Sub, Or, And, Xor, Shr, Shl:
		return 2
	default:
		return 0
	}
}
