// Package irfile reads and writes programs as YAML documents.
//
//	funcs:
//	  - name: f
//	    params: [a, b]
//	    body:
//	      - assign: t
//	        value: {op: ADD, left: {param: a}, right: {param: b}}
//	      - assign: r
//	        value: {call: g, args: [{var: t}, {const: 1}]}
//	      - return: {var: t}
//
// Operators are named as ir.Op.String prints them.
package irfile

import (
	"bytes"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"github.com/katiehur5/toy-compiler/compiler/ir"
)

type (
	File struct {
		Funcs []Func `yaml:"funcs"`
	}

	Func struct {
		Name   string   `yaml:"name"`
		Params []string `yaml:"params,omitempty,flow"`
		Body   []Stmt   `yaml:"body"`
	}

	Stmt struct {
		Assign string `yaml:"assign,omitempty"`
		Value  *Expr  `yaml:"value,omitempty"`
		Return *Expr  `yaml:"return,omitempty"`
	}

	Expr struct {
		Const *int64 `yaml:"const,omitempty"`
		Var   string `yaml:"var,omitempty"`
		Param string `yaml:"param,omitempty"`

		Op    string `yaml:"op,omitempty"`
		Left  *Expr  `yaml:"left,omitempty"`
		Right *Expr  `yaml:"right,omitempty"`

		Call string  `yaml:"call,omitempty"`
		Args []*Expr `yaml:"args,omitempty"`
	}
)

func ReadFile(name string) (ir.Program, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	p, err := Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, "%v", name)
	}

	return p, nil
}

func Decode(data []byte) (ir.Program, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes exactly one document. Unknown fields are errors.
func Read(r io.Reader) (ir.Program, error) {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)

	var f File

	err := d.Decode(&f)
	if err == io.EOF {
		return nil, errors.New("empty document")
	}
	if err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}

	var extra yaml.Node

	err = d.Decode(&extra)
	if err == nil {
		return nil, errors.New("more than one document")
	}
	if err != io.EOF {
		return nil, errors.Wrap(err, "decode yaml")
	}

	return f.Program()
}

// Program builds the IR tree.
func (f *File) Program() (ir.Program, error) {
	p := make(ir.Program, 0, len(f.Funcs))

	for i, fn := range f.Funcs {
		n, err := fn.node()
		if err != nil {
			return nil, errors.Wrap(err, "func %d %v", i, fn.Name)
		}

		p = append(p, n)
	}

	return p, nil
}

func (fn *Func) node() (*ir.Node, error) {
	if fn.Name == "" {
		return nil, errors.New("no name")
	}

	n := ir.Func(fn.Name, fn.Params)

	for i, s := range fn.Body {
		x, err := s.node()
		if err != nil {
			return nil, errors.Wrap(err, "stmt %d", i)
		}

		n.Body = append(n.Body, x)
	}

	return n, nil
}

func (s *Stmt) node() (*ir.Node, error) {
	switch {
	case s.Return != nil && (s.Assign != "" || s.Value != nil):
		return nil, errors.New("both return and assign")
	case s.Return != nil:
		x, err := s.Return.node()
		if err != nil {
			return nil, errors.Wrap(err, "return")
		}

		return ir.ReturnStmt(x), nil
	case s.Assign == "":
		return nil, errors.New("neither return nor assign")
	case s.Value == nil:
		return nil, errors.New("assign %v: no value", s.Assign)
	}

	x, err := s.Value.node()
	if err != nil {
		return nil, errors.Wrap(err, "assign %v", s.Assign)
	}

	return ir.AssignStmt(s.Assign, x), nil
}

func (e *Expr) node() (_ *ir.Node, err error) {
	if e == nil {
		return nil, errors.New("missing expression")
	}

	forms := 0

	for _, set := range []bool{e.Const != nil, e.Var != "", e.Param != "", e.Op != "", e.Call != ""} {
		if set {
			forms++
		}
	}

	if forms != 1 {
		return nil, errors.New("expression must have exactly one of const, var, param, op, call")
	}

	switch {
	case e.Const != nil:
		return ir.Const(*e.Const), nil
	case e.Var != "":
		return ir.Var(e.Var), nil
	case e.Param != "":
		return ir.Param(e.Param), nil
	case e.Call != "":
		x := ir.CallExpr(e.Call)

		for i, a := range e.Args {
			arg, err := a.node()
			if err != nil {
				return nil, errors.Wrap(err, "arg %d", i)
			}

			x.Args = append(x.Args, arg)
		}

		return x, nil
	}

	op, ok := ir.OpByName(strings.ToUpper(e.Op))
	if !ok || op.Arity() == 0 {
		return nil, errors.New("unsupported operator: %q", e.Op)
	}

	x := ir.Unary(op, nil)

	x.Left, err = e.Left.node()
	if err != nil {
		return nil, errors.Wrap(err, "left")
	}

	if op.Arity() == 1 {
		if e.Right != nil {
			return nil, errors.New("%v takes one operand", op)
		}

		return x, nil
	}

	x.Right, err = e.Right.node()
	if err != nil {
		return nil, errors.Wrap(err, "right")
	}

	return x, nil
}

// Encode writes p as a YAML document.
func Encode(p ir.Program) ([]byte, error) {
	f, err := FromProgram(p)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	e := yaml.NewEncoder(&buf)
	e.SetIndent(2)

	err = e.Encode(f)
	if err != nil {
		return nil, errors.Wrap(err, "encode yaml")
	}

	err = e.Close()
	if err != nil {
		return nil, errors.Wrap(err, "encode yaml")
	}

	return buf.Bytes(), nil
}

func FromProgram(p ir.Program) (*File, error) {
	f := &File{Funcs: make([]Func, 0, len(p))}

	for i, n := range p {
		if n.Kind != ir.FuncDecl {
			return nil, errors.New("entry %d: not a function: %v", i, n.Kind)
		}

		fn := Func{Name: n.Name}

		for _, a := range n.Args {
			fn.Params = append(fn.Params, a.Name)
		}

		for j, s := range n.Body {
			var st Stmt
			var err error

			switch {
			case s.IsAssign():
				st.Assign = s.Name
				st.Value, err = fromExpr(s.Right)
			case s.IsReturn():
				st.Return, err = fromExpr(s.Left)
			default:
				err = errors.New("unsupported statement: %v", s.Stmt)
			}

			if err != nil {
				return nil, errors.Wrap(err, "func %v: stmt %d", n.Name, j)
			}

			fn.Body = append(fn.Body, st)
		}

		f.Funcs = append(f.Funcs, fn)
	}

	return f, nil
}

func fromExpr(x *ir.Node) (e *Expr, err error) {
	switch {
	case x.IsConst():
		v := x.Value
		return &Expr{Const: &v}, nil
	case x.IsRef() && x.Expr == ir.Parameter:
		return &Expr{Param: x.Name}, nil
	case x.IsRef():
		return &Expr{Var: x.Name}, nil
	case x.IsCall():
		e = &Expr{Call: x.Callee()}

		for i, a := range x.Args {
			arg, err := fromExpr(a)
			if err != nil {
				return nil, errors.Wrap(err, "arg %d", i)
			}

			e.Args = append(e.Args, arg)
		}

		return e, nil
	case x.IsOp():
		e = &Expr{Op: x.Op.String()}

		e.Left, err = fromExpr(x.Left)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		if x.Right == nil {
			return e, nil
		}

		e.Right, err = fromExpr(x.Right)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}

		return e, nil
	case x == nil:
		return nil, errors.New("missing expression")
	default:
		return nil, errors.New("unsupported expression: %v", x.Expr)
	}
}
