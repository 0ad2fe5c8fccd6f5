package ir

import "fmt"

var (
	kindNames = [...]string{
		KindNone:   "N_NONE",
		FuncDecl:   "FUNCTIONDECL",
		Statement:  "STATEMENT",
		Expression: "EXPRESSION",
	}

	stmtNames = [...]string{
		StmtNone: "S_NONE",
		Assign:   "ASSIGN",
		Return:   "RETURN",
	}

	exprNames = [...]string{
		ExprNone:  "E_NONE",
		Variable:  "VARIABLE",
		Constant:  "CONSTANT",
		Parameter: "PARAMETER",
		Operation: "OPERATION",
	}

	opNames = [...]struct {
		name string
		sym  string
	}{
		OpNone: {"O_NONE", ""},
		Call:   {"FUNCTIONCALL", ""},
		Mul:    {"MULTIPLY", "*"},
		Div:    {"DIVIDE", "/"},
		Add:    {"ADD", "+"},
		Sub:    {"SUBTRACT", "-"},
		Neg:    {"NEGATE", "-"},
		Or:     {"BOR", "|"},
		And:    {"BAND", "&"},
		Xor:    {"BXOR", "^"},
		Shr:    {"BSHR", ">>"},
		Shl:    {"BSHL", "<<"},
	}
)

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", k)
}

func (c StmtCode) String() string {
	if int(c) < len(stmtNames) {
		return stmtNames[c]
	}

	return fmt.Sprintf("StmtCode(%d)", c)
}

func (c ExprCode) String() string {
	if int(c) < len(exprNames) {
		return exprNames[c]
	}

	return fmt.Sprintf("ExprCode(%d)", c)
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op].name
	}

	return fmt.Sprintf("Op(%d)", op)
}

// Symbol is the source-level operator spelling, empty for calls.
func (op Op) Symbol() string {
	if int(op) < len(opNames) {
		return opNames[op].sym
	}

	return ""
}

// OpByName finds an operator by its name as returned by String.
func OpByName(name string) (Op, bool) {
	for op, n := range opNames {
		if n.name == name {
			return Op(op), true
		}
	}

	return OpNone, false
}
