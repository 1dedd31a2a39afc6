package query

// Span locates a node in the source text, in bytes, plus the 1-based line
// it starts on; carried through parsing so a future error reporter can
// point at the offending token without re-lexing.
type Span struct {
	Lo, Hi int
	Line   int
}

func joinSpan(a, b Span) Span {
	return Span{Lo: a.Lo, Hi: b.Hi, Line: a.Line}
}

// Program is a parsed query script: a flat list of top-level statements,
// executed in order by the interpreter.
type Program struct {
	Stmts []Expr
}

// BinOp identifies which of the six flat-precedence binary operators a
// binOpNode applies.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEqual
)

// Expr is a single AST node: a Span plus the node's shape. Node is one of
// the *Node types below; the interpreter type-switches on it the same way
// interpret_expr matches on Expr_.
type Expr struct {
	Span Span
	Node Node
}

// Node is the marker interface implemented by every concrete AST node
// shape (Add/Sub/.../Dict), standing in for the enum aw-query's Expr_
// would otherwise be.
type Node interface {
	exprNode()
}

type BinOpNode struct {
	Op          BinOp
	Left, Right Expr
}

type VarNode struct {
	Name string
}

type AssignNode struct {
	Name  string
	Value Expr
}

type FunctionNode struct {
	Name string
	Args Expr // always a ListNode
}

// IfClause is one (condition, block) pair in an if/elif/.../else chain.
// An else clause is represented as a clause whose Cond is a literal true
// BoolNode, mirroring how the parser folds "else" into the if chain.
type IfClause struct {
	Cond  Expr
	Block []Expr
}

type IfNode struct {
	Clauses []IfClause
}

type ReturnNode struct {
	Value Expr
}

type BoolNode struct {
	Value bool
}

type NumberNode struct {
	Value float64
}

type StringNode struct {
	Value string
}

type ListNode struct {
	Items []Expr
}

type DictNode struct {
	// Keys preserves source order; Values is keyed in parallel so dict
	// literals stay deterministic to re-serialize (Go maps are not).
	Keys   []string
	Values map[string]Expr
}

func (BinOpNode) exprNode()   {}
func (VarNode) exprNode()     {}
func (AssignNode) exprNode()  {}
func (FunctionNode) exprNode() {}
func (IfNode) exprNode()      {}
func (ReturnNode) exprNode()  {}
func (BoolNode) exprNode()    {}
func (NumberNode) exprNode()  {}
func (StringNode) exprNode()  {}
func (ListNode) exprNode()    {}
func (DictNode) exprNode()    {}
