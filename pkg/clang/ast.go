// Package clang implements the front end (tokenizer-driven recursive
// descent parser) and the stack-machine code generator for the tiny
// C-like language this toolchain compiles.
package clang

// ----------------------------------------------------------------------------
// AST

// This section mirrors the teacher's tagged-interface AST shape (see
// asm.Statement / hack.Instruction): a shared marker interface with one
// struct per node kind, so the codegen phase's type switch is exhaustive
// and never needs to check for a "None" field that doesn't apply to a
// given kind.
//
// A program is just an ordered list of top-level statements; there is no
// separate expression-statement node, a bare Node used as a statement is
// evaluated for its side effects and its result word is discarded by the
// driver.
type Node interface{}

// Program is the parser's output: the ordered list of top-level statements.
type Program []Node

// NumNode is an integer literal leaf.
type NumNode struct{ Val int }

// LVarNode references a local variable by its frame-relative byte offset
// below fp (always positive, 4-aligned).
type LVarNode struct{ Offset int }

// BinaryKind enumerates the binary operator node kinds.
type BinaryKind int

const (
	Add BinaryKind = iota
	Sub
	Mul
	Div
	Eq
	Neq
	Lt
	Le
)

func (k BinaryKind) String() string {
	return [...]string{"Add", "Sub", "Mul", "Div", "Eq", "Neq", "Lt", "Le"}[k]
}

// BinaryNode covers every binary-operator expression kind; Lhs and Rhs
// are always non-nil.
type BinaryNode struct {
	Kind     BinaryKind
	Lhs, Rhs Node
}

// AssignNode is `lhs = rhs`. Lhs must resolve to an LVarNode; this is an
// invariant enforced at codegen time, not at parse time.
type AssignNode struct{ Lhs, Rhs Node }

// ReturnNode is `return <expr>;`.
type ReturnNode struct{ Value Node }

// IfNode covers both `if (cond) then` and `if (cond) then else els`.
// Els is nil when there is no else-branch. EndLabel is always minted;
// ElseLabel is only minted (and only meaningful) when Els != nil.
type IfNode struct {
	Cond, Then, Els   Node
	EndLabel, ElseLabel string
}

// ForNode covers `for (init; cond; inc) then` (any of Init/Cond/Inc may be
// nil) and a desugared `while (cond) then` (Init and Inc nil, Cond set). BeginLabel and EndLabel are always minted, from a
// single counter value (see Parser.mintForLabels).
type ForNode struct {
	Init, Cond, Inc Node
	Then            Node
	BeginLabel      string
	EndLabel        string
}

// BlockNode is `{ stmt* }`.
type BlockNode struct{ Stmts []Node }
