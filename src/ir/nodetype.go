package ir

import (
	"fmt"
	"io"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// NodeType differentiates the kinds of nodes in the expression tree.
type NodeType int

// Node is a single node of the expression tree. The concrete types below are the only
// implementations; each one holds exactly the operands its kind needs.
type Node interface {
	Type() NodeType   // Kind of node.
	Children() []Node // Operands in evaluation order.
	String() string   // Print friendly description of this node alone.
}

// Constant is a floating point literal.
type Constant struct {
	Value float64
}

// Variable references a named local. Two variables are the same if their names are equal.
type Variable struct {
	Name string
}

// Power raises Base to Exponent.
type Power struct {
	Base, Exponent Node
}

// Log is the natural logarithm of Operand.
type Log struct {
	Operand Node
}

// Negate is arithmetic negation. As a direct term of an Add it marks a subtraction.
type Negate struct {
	Operand Node
}

// Assign stores Value into Target. The assignment itself evaluates to Value.
type Assign struct {
	Target *Variable
	Value  Node
}

// Reciprocal marks a divisor. It is only valid as a non-first factor of a Multiply.
type Reciprocal struct {
	Operand Node
}

// Add sums its terms left to right.
type Add struct {
	Terms []Node
}

// Multiply multiplies its factors left to right.
type Multiply struct {
	Factors []Node
}

// Relation compares Left and Right. Op is one of LESS, GREATER, LESS_EQUAL, GREATER_EQUAL, EQUAL or NOT_EQUAL.
type Relation struct {
	Op          NodeType
	Left, Right Node
}

// Not is the logical negation of Operand.
type Not struct {
	Operand Node
}

// Logical is a short-circuit conjunction or disjunction. Op is LOGICAL_AND or LOGICAL_OR.
type Logical struct {
	Op       NodeType
	Operands []Node
}

// If evaluates Then when Cond is true and Else otherwise.
type If struct {
	Cond, Then, Else Node
}

// While evaluates Body as long as Cond is true.
type While struct {
	Cond, Body Node
}

// StatementList evaluates its statements in order and yields the last one.
type StatementList struct {
	Statements []Node
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	CONSTANT NodeType = iota
	VARIABLE
	POWER
	LOGARITHM
	NEGATE
	ASSIGN
	RECIPROCAL
	ADD
	MULTIPLY
	LESS
	GREATER
	LESS_EQUAL
	GREATER_EQUAL
	EQUAL
	NOT_EQUAL
	LOGICAL_NOT
	LOGICAL_AND
	LOGICAL_OR
	IF_STATEMENT
	WHILE_STATEMENT
	STATEMENT_LIST
)

// nt provides an array of strings used for printing NodeType in a print friendly manner.
var nt = [...]string{
	"CONSTANT",
	"VARIABLE",
	"POWER",
	"LOGARITHM",
	"NEGATE",
	"ASSIGN",
	"RECIPROCAL",
	"ADD",
	"MULTIPLY",
	"LESS",
	"GREATER",
	"LESS_EQUAL",
	"GREATER_EQUAL",
	"EQUAL",
	"NOT_EQUAL",
	"LOGICAL_NOT",
	"LOGICAL_AND",
	"LOGICAL_OR",
	"IF_STATEMENT",
	"WHILE_STATEMENT",
	"STATEMENT_LIST",
}

// ----------------------
// ----- functions ------
// ----------------------

// String returns a print friendly name of the node type.
func (t NodeType) String() string {
	if t < 0 || int(t) >= len(nt) {
		return fmt.Sprintf("MISCONFIGURED NODE TYPE [%d]", int(t))
	}
	return nt[t]
}

// IsRelation returns true if t is one of the six comparison kinds.
func (t NodeType) IsRelation() bool {
	return t >= LESS && t <= NOT_EQUAL
}

func (n *Constant) Type() NodeType      { return CONSTANT }
func (n *Variable) Type() NodeType      { return VARIABLE }
func (n *Power) Type() NodeType         { return POWER }
func (n *Log) Type() NodeType           { return LOGARITHM }
func (n *Negate) Type() NodeType        { return NEGATE }
func (n *Assign) Type() NodeType        { return ASSIGN }
func (n *Reciprocal) Type() NodeType    { return RECIPROCAL }
func (n *Add) Type() NodeType           { return ADD }
func (n *Multiply) Type() NodeType      { return MULTIPLY }
func (n *Relation) Type() NodeType      { return n.Op }
func (n *Not) Type() NodeType           { return LOGICAL_NOT }
func (n *Logical) Type() NodeType       { return n.Op }
func (n *If) Type() NodeType            { return IF_STATEMENT }
func (n *While) Type() NodeType         { return WHILE_STATEMENT }
func (n *StatementList) Type() NodeType { return STATEMENT_LIST }

func (n *Constant) Children() []Node      { return nil }
func (n *Variable) Children() []Node      { return nil }
func (n *Power) Children() []Node         { return []Node{n.Base, n.Exponent} }
func (n *Log) Children() []Node           { return []Node{n.Operand} }
func (n *Negate) Children() []Node        { return []Node{n.Operand} }
func (n *Reciprocal) Children() []Node    { return []Node{n.Operand} }
func (n *Add) Children() []Node           { return n.Terms }
func (n *Multiply) Children() []Node      { return n.Factors }
func (n *Relation) Children() []Node      { return []Node{n.Left, n.Right} }
func (n *Not) Children() []Node           { return []Node{n.Operand} }
func (n *Logical) Children() []Node       { return n.Operands }
func (n *If) Children() []Node            { return []Node{n.Cond, n.Then, n.Else} }
func (n *While) Children() []Node         { return []Node{n.Cond, n.Body} }
func (n *StatementList) Children() []Node { return n.Statements }

// Children of an Assign are the target variable followed by the value.
func (n *Assign) Children() []Node {
	if n.Target == nil {
		return []Node{nil, n.Value}
	}
	return []Node{n.Target, n.Value}
}

func (n *Constant) String() string      { return fmt.Sprintf("%s [%g]", CONSTANT, n.Value) }
func (n *Variable) String() string      { return fmt.Sprintf("%s [%q]", VARIABLE, n.Name) }
func (n *Power) String() string         { return POWER.String() }
func (n *Log) String() string           { return LOGARITHM.String() }
func (n *Negate) String() string        { return NEGATE.String() }
func (n *Assign) String() string        { return ASSIGN.String() }
func (n *Reciprocal) String() string    { return RECIPROCAL.String() }
func (n *Add) String() string           { return ADD.String() }
func (n *Multiply) String() string      { return MULTIPLY.String() }
func (n *Relation) String() string      { return n.Op.String() }
func (n *Not) String() string           { return LOGICAL_NOT.String() }
func (n *Logical) String() string       { return n.Op.String() }
func (n *If) String() string            { return IF_STATEMENT.String() }
func (n *While) String() string         { return WHILE_STATEMENT.String() }
func (n *StatementList) String() string { return STATEMENT_LIST.String() }

// Print recursively prints node n and all its children to w while indenting for every recursive call.
// depth is the number of times nodes are padded to the right, having the root node with padding 0.
// If showDepth is true the function also prints the depths of the nodes.
func Print(w io.Writer, n Node, depth int, showDepth bool) {
	if depth < 0 {
		depth = 0
	}

	s := "---> NIL"
	if !IsNil(n) {
		s = n.String()
	}
	if showDepth {
		_, _ = fmt.Fprintf(w, "%d %*s%s\n", depth, depth<<1, "", s)
	} else {
		_, _ = fmt.Fprintf(w, "%*s%s\n", depth<<1, "", s)
	}
	if IsNil(n) {
		return
	}

	for _, e := range n.Children() {
		Print(w, e, depth+1, showDepth)
	}
}

// IsNil returns true if n is a nil interface or an interface holding a nil pointer.
func IsNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Constant:
		return v == nil
	case *Variable:
		return v == nil
	case *Power:
		return v == nil
	case *Log:
		return v == nil
	case *Negate:
		return v == nil
	case *Assign:
		return v == nil
	case *Reciprocal:
		return v == nil
	case *Add:
		return v == nil
	case *Multiply:
		return v == nil
	case *Relation:
		return v == nil
	case *Not:
		return v == nil
	case *Logical:
		return v == nil
	case *If:
		return v == nil
	case *While:
		return v == nil
	case *StatementList:
		return v == nil
	}
	return false
}
