package ir

import (
	"errors"
	"fmt"

	"exprc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// visit is a work stack entry used by ValidateTree.
type visit struct {
	n       Node
	divisor bool // Set true if n is a non-first factor of a MULTIPLY, the only place a RECIPROCAL may appear.
}

// ---------------------
// ----- Functions -----
// ---------------------

// ValidateTree checks the structural invariants the code generators rely on: every operand is present,
// n-ary nodes have at least one operand, operators of relations and logical nodes are valid,
// assignments target a variable and reciprocals only appear as divisors of a multiplication.
// The first violation found in pre-order is returned.
func ValidateTree(root Node) error {
	if IsNil(root) {
		return errors.New("syntax tree node is <nil>")
	}

	ws := util.NewStack(hTabSize)
	ws.Push(visit{n: root})
	for ws.Size() > 0 {
		v := ws.Pop().(visit)
		if err := v.validate(); err != nil {
			return err
		}

		c := v.n.Children()
		_, mul := v.n.(*Multiply)
		for i1 := len(c) - 1; i1 >= 0; i1-- {
			ws.Push(visit{n: c[i1], divisor: mul && i1 > 0})
		}
	}
	return nil
}

// validate checks the node of v alone.
func (v visit) validate() error {
	if IsNil(v.n) {
		return errors.New("syntax tree contains a <nil> operand")
	}
	switch n := v.n.(type) {
	case *Constant, *Variable:
	case *Reciprocal:
		if !v.divisor {
			return fmt.Errorf("%s outside of a multiplication: must be the second or later factor", n)
		}
		return operands(n, 1)
	case *Power, *Log, *Negate, *Not, *If, *While:
		return operands(n, len(n.Children()))
	case *Assign:
		if n.Target == nil {
			return fmt.Errorf("%s does not target a variable", n)
		}
		return operands(n, 2)
	case *Relation:
		if !n.Op.IsRelation() {
			return fmt.Errorf("relation with invalid operator %s", n.Op)
		}
		return operands(n, 2)
	case *Logical:
		if n.Op != LOGICAL_AND && n.Op != LOGICAL_OR {
			return fmt.Errorf("logical node with invalid operator %s", n.Op)
		}
		return operands(n, 1)
	case *Add, *Multiply, *StatementList:
		return operands(n, 1)
	default:
		return fmt.Errorf("unexpected node of type %T", v.n)
	}
	return nil
}

// operands returns an error if n has fewer than min operands or one of them is <nil>.
func operands(n Node, min int) error {
	c := n.Children()
	if len(c) < min {
		return fmt.Errorf("%s has %d operand(s), expected at least %d", n, len(c), min)
	}
	for i1, e1 := range c {
		if IsNil(e1) {
			return fmt.Errorf("%s: operand %d is <nil>", n, i1+1)
		}
	}
	return nil
}
