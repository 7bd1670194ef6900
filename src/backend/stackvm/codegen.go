// This file contains the recursive lowering of syntax tree nodes into stack machine instructions.
// Every node leaves exactly one value on the evaluation stack. The recursion depth equals the tree depth.

package stackvm

import (
	"exprc/src/ir"
	"exprc/src/util"
)

// gen generates the code for node n.
func (g *generator) gen(n ir.Node) {
	if ir.IsNil(n) {
		g.failf("syntax tree node is <nil>")
	}

	switch v := n.(type) {
	case *ir.Constant:
		g.wr.Ins1(opLoad, imm(v.Value))
	case *ir.Variable:
		g.wr.Ins1(opLoad, v.Name)
	case *ir.Power:
		g.gen(v.Base)
		g.gen(v.Exponent)
		g.wr.Ins1(opCall, fnPower)
	case *ir.Log:
		g.gen(v.Operand)
		g.wr.Ins1(opCall, fnLog)
	case *ir.Negate:
		g.gen(v.Operand)
		g.wr.Ins(opNeg)
	case *ir.Assign:
		g.genAssign(v)
	case *ir.Reciprocal:
		g.failf("%s reached outside of a multiplication", v)
	case *ir.Add:
		g.genAdd(v)
	case *ir.Multiply:
		g.genMultiply(v)
	case *ir.Relation:
		g.genRelation(v.Op, v.Left, v.Right)
	case *ir.Not:
		g.genRelation(ir.LOGICAL_NOT, v.Operand)
	case *ir.Logical:
		g.genLogical(v)
	case *ir.If:
		g.genIf(v)
	case *ir.While:
		g.genWhile(v)
	case *ir.StatementList:
		g.genStatements(v)
	default:
		g.failf("unexpected node of type %T", n)
	}
}

// genAssign stores the value in the target and keeps a copy on the stack as the value of the assignment.
func (g *generator) genAssign(n *ir.Assign) {
	if n.Target == nil {
		g.failf("%s does not target a variable", n)
	}
	g.gen(n.Value)
	g.wr.Ins(opDup)
	g.wr.Ins1(opStore, n.Target.Name)
}

// genAdd sums the terms left to right. A negated term is subtracted instead of negated and added.
func (g *generator) genAdd(n *ir.Add) {
	if len(n.Terms) == 0 {
		g.failf("%s has no terms", n)
	}
	g.gen(n.Terms[0])
	for _, e1 := range n.Terms[1:] {
		if neg, ok := e1.(*ir.Negate); ok && neg != nil {
			g.gen(neg.Operand)
			g.wr.Ins(opSub)
		} else {
			g.gen(e1)
			g.wr.Ins(opAdd)
		}
	}
}

// genMultiply multiplies the factors left to right. A reciprocal factor is divided by.
func (g *generator) genMultiply(n *ir.Multiply) {
	if len(n.Factors) == 0 {
		g.failf("%s has no factors", n)
	}
	g.gen(n.Factors[0])
	for _, e1 := range n.Factors[1:] {
		if rec, ok := e1.(*ir.Reciprocal); ok && rec != nil {
			g.gen(rec.Operand)
			g.wr.Ins(opDiv)
		} else {
			g.gen(e1)
			g.wr.Ins(opMul)
		}
	}
}

// genRelation generates a comparison, or a logical not when op is LOGICAL_NOT, and materialises the result as
// 1 or 0. Only strict < and > jumps exist, so <= and >= shift the right operand by epsilon, and equality
// compares the magnitude of the difference against epsilon.
func (g *generator) genRelation(op ir.NodeType, operands ...ir.Node) {
	ltrue, lend := g.lb.Pair()
	for _, e1 := range operands {
		g.gen(e1)
	}

	switch op {
	case ir.LESS:
		g.jump(opJl, ltrue)
	case ir.GREATER:
		g.jump(opJg, ltrue)
	case ir.LESS_EQUAL:
		g.wr.Ins1(opLoad, imm(ir.Epsilon))
		g.wr.Ins(opAdd)
		g.jump(opJl, ltrue)
	case ir.GREATER_EQUAL:
		g.wr.Ins1(opLoad, imm(ir.Epsilon))
		g.wr.Ins(opSub)
		g.jump(opJg, ltrue)
	case ir.EQUAL:
		g.wr.Ins(opSub)
		g.testMagnitude(opJl, ltrue)
	case ir.LOGICAL_NOT:
		g.testMagnitude(opJl, ltrue)
	case ir.NOT_EQUAL:
		g.wr.Ins(opSub)
		g.testMagnitude(opJg, ltrue)
	default:
		g.failf("%s is not a relation", op)
	}

	g.wr.Ins1(opLoad, immFalse)
	g.jump(opJmp, lend)
	g.wr.Label(ltrue.String())
	g.wr.Ins1(opLoad, immTrue)
	g.wr.Label(lend.String())
}

// genLogical generates a short-circuit && or ||. The accumulated value is tested before every further operand,
// jumping to the end as soon as the result is known: on a false value for && and on a true value for ||.
//
// The reference code generator re-evaluates the first operand in place of every further one and leaves the
// raw value of the last evaluation on the stack; that lowering is kept behind the compat option. The default
// lowering evaluates each operand once, in order, and yields 1 or 0.
func (g *generator) genLogical(n *ir.Logical) {
	if len(n.Operands) == 0 {
		g.failf("%s has no operands", n)
	}

	var jmp, short, long string
	switch n.Op {
	case ir.LOGICAL_AND:
		jmp, short, long = opJl, immFalse, immTrue
	case ir.LOGICAL_OR:
		jmp, short, long = opJg, immTrue, immFalse
	default:
		g.failf("%s is not a logical operator", n.Op)
	}

	lshort, lend := g.lb.Pair()
	g.gen(n.Operands[0])
	for _, e1 := range n.Operands[1:] {
		g.testMagnitude(jmp, lshort)
		if g.compat {
			g.gen(n.Operands[0])
		} else {
			g.gen(e1)
		}
	}
	if len(n.Operands) == 1 {
		return
	}

	if !g.compat {
		// Collapse the last operand to 1 or 0.
		g.testMagnitude(jmp, lshort)
		g.wr.Ins1(opLoad, long)
	}
	g.jump(opJmp, lend)
	g.wr.Label(lshort.String())
	g.wr.Ins1(opLoad, short)
	g.wr.Label(lend.String())
}

// genIf generates a conditional expression. Its value is the value of the branch taken.
func (g *generator) genIf(n *ir.If) {
	lend, lelse := g.lb.Pair()

	// Jump to ELSE if the condition is false.
	g.gen(n.Cond)
	g.testMagnitude(opJl, lelse)

	// THEN part.
	g.gen(n.Then)
	g.jump(opJmp, lend)

	// ELSE part.
	g.wr.Label(lelse.String())
	g.gen(n.Else)
	g.wr.Label(lend.String())
}

// genWhile generates a loop. The value of the loop is carried below the stack top: it starts as 0 and is
// replaced by the value of the body after each iteration.
func (g *generator) genWhile(n *ir.While) {
	head, end := g.lb.Pair()

	g.wr.Ins1(opLoad, immFalse)
	g.wr.Label(head.String())

	// Leave the loop if the condition is false.
	g.gen(n.Cond)
	g.testMagnitude(opJl, end)

	// Body, then replace the carried value with the new one.
	g.gen(n.Body)
	g.wr.Ins(opSwap)
	g.wr.Ins(opDrop)
	g.jump(opJmp, head)

	g.wr.Label(end.String())
}

// genStatements generates the statements in order, discarding the value of all but the last one.
func (g *generator) genStatements(n *ir.StatementList) {
	if len(n.Statements) == 0 {
		g.failf("%s has no statements", n)
	}
	last := len(n.Statements) - 1
	for _, e1 := range n.Statements[:last] {
		g.gen(e1)
		g.wr.Ins(opDrop)
	}
	g.gen(n.Statements[last])
}

// testMagnitude replaces the top of the stack by its magnitude and compares it against epsilon,
// jumping to l with the jump instruction op.
func (g *generator) testMagnitude(op string, l util.Label) {
	g.wr.Ins1(opCall, fnAbs)
	g.wr.Ins1(opLoad, imm(ir.Epsilon))
	g.jump(op, l)
}

// jump writes the jump instruction op to label l.
func (g *generator) jump(op string, l util.Label) {
	g.wr.Ins1(op, l.String())
}
