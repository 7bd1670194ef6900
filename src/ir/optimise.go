package ir

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"exprc/src/util"
)

// ---------------------
// ----- Constants -----
// ---------------------

// Epsilon is the tolerance that stands in for exact equality and for boolean truth: a magnitude below Epsilon
// is zero, false or equal. It is printed with six decimals in generated code, so it must not drop below 1e-6.
const Epsilon = 1e-6

// ---------------------
// ----- Functions -----
// ---------------------

// Optimise rewrites the tree rooted at root and returns the new root. The input tree is left untouched.
//
// The rewrites are: nested additions, multiplications, conjunctions, disjunctions and statement lists of the
// same kind are flattened into their parent; subtrees consisting of constants only are folded; double negation
// is removed; identity terms (+0) and factors (*1) are dropped; conditionals and loops with a constant condition
// are reduced when the dropped code references no variables. A reciprocal is never moved into the first position
// of a multiplication.
//
// If opt.Threads > 1 and the root is a statement list, the statements are optimised by parallel worker threads.
func Optimise(opt util.Options, root Node) (res Node, err error) {
	if IsNil(root) {
		return nil, errors.New("syntax tree node is <nil>")
	}

	sl, ok := root.(*StatementList)
	if opt.Threads < 2 || !ok || len(sl.Statements) < 2 {
		// Sequential.
		return optimiseSafe(root)
	}

	// Parallel.
	t := opt.Threads        // Max number of threads to initiate.
	l := len(sl.Statements) // Number of top level statements.
	if t > l {
		t = l // Cannot launch more threads than statements.
	}
	n := l / t   // Number of jobs per worker thread.
	rem := l % t // Residual work for rem first threads.

	stmts := make([]Node, l)
	pe := util.NewPerror(t)
	wg := sync.WaitGroup{}
	for i1, start := 0, 0; i1 < t; i1++ {
		m := n
		if i1 < rem {
			// This worker thread does one more job.
			m++
		}
		wg.Add(1)
		go func(start, m int) {
			defer wg.Done()
			for i2 := start; i2 < start+m; i2++ {
				r, err := optimiseSafe(sl.Statements[i2])
				if err != nil {
					pe.Append(fmt.Errorf("statement %d: %s", i2+1, err))
					continue
				}
				stmts[i2] = r
			}
		}(start, m)
		start += m
	}
	wg.Wait()
	pe.Stop()

	if errs := pe.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return optimiseSafe(&StatementList{Statements: stmts})
}

// optimiseSafe runs optimise and turns a panic on a malformed tree into an error.
func optimiseSafe(root Node) (res Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("could not optimise syntax tree: %v", r)
		}
	}()
	return optimise(root), nil
}

// optimise recursively optimises the subtree of n, children first.
func optimise(n Node) Node {
	switch v := n.(type) {
	case *Constant, *Variable:
		return n
	case *Power:
		b, e := optimise(v.Base), optimise(v.Exponent)
		if c0, c1 := constant(b), constant(e); c0 != nil && c1 != nil {
			return &Constant{Value: math.Pow(c0.Value, c1.Value)}
		}
		return &Power{Base: b, Exponent: e}
	case *Log:
		o := optimise(v.Operand)
		if c := constant(o); c != nil {
			return &Constant{Value: math.Log(c.Value)}
		}
		return &Log{Operand: o}
	case *Negate:
		o := optimise(v.Operand)
		if c := constant(o); c != nil {
			return &Constant{Value: -c.Value}
		}
		if neg, ok := o.(*Negate); ok {
			return neg.Operand
		}
		return &Negate{Operand: o}
	case *Reciprocal:
		return &Reciprocal{Operand: optimise(v.Operand)}
	case *Assign:
		return &Assign{Target: v.Target, Value: optimise(v.Value)}
	case *Add:
		return optimiseAdd(v)
	case *Multiply:
		return optimiseMultiply(v)
	case *Relation:
		l, r := optimise(v.Left), optimise(v.Right)
		if c0, c1 := constant(l), constant(r); c0 != nil && c1 != nil {
			return boolConstant(Compare(v.Op, c0.Value, c1.Value))
		}
		return &Relation{Op: v.Op, Left: l, Right: r}
	case *Not:
		o := optimise(v.Operand)
		if c := constant(o); c != nil {
			return boolConstant(!Truth(c.Value))
		}
		return &Not{Operand: o}
	case *Logical:
		return &Logical{Op: v.Op, Operands: flatten(v.Op, v.Operands)}
	case *If:
		c := optimise(v.Cond)
		if k := constant(c); k != nil {
			if Truth(k.Value) && closed(v.Else) {
				return optimise(v.Then)
			}
			if !Truth(k.Value) && closed(v.Then) {
				return optimise(v.Else)
			}
		}
		return &If{Cond: c, Then: optimise(v.Then), Else: optimise(v.Else)}
	case *While:
		c := optimise(v.Cond)
		if k := constant(c); k != nil && !Truth(k.Value) && closed(v.Body) {
			// The body never runs: the loop yields its initial 0.
			return &Constant{Value: 0}
		}
		return &While{Cond: c, Body: optimise(v.Body)}
	case *StatementList:
		s := flatten(STATEMENT_LIST, v.Statements)
		if len(s) == 1 {
			return s[0]
		}
		return &StatementList{Statements: s}
	default:
		panic(fmt.Sprintf("unexpected node of type %T", n))
	}
}

// optimiseAdd flattens nested additions, folds constant sums and drops zero terms.
func optimiseAdd(n *Add) Node {
	terms := flatten(ADD, n.Terms)

	// Fold if every term is constant.
	sum, folded := 0.0, true
	for _, e1 := range terms {
		c := constant(e1)
		if c == nil {
			folded = false
			break
		}
		sum += c.Value
	}
	if folded {
		return &Constant{Value: sum}
	}

	// Drop +0 terms after the first.
	res := terms[:1]
	for _, e1 := range terms[1:] {
		if c := constant(e1); c != nil && c.Value == 0 {
			continue
		}
		res = append(res, e1)
	}
	if len(res) == 1 {
		return res[0]
	}
	return &Add{Terms: res}
}

// optimiseMultiply flattens nested multiplications, folds constant products and drops factors of 1.
func optimiseMultiply(n *Multiply) Node {
	factors := flatten(MULTIPLY, n.Factors)

	// Fold if every factor, or the operand of every divisor, is constant.
	prod, folded := 1.0, true
	for i1, e1 := range factors {
		if r, ok := e1.(*Reciprocal); ok && i1 > 0 {
			if c := constant(r.Operand); c != nil {
				prod /= c.Value
				continue
			}
		} else if c := constant(e1); c != nil {
			prod *= c.Value
			continue
		}
		folded = false
		break
	}
	if folded {
		return &Constant{Value: prod}
	}

	// Drop *1 and /1 factors after the first.
	res := factors[:1]
	for _, e1 := range factors[1:] {
		if r, ok := e1.(*Reciprocal); ok {
			if c := constant(r.Operand); c != nil && c.Value == 1 {
				continue
			}
		} else if c := constant(e1); c != nil && c.Value == 1 {
			continue
		}
		res = append(res, e1)
	}
	if len(res) == 1 {
		return res[0]
	}
	return &Multiply{Factors: res}
}

// flatten optimises the operands of an n-ary node of type typ and splices operands that are nodes
// of the same type into the result.
func flatten(typ NodeType, ops []Node) []Node {
	res := make([]Node, 0, len(ops))
	for _, e1 := range ops {
		o := optimise(e1)
		if o.Type() == typ {
			res = append(res, o.Children()...)
		} else {
			res = append(res, o)
		}
	}
	return res
}

// closed returns true if the subtree n references no variables. Only closed subtrees may be dropped, since every
// variable of the program is read from input.
func closed(n Node) bool {
	return FreeVariables(n).Len() == 0
}

// constant returns n as a *Constant, or <nil> if n is not a constant.
func constant(n Node) *Constant {
	c, _ := n.(*Constant)
	return c
}

// boolConstant returns the constant 1 for true and 0 for false.
func boolConstant(b bool) *Constant {
	if b {
		return &Constant{Value: 1}
	}
	return &Constant{Value: 0}
}

// Truth returns true if the magnitude of v is at least Epsilon.
func Truth(v float64) bool {
	return !(math.Abs(v) < Epsilon)
}

// Compare evaluates the relation op between a and b with the same epsilon rules the generated code uses.
func Compare(op NodeType, a, b float64) bool {
	switch op {
	case LESS:
		return a < b
	case GREATER:
		return a > b
	case LESS_EQUAL:
		return a < b+Epsilon
	case GREATER_EQUAL:
		return a > b-Epsilon
	case EQUAL:
		return math.Abs(a-b) < Epsilon
	case NOT_EQUAL:
		return math.Abs(a-b) > Epsilon
	}
	panic(fmt.Sprintf("%s is not a relation", op))
}
