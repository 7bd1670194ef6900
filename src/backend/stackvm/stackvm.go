// Package stackvm generates textual code for the double precision stack machine. The machine has a single
// evaluation stack of doubles, named locals, calls to runtime functions and conditional jumps on < and >
// between the two topmost values. There is no boolean type: truth is a magnitude of at least ir.Epsilon.
package stackvm

import (
	"fmt"

	"exprc/src/backend/xtoa"
	"exprc/src/ir"
	"exprc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// generator holds the state of one code generation run.
type generator struct {
	wr     *util.Writer  // Output buffer.
	lb     *util.Labeler // Jump labels of this run.
	compat bool          // Lower && and || like the reference code generator.
}

// fatal is the panic payload used to abort generation when the syntax tree violates an invariant.
type fatal struct {
	msg string
}

// Stats holds statistics of a generated program.
type Stats struct {
	Locals int // Number of declared locals.
	Labels int // Number of jump labels.
	Lines  int // Number of lines of generated code.
}

// ---------------------
// ----- Constants -----
// ---------------------

// Instructions.
const (
	opLoad     = "ld.d"   // Push literal or local.
	opStore    = "st.d"   // Pop into local.
	opDup      = "dup.l"  // Duplicate top.
	opDrop     = "drop.l" // Discard top.
	opSwap     = "swap.l" // Swap the two topmost values.
	opAdd      = "add.d"
	opSub      = "sub.d"
	opMul      = "mul.d"
	opDiv      = "div.d"
	opNeg      = "neg.d"
	opCall     = "call.d" // Call function returning a double.
	opCallVoid = "call"   // Call function returning nothing.
	opJl       = "jl.d"   // Pop b, pop a, jump if a < b.
	opJg       = "jg.d"   // Pop b, pop a, jump if a > b.
	opJmp      = "jmp"
	opRet      = "ret"
	opRetD     = "ret.d"
)

// Runtime functions.
const (
	fnPower = "power_d"
	fnLog   = "log_d"
	fnScan  = "scan_d"
	fnPrint = "print_d"
	fnAbs   = "abs_d"
)

// Boolean results.
const (
	immFalse = "$0"
	immTrue  = "$1"
)

// ---------------------
// ----- Functions -----
// ---------------------

// Error implements the error interface.
func (f fatal) Error() string {
	return f.msg
}

// failf aborts the generation run.
func (g *generator) failf(format string, args ...interface{}) {
	panic(fatal{msg: fmt.Sprintf(format, args...)})
}

// run calls f and turns an abort by failf into an error. Other panics are not recovered.
func run(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(fatal); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	f()
	return nil
}

// GenExpression appends the code of the subtree n to wr. The code leaves exactly one value on the stack.
// Labels are taken from lb, which must be shared by all calls that write to the same program.
// On error nothing is written to wr.
func GenExpression(opt util.Options, n ir.Node, lb *util.Labeler, wr *util.Writer) error {
	g := generator{wr: &util.Writer{}, lb: lb, compat: opt.Compat}
	if err := run(func() { g.gen(n) }); err != nil {
		return err
	}
	wr.WriteString(g.wr.String())
	return nil
}

// imm returns the operand that pushes the literal f.
func imm(f float64) string {
	return "$" + xtoa.FtoA(f)
}
