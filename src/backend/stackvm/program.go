package stackvm

import (
	"exprc/src/ir"
	"exprc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// function declares a function of the program.
type function struct {
	ret    string             // Return type, double or void.
	name   string             // Name of function.
	params []string           // Parameter names. All parameters are doubles.
	body   func(*util.Writer) // Writes the body. <nil> for functions implemented by the runtime.
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	typDouble = "double"
	typVoid   = "void"
)

// runtime lists the functions the generated code calls, in order of declaration.
// Only abs_d has a body; the others are provided by the runtime library.
var runtime = []function{
	{ret: typDouble, name: fnPower, params: []string{"arg", "pow"}},
	{ret: typDouble, name: fnLog, params: []string{"arg"}},
	{ret: typDouble, name: fnScan},
	{ret: typVoid, name: fnPrint, params: []string{"arg"}},
	{ret: typDouble, name: fnAbs, params: []string{"arg"}, body: genAbs},
}

// ---------------------
// ----- Functions -----
// ---------------------

// GenStackVM generates a complete program for the syntax tree rooted at root and appends it to wr.
//
// The program declares the runtime functions, then main with one local per variable referenced in the tree.
// main reads one value per local from input, in order of declaration, evaluates the tree and prints its value.
// On error nothing is written to wr.
func GenStackVM(opt util.Options, root ir.Node, wr *util.Writer) (Stats, error) {
	var st Stats
	lb := util.Labeler{}
	g := generator{wr: &util.Writer{}, lb: &lb, compat: opt.Compat}

	err := run(func() {
		// Declare runtime functions.
		for _, e1 := range runtime {
			e1.declare(g.wr)
		}

		// Declare main.
		g.wr.Directive("function", typVoid, "main")

		// Declare locals and read their values from input.
		vars := ir.Collect(root)
		st.Locals = len(vars)
		for _, e1 := range vars {
			g.wr.Directive("local", typDouble, e1)
		}
		for _, e1 := range vars {
			g.wr.Ins1(opCall, fnScan)
			g.wr.Ins1(opStore, e1)
		}

		g.gen(root)

		// Print the value of the program.
		g.wr.Ins1(opCallVoid, fnPrint)
		g.wr.Ins(opRet)
	})
	if err != nil {
		return st, err
	}

	st.Labels = lb.Count()
	st.Lines = g.wr.Lines()
	wr.WriteString(g.wr.String())
	return st, nil
}

// declare writes the declaration of f, followed by its body if it has one.
func (f function) declare(wr *util.Writer) {
	wr.Directive("function", f.ret, f.name)
	for _, e1 := range f.params {
		wr.Directive("param", typDouble, e1)
	}
	if f.body != nil {
		f.body(wr)
	}
}

// genAbs writes the body of abs_d: negate the argument unless it is greater than 0.
func genAbs(wr *util.Writer) {
	wr.Ins1(opLoad, "arg")
	wr.Ins(opDup)
	wr.Ins1(opLoad, immFalse)
	wr.Ins1(opJg, "1")
	wr.Ins(opNeg)
	wr.Label("1")
	wr.Ins(opRetD)
}
