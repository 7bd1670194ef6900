// Package llvm provides means to transform the expression tree into LLVM IR for the system installed LLVM
// runtime. The generated module has the same observable behaviour as the stack machine program: main reads
// one double per variable with scanf, evaluates the tree and prints the result with printf.
package llvm

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

import (
	"tinygo.org/x/go-llvm"
)

import (
	ast "exprc/src/ir"
	"exprc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// generator holds the state of one transformation. Every run owns its context, so independent trees can be
// transformed concurrently.
type generator struct {
	ctx    llvm.Context
	b      llvm.Builder
	m      llvm.Module
	fun    llvm.Value            // The main function being generated.
	syms   *ast.SymTab   // Variables of the tree.
	vars   []llvm.Value  // Stack slots of the variables, indexed by symbol sequence number.
	lb     *util.Labeler // Names basic blocks.
	compat bool          // Lower && and || like the reference stack machine code generator.
	f      llvm.Type     // Double.
	eps    llvm.Value    // Epsilon as a double constant.
	pow    llvm.Value    // libm pow.
	log    llvm.Value    // libm log.
	fabs   llvm.Value    // libm fabs.
	scanf  llvm.Value
	printf llvm.Value
}

// ---------------------
// ----- Constants -----
// ---------------------

// Format strings of the input prologue and the output trailer.
const (
	scanFormat  = "%lf"
	printFormat = "%f\n"
)

// ---------------------
// ----- functions -----
// ---------------------

// GenLLVM generates LLVM IR from the root ast.Node of the expression tree and appends it to wr.
// If opt.LLVMIR is set the textual IR is written, else an object file for the target given by opt.
func GenLLVM(opt util.Options, root ast.Node, wr *util.Writer) error {
	if ast.IsNil(root) {
		return errors.New("syntax tree node is <nil>")
	}

	ctx := llvm.NewContext()
	defer ctx.Dispose()

	// Builder constructs LLVM IR instructions on basic block level.
	b := ctx.NewBuilder()
	defer b.Dispose()

	m := ctx.NewModule("expr")
	defer m.Dispose()

	g := generator{
		ctx:    ctx,
		b:      b,
		m:      m,
		lb:     &util.Labeler{},
		compat: opt.Compat,
		f:      ctx.DoubleType(),
	}
	g.eps = llvm.ConstFloat(g.f, ast.Epsilon)
	g.declareRuntime()

	if err := g.genMain(root); err != nil {
		return err
	}

	if err := llvm.VerifyModule(m, llvm.ReturnStatusAction); err != nil {
		return fmt.Errorf("invalid LLVM module: %s", err)
	}

	if opt.Verbose {
		_, _ = fmt.Fprintln(os.Stderr, "LLVM IR:")
		m.Dump()
	}

	if opt.LLVMIR {
		wr.WriteString(m.String())
		return nil
	}
	return emitObject(opt, m, wr)
}

// declareRuntime declares the libc and libm functions used by the generated code.
func (g *generator) declareRuntime() {
	f := g.f
	str := llvm.PointerType(g.ctx.Int8Type(), 0)
	g.pow = llvm.AddFunction(g.m, "pow", llvm.FunctionType(f, []llvm.Type{f, f}, false))
	g.log = llvm.AddFunction(g.m, "log", llvm.FunctionType(f, []llvm.Type{f}, false))
	g.fabs = llvm.AddFunction(g.m, "fabs", llvm.FunctionType(f, []llvm.Type{f}, false))
	g.scanf = llvm.AddFunction(g.m, "scanf", llvm.FunctionType(g.ctx.Int32Type(), []llvm.Type{str}, true))
	g.printf = llvm.AddFunction(g.m, "printf", llvm.FunctionType(g.ctx.Int32Type(), []llvm.Type{str}, true))
}

// genMain generates main: stack slots and input for every variable, the expression and the printed result.
func (g *generator) genMain(root ast.Node) error {
	ftyp := llvm.FunctionType(g.ctx.Int32Type(), nil, false)
	g.fun = llvm.AddFunction(g.m, "main", ftyp)
	bb := g.ctx.AddBasicBlock(g.fun, "entry")
	g.b.SetInsertPointAtEnd(bb)

	// Declare locals and read their values from input.
	g.syms = ast.FreeVariables(root)
	g.vars = make([]llvm.Value, g.syms.Len())
	for _, e1 := range g.syms.Seq {
		g.vars[e1.Seq] = g.b.CreateAlloca(g.f, e1.Name)
	}
	if len(g.vars) > 0 {
		frmt := g.b.CreateGlobalStringPtr(scanFormat, "scan_fmt")
		for _, e1 := range g.vars {
			g.b.CreateCall(g.scanf, []llvm.Value{frmt, e1}, "")
		}
	}

	res, err := g.gen(root)
	if err != nil {
		return err
	}

	// Print the value of the program.
	frmt := g.b.CreateGlobalStringPtr(printFormat, "print_fmt")
	g.b.CreateCall(g.printf, []llvm.Value{frmt, res}, "")
	g.b.CreateRet(llvm.ConstInt(g.ctx.Int32Type(), 0, false))
	return nil
}

// gen recursively generates LLVM IR for the sub-tree of ast.Node n and returns its value.
func (g *generator) gen(n ast.Node) (llvm.Value, error) {
	if ast.IsNil(n) {
		return llvm.Value{}, errors.New("syntax tree node is <nil>")
	}

	switch v := n.(type) {
	case *ast.Constant:
		return llvm.ConstFloat(g.f, v.Value), nil
	case *ast.Variable:
		ptr, err := g.slot(v)
		if err != nil {
			return llvm.Value{}, err
		}
		return g.b.CreateLoad(ptr, ""), nil
	case *ast.Power:
		return g.genCall(g.pow, v.Base, v.Exponent)
	case *ast.Log:
		return g.genCall(g.log, v.Operand)
	case *ast.Negate:
		op, err := g.gen(v.Operand)
		if err != nil {
			return llvm.Value{}, err
		}
		return g.b.CreateFNeg(op, ""), nil
	case *ast.Assign:
		return g.genAssign(v)
	case *ast.Reciprocal:
		return llvm.Value{}, fmt.Errorf("%s reached outside of a multiplication", v)
	case *ast.Add:
		return g.genArithmetic(v.Terms, func(e ast.Node) (ast.Node, bool) {
			neg, ok := e.(*ast.Negate)
			if !ok || neg == nil {
				return e, false
			}
			return neg.Operand, true
		}, g.b.CreateFAdd, g.b.CreateFSub)
	case *ast.Multiply:
		return g.genArithmetic(v.Factors, func(e ast.Node) (ast.Node, bool) {
			rec, ok := e.(*ast.Reciprocal)
			if !ok || rec == nil {
				return e, false
			}
			return rec.Operand, true
		}, g.b.CreateFMul, g.b.CreateFDiv)
	case *ast.Relation:
		return g.genRelation(v)
	case *ast.Not:
		op, err := g.gen(v.Operand)
		if err != nil {
			return llvm.Value{}, err
		}
		return g.toDouble(g.isFalse(op)), nil
	case *ast.Logical:
		return g.genLogical(v)
	case *ast.If:
		return g.genIf(v)
	case *ast.While:
		return g.genWhile(v)
	case *ast.StatementList:
		if len(v.Statements) == 0 {
			return llvm.Value{}, fmt.Errorf("%s has no statements", v)
		}
		var res llvm.Value
		for _, e1 := range v.Statements {
			var err error
			if res, err = g.gen(e1); err != nil {
				return llvm.Value{}, err
			}
		}
		return res, nil
	default:
		return llvm.Value{}, fmt.Errorf("unexpected node of type %T", n)
	}
}

// slot returns the stack slot of variable v.
func (g *generator) slot(v *ast.Variable) (llvm.Value, error) {
	if v == nil {
		return llvm.Value{}, errors.New("assignment does not target a variable")
	}
	s := g.syms.Lookup(v.Name)
	if s == nil {
		return llvm.Value{}, fmt.Errorf("undeclared variable %q", v.Name)
	}
	return g.vars[s.Seq], nil
}

// genCall generates the operands and calls fn with them.
func (g *generator) genCall(fn llvm.Value, operands ...ast.Node) (llvm.Value, error) {
	args := make([]llvm.Value, len(operands))
	for i1, e1 := range operands {
		var err error
		if args[i1], err = g.gen(e1); err != nil {
			return llvm.Value{}, err
		}
	}
	return g.b.CreateCall(fn, args, ""), nil
}

// genAssign stores the value in the target's stack slot. The value of the assignment is the stored value.
func (g *generator) genAssign(n *ast.Assign) (llvm.Value, error) {
	ptr, err := g.slot(n.Target)
	if err != nil {
		return llvm.Value{}, err
	}
	val, err := g.gen(n.Value)
	if err != nil {
		return llvm.Value{}, err
	}
	g.b.CreateStore(val, ptr)
	return val, nil
}

// genArithmetic folds the operands left to right with op. Operands that inverse reports as inverted are
// combined with inv instead, i.e. subtracted or divided by.
func (g *generator) genArithmetic(ops []ast.Node, inverse func(ast.Node) (ast.Node, bool),
	op, inv func(l, r llvm.Value, name string) llvm.Value) (llvm.Value, error) {
	if len(ops) == 0 {
		return llvm.Value{}, errors.New("arithmetic node has no operands")
	}
	acc, err := g.gen(ops[0])
	if err != nil {
		return llvm.Value{}, err
	}
	for _, e1 := range ops[1:] {
		e, inverted := inverse(e1)
		val, err := g.gen(e)
		if err != nil {
			return llvm.Value{}, err
		}
		if inverted {
			acc = inv(acc, val, "")
		} else {
			acc = op(acc, val, "")
		}
	}
	return acc, nil
}

// genRelation compares two operands with the same epsilon rules as the stack machine and returns 1 or 0.
func (g *generator) genRelation(n *ast.Relation) (llvm.Value, error) {
	l, err := g.gen(n.Left)
	if err != nil {
		return llvm.Value{}, err
	}
	r, err := g.gen(n.Right)
	if err != nil {
		return llvm.Value{}, err
	}

	var cmp llvm.Value
	switch n.Op {
	case ast.LESS:
		cmp = g.b.CreateFCmp(llvm.FloatOLT, l, r, "")
	case ast.GREATER:
		cmp = g.b.CreateFCmp(llvm.FloatOGT, l, r, "")
	case ast.LESS_EQUAL:
		cmp = g.b.CreateFCmp(llvm.FloatOLT, l, g.b.CreateFAdd(r, g.eps, ""), "")
	case ast.GREATER_EQUAL:
		cmp = g.b.CreateFCmp(llvm.FloatOGT, l, g.b.CreateFSub(r, g.eps, ""), "")
	case ast.EQUAL:
		cmp = g.isFalse(g.b.CreateFSub(l, r, ""))
	case ast.NOT_EQUAL:
		cmp = g.isTrue(g.b.CreateFSub(l, r, ""))
	default:
		return llvm.Value{}, fmt.Errorf("%s is not a relation", n.Op)
	}
	return g.toDouble(cmp), nil
}

// genLogical generates a short-circuit && or || using a phi node at the end block.
func (g *generator) genLogical(n *ast.Logical) (llvm.Value, error) {
	if len(n.Operands) == 0 {
		return llvm.Value{}, fmt.Errorf("%s has no operands", n)
	}

	// test returns true when the result is decided by the operand value v.
	var test func(v llvm.Value) llvm.Value
	var short, long llvm.Value
	switch n.Op {
	case ast.LOGICAL_AND:
		test = g.isFalse
		short, long = llvm.ConstFloat(g.f, 0), llvm.ConstFloat(g.f, 1)
	case ast.LOGICAL_OR:
		test = g.isTrue
		short, long = llvm.ConstFloat(g.f, 1), llvm.ConstFloat(g.f, 0)
	default:
		return llvm.Value{}, fmt.Errorf("%s is not a logical operator", n.Op)
	}

	val, err := g.gen(n.Operands[0])
	if err != nil || len(n.Operands) == 1 {
		return val, err
	}

	end := g.block()
	vals := make([]llvm.Value, 0, len(n.Operands))
	blocks := make([]llvm.BasicBlock, 0, len(n.Operands))
	for _, e1 := range n.Operands[1:] {
		next := g.block()
		g.b.CreateCondBr(test(val), end, next)
		vals = append(vals, short)
		blocks = append(blocks, g.b.GetInsertBlock())

		g.b.SetInsertPointAtEnd(next)
		if g.compat {
			e1 = n.Operands[0]
		}
		if val, err = g.gen(e1); err != nil {
			return llvm.Value{}, err
		}
	}
	if !g.compat {
		// Collapse the last operand to 1 or 0.
		val = g.b.CreateSelect(test(val), short, long, "")
	}
	vals = append(vals, val)
	blocks = append(blocks, g.b.GetInsertBlock())
	g.b.CreateBr(end)

	g.b.SetInsertPointAtEnd(end)
	phi := g.b.CreatePHI(g.f, "")
	phi.AddIncoming(vals, blocks)
	return phi, nil
}

// genIf generates a conditional expression whose value is the value of the branch taken.
func (g *generator) genIf(n *ast.If) (llvm.Value, error) {
	cond, err := g.gen(n.Cond)
	if err != nil {
		return llvm.Value{}, err
	}
	thn, els, conv := g.block(), g.block(), g.block()
	g.b.CreateCondBr(g.isFalse(cond), els, thn)

	// Generate THEN.
	g.b.SetInsertPointAtEnd(thn)
	v1, err := g.gen(n.Then)
	if err != nil {
		return llvm.Value{}, err
	}
	thnEnd := g.b.GetInsertBlock()
	g.b.CreateBr(conv)

	// Generate ELSE.
	g.b.SetInsertPointAtEnd(els)
	v2, err := g.gen(n.Else)
	if err != nil {
		return llvm.Value{}, err
	}
	elsEnd := g.b.GetInsertBlock()
	g.b.CreateBr(conv)

	// Converge.
	g.b.SetInsertPointAtEnd(conv)
	phi := g.b.CreatePHI(g.f, "")
	phi.AddIncoming([]llvm.Value{v1, v2}, []llvm.BasicBlock{thnEnd, elsEnd})
	return phi, nil
}

// genWhile generates a loop. The value of the loop is carried in a phi node at the loop head: 0 on entry,
// the value of the body after every iteration.
func (g *generator) genWhile(n *ast.While) (llvm.Value, error) {
	pre := g.b.GetInsertBlock()
	head, body, conv := g.block(), g.block(), g.block()

	g.b.CreateBr(head)
	g.b.SetInsertPointAtEnd(head)
	carried := g.b.CreatePHI(g.f, "")
	cond, err := g.gen(n.Cond)
	if err != nil {
		return llvm.Value{}, err
	}
	g.b.CreateCondBr(g.isFalse(cond), conv, body)

	// Generate WHILE body and jump back to loop head.
	g.b.SetInsertPointAtEnd(body)
	val, err := g.gen(n.Body)
	if err != nil {
		return llvm.Value{}, err
	}
	bodyEnd := g.b.GetInsertBlock()
	g.b.CreateBr(head)

	carried.AddIncoming([]llvm.Value{llvm.ConstFloat(g.f, 0), val}, []llvm.BasicBlock{pre, bodyEnd})

	// Converge.
	g.b.SetInsertPointAtEnd(conv)
	return carried, nil
}

// isFalse returns an i1 that is true if the magnitude of v is less than epsilon.
func (g *generator) isFalse(v llvm.Value) llvm.Value {
	abs := g.b.CreateCall(g.fabs, []llvm.Value{v}, "")
	return g.b.CreateFCmp(llvm.FloatOLT, abs, g.eps, "")
}

// isTrue returns an i1 that is true if the magnitude of v is greater than epsilon.
func (g *generator) isTrue(v llvm.Value) llvm.Value {
	abs := g.b.CreateCall(g.fabs, []llvm.Value{v}, "")
	return g.b.CreateFCmp(llvm.FloatOGT, abs, g.eps, "")
}

// toDouble converts the i1 v to 1 or 0.
func (g *generator) toDouble(v llvm.Value) llvm.Value {
	return g.b.CreateUIToFP(v, g.f, "")
}

// block appends a new basic block to main, named after the next label.
func (g *generator) block() llvm.BasicBlock {
	return g.ctx.AddBasicBlock(g.fun, g.lb.New().String())
}

// emitObject compiles module m for the target given by opt and appends the object file to wr.
func emitObject(opt util.Options, m llvm.Module, wr *util.Writer) error {
	// Initialise LLVM code generation.
	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()

	// Construct target triple.
	t, tt, err := genTargetTriple(&opt)
	if err != nil {
		return err
	}

	// Configure hardware properties for target.
	var cpu string
	switch opt.TargetArch {
	case util.Riscv64:
		cpu = "generic-rv64"
	case util.Riscv32:
		cpu = "generic-rv32"
	default:
		cpu = "generic"
	}
	features := "" // Ignore extra features for this simple compiler.

	tm := t.CreateTargetMachine(tt, cpu, features,
		llvm.CodeGenLevelDefault,
		llvm.RelocDefault,
		llvm.CodeModelDefault)
	defer tm.Dispose()

	td := tm.CreateTargetData()
	defer td.Dispose()

	m.SetDataLayout(td.String())
	m.SetTarget(tm.Triple())

	// Compile target and store in memory.
	buf, err := tm.EmitToMemoryBuffer(m, llvm.ObjectFile)
	if err != nil {
		return err
	} else if buf.IsNil() {
		return errors.New("could not emit compiled code to memory")
	}
	defer buf.Dispose()

	wr.WriteString(string(buf.Bytes()))
	return nil
}

// genTargetTriple generates an LLVM target triple given the compiler options.
func genTargetTriple(opt *util.Options) (llvm.Target, string, error) {
	sb := strings.Builder{}
	var triple string

	// Target architecture. Revert to host system default if unknown.
	if opt.TargetArch == util.UnknownArch {
		// Used compiler host's default triple.
		triple = llvm.DefaultTargetTriple()
	} else {
		// Try generating target triple from CLI arguments.
		sb.Grow(20)

		switch opt.TargetArch {
		case util.Aarch64:
			sb.WriteString("aarch64")
		case util.Riscv64:
			sb.WriteString("riscv64")
		case util.Riscv32:
			sb.WriteString("riscv32")
		case util.X86_64:
			sb.WriteString("x86_64")
		case util.X86_32:
			sb.WriteString("x86")
		default:
			return llvm.Target{}, "", fmt.Errorf("unsupported target architecture identifier %d",
				opt.TargetArch)
		}
		sb.WriteRune('-')

		// Target vendor. Defaults to PC.
		switch opt.TargetVendor {
		case util.PC, util.UnknownVendor:
			sb.WriteString("pc")
		case util.Apple:
			sb.WriteString("apple")
		case util.IBM:
			sb.WriteString("ibm")
		default:
			return llvm.Target{}, "", fmt.Errorf("unsupported target vendor identifier %d",
				opt.TargetVendor)
		}
		sb.WriteRune('-')

		// Target operating system.
		switch opt.TargetOS {
		case util.Linux:
			sb.WriteString("linux")
		case util.Windows:
			sb.WriteString("win32")
		case util.MAC:
			sb.WriteString("darwin")
		case util.UnknownOS:
			sb.WriteString("none")
		default:
			return llvm.Target{}, "", fmt.Errorf("unsupported target operating system identifier %d",
				opt.TargetOS)
		}

		// Target abi/environment.
		sb.WriteString("-gnu") // Default to GNU for now.

		triple = sb.String()
	}

	if opt.Verbose {
		_, _ = fmt.Fprintf(os.Stderr, "compiling for target %s\n", triple)
	}
	llvm.InitializeAllTargets()
	tt, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return llvm.Target{}, "", err
	}
	return tt, triple, nil
}
