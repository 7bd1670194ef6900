// sim_test.go implements a small interpreter for generated stack machine code. It lets the code generator tests
// check what programs compute instead of only what they look like.

package stackvm

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"exprc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// instr is a single parsed instruction.
type instr struct {
	op, arg string
}

// simFunc is a function declared in a program.
type simFunc struct {
	name   string
	void   bool
	params []string
	locals []string
	code   []instr
	labels map[string]int // Label name to index of the next instruction.
}

// machine executes a parsed program.
type machine struct {
	funcs  map[string]*simFunc
	order  []string           // Function names in order of declaration.
	input  []float64          // Values returned by scan_d, in order.
	output []float64          // Values passed to print_d.
	reads  map[string]int     // Number of loads per local of main.
	stores map[string]int     // Number of stores per local of main.
	final  map[string]float64 // Locals of main when it returned.
	steps  int
}

// ---------------------
// ----- Constants -----
// ---------------------

// maxSteps bounds the number of executed instructions so a broken loop fails the test instead of hanging it.
const maxSteps = 1000000

// ---------------------
// ----- Functions -----
// ---------------------

// parseProgram parses the text of a complete program.
func parseProgram(text string) (*machine, error) {
	m := &machine{
		funcs:  make(map[string]*simFunc),
		reads:  make(map[string]int),
		stores: make(map[string]int),
	}

	var cur *simFunc
	for i1, e1 := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		switch {
		case strings.HasPrefix(e1, "."):
			f := strings.Fields(e1[1:])
			switch {
			case len(f) == 3 && f[0] == "function":
				if _, ok := m.funcs[f[2]]; ok {
					return nil, fmt.Errorf("line %d: function %s declared twice", i1+1, f[2])
				}
				cur = &simFunc{name: f[2], void: f[1] == typVoid, labels: make(map[string]int)}
				m.funcs[cur.name] = cur
				m.order = append(m.order, cur.name)
			case len(f) == 3 && f[0] == "param" && cur != nil:
				cur.params = append(cur.params, f[2])
			case len(f) == 3 && f[0] == "local" && cur != nil:
				cur.locals = append(cur.locals, f[2])
			default:
				return nil, fmt.Errorf("line %d: unexpected directive %q", i1+1, e1)
			}
		case strings.HasPrefix(e1, "\t"):
			if cur == nil {
				return nil, fmt.Errorf("line %d: instruction outside of function", i1+1)
			}
			f := strings.Fields(e1)
			switch len(f) {
			case 1:
				cur.code = append(cur.code, instr{op: f[0]})
			case 2:
				cur.code = append(cur.code, instr{op: f[0], arg: f[1]})
			default:
				return nil, fmt.Errorf("line %d: malformed instruction %q", i1+1, e1)
			}
		case strings.HasSuffix(e1, ":") && cur != nil:
			name := strings.TrimSuffix(e1, ":")
			if _, ok := cur.labels[name]; ok {
				return nil, fmt.Errorf("line %d: label %s declared twice", i1+1, name)
			}
			cur.labels[name] = len(cur.code)
		default:
			return nil, fmt.Errorf("line %d: unexpected line %q", i1+1, e1)
		}
	}
	return m, nil
}

// runProgram parses and runs a complete program with the given input and returns the machine after main returned.
func runProgram(text string, input ...float64) (*machine, error) {
	m, err := parseProgram(text)
	if err != nil {
		return nil, err
	}
	m.input = input
	main, ok := m.funcs["main"]
	if !ok {
		return nil, errors.New("no main function")
	}
	_, err = m.exec(main, nil, true)
	return m, err
}

// runFragment runs code that is not part of a program, such as the output of GenExpression, with the given
// values of locals. It returns the stack when the code falls off its end.
func runFragment(code string, vars map[string]float64) ([]float64, error) {
	m, err := parseProgram(helperRuntime() + ".function void fragment\n" + code)
	if err != nil {
		return nil, err
	}
	f := m.funcs["fragment"]
	for k := range vars {
		f.locals = append(f.locals, k)
	}
	frame := make(map[string]float64, len(vars))
	for k, v := range vars {
		frame[k] = v
	}
	return m.run(f, frame, false)
}

// exec calls f with the arguments args.
func (m *machine) exec(f *simFunc, args []float64, isMain bool) (float64, error) {
	if f.code == nil {
		return m.native(f.name, args)
	}

	frame := make(map[string]float64, len(f.params)+len(f.locals))
	for i1, e1 := range f.params {
		frame[e1] = args[i1]
	}
	for _, e1 := range f.locals {
		frame[e1] = 0
	}

	stack, err := m.run(f, frame, isMain)
	if err != nil {
		return 0, err
	}
	if isMain {
		m.final = frame
	}
	if f.void {
		if len(stack) != 0 {
			return 0, fmt.Errorf("%s: returned with %d values on the stack", f.name, len(stack))
		}
		return 0, nil
	}
	if len(stack) != 1 {
		return 0, fmt.Errorf("%s: returned with %d values on the stack, expected 1", f.name, len(stack))
	}
	return stack[0], nil
}

// run executes the code of f in frame until it returns or falls off the end. It returns the stack.
func (m *machine) run(f *simFunc, frame map[string]float64, isMain bool) ([]float64, error) {
	var stack []float64
	pop := func() (float64, error) {
		if len(stack) == 0 {
			return 0, errors.New("stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}
	pop2 := func() (a, b float64, err error) {
		if b, err = pop(); err != nil {
			return
		}
		a, err = pop()
		return
	}

	for pc := 0; pc < len(f.code); pc++ {
		if m.steps++; m.steps > maxSteps {
			return nil, errors.New("step limit exceeded")
		}
		ins := f.code[pc]
		fail := func(err error) error {
			return fmt.Errorf("%s: instruction %d (%s %s): %s", f.name, pc, ins.op, ins.arg, err)
		}

		switch ins.op {
		case opLoad:
			if strings.HasPrefix(ins.arg, "$") {
				v, err := strconv.ParseFloat(ins.arg[1:], 64)
				if err != nil {
					return nil, fail(err)
				}
				stack = append(stack, v)
				continue
			}
			v, ok := frame[ins.arg]
			if !ok {
				return nil, fail(errors.New("undeclared local"))
			}
			if isMain {
				m.reads[ins.arg]++
			}
			stack = append(stack, v)
		case opStore:
			if _, ok := frame[ins.arg]; !ok {
				return nil, fail(errors.New("undeclared local"))
			}
			v, err := pop()
			if err != nil {
				return nil, fail(err)
			}
			if isMain {
				m.stores[ins.arg]++
			}
			frame[ins.arg] = v
		case opDup:
			if len(stack) == 0 {
				return nil, fail(errors.New("stack underflow"))
			}
			stack = append(stack, stack[len(stack)-1])
		case opDrop:
			if _, err := pop(); err != nil {
				return nil, fail(err)
			}
		case opSwap:
			a, b, err := pop2()
			if err != nil {
				return nil, fail(err)
			}
			stack = append(stack, b, a)
		case opAdd, opSub, opMul, opDiv:
			a, b, err := pop2()
			if err != nil {
				return nil, fail(err)
			}
			switch ins.op {
			case opAdd:
				stack = append(stack, a+b)
			case opSub:
				stack = append(stack, a-b)
			case opMul:
				stack = append(stack, a*b)
			case opDiv:
				stack = append(stack, a/b)
			}
		case opNeg:
			a, err := pop()
			if err != nil {
				return nil, fail(err)
			}
			stack = append(stack, -a)
		case opJl, opJg:
			a, b, err := pop2()
			if err != nil {
				return nil, fail(err)
			}
			if (ins.op == opJl && a < b) || (ins.op == opJg && a > b) {
				if pc, err = jump(f, ins.arg); err != nil {
					return nil, fail(err)
				}
			}
		case opJmp:
			var err error
			if pc, err = jump(f, ins.arg); err != nil {
				return nil, fail(err)
			}
		case opCall, opCallVoid:
			callee, ok := m.funcs[ins.arg]
			if !ok {
				return nil, fail(errors.New("undeclared function"))
			}
			if callee.void != (ins.op == opCallVoid) {
				return nil, fail(errors.New("call does not match return type"))
			}
			args := make([]float64, len(callee.params))
			for i1 := len(args) - 1; i1 >= 0; i1-- {
				v, err := pop()
				if err != nil {
					return nil, fail(err)
				}
				args[i1] = v
			}
			v, err := m.exec(callee, args, false)
			if err != nil {
				return nil, fail(err)
			}
			if !callee.void {
				stack = append(stack, v)
			}
		case opRet, opRetD:
			return stack, nil
		default:
			return nil, fail(errors.New("unknown instruction"))
		}
	}
	return stack, nil
}

// jump returns the program counter before the instruction at label, so the loop increment lands on it.
func jump(f *simFunc, label string) (int, error) {
	i, ok := f.labels[label]
	if !ok {
		return 0, fmt.Errorf("undeclared label %s", label)
	}
	return i - 1, nil
}

// native runs a runtime function that has no body.
func (m *machine) native(name string, args []float64) (float64, error) {
	switch name {
	case fnPower:
		return math.Pow(args[0], args[1]), nil
	case fnLog:
		return math.Log(args[0]), nil
	case fnScan:
		if len(m.input) == 0 {
			return 0, errors.New("scan_d: input exhausted")
		}
		v := m.input[0]
		m.input = m.input[1:]
		return v, nil
	case fnPrint:
		m.output = append(m.output, args[0])
		return 0, nil
	}
	return 0, fmt.Errorf("function %s has no body", name)
}

// helperRuntime returns the runtime declarations every program starts with.
func helperRuntime() string {
	sb := strings.Builder{}
	for _, e1 := range runtime {
		wr := &util.Writer{}
		e1.declare(wr)
		sb.WriteString(wr.String())
	}
	return sb.String()
}
