package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"exprc/src/backend"
	"exprc/src/frontend"
	"exprc/src/ir"
	"exprc/src/util"
)

// ----------------------
// ----- Constants ------
// ----------------------

// p defines the maximum number of parallel threads to pass to the compiler.
const p = 4

// --------------------
// ----- Globals ------
// --------------------

// srcPath defines the relative path from the working directory of the src package to the sample programs.
var srcPath = "../resources/expr/"

// ----------------------
// ----- Functions ------
// ----------------------

// TestCompile compiles every sample program with and without optimisation.
func TestCompile(t *testing.T) {
	src, files := helperReadFiles(t)
	opts := []util.Options{
		{Threads: 1},
		{Threads: p},
		{Threads: 1, NoOptimise: true},
		{Threads: 1, Compat: true},
	}

	for i1, e1 := range files {
		for _, e2 := range opts {
			wr, err := compile(e2, src[i1])
			if err != nil {
				t.Errorf("%s: unexpected error: %s", e1, err)
				continue
			}
			s := wr.String()
			if !strings.HasPrefix(s, ".function double power_d\n") {
				t.Errorf("%s: expected program to start with runtime declarations", e1)
			}
			if !strings.HasSuffix(s, "\tcall print_d\n\tret\n") {
				t.Errorf("%s: expected program to end by printing its value", e1)
			}
			if !strings.Contains(s, ".function void main\n") {
				t.Errorf("%s: expected main to be declared", e1)
			}
		}
	}
}

// TestCompileLocals verifies that locals are declared in order of first occurrence.
func TestCompileLocals(t *testing.T) {
	wr, err := compile(util.Options{Threads: 1}, "a = 2; b = a * 3; b")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	exp := ".function void main\n.local double a\n.local double b\n\tcall.d scan_d\n\tst.d a\n\tcall.d scan_d\n\tst.d b\n"
	if !strings.Contains(wr.String(), exp) {
		t.Errorf("expected program to contain\n%s\ngot\n%s", exp, wr.String())
	}
}

// TestCompileErrors verifies the error messages of every compiler stage.
func TestCompileErrors(t *testing.T) {
	tests := []struct {
		src string
		exp string
	}{
		{src: "", exp: "Parse error"},
		{src: "a +", exp: "Parse error"},
		{src: "a ? b", exp: "Parse error"},
		{src: "1 = a", exp: "Parse error"},
	}
	for _, e1 := range tests {
		_, err := compile(util.Options{Threads: 1}, e1.src)
		if err == nil {
			t.Errorf("%q: expected error, got none", e1.src)
			continue
		}
		if !strings.HasPrefix(err.Error(), e1.exp) {
			t.Errorf("%q: expected error starting with %q, got %q", e1.src, e1.exp, err)
		}
	}
}

// TestRun verifies that run writes the compiled program to the output file.
func TestRun(t *testing.T) {
	dir, err := ioutil.TempDir("", "exprc")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "out.s")
	opt := util.Options{Expr: "x * 2", Threads: 1}
	if err := run(opt, "", out); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	b, err := ioutil.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "\tld.d x\n\tld.d $2.000000\n\tmul.d\n") {
		t.Errorf("unexpected program:\n%s", b)
	}

	if err := run(util.Options{Threads: 1}, filepath.Join(dir, "missing.expr"), out); err == nil {
		t.Error("expected error on missing source file, got none")
	}
}

// TestOutPath verifies the output paths derived from the options.
func TestOutPath(t *testing.T) {
	tests := []struct {
		opt util.Options
		src string
		exp string
	}{
		{util.Options{}, "a.expr", ""},
		{util.Options{Out: "x.s"}, "a.expr", "x.s"},
		{util.Options{Src: []string{"dir/a.expr", "b.expr"}}, "dir/a.expr", "./a.s"},
		{util.Options{Src: []string{"a.expr", "b.expr"}, LLVMIR: true}, "b.expr", "./b.ll"},
		{util.Options{LLVM: true}, "", "./expr.o"},
		{util.Options{LLVM: true, LLVMIR: true}, "a.expr", ""},
	}
	for _, e1 := range tests {
		if res := outPath(e1.opt, e1.src); res != e1.exp {
			t.Errorf("%+v, %q: expected %q, got %q", e1.opt, e1.src, e1.exp, res)
		}
	}
}

// BenchmarkCompile benchmarks compiling all sample programs into stack machine code.
func BenchmarkCompile(b *testing.B) {
	src, files := helperReadFiles(b)

	// Test for 1 to p parallel worker go routines.
	for i1, e1 := range files {
		for i2 := 1; i2 <= p; i2++ {
			opt := util.Options{Threads: i2}
			b.Run(fmt.Sprintf("%s-threads=%d", e1, i2), func(b *testing.B) {
				for n := 0; n < b.N; n++ {
					if _, err := compile(opt, src[i1]); err != nil {
						b.Fatalf("Compiler error: %s\n", err)
					}
				}
			})
		}
	}
}

// BenchmarkOptimisation benchmarks the ir.Optimise function that optimises the syntax tree.
func BenchmarkOptimisation(b *testing.B) {
	src, files := helperReadFiles(b)

	for i1, e1 := range files {
		root, err := frontend.Parse(src[i1])
		if err != nil {
			b.Fatalf("Could not parse syntax tree: %s\n", err)
		}
		for i2 := 1; i2 <= p; i2++ {
			opt := util.Options{Threads: i2}
			b.Run(fmt.Sprintf("%s-threads=%d", e1, i2), func(b *testing.B) {
				for n := 0; n < b.N; n++ {
					if _, err := ir.Optimise(opt, root); err != nil {
						b.Fatalf("Could not optimise syntax tree: %s\n", err)
					}
				}
			})
		}
	}
}

// BenchmarkGeneration benchmarks transforming the optimised syntax tree into stack machine code.
func BenchmarkGeneration(b *testing.B) {
	src, files := helperReadFiles(b)
	opt := util.Options{Threads: 1}

	for i1, e1 := range files {
		root, err := frontend.Parse(src[i1])
		if err != nil {
			b.Fatalf("Could not parse syntax tree: %s\n", err)
		}
		if root, err = ir.Optimise(opt, root); err != nil {
			b.Fatalf("Could not optimise syntax tree: %s\n", err)
		}
		b.Run(e1, func(b *testing.B) {
			for n := 0; n < b.N; n++ {
				wr := util.Writer{}
				if err := backend.GenerateAssembler(opt, root, &wr); err != nil {
					b.Fatalf("Could not generate code: %s\n", err)
				}
			}
		})
	}
}

// helperReadFiles reads all sample programs into memory and returns their sources and file names.
func helperReadFiles(tb testing.TB) ([]string, []string) {
	tb.Helper()
	files, err := ioutil.ReadDir(srcPath)
	if err != nil {
		tb.Fatalf("Could not read sample programs: %s", err)
	}
	src := make([]string, 0, len(files))
	names := make([]string, 0, len(files))
	for _, e1 := range files {
		if filepath.Ext(e1.Name()) != ".expr" {
			continue
		}
		data, err := ioutil.ReadFile(filepath.Join(srcPath, e1.Name()))
		if err != nil {
			tb.Fatalf("Could not read sample program %s: %s", e1.Name(), err)
		}
		src = append(src, string(data))
		names = append(names, e1.Name())
	}
	if len(src) == 0 {
		tb.Fatal("no sample programs found")
	}
	return src, names
}
