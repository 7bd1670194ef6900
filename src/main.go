package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"exprc/src/backend"
	"exprc/src/frontend"
	"exprc/src/ir"
	"exprc/src/util"
)

func main() {
	// Parse command line arguments.
	opt, err := util.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Printf("Command line argument error: %s\n", err)
		os.Exit(1)
	}
	if opt.Help {
		util.PrintHelp(os.Stdout)
		os.Exit(0)
	}
	if opt.Version {
		fmt.Println(util.AppVersion)
		os.Exit(0)
	}

	if len(opt.Src) < 2 {
		// Single source: file, -e expression or stdin.
		var src string
		if len(opt.Src) == 1 {
			src = opt.Src[0]
		}
		if err := run(opt, src, outPath(opt, src)); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Several sources: compile on opt.Threads worker threads, each source to its own output file.
	pe := util.NewPerror(len(opt.Src))
	jobs := make(chan string)
	wg := sync.WaitGroup{}
	for i1 := 0; i1 < opt.Threads; i1++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				if err := run(opt, src, outPath(opt, src)); err != nil {
					pe.Append(fmt.Errorf("%s: %s", src, err))
				}
			}
		}()
	}
	for _, e1 := range opt.Src {
		jobs <- e1
	}
	close(jobs)
	wg.Wait()
	pe.Stop()

	if pe.Len() > 0 {
		for _, e1 := range pe.Errors() {
			fmt.Println(e1)
		}
		os.Exit(1)
	}
}

// run compiles the source file src, or the -e expression or stdin if src is empty, and writes the result to
// out, or stdout if out is empty.
func run(opt util.Options, src, out string) error {
	var text string
	if len(src) == 0 && len(opt.Expr) > 0 {
		text = opt.Expr
	} else {
		var err error
		if text, err = util.ReadSource(src); err != nil {
			return fmt.Errorf("Could not read source code: %s", err)
		}
	}

	// If -ts flag was passed: output token stream and return.
	if opt.TokenStream {
		if err := frontend.TokenStream(text, os.Stdout); err != nil {
			return fmt.Errorf("Syntax error: %s", err)
		}
		return nil
	}

	wr, err := compile(opt, text)
	if err != nil {
		return err
	}
	if err := util.WriteOutput(out, wr); err != nil {
		return fmt.Errorf("Could not write output: %s", err)
	}
	return nil
}

// compile runs the compiler pipeline on the source code text and returns the buffered output.
func compile(opt util.Options, text string) (*util.Writer, error) {
	start := time.Now()

	// Generate syntax tree by lexing and parsing source code.
	root, err := frontend.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("Parse error: %s", err)
	}
	if err := ir.ValidateTree(root); err != nil {
		return nil, fmt.Errorf("Syntax tree error: %s", err)
	}
	tParse := time.Since(start)

	// Optimise syntax tree.
	if !opt.NoOptimise {
		if root, err = ir.Optimise(opt, root); err != nil {
			return nil, fmt.Errorf("Syntax tree error: %s", err)
		}
		if err := ir.ValidateTree(root); err != nil {
			return nil, fmt.Errorf("Syntax tree error after optimisation: %s", err)
		}
	}
	tOpt := time.Since(start) - tParse

	if opt.Tree {
		ir.Print(os.Stdout, root, 0, true)
	}

	// Generate code.
	wr := &util.Writer{}
	if err := backend.GenerateAssembler(opt, root, wr); err != nil {
		return nil, fmt.Errorf("Code generation error: %s", err)
	}
	tGen := time.Since(start) - tParse - tOpt

	if opt.Verbose {
		_, _ = fmt.Fprintf(os.Stderr, "variables: %d\nparse: %s, optimise: %s, generate: %s\n",
			ir.FreeVariables(root).Len(), tParse, tOpt, tGen)
	}
	return wr, nil
}

// outPath returns the output path for the source file src. A single source without -o goes to stdout, except
// object files which default to the source name with extension .o in the working directory.
func outPath(opt util.Options, src string) string {
	if len(opt.Out) > 0 {
		return opt.Out
	}
	ext := ".s"
	switch {
	case opt.LLVM && !opt.LLVMIR:
		ext = ".o"
	case opt.LLVMIR:
		ext = ".ll"
	}
	if len(opt.Src) < 2 && ext != ".o" {
		return ""
	}
	name := "expr"
	if len(src) > 0 {
		name = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	return "./" + name + ext
}
