package util

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/xyproto/env/v2"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

type Options struct {
	Src          []string // Paths to source files. Empty means read stdin.
	Expr         string   // Source given directly on the command line.
	Out          string   // Path to output file. Only valid with a single source.
	Threads      int      // Thread count for compiling several sources in parallel.
	Verbose      bool     // Set true if compiler should log statistical data to stderr.
	TokenStream  bool     // Set true if compiler should output token stream and exit.
	Tree         bool     // Set true if compiler should print the optimised syntax tree.
	NoOptimise   bool     // Set true to hand the parsed tree to the code generator untouched.
	Compat       bool     // Set true to lower && and || exactly like the reference code generator.
	LLVM         bool     // Set true if compiler should use the LLVM framework to generate an object file.
	LLVMIR       bool     // Set true if compiler should output textual LLVM IR.
	Help         bool     // Set true if usage was requested.
	Version      bool     // Set true if the version was requested.
	TargetArch   int      // Output target architecture, only used by the LLVM backend.
	TargetVendor int      // Output target vendor type. 0 = unknown.
	TargetCPU    int      // Output target CPU. 0 = generic CPU.
	TargetOS     int      // Output target operating system type.
}

// ---------------------
// ----- Constants -----
// ---------------------

const maxThreads = 64 // Maximum threads allowed executing in parallel.

// AppVersion is printed by the -v flag.
const AppVersion = "exprc 1.0"

// Environment variables holding defaults for the command line flags.
const (
	envThreads = "EXPRC_THREADS" // Default for -t.
	envCompat  = "EXPRC_COMPAT"  // Default for -compat.
	envVerbose = "EXPRC_VERBOSE" // Default for -vb.
)

// Target machine architectures.
const (
	UnknownArch = iota
	X86_64
	X86_32
	Aarch64
	Riscv64
	Riscv32
)

// Target operating system.
const (
	UnknownOS = iota
	Linux
	Windows
	MAC
)

// Target vendor.
const (
	UnknownVendor = iota
	Apple
	PC
	MIPS
	IBM
	SUSE
	AMD
)

// Target CPU.
const (
	CPUGeneric = iota
)

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses command line arguments, excluding the program name. Options not given on the command line
// take their defaults from the environment.
func ParseArgs(args []string) (Options, error) {
	opt, err := defaults()
	if err != nil {
		return opt, err
	}
	for i1 := 0; i1 < len(args); i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			// Help and usage.
			opt.Help = true
		case "-v", "--v", "-version", "--version":
			// Application version.
			opt.Version = true
		case "-ll":
			// Use LLVM IR and LLVM code generator.
			opt.LLVM = true
		case "-ir":
			opt.LLVMIR = true
		case "-compat":
			opt.Compat = true
		case "-O0":
			opt.NoOptimise = true
		case "-tree":
			opt.Tree = true
		case "-ts":
			// Output token stream
			opt.TokenStream = true
		case "-vb":
			// Verbose mode.
			opt.Verbose = true
		case "-o", "-t", "-e", "-arch", "-os", "-vendor":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			arg := args[i1+1]
			if strings.HasPrefix(arg, "-") && args[i1] != "-e" {
				return opt, fmt.Errorf("expected argument to %s, got new flag %s", args[i1], arg)
			}
			if err := opt.setValue(args[i1], arg); err != nil {
				return opt, err
			}
			i1++
		default:
			if strings.HasPrefix(args[i1], "-") {
				return opt, fmt.Errorf("unexpected flag: %s", args[i1])
			}
			opt.Src = append(opt.Src, args[i1])
		}
	}

	if len(opt.Expr) > 0 && len(opt.Src) > 0 {
		return opt, fmt.Errorf("got both -e expression and %d source file(s)", len(opt.Src))
	}
	if len(opt.Out) > 0 && len(opt.Src) > 1 {
		return opt, fmt.Errorf("-o cannot be used with %d source files", len(opt.Src))
	}
	return opt, nil
}

// defaults returns the options set through the environment.
func defaults() (Options, error) {
	opt := Options{
		Threads: env.Int(envThreads, 1),
		Compat:  env.Bool(envCompat),
		Verbose: env.Bool(envVerbose),
	}
	if opt.Threads < 1 || opt.Threads > maxThreads {
		return opt, fmt.Errorf("%s must be integer in range [1, %d]", envThreads, maxThreads)
	}
	return opt, nil
}

// setValue assigns the argument arg of a flag that takes one.
func (opt *Options) setValue(flag, arg string) error {
	switch flag {
	case "-o":
		// Output file.
		opt.Out = arg
	case "-e":
		opt.Expr = arg
	case "-t":
		// Thread count.
		t, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("expected integer thread count, got: %s", arg)
		}
		if t < 1 || t > maxThreads {
			return fmt.Errorf("thread count must be integer in range [1, %d]", maxThreads)
		}
		opt.Threads = t
	case "-arch":
		// Output architecture.
		switch arg {
		case "aarch64":
			opt.TargetArch = Aarch64
		case "riscv64":
			opt.TargetArch = Riscv64
		case "riscv32":
			opt.TargetArch = Riscv32
		case "x86_64":
			opt.TargetArch = X86_64
		case "x86_32":
			opt.TargetArch = X86_32
		default:
			return fmt.Errorf("unexpected architecture identifier: %s", arg)
		}
	case "-os":
		// Output operating system type.
		switch arg {
		case "linux":
			opt.TargetOS = Linux
		case "windows":
			opt.TargetOS = Windows
		case "mac":
			opt.TargetOS = MAC
		default:
			return fmt.Errorf("unexpected operating system identifier: %s", arg)
		}
	case "-vendor":
		// Output vendor type.
		switch arg {
		case "pc":
			opt.TargetVendor = PC
		case "apple":
			opt.TargetVendor = Apple
		case "ibm":
			opt.TargetVendor = IBM
		default:
			return fmt.Errorf("unexpected vendor identifier: %s", arg)
		}
	}
	return nil
}

// PrintHelp prints a helpful usage message to w.
func PrintHelp(w io.Writer) {
	tw := tabwriter.NewWriter(w, 6, 1, 1, ' ', 0)
	_, _ = fmt.Fprintln(tw, "usage: exprc [flags] [source files...]")
	_, _ = fmt.Fprintln(tw, "-h, -help\tPrints this help message and exits the application.")
	_, _ = fmt.Fprintln(tw, "-e\tCompile the expression given as argument instead of reading source files.")
	_, _ = fmt.Fprintln(tw, "-o\tPath and name of the output file.")
	_, _ = fmt.Fprintf(tw, "-t\tNumber of source files to compile in parallel. Must be in range [1, %d].\n", maxThreads)
	_, _ = fmt.Fprintln(tw, "-compat\tLower && and || exactly like the reference code generator.")
	_, _ = fmt.Fprintln(tw, "-O0\tDisable syntax tree optimisation.")
	_, _ = fmt.Fprintln(tw, "-tree\tPrint the syntax tree before generating code.")
	_, _ = fmt.Fprintln(tw, "-ts\tOutput the tokens of the source code and exit.")
	_, _ = fmt.Fprintln(tw, "-ll\tUse LLVM to generate an object file.")
	_, _ = fmt.Fprintln(tw, "-ir\tOutput textual LLVM IR.")
	_, _ = fmt.Fprintln(tw, "-arch\tLLVM target architecture: aarch64, riscv64, riscv32, x86_64 or x86_32.")
	_, _ = fmt.Fprintln(tw, "-os\tLLVM target operating system: linux, windows or mac.")
	_, _ = fmt.Fprintln(tw, "-vendor\tLLVM target vendor: pc, apple or ibm.")
	_, _ = fmt.Fprintln(tw, "-v, -version\tPrints application version and exits the application.")
	_, _ = fmt.Fprintln(tw, "-vb\tVerbose mode: print compiler statistics to stderr.")
	_, _ = fmt.Fprintln(tw)
	_, _ = fmt.Fprintf(tw, "%s, %s and %s set the defaults of -t, -compat and -vb.\n", envThreads, envCompat, envVerbose)
	_ = tw.Flush()
}
