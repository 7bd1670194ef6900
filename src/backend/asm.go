package backend

import (
	"fmt"
	"os"

	"exprc/src/backend/stackvm"
	"exprc/src/ir"
	"exprc/src/ir/llvm"
	"exprc/src/util"
)

// GenerateAssembler takes the syntax tree and generates output code for the backend selected by opt:
// LLVM IR or an object file through LLVM, else stack machine code. The output is appended to wr.
func GenerateAssembler(opt util.Options, root ir.Node, wr *util.Writer) error {
	if opt.LLVM || opt.LLVMIR {
		return llvm.GenLLVM(opt, root, wr)
	}

	st, err := stackvm.GenStackVM(opt, root, wr)
	if err != nil {
		return err
	}
	if opt.Verbose {
		_, _ = fmt.Fprintf(os.Stderr, "locals: %d, labels: %d, lines: %d\n", st.Locals, st.Labels, st.Lines)
	}
	return nil
}
