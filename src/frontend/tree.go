// tree.go provides the entry points of the frontend: Parse builds the expression tree from source code, and
// TokenStream prints the tokens of the source code. The scanner runs concurrently to the parser which lets one
// thread scan source strings for lexemes while the other builds the syntax tree.

package frontend

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"exprc/src/ir"
)

// Parse parses the expression tree from the source code.
func Parse(src string) (root ir.Node, err error) {
	l := newLexer(src, lexGlobal)

	// Start scanner and run it concurrently to the parser.
	go l.run()
	defer l.stop()

	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(parseError)
			if !ok {
				panic(r)
			}
			root, err = nil, pe.err
		}
	}()

	p := parser{l: l}
	p.advance()
	if p.tok.typ == itemEOF {
		return nil, errors.New("source code is empty")
	}
	return p.program(), nil
}

// TokenStream writes the token stream of the given source string to w.
func TokenStream(src string, w io.Writer) error {
	l := newLexer(src, lexGlobal)
	go l.run()
	defer l.stop()

	tw := tabwriter.NewWriter(w, 10, 20, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Value\tType\tPosition\n")
	for {
		t := l.nextItem()
		switch t.typ {
		case itemEOF:
			return tw.Flush()
		case itemError:
			_ = tw.Flush()
			return errors.New(t.val)
		default:
			if len(t.val) > 20 {
				_, _ = fmt.Fprintf(tw, "%.17q...\t%s\tline: %d:%d\n", t.val, tokName(t.typ), t.line, t.pos)
			} else {
				_, _ = fmt.Fprintf(tw, "%q\t%s\tline: %d:%d\n", t.val, tokName(t.typ), t.line, t.pos)
			}
		}
	}
}
