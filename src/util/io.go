package util

import (
	"bufio"
	"errors"
	"io"
	"io/ioutil"
	"os"
	"strings"
	"time"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Writer buffers generated code in a strings.Builder. Nothing reaches the final destination
// until WriteTo is called, so a failed generation run never leaves partial output behind.
type Writer struct {
	sb    strings.Builder
	lines int // Number of lines written.
}

// ---------------------
// ----- Constants -----
// ---------------------

// stdinTimeout is how long ReadSource waits for input on stdin.
const stdinTimeout = 500 * time.Millisecond

// ---------------------
// ----- Functions -----
// ---------------------

// WriteString writes s verbatim to the Writer's buffer.
func (w *Writer) WriteString(s string) {
	w.lines += strings.Count(s, "\n")
	w.sb.WriteString(s)
}

// Ins writes a one-line instruction without operands.
func (w *Writer) Ins(op string) {
	w.lines++
	w.sb.WriteByte('\t')
	w.sb.WriteString(op)
	w.sb.WriteByte('\n')
}

// Ins1 writes a one-line instruction using the operator and single operand.
func (w *Writer) Ins1(op, rs1 string) {
	w.lines++
	w.sb.WriteByte('\t')
	w.sb.WriteString(op)
	w.sb.WriteByte(' ')
	w.sb.WriteString(rs1)
	w.sb.WriteByte('\n')
}

// Label writes a one-line label declaration with the given name.
func (w *Writer) Label(name string) {
	w.lines++
	w.sb.WriteString(name)
	w.sb.WriteString(":\n")
}

// Directive writes an assembler directive such as .local or .function, followed by its space separated fields.
func (w *Writer) Directive(name string, fields ...string) {
	w.lines++
	w.sb.WriteByte('.')
	w.sb.WriteString(name)
	for _, e1 := range fields {
		w.sb.WriteByte(' ')
		w.sb.WriteString(e1)
	}
	w.sb.WriteByte('\n')
}

// String returns the buffered text.
func (w *Writer) String() string {
	return w.sb.String()
}

// Lines returns the number of lines written to the buffer.
func (w *Writer) Lines() int {
	return w.lines
}

// Reset discards the buffered text.
func (w *Writer) Reset() {
	w.sb.Reset()
	w.lines = 0
}

// WriteTo writes the buffered text to out. It implements io.WriterTo.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	bw := bufio.NewWriter(out)
	n, err := bw.WriteString(w.sb.String())
	if err != nil {
		return int64(n), err
	}
	return int64(n), bw.Flush()
}

// ReadSource reads source code from file or stdin.
// If path is not empty the file will be opened and read.
// Else the function waits for a short period for input on stdin. If no input on stdin is
// provided the function returns an error.
func ReadSource(path string) (string, error) {
	if len(path) > 0 {
		// Read from file.
		b, err := ioutil.ReadFile(path)
		return string(b), err
	}

	// Read stdin.
	c := make(chan string, 1)
	cerr := make(chan error, 1)

	// Concurrently wait for input on stdin.
	go func(c chan string, cerr chan error) {
		b, err := ioutil.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			cerr <- err
			return
		}
		c <- string(b)
	}(c, cerr)

	// Select between input from stdin or timer expiry.
	select {
	case <-time.After(stdinTimeout):
		return "", errors.New("expected input from stdin, got none")
	case err := <-cerr:
		return "", err
	case s := <-c:
		return s, nil
	}
}

// WriteOutput writes the buffered text of w to the file at path, or to stdout if path is empty.
func WriteOutput(path string, w *Writer) error {
	if len(path) == 0 {
		_, err := w.WriteTo(os.Stdout)
		return err
	}

	// Attempt to open output file. Create new file if necessary.
	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err = w.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
