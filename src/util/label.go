// label.go provides label allocation for jumps in generated stack machine code.
// A Labeler is owned by a single generation run and threaded explicitly through the
// code generator, so independent trees can be compiled concurrently without sharing state.

package util

import "exprc/src/backend/xtoa"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Label is a jump target. Labels minted by the same Labeler never repeat.
type Label int

// Labeler hands out labels in strictly increasing order.
type Labeler struct {
	n int // Next label to hand out.
}

// ---------------------
// ----- Constants -----
// ---------------------

// labelPrefix is prepended to the numerical label when printed.
const labelPrefix = "L"

// ---------------------
// ----- functions -----
// ---------------------

// String returns the label as it appears in jump operands, i.e. L0, L1 and so on.
func (l Label) String() string {
	return labelPrefix + xtoa.ItoA(int(l))
}

// New returns a fresh label.
func (lb *Labeler) New() Label {
	l := Label(lb.n)
	lb.n++
	return l
}

// Pair returns two fresh labels, allocated in order.
func (lb *Labeler) Pair() (Label, Label) {
	l1 := lb.New()
	return l1, lb.New()
}

// Count returns the number of labels handed out so far.
func (lb *Labeler) Count() int {
	return lb.n
}
