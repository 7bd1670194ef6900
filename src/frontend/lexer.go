// lexer.go scans expression source code into items. The scanner follows the state function design from Rob Pike's
// talk on Go scanners: https://talks.golang.org/2011/lex.slide#1
//
// Every state scans a lexeme and returns the next state. Items are passed to the parser over a channel, so scanning
// and parsing run concurrently. The parser closes done when it stops reading, which lets the scanner goroutine exit
// early on a syntax error.

package frontend

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// stateFunc defines the state of the lexer.
type stateFunc func(*lexer) stateFunc

// itemType is used to differentiate different tokens scanned by the lexer.
type itemType int

// item contains a lexeme scanned by the lexer and its position in the source stream.
type item struct {
	typ  itemType // Token type.
	val  string   // Lexeme.
	line int      // Line of the lexeme, starting at 1.
	pos  int      // Column of the first character of the lexeme, starting at 1.
}

// lexer holds the scanner state for one source string.
type lexer struct {
	input   string        // Source code.
	start   int           // Byte offset of the current lexeme.
	pos     int           // Byte offset of the next rune.
	width   int           // Width in bytes of the last rune read by next.
	line    int           // Line of the current lexeme, starting at 1.
	col     int           // Column of the current lexeme, starting at 1.
	state   stateFunc     // Initial state.
	items   chan item     // Scanned items, closed after the last one.
	done    chan struct{} // Closed by the consumer when it stops reading items.
	stopped bool          // Set true when the consumer has gone away.
}

// ---------------------
// ----- Constants -----
// ---------------------

const eof = 0 // Same as '\0' for null-terminated C strings.

const (
	itemEOF itemType = iota
	itemError
)

// --------------------------
// ----- Item functions -----
// --------------------------

// String returns a print friendly string representation of the item.
func (i item) String() string {
	switch i.typ {
	case itemEOF:
		return "EOF"
	case itemError:
		return fmt.Sprintf("%s [ERROR]", i.val)
	}
	return fmt.Sprintf("%s %.12q (line %d:%d)", tokName(i.typ), i.val, i.line, i.pos)
}

// ---------------------------
// ----- Lexer functions -----
// ---------------------------

// newLexer returns a lexer for src that starts in state start. The lexer does nothing until run is called.
func newLexer(src string, start stateFunc) *lexer {
	return &lexer{
		input: src,
		line:  1,
		col:   1,
		state: start,
		items: make(chan item, 2),
		done:  make(chan struct{}),
	}
}

// run executes states until a state returns <nil> or the consumer stops reading, then closes the items channel.
func (l *lexer) run() {
	defer close(l.items)
	for state := l.state; state != nil && !l.stopped; {
		state = state(l)
	}
}

// stop tells the lexer that no more items will be read.
func (l *lexer) stop() {
	close(l.done)
}

// send passes item i to the consumer unless it has stopped reading.
func (l *lexer) send(i item) {
	if l.stopped {
		return
	}
	select {
	case l.items <- i:
	case <-l.done:
		l.stopped = true
	}
}

// emit sends the pending lexeme as an item of type typ.
func (l *lexer) emit(typ itemType) {
	l.send(item{typ: typ, val: l.input[l.start:l.pos], line: l.line, pos: l.col})
	l.ignore()
}

// next returns the next rune in the input. The use of runes makes the lexer UTF-8 compatible.
func (l *lexer) next() (r rune) {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	return r
}

// ignore drops the pending lexeme.
func (l *lexer) ignore() {
	l.col += l.pos - l.start
	l.start = l.pos
}

// newline drops the pending newline and moves to the first column of the next line.
func (l *lexer) newline() {
	l.start = l.pos
	l.line++
	l.col = 1
}

// backup steps back one rune. Should only be called once per call of next.
func (l *lexer) backup() {
	if l.pos > l.start {
		l.pos -= l.width
	}
}

// peek returns, but does not consume, the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// accept consumes the next rune if it's from the set of valid characters defined by the valid string.
func (l *lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

// acceptRun consumes a sequence of runes from the set of valid characters defined by the valid string.
func (l *lexer) acceptRun(valid string) {
	for strings.ContainsRune(valid, l.next()) {
	}
	l.backup()
}

// nextItem returns the next item from the input. Once the input is exhausted it keeps returning EOF.
func (l *lexer) nextItem() item {
	i, ok := <-l.items
	if !ok {
		return item{typ: itemEOF, line: l.line, pos: l.col}
	}
	return i
}

// errorf sends an error item and returns the <nil> state, which ends the scan.
func (l *lexer) errorf(format string, args ...interface{}) stateFunc {
	l.send(item{typ: itemError, val: fmt.Sprintf(format, args...), line: l.line, pos: l.col})
	return nil
}
