package frontend

import "strings"

// lexGlobal starts the lexing process and serves as the default state.
func lexGlobal(l *lexer) stateFunc {
	for {
		r := l.next()
		switch {
		case isAlpha(r) || r == '_':
			// Keyword or identifier.
			return lexWord
		case isDigit(r) || (r == '.' && isDigit(l.peek())):
			// Number.
			l.backup()
			return lexNumber
		case r == '\n':
			l.newline()
		case isSpace(r):
			// Newlines are caught before other whitespace.
			l.ignore()
		case r == '/' && l.peek() == '/':
			// Ignore comments.
			for c := l.next(); c != '\n' && c != eof; c = l.next() {
			}
			l.backup()
			l.ignore()
		case r == '=' && l.peek() == '=':
			l.next()
			l.emit(EQ)
		case r == '!' && l.peek() == '=':
			l.next()
			l.emit(NE)
		case r == '<' && l.peek() == '=':
			l.next()
			l.emit(LE)
		case r == '>' && l.peek() == '=':
			l.next()
			l.emit(GE)
		case r == '&' && l.peek() == '&':
			l.next()
			l.emit(AND)
		case r == '|' && l.peek() == '|':
			l.next()
			l.emit(OR)
		case r == eof:
			// End of file: stop the state machine.
			l.emit(itemEOF)
			return nil
		case strings.ContainsRune(operators, r):
			// Let parser use character as is.
			l.emit(itemType(r))
		default:
			return l.errorf("line %d:%d: unexpected character %q", l.line, l.col, r)
		}
	}
}

// lexWord scans the input string for keywords and identifiers.
func lexWord(l *lexer) stateFunc {
	// We know that the currently scanned rune is an alphabetic character or underscore.
	for {
		r := l.next()

		// Check if character is valid character.
		if !isAlpha(r) && !isDigit(r) && r != '_' {
			l.backup()
			_, typ := isKeyword(l.input[l.start:l.pos])
			l.emit(typ)
			return lexGlobal
		}
	}
}

// lexNumber scans the input stream for a decimal floating point number with optional fraction and exponent.
// We don't scan negative numbers. We instead let the parser handle negative numbers by grammar rules.
func lexNumber(l *lexer) stateFunc {
	const digits = "0123456789"

	// Scan integer part.
	l.acceptRun(digits)

	// Check for decimal.
	if l.accept(".") {
		l.acceptRun(digits)
	}

	// Check for exponent.
	if l.accept("eE") {
		l.accept("+-")
		if !isDigit(l.peek()) {
			return l.errorf("line %d:%d: malformed number %q", l.line, l.col, l.input[l.start:l.pos])
		}
		l.acceptRun(digits)
	}

	if r := l.peek(); isAlpha(r) || r == '_' {
		return l.errorf("line %d:%d: malformed number %q", l.line, l.col, l.input[l.start:l.pos+1])
	}
	l.emit(NUMBER)
	return lexGlobal
}

// ----------------------------
// ----- Helper functions -----
// ----------------------------

// isAlpha return true if rune r is an alphabetic character in the set [a-zA-Z].
func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isDigit return true if rune r is a digit in the range [0-9].
func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// isSpace return true if rune r is a whitespace character.
func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\f' || r == '\r'
}
