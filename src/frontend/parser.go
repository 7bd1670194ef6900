// parser.go implements a recursive descent parser on top of the concurrent lexer. The grammar, from lowest to
// highest precedence:
//
//	program    := sequence EOF
//	sequence   := expression { ';' [ expression ] }
//	expression := or [ '=' expression ]               (left side must be an identifier)
//	or         := and { '||' and }
//	and        := relation { '&&' relation }
//	relation   := sum { ( '<' | '>' | '<=' | '>=' | '==' | '!=' ) sum }
//	sum        := term { ( '+' | '-' ) term }
//	term       := unary { ( '*' | '/' ) unary }
//	unary      := ( '-' | '!' ) unary | power
//	power      := primary [ '^' unary ]
//	primary    := NUMBER | IDENTIFIER | 'log' '(' expression ')' | '(' sequence ')' | '{' sequence '}'
//	            | 'if' '(' expression ')' expression [ 'else' expression ]
//	            | 'while' '(' expression ')' expression
//
// Subtraction is parsed as addition of a negated term and division as multiplication by a reciprocal.

package frontend

import (
	"fmt"
	"strconv"

	"exprc/src/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// parser consumes items from a lexer and builds the expression tree.
type parser struct {
	l   *lexer
	tok item // Current lookahead token.
}

// parseError is the panic payload used to unwind the parser on the first syntax error.
type parseError struct {
	err error
}

// ---------------------
// ----- Constants -----
// ---------------------

// relations maps relational operator tokens to node types.
var relations = map[itemType]ir.NodeType{
	'<': ir.LESS,
	'>': ir.GREATER,
	LE:  ir.LESS_EQUAL,
	GE:  ir.GREATER_EQUAL,
	EQ:  ir.EQUAL,
	NE:  ir.NOT_EQUAL,
}

// ---------------------
// ----- Functions -----
// ---------------------

// errorf aborts parsing with an error at the position of the current token.
func (p *parser) errorf(format string, args ...interface{}) {
	panic(parseError{err: fmt.Errorf("line %d:%d: %s", p.tok.line, p.tok.pos, fmt.Sprintf(format, args...))})
}

// advance moves to the next token.
func (p *parser) advance() {
	p.tok = p.l.nextItem()
	if p.tok.typ == itemError {
		panic(parseError{err: fmt.Errorf("syntax error: %s", p.tok.val)})
	}
}

// got consumes the current token and returns true if it is of type typ.
func (p *parser) got(typ itemType) bool {
	if p.tok.typ == typ {
		p.advance()
		return true
	}
	return false
}

// expect consumes the current token, which must be of type typ.
func (p *parser) expect(typ itemType) {
	if !p.got(typ) {
		p.errorf("expected %s, got %s", tokName(typ), p.describe())
	}
}

// describe returns a print friendly description of the current token.
func (p *parser) describe() string {
	if p.tok.typ == itemEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", p.tok.val)
}

// program parses the whole input.
func (p *parser) program() ir.Node {
	n := p.sequence()
	if p.tok.typ != itemEOF {
		p.errorf("unexpected %s", p.describe())
	}
	return n
}

// sequence parses statements separated by semicolons. A trailing semicolon is allowed.
func (p *parser) sequence() ir.Node {
	stmts := []ir.Node{p.expression()}
	for p.got(';') {
		switch p.tok.typ {
		case itemEOF, ')', '}':
			// Trailing semicolon.
		default:
			stmts = append(stmts, p.expression())
			continue
		}
		break
	}
	if len(stmts) == 1 {
		return stmts[0]
	}
	return &ir.StatementList{Statements: stmts}
}

// expression parses an assignment or a disjunction. Assignment is right associative.
func (p *parser) expression() ir.Node {
	line, pos := p.tok.line, p.tok.pos
	n := p.or()
	if p.tok.typ != '=' {
		return n
	}
	v, ok := n.(*ir.Variable)
	if !ok {
		p.tok.line, p.tok.pos = line, pos
		p.errorf("left side of assignment must be a variable")
	}
	p.advance()
	return &ir.Assign{Target: v, Value: p.expression()}
}

// or parses a short-circuit disjunction.
func (p *parser) or() ir.Node {
	return p.logical(OR, ir.LOGICAL_OR, p.and)
}

// and parses a short-circuit conjunction.
func (p *parser) and() ir.Node {
	return p.logical(AND, ir.LOGICAL_AND, p.relation)
}

// logical parses operands separated by the token tok into one n-ary node of type typ.
func (p *parser) logical(tok itemType, typ ir.NodeType, operand func() ir.Node) ir.Node {
	ops := []ir.Node{operand()}
	for p.got(tok) {
		ops = append(ops, operand())
	}
	if len(ops) == 1 {
		return ops[0]
	}
	return &ir.Logical{Op: typ, Operands: ops}
}

// relation parses left associative comparisons.
func (p *parser) relation() ir.Node {
	n := p.sum()
	for {
		op, ok := relations[p.tok.typ]
		if !ok {
			return n
		}
		p.advance()
		n = &ir.Relation{Op: op, Left: n, Right: p.sum()}
	}
}

// sum parses additions and subtractions into one addition node.
func (p *parser) sum() ir.Node {
	terms := []ir.Node{p.term()}
	for {
		switch {
		case p.got('+'):
			terms = append(terms, p.term())
		case p.got('-'):
			terms = append(terms, &ir.Negate{Operand: p.term()})
		default:
			if len(terms) == 1 {
				return terms[0]
			}
			return &ir.Add{Terms: terms}
		}
	}
}

// term parses multiplications and divisions into one multiplication node.
func (p *parser) term() ir.Node {
	factors := []ir.Node{p.unary()}
	for {
		switch {
		case p.got('*'):
			factors = append(factors, p.unary())
		case p.got('/'):
			factors = append(factors, &ir.Reciprocal{Operand: p.unary()})
		default:
			if len(factors) == 1 {
				return factors[0]
			}
			return &ir.Multiply{Factors: factors}
		}
	}
}

// unary parses prefix negation and logical not.
func (p *parser) unary() ir.Node {
	switch {
	case p.got('-'):
		return &ir.Negate{Operand: p.unary()}
	case p.got('!'):
		return &ir.Not{Operand: p.unary()}
	}
	return p.power()
}

// power parses a right associative power.
func (p *parser) power() ir.Node {
	n := p.primary()
	if p.got('^') {
		return &ir.Power{Base: n, Exponent: p.unary()}
	}
	return n
}

// primary parses literals, variables, function calls, grouping and control flow.
func (p *parser) primary() ir.Node {
	t := p.tok
	switch t.typ {
	case NUMBER:
		v, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			p.errorf("could not parse number %q: %s", t.val, err)
		}
		p.advance()
		return &ir.Constant{Value: v}
	case IDENTIFIER:
		p.advance()
		return &ir.Variable{Name: t.val}
	case LOG:
		p.advance()
		return &ir.Log{Operand: p.parenthesised()}
	case '(':
		p.advance()
		n := p.sequence()
		p.expect(')')
		return n
	case '{':
		p.advance()
		n := p.sequence()
		p.expect('}')
		return n
	case IF:
		p.advance()
		cond := p.parenthesised()
		thn := p.expression()
		if !p.got(ELSE) {
			// IF-THEN yields 0 when the condition is false.
			return &ir.If{Cond: cond, Then: thn, Else: &ir.Constant{Value: 0}}
		}
		return &ir.If{Cond: cond, Then: thn, Else: p.expression()}
	case WHILE:
		p.advance()
		cond := p.parenthesised()
		return &ir.While{Cond: cond, Body: p.expression()}
	}
	p.errorf("unexpected %s", p.describe())
	return nil
}

// parenthesised parses an expression enclosed in parentheses.
func (p *parser) parenthesised() ir.Node {
	p.expect('(')
	n := p.expression()
	p.expect(')')
	return n
}
