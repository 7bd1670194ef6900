package frontend

import (
	"reflect"
	"strings"
	"testing"

	"exprc/src/ir"
)

// Shorthands for building expected trees.
func num(v float64) ir.Node       { return &ir.Constant{Value: v} }
func id(name string) *ir.Variable { return &ir.Variable{Name: name} }

// TestParse verifies the shape of parsed trees.
func TestParse(t *testing.T) {
	tests := []struct {
		src string
		exp ir.Node
	}{
		{
			src: "42",
			exp: num(42),
		},
		{
			src: "a - b / c",
			exp: &ir.Add{Terms: []ir.Node{
				id("a"),
				&ir.Negate{Operand: &ir.Multiply{Factors: []ir.Node{id("b"), &ir.Reciprocal{Operand: id("c")}}}},
			}},
		},
		{
			src: "1 + 2 * 3 ^ 2 ^ 0.5",
			exp: &ir.Add{Terms: []ir.Node{
				num(1),
				&ir.Multiply{Factors: []ir.Node{
					num(2),
					&ir.Power{Base: num(3), Exponent: &ir.Power{Base: num(2), Exponent: num(0.5)}},
				}},
			}},
		},
		{
			src: "x = y = -log(z)",
			exp: &ir.Assign{Target: id("x"), Value: &ir.Assign{
				Target: id("y"),
				Value:  &ir.Negate{Operand: &ir.Log{Operand: id("z")}},
			}},
		},
		{
			src: "a < b && !c || d == e",
			exp: &ir.Logical{Op: ir.LOGICAL_OR, Operands: []ir.Node{
				&ir.Logical{Op: ir.LOGICAL_AND, Operands: []ir.Node{
					&ir.Relation{Op: ir.LESS, Left: id("a"), Right: id("b")},
					&ir.Not{Operand: id("c")},
				}},
				&ir.Relation{Op: ir.EQUAL, Left: id("d"), Right: id("e")},
			}},
		},
		{
			src: "a && b && c",
			exp: &ir.Logical{Op: ir.LOGICAL_AND, Operands: []ir.Node{id("a"), id("b"), id("c")}},
		},
		{
			src: "if (a >= 1) b",
			exp: &ir.If{
				Cond: &ir.Relation{Op: ir.GREATER_EQUAL, Left: id("a"), Right: num(1)},
				Then: id("b"),
				Else: num(0),
			},
		},
		{
			src: "if (a) b else c",
			exp: &ir.If{Cond: id("a"), Then: id("b"), Else: id("c")},
		},
		{
			src: "n = 3; while (n > 0) { s = s + n; n = n - 1 }; s",
			exp: &ir.StatementList{Statements: []ir.Node{
				&ir.Assign{Target: id("n"), Value: num(3)},
				&ir.While{
					Cond: &ir.Relation{Op: ir.GREATER, Left: id("n"), Right: num(0)},
					Body: &ir.StatementList{Statements: []ir.Node{
						&ir.Assign{Target: id("s"), Value: &ir.Add{Terms: []ir.Node{id("s"), id("n")}}},
						&ir.Assign{Target: id("n"), Value: &ir.Add{Terms: []ir.Node{id("n"), &ir.Negate{Operand: num(1)}}}},
					}},
				},
				id("s"),
			}},
		},
		{
			src: "(a; b;)",
			exp: &ir.StatementList{Statements: []ir.Node{id("a"), id("b")}},
		},
		{
			src: "a <= b != c",
			exp: &ir.Relation{
				Op:    ir.NOT_EQUAL,
				Left:  &ir.Relation{Op: ir.LESS_EQUAL, Left: id("a"), Right: id("b")},
				Right: id("c"),
			},
		},
	}

	for _, e1 := range tests {
		res, err := Parse(e1.src)
		if err != nil {
			t.Errorf("%q: unexpected error: %s", e1.src, err)
			continue
		}
		if !reflect.DeepEqual(res, e1.exp) {
			t.Errorf("%q: expected tree\n%s\ngot\n%s", e1.src, helperTree(e1.exp), helperTree(res))
		}
	}
}

// TestParseErrors verifies that syntax errors are reported and never panic.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		src string
		exp string // Expected substring of the error message.
	}{
		{src: "", exp: "empty"},
		{src: "1 + ", exp: "unexpected end of input"},
		{src: "(a", exp: "expected )"},
		{src: "3 = x", exp: "left side of assignment"},
		{src: "a b", exp: "unexpected \"b\""},
		{src: "log x", exp: "expected ("},
		{src: "while (a)", exp: "unexpected end of input"},
		{src: "a # b", exp: "unexpected character"},
	}

	for _, e1 := range tests {
		_, err := Parse(e1.src)
		if err == nil {
			t.Errorf("%q: expected error, got none", e1.src)
			continue
		}
		if !strings.Contains(err.Error(), e1.exp) {
			t.Errorf("%q: expected error containing %q, got %q", e1.src, e1.exp, err)
		}
	}
}

// TestTokenStream verifies that the token stream is printed with one line per token and a header.
func TestTokenStream(t *testing.T) {
	sb := strings.Builder{}
	if err := TokenStream("a <= 1", &sb); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), sb.String())
	}
	if !strings.Contains(lines[2], "LE") {
		t.Errorf("expected token LE on line 3, got %q", lines[2])
	}
}

// helperTree returns the printed tree n.
func helperTree(n ir.Node) string {
	sb := strings.Builder{}
	ir.Print(&sb, n, 0, false)
	return sb.String()
}
