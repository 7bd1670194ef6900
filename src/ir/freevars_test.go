package ir

import (
	"reflect"
	"testing"
)

// TestCollect verifies that variables are collected once each, in order of first occurrence.
func TestCollect(t *testing.T) {
	x, y, z := &Variable{Name: "x"}, &Variable{Name: "y"}, &Variable{Name: "z"}

	tests := []struct {
		name string
		root Node
		exp  []string
	}{
		{
			name: "constant",
			root: &Constant{Value: 1},
			exp:  []string{},
		},
		{
			name: "repeated",
			root: &Add{Terms: []Node{x, y, x}},
			exp:  []string{"x", "y"},
		},
		{
			name: "pre-order",
			root: &Assign{Target: z, Value: &Multiply{Factors: []Node{y, &Reciprocal{Operand: x}}}},
			exp:  []string{"z", "y", "x"},
		},
		{
			name: "nested control flow",
			root: &StatementList{Statements: []Node{
				&While{
					Cond: &Relation{Op: LESS, Left: y, Right: &Constant{Value: 3}},
					Body: &If{Cond: &Not{Operand: z}, Then: x, Else: y},
				},
				&Logical{Op: LOGICAL_OR, Operands: []Node{x, &Power{Base: z, Exponent: &Log{Operand: x}}}},
			}},
			exp: []string{"y", "z", "x"},
		},
	}

	for _, e1 := range tests {
		res := Collect(e1.root)
		if !reflect.DeepEqual(res, e1.exp) {
			t.Errorf("%s: expected %v, got %v", e1.name, e1.exp, res)
		}

		// The result must not depend on the run.
		for i1 := 0; i1 < 10; i1++ {
			if again := Collect(e1.root); !reflect.DeepEqual(again, res) {
				t.Fatalf("%s: run %d: expected %v, got %v", e1.name, i1, res, again)
			}
		}
	}
}

// TestCollectDeep verifies that a very deep tree is walked without recursion.
func TestCollectDeep(t *testing.T) {
	var n Node = &Variable{Name: "v"}
	for i1 := 0; i1 < 1000000; i1++ {
		n = &Negate{Operand: n}
	}
	if res := Collect(n); len(res) != 1 || res[0] != "v" {
		t.Errorf("expected [v], got %v", res)
	}
}

// TestSymTab verifies sequence numbers and lookup of the symbol table.
func TestSymTab(t *testing.T) {
	st := NewSymTab(0)
	for i1, e1 := range []string{"b", "a", "b", "c", "a"} {
		s, fresh := st.Intern(e1)
		if exp := i1 < 2 || i1 == 3; fresh != exp {
			t.Errorf("Intern(%q): expected fresh %t, got %t", e1, exp, fresh)
		}
		if s.Name != e1 {
			t.Errorf("Intern(%q): got symbol %q", e1, s.Name)
		}
	}
	if st.Len() != 3 {
		t.Errorf("expected 3 symbols, got %d", st.Len())
	}
	if s := st.Lookup("c"); s == nil || s.Seq != 2 {
		t.Errorf("expected c with sequence number 2, got %v", s)
	}
	if s := st.Lookup("d"); s != nil {
		t.Errorf("expected <nil> for d, got %v", s)
	}
	if exp := []string{"b", "a", "c"}; !reflect.DeepEqual(st.Names(), exp) {
		t.Errorf("expected %v, got %v", exp, st.Names())
	}
}
