package ir

import "exprc/src/util"

// FreeVariables walks the tree rooted at root and interns every variable it references.
// The walk is pre-order, left to right, so symbol sequence numbers follow the first occurrence
// of each name. An explicit work stack is used in place of recursion, which keeps deep trees
// from exhausting the call stack.
func FreeVariables(root Node) *SymTab {
	st := NewSymTab(hTabSize)
	if IsNil(root) {
		return st
	}

	ws := util.NewStack(hTabSize)
	ws.Push(root)
	for ws.Size() > 0 {
		n := ws.Pop().(Node)
		if IsNil(n) {
			continue
		}
		switch v := n.(type) {
		case *Constant:
		case *Variable:
			st.Intern(v.Name)
		default:
			// Push children back-to-front so the leftmost child is visited first.
			c := n.Children()
			for i1 := len(c) - 1; i1 >= 0; i1-- {
				ws.Push(c[i1])
			}
		}
	}
	return st
}

// Collect returns the names of all variables referenced in the tree in order of first occurrence.
func Collect(root Node) []string {
	return FreeVariables(root).Names()
}
