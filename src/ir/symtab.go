package ir

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Symbol refers to a variable's entry in a symbol table.
type Symbol struct {
	Name string // Name of symbol.
	Seq  int    // Sequence number of the variable, in order of first appearance.
}

// SymTab interns variable names. Sequence numbers are handed out in order of first insertion,
// so iterating Symbols reproduces the order in which names were first seen.
type SymTab struct {
	HT  map[string]*Symbol // Hash table holding Symbol entries.
	Seq []*Symbol          // Entries ordered by sequence number.
}

// ---------------------
// ----- Constants -----
// ---------------------

const hTabSize = 16 // It is unlikely that an expression references more than 16 variables.

// ----------------------
// ----- Functions ------
// ----------------------

// NewSymTab returns an empty symbol table with room for n symbols before it has to grow.
func NewSymTab(n int) *SymTab {
	if n < 1 {
		n = hTabSize
	}
	return &SymTab{
		HT:  make(map[string]*Symbol, n),
		Seq: make([]*Symbol, 0, n),
	}
}

// Intern returns the symbol of name, inserting it if it is not present yet.
// fresh is true if the call inserted the symbol.
func (st *SymTab) Intern(name string) (s *Symbol, fresh bool) {
	if s, ok := st.HT[name]; ok {
		return s, false
	}
	s = &Symbol{Name: name, Seq: len(st.Seq)}
	st.HT[name] = s
	st.Seq = append(st.Seq, s)
	return s, true
}

// Lookup returns the symbol of name, or <nil> if name has not been interned.
func (st *SymTab) Lookup(name string) *Symbol {
	return st.HT[name]
}

// Len returns the number of interned symbols.
func (st *SymTab) Len() int {
	return len(st.Seq)
}

// Names returns the interned names ordered by sequence number.
func (st *SymTab) Names() []string {
	res := make([]string, len(st.Seq))
	for i1, e1 := range st.Seq {
		res[i1] = e1.Name
	}
	return res
}
