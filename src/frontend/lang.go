package frontend

// ---------------------
// ----- Constants -----
// ---------------------

// Token types with more than one character. Single character operators use the rune itself as item type.
const (
	NUMBER itemType = iota + 0xE000
	IDENTIFIER
	IF
	ELSE
	WHILE
	LOG
	EQ  // ==
	NE  // !=
	LE  // <=
	GE  // >=
	AND // &&
	OR  // ||
)

// operators lists the single character operators accepted by the lexer.
const operators = "+-*/^()=<>!;{}"

// tokNames provides print friendly names of the multi-character token types.
var tokNames = map[itemType]string{
	itemEOF:    "EOF",
	itemError:  "ERROR",
	NUMBER:     "NUMBER",
	IDENTIFIER: "IDENTIFIER",
	IF:         "IF",
	ELSE:       "ELSE",
	WHILE:      "WHILE",
	LOG:        "LOG",
	EQ:         "EQ",
	NE:         "NE",
	LE:         "LE",
	GE:         "GE",
	AND:        "AND",
	OR:         "OR",
}

type reservedItem struct {
	val string
	typ itemType
}

// rw contains the set of all reserved keywords.
// The first dimension equals the length of the word.
// The second dimension is the slice of all words of that length.
// Indexing by length and searching should be faster than using a hash table.
var rw = [...][]reservedItem{
	// One-grams
	{},
	// Two-grams
	{
		{val: "if", typ: IF},
	},
	// Three-grams
	{
		{val: "log", typ: LOG},
	},
	// Four-grams
	{
		{val: "else", typ: ELSE},
	},
	// Five-grams
	{
		{val: "while", typ: WHILE},
	},
}

// ---------------------
// ----- Functions -----
// ---------------------

// tokName returns a print friendly name of the token type typ.
func tokName(typ itemType) string {
	if s, ok := tokNames[typ]; ok {
		return s
	}
	return string(rune(typ))
}

// isKeyword returns true if the string s is a reserved keyword.
// On the return of true the itemType of the keyword is returned.
// On the return of false the itemType is either IDENTIFIER or itemError.
func isKeyword(s string) (bool, itemType) {
	if len(s) == 0 {
		return false, itemError
	}
	if len(s) > len(rw) {
		return false, IDENTIFIER
	}

	// Check if string s is a reserved word by iterating over all words in rw of length len(s).
	for _, e1 := range rw[len(s)-1] {
		if e1.val == s {
			return true, e1.typ
		}
	}
	return false, IDENTIFIER
}
