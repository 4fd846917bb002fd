// Package token defines lexical tokens for the orchestra language.
package token

// Token represents a lexical token type.
type Token uint8

const (
	// Special tokens
	ILLEGAL Token = iota
	EOF

	// Operators and delimiters
	operatorStart
	ADD        // +
	SUB        // -
	MUL        // *
	DIV        // /
	ASSIGN     // =
	EQUALS     // ==
	NOT_EQUALS // !=
	LESS       // <
	LTE        // <=
	GREATER    // >
	GTE        // >=
	AND        // &&
	OR         // ||
	NOT        // !
	LPAREN     // (
	RPAREN     // )
	LBRACE     // {
	RBRACE     // }
	LBRACKET   // [
	RBRACKET   // ]
	COMMA      // ,
	SEMICOLON  // ;
	COLON      // :
	QUESTION   // ?
	operatorEnd

	// Keywords
	keywordStart
	GLOBAL
	INSTR
	OPCODE
	AOPCODE
	KOPCODE
	IOPCODE
	TEMPLATE
	SRATE
	KRATE
	INCHANNELS
	OUTCHANNELS
	INTERP
	IVAR
	KSIG
	ASIG
	XSIG
	OPARRAY
	TABLE
	IMPORTS
	EXPORTS
	IF
	ELSE
	WHILE
	OUTPUT
	EXTEND
	TURNOFF
	RETURN
	keywordEnd

	// Literals
	NAME
	INTEGER
	NUMBER
)

var names = [...]string{
	ILLEGAL:     "<illegal>",
	EOF:         "EOF",
	ADD:         "+",
	SUB:         "-",
	MUL:         "*",
	DIV:         "/",
	ASSIGN:      "=",
	EQUALS:      "==",
	NOT_EQUALS:  "!=",
	LESS:        "<",
	LTE:         "<=",
	GREATER:     ">",
	GTE:         ">=",
	AND:         "&&",
	OR:          "||",
	NOT:         "!",
	LPAREN:      "(",
	RPAREN:      ")",
	LBRACE:      "{",
	RBRACE:      "}",
	LBRACKET:    "[",
	RBRACKET:    "]",
	COMMA:       ",",
	SEMICOLON:   ";",
	COLON:       ":",
	QUESTION:    "?",
	GLOBAL:      "global",
	INSTR:       "instr",
	OPCODE:      "opcode",
	AOPCODE:     "aopcode",
	KOPCODE:     "kopcode",
	IOPCODE:     "iopcode",
	TEMPLATE:    "template",
	SRATE:       "srate",
	KRATE:       "krate",
	INCHANNELS:  "inchannels",
	OUTCHANNELS: "outchannels",
	INTERP:      "interp",
	IVAR:        "ivar",
	KSIG:        "ksig",
	ASIG:        "asig",
	XSIG:        "xsig",
	OPARRAY:     "oparray",
	TABLE:       "table",
	IMPORTS:     "imports",
	EXPORTS:     "exports",
	IF:          "if",
	ELSE:        "else",
	WHILE:       "while",
	OUTPUT:      "output",
	EXTEND:      "extend",
	TURNOFF:     "turnoff",
	RETURN:      "return",
	NAME:        "name",
	INTEGER:     "integer",
	NUMBER:      "number",
}

// String returns the source spelling of operators and keywords,
// and a descriptive name for everything else.
func (t Token) String() string {
	if int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return "<unknown>"
}

// IsOperator returns true if the token is an operator.
func (t Token) IsOperator() bool {
	return t > operatorStart && t < operatorEnd
}

// IsKeyword returns true if the token is a keyword.
func (t Token) IsKeyword() bool {
	return t > keywordStart && t < keywordEnd
}

// IsLiteral returns true if the token is a literal (name, integer, number).
func (t Token) IsLiteral() bool {
	return t == NAME || t == INTEGER || t == NUMBER
}

// IsStorageType returns true for the variable declaration types.
func (t Token) IsStorageType() bool {
	switch t {
	case IVAR, KSIG, ASIG, XSIG, OPARRAY:
		return true
	}
	return false
}

// IsOpcodeType returns true for the tokens that open an opcode declaration.
func (t Token) IsOpcodeType() bool {
	switch t {
	case OPCODE, AOPCODE, KOPCODE, IOPCODE:
		return true
	}
	return false
}

// keywords maps keyword strings to their token types.
var keywords = map[string]Token{}

func init() {
	for t := keywordStart + 1; t < keywordEnd; t++ {
		keywords[names[t]] = t
	}
}

// LookupIdent returns the token type for a given identifier.
// Returns a keyword token if found, otherwise NAME.
func LookupIdent(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return NAME
}
