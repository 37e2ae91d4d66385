package token

type TokenType string

type Token struct {
	Type    TokenType
	Lexeme  string      // Source text of the token
	Literal interface{} // Decoded value: string for names/strings, float64 for numbers
	Line    int
	Column  int
}

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"
	PRAGMA  TokenType = "PRAGMA" // --@name value

	IDENT  TokenType = "IDENT"
	NUMBER TokenType = "NUMBER"
	STRING TokenType = "STRING"

	// Operators
	ASSIGN   TokenType = "="
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"
	CARET    TokenType = "^"
	HASH     TokenType = "#"
	EQ       TokenType = "=="
	NOT_EQ   TokenType = "~="
	LT       TokenType = "<"
	LTE      TokenType = "<="
	GT       TokenType = ">"
	GTE      TokenType = ">="
	CONCAT   TokenType = ".."
	ELLIPSIS TokenType = "..."
	ARROW    TokenType = "->"

	// Delimiters
	COMMA        TokenType = ","
	SEMICOLON    TokenType = ";"
	COLON        TokenType = ":"
	DOUBLE_COLON TokenType = "::"
	DOT          TokenType = "."
	LPAREN       TokenType = "("
	RPAREN       TokenType = ")"
	LBRACE       TokenType = "{"
	RBRACE       TokenType = "}"
	LBRACKET     TokenType = "["
	RBRACKET     TokenType = "]"

	// Keywords
	AND      TokenType = "and"
	BREAK    TokenType = "break"
	DO       TokenType = "do"
	ELSE     TokenType = "else"
	ELSEIF   TokenType = "elseif"
	END      TokenType = "end"
	FALSE    TokenType = "false"
	FOR      TokenType = "for"
	FUNCTION TokenType = "function"
	IF       TokenType = "if"
	IN       TokenType = "in"
	LOCAL    TokenType = "local"
	NEWTYPE  TokenType = "newtype"
	NIL      TokenType = "nil"
	NOT      TokenType = "not"
	OR       TokenType = "or"
	REPEAT   TokenType = "repeat"
	RETURN   TokenType = "return"
	THEN     TokenType = "then"
	TRUE     TokenType = "true"
	UNTIL    TokenType = "until"
	WHILE    TokenType = "while"
)

var keywords = map[string]TokenType{
	"and":      AND,
	"break":    BREAK,
	"do":       DO,
	"else":     ELSE,
	"elseif":   ELSEIF,
	"end":      END,
	"false":    FALSE,
	"for":      FOR,
	"function": FUNCTION,
	"if":       IF,
	"in":       IN,
	"local":    LOCAL,
	"newtype":  NEWTYPE,
	"nil":      NIL,
	"not":      NOT,
	"or":       OR,
	"repeat":   REPEAT,
	"return":   RETURN,
	"then":     THEN,
	"true":     TRUE,
	"until":    UNTIL,
	"while":    WHILE,
}

// LookupIdent returns the keyword type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword reports whether s is a reserved word.
func IsKeyword(s string) bool {
	_, ok := keywords[s]
	return ok
}
