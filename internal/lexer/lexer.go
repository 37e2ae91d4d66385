package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/tlua/internal/token"
	"golang.org/x/text/unicode/norm"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	// A leading #! line is ignored.
	if strings.HasPrefix(input, "#!") {
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
	}
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	if pragma, ok := l.skipWhitespace(); ok {
		return pragma
	}

	line, col := l.line, l.column

	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.makeToken(token.EQ, "==", line, col)
		} else {
			tok = l.makeToken(token.ASSIGN, "=", line, col)
		}
	case '~':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.makeToken(token.NOT_EQ, "~=", line, col)
		} else {
			tok = l.illegal("unexpected '~'", line, col)
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.makeToken(token.LTE, "<=", line, col)
		} else {
			tok = l.makeToken(token.LT, "<", line, col)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.makeToken(token.GTE, ">=", line, col)
		} else {
			tok = l.makeToken(token.GT, ">", line, col)
		}
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			tok = l.makeToken(token.ARROW, "->", line, col)
		} else {
			tok = l.makeToken(token.MINUS, "-", line, col)
		}
	case '+':
		tok = l.makeToken(token.PLUS, "+", line, col)
	case '*':
		tok = l.makeToken(token.ASTERISK, "*", line, col)
	case '/':
		tok = l.makeToken(token.SLASH, "/", line, col)
	case '%':
		tok = l.makeToken(token.PERCENT, "%", line, col)
	case '^':
		tok = l.makeToken(token.CARET, "^", line, col)
	case '#':
		tok = l.makeToken(token.HASH, "#", line, col)
	case ',':
		tok = l.makeToken(token.COMMA, ",", line, col)
	case ';':
		tok = l.makeToken(token.SEMICOLON, ";", line, col)
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			tok = l.makeToken(token.DOUBLE_COLON, "::", line, col)
		} else {
			tok = l.makeToken(token.COLON, ":", line, col)
		}
	case '.':
		if l.peekChar() == '.' {
			l.readChar()
			if l.peekChar() == '.' {
				l.readChar()
				tok = l.makeToken(token.ELLIPSIS, "...", line, col)
			} else {
				tok = l.makeToken(token.CONCAT, "..", line, col)
			}
		} else if isDigit(l.peekChar()) {
			return l.readNumber()
		} else {
			tok = l.makeToken(token.DOT, ".", line, col)
		}
	case '(':
		tok = l.makeToken(token.LPAREN, "(", line, col)
	case ')':
		tok = l.makeToken(token.RPAREN, ")", line, col)
	case '{':
		tok = l.makeToken(token.LBRACE, "{", line, col)
	case '}':
		tok = l.makeToken(token.RBRACE, "}", line, col)
	case '[':
		if level, ok := l.longBracketLevel(); ok {
			start := l.position
			content, closed := l.readLongBracket(level)
			if !closed {
				return l.illegal("unfinished long string", line, col)
			}
			return token.Token{Type: token.STRING, Lexeme: l.input[start:l.position], Literal: content, Line: line, Column: col}
		}
		tok = l.makeToken(token.LBRACKET, "[", line, col)
	case ']':
		tok = l.makeToken(token.RBRACKET, "]", line, col)
	case '"', '\'':
		return l.readString(line, col)
	case 0:
		return token.Token{Type: token.EOF, Lexeme: "", Line: line, Column: col}
	default:
		if isLetter(l.ch) {
			return l.readIdentifier(line, col)
		} else if isDigit(l.ch) {
			return l.readNumber()
		}
		tok = l.illegal(fmt.Sprintf("unexpected symbol %q", l.ch), line, col)
	}

	l.readChar()
	return tok
}

func (l *Lexer) makeToken(t token.TokenType, lexeme string, line, col int) token.Token {
	return token.Token{Type: t, Lexeme: lexeme, Literal: lexeme, Line: line, Column: col}
}

// illegal builds an ILLEGAL token whose Literal is the error message.
func (l *Lexer) illegal(msg string, line, col int) token.Token {
	lexeme := ""
	if l.ch != 0 {
		lexeme = string(l.ch)
	}
	return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: msg, Line: line, Column: col}
}

// readIdentifier reads a name; names are normalised to NFC so that
// visually identical identifiers compare equal.
func (l *Lexer) readIdentifier(line, col int) token.Token {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) || unicode.IsMark(l.ch) {
		l.readChar()
	}
	lexeme := norm.NFC.String(l.input[position:l.position])
	return token.Token{Type: token.LookupIdent(lexeme), Lexeme: lexeme, Literal: lexeme, Line: line, Column: col}
}

func (l *Lexer) readNumber() token.Token {
	line, col := l.line, l.column
	position := l.position

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
	} else {
		for isDigit(l.ch) {
			l.readChar()
		}
		if l.ch == '.' && l.peekChar() != '.' {
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
		}
		if l.ch == 'e' || l.ch == 'E' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	// A number running straight into a letter is malformed (e.g. 3x).
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}

	lexeme := l.input[position:l.position]
	val, err := parseNumber(lexeme)
	if err != nil {
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: "malformed number near '" + lexeme + "'", Line: line, Column: col}
	}
	return token.Token{Type: token.NUMBER, Lexeme: lexeme, Literal: val, Line: line, Column: col}
}

// parseNumber converts a Lua numeral to its float64 value.
func parseNumber(s string) (float64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, err
		}
		return float64(n), nil
	}
	return strconv.ParseFloat(s, 64)
}

func (l *Lexer) readString(line, col int) token.Token {
	quote := l.ch
	start := l.position
	var sb strings.Builder

	for {
		l.readChar()
		switch l.ch {
		case quote:
			l.readChar()
			return token.Token{Type: token.STRING, Lexeme: l.input[start:l.position], Literal: sb.String(), Line: line, Column: col}
		case 0, '\n':
			return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:l.position], Literal: "unfinished string", Line: line, Column: col}
		case '\\':
			l.readChar()
			if !l.readEscape(&sb) {
				return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:l.position], Literal: "invalid escape sequence", Line: line, Column: col}
			}
		default:
			sb.WriteRune(l.ch)
		}
	}
}

// readEscape decodes the escape whose first character is l.ch.
// On return l.ch is the last character of the escape.
func (l *Lexer) readEscape(sb *strings.Builder) bool {
	switch l.ch {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '\\', '"', '\'':
		sb.WriteRune(l.ch)
	case '\n':
		sb.WriteByte('\n')
	case 'x':
		var val int
		for i := 0; i < 2; i++ {
			if !isHexDigit(l.peekChar()) {
				return false
			}
			l.readChar()
			val = val*16 + hexValue(l.ch)
		}
		sb.WriteByte(byte(val))
	case 'u':
		if l.peekChar() != '{' {
			return false
		}
		l.readChar()
		var val int
		digits := 0
		for isHexDigit(l.peekChar()) {
			l.readChar()
			val = val*16 + hexValue(l.ch)
			digits++
		}
		if digits == 0 || l.peekChar() != '}' || val > unicode.MaxRune {
			return false
		}
		l.readChar()
		sb.WriteRune(rune(val))
	case 'z':
		for isSpace(l.peekChar()) {
			l.readChar()
		}
	default:
		if !isDigit(l.ch) {
			return false
		}
		val := int(l.ch - '0')
		for i := 0; i < 2 && isDigit(l.peekChar()); i++ {
			l.readChar()
			val = val*10 + int(l.ch-'0')
		}
		if val > 255 {
			return false
		}
		sb.WriteByte(byte(val))
	}
	return true
}

// longBracketLevel reports whether l.ch starts a long bracket [[ or [==[
// and returns its level without consuming input.
func (l *Lexer) longBracketLevel() (int, bool) {
	i := l.readPosition
	level := 0
	for i < len(l.input) && l.input[i] == '=' {
		level++
		i++
	}
	if i < len(l.input) && l.input[i] == '[' {
		return level, true
	}
	return 0, false
}

// readLongBracket consumes a long bracket starting at l.ch and returns its content.
// A newline right after the opening bracket is skipped.
func (l *Lexer) readLongBracket(level int) (string, bool) {
	for i := 0; i < level+2; i++ {
		l.readChar()
	}
	if l.ch == '\r' {
		l.readChar()
	}
	if l.ch == '\n' {
		l.readChar()
	}
	closing := "]" + strings.Repeat("=", level) + "]"
	start := l.position
	for l.ch != 0 {
		if l.ch == ']' && strings.HasPrefix(l.input[l.position:], closing) {
			content := l.input[start:l.position]
			for i := 0; i < len(closing); i++ {
				l.readChar()
			}
			return content, true
		}
		l.readChar()
	}
	return "", false
}

// skipWhitespace skips blanks and comments. A line comment of the form
// --@name args is returned as a PRAGMA token.
func (l *Lexer) skipWhitespace() (token.Token, bool) {
	for {
		for isSpace(l.ch) {
			l.readChar()
		}
		if l.ch != '-' || l.peekChar() != '-' {
			return token.Token{}, false
		}

		line, col := l.line, l.column
		start := l.position
		l.readChar() // -
		l.readChar() // -

		if l.ch == '[' {
			if level, ok := l.longBracketLevel(); ok {
				l.readLongBracket(level)
				continue
			}
		}

		isPragma := l.ch == '@'
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
		if isPragma {
			text := strings.TrimRight(l.input[start:l.position], " \t\r")
			body := strings.TrimSpace(text[len("--@"):])
			return token.Token{Type: token.PRAGMA, Lexeme: text, Literal: body, Line: line, Column: col}, true
		}
	}
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || (ch >= 0x80 && unicode.IsLetter(ch))
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

func hexValue(ch rune) int {
	switch {
	case ch >= 'a':
		return int(ch-'a') + 10
	case ch >= 'A':
		return int(ch-'A') + 10
	default:
		return int(ch - '0')
	}
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' || ch == '\v'
}
