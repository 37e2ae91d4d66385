package lexer

import "github.com/funvibe/tlua/internal/token"

// TokenStream buffers tokens from a Lexer and allows arbitrary lookahead.
type TokenStream struct {
	lexer  *Lexer
	buffer []token.Token
}

func NewTokenStream(l *Lexer) *TokenStream {
	return &TokenStream{lexer: l}
}

// NextToken returns the next token and advances the stream.
func (ts *TokenStream) NextToken() token.Token {
	if len(ts.buffer) > 0 {
		tok := ts.buffer[0]
		ts.buffer = ts.buffer[1:]
		return tok
	}
	return ts.lexer.NextToken()
}

// Peek returns the token n positions ahead (0 is the next token) without consuming it.
func (ts *TokenStream) Peek(n int) token.Token {
	for len(ts.buffer) <= n {
		ts.buffer = append(ts.buffer, ts.lexer.NextToken())
	}
	return ts.buffer[n]
}

// Tokenize returns every token of input up to and including EOF.
func Tokenize(input string) []token.Token {
	l := New(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}
