package diagnostics

import (
	"errors"
	"fmt"

	"github.com/funvibe/tlua/internal/token"
)

type ErrorCode string

const (
	// Lexer
	ErrL001 ErrorCode = "L001" // Illegal character or unterminated literal

	// Parser
	ErrP001 ErrorCode = "P001" // Unexpected token
	ErrP002 ErrorCode = "P002" // No prefix parse function
	ErrP003 ErrorCode = "P003" // Invalid assignment target
	ErrP004 ErrorCode = "P004" // Malformed annotation
	ErrP005 ErrorCode = "P005" // Expected token
	ErrP006 ErrorCode = "P006" // Recursion limit
	ErrP007 ErrorCode = "P007" // Malformed pragma

	// Type annotation compilation (fatal for the unit)
	ErrT001 ErrorCode = "T001" // Malformed function type
	ErrT002 ErrorCode = "T002" // Malformed newtype declaration

	// Instrumentation invariants
	ErrI001 ErrorCode = "I001"

	// Runtime
	ErrR001 ErrorCode = "R001"

	// Configuration
	ErrC001 ErrorCode = "C001"
)

// DiagnosticError is a positioned error reported by one of the pipeline stages.
type DiagnosticError struct {
	Code    ErrorCode
	Token   token.Token
	File    string
	Message string
}

func NewError(code ErrorCode, tok token.Token, message string) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, Message: message}
}

func Errorf(code ErrorCode, tok token.Token, format string, args ...interface{}) *DiagnosticError {
	return NewError(code, tok, fmt.Sprintf(format, args...))
}

func (e *DiagnosticError) Error() string {
	var loc string
	switch {
	case e.File != "" && e.Token.Line > 0:
		loc = fmt.Sprintf("%s:%d:%d: ", e.File, e.Token.Line, e.Token.Column)
	case e.File != "":
		loc = e.File + ": "
	case e.Token.Line > 0:
		loc = fmt.Sprintf("%d:%d: ", e.Token.Line, e.Token.Column)
	}
	return fmt.Sprintf("%serror [%s]: %s", loc, e.Code, e.Message)
}

// AsDiagnostic returns err as a *DiagnosticError. Other errors are wrapped
// under code at tok.
func AsDiagnostic(err error, code ErrorCode, tok token.Token) *DiagnosticError {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de
	}
	return NewError(code, tok, err.Error())
}
