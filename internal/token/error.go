package token

import "fmt"

// LexError reports a lexical error at a source line, in the same spirit as
// gothird's line-tagged syntax errors.
type LexError struct {
	Line    int
	Message string
}

func (e LexError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Message) }

// SyntaxErrorf builds a LexError with a formatted message.
func SyntaxErrorf(line int, format string, args ...any) error {
	return LexError{Line: line, Message: fmt.Sprintf(format, args...)}
}
