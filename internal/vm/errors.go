package vm

import "fmt"

// Each error kind from spec.md section 7 is a concrete Go type so that
// internal/repl can recover and classify with errors.As, in the manner of
// gothird's progError/storError/codeError/memLimitError (internals.go,
// memcore.go).

// StackUnderflowError reports a pop past the base of a stack.
type StackUnderflowError struct{ Stack string }

func (e StackUnderflowError) Error() string { return fmt.Sprintf("stack underflow: %s", e.Stack) }

// StackOverflowError reports a push past the end of a stack region.
type StackOverflowError struct{ Stack string }

func (e StackOverflowError) Error() string { return fmt.Sprintf("stack overflow: %s", e.Stack) }

// TypeError reports an operation applied to an incompatible tagged value.
type TypeError struct {
	Op  string
	Got string
}

func (e TypeError) Error() string { return fmt.Sprintf("type error: %s on %s", e.Op, e.Got) }

// BroadcastTypeMismatchError reports arithmetic over a non-numeric operand.
type BroadcastTypeMismatchError struct{ Op string }

func (e BroadcastTypeMismatchError) Error() string {
	return fmt.Sprintf("broadcast type mismatch in %s", e.Op)
}

// UndefinedWordError reports an identifier the dictionary has no entry for.
type UndefinedWordError struct{ Name string }

func (e UndefinedWordError) Error() string { return fmt.Sprintf("undefined word: %q", e.Name) }

// SyntaxError reports a misplaced keyword (stray else/of, unterminated
// definition, var at top level, clause after default, ...).
type SyntaxError struct{ Message string }

func (e SyntaxError) Error() string { return fmt.Sprintf("syntax error: %s", e.Message) }

// HeapExhaustedError reports the DATA region cannot fit a requested
// allocation.
type HeapExhaustedError struct{ Requested int }

func (e HeapExhaustedError) Error() string {
	return fmt.Sprintf("heap exhausted: requested %d cells", e.Requested)
}

// AssignmentShapeError reports a store whose shape/size does not match the
// existing cell (spec.md section 9 open question, resolved there as an
// AssignmentShapeError).
type AssignmentShapeError struct{ Message string }

func (e AssignmentShapeError) Error() string {
	return fmt.Sprintf("assignment shape error: %s", e.Message)
}

// DispatchError reports a capsule dispatch that found no matching method.
type DispatchError struct{ Method string }

func (e DispatchError) Error() string { return fmt.Sprintf("dispatch error: no method %q", e.Method) }

// HaltError wraps any of the above (or a lower-level memory.Fault /
// value.EncodingError) to mark "abort the current top-level command";
// it is caught only at the REPL boundary, mirroring gothird's haltError
// in core.go.
type HaltError struct{ Err error }

func (e HaltError) Error() string {
	if e.Err == nil {
		return "halted"
	}
	return fmt.Sprintf("halted: %v", e.Err)
}

func (e HaltError) Unwrap() error { return e.Err }
