// Package diag defines the diagnostic vocabulary produced by semantic
// analysis: a fixed taxonomy of error kinds, each carrying a source
// position and a free-form message built from the offending construct.
package diag

import (
	"fmt"

	"github.com/nrkt/minicc/pkg/cabs"
)

// Kind identifies the category of a semantic error. Kinds are stable
// strings so that tooling consuming diagnostics (test fixtures, editor
// integrations) can match on them without parsing messages.
type Kind string

const (
	UseOfUndeclaredIdentifier           Kind = "use-of-undeclared-identifier"
	UseOfUndeclaredLabel                Kind = "use-of-undeclared-label"
	InvalidBinaryExpressionOperands     Kind = "invalid-binary-expression-operands"
	InvalidAssignmentTarget             Kind = "invalid-assignment-target"
	RedefinitionOfSymbol                Kind = "redefinition-of-symbol"
	RedefinitionOfLabel                 Kind = "redefinition-of-label"
	RedefinitionOfTag                   Kind = "redefinition-of-tag"
	InvalidInitializerType              Kind = "invalid-initializer-type"
	GlobalInitializerNotConstant        Kind = "global-initializer-not-constant"
	InvalidIfConditionType              Kind = "invalid-if-condition-type"
	InvalidTernaryConditionType          Kind = "invalid-ternary-condition-type"
	InvalidTernaryExpressionOperands    Kind = "invalid-ternary-expression-operands"
	CallTargetNotFunction                Kind = "call-target-not-function"
	CallArgumentCountMismatch           Kind = "call-argument-count-mismatch"
	InvalidLoopConditionType            Kind = "invalid-loop-condition-type"
	InvalidUnaryNotOperandType          Kind = "invalid-unary-not-operand-type"
	InvalidLogicalBinaryOperandType     Kind = "invalid-logical-binary-expression-operand-type"
	InvalidConversionToBoolean          Kind = "invalid-conversion-to-boolean"
	UnaryIndirectionOperandNotPtrType   Kind = "unary-indirection-operand-not-ptr-type"
	InvalidSubscriptTarget              Kind = "invalid-subscript-target"
	InvalidSubscriptType                Kind = "invalid-subscript-type"
	InvalidMemberAccessTarget           Kind = "invalid-member-access-target"
	InvalidStructFieldReference         Kind = "invalid-struct-field-reference"
	CannotIncrementDecrementType        Kind = "cannot-increment-decrement-type"
	BreakOutsideOfLoopOrSwitchCase      Kind = "break-outside-of-loop-or-switch-case"
	ContinueOutsideOfLoop               Kind = "continue-outside-of-loop"
)

// Error is a single accumulated semantic diagnostic.
type Error struct {
	Kind    Kind
	Pos     cabs.Pos
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Path, e.Pos.Line, e.Pos.Column, e.Kind, e.Message)
}

// New builds an Error at pos with a formatted message.
func New(kind Kind, pos cabs.Pos, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// List accumulates diagnostics in source-encounter order. It is the
// traversal-context error vector described by the lowering pass: every
// lowering entry point appends to the same List rather than returning
// per-call error slices, so later calls never lose earlier diagnostics.
type List struct {
	errs []*Error
}

// Add appends a diagnostic.
func (l *List) Add(kind Kind, pos cabs.Pos, format string, args ...interface{}) {
	l.errs = append(l.errs, New(kind, pos, format, args...))
}

// Errors returns the accumulated diagnostics in encounter order.
func (l *List) Errors() []*Error {
	return l.errs
}

// HasErrors reports whether any diagnostic has been recorded.
func (l *List) HasErrors() bool {
	return len(l.errs) > 0
}
