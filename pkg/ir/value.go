package ir

import "strconv"

// Value is either a variable (named storage or temporary) or a compile-time
// constant. Every instruction operand and result is a Value.
type Value interface {
	implIRValue()
	Type() Type
	String() string
}

// Var is a reference to named IR storage: a local temporary (%n), a
// function parameter slot, or a global (@n or a kept source identifier).
// For a symbol's ir_ptr, Typ is a pointer to the symbol's storage type;
// for a function symbol, Typ is the function type itself.
type Var struct {
	Name string
	Typ  Type
}

func (Var) implIRValue()    {}
func (v Var) Type() Type    { return v.Typ }
func (v Var) String() string { return v.Name }

// ConstInt is an integer constant of the given IR type.
type ConstInt struct {
	Value int64
	Typ   Type
}

func (ConstInt) implIRValue()     {}
func (c ConstInt) Type() Type     { return c.Typ }
func (c ConstInt) String() string { return itoa64(c.Value) }

// ConstFloat is a floating-point constant of the given IR type.
type ConstFloat struct {
	Value float64
	Typ   Type
}

func (ConstFloat) implIRValue() {}
func (c ConstFloat) Type() Type { return c.Typ }
func (c ConstFloat) String() string {
	return strconv.FormatFloat(c.Value, 'g', -1, 64)
}

// ConstString is a string-literal constant. Expression lowering never
// returns one directly to a consumer (a string literal lowers to a
// pointer-to-array value referring to a module-scope global, per the
// expression-lowering contract for string literals); ConstString exists
// so a global's initializer can carry the literal bytes.
type ConstString struct {
	Value string
	Typ   Type
}

func (ConstString) implIRValue()     {}
func (c ConstString) Type() Type     { return c.Typ }
func (c ConstString) String() string { return strconv.Quote(c.Value) }
