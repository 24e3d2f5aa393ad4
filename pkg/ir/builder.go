package ir

import "container/list"

// Pos is an opaque cursor position into a Builder's instruction stream,
// returned by GetPosition/Mark and accepted by PositionAfter/ClearAfter.
// A nil Pos means "before the first instruction".
type Pos = *list.Element

// Builder is a cursor-based emitter over a doubly linked instruction
// list, one per function. New instructions are always inserted
// immediately after the cursor, and the cursor then advances to the
// newly inserted instruction. InsertAlloca hoists every alloca into the
// entry prologue regardless of where the builder's ordinary cursor
// currently sits.
type Builder struct {
	list         *list.List
	cursor       Pos
	allocaTail   Pos // tail of the alloca prologue; nil means none emitted yet
	nextTempID   int
	nextLabelID  int
}

// NewBuilder creates an empty builder for one function.
func NewBuilder() *Builder {
	return &Builder{list: list.New()}
}

// PositionAfter moves the cursor so the next emitted instruction is
// inserted immediately after pos.
func (b *Builder) PositionAfter(pos Pos) { b.cursor = pos }

// GetPosition returns the current cursor.
func (b *Builder) GetPosition() Pos { return b.cursor }

// ClearAfter removes every instruction after pos (exclusive) through the
// end of the stream and leaves the cursor at pos. Used to discard the
// unchosen arm of a constant-folded ternary after it has been lowered
// once for semantic analysis.
func (b *Builder) ClearAfter(pos Pos) {
	var next Pos
	if pos == nil {
		next = b.list.Front()
	} else {
		next = pos.Next()
	}
	for next != nil {
		rm := next
		next = next.Next()
		b.list.Remove(rm)
	}
	b.cursor = pos
}

func (b *Builder) emit(ins *Instruction) Pos {
	var e Pos
	if b.cursor == nil {
		e = b.list.PushFront(ins)
	} else {
		e = b.list.InsertAfter(ins, b.cursor)
	}
	b.cursor = e
	return e
}

// InsertAlloca appends an alloca for typ at the tail of the entry-block
// prologue (after any previously inserted alloca, before everything
// else), regardless of where the builder's ordinary cursor currently is,
// then restores that cursor; a cursor that sat at the old prologue tail
// moves to the new alloca, so later instructions still follow every
// alloca. Returns the Var holding the storage address.
func (b *Builder) InsertAlloca(typ Type, resultName string) *Var {
	v := &Var{Name: resultName, Typ: PtrType{Elem: typ}}
	ins := &Instruction{Op: OpAlloca, Result: v, AllocType: typ}

	saved := b.cursor
	oldTail := b.allocaTail
	b.cursor = oldTail
	e := b.emit(ins)
	b.allocaTail = e
	if saved == oldTail {
		b.cursor = e
	} else {
		b.cursor = saved
	}
	return v
}

// NewTemp returns a fresh local temporary name, unique within the
// function this builder serves.
func (b *Builder) NewTemp() string {
	n := "%" + itoa(b.nextTempID)
	b.nextTempID++
	return n
}

// NewLabel returns a fresh label name, unique within the function this
// builder serves.
func (b *Builder) NewLabel() string {
	n := "l" + itoa(b.nextLabelID)
	b.nextLabelID++
	return n
}

// LastInstruction returns the most recently emitted instruction (by
// stream order, not cursor position) and true, or false if none has been
// emitted yet. Used by function lowering to decide whether a synthesized
// fallthrough return is needed at the end of a body.
func (b *Builder) LastInstruction() (*Instruction, bool) {
	back := b.list.Back()
	if back == nil {
		return nil, false
	}
	return back.Value.(*Instruction), true
}

// Finalize returns the instruction stream in insertion order. The
// builder must not be used afterward.
func (b *Builder) Finalize() []*Instruction {
	out := make([]*Instruction, 0, b.list.Len())
	for e := b.list.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Instruction))
	}
	return out
}

// --- build_<op> helpers -----------------------------------------------

func (b *Builder) result(name string, typ Type) *Var { return &Var{Name: name, Typ: typ} }

// BuildBinary emits a two-operand arithmetic/bitwise/compare instruction
// and returns its result value.
func (b *Builder) BuildBinary(op Opcode, left, right Value, resultName string, resultType Type) *Var {
	res := b.result(resultName, resultType)
	b.emit(&Instruction{Op: op, Result: res, Args: []Value{left, right}})
	return res
}

// BuildUnary emits a one-operand instruction (not, trunc, ext, bitcast,
// ftoi, itof, ptoi, itop) and returns its result value.
func (b *Builder) BuildUnary(op Opcode, arg Value, resultName string, resultType Type) *Var {
	res := b.result(resultName, resultType)
	b.emit(&Instruction{Op: op, Result: res, Args: []Value{arg}})
	return res
}

// BuildAssign emits `result = value` (used to merge ternary/logical arms
// into a common result temporary) and returns the result value.
func (b *Builder) BuildAssign(value Value, resultName string, resultType Type) *Var {
	res := b.result(resultName, resultType)
	b.emit(&Instruction{Op: OpAssign, Result: res, Args: []Value{value}})
	return res
}

// BuildLoad emits a load through addr and returns the loaded value.
func (b *Builder) BuildLoad(addr Value, resultName string, loadedType Type) *Var {
	res := b.result(resultName, loadedType)
	b.emit(&Instruction{Op: OpLoad, Result: res, Args: []Value{addr}})
	return res
}

// BuildStore emits a store of value through addr.
func (b *Builder) BuildStore(addr, value Value) {
	b.emit(&Instruction{Op: OpStore, Args: []Value{addr, value}})
}

// BuildGetArrayElementPtr emits a pointer-arithmetic step (array
// subscript, pointer +/- integer, and pre/post ++/-- on a pointer all
// lower to this) and returns the computed pointer.
func (b *Builder) BuildGetArrayElementPtr(base, index Value, resultName string, resultType Type) *Var {
	res := b.result(resultName, resultType)
	b.emit(&Instruction{Op: OpGetArrayElementPtr, Result: res, Args: []Value{base, index}})
	return res
}

// BuildGetStructMemberPtr emits a field-address computation and returns
// the computed pointer.
func (b *Builder) BuildGetStructMemberPtr(base Value, fieldIndex int, resultName string, resultType Type) *Var {
	res := b.result(resultName, resultType)
	b.emit(&Instruction{Op: OpGetStructMemberPtr, Result: res, Args: []Value{base}, FieldIndex: fieldIndex})
	return res
}

// BuildCall emits a call to callee with args. resultName/resultType are
// ignored (no result instruction is emitted) when resultType is nil,
// matching "fresh result temporary iff return type is not void".
func (b *Builder) BuildCall(callee string, args []Value, variadic bool, resultName string, resultType Type) *Var {
	ins := &Instruction{Op: OpCall, Args: args, Callee: callee, Variadic: variadic}
	if resultType == nil {
		b.emit(ins)
		return nil
	}
	res := b.result(resultName, resultType)
	ins.Result = res
	b.emit(ins)
	return res
}

// BuildRet emits a return. value may be nil for `ret void`.
func (b *Builder) BuildRet(value Value) {
	ins := &Instruction{Op: OpRet}
	if value != nil {
		ins.Args = []Value{value}
	}
	b.emit(ins)
}

// BuildBr emits an unconditional branch to label.
func (b *Builder) BuildBr(label string) {
	b.emit(&Instruction{Op: OpBr, Label: label})
}

// BuildBrCond emits a conditional branch: control falls through to the
// next instruction when cond is true and jumps to falseLabel otherwise.
func (b *Builder) BuildBrCond(cond Value, falseLabel string) {
	b.emit(&Instruction{Op: OpBrCond, Args: []Value{cond}, Label: falseLabel})
}

// BuildNop emits a basic-block boundary marker, optionally carrying
// label as its defining label.
func (b *Builder) BuildNop(label string) {
	b.emit(&Instruction{Op: OpNop, Label: label})
}
