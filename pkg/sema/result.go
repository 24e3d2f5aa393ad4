package sema

import (
	"github.com/nrkt/minicc/pkg/ctypes"
	"github.com/nrkt/minicc/pkg/ir"
)

// result is the outcome of lowering one expression: an lvalue (the
// address of an object), an rvalue (a value already loaded into a
// temporary or a constant), or an error marker. Earlier drafts of this
// pass carried a mutable "address-of" flag plus a recursively nested
// indirection payload to express "this is really the address of..."; folding
// the lvalue/rvalue distinction into the result itself removes the flag
// entirely — &lvalue just returns the address without the ordinary load a
// plain reference to the same expression would trigger.
type result struct {
	isErr    bool
	isLValue bool
	addr     ir.Value // meaningful when isLValue
	val      ir.Value // meaningful when !isLValue && !isErr
	ctype    ctypes.Type
}

func errResult() result {
	return result{isErr: true}
}

func lvalue(addr ir.Value, ctype ctypes.Type) result {
	return result{isLValue: true, addr: addr, ctype: ctype}
}

func rvalue(val ir.Value, ctype ctypes.Type) result {
	return result{val: val, ctype: ctype}
}

// toRValue loads through an lvalue's address, producing a plain value
// result. A non-lvalue or error result passes through unchanged.
func (lz *Lowerer) toRValue(r result) result {
	if r.isErr || !r.isLValue {
		return r
	}
	irType := lz.irType(r.ctype)
	loaded := lz.b.BuildLoad(r.addr, lz.b.NewTemp(), irType)
	return rvalue(loaded, r.ctype)
}

// irValue returns the IR value an rvalue result carries, loading first if
// the result is still an lvalue.
func (lz *Lowerer) irValue(r result) ir.Value {
	r = lz.toRValue(r)
	if r.isErr {
		return ir.ConstInt{Value: 0, Typ: ir.I32}
	}
	return r.val
}
