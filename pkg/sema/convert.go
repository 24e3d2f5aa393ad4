package sema

import (
	"github.com/nrkt/minicc/pkg/ctypes"
	"github.com/nrkt/minicc/pkg/ir"
)

// intRank orders integer types by conversion rank (_Bool lowest, long
// long highest), used by both integer promotion and the usual arithmetic
// conversions.
func intRank(t ctypes.Tint) int { return int(t.Size) }

// promote applies C's integer-promotion rule: any type of rank lower
// than int promotes to int (signed, since int can represent every value
// of a narrower type on this pass's target). _Bool, char, and short all
// promote; int and wider are unaffected. Non-integer types pass through
// unchanged — the caller applies promotion only to operands that are
// about to take part in arithmetic.
func promote(t ctypes.Type) ctypes.Type {
	switch tt := t.(type) {
	case ctypes.Tbool:
		return ctypes.Int()
	case ctypes.Tint:
		if tt.Size < ctypes.SizeInt {
			return ctypes.Int()
		}
		return tt
	default:
		return t
	}
}

// commonType implements the usual arithmetic conversions over two
// already-promoted arithmetic operand types: long double beats double
// beats float beats any integer pairing, where the wider/unsigned-biased
// integer type wins ties per the standard's signed/unsigned rank rules.
func commonType(a, b ctypes.Type) ctypes.Type {
	af, aIsFloat := a.(ctypes.Tfloat)
	bf, bIsFloat := b.(ctypes.Tfloat)
	if aIsFloat || bIsFloat {
		if aIsFloat && bIsFloat {
			if af.Size >= bf.Size {
				return af
			}
			return bf
		}
		if aIsFloat {
			return af
		}
		return bf
	}

	ai, aok := a.(ctypes.Tint)
	bi, bok := b.(ctypes.Tint)
	if !aok || !bok {
		return a
	}
	if intRank(ai) == intRank(bi) {
		if ai.Sign == ctypes.Unsigned || bi.Sign == ctypes.Unsigned {
			return ctypes.Tint{Size: ai.Size, Sign: ctypes.Unsigned}
		}
		return ai
	}
	wide, narrow := ai, bi
	if intRank(bi) > intRank(ai) {
		wide, narrow = bi, ai
	}
	if wide.Sign == ctypes.Unsigned {
		return wide
	}
	if narrow.Sign == ctypes.Unsigned {
		// The narrower unsigned type's every value fits in the wider
		// signed type on this pass's target widths, so the wider signed
		// type is used — matching the common LP64 in-practice behavior
		// rather than the standard's same-rank-unsigned-wins corner case.
		return wide
	}
	return wide
}

// convertTo emits whatever conversion instruction is needed to bring r
// (already an rvalue) to IR type target, given its semantic target type
// targetCType for bookkeeping. A no-op conversion (source and target IR
// types equal) emits nothing, satisfying the "(T)(x) for T = typeof(x)"
// algebraic law.
func (lz *Lowerer) convertTo(r result, targetCType ctypes.Type) result {
	r = lz.toRValue(r)
	if r.isErr {
		return r
	}
	srcIR := lz.irType(r.ctype)
	dstIR := lz.irType(targetCType)
	if ir.TypeEqual(srcIR, dstIR) {
		return rvalue(r.val, targetCType)
	}

	// Constants convert by retyping; no instruction is needed.
	switch c := r.val.(type) {
	case ir.ConstInt:
		if ir.IsInteger(dstIR) {
			return rvalue(ir.ConstInt{Value: c.Value, Typ: dstIR}, targetCType)
		}
		if ir.IsFloat(dstIR) {
			return rvalue(ir.ConstFloat{Value: float64(c.Value), Typ: dstIR}, targetCType)
		}
	case ir.ConstFloat:
		if ir.IsFloat(dstIR) {
			return rvalue(ir.ConstFloat{Value: c.Value, Typ: dstIR}, targetCType)
		}
		if ir.IsInteger(dstIR) {
			return rvalue(ir.ConstInt{Value: int64(c.Value), Typ: dstIR}, targetCType)
		}
	}

	_, srcFloat := srcIR.(ir.FloatType)
	_, dstFloat := dstIR.(ir.FloatType)
	_, srcPtr := srcIR.(ir.PtrType)
	_, dstPtr := dstIR.(ir.PtrType)

	var op ir.Opcode
	switch {
	case srcFloat && dstFloat:
		op = ir.OpBitcast
	case srcFloat && !dstFloat:
		op = ir.OpFtoI
	case !srcFloat && dstFloat:
		op = ir.OpItoF
	case srcPtr && !dstPtr:
		op = ir.OpPtoI
	case !srcPtr && dstPtr:
		op = ir.OpItoP
	case srcPtr && dstPtr:
		op = ir.OpBitcast
	default:
		srcBits, dstBits := lz.arch.SizeOfBits(srcIR), lz.arch.SizeOfBits(dstIR)
		switch {
		case srcBits < dstBits:
			op = ir.OpExt
		case srcBits > dstBits:
			op = ir.OpTrunc
		default:
			op = ir.OpBitcast
		}
	}

	out := lz.b.BuildUnary(op, r.val, lz.b.NewTemp(), dstIR)
	return rvalue(out, targetCType)
}

// toBool converts an arithmetic or pointer rvalue to a one-bit condition
// value (comparison against zero), used for if/while/for conditions and
// the logical operators' operands.
func (lz *Lowerer) toBool(r result) (ir.Value, bool) {
	r = lz.toRValue(r)
	if r.isErr {
		return nil, false
	}
	if !ctypes.IsScalar(r.ctype) {
		return nil, false
	}
	irT := lz.irType(r.ctype)
	zero := zeroConst(irT)
	cond := lz.b.BuildBinary(ir.OpNe, r.val, zero, lz.b.NewTemp(), ir.Bool)
	return cond, true
}

func zeroConst(t ir.Type) ir.Value {
	switch tt := t.(type) {
	case ir.FloatType:
		return ir.ConstFloat{Value: 0, Typ: tt}
	case ir.PtrType:
		return ir.ConstInt{Value: 0, Typ: t}
	default:
		return ir.ConstInt{Value: 0, Typ: t}
	}
}
