package sema

import (
	"github.com/nrkt/minicc/pkg/cabs"
	"github.com/nrkt/minicc/pkg/ctypes"
	"github.com/nrkt/minicc/pkg/ir"
)

// foldConstIntExpr evaluates an integer constant expression (array
// dimensions, not general initializers) at lowering time. Inputs this
// pass is given are assumed well-formed constant expressions; anything
// else folds to 0 rather than aborting, since non-constant array
// lengths are outside the supported subset rather than a diagnosable
// user error in this pass.
func (lz *Lowerer) foldConstIntExpr(e cabs.Expr) int64 {
	v, ok := foldConstInt(e)
	if !ok {
		return 0
	}
	return v
}

// foldConstInt attempts to evaluate e as a compile-time integer constant.
// It implements the subset of C's constant-expression grammar this pass
// needs: integer/char literals, parens, unary +/-/!/~, and the usual
// binary arithmetic/bitwise/comparison operators over two constant
// operands. Division/modulo by zero is undefined behavior in C; this
// pass folds it to zero silently.
func foldConstInt(e cabs.Expr) (int64, bool) {
	switch ex := e.(type) {
	case *cabs.IntLit:
		return int64(ex.Value), true
	case *cabs.CharLit:
		return ex.Value, true
	case *cabs.ParenExpr:
		return foldConstInt(ex.Expr)
	case *cabs.UnaryExpr:
		v, ok := foldConstInt(ex.Expr)
		if !ok {
			return 0, false
		}
		switch ex.Op {
		case cabs.OpNeg:
			return -v, true
		case cabs.OpPos:
			return v, true
		case cabs.OpLNot:
			if v == 0 {
				return 1, true
			}
			return 0, true
		case cabs.OpBitNot:
			return ^v, true
		default:
			return 0, false
		}
	case *cabs.BinaryExpr:
		l, lok := foldConstInt(ex.Left)
		r, rok := foldConstInt(ex.Right)
		if !lok || !rok {
			return 0, false
		}
		return foldBinaryInt(ex.Op, l, r), true
	}
	return 0, false
}

func foldBinaryInt(op cabs.BinaryOp, l, r int64) int64 {
	switch op {
	case cabs.OpAdd:
		return l + r
	case cabs.OpSub:
		return l - r
	case cabs.OpMul:
		return l * r
	case cabs.OpDiv:
		if r == 0 {
			return 0
		}
		return l / r
	case cabs.OpMod:
		if r == 0 {
			return 0
		}
		return l % r
	case cabs.OpBitAnd:
		return l & r
	case cabs.OpBitOr:
		return l | r
	case cabs.OpBitXor:
		return l ^ r
	case cabs.OpShl:
		return l << uint(r)
	case cabs.OpShr:
		return l >> uint(r)
	case cabs.OpLt:
		return boolToInt(l < r)
	case cabs.OpLe:
		return boolToInt(l <= r)
	case cabs.OpGt:
		return boolToInt(l > r)
	case cabs.OpGe:
		return boolToInt(l >= r)
	case cabs.OpEq:
		return boolToInt(l == r)
	case cabs.OpNe:
		return boolToInt(l != r)
	case cabs.OpLAnd:
		return boolToInt(l != 0 && r != 0)
	case cabs.OpLOr:
		return boolToInt(l != 0 || r != 0)
	}
	return 0
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// foldBinaryOperands folds a binary operation whose operands both lowered
// to constants, producing the result constant directly instead of an
// instruction. Returns false when either operand is not a foldable
// constant; the caller then emits the ordinary instruction. Operand class
// errors are checked by the caller before this runs.
func (lz *Lowerer) foldBinaryOperands(op cabs.BinaryOp, leftR, rightR result) (result, bool) {
	lc, lInt := leftR.val.(ir.ConstInt)
	rc, rInt := rightR.val.(ir.ConstInt)
	lf, lFloat := leftR.val.(ir.ConstFloat)
	rf, rFloat := rightR.val.(ir.ConstFloat)

	if lInt && rInt && ctypes.IsInteger(leftR.ctype) && ctypes.IsInteger(rightR.ctype) {
		v := foldBinaryInt(op, lc.Value, rc.Value)
		if isComparisonOp(op) {
			ct := ctypes.Int()
			return rvalue(ir.ConstInt{Value: v, Typ: lz.irType(ct)}, ct), true
		}
		ct := commonType(promote(leftR.ctype), promote(rightR.ctype))
		if op == cabs.OpShl || op == cabs.OpShr {
			ct = promote(leftR.ctype)
		}
		return rvalue(ir.ConstInt{Value: v, Typ: lz.irType(ct)}, ct), true
	}

	if (lFloat || lInt) && (rFloat || rInt) && (lFloat || rFloat) {
		lv, rv := lf.Value, rf.Value
		if lInt {
			lv = float64(lc.Value)
		}
		if rInt {
			rv = float64(rc.Value)
		}
		if isComparisonOp(op) {
			ct := ctypes.Int()
			return rvalue(ir.ConstInt{Value: foldCompareFloat(op, lv, rv), Typ: lz.irType(ct)}, ct), true
		}
		var v float64
		switch op {
		case cabs.OpAdd:
			v = lv + rv
		case cabs.OpSub:
			v = lv - rv
		case cabs.OpMul:
			v = lv * rv
		case cabs.OpDiv:
			if rv == 0 {
				v = 0
			} else {
				v = lv / rv
			}
		default:
			return result{}, false
		}
		ct := commonType(promote(leftR.ctype), promote(rightR.ctype))
		return rvalue(ir.ConstFloat{Value: v, Typ: lz.irType(ct)}, ct), true
	}

	return result{}, false
}

func foldCompareFloat(op cabs.BinaryOp, l, r float64) int64 {
	switch op {
	case cabs.OpLt:
		return boolToInt(l < r)
	case cabs.OpLe:
		return boolToInt(l <= r)
	case cabs.OpGt:
		return boolToInt(l > r)
	case cabs.OpGe:
		return boolToInt(l >= r)
	case cabs.OpEq:
		return boolToInt(l == r)
	default:
		return boolToInt(l != r)
	}
}
