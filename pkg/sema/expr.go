package sema

import (
	"github.com/nrkt/minicc/pkg/cabs"
	"github.com/nrkt/minicc/pkg/ctypes"
	"github.com/nrkt/minicc/pkg/diag"
	"github.com/nrkt/minicc/pkg/ir"
	"github.com/nrkt/minicc/pkg/scope"
)

// lowerExpr lowers one expression, emitting whatever instructions it
// needs into the current function builder and returning the lvalue or
// rvalue result describing it.
func (lz *Lowerer) lowerExpr(e cabs.Expr) result {
	switch ex := e.(type) {
	case *cabs.IntLit:
		ct := intLitType(ex)
		return rvalue(ir.ConstInt{Value: int64(ex.Value), Typ: lz.irType(ct)}, ct)
	case *cabs.FloatLit:
		ct := ctypes.Type(ctypes.Double())
		if ex.IsSingle {
			ct = ctypes.Float()
		}
		return rvalue(ir.ConstFloat{Value: ex.Value, Typ: lz.irType(ct)}, ct)
	case *cabs.CharLit:
		ct := ctypes.Int()
		return rvalue(ir.ConstInt{Value: ex.Value, Typ: lz.irType(ct)}, ct)
	case *cabs.StringLit:
		return lz.lowerStringLit(ex)
	case *cabs.Ident:
		return lz.lowerIdent(ex)
	case *cabs.ParenExpr:
		return lz.lowerExpr(ex.Expr)
	case *cabs.UnaryExpr:
		return lz.lowerUnary(ex)
	case *cabs.SizeofExpr:
		ct := lz.inferType(ex.Expr)
		return lz.sizeofResult(ct)
	case *cabs.SizeofType:
		ct := lz.resolveType(ex.Type)
		return lz.sizeofResult(ct)
	case *cabs.IncDecExpr:
		return lz.lowerIncDec(ex)
	case *cabs.CastExpr:
		ct := lz.resolveType(ex.Type)
		r := lz.lowerExpr(ex.Expr)
		return lz.convertTo(r, ct)
	case *cabs.BinaryExpr:
		if ex.Op == cabs.OpLAnd || ex.Op == cabs.OpLOr {
			return lz.lowerLogical(ex)
		}
		return lz.lowerBinaryArith(ex)
	case *cabs.AssignExpr:
		return lz.lowerAssign(ex)
	case *cabs.CondExpr:
		return lz.lowerCond(ex)
	case *cabs.CallExpr:
		return lz.lowerCall(ex)
	case *cabs.IndexExpr:
		return lz.lowerIndex(ex)
	case *cabs.MemberExpr:
		return lz.lowerMember(ex)
	}
	return errResult()
}

func intLitType(ex *cabs.IntLit) ctypes.Type {
	switch {
	case ex.IsUnsigned && ex.IsLong:
		return ctypes.Tint{Size: ctypes.SizeLong, Sign: ctypes.Unsigned}
	case ex.IsUnsigned:
		return ctypes.Tint{Size: ctypes.SizeInt, Sign: ctypes.Unsigned}
	case ex.IsLong:
		return ctypes.Long()
	default:
		return ctypes.Int()
	}
}

func (lz *Lowerer) sizeofResult(ct ctypes.Type) result {
	sizeT := ctypes.Tint{Size: ctypes.SizeLong, Sign: ctypes.Unsigned}
	sz := lz.arch.SizeOfBytes(lz.irType(ct))
	return rvalue(ir.ConstInt{Value: sz, Typ: lz.irType(sizeT)}, sizeT)
}

func (lz *Lowerer) lowerStringLit(ex *cabs.StringLit) result {
	elemType := ctypes.Char()
	arrType := ctypes.Array(elemType, int64(len(ex.Value)+1))
	irArrType := lz.irType(arrType)
	name := lz.mod.NewGlobalName()
	lz.mod.Globals = append(lz.mod.Globals, &ir.Global{
		Name:        name,
		Type:        ir.PtrType{Elem: irArrType},
		Initialized: true,
		Value:       ir.ConstString{Value: ex.Value, Typ: irArrType},
	})
	decayed := ctypes.Pointer(elemType)
	val := ir.Var{Name: name, Typ: ir.PtrType{Elem: lz.irType(elemType)}}
	return rvalue(val, decayed)
}

func (lz *Lowerer) lowerIdent(ex *cabs.Ident) result {
	sym, ok := lz.scope.LookupSymbol(ex.Name)
	if !ok {
		lz.errorf(diag.UseOfUndeclaredIdentifier, ex.Pos, "use of undeclared identifier %q", ex.Name)
		return errResult()
	}
	if sym.Kind == scope.Function {
		return rvalue(sym.IRPtr, sym.CType)
	}
	return lvalue(sym.IRPtr, sym.CType)
}

func (lz *Lowerer) lowerUnary(ex *cabs.UnaryExpr) result {
	switch ex.Op {
	case cabs.OpAddrOf:
		r := lz.lowerExpr(ex.Expr)
		if r.isErr || !r.isLValue {
			lz.errorf(diag.InvalidAssignmentTarget, ex.Pos, "cannot take the address of this expression")
			return errResult()
		}
		return rvalue(r.addr, ctypes.Pointer(r.ctype))
	case cabs.OpDeref:
		r := lz.toRValue(lz.lowerExpr(ex.Expr))
		if r.isErr {
			return errResult()
		}
		ptr, ok := r.ctype.(ctypes.Tpointer)
		if !ok {
			lz.errorf(diag.UnaryIndirectionOperandNotPtrType, ex.Pos, "indirection requires a pointer operand, got %s", r.ctype)
			return errResult()
		}
		return lvalue(r.val, ptr.Elem)
	}

	r := lz.toRValue(lz.lowerExpr(ex.Expr))
	if r.isErr {
		return errResult()
	}
	switch ex.Op {
	case cabs.OpNeg, cabs.OpPos:
		if !ctypes.IsArithmetic(r.ctype) {
			lz.errorf(diag.InvalidBinaryExpressionOperands, ex.Pos, "unary %s requires an arithmetic operand, got %s", ex.Op, r.ctype)
			return errResult()
		}
		ct := promote(r.ctype)
		conv := lz.convertTo(r, ct)
		if ex.Op == cabs.OpPos {
			return conv
		}
		irT := lz.irType(ct)
		if c, isConst := conv.val.(ir.ConstInt); isConst {
			return rvalue(ir.ConstInt{Value: -c.Value, Typ: irT}, ct)
		}
		if c, isConst := conv.val.(ir.ConstFloat); isConst {
			return rvalue(ir.ConstFloat{Value: -c.Value, Typ: irT}, ct)
		}
		out := lz.b.BuildBinary(ir.OpSub, zeroConst(irT), conv.val, lz.b.NewTemp(), irT)
		return rvalue(out, ct)
	case cabs.OpLNot:
		cond, ok := lz.toBool(r)
		if !ok {
			lz.errorf(diag.InvalidUnaryNotOperandType, ex.Pos, "logical not requires a scalar operand, got %s", r.ctype)
			return errResult()
		}
		negated := lz.b.BuildBinary(ir.OpEq, cond, zeroConst(ir.Bool), lz.b.NewTemp(), ir.Bool)
		ct := ctypes.Int()
		widened := lz.b.BuildUnary(ir.OpExt, negated, lz.b.NewTemp(), lz.irType(ct))
		return rvalue(widened, ct)
	case cabs.OpBitNot:
		if !ctypes.IsInteger(r.ctype) {
			lz.errorf(diag.InvalidBinaryExpressionOperands, ex.Pos, "bitwise not requires an integer operand, got %s", r.ctype)
			return errResult()
		}
		ct := promote(r.ctype)
		conv := lz.convertTo(r, ct)
		if c, isConst := conv.val.(ir.ConstInt); isConst {
			return rvalue(ir.ConstInt{Value: ^c.Value, Typ: lz.irType(ct)}, ct)
		}
		out := lz.b.BuildUnary(ir.OpNot, conv.val, lz.b.NewTemp(), lz.irType(ct))
		return rvalue(out, ct)
	}
	return errResult()
}

func (lz *Lowerer) lowerIncDec(ex *cabs.IncDecExpr) result {
	r := lz.lowerExpr(ex.Expr)
	if r.isErr || !r.isLValue {
		lz.errorf(diag.CannotIncrementDecrementType, ex.Pos, "increment/decrement requires an assignable operand")
		return errResult()
	}
	ct := r.ctype
	if !ctypes.IsArithmetic(ct) && !ctypes.IsPointer(ct) {
		lz.errorf(diag.CannotIncrementDecrementType, ex.Pos, "cannot increment/decrement %s", ct)
		return errResult()
	}
	irT := lz.irType(ct)
	old := lz.b.BuildLoad(r.addr, lz.b.NewTemp(), irT)
	oldResult := rvalue(old, ct)

	var newVal ir.Value
	if ptr, ok := ct.(ctypes.Tpointer); ok {
		step := int64(1)
		if !ex.Inc {
			step = -1
		}
		idx := ir.ConstInt{Value: step, Typ: lz.arch.PtrIntType}
		newVal = lz.b.BuildGetArrayElementPtr(old, idx, lz.b.NewTemp(), ir.PtrType{Elem: lz.irType(ptr.Elem)})
	} else {
		one := ir.ConstInt{Value: 1, Typ: irT}
		op := ir.OpAdd
		if !ex.Inc {
			op = ir.OpSub
		}
		newVal = lz.b.BuildBinary(op, old, one, lz.b.NewTemp(), irT)
	}
	lz.b.BuildStore(r.addr, newVal)
	if ex.Prefix {
		return rvalue(newVal, ct)
	}
	return oldResult
}

func (lz *Lowerer) lowerLogical(ex *cabs.BinaryExpr) result {
	ct := ctypes.Int()
	irT := lz.irType(ct)
	slot := lz.b.InsertAlloca(irT, lz.b.NewTemp())

	leftR := lz.lowerExpr(ex.Left)
	lCond, ok := lz.toBool(leftR)
	if !ok {
		lz.errorf(diag.InvalidLogicalBinaryOperandType, ex.Pos, "operand of %s is not scalar", ex.Op)
		return errResult()
	}

	// The branch target is taken when the left operand is false; the true
	// path falls through.
	elseLabel := lz.b.NewLabel()
	mergeLabel := lz.b.NewLabel()

	if ex.Op == cabs.OpLAnd {
		lz.b.BuildBrCond(lCond, elseLabel)
		rightR := lz.lowerExpr(ex.Right)
		rCond, ok2 := lz.toBool(rightR)
		if !ok2 {
			lz.errorf(diag.InvalidLogicalBinaryOperandType, ex.Pos, "operand of %s is not scalar", ex.Op)
			return errResult()
		}
		rInt := lz.b.BuildUnary(ir.OpExt, rCond, lz.b.NewTemp(), irT)
		lz.b.BuildStore(slot, rInt)
		lz.b.BuildBr(mergeLabel)
		lz.b.BuildNop(elseLabel)
		lz.b.BuildStore(slot, ir.ConstInt{Value: 0, Typ: irT})
		lz.b.BuildNop(mergeLabel)
	} else {
		lz.b.BuildBrCond(lCond, elseLabel)
		lz.b.BuildStore(slot, ir.ConstInt{Value: 1, Typ: irT})
		lz.b.BuildBr(mergeLabel)
		lz.b.BuildNop(elseLabel)
		rightR := lz.lowerExpr(ex.Right)
		rCond, ok2 := lz.toBool(rightR)
		if !ok2 {
			lz.errorf(diag.InvalidLogicalBinaryOperandType, ex.Pos, "operand of %s is not scalar", ex.Op)
			return errResult()
		}
		rInt := lz.b.BuildUnary(ir.OpExt, rCond, lz.b.NewTemp(), irT)
		lz.b.BuildStore(slot, rInt)
		lz.b.BuildNop(mergeLabel)
	}

	loaded := lz.b.BuildLoad(slot, lz.b.NewTemp(), irT)
	return rvalue(loaded, ct)
}

func (lz *Lowerer) lowerBinaryArith(ex *cabs.BinaryExpr) result {
	leftR := lz.toRValue(lz.lowerExpr(ex.Left))
	rightR := lz.toRValue(lz.lowerExpr(ex.Right))
	if leftR.isErr || rightR.isErr {
		return errResult()
	}

	_, lIsPtr := leftR.ctype.(ctypes.Tpointer)
	_, rIsPtr := rightR.ctype.(ctypes.Tpointer)

	if (lIsPtr || rIsPtr) && isComparisonOp(ex.Op) {
		return lz.lowerPointerComparison(ex, leftR, rightR)
	}
	if ex.Op == cabs.OpAdd && (lIsPtr || rIsPtr) {
		return lz.lowerPointerAdd(ex, leftR, rightR)
	}
	if ex.Op == cabs.OpSub && (lIsPtr || rIsPtr) {
		return lz.lowerPointerSub(ex, leftR, rightR)
	}

	if !ctypes.IsArithmetic(leftR.ctype) || !ctypes.IsArithmetic(rightR.ctype) {
		lz.errorf(diag.InvalidBinaryExpressionOperands, ex.Pos, "invalid operands to %s: %s and %s", ex.Op, leftR.ctype, rightR.ctype)
		return errResult()
	}

	if (isBitwiseOp(ex.Op) || ex.Op == cabs.OpMod) && (!ctypes.IsInteger(leftR.ctype) || !ctypes.IsInteger(rightR.ctype)) {
		lz.errorf(diag.InvalidBinaryExpressionOperands, ex.Pos, "operator %s requires integer operands", ex.Op)
		return errResult()
	}

	if folded, ok := lz.foldBinaryOperands(ex.Op, leftR, rightR); ok {
		return folded
	}

	promL := promote(leftR.ctype)
	promR := promote(rightR.ctype)

	if ex.Op == cabs.OpShl || ex.Op == cabs.OpShr {
		leftConv := lz.convertTo(leftR, promL)
		rightConv := lz.convertTo(rightR, promR)
		irT := lz.irType(promL)
		op := ir.OpShl
		if ex.Op == cabs.OpShr {
			op = ir.OpShr
		}
		out := lz.b.BuildBinary(op, leftConv.val, rightConv.val, lz.b.NewTemp(), irT)
		return rvalue(out, promL)
	}

	common := commonType(promL, promR)
	leftConv := lz.convertTo(leftR, common)
	rightConv := lz.convertTo(rightR, common)
	irT := lz.irType(common)

	if isComparisonOp(ex.Op) {
		op := cmpOpcode(ex.Op)
		cmp := lz.b.BuildBinary(op, leftConv.val, rightConv.val, lz.b.NewTemp(), ir.Bool)
		ct := ctypes.Int()
		widened := lz.b.BuildUnary(ir.OpExt, cmp, lz.b.NewTemp(), lz.irType(ct))
		return rvalue(widened, ct)
	}

	op, ok := arithOpcode(ex.Op)
	if !ok {
		lz.errorf(diag.InvalidBinaryExpressionOperands, ex.Pos, "unsupported operator %s", ex.Op)
		return errResult()
	}
	out := lz.b.BuildBinary(op, leftConv.val, rightConv.val, lz.b.NewTemp(), irT)
	return rvalue(out, common)
}

func (lz *Lowerer) lowerPointerComparison(ex *cabs.BinaryExpr, leftR, rightR result) result {
	_, lIsPtr := leftR.ctype.(ctypes.Tpointer)
	_, rIsPtr := rightR.ctype.(ctypes.Tpointer)
	if lIsPtr != rIsPtr && !(ctypes.IsInteger(leftR.ctype) || ctypes.IsInteger(rightR.ctype)) {
		lz.errorf(diag.InvalidBinaryExpressionOperands, ex.Pos, "cannot compare %s with %s", leftR.ctype, rightR.ctype)
		return errResult()
	}
	op := cmpOpcode(ex.Op)
	cmp := lz.b.BuildBinary(op, leftR.val, rightR.val, lz.b.NewTemp(), ir.Bool)
	ct := ctypes.Int()
	widened := lz.b.BuildUnary(ir.OpExt, cmp, lz.b.NewTemp(), lz.irType(ct))
	return rvalue(widened, ct)
}

func (lz *Lowerer) lowerPointerAdd(ex *cabs.BinaryExpr, leftR, rightR result) result {
	lp, lIsPtr := leftR.ctype.(ctypes.Tpointer)
	rp, rIsPtr := rightR.ctype.(ctypes.Tpointer)
	if lIsPtr && rIsPtr {
		lz.errorf(diag.InvalidBinaryExpressionOperands, ex.Pos, "cannot add two pointers")
		return errResult()
	}
	if lIsPtr {
		if !ctypes.IsInteger(rightR.ctype) {
			lz.errorf(diag.InvalidBinaryExpressionOperands, ex.Pos, "pointer arithmetic requires an integer offset")
			return errResult()
		}
		ptr := lz.b.BuildGetArrayElementPtr(leftR.val, rightR.val, lz.b.NewTemp(), ir.PtrType{Elem: lz.irType(lp.Elem)})
		return rvalue(ptr, leftR.ctype)
	}
	if !ctypes.IsInteger(leftR.ctype) {
		lz.errorf(diag.InvalidBinaryExpressionOperands, ex.Pos, "pointer arithmetic requires an integer offset")
		return errResult()
	}
	ptr := lz.b.BuildGetArrayElementPtr(rightR.val, leftR.val, lz.b.NewTemp(), ir.PtrType{Elem: lz.irType(rp.Elem)})
	return rvalue(ptr, rightR.ctype)
}

func (lz *Lowerer) lowerPointerSub(ex *cabs.BinaryExpr, leftR, rightR result) result {
	lp, lIsPtr := leftR.ctype.(ctypes.Tpointer)
	_, rIsPtr := rightR.ctype.(ctypes.Tpointer)
	if lIsPtr && rIsPtr {
		li := lz.b.BuildUnary(ir.OpPtoI, leftR.val, lz.b.NewTemp(), lz.arch.PtrIntType)
		ri := lz.b.BuildUnary(ir.OpPtoI, rightR.val, lz.b.NewTemp(), lz.arch.PtrIntType)
		diffBytes := lz.b.BuildBinary(ir.OpSub, li, ri, lz.b.NewTemp(), lz.arch.PtrIntType)
		elemSize := lz.arch.SizeOfBytes(lz.irType(lp.Elem))
		if elemSize == 0 {
			elemSize = 1
		}
		q := lz.b.BuildBinary(ir.OpDiv, diffBytes, ir.ConstInt{Value: elemSize, Typ: lz.arch.PtrIntType}, lz.b.NewTemp(), lz.arch.PtrIntType)
		ct := ctypes.Long()
		return lz.convertTo(rvalue(q, ct), ct)
	}
	if lIsPtr {
		if !ctypes.IsInteger(rightR.ctype) {
			lz.errorf(diag.InvalidBinaryExpressionOperands, ex.Pos, "pointer arithmetic requires an integer offset")
			return errResult()
		}
		irOffT := lz.irType(rightR.ctype)
		negIdx := lz.b.BuildBinary(ir.OpSub, zeroConst(irOffT), rightR.val, lz.b.NewTemp(), irOffT)
		ptr := lz.b.BuildGetArrayElementPtr(leftR.val, negIdx, lz.b.NewTemp(), ir.PtrType{Elem: lz.irType(lp.Elem)})
		return rvalue(ptr, leftR.ctype)
	}
	lz.errorf(diag.InvalidBinaryExpressionOperands, ex.Pos, "cannot subtract a pointer from an integer")
	return errResult()
}

func (lz *Lowerer) lowerAssign(ex *cabs.AssignExpr) result {
	lhsR := lz.lowerExpr(ex.Left)
	if lhsR.isErr || !lhsR.isLValue {
		lz.errorf(diag.InvalidAssignmentTarget, ex.Pos, "left side of assignment is not assignable")
		return errResult()
	}
	if lhsR.ctype.Const() {
		lz.errorf(diag.InvalidAssignmentTarget, ex.Pos, "cannot assign to const-qualified %s", lhsR.ctype)
		return errResult()
	}
	rhsR := lz.lowerExpr(ex.Right)
	converted := lz.convertTo(rhsR, lhsR.ctype)
	if converted.isErr {
		return errResult()
	}
	lz.b.BuildStore(lhsR.addr, converted.val)
	return rvalue(converted.val, lhsR.ctype)
}

func (lz *Lowerer) lowerCond(ex *cabs.CondExpr) result {
	if v, ok := foldConstInt(ex.Cond); ok {
		return lz.lowerConstCond(ex, v != 0)
	}

	condR := lz.lowerExpr(ex.Cond)
	cond, ok := lz.toBool(condR)
	if !ok {
		lz.errorf(diag.InvalidTernaryConditionType, ex.Pos, "ternary condition is not scalar")
		return errResult()
	}

	thenCT := lz.inferType(ex.Then)
	elseCT := lz.inferType(ex.Else)
	common := lz.unifyTernaryTypes(thenCT, elseCT, ex.Pos)
	if common == nil {
		return errResult()
	}
	irT := lz.irType(common)
	slot := lz.b.InsertAlloca(irT, lz.b.NewTemp())

	falseLabel := lz.b.NewLabel()
	mergeLabel := lz.b.NewLabel()
	lz.b.BuildBrCond(cond, falseLabel)

	thenR := lz.lowerExpr(ex.Then)
	thenConv := lz.convertTo(thenR, common)
	if !thenConv.isErr {
		lz.b.BuildStore(slot, thenConv.val)
	}
	lz.b.BuildBr(mergeLabel)

	lz.b.BuildNop(falseLabel)
	elseR := lz.lowerExpr(ex.Else)
	elseConv := lz.convertTo(elseR, common)
	if !elseConv.isErr {
		lz.b.BuildStore(slot, elseConv.val)
	}
	lz.b.BuildNop(mergeLabel)

	loaded := lz.b.BuildLoad(slot, lz.b.NewTemp(), irT)
	return rvalue(loaded, common)
}

// lowerConstCond implements the constant-fold-and-discard ternary: both
// arms are lowered (so type errors in either arm are still reported),
// then the unchosen arm's instructions are excised with ClearAfter. When
// the else arm is chosen, everything after the mark is cleared and the
// else arm is lowered a second time.
func (lz *Lowerer) lowerConstCond(ex *cabs.CondExpr, takeThen bool) result {
	mark := lz.b.GetPosition()
	thenR := lz.lowerExpr(ex.Then)
	thenMark := lz.b.GetPosition()
	elseR := lz.lowerExpr(ex.Else)
	if thenR.isErr || elseR.isErr {
		lz.b.ClearAfter(mark)
		return errResult()
	}
	common := lz.unifyTernaryTypes(thenR.ctype, elseR.ctype, ex.Pos)
	if common == nil {
		lz.b.ClearAfter(mark)
		return errResult()
	}
	if takeThen {
		lz.b.ClearAfter(thenMark)
		return lz.convertTo(thenR, common)
	}
	lz.b.ClearAfter(mark)
	elseR2 := lz.lowerExpr(ex.Else)
	return lz.convertTo(elseR2, common)
}

func (lz *Lowerer) unifyTernaryTypes(a, b ctypes.Type, pos cabs.Pos) ctypes.Type {
	if a == nil || b == nil {
		return nil
	}
	if ctypes.Equal(a, b) {
		return a
	}
	if ctypes.IsArithmetic(a) && ctypes.IsArithmetic(b) {
		return commonType(promote(a), promote(b))
	}
	if ctypes.IsPointer(a) {
		return a
	}
	if ctypes.IsPointer(b) {
		return b
	}
	lz.errorf(diag.InvalidTernaryExpressionOperands, pos, "incompatible ternary operand types %s and %s", a, b)
	return nil
}

func (lz *Lowerer) lowerCall(ex *cabs.CallExpr) result {
	ident, ok := ex.Callee.(*cabs.Ident)
	if !ok {
		lz.errorf(diag.CallTargetNotFunction, ex.Pos, "call target is not a function")
		return errResult()
	}
	sym, found := lz.scope.LookupSymbol(ident.Name)
	if !found || sym.Kind != scope.Function {
		lz.errorf(diag.CallTargetNotFunction, ex.Pos, "%q is not a function", ident.Name)
		return errResult()
	}
	fnType, ok := sym.CType.(ctypes.Tfunction)
	if !ok {
		lz.errorf(diag.CallTargetNotFunction, ex.Pos, "%q is not a function", ident.Name)
		return errResult()
	}
	if len(ex.Args) < len(fnType.Params) || (!fnType.Variadic && len(ex.Args) != len(fnType.Params)) {
		lz.errorf(diag.CallArgumentCountMismatch, ex.Pos, "%q expects %d argument(s), got %d", ident.Name, len(fnType.Params), len(ex.Args))
		return errResult()
	}

	args := make([]ir.Value, 0, len(ex.Args))
	for i, a := range ex.Args {
		r := lz.lowerExpr(a)
		if !r.isErr {
			if _, isArr := r.ctype.(ctypes.Tarray); isArr {
				if base, elem, ok := lz.decayToPointer(r); ok {
					r = rvalue(base, ctypes.Pointer(elem))
				}
			}
		}
		if i < len(fnType.Params) {
			r = lz.convertTo(r, fnType.Params[i].Type)
		} else {
			r = lz.toRValue(r)
			if !r.isErr {
				if ctypes.IsFloating(r.ctype) {
					r = lz.convertTo(r, ctypes.Double())
				} else {
					r = lz.convertTo(r, promote(r.ctype))
				}
			}
		}
		if r.isErr {
			return errResult()
		}
		args = append(args, r.val)
	}

	var resultType ir.Type
	if !ctypes.IsVoid(fnType.Return) {
		resultType = lz.irType(fnType.Return)
	}
	res := lz.b.BuildCall(sym.IRName, args, fnType.Variadic, lz.b.NewTemp(), resultType)
	if res == nil {
		return rvalue(nil, ctypes.Void())
	}
	return rvalue(res, fnType.Return)
}

func (lz *Lowerer) lowerIndex(ex *cabs.IndexExpr) result {
	arrR := lz.lowerExpr(ex.Array)
	idxR := lz.toRValue(lz.lowerExpr(ex.Index))
	if arrR.isErr || idxR.isErr {
		return errResult()
	}
	base, elemCType, ok := lz.decayToPointer(arrR)
	if !ok {
		lz.errorf(diag.InvalidSubscriptTarget, ex.Pos, "subscripted value is not an array or pointer")
		return errResult()
	}
	if !ctypes.IsInteger(idxR.ctype) {
		lz.errorf(diag.InvalidSubscriptType, ex.Pos, "array subscript is not an integer")
		return errResult()
	}
	idxConv := lz.convertTo(idxR, ctypes.Long())
	ptr := lz.b.BuildGetArrayElementPtr(base, idxConv.val, lz.b.NewTemp(), ir.PtrType{Elem: lz.irType(elemCType)})
	return lvalue(ptr, elemCType)
}

// decayToPointer reduces an array or pointer result to the IR pointer
// value addressing its first element, plus the element's C type.
func (lz *Lowerer) decayToPointer(r result) (ir.Value, ctypes.Type, bool) {
	if r.isLValue {
		if arr, ok := r.ctype.(ctypes.Tarray); ok {
			return r.addr, arr.Elem, true
		}
		loaded := lz.toRValue(r)
		if ptr, ok := loaded.ctype.(ctypes.Tpointer); ok {
			return loaded.val, ptr.Elem, true
		}
		return nil, nil, false
	}
	if ptr, ok := r.ctype.(ctypes.Tpointer); ok {
		return r.val, ptr.Elem, true
	}
	if arr, ok := r.ctype.(ctypes.Tarray); ok {
		return r.val, arr.Elem, true
	}
	return nil, nil, false
}

func (lz *Lowerer) lowerMember(ex *cabs.MemberExpr) result {
	targetR := lz.lowerExpr(ex.Target)
	if targetR.isErr {
		return errResult()
	}

	var structCType ctypes.Type
	var baseAddr ir.Value
	if ex.IsArrow {
		rv := lz.toRValue(targetR)
		ptr, ok := rv.ctype.(ctypes.Tpointer)
		if !ok {
			lz.errorf(diag.InvalidMemberAccessTarget, ex.Pos, "member reference requires a pointer to struct/union, got %s", rv.ctype)
			return errResult()
		}
		structCType = ptr.Elem
		baseAddr = rv.val
	} else {
		if !targetR.isLValue {
			lz.errorf(diag.InvalidMemberAccessTarget, ex.Pos, "member reference base is not addressable")
			return errResult()
		}
		structCType = targetR.ctype
		baseAddr = targetR.addr
	}

	st, ok := structCType.(ctypes.Tstruct)
	if ok && !st.HasBody {
		// A field typed against a then-incomplete tag (a recursive struct's
		// self-pointer) carries the incomplete snapshot; resolve the
		// completed tag through the scope chain.
		if tag, found := lz.scope.LookupTag(st.Name); found && !tag.Incomplete() {
			if full, isStruct := tag.CType.(ctypes.Tstruct); isStruct && full.UID == st.UID {
				st = full
			}
		}
	}
	if !ok || !st.HasBody {
		lz.errorf(diag.InvalidMemberAccessTarget, ex.Pos, "member reference base is not a struct/union, got %s", structCType)
		return errResult()
	}
	field, ok := st.FieldByName(ex.Name)
	if !ok {
		lz.errorf(diag.InvalidStructFieldReference, ex.Pos, "%s has no member named %q", st, ex.Name)
		return errResult()
	}

	fieldIdx := field.DeclaredIndex
	if irSt, ok := lz.mod.TypeMap[st.UID]; ok {
		if realIdx, found := irSt.FieldMap[ex.Name]; found {
			fieldIdx = realIdx
		}
	}
	ptr := lz.b.BuildGetStructMemberPtr(baseAddr, fieldIdx, lz.b.NewTemp(), ir.PtrType{Elem: lz.irType(field.Type)})
	return lvalue(ptr, field.Type)
}

func isComparisonOp(op cabs.BinaryOp) bool {
	switch op {
	case cabs.OpLt, cabs.OpLe, cabs.OpGt, cabs.OpGe, cabs.OpEq, cabs.OpNe:
		return true
	}
	return false
}

func isBitwiseOp(op cabs.BinaryOp) bool {
	switch op {
	case cabs.OpBitAnd, cabs.OpBitOr, cabs.OpBitXor, cabs.OpShl, cabs.OpShr:
		return true
	}
	return false
}

func cmpOpcode(op cabs.BinaryOp) ir.Opcode {
	switch op {
	case cabs.OpLt:
		return ir.OpLt
	case cabs.OpLe:
		return ir.OpLe
	case cabs.OpGt:
		return ir.OpGt
	case cabs.OpGe:
		return ir.OpGe
	case cabs.OpEq:
		return ir.OpEq
	default:
		return ir.OpNe
	}
}

func arithOpcode(op cabs.BinaryOp) (ir.Opcode, bool) {
	switch op {
	case cabs.OpAdd:
		return ir.OpAdd, true
	case cabs.OpSub:
		return ir.OpSub, true
	case cabs.OpMul:
		return ir.OpMul, true
	case cabs.OpDiv:
		return ir.OpDiv, true
	case cabs.OpMod:
		return ir.OpMod, true
	case cabs.OpBitAnd:
		return ir.OpAnd, true
	case cabs.OpBitOr:
		return ir.OpOr, true
	case cabs.OpBitXor:
		return ir.OpXor, true
	default:
		return 0, false
	}
}
