package sema

import (
	"github.com/nrkt/minicc/pkg/cabs"
	"github.com/nrkt/minicc/pkg/ctypes"
	"github.com/nrkt/minicc/pkg/scope"
)

// inferType computes an expression's static C type without emitting any
// IR or reporting diagnostics — used where a type is needed before a
// value can be (e.g. choosing a ternary's merge-slot type, or sizeof's
// operand, which must not evaluate its argument). It mirrors lowerExpr's
// typing rules and never touches the builder. It reports no diagnostics
// of its own, except that a cast's type name goes through resolveType,
// which reports an undeclared typedef name; an unresolvable sub-expression types as int rather
// than failing, since the real lowering pass (run alongside) is what
// reports the actual error.
func (lz *Lowerer) inferType(e cabs.Expr) ctypes.Type {
	switch ex := e.(type) {
	case *cabs.IntLit:
		return intLitType(ex)
	case *cabs.FloatLit:
		if ex.IsSingle {
			return ctypes.Float()
		}
		return ctypes.Double()
	case *cabs.CharLit:
		return ctypes.Int()
	case *cabs.StringLit:
		return ctypes.Pointer(ctypes.Char())
	case *cabs.Ident:
		if sym, ok := lz.scope.LookupSymbol(ex.Name); ok {
			return sym.CType
		}
		return ctypes.Int()
	case *cabs.ParenExpr:
		return lz.inferType(ex.Expr)
	case *cabs.UnaryExpr:
		switch ex.Op {
		case cabs.OpAddrOf:
			return ctypes.Pointer(lz.inferType(ex.Expr))
		case cabs.OpDeref:
			if ptr, ok := lz.inferType(ex.Expr).(ctypes.Tpointer); ok {
				return ptr.Elem
			}
			return ctypes.Int()
		case cabs.OpLNot:
			return ctypes.Int()
		default:
			return promote(lz.inferType(ex.Expr))
		}
	case *cabs.SizeofExpr, *cabs.SizeofType:
		return ctypes.Tint{Size: ctypes.SizeLong, Sign: ctypes.Unsigned}
	case *cabs.IncDecExpr:
		return lz.inferType(ex.Expr)
	case *cabs.CastExpr:
		return lz.resolveType(ex.Type)
	case *cabs.BinaryExpr:
		return lz.inferBinaryType(ex)
	case *cabs.AssignExpr:
		return lz.inferType(ex.Left)
	case *cabs.CondExpr:
		t := lz.inferType(ex.Then)
		e2 := lz.inferType(ex.Else)
		if ctypes.IsArithmetic(t) && ctypes.IsArithmetic(e2) {
			return commonType(promote(t), promote(e2))
		}
		if ctypes.IsPointer(t) {
			return t
		}
		return e2
	case *cabs.CallExpr:
		if ident, ok := ex.Callee.(*cabs.Ident); ok {
			if sym, ok := lz.scope.LookupSymbol(ident.Name); ok && sym.Kind == scope.Function {
				if fn, ok := sym.CType.(ctypes.Tfunction); ok {
					return fn.Return
				}
			}
		}
		return ctypes.Int()
	case *cabs.IndexExpr:
		switch at := lz.inferType(ex.Array).(type) {
		case ctypes.Tarray:
			return at.Elem
		case ctypes.Tpointer:
			return at.Elem
		}
		return ctypes.Int()
	case *cabs.MemberExpr:
		base := lz.inferType(ex.Target)
		if ex.IsArrow {
			if ptr, ok := base.(ctypes.Tpointer); ok {
				base = ptr.Elem
			}
		}
		if st, ok := base.(ctypes.Tstruct); ok {
			if f, ok := st.FieldByName(ex.Name); ok {
				return f.Type
			}
		}
		return ctypes.Int()
	}
	return ctypes.Int()
}

func (lz *Lowerer) inferBinaryType(ex *cabs.BinaryExpr) ctypes.Type {
	if isComparisonOp(ex.Op) || ex.Op == cabs.OpLAnd || ex.Op == cabs.OpLOr {
		return ctypes.Int()
	}
	l := lz.inferType(ex.Left)
	r := lz.inferType(ex.Right)
	if ex.Op == cabs.OpAdd || ex.Op == cabs.OpSub {
		if lp, ok := l.(ctypes.Tpointer); ok {
			if ex.Op == cabs.OpSub {
				if _, ok := r.(ctypes.Tpointer); ok {
					return ctypes.Long()
				}
			}
			return lp
		}
		if rp, ok := r.(ctypes.Tpointer); ok && ex.Op == cabs.OpAdd {
			return rp
		}
	}
	if ex.Op == cabs.OpShl || ex.Op == cabs.OpShr {
		return promote(l)
	}
	return commonType(promote(l), promote(r))
}
