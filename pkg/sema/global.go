package sema

import (
	"github.com/nrkt/minicc/pkg/cabs"
	"github.com/nrkt/minicc/pkg/ctypes"
	"github.com/nrkt/minicc/pkg/diag"
	"github.com/nrkt/minicc/pkg/ir"
	"github.com/nrkt/minicc/pkg/scope"
)

// lowerGlobalDeclGroup lowers one top-level declaration: a tag-only
// declaration, a typedef, a function prototype, or one or more global
// variables with optional constant initializers.
func (lz *Lowerer) lowerGlobalDeclGroup(dg *cabs.DeclGroup) {
	if len(dg.Declarators) == 0 {
		lz.resolveType(dg.BaseType)
		return
	}
	for _, id := range dg.Declarators {
		lz.lowerGlobalDeclarator(&id)
	}
}

func (lz *Lowerer) lowerGlobalDeclarator(id *cabs.InitDeclarator) {
	ctype := lz.resolveType(id.Type)

	if id.IsTypedef {
		lz.typedefs[id.Identifier] = id.Type
		return
	}

	if fnType, ok := ctype.(ctypes.Tfunction); ok {
		if existing, exists := lz.scope.LookupSymbolInCurrentScope(id.Identifier); exists {
			if !ctypes.Equal(existing.CType, fnType) {
				lz.errorf(diag.RedefinitionOfSymbol, id.Pos, "conflicting declaration of %q", id.Identifier)
			}
			return
		}
		irT := lz.irType(ctype)
		lz.scope.DeclareSymbol(id.Identifier, &scope.Symbol{
			Kind:             scope.Function,
			SourceIdentifier: id.Identifier,
			IRName:           id.Identifier,
			CType:            ctype,
			IRType:           irT,
			IRPtr:            ir.Var{Name: id.Identifier, Typ: irT},
		})
		return
	}

	if _, exists := lz.scope.LookupSymbolInCurrentScope(id.Identifier); exists {
		if !id.IsExtern {
			lz.errorf(diag.RedefinitionOfSymbol, id.Pos, "redefinition of %q", id.Identifier)
		}
		return
	}

	irT := lz.irType(ctype)
	addr := ir.Var{Name: id.Identifier, Typ: ir.PtrType{Elem: irT}}
	lz.scope.DeclareSymbol(id.Identifier, &scope.Symbol{
		Kind:             scope.GlobalVar,
		SourceIdentifier: id.Identifier,
		IRName:           id.Identifier,
		CType:            ctype,
		IRType:           irT,
		IRPtr:            addr,
	})

	if id.IsExtern {
		return
	}

	g := &ir.Global{Name: id.Identifier, Type: ir.PtrType{Elem: irT}}
	if id.Initializer != nil {
		var initExpr cabs.Expr
		switch ei := id.Initializer.(type) {
		case cabs.ExprInitializer:
			initExpr = ei.Expr
		case *cabs.ExprInitializer:
			initExpr = ei.Expr
		}
		if initExpr != nil {
			v, ok := lz.evalGlobalConstExpr(initExpr, ctype)
			if !ok {
				lz.errorf(diag.GlobalInitializerNotConstant, id.Pos, "initializer for %q is not a compile-time constant", id.Identifier)
			} else {
				g.Initialized = true
				g.Value = v
			}
		} else {
			lz.errorf(diag.GlobalInitializerNotConstant, id.Pos, "initializer for %q is not a compile-time constant", id.Identifier)
		}
	}
	if !g.Initialized {
		// Tentative definitions are zero-filled.
		if ctypes.IsFloating(ctype) {
			g.Value = ir.ConstFloat{Value: 0, Typ: irT}
		} else {
			g.Value = ir.ConstInt{Value: 0, Typ: irT}
		}
	}
	lz.mod.Globals = append(lz.mod.Globals, g)
}

// evalGlobalConstExpr evaluates e as a compile-time constant suitable for
// a global variable's initializer, without requiring a function builder.
// It covers integer constant folding, a plain floating literal for a
// floating-point global (floating expressions are not folded),
// string-literal globals, and address-of another global; anything else
// is not a constant initializer and the caller reports it.
func (lz *Lowerer) evalGlobalConstExpr(e cabs.Expr, ctype ctypes.Type) (ir.Value, bool) {
	switch ex := e.(type) {
	case *cabs.StringLit:
		arrType := ctypes.Array(ctypes.Char(), int64(len(ex.Value)+1))
		irArr := lz.irType(arrType)
		if _, isArr := ctype.(ctypes.Tarray); isArr {
			return ir.ConstString{Value: ex.Value, Typ: lz.irType(ctype)}, true
		}
		name := lz.mod.NewGlobalName()
		lz.mod.Globals = append(lz.mod.Globals, &ir.Global{
			Name: name, Type: ir.PtrType{Elem: irArr},
			Initialized: true, Value: ir.ConstString{Value: ex.Value, Typ: irArr},
		})
		return ir.Var{Name: name, Typ: ir.PtrType{Elem: lz.irType(ctypes.Char())}}, true
	case *cabs.UnaryExpr:
		if ex.Op == cabs.OpAddrOf {
			if id, ok := ex.Expr.(*cabs.Ident); ok {
				if sym, found := lz.scope.LookupSymbol(id.Name); found && sym.Kind == scope.GlobalVar {
					return sym.IRPtr, true
				}
			}
			return nil, false
		}
	case *cabs.ParenExpr:
		return lz.evalGlobalConstExpr(ex.Expr, ctype)
	}

	if ctypes.IsFloating(ctype) {
		if fl, ok := e.(*cabs.FloatLit); ok {
			return ir.ConstFloat{Value: fl.Value, Typ: lz.irType(ctype)}, true
		}
		return nil, false
	}
	v, ok := foldConstInt(e)
	if !ok {
		return nil, false
	}
	return ir.ConstInt{Value: v, Typ: lz.irType(ctype)}, true
}
