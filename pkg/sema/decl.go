package sema

import (
	"github.com/nrkt/minicc/pkg/cabs"
	"github.com/nrkt/minicc/pkg/ctypes"
	"github.com/nrkt/minicc/pkg/diag"
	"github.com/nrkt/minicc/pkg/ir"
	"github.com/nrkt/minicc/pkg/scope"
)

// lowerLocalDeclGroup lowers one block-scope declaration: a tag-only
// declaration (`struct Foo { ... };`), a typedef, or one or more
// identifiers each getting a stack slot via InsertAlloca and, if present,
// an initializer.
func (lz *Lowerer) lowerLocalDeclGroup(dg *cabs.DeclGroup) {
	if len(dg.Declarators) == 0 {
		lz.resolveType(dg.BaseType)
		return
	}
	for _, id := range dg.Declarators {
		lz.lowerLocalDeclarator(&id)
	}
}

func (lz *Lowerer) lowerLocalDeclarator(id *cabs.InitDeclarator) {
	ctype := lz.resolveType(id.Type)

	if id.IsTypedef {
		lz.typedefs[id.Identifier] = id.Type
		return
	}

	if _, exists := lz.scope.LookupSymbolInCurrentScope(id.Identifier); exists {
		lz.errorf(diag.RedefinitionOfSymbol, id.Pos, "redefinition of %q", id.Identifier)
		return
	}

	irT := lz.irType(ctype)
	addr := lz.b.InsertAlloca(irT, lz.b.NewTemp())
	lz.scope.DeclareSymbol(id.Identifier, &scope.Symbol{
		Kind:             scope.LocalVar,
		SourceIdentifier: id.Identifier,
		IRName:           addr.Name,
		CType:            ctype,
		IRType:           irT,
		IRPtr:            addr,
	})

	if id.Initializer != nil {
		lz.lowerInitializer(addr, ctype, id.Pos, id.Initializer)
	}
}

// lowerInitializer stores init's value(s) through addr, recursing through
// nested brace-enclosed initializers per the target type's shape.
func (lz *Lowerer) lowerInitializer(addr ir.Value, ctype ctypes.Type, pos cabs.Pos, init cabs.Initializer) {
	switch in := init.(type) {
	case cabs.ExprInitializer:
		lz.storeExprInitializer(addr, ctype, pos, in.Expr)
	case *cabs.ExprInitializer:
		lz.storeExprInitializer(addr, ctype, pos, in.Expr)
	case cabs.ListInitializer:
		lz.lowerListInitializer(addr, ctype, &in)
	case *cabs.ListInitializer:
		lz.lowerListInitializer(addr, ctype, in)
	}
}

func (lz *Lowerer) storeExprInitializer(addr ir.Value, ctype ctypes.Type, pos cabs.Pos, expr cabs.Expr) {
	r := lz.lowerExpr(expr)
	conv := lz.convertTo(r, ctype)
	if conv.isErr {
		lz.errorf(diag.InvalidInitializerType, pos, "cannot initialize %s from this expression", ctype)
		return
	}
	lz.b.BuildStore(addr, conv.val)
}

func (lz *Lowerer) lowerListInitializer(addr ir.Value, ctype ctypes.Type, li *cabs.ListInitializer) {
	switch ct := ctype.(type) {
	case ctypes.Tarray:
		elemIRT := lz.irType(ct.Elem)
		elems := li.Elements
		// Excess elements beyond the declared length are dropped.
		if ct.HasSize && int64(len(elems)) > ct.Size {
			elems = elems[:ct.Size]
		}
		for i, el := range elems {
			idx := ir.ConstInt{Value: int64(i), Typ: lz.arch.PtrIntType}
			elAddr := lz.b.BuildGetArrayElementPtr(addr, idx, lz.b.NewTemp(), ir.PtrType{Elem: elemIRT})
			lz.lowerInitializer(elAddr, ct.Elem, li.Pos, el)
		}
	case ctypes.Tstruct:
		irSt, hasIRSt := lz.mod.TypeMap[ct.UID]
		for i, el := range li.Elements {
			if i >= len(ct.Fields) {
				break
			}
			f := ct.Fields[i]
			fieldIdx := f.DeclaredIndex
			if hasIRSt {
				if realIdx, found := irSt.FieldMap[f.Name]; found {
					fieldIdx = realIdx
				}
			}
			fAddr := lz.b.BuildGetStructMemberPtr(addr, fieldIdx, lz.b.NewTemp(), ir.PtrType{Elem: lz.irType(f.Type)})
			lz.lowerInitializer(fAddr, f.Type, li.Pos, el)
		}
	default:
		if len(li.Elements) > 0 {
			lz.lowerInitializer(addr, ctype, li.Pos, li.Elements[0])
		}
	}
}
