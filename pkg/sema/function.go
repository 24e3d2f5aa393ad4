package sema

import (
	"github.com/nrkt/minicc/pkg/cabs"
	"github.com/nrkt/minicc/pkg/ctypes"
	"github.com/nrkt/minicc/pkg/diag"
	"github.com/nrkt/minicc/pkg/ir"
	"github.com/nrkt/minicc/pkg/scope"
)

// lowerFunDef lowers one function definition: its signature is declared
// (or checked against a prior prototype) in the module scope, its
// parameters get stack slots like any other local, its body is lowered
// statement by statement, and a fallthrough return is synthesized if
// control can run off the end without one.
func (lz *Lowerer) lowerFunDef(fd *cabs.FunDef) {
	fnType, ok := lz.resolveType(fd.Type).(ctypes.Tfunction)
	if !ok {
		return
	}
	irFnType, ok := lz.irType(fnType).(ir.FuncType)
	if !ok {
		return
	}

	if lz.funcDefs[fd.Name] {
		lz.errorf(diag.RedefinitionOfSymbol, fd.Pos, "redefinition of %q", fd.Name)
		return
	}
	if existing, exists := lz.scope.LookupSymbolInCurrentScope(fd.Name); exists {
		if !ctypes.Equal(existing.CType, fnType) {
			lz.errorf(diag.RedefinitionOfSymbol, fd.Pos, "conflicting declaration of %q", fd.Name)
			return
		}
	} else {
		lz.scope.DeclareSymbol(fd.Name, &scope.Symbol{
			Kind:             scope.Function,
			SourceIdentifier: fd.Name,
			IRName:           fd.Name,
			CType:            fnType,
			IRType:           irFnType,
			IRPtr:            ir.Var{Name: fd.Name, Typ: irFnType},
		})
	}
	lz.funcDefs[fd.Name] = true

	lz.b = ir.NewBuilder()
	lz.currentReturnType = fnType.Return
	lz.breakLabels = nil
	lz.continueLabels = nil
	lz.labels = make(map[string]string)
	lz.collectLabels(fd.Body)

	lz.scope.EnterScope()

	params := make([]*ir.Var, len(fd.ParamNames))
	for i, name := range fd.ParamNames {
		paramCType := ctypes.Type(ctypes.Int())
		if i < len(fnType.Params) {
			paramCType = fnType.Params[i].Type
		}
		irT := lz.irType(paramCType)
		incoming := &ir.Var{Name: name, Typ: irT}
		params[i] = incoming

		addr := lz.b.InsertAlloca(irT, lz.b.NewTemp())
		lz.b.BuildStore(addr, incoming)
		lz.scope.DeclareSymbol(name, &scope.Symbol{
			Kind:             scope.LocalVar,
			SourceIdentifier: name,
			IRName:           addr.Name,
			CType:            paramCType,
			IRType:           irT,
			IRPtr:            addr,
		})
	}

	for _, item := range fd.Body.Items {
		lz.lowerBlockItem(item)
	}

	if last, ok := lz.b.LastInstruction(); !ok || last.Op != ir.OpRet {
		if ctypes.IsVoid(fnType.Return) {
			lz.b.BuildRet(nil)
		} else {
			lz.b.BuildRet(zeroConst(lz.irType(fnType.Return)))
		}
	}

	lz.scope.LeaveScope()

	lz.mod.Functions = append(lz.mod.Functions, &ir.Function{
		Name:       fd.Name,
		Type:       irFnType,
		Params:     params,
		IsVariadic: fnType.Variadic,
		Body:       lz.b.Finalize(),
	})
	lz.b = nil
}
