package sema

import (
	"github.com/nrkt/minicc/pkg/cabs"
	"github.com/nrkt/minicc/pkg/diag"
	"github.com/nrkt/minicc/pkg/ir"
)

// lowerStmt lowers one statement into the current function's
// instruction stream.
func (lz *Lowerer) lowerStmt(s cabs.Stmt) {
	switch st := s.(type) {
	case *cabs.Block:
		lz.lowerBlockScoped(st)
	case *cabs.ExprStmt:
		if st.Expr != nil {
			lz.lowerExpr(st.Expr)
		}
	case *cabs.IfStmt:
		lz.lowerIf(st)
	case *cabs.WhileStmt:
		lz.lowerWhile(st)
	case *cabs.DoWhileStmt:
		lz.lowerDoWhile(st)
	case *cabs.ForStmt:
		lz.lowerFor(st)
	case *cabs.ReturnStmt:
		lz.lowerReturn(st)
	case *cabs.BreakStmt:
		lz.lowerBreak(st)
	case *cabs.ContinueStmt:
		lz.lowerContinue(st)
	case *cabs.GotoStmt:
		lz.lowerGoto(st)
	case *cabs.LabelStmt:
		lz.lowerLabel(st)
	}
}

func (lz *Lowerer) lowerBlockScoped(b *cabs.Block) {
	lz.scope.EnterScope()
	for _, item := range b.Items {
		lz.lowerBlockItem(item)
	}
	lz.scope.LeaveScope()
}

func (lz *Lowerer) lowerBlockItem(item cabs.BlockItem) {
	if item.Decl != nil {
		lz.lowerLocalDeclGroup(item.Decl)
		return
	}
	lz.lowerStmt(item.Stmt)
}

func (lz *Lowerer) lowerIf(st *cabs.IfStmt) {
	condR := lz.lowerExpr(st.Cond)
	cond, ok := lz.toBool(condR)
	if !ok {
		lz.errorf(diag.InvalidIfConditionType, st.Pos, "if condition is not scalar")
		return
	}
	falseLabel := lz.b.NewLabel()
	lz.b.BuildBrCond(cond, falseLabel)
	lz.lowerStmt(st.Then)
	if st.Else != nil {
		mergeLabel := lz.b.NewLabel()
		lz.b.BuildBr(mergeLabel)
		lz.b.BuildNop(falseLabel)
		lz.lowerStmt(st.Else)
		lz.b.BuildNop(mergeLabel)
		return
	}
	lz.b.BuildNop(falseLabel)
}

func (lz *Lowerer) lowerWhile(st *cabs.WhileStmt) {
	condLabel := lz.b.NewLabel()
	endLabel := lz.b.NewLabel()
	lz.b.BuildNop(condLabel)
	condR := lz.lowerExpr(st.Cond)
	cond, ok := lz.toBool(condR)
	if !ok {
		lz.errorf(diag.InvalidLoopConditionType, st.Pos, "while condition is not scalar")
		return
	}
	lz.b.BuildBrCond(cond, endLabel)
	lz.pushLoop(condLabel, endLabel)
	lz.lowerStmt(st.Body)
	lz.popLoop()
	lz.b.BuildBr(condLabel)
	lz.b.BuildNop(endLabel)
}

func (lz *Lowerer) lowerDoWhile(st *cabs.DoWhileStmt) {
	bodyLabel := lz.b.NewLabel()
	continueLabel := lz.b.NewLabel()
	endLabel := lz.b.NewLabel()
	lz.b.BuildNop(bodyLabel)
	lz.pushLoop(continueLabel, endLabel)
	lz.lowerStmt(st.Body)
	lz.popLoop()
	lz.b.BuildNop(continueLabel)
	condR := lz.lowerExpr(st.Cond)
	cond, ok := lz.toBool(condR)
	if !ok {
		lz.errorf(diag.InvalidLoopConditionType, st.Pos, "do-while condition is not scalar")
		return
	}
	notCond := lz.b.BuildBinary(ir.OpEq, cond, zeroConst(ir.Bool), lz.b.NewTemp(), ir.Bool)
	lz.b.BuildBrCond(notCond, bodyLabel)
	lz.b.BuildNop(endLabel)
}

func (lz *Lowerer) lowerFor(st *cabs.ForStmt) {
	lz.scope.EnterScope()
	defer lz.scope.LeaveScope()

	if st.InitDecl != nil {
		lz.lowerLocalDeclGroup(st.InitDecl)
	} else if st.Init != nil {
		lz.lowerExpr(st.Init)
	}

	condLabel := lz.b.NewLabel()
	endLabel := lz.b.NewLabel()
	continueLabel := lz.b.NewLabel()
	lz.b.BuildNop(condLabel)
	if st.Cond != nil {
		condR := lz.lowerExpr(st.Cond)
		cond, ok := lz.toBool(condR)
		if !ok {
			lz.errorf(diag.InvalidLoopConditionType, st.Pos, "for condition is not scalar")
			return
		}
		lz.b.BuildBrCond(cond, endLabel)
	}
	lz.pushLoop(continueLabel, endLabel)
	lz.lowerStmt(st.Body)
	lz.popLoop()
	lz.b.BuildNop(continueLabel)
	if st.Post != nil {
		lz.lowerExpr(st.Post)
	}
	lz.b.BuildBr(condLabel)
	lz.b.BuildNop(endLabel)
}

func (lz *Lowerer) lowerReturn(st *cabs.ReturnStmt) {
	if st.Expr == nil {
		lz.b.BuildRet(nil)
		return
	}
	r := lz.lowerExpr(st.Expr)
	conv := lz.convertTo(r, lz.currentReturnType)
	if conv.isErr {
		lz.b.BuildRet(zeroConst(lz.irType(lz.currentReturnType)))
		return
	}
	lz.b.BuildRet(conv.val)
}

func (lz *Lowerer) lowerBreak(st *cabs.BreakStmt) {
	if len(lz.breakLabels) == 0 {
		lz.errorf(diag.BreakOutsideOfLoopOrSwitchCase, st.Pos, "break statement not within a loop or switch")
		return
	}
	lz.b.BuildBr(lz.breakLabels[len(lz.breakLabels)-1])
}

func (lz *Lowerer) lowerContinue(st *cabs.ContinueStmt) {
	if len(lz.continueLabels) == 0 {
		lz.errorf(diag.ContinueOutsideOfLoop, st.Pos, "continue statement not within a loop")
		return
	}
	lz.b.BuildBr(lz.continueLabels[len(lz.continueLabels)-1])
}

func (lz *Lowerer) lowerGoto(st *cabs.GotoStmt) {
	label, ok := lz.labels[st.Label]
	if !ok {
		lz.errorf(diag.UseOfUndeclaredLabel, st.Pos, "use of undeclared label %q", st.Label)
		return
	}
	lz.b.BuildBr(label)
}

func (lz *Lowerer) lowerLabel(st *cabs.LabelStmt) {
	label := lz.labels[st.Label]
	lz.b.BuildNop(label)
	lz.lowerStmt(st.Stmt)
}

func (lz *Lowerer) pushLoop(continueLabel, breakLabel string) {
	lz.continueLabels = append(lz.continueLabels, continueLabel)
	lz.breakLabels = append(lz.breakLabels, breakLabel)
}

func (lz *Lowerer) popLoop() {
	lz.continueLabels = lz.continueLabels[:len(lz.continueLabels)-1]
	lz.breakLabels = lz.breakLabels[:len(lz.breakLabels)-1]
}

// collectLabels runs the prepass that discovers every label definition in
// a function body before any statement is lowered, so a goto targeting a
// label defined later in the source resolves correctly the first time it
// is encountered.
func (lz *Lowerer) collectLabels(s cabs.Stmt) {
	switch st := s.(type) {
	case *cabs.Block:
		for _, item := range st.Items {
			if item.Stmt != nil {
				lz.collectLabels(item.Stmt)
			}
		}
	case *cabs.IfStmt:
		lz.collectLabels(st.Then)
		if st.Else != nil {
			lz.collectLabels(st.Else)
		}
	case *cabs.WhileStmt:
		lz.collectLabels(st.Body)
	case *cabs.DoWhileStmt:
		lz.collectLabels(st.Body)
	case *cabs.ForStmt:
		lz.collectLabels(st.Body)
	case *cabs.LabelStmt:
		if _, exists := lz.labels[st.Label]; exists {
			lz.errorf(diag.RedefinitionOfLabel, st.Pos, "redefinition of label %q", st.Label)
		} else {
			lz.labels[st.Label] = lz.b.NewLabel()
		}
		lz.collectLabels(st.Stmt)
	}
}
