package sema

import (
	"strings"
	"testing"

	"github.com/nrkt/minicc/pkg/arch"
	"github.com/nrkt/minicc/pkg/diag"
	"github.com/nrkt/minicc/pkg/ir"
	"github.com/nrkt/minicc/pkg/irvalidate"
	"github.com/nrkt/minicc/pkg/lexer"
	"github.com/nrkt/minicc/pkg/parser"
)

func lowerSource(t *testing.T, src string) (*ir.Module, []*diag.Error) {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l, "test.c")
	prog := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	return Lower(prog, arch.LP64(), "test")
}

// mustLower lowers src and fails the test on any semantic diagnostic.
func mustLower(t *testing.T, src string) *ir.Module {
	t.Helper()
	mod, errs := lowerSource(t, src)
	if len(errs) > 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	return mod
}

func bodyOps(fn *ir.Function) []ir.Opcode {
	ops := make([]ir.Opcode, len(fn.Body))
	for i, ins := range fn.Body {
		ops[i] = ins.Op
	}
	return ops
}

func wantOps(t *testing.T, fn *ir.Function, want []ir.Opcode) {
	t.Helper()
	got := bodyOps(fn)
	if len(got) != len(want) {
		t.Fatalf("%s: got %d instructions %v, want %d %v", fn.Name, len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: instruction %d is %s, want %s (full body %v)", fn.Name, i, got[i], want[i], want)
		}
	}
}

func countOp(fn *ir.Function, op ir.Opcode) int {
	n := 0
	for _, ins := range fn.Body {
		if ins.Op == op {
			n++
		}
	}
	return n
}

func hasDiag(errs []*diag.Error, kind diag.Kind) bool {
	for _, e := range errs {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func TestReturnZero(t *testing.T) {
	mod := mustLower(t, "int main() { return 0; }")
	if len(mod.Functions) != 1 || len(mod.Globals) != 0 {
		t.Fatalf("got %d functions, %d globals", len(mod.Functions), len(mod.Globals))
	}
	fn := mod.Functions[0]
	if fn.Name != "main" {
		t.Errorf("function name = %q", fn.Name)
	}
	wantOps(t, fn, []ir.Opcode{ir.OpRet})
	c, ok := fn.Body[0].Args[0].(ir.ConstInt)
	if !ok || c.Value != 0 || !ir.TypeEqual(c.Typ, ir.I32) {
		t.Errorf("ret operand = %v", fn.Body[0].Args[0])
	}
}

func TestGlobalLoadAndAdd(t *testing.T) {
	mod := mustLower(t, "int a = 5; int main() { return a + 1; }")
	if len(mod.Globals) != 1 {
		t.Fatalf("got %d globals", len(mod.Globals))
	}
	g := mod.Globals[0]
	if g.Name != "a" || !g.Initialized {
		t.Errorf("global = %+v", g)
	}
	if c, ok := g.Value.(ir.ConstInt); !ok || c.Value != 5 {
		t.Errorf("global value = %v", g.Value)
	}
	wantOps(t, mod.Functions[0], []ir.Opcode{ir.OpLoad, ir.OpAdd, ir.OpRet})
}

func TestIfElse(t *testing.T) {
	mod := mustLower(t, "int main() { if (1) return 2; else return 3; }")
	fn := mod.Functions[0]
	// Condition compare, branch to the else label, the two returns around
	// the else/merge labels, and the synthesized fallthrough return after
	// the merge label.
	wantOps(t, fn, []ir.Opcode{ir.OpNe, ir.OpBrCond, ir.OpRet, ir.OpBr, ir.OpNop, ir.OpRet, ir.OpNop, ir.OpRet})
	if fn.Body[1].Label != fn.Body[4].Label {
		t.Errorf("br_cond targets %q but else label is %q", fn.Body[1].Label, fn.Body[4].Label)
	}
}

func TestPointerParamSubscript(t *testing.T) {
	mod := mustLower(t, "int f(int *p) { return p[2]; }")
	fn := mod.Functions[0]
	wantOps(t, fn, []ir.Opcode{ir.OpAlloca, ir.OpStore, ir.OpLoad, ir.OpGetArrayElementPtr, ir.OpLoad, ir.OpRet})
	gep := fn.Body[3]
	if c, ok := gep.Args[1].(ir.ConstInt); !ok || c.Value != 2 {
		t.Errorf("subscript index operand = %v", gep.Args[1])
	}
}

func TestWhileLoop(t *testing.T) {
	mod := mustLower(t, "int main() { int i = 0; while (i < 3) i = i + 1; return i; }")
	fn := mod.Functions[0]
	wantOps(t, fn, []ir.Opcode{
		ir.OpAlloca, ir.OpStore,
		ir.OpNop, ir.OpLoad, ir.OpLt, ir.OpExt, ir.OpNe, ir.OpBrCond,
		ir.OpLoad, ir.OpAdd, ir.OpStore,
		ir.OpBr, ir.OpNop,
		ir.OpLoad, ir.OpRet,
	})
	// The back edge targets the loop-start label; the conditional branch
	// targets the exit label.
	start := fn.Body[2].Label
	exit := fn.Body[12].Label
	if fn.Body[11].Label != start {
		t.Errorf("back edge targets %q, want %q", fn.Body[11].Label, start)
	}
	if fn.Body[7].Label != exit {
		t.Errorf("loop exit branch targets %q, want %q", fn.Body[7].Label, exit)
	}
}

func TestStructMemberAccess(t *testing.T) {
	mod := mustLower(t, "struct P { int x; int y; }; int f(struct P *p) { return p->y; }")
	if len(mod.TypeMap) != 1 {
		t.Fatalf("TypeMap has %d entries", len(mod.TypeMap))
	}
	var st ir.StructType
	for uid, typ := range mod.TypeMap {
		if typ.UID != uid {
			t.Errorf("TypeMap key %q maps to UID %q", uid, typ.UID)
		}
		st = typ
	}
	// Two i32 fields need no padding.
	if len(st.Fields) != 2 || st.FieldMap["y"] != 1 {
		t.Errorf("struct layout = %+v", st)
	}

	fn := mod.Functions[0]
	wantOps(t, fn, []ir.Opcode{ir.OpAlloca, ir.OpStore, ir.OpLoad, ir.OpGetStructMemberPtr, ir.OpLoad, ir.OpRet})
	if fn.Body[3].FieldIndex != 1 {
		t.Errorf("member access field index = %d, want 1", fn.Body[3].FieldIndex)
	}
}

func TestPaddedStructMemberIndex(t *testing.T) {
	mod := mustLower(t, "struct Q { char c; long n; }; long f(struct Q *q) { return q->n; }")
	fn := mod.Functions[0]
	// The IR index of n is 2: c, filler, n.
	idx := -1
	for _, ins := range fn.Body {
		if ins.Op == ir.OpGetStructMemberPtr {
			idx = ins.FieldIndex
		}
	}
	if idx != 2 {
		t.Errorf("padded member index = %d, want 2", idx)
	}
}

func TestRecursiveStructTag(t *testing.T) {
	mod := mustLower(t, `
struct N { int v; struct N *next; };
int f(struct N *n) { return n->next->v; }
`)
	if len(mod.TypeMap) != 1 {
		t.Fatalf("TypeMap has %d entries", len(mod.TypeMap))
	}
	fn := mod.Functions[0]
	if countOp(fn, ir.OpGetStructMemberPtr) != 2 {
		t.Errorf("expected two member accesses, body %v", bodyOps(fn))
	}
}

func TestValidatorAcceptsLoweredModules(t *testing.T) {
	sources := []string{
		"int main() { return 0; }",
		"int a = 5; int main() { return a + 1; }",
		"int main() { if (1) return 2; else return 3; }",
		"int f(int *p) { return p[2]; }",
		"int main() { int i = 0; while (i < 3) i = i + 1; return i; }",
		"struct P { int x; int y; }; int f(struct P *p) { return p->y; }",
		"int main() { int i = 0; do { i = i + 1; } while (i < 3); return i; }",
		"int main() { int t = 0; for (int i = 0; i < 4; i++) t = t + i; return t; }",
		"int f(int a, int b) { return a && b || !a; }",
		"int main() { goto done; done: return 1; }",
		"int f(int a) { return a ? a + 1 : a - 1; }",
		"void g() { } int main() { g(); return 0; }",
	}
	for _, src := range sources {
		mod := mustLower(t, src)
		if err := irvalidate.Validate(mod); err != nil {
			t.Errorf("validator rejected clean input %q: %v", src, err)
		}
	}
}

func TestConstantFoldingRoundTrip(t *testing.T) {
	folded := mustLower(t, "int main() { return 2 + 3; }").Functions[0]
	literal := mustLower(t, "int main() { return 5; }").Functions[0]
	wantOps(t, folded, []ir.Opcode{ir.OpRet})
	fc, _ := folded.Body[0].Args[0].(ir.ConstInt)
	lc, _ := literal.Body[0].Args[0].(ir.ConstInt)
	if fc.Value != lc.Value {
		t.Errorf("folded 2+3 = %d, literal 5 = %d", fc.Value, lc.Value)
	}
}

func TestConstantFoldingDivisionByZero(t *testing.T) {
	fn := mustLower(t, "int main() { return 7 / 0; }").Functions[0]
	wantOps(t, fn, []ir.Opcode{ir.OpRet})
	if c, _ := fn.Body[0].Args[0].(ir.ConstInt); c.Value != 0 {
		t.Errorf("7/0 folded to %d, want 0", c.Value)
	}
}

func TestConstantFoldingBitwiseAndComparison(t *testing.T) {
	fn := mustLower(t, "int main() { return (6 & 3) + (4 < 5); }").Functions[0]
	wantOps(t, fn, []ir.Opcode{ir.OpRet})
	if c, _ := fn.Body[0].Args[0].(ir.ConstInt); c.Value != 3 {
		t.Errorf("(6&3)+(4<5) folded to %d, want 3", c.Value)
	}
}

func TestDerefOfAddressOfLoadsLikePlainUse(t *testing.T) {
	indirect := mustLower(t, "int f(int x) { return *&x; }").Functions[0]
	direct := mustLower(t, "int f(int x) { return x; }").Functions[0]
	wantOps(t, indirect, bodyOps(direct))
}

func TestIdentityCastEmitsNoConversion(t *testing.T) {
	cast := mustLower(t, "int f(int x) { return (int)x; }").Functions[0]
	plain := mustLower(t, "int f(int x) { return x; }").Functions[0]
	wantOps(t, cast, bodyOps(plain))
}

func TestNarrowingCastEmitsTrunc(t *testing.T) {
	fn := mustLower(t, "char f(int x) { return (char)x; }").Functions[0]
	if countOp(fn, ir.OpTrunc) != 1 {
		t.Errorf("expected one trunc, body %v", bodyOps(fn))
	}
}

func TestSizeofIsACompileTimeConstant(t *testing.T) {
	fn := mustLower(t, "int main() { return sizeof(int); }").Functions[0]
	wantOps(t, fn, []ir.Opcode{ir.OpRet})
	if c, _ := fn.Body[0].Args[0].(ir.ConstInt); c.Value != 4 {
		t.Errorf("sizeof(int) = %d, want 4", c.Value)
	}
}

func TestTernaryConstantFoldDiscardsUnchosenArm(t *testing.T) {
	fn := mustLower(t, "int f(int a) { return 0 ? a + 1 : a; }").Functions[0]
	if countOp(fn, ir.OpAdd) != 0 {
		t.Errorf("discarded arm left an add behind: %v", bodyOps(fn))
	}
	fn = mustLower(t, "int f(int a) { return 1 ? a : a - 1; }").Functions[0]
	if countOp(fn, ir.OpSub) != 0 {
		t.Errorf("discarded arm left a sub behind: %v", bodyOps(fn))
	}
}

func TestLogicalAndShortCircuitShape(t *testing.T) {
	fn := mustLower(t, "int f(int a, int b) { return a && b; }").Functions[0]
	// Two parameter slots plus the merge slot, all hoisted to the prologue.
	for i := 0; i < 3; i++ {
		if fn.Body[i].Op != ir.OpAlloca {
			t.Fatalf("instruction %d is %s, want alloca prologue of 3: %v", i, fn.Body[i].Op, bodyOps(fn))
		}
	}
	if fn.Body[3].Op == ir.OpAlloca {
		t.Fatal("more than 3 allocas")
	}
	if countOp(fn, ir.OpBrCond) != 1 || countOp(fn, ir.OpBr) != 1 || countOp(fn, ir.OpNop) != 2 {
		t.Errorf("short-circuit shape wrong: %v", bodyOps(fn))
	}
}

func TestGotoForwardReference(t *testing.T) {
	fn := mustLower(t, "int main() { goto done; done: return 1; }").Functions[0]
	wantOps(t, fn, []ir.Opcode{ir.OpBr, ir.OpNop, ir.OpRet})
	if fn.Body[0].Label != fn.Body[1].Label {
		t.Errorf("goto targets %q but label is %q", fn.Body[0].Label, fn.Body[1].Label)
	}
}

func TestDoWhileTestsAfterBody(t *testing.T) {
	fn := mustLower(t, "int main() { int i = 0; do { i = i + 1; } while (i < 3); return i; }").Functions[0]
	// A do-while's conditional branch comes after the body's add/store.
	condIdx, addIdx := -1, -1
	for i, ins := range fn.Body {
		switch ins.Op {
		case ir.OpBrCond:
			condIdx = i
		case ir.OpAdd:
			addIdx = i
		}
	}
	if condIdx < addIdx {
		t.Errorf("do-while condition at %d precedes body at %d: %v", condIdx, addIdx, bodyOps(fn))
	}
}

func TestVoidFunctionGetsImplicitReturn(t *testing.T) {
	mod := mustLower(t, "void g() { } int main() { g(); return 0; }")
	g := mod.Functions[0]
	wantOps(t, g, []ir.Opcode{ir.OpRet})
	if len(g.Body[0].Args) != 0 {
		t.Errorf("void return carries a value: %v", g.Body[0].Args)
	}
	// The call to g produces no result temporary.
	main := mod.Functions[1]
	for _, ins := range main.Body {
		if ins.Op == ir.OpCall && ins.Result != nil {
			t.Errorf("void call has a result %v", ins.Result)
		}
	}
}

func TestMissingReturnSynthesizesZero(t *testing.T) {
	fn := mustLower(t, "int f(int a) { a = a + 1; }").Functions[0]
	last := fn.Body[len(fn.Body)-1]
	if last.Op != ir.OpRet || len(last.Args) != 1 {
		t.Fatalf("last instruction = %v", last)
	}
	if c, ok := last.Args[0].(ir.ConstInt); !ok || c.Value != 0 {
		t.Errorf("synthesized return value = %v", last.Args[0])
	}
}

func TestStringLiteralBecomesGlobal(t *testing.T) {
	mod := mustLower(t, `int main() { char *s = "hi"; return 0; }`)
	if len(mod.Globals) != 1 {
		t.Fatalf("got %d globals", len(mod.Globals))
	}
	g := mod.Globals[0]
	if g.Name != "@0" || !g.Initialized {
		t.Errorf("string global = %+v", g)
	}
	cs, ok := g.Value.(ir.ConstString)
	if !ok || cs.Value != "hi" {
		t.Fatalf("string global value = %v", g.Value)
	}
	arr, ok := cs.Typ.(ir.ArrayType)
	if !ok || arr.Length != 3 {
		t.Errorf("string storage type = %s, want [3 x i8]", cs.Typ)
	}
}

func TestVariadicCallAcceptsExtraArguments(t *testing.T) {
	mod := mustLower(t, `int printf(char *fmt, ...); int main() { return printf("x", 1, 2); }`)
	main := mod.Functions[0]
	var call *ir.Instruction
	for _, ins := range main.Body {
		if ins.Op == ir.OpCall {
			call = ins
		}
	}
	if call == nil || len(call.Args) != 3 || !call.Variadic {
		t.Fatalf("call = %+v", call)
	}
}

func TestArrayArgumentDecaysToPointer(t *testing.T) {
	mod := mustLower(t, `
int sum(int *p, int n) { return p[0] + p[n - 1]; }
int main() { int a[3] = {1, 2, 3}; return sum(a, 3); }
`)
	main := mod.Functions[1]
	for _, ins := range main.Body {
		if ins.Op == ir.OpCall {
			if _, ok := ins.Args[0].Type().(ir.PtrType); !ok {
				t.Errorf("array argument type = %s, want a pointer", ins.Args[0].Type())
			}
		}
	}
}

func TestArrayInitializerClampsToDeclaredLength(t *testing.T) {
	fn := mustLower(t, "int main() { int a[2] = {1, 2, 3}; return a[0]; }").Functions[0]
	if got := countOp(fn, ir.OpStore); got != 2 {
		t.Errorf("got %d element stores, want 2: %v", got, bodyOps(fn))
	}
}

func TestStructInitializerList(t *testing.T) {
	fn := mustLower(t, "struct P { int x; int y; }; int main() { struct P p = {1, 2}; return p.x; }").Functions[0]
	if got := countOp(fn, ir.OpGetStructMemberPtr); got != 3 {
		t.Errorf("got %d member addresses (2 init + 1 access), body %v", got, bodyOps(fn))
	}
	if got := countOp(fn, ir.OpStore); got != 2 {
		t.Errorf("got %d stores, want 2: %v", got, bodyOps(fn))
	}
}

func TestPointerIncrementScalesByElement(t *testing.T) {
	fn := mustLower(t, "int f(int *p) { p++; return 0; }").Functions[0]
	if countOp(fn, ir.OpGetArrayElementPtr) != 1 {
		t.Errorf("pointer increment should use element-pointer arithmetic: %v", bodyOps(fn))
	}
}

func TestPrefixAndPostfixIncrement(t *testing.T) {
	pre := mustLower(t, "int f(int a) { return ++a; }").Functions[0]
	post := mustLower(t, "int f(int a) { return a++; }").Functions[0]
	for _, fn := range []*ir.Function{pre, post} {
		if countOp(fn, ir.OpAdd) != 1 || countOp(fn, ir.OpStore) != 2 {
			t.Errorf("%s increment shape wrong: %v", fn.Name, bodyOps(fn))
		}
	}
}

func TestFunctionsEmittedInSourceOrder(t *testing.T) {
	mod := mustLower(t, "int f() { return 0; } int g() { return 1; } int main() { return f() + g(); }")
	want := []string{"f", "g", "main"}
	for i, name := range want {
		if mod.Functions[i].Name != name {
			t.Errorf("function %d = %q, want %q", i, mod.Functions[i].Name, name)
		}
	}
}

func TestErrorsEmittedInSourceOrder(t *testing.T) {
	_, errs := lowerSource(t, "int main() { return first_missing + second_missing; }")
	if len(errs) != 2 {
		t.Fatalf("got %d diagnostics: %v", len(errs), errs)
	}
	for i, want := range []string{"first_missing", "second_missing"} {
		if errs[i].Kind != diag.UseOfUndeclaredIdentifier {
			t.Errorf("diagnostic %d kind = %s", i, errs[i].Kind)
		}
		if !strings.Contains(errs[i].Message, want) {
			t.Errorf("diagnostic %d = %q, want mention of %q", i, errs[i].Message, want)
		}
	}
}

func TestDiagnosticKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind diag.Kind
	}{
		{"undeclared identifier", "int main() { return nope; }", diag.UseOfUndeclaredIdentifier},
		{"undeclared label", "int main() { goto nowhere; return 0; }", diag.UseOfUndeclaredLabel},
		{"duplicate label", "int main() { x: ; x: ; return 0; }", diag.RedefinitionOfLabel},
		{"break outside loop", "int main() { break; return 0; }", diag.BreakOutsideOfLoopOrSwitchCase},
		{"continue outside loop", "int main() { continue; return 0; }", diag.ContinueOutsideOfLoop},
		{"redefined local", "int main() { int x = 1; int x = 2; return x; }", diag.RedefinitionOfSymbol},
		{"redefined function", "int main() { return 0; } int main() { return 1; }", diag.RedefinitionOfSymbol},
		{"conflicting prototype", "int f(int a); double f(double a) { return a; }", diag.RedefinitionOfSymbol},
		{"redefined tag", "struct S { int a; }; struct S { int b; }; int main() { return 0; }", diag.RedefinitionOfTag},
		{"call arity", "int add(int a, int b) { return a + b; } int main() { return add(1); }", diag.CallArgumentCountMismatch},
		{"call non-function", "int main() { int x; return x(); }", diag.CallTargetNotFunction},
		{"subscript non-array", "int main() { int x; return x[0]; }", diag.InvalidSubscriptTarget},
		{"subscript non-integer", "int f(int *p, double d) { return p[d]; }", diag.InvalidSubscriptType},
		{"member on non-struct", "int main() { int x; return x.y; }", diag.InvalidMemberAccessTarget},
		{"missing field", "struct P { int x; }; int f(struct P *p) { return p->y; }", diag.InvalidStructFieldReference},
		{"deref non-pointer", "int main() { int x; return *x; }", diag.UnaryIndirectionOperandNotPtrType},
		{"assign to rvalue", "int main() { 1 = 2; return 0; }", diag.InvalidAssignmentTarget},
		{"assign to const", "int main() { const int x = 1; x = 2; return x; }", diag.InvalidAssignmentTarget},
		{"global initializer not constant", "int a; int b = a; int main() { return 0; }", diag.GlobalInitializerNotConstant},
		{"struct if condition", "struct S { int a; }; int main() { struct S s; if (s) return 1; return 0; }", diag.InvalidIfConditionType},
		{"struct loop condition", "struct S { int a; }; int main() { struct S s; while (s) return 1; return 0; }", diag.InvalidLoopConditionType},
		{"struct logical operand", "struct S { int a; }; int main() { struct S s; return s && 1; }", diag.InvalidLogicalBinaryOperandType},
		{"struct logical not", "struct S { int a; }; int main() { struct S s; return !s; }", diag.InvalidUnaryNotOperandType},
		{"struct ternary condition", "struct S { int a; }; int main() { struct S s; return s ? 1 : 2; }", diag.InvalidTernaryConditionType},
		{"incompatible ternary arms", "struct S { int a; }; int f(struct S s, int c) { return c ? s : 1; }", diag.InvalidTernaryExpressionOperands},
		{"struct binary operand", "struct S { int a; }; int main() { struct S s; return s + 1; }", diag.InvalidBinaryExpressionOperands},
		{"increment of rvalue", "int main() { 1++; return 0; }", diag.CannotIncrementDecrementType},
		{"modulo on float", "int f(double d) { return d % 2.0; }", diag.InvalidBinaryExpressionOperands},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := lowerSource(t, tt.src)
			if !hasDiag(errs, tt.kind) {
				t.Errorf("expected %s, got %v", tt.kind, errs)
			}
		})
	}
}

func TestCompatiblePrototypeThenDefinition(t *testing.T) {
	mod := mustLower(t, "int add(int a, int b); int main() { return add(1, 2); } int add(int a, int b) { return a + b; }")
	if len(mod.Functions) != 2 {
		t.Fatalf("got %d functions", len(mod.Functions))
	}
}

func TestScopedShadowingIsLegal(t *testing.T) {
	fn := mustLower(t, "int main() { int x = 1; { int x = 2; x = 3; } return x; }").Functions[0]
	if countOp(fn, ir.OpAlloca) != 2 {
		t.Errorf("expected two slots for the two x's: %v", bodyOps(fn))
	}
}

func TestTagUIDsAreUniquePerModule(t *testing.T) {
	mod := mustLower(t, `
struct A { int a; };
struct B { int b; };
int main() { struct A x; struct B y; x.a = 1; y.b = 2; return x.a + y.b; }
`)
	if len(mod.TypeMap) != 2 {
		t.Fatalf("TypeMap has %d entries", len(mod.TypeMap))
	}
	for uid, st := range mod.TypeMap {
		if st.UID != uid {
			t.Errorf("TypeMap key %q maps to struct with UID %q", uid, st.UID)
		}
	}
}

func TestUnionMembersShareOffsetZero(t *testing.T) {
	mod := mustLower(t, "union U { char c; long n; }; long f(union U *u) { return u->n; }")
	for _, st := range mod.TypeMap {
		if !st.IsUnion || len(st.Fields) != 2 {
			t.Errorf("union layout = %+v", st)
		}
	}
	fn := mod.Functions[0]
	idx := -1
	for _, ins := range fn.Body {
		if ins.Op == ir.OpGetStructMemberPtr {
			idx = ins.FieldIndex
		}
	}
	if idx != 1 {
		t.Errorf("union member index = %d, want the declared index 1", idx)
	}
}

func TestForLoopScopesItsInitializer(t *testing.T) {
	// The for-initializer's i must not leak: redeclaring i after the loop
	// in the enclosing scope is legal.
	mustLower(t, "int main() { for (int i = 0; i < 3; i++) ; int i = 9; return i; }")
}

func TestPointerDifferenceScalesBySize(t *testing.T) {
	fn := mustLower(t, "long f(int *a, int *b) { return a - b; }").Functions[0]
	if countOp(fn, ir.OpPtoI) != 2 || countOp(fn, ir.OpDiv) != 1 {
		t.Errorf("pointer difference shape wrong: %v", bodyOps(fn))
	}
}

func TestUsualArithmeticConversionWidens(t *testing.T) {
	fn := mustLower(t, "long f(int a, long b) { return a + b; }").Functions[0]
	if countOp(fn, ir.OpExt) != 1 {
		t.Errorf("expected the int operand widened once: %v", bodyOps(fn))
	}
	var add *ir.Instruction
	for _, ins := range fn.Body {
		if ins.Op == ir.OpAdd {
			add = ins
		}
	}
	if add == nil || !ir.TypeEqual(add.Result.Typ, ir.I64) {
		t.Errorf("add result type = %v, want i64", add)
	}
}

func TestEveryTempWrittenOnce(t *testing.T) {
	fn := mustLower(t, "int f(int a, int b) { int c = a * b + a; return c ? c : a && b; }").Functions[0]
	writes := make(map[string]int)
	for _, ins := range fn.Body {
		if ins.Result != nil {
			writes[ins.Result.Name]++
		}
	}
	for name, n := range writes {
		if n != 1 {
			t.Errorf("temp %s written %d times", name, n)
		}
	}
}
