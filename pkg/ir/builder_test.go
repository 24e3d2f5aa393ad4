package ir

import "testing"

func TestBuilderEmitsInInsertionOrder(t *testing.T) {
	b := NewBuilder()
	b.BuildNop("l0")
	b.BuildBr("l0")
	b.BuildRet(ConstInt{Value: 0, Typ: I32})

	body := b.Finalize()
	wantOps := []Opcode{OpNop, OpBr, OpRet}
	if len(body) != len(wantOps) {
		t.Fatalf("got %d instructions, want %d", len(body), len(wantOps))
	}
	for i, op := range wantOps {
		if body[i].Op != op {
			t.Errorf("instruction %d: got %s, want %s", i, body[i].Op, op)
		}
	}
}

func TestInsertAllocaHoistsToPrologue(t *testing.T) {
	b := NewBuilder()
	first := b.InsertAlloca(I32, b.NewTemp())
	b.BuildStore(first, ConstInt{Value: 1, Typ: I32})
	b.BuildNop("l0")
	// An alloca requested mid-stream must still land in the prologue,
	// after the first alloca and before the store.
	second := b.InsertAlloca(I64, b.NewTemp())
	b.BuildRet(ConstInt{Value: 0, Typ: I32})

	body := b.Finalize()
	wantOps := []Opcode{OpAlloca, OpAlloca, OpStore, OpNop, OpRet}
	for i, op := range wantOps {
		if body[i].Op != op {
			t.Fatalf("instruction %d: got %s, want %s", i, body[i].Op, op)
		}
	}
	if body[0].Result.Name != first.Name || body[1].Result.Name != second.Name {
		t.Errorf("alloca order wrong: %s then %s", body[0].Result.Name, body[1].Result.Name)
	}
	if pt, ok := second.Typ.(PtrType); !ok || !TypeEqual(pt.Elem, I64) {
		t.Errorf("alloca result type = %s, want i64*", second.Typ)
	}
}

func TestClearAfterDiscardsTail(t *testing.T) {
	b := NewBuilder()
	b.BuildNop("l0")
	mark := b.GetPosition()
	b.BuildBinary(OpAdd, ConstInt{Value: 1, Typ: I32}, ConstInt{Value: 2, Typ: I32}, b.NewTemp(), I32)
	b.BuildBr("l0")
	b.ClearAfter(mark)
	b.BuildRet(ConstInt{Value: 0, Typ: I32})

	body := b.Finalize()
	wantOps := []Opcode{OpNop, OpRet}
	if len(body) != len(wantOps) {
		t.Fatalf("got %d instructions, want %d", len(body), len(wantOps))
	}
	for i, op := range wantOps {
		if body[i].Op != op {
			t.Errorf("instruction %d: got %s, want %s", i, body[i].Op, op)
		}
	}
}

func TestClearAfterNilEmptiesStream(t *testing.T) {
	b := NewBuilder()
	b.BuildNop("l0")
	b.BuildRet(nil)
	b.ClearAfter(nil)
	if len(b.Finalize()) != 0 {
		t.Error("ClearAfter(nil) should remove every instruction")
	}
}

func TestNewTempAndNewLabelAreMonotonic(t *testing.T) {
	b := NewBuilder()
	if got := b.NewTemp(); got != "%0" {
		t.Errorf("first temp = %q, want %%0", got)
	}
	if got := b.NewTemp(); got != "%1" {
		t.Errorf("second temp = %q, want %%1", got)
	}
	if got := b.NewLabel(); got != "l0" {
		t.Errorf("first label = %q, want l0", got)
	}
	if got := b.NewLabel(); got != "l1" {
		t.Errorf("second label = %q, want l1", got)
	}
}

func TestCountersResetPerBuilder(t *testing.T) {
	b := NewBuilder()
	b.NewTemp()
	b.NewLabel()
	b2 := NewBuilder()
	if got := b2.NewTemp(); got != "%0" {
		t.Errorf("fresh builder temp = %q, want %%0", got)
	}
	if got := b2.NewLabel(); got != "l0" {
		t.Errorf("fresh builder label = %q, want l0", got)
	}
}

func TestLastInstruction(t *testing.T) {
	b := NewBuilder()
	if _, ok := b.LastInstruction(); ok {
		t.Error("empty builder should have no last instruction")
	}
	b.BuildRet(nil)
	last, ok := b.LastInstruction()
	if !ok || last.Op != OpRet {
		t.Errorf("LastInstruction = %v, %v; want ret", last, ok)
	}
}

func TestBuildCallResultOnlyForNonVoid(t *testing.T) {
	b := NewBuilder()
	if res := b.BuildCall("f", nil, false, b.NewTemp(), nil); res != nil {
		t.Error("void call should produce no result value")
	}
	res := b.BuildCall("g", []Value{ConstInt{Value: 1, Typ: I32}}, false, b.NewTemp(), I32)
	if res == nil || !TypeEqual(res.Typ, I32) {
		t.Errorf("non-void call result = %v", res)
	}
}

func TestPositionAfterSplicesMidStream(t *testing.T) {
	b := NewBuilder()
	b.BuildNop("l0")
	mark := b.GetPosition()
	b.BuildNop("l2")
	b.PositionAfter(mark)
	b.BuildNop("l1")

	body := b.Finalize()
	wantLabels := []string{"l0", "l1", "l2"}
	for i, l := range wantLabels {
		if body[i].Label != l {
			t.Errorf("instruction %d: got label %q, want %q", i, body[i].Label, l)
		}
	}
}
