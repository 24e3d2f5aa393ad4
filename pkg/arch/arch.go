// Package arch describes the target architecture's primitive type widths.
// It supplies the IR types for every C primitive and the pointer-sized
// integer type used for pointer arithmetic; the rest of the pass treats it
// as an opaque value handed in from outside.
package arch

import "github.com/nrkt/minicc/pkg/ir"

// Descriptor maps C primitives to concrete IR types and gives width queries
// over IR types. A Descriptor is immutable once constructed.
type Descriptor struct {
	SChar      ir.Type
	SShort     ir.Type
	SInt       ir.Type
	SLong      ir.Type
	SLongLong  ir.Type
	UChar      ir.Type
	UShort     ir.Type
	UInt       ir.Type
	ULong      ir.Type
	ULongLong  ir.Type
	Float      ir.Type
	Double     ir.Type
	LongDouble ir.Type
	Bool       ir.Type

	// PtrIntType is the integer IR type wide enough to hold a pointer,
	// used for pointer<->integer conversions and pointer arithmetic scaling.
	PtrIntType ir.Type

	// PointerBits is the width of a pointer in bits on this target.
	PointerBits int
}

// LP64 returns the descriptor for a typical 64-bit target (LP64 data
// model: long and pointer are 64-bit, int is 32-bit), the convention
// shared by aarch64 and x86-64 Unix targets.
func LP64() *Descriptor {
	return &Descriptor{
		SChar:      ir.I8,
		SShort:     ir.I16,
		SInt:       ir.I32,
		SLong:      ir.I64,
		SLongLong:  ir.I64,
		UChar:      ir.U8,
		UShort:     ir.U16,
		UInt:       ir.U32,
		ULong:      ir.U64,
		ULongLong:  ir.U64,
		Float:      ir.F32,
		Double:     ir.F64,
		LongDouble: ir.F64,
		Bool:       ir.Bool,
		PtrIntType: ir.U64,
		PointerBits: 64,
	}
}

// SizeOfBits returns the width in bits of an IR type resolved through this
// descriptor. Aggregates are resolved structurally: a struct/union's
// layout is assumed already padded (see pkg/ir's padding helper), so its
// size is just the sum (struct) or max (union) of its field widths.
func (d *Descriptor) SizeOfBits(t ir.Type) int {
	return int(d.SizeOfBytes(t) * 8)
}

// SizeOfBytes returns the width in bytes of an IR type.
func (d *Descriptor) SizeOfBytes(t ir.Type) int64 {
	switch ty := t.(type) {
	case ir.VoidType:
		return 0
	case ir.BoolType:
		return 1
	case ir.IntType:
		return int64(ty.Bits / 8)
	case ir.FloatType:
		return int64(ty.Bits / 8)
	case ir.PtrType:
		return int64(d.PointerBits / 8)
	case ir.ArrayType:
		return d.SizeOfBytes(ty.Elem) * ty.Length
	case ir.StructType:
		return d.sizeOfAggregate(ty)
	case ir.FuncType:
		return int64(d.PointerBits / 8)
	}
	return 0
}

// AlignOfBytes returns the natural alignment in bytes of an IR type, used
// by the struct-padding pass.
func (d *Descriptor) AlignOfBytes(t ir.Type) int64 {
	switch ty := t.(type) {
	case ir.ArrayType:
		return d.AlignOfBytes(ty.Elem)
	case ir.StructType:
		var max int64 = 1
		for _, f := range ty.Fields {
			if a := d.AlignOfBytes(f.Type); a > max {
				max = a
			}
		}
		return max
	default:
		sz := d.SizeOfBytes(t)
		if sz == 0 {
			return 1
		}
		return sz
	}
}

func (d *Descriptor) sizeOfAggregate(ty ir.StructType) int64 {
	if ty.IsUnion {
		var max int64
		for _, f := range ty.Fields {
			if sz := d.SizeOfBytes(f.Type); sz > max {
				max = sz
			}
		}
		return max
	}
	var total int64
	for _, f := range ty.Fields {
		total += d.SizeOfBytes(f.Type)
	}
	return total
}
