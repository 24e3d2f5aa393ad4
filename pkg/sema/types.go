package sema

import (
	"github.com/nrkt/minicc/pkg/cabs"
	"github.com/nrkt/minicc/pkg/ctypes"
	"github.com/nrkt/minicc/pkg/diag"
	"github.com/nrkt/minicc/pkg/ir"
	"github.com/nrkt/minicc/pkg/scope"
)

// resolveType turns a syntactic type (as written by the programmer) into
// the semantic ctypes.Type it names, resolving typedef names through the
// module-wide typedef table and struct/union tags against the live scope
// chain as it goes.
func (lz *Lowerer) resolveType(ts *cabs.TypeSpec) ctypes.Type {
	switch ts.Kind {
	case cabs.KindVoid:
		return ctypes.Tvoid{IsConst: ts.IsConst}
	case cabs.KindBool:
		return ctypes.Tbool{IsConst: ts.IsConst}
	case cabs.KindChar:
		return ctypes.Tint{Size: ctypes.SizeChar, Sign: signOf(ts), IsConst: ts.IsConst}
	case cabs.KindShort:
		return ctypes.Tint{Size: ctypes.SizeShort, Sign: signOf(ts), IsConst: ts.IsConst}
	case cabs.KindInt:
		return ctypes.Tint{Size: ctypes.SizeInt, Sign: signOf(ts), IsConst: ts.IsConst}
	case cabs.KindLong:
		return ctypes.Tint{Size: ctypes.SizeLong, Sign: signOf(ts), IsConst: ts.IsConst}
	case cabs.KindLongLong:
		return ctypes.Tint{Size: ctypes.SizeLongLong, Sign: signOf(ts), IsConst: ts.IsConst}
	case cabs.KindFloat:
		return ctypes.Tfloat{Size: ctypes.SizeFloat, IsConst: ts.IsConst}
	case cabs.KindDouble:
		return ctypes.Tfloat{Size: ctypes.SizeDouble, IsConst: ts.IsConst}
	case cabs.KindLongDouble:
		return ctypes.Tfloat{Size: ctypes.SizeLongDouble, IsConst: ts.IsConst}
	case cabs.KindPointer:
		var elem ctypes.Type
		if ts.Elem != nil {
			elem = lz.resolveType(ts.Elem)
		}
		return ctypes.Tpointer{Elem: elem, IsConst: ts.IsConst}
	case cabs.KindArray:
		elem := lz.resolveType(ts.Elem)
		if ts.ArrayLen == nil {
			return ctypes.IncompleteArray(elem)
		}
		n := lz.foldConstIntExpr(ts.ArrayLen)
		return ctypes.Array(elem, n)
	case cabs.KindStructOrUnion:
		return lz.resolveStructSpec(ts)
	case cabs.KindTypedefName:
		if def, ok := lz.typedefs[ts.Name]; ok {
			return lz.resolveType(def)
		}
		lz.errorf(diag.UseOfUndeclaredIdentifier, ts.Pos, "use of undeclared type name %q", ts.Name)
		return ctypes.Int()
	case cabs.KindFunction:
		params := make([]ctypes.Param, len(ts.Params))
		for i, p := range ts.Params {
			pt := lz.resolveType(p.Type)
			// Array parameters adjust to pointer-to-element.
			if arr, ok := pt.(ctypes.Tarray); ok {
				pt = ctypes.Pointer(arr.Elem)
			}
			params[i] = ctypes.Param{Type: pt, Identifier: p.Identifier}
		}
		return ctypes.Tfunction{Params: params, Return: lz.resolveType(ts.Return), Variadic: ts.Variadic}
	}
	return ctypes.Int()
}

func signOf(ts *cabs.TypeSpec) ctypes.Signedness {
	if ts.Unsigned {
		return ctypes.Unsigned
	}
	return ctypes.Signed
}

// resolveStructSpec resolves a struct/union type-spec, declaring,
// completing, or referencing the tag in the scope chain as appropriate.
func (lz *Lowerer) resolveStructSpec(ts *cabs.TypeSpec) ctypes.Type {
	if ts.TagIdent == "" {
		return lz.completeStruct(ts, lz.scope.DeclareAnonymousTag())
	}

	if ts.HasFields {
		existing, hasExisting := lz.scope.LookupTagInCurrentScope(ts.TagIdent)
		if hasExisting && !existing.Incomplete() {
			lz.errorf(diag.RedefinitionOfTag, ts.Pos, "redefinition of tag %q", ts.TagIdent)
			return existing.CType
		}
		tag := existing
		if !hasExisting {
			tag = lz.scope.DeclareTag(ts.TagIdent)
		}
		return lz.completeStruct(ts, tag)
	}

	// Forward reference: `struct Foo` with no body.
	if tag, ok := lz.scope.LookupTag(ts.TagIdent); ok {
		if !tag.Incomplete() {
			return tag.CType
		}
		return ctypes.Tstruct{IsUnion: ts.IsUnion, Name: ts.TagIdent, UID: tag.UID, HasBody: false}
	}
	tag := lz.scope.DeclareTag(ts.TagIdent)
	return ctypes.Tstruct{IsUnion: ts.IsUnion, Name: ts.TagIdent, UID: tag.UID, HasBody: false}
}

// completeStruct builds the field list and IR layout for a struct/union
// body and completes tag with it. The tag is already bound in scope
// before this runs, so a self-referencing field (`struct N *next;`)
// resolves against the still-incomplete tag correctly.
func (lz *Lowerer) completeStruct(ts *cabs.TypeSpec, tag *scope.Tag) ctypes.Type {
	fields, sourceFields := lz.lowerFieldDecls(ts.Fields)
	ctype := ctypes.Tstruct{
		IsUnion: ts.IsUnion, Name: ts.TagIdent, UID: tag.UID,
		HasBody: true, Fields: fields, Packed: ts.Packed, IsConst: ts.IsConst,
	}
	irType := ir.PadStruct(tag.UID, ts.IsUnion, ts.Packed, sourceFields, lz.arch.SizeOfBytes, lz.arch.AlignOfBytes)
	tag.Complete(ctype, irType)
	lz.mod.TypeMap[tag.UID] = irType
	return ctype
}

func (lz *Lowerer) lowerFieldDecls(decls []cabs.FieldDecl) ([]ctypes.Field, []ir.SourceField) {
	fields := make([]ctypes.Field, len(decls))
	source := make([]ir.SourceField, len(decls))
	for i, fd := range decls {
		ft := lz.resolveType(fd.Type)
		fields[i] = ctypes.Field{Name: fd.Name, Type: ft, DeclaredIndex: i}
		source[i] = ir.SourceField{Name: fd.Name, Type: lz.irType(ft)}
	}
	return fields, source
}

// irType maps a semantic C type to its IR representation via the
// architecture descriptor.
func (lz *Lowerer) irType(ct ctypes.Type) ir.Type {
	switch t := ct.(type) {
	case ctypes.Tvoid:
		return ir.Void
	case ctypes.Tbool:
		return lz.arch.Bool
	case ctypes.Tint:
		return lz.irIntType(t)
	case ctypes.Tfloat:
		switch t.Size {
		case ctypes.SizeFloat:
			return lz.arch.Float
		case ctypes.SizeDouble:
			return lz.arch.Double
		default:
			return lz.arch.LongDouble
		}
	case ctypes.Tpointer:
		if t.Elem == nil {
			return ir.PtrType{Elem: ir.Void}
		}
		return ir.PtrType{Elem: lz.irType(t.Elem)}
	case ctypes.Tarray:
		return ir.ArrayType{Elem: lz.irType(t.Elem), Length: t.Size}
	case ctypes.Tstruct:
		if st, ok := lz.mod.TypeMap[t.UID]; ok {
			return st
		}
		return ir.StructType{UID: t.UID, IsUnion: t.IsUnion}
	case ctypes.Tfunction:
		params := make([]ir.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = lz.irType(p.Type)
		}
		return ir.FuncType{Return: lz.irType(t.Return), Params: params, Variadic: t.Variadic}
	}
	return ir.I32
}

func (lz *Lowerer) irIntType(t ctypes.Tint) ir.Type {
	signed := t.Sign == ctypes.Signed
	switch t.Size {
	case ctypes.SizeChar:
		if signed {
			return lz.arch.SChar
		}
		return lz.arch.UChar
	case ctypes.SizeShort:
		if signed {
			return lz.arch.SShort
		}
		return lz.arch.UShort
	case ctypes.SizeLong:
		if signed {
			return lz.arch.SLong
		}
		return lz.arch.ULong
	case ctypes.SizeLongLong:
		if signed {
			return lz.arch.SLongLong
		}
		return lz.arch.ULongLong
	default:
		if signed {
			return lz.arch.SInt
		}
		return lz.arch.UInt
	}
}
