package ir

// SourceField is one C-declared struct/union field, named and typed, as
// the declaration-lowering component sees it before layout.
type SourceField struct {
	Name string
	Type Type
}

// PadStruct computes the IR layout of a non-packed, non-union struct:
// fields are kept in declaration order and anonymous filler fields (typed
// as byte arrays) are inserted before any field whose natural alignment
// would otherwise be violated, and after the last field so the struct's
// overall size is a multiple of its alignment. sizeOf/alignOf are the
// architecture's width queries, supplied by the caller so this package
// stays architecture-agnostic.
//
// Packed structs and unions skip padding entirely: a packed struct's
// fields sit back to back, and a union's fields all start at offset 0 (so
// no field ever needs a filler before it); StructType.Fields then holds
// exactly the declared fields as the IR layout.
func PadStruct(uid string, isUnion, packed bool, fields []SourceField, sizeOf, alignOf func(Type) int64) StructType {
	st := StructType{UID: uid, IsUnion: isUnion, FieldMap: make(map[string]int)}

	if isUnion || packed {
		for i, f := range fields {
			st.Fields = append(st.Fields, StructField{Name: f.Name, Type: f.Type, Index: i})
			if f.Name != "" {
				st.FieldMap[f.Name] = i
			}
		}
		return st
	}

	var offset int64
	var padCounter int
	for _, f := range fields {
		align := alignOf(f.Type)
		if align <= 0 {
			align = 1
		}
		if rem := offset % align; rem != 0 {
			fillerLen := align - rem
			st.Fields = append(st.Fields, StructField{
				Type:  ArrayType{Elem: U8, Length: fillerLen},
				Index: len(st.Fields),
			})
			offset += fillerLen
			padCounter++
		}
		idx := len(st.Fields)
		st.Fields = append(st.Fields, StructField{Name: f.Name, Type: f.Type, Index: idx})
		if f.Name != "" {
			st.FieldMap[f.Name] = idx
		}
		offset += sizeOf(f.Type)
	}

	// Trailing padding so the struct's size is a multiple of its alignment.
	var struAlign int64 = 1
	for _, f := range fields {
		if a := alignOf(f.Type); a > struAlign {
			struAlign = a
		}
	}
	if rem := offset % struAlign; rem != 0 {
		fillerLen := struAlign - rem
		st.Fields = append(st.Fields, StructField{
			Type:  ArrayType{Elem: U8, Length: fillerLen},
			Index: len(st.Fields),
		})
	}

	return st
}
