// Package scope implements lexical scoping and the symbol/tag namespaces
// used while lowering a translation unit: the scope chain, per-scope
// symbol and tag declaration/lookup, and tag UID generation.
package scope

import (
	"fmt"

	"github.com/nrkt/minicc/pkg/ctypes"
	"github.com/nrkt/minicc/pkg/ir"
)

// SymbolKind distinguishes the three things an identifier can name.
type SymbolKind int

const (
	LocalVar SymbolKind = iota
	GlobalVar
	Function
)

// Symbol binds a source identifier to its storage and types.
type Symbol struct {
	Kind             SymbolKind
	SourceIdentifier string
	IRName           string
	CType            ctypes.Type
	IRType           ir.Type
	// IRPtr holds the symbol's storage address for variables (a pointer
	// to IRType), or the function's own IR name/type for functions.
	IRPtr ir.Value
}

// Tag binds a struct/union tag identifier to its (possibly not yet
// complete) type. CType/IRType are nil while the tag is forward-declared
// and incomplete.
type Tag struct {
	SourceIdentifier string
	UID              string
	CType            ctypes.Type
	IRType           ir.Type
}

// Complete fills in a forward-declared tag's type once its body has been
// processed. Calling it twice is a caller bug (redefinition is checked
// before Complete is reached) and panics.
func (t *Tag) Complete(ctype ctypes.Type, irtype ir.Type) {
	if t.IRType != nil {
		panic("scope: tag " + t.SourceIdentifier + " completed twice")
	}
	t.CType = ctype
	t.IRType = irtype
}

// Incomplete reports whether the tag has been declared but not yet
// completed with a body.
func (t *Tag) Incomplete() bool { return t.IRType == nil }

// Scope is one lexical frame: its own symbol and tag namespaces (C keeps
// them separate), with a parent frame lookup falls back to.
type Scope struct {
	Symbols map[string]*Symbol
	Tags    map[string]*Tag
	Parent  *Scope
}

func newScope(parent *Scope) *Scope {
	return &Scope{
		Symbols: make(map[string]*Symbol),
		Tags:    make(map[string]*Tag),
		Parent:  parent,
	}
}

// Table owns the live scope chain for one function (or the module-level
// scope between functions) plus the module-wide tag UID counter.
type Table struct {
	current      *Scope
	tagCounter   int
}

// NewTable creates a table with a single root (module) scope current.
func NewTable() *Table {
	t := &Table{}
	t.current = newScope(nil)
	return t
}

// Current returns the innermost active scope.
func (t *Table) Current() *Scope { return t.current }

// EnterScope pushes a new child scope, making it current.
func (t *Table) EnterScope() {
	t.current = newScope(t.current)
}

// LeaveScope pops the current scope, restoring its parent. Calling this
// on the root scope is a caller bug and panics.
func (t *Table) LeaveScope() {
	if t.current.Parent == nil {
		panic("scope: cannot leave the root scope")
	}
	t.current = t.current.Parent
}

// LookupSymbol walks the scope chain outward from current, returning the
// nearest binding for name.
func (t *Table) LookupSymbol(name string) (*Symbol, bool) {
	for s := t.current; s != nil; s = s.Parent {
		if sym, ok := s.Symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupSymbolInCurrentScope reports only a binding in the innermost
// scope, used for redefinition checks.
func (t *Table) LookupSymbolInCurrentScope(name string) (*Symbol, bool) {
	sym, ok := t.current.Symbols[name]
	return sym, ok
}

// DeclareSymbol binds name to sym in the current scope. It is a caller
// invariant violation (not a user-facing diagnostic — the caller must
// have already checked LookupSymbolInCurrentScope) to redeclare a name in
// the same scope, and this panics rather than silently overwriting.
func (t *Table) DeclareSymbol(name string, sym *Symbol) {
	if _, exists := t.current.Symbols[name]; exists {
		panic(fmt.Sprintf("scope: %q already declared in current scope", name))
	}
	t.current.Symbols[name] = sym
}

// LookupTag walks the scope chain outward from current, returning the
// nearest tag binding for name.
func (t *Table) LookupTag(name string) (*Tag, bool) {
	for s := t.current; s != nil; s = s.Parent {
		if tag, ok := s.Tags[name]; ok {
			return tag, true
		}
	}
	return nil, false
}

// LookupTagInCurrentScope reports only a tag binding in the innermost
// scope, used for redefinition checks (nested scopes may shadow freely).
func (t *Table) LookupTagInCurrentScope(name string) (*Tag, bool) {
	tag, ok := t.current.Tags[name]
	return tag, ok
}

// DeclareTag creates and binds a new (initially incomplete) tag for name
// in the current scope, with a fresh module-wide UID, and returns it.
func (t *Table) DeclareTag(name string) *Tag {
	uid := t.newTagUID(name)
	tag := &Tag{SourceIdentifier: name, UID: uid}
	t.current.Tags[name] = tag
	return tag
}

// DeclareAnonymousTag creates and binds a synthesized tag for an
// anonymous struct/union (one with no source identifier), keyed in the
// current scope under its own synthesized name so later code in the same
// scope cannot accidentally reference it by name.
func (t *Table) DeclareAnonymousTag() *Tag {
	uid := t.newTagUID("")
	name := "__anon_tag_" + fmt.Sprint(t.tagCounter-1)
	tag := &Tag{SourceIdentifier: name, UID: uid}
	t.current.Tags[name] = tag
	return tag
}

func (t *Table) newTagUID(identifier string) string {
	id := t.tagCounter
	t.tagCounter++
	if identifier == "" {
		return fmt.Sprintf("__anon_tag_%d", id)
	}
	return fmt.Sprintf("%s_%d", identifier, id)
}
