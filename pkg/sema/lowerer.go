// Package sema lowers a parsed C translation unit (pkg/cabs) into the
// typed three-address IR (pkg/ir), given an architecture descriptor
// (pkg/arch). Errors are accumulated into a diag.List rather than
// aborting the pass; Lower returns them as a slice, which a caller
// checks for emptiness.
package sema

import (
	"github.com/nrkt/minicc/pkg/arch"
	"github.com/nrkt/minicc/pkg/cabs"
	"github.com/nrkt/minicc/pkg/ctypes"
	"github.com/nrkt/minicc/pkg/diag"
	"github.com/nrkt/minicc/pkg/ir"
	"github.com/nrkt/minicc/pkg/scope"
)

// Lowerer holds the state threaded through one translation unit's
// lowering: the live scope chain, the output module under construction,
// the current function's instruction builder, and the loop/label context
// needed by break/continue/goto.
type Lowerer struct {
	arch  *arch.Descriptor
	mod   *ir.Module
	scope *scope.Table
	diags diag.List

	// typedefs is a single flat namespace (not scope-chained): C typedefs
	// at block scope are rare in the programs this pass targets, so one
	// module-wide table suffices rather than threading a third namespace
	// through scope.Table.
	typedefs map[string]*cabs.TypeSpec

	// funcDefs records which functions already have a definition (not
	// just a prototype), for redefinition checking.
	funcDefs map[string]bool

	// b is the builder for the function currently being lowered; nil
	// between functions (global declarations never need a builder, except
	// for compile-time constant folding, which never emits an instruction).
	b *ir.Builder

	breakLabels    []string
	continueLabels []string

	// labels maps a function's source label names to the IR label
	// allocated for them, populated by a prepass over the function body
	// before any statement is lowered, so a goto can target a label
	// defined later in the source.
	labels map[string]string

	// currentReturnType is the C return type of the function currently
	// being lowered, consulted by return-statement lowering.
	currentReturnType ctypes.Type
}

// New creates a Lowerer ready to process one translation unit.
func New(d *arch.Descriptor, moduleName string) *Lowerer {
	return &Lowerer{
		arch:     d,
		mod:      ir.NewModule(moduleName),
		scope:    scope.NewTable(),
		typedefs: make(map[string]*cabs.TypeSpec),
		funcDefs: make(map[string]bool),
	}
}

// Lower lowers prog into an IR module, returning the module and the
// accumulated diagnostics (possibly empty).
func Lower(prog *cabs.Program, d *arch.Descriptor, moduleName string) (*ir.Module, []*diag.Error) {
	lz := New(d, moduleName)
	for _, decl := range prog.Decls {
		switch dd := decl.(type) {
		case *cabs.FunDef:
			lz.lowerFunDef(dd)
		case *cabs.DeclGroup:
			lz.lowerGlobalDeclGroup(dd)
		}
	}
	return lz.mod, lz.diags.Errors()
}

func (lz *Lowerer) errorf(kind diag.Kind, pos cabs.Pos, format string, args ...interface{}) {
	lz.diags.Add(kind, pos, format, args...)
}
