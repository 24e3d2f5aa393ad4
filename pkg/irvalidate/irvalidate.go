// Package irvalidate checks the structural invariants the lowering pass
// promises to maintain on its output IR: alloca placement, single-writer
// temporaries, and label/branch consistency. It is the "external IR
// validator" the lowering pass hands off to once a function body is
// complete; a semantically-clean input must never fail it, so a failure
// here is a bug in the lowering pass, not in the input program.
package irvalidate

import (
	"github.com/pkg/errors"

	"github.com/nrkt/minicc/pkg/ir"
)

// Validate checks every function in mod and returns the first
// invariant violation found, wrapped with the offending function's name.
// Per the lowering pass's error-handling contract, the first validation
// error aborts compilation; Validate never accumulates more than one.
func Validate(mod *ir.Module) error {
	for _, fn := range mod.Functions {
		if err := validateFunction(fn); err != nil {
			return errors.Wrapf(err, "function %q", fn.Name)
		}
	}
	return nil
}

func validateFunction(fn *ir.Function) error {
	if err := checkAllocaOrdering(fn); err != nil {
		return err
	}
	if err := checkSingleWriterPerTemp(fn); err != nil {
		return err
	}
	if err := checkLabelsDefinedOnce(fn); err != nil {
		return err
	}
	return nil
}

// checkAllocaOrdering enforces invariant 1: all alloca instructions
// appear before any non-alloca instruction in the final body.
func checkAllocaOrdering(fn *ir.Function) error {
	seenNonAlloca := false
	for i, instr := range fn.Body {
		if instr.Op == ir.OpAlloca {
			if seenNonAlloca {
				return errors.Errorf("alloca at instruction %d follows a non-alloca instruction", i)
			}
			continue
		}
		seenNonAlloca = true
	}
	return nil
}

// checkSingleWriterPerTemp enforces invariant 2: for each IR temporary
// name, exactly one instruction in the function writes to it.
func checkSingleWriterPerTemp(fn *ir.Function) error {
	writers := make(map[string]int)
	for i, instr := range fn.Body {
		if instr.Result == nil {
			continue
		}
		name := instr.Result.Name
		if prev, ok := writers[name]; ok {
			return errors.Errorf("temporary %q written at instructions %d and %d", name, prev, i)
		}
		writers[name] = i
	}
	return nil
}

// checkLabelsDefinedOnce enforces invariant 3: every label referenced by
// br or br_cond is defined by exactly one nop(label) in the same
// function, and no label is defined more than once.
func checkLabelsDefinedOnce(fn *ir.Function) error {
	defined := make(map[string]int)
	for i, instr := range fn.Body {
		if instr.Op != ir.OpNop {
			continue
		}
		if prev, ok := defined[instr.Label]; ok {
			return errors.Errorf("label %q defined at instructions %d and %d", instr.Label, prev, i)
		}
		defined[instr.Label] = i
	}
	for i, instr := range fn.Body {
		if instr.Op != ir.OpBr && instr.Op != ir.OpBrCond {
			continue
		}
		if _, ok := defined[instr.Label]; !ok {
			return errors.Errorf("instruction %d branches to undefined label %q", i, instr.Label)
		}
	}
	return nil
}
