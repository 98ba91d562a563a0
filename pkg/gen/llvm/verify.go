package llvmgen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// verifyFunc runs the structural checks LLVM's verifier would catch first:
// every block terminated, phi incomings lining up with predecessors, and
// returns producing doubles. A function that fails is erased from the
// module by the caller.
func verifyFunc(f *ir.Func) error {
	if len(f.Blocks) == 0 {
		return fmt.Errorf("function '%s' has no body", f.Name())
	}

	preds := make(map[*ir.Block][]*ir.Block)
	for _, b := range f.Blocks {
		if b.Term == nil {
			return fmt.Errorf("block '%s' in function '%s' has no terminator", b.Name(), f.Name())
		}

		switch term := b.Term.(type) {
		case *ir.TermBr:
			target := term.Target.(*ir.Block)
			preds[target] = append(preds[target], b)
		case *ir.TermCondBr:
			targetTrue := term.TargetTrue.(*ir.Block)
			targetFalse := term.TargetFalse.(*ir.Block)
			preds[targetTrue] = append(preds[targetTrue], b)
			preds[targetFalse] = append(preds[targetFalse], b)
		case *ir.TermRet:
			if term.X == nil || !term.X.Type().Equal(types.Double) {
				return fmt.Errorf("function '%s' must return a double", f.Name())
			}
		default:
			return fmt.Errorf("block '%s' in function '%s' has an unexpected terminator", b.Name(), f.Name())
		}
	}

	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			phi, ok := inst.(*ir.InstPhi)
			if !ok {
				continue
			}

			if len(phi.Incs) != len(preds[b]) {
				return fmt.Errorf(
					"phi in block '%s' of function '%s' has %d incoming values for %d predecessors",
					b.Name(), f.Name(), len(phi.Incs), len(preds[b]),
				)
			}

			for _, inc := range phi.Incs {
				found := false
				for _, pred := range preds[b] {
					if inc.Pred == pred {
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf(
						"phi in block '%s' of function '%s' names a non-predecessor block",
						b.Name(), f.Name(),
					)
				}
			}
		}
	}

	return nil
}
