package gen

import (
	"io"
	"os"

	"github.com/kartiknair/kalc/pkg/ast"
)

// Generator is the backend seam: declarations are appended one at a time,
// then the accumulated module is emitted as textual IR or object code.
type Generator interface {
	Declaration(decl ast.Declaration) error
	EmitIR(out io.Writer) error
	EmitObject(out *os.File) error
}
