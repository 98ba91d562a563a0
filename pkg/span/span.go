package span

import "fmt"

// Span marks a region of a source file. Lines and columns are zero-indexed;
// for multi-character lexemes End points one past the last character, for
// single-character tokens Start == End. The filename is shared by pointer
// since a span hangs off every token and AST node.
type Span struct {
	Filename *string

	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

func New(filename *string, startLine, startCol, endLine, endCol int) Span {
	return Span{
		Filename:  filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   endLine,
		EndCol:    endCol,
	}
}

// Merge combines two spans, taking the start of a and the end of b.
func Merge(a Span, b Span) Span {
	return Span{
		Filename:  a.Filename,
		StartLine: a.StartLine,
		StartCol:  a.StartCol,
		EndLine:   b.EndLine,
		EndCol:    b.EndCol,
	}
}

func (s Span) String() string {
	name := ""
	if s.Filename != nil {
		name = *s.Filename
	}
	return fmt.Sprintf(
		"%s:%d:%d-%d:%d",
		name,
		s.StartLine+1, s.StartCol+1,
		s.EndLine+1, s.EndCol+1,
	)
}
