package span

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Diagnostic is an error with a source location. Parse and codegen failures
// are surfaced as *Diagnostic values so the driver can keep going and render
// them all at the end of each declaration.
type Diagnostic struct {
	Header string
	Msg    string
	Span   Span
}

func Errorf(header string, s Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Header: header,
		Msg:    fmt.Sprintf(format, args...),
		Span:   s,
	}
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Header, d.Msg)
}

var (
	headerColor = color.New(color.FgRed, color.Bold)
	caretColor  = color.New(color.FgGreen, color.Bold)
)

// SourceMap caches the line contents of files referenced by diagnostics.
// One is constructed per compiler invocation and handed to everything that
// renders errors.
type SourceMap struct {
	files map[string][]string
}

func NewSourceMap() *SourceMap {
	return &SourceMap{files: make(map[string][]string)}
}

// AddFile registers already-loaded source text, so rendering does not have
// to re-read the file the compiler just consumed.
func (sm *SourceMap) AddFile(filename string, source string) {
	sm.files[filename] = splitLines(source)
}

func (sm *SourceMap) lines(filename string) ([]string, error) {
	if lines, ok := sm.files[filename]; ok {
		return lines, nil
	}

	code, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	lines := splitLines(string(code))
	sm.files[filename] = lines
	return lines, nil
}

// Lines end at any of "\n", "\r" or "\r\n".
func splitLines(source string) []string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "\n")
	return strings.Split(source, "\n")
}

// Render writes the diagnostic followed by the offending source lines, with
// a caret under the start column:
//
//	file.k:2:7-2:8: parse-error: expected ')' in prototype
//	def f(x
//	      ^
func (sm *SourceMap) Render(out io.Writer, d *Diagnostic) {
	fmt.Fprintf(
		out, "%s: %s %s\n",
		d.Span, headerColor.Sprintf("%s:", d.Header), d.Msg,
	)

	if d.Span.Filename == nil {
		return
	}

	lines, err := sm.lines(*d.Span.Filename)
	if err != nil || d.Span.StartLine >= len(lines) {
		return
	}

	startLine := lines[d.Span.StartLine]
	fmt.Fprintf(out, "\t%s\n", startLine)

	offset := make([]byte, 0, d.Span.StartCol)
	for i := 0; i < d.Span.StartCol && i < len(startLine); i++ {
		if startLine[i] == '\t' {
			offset = append(offset, '\t')
		} else {
			offset = append(offset, ' ')
		}
	}
	fmt.Fprintf(out, "\t%s%s\n", offset, caretColor.Sprint("^"))

	for i := d.Span.StartLine + 1; i <= d.Span.EndLine && i < len(lines); i++ {
		fmt.Fprintf(out, "\t%s\n", lines[i])
	}
}
