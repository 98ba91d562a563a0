package llvmgen

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// The pipeline run over the module before every emit. mem2reg comes first so
// the entry-block slots turn back into SSA values; the rest is the standard
// cleanup that follows it.
const optPasses = "mem2reg,instcombine,reassociate,gvn,simplifycfg"

// llir builds and prints IR but carries no optimizer or target machine, so
// the emit paths pipe the printed module through the LLVM toolchain, the
// same way native output has always been produced here.

func toolPath(envVar string, fallback string) string {
	if path := os.Getenv(envVar); path != "" {
		return path
	}
	return fallback
}

func (g *Generator) optimize() (string, error) {
	cmd := exec.Command(
		toolPath("KALC_OPT", "opt"),
		"-S", "-passes="+optPasses, "-o", "-", "-",
	)
	cmd.Stdin = strings.NewReader(g.module.String())

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf(
			"optimization pipeline failed: %v\n%s",
			err, strings.TrimSpace(stderr.String()),
		)
	}

	return out.String(), nil
}

// EmitIR optimizes the module and writes its textual IR.
func (g *Generator) EmitIR(out io.Writer) error {
	listing, err := g.optimize()
	if err != nil {
		return err
	}

	_, err = io.WriteString(out, listing)
	return err
}

// EmitObject optimizes the module and writes a relocatable object for the
// generator's target into the given file. The file is not closed here.
func (g *Generator) EmitObject(out *os.File) error {
	listing, err := g.optimize()
	if err != nil {
		return err
	}

	cmd := exec.Command(
		toolPath("KALC_CC", "clang"),
		"-c", "-x", "ir",
		"-target", g.machine.Triple,
		"-o", "-", "-",
	)
	cmd.Stdin = strings.NewReader(listing)
	cmd.Stdout = out

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf(
			"target '%s' cannot emit an object file: %v\n%s",
			g.machine.Triple, err, strings.TrimSpace(stderr.String()),
		)
	}

	return nil
}
