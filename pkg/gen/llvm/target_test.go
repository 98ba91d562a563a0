package llvmgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTriple(t *testing.T) {
	triple := DefaultTriple()
	assert.True(t, strings.Count(triple, "-") >= 1, "host triple %q is malformed", triple)
}

func TestNewTargetMachineDefaultsToHost(t *testing.T) {
	machine, err := NewTargetMachine("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTriple(), machine.Triple)
	assert.Equal(t, "generic", machine.CPU)
	assert.Equal(t, "", machine.Features)
}

func TestNewTargetMachineExplicitTriple(t *testing.T) {
	machine, err := NewTargetMachine("aarch64-apple-darwin")
	require.NoError(t, err)
	assert.Equal(t, "aarch64-apple-darwin", machine.Triple)
}

func TestNewTargetMachineRejectsGarbage(t *testing.T) {
	for _, triple := range []string{"bogus", "-linux"} {
		_, err := NewTargetMachine(triple)
		require.Error(t, err, "triple %q", triple)
		assert.Contains(t, err.Error(), "unknown target triple")
	}
}
