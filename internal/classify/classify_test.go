package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emixa/internal/characterization"
)

const successOutput = `[info] compiling 1 Scala source
[emixa-info] exhaustive signed adder
[emixa-info] wrote 256 error entries
[info] All tests passed.
`

func TestClassifySuccess(t *testing.T) {
	v, err := Classify(successOutput, "ApproxAdderSpec", PlainScheme())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, v.Status)
	assert.NoError(t, v.Err())
	assert.Equal(t, characterization.KindExhaustive, v.Meta.Kind)
	assert.True(t, v.Meta.Signed)
	assert.Equal(t, characterization.ModuleAdder, v.Meta.Module)
	assert.Len(t, v.HarnessLines, 2)
}

func TestClassifyMetadataVariants(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		kind   characterization.Kind
		signed bool
		module characterization.ModuleKind
	}{
		{"unsigned adder", "[emixa-info] random2d unsigned adder", characterization.KindRandom2D, false, characterization.ModuleAdder},
		{"signed multiplier", "[emixa-info] random3d signed multiplier", characterization.KindRandom3D, true, characterization.ModuleMultiplier},
		{"build tool prefix", "[info] [emixa-info] exhaustive unsigned multiplier", characterization.KindExhaustive, false, characterization.ModuleMultiplier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Classify(tt.line+"\n", "T", PlainScheme())
			require.NoError(t, err)
			assert.Equal(t, StatusSuccess, v.Status)
			assert.Equal(t, tt.kind, v.Meta.Kind)
			assert.Equal(t, tt.signed, v.Meta.Signed)
			assert.Equal(t, tt.module, v.Meta.Module)
		})
	}
}

func TestClassifyNotFound(t *testing.T) {
	out := "[info] No tests to run for project\n"
	v, err := Classify(out, "MissingSpec", PlainScheme())
	require.NoError(t, err)

	assert.Equal(t, StatusNotFound, v.Status)
	assert.ErrorIs(t, v.Err(), ErrNotFound)
}

// Existence is checked before compilation, so a report carrying both
// markers classifies as not found.
func TestClassifyPrecedenceNotFoundBeforeCompileError(t *testing.T) {
	out := strings.Join([]string{
		"[error] something.scala:4: type mismatch",
		"[error]     ^",
		"No tests to run for project",
	}, "\n")

	v, err := Classify(out, "MissingSpec", PlainScheme())
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, v.Status)
}

func TestClassifyDidNotExecute(t *testing.T) {
	out := strings.Join([]string{
		"[info] some preamble",
		"[error] ApproxAdderSpec failed to initialize",
		"[error] cause: missing generator",
		"[error] at Characterizer.scala:12",
		"[error] at Runner.scala:33",
		"[error] beyond the window",
		"[info] No tests were executed.",
	}, "\n")

	v, err := Classify(out, "ApproxAdderSpec", PlainScheme())
	require.NoError(t, err)

	assert.Equal(t, StatusDidNotExecute, v.Status)
	assert.ErrorIs(t, v.Err(), ErrDidNotExecute)
	// Window starts at the first line mentioning the test name and is
	// limited to four lines, relabeled to the emixa vocabulary.
	assert.Contains(t, v.Diagnostics, "[emixa-error] ApproxAdderSpec failed to initialize")
	assert.Contains(t, v.Diagnostics, "Runner.scala:33")
	assert.NotContains(t, v.Diagnostics, "beyond the window")
	assert.NotContains(t, v.Diagnostics, "[error]")
}

func TestClassifyRuntimeError(t *testing.T) {
	out := strings.Join([]string{
		"[emixa-info] exhaustive signed adder",
		"[emixa-info] sampling started",
		"[emixa-error] width must be positive, got -2",
		"[emixa-info] aborted",
		"[info] Tests: 1 failed",
	}, "\n")

	v, err := Classify(out, "ApproxAdderSpec", PlainScheme())
	require.NoError(t, err)

	assert.Equal(t, StatusRuntimeError, v.Status)
	assert.ErrorIs(t, v.Err(), ErrRuntimeError)
	// Everything the characterizer emitted from the first error onward.
	assert.Contains(t, v.Diagnostics, "width must be positive")
	assert.Contains(t, v.Diagnostics, "aborted")
	assert.NotContains(t, v.Diagnostics, "sampling started")
}

func TestClassifyCompileError(t *testing.T) {
	out := strings.Join([]string{
		"[info] compiling",
		"[error] Adder.scala:7: not found: value UInt",
		"[error]   val sum = UInt(4.W)",
		"[error]             ^",
		"[error] one error found",
		"[info] done",
	}, "\n")

	v, err := Classify(out, "ApproxAdderSpec", PlainScheme())
	require.NoError(t, err)

	assert.Equal(t, StatusCompileError, v.Status)
	assert.ErrorIs(t, v.Err(), ErrCompileError)
	// The block runs up to the first caret-annotated line, inclusive.
	assert.Contains(t, v.Diagnostics, "not found: value UInt")
	assert.Contains(t, v.Diagnostics, "^")
	assert.NotContains(t, v.Diagnostics, "one error found")
}

func TestClassifyUnsupportedModule(t *testing.T) {
	out := "[emixa-info] exhaustive unsigned divider\n"
	_, err := Classify(out, "ApproxDividerSpec", PlainScheme())
	assert.ErrorIs(t, err, ErrUnsupportedModule)
}

func TestClassifyMissingDeclaration(t *testing.T) {
	_, err := Classify("[info] nothing interesting\n", "T", PlainScheme())
	assert.Error(t, err)
}

func TestRelabel(t *testing.T) {
	scheme := PlainScheme()

	tests := []struct {
		in, want string
	}{
		{"[info] hello", "[emixa-info] hello"},
		{"[warn] careful", "[emixa-warning] careful"},
		{"[warning] careful", "[emixa-warning] careful"},
		{"[error] boom", "[emixa-error] boom"},
		{"no tags here", "no tags here"},
		// Already-relabeled tags are left alone.
		{"[emixa-info] stable", "[emixa-info] stable"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Relabel(tt.in, scheme), tt.in)
	}
}
