package sweep

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"emixa/internal/characterization"
	"emixa/internal/classify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeRunner scripts harness behavior per invocation. A nil flags slice is
// the probe.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	respond func(name string, flags []string) string
}

func (f *fakeRunner) Run(_ context.Context, name string, flags []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, flags)
	return f.respond(name, flags), nil
}

const fakeProbeReport = `[emixa-error] Parameter width not specified
[emixa-error] Parameter approxBits not specified (got 1)
[info] No tests were executed.
`

func writeExhaustiveResult(t *testing.T, dir, name string, width int) {
	t.Helper()
	var buf []byte
	buf = binary.BigEndian.AppendUint32(buf, uint32(width))
	buf = binary.BigEndian.AppendUint32(buf, uint32(width))
	side := 1 << width
	for i := 0; i < side*side; i++ {
		buf = binary.BigEndian.AppendUint64(buf, 0)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name, resultFile), buf, 0o644))
}

func TestSweepSuccess(t *testing.T) {
	dir := t.TempDir()
	const name = "ApproxAdderSpec"
	writeExhaustiveResult(t, dir, name, 2)

	runner := &fakeRunner{respond: func(_ string, flags []string) string {
		if flags == nil {
			return fakeProbeReport
		}
		return "[emixa-info] exhaustive unsigned adder\n"
	}}

	var status bytes.Buffer
	orch := New(runner, zaptest.NewLogger(t), Options{
		OutputDir: dir,
		Status:    &status,
	})

	batch, err := orch.Sweep(context.Background(), name, []string{"2", "approxBits=0:1"})
	require.NoError(t, err)

	require.Len(t, batch.Results, 2)
	assert.NotEmpty(t, batch.RunID)
	assert.Equal(t, []int{1}, batch.Varying)

	// Probe plus one invocation per point, flags in declared order.
	require.Len(t, runner.calls, 3)
	assert.Nil(t, runner.calls[0])
	assert.Equal(t, []string{"width=2", "approxBits=0"}, runner.calls[1])
	assert.Equal(t, []string{"width=2", "approxBits=1"}, runner.calls[2])

	// Every result is tagged with its own point's bound values.
	first := batch.Results[0].Metadata()
	assert.Equal(t, []string{"2", "0"}, first.Params)
	assert.Equal(t, characterization.ModuleAdder, first.Module)
	assert.Equal(t, 2, first.Width)
	assert.False(t, first.Signed)
	assert.Equal(t, []string{"2", "1"}, batch.Results[1].Metadata().Params)

	assert.Contains(t, status.String(), "Running characterizer ApproxAdderSpec")
}

// Sweep points are produced as nested loops over the range arguments in
// declared order, the last-declared range varying fastest.
func TestSweepCartesianOrdering(t *testing.T) {
	dir := t.TempDir()
	const name = "ApproxAdderSpec"
	writeExhaustiveResult(t, dir, name, 2)

	runner := &fakeRunner{respond: func(_ string, flags []string) string {
		if flags == nil {
			return fakeProbeReport
		}
		return "[emixa-info] exhaustive unsigned adder\n"
	}}
	orch := New(runner, zaptest.NewLogger(t), Options{OutputDir: dir})

	batch, err := orch.Sweep(context.Background(), name, []string{"1:2", "10:11"})
	require.NoError(t, err)

	var got [][]string
	for _, res := range batch.Results {
		got = append(got, res.Metadata().Params)
	}
	want := [][]string{{"1", "10"}, {"1", "11"}, {"2", "10"}, {"2", "11"}}
	assert.Equal(t, want, got)
}

func TestSweepNotFoundAbortsAtProbe(t *testing.T) {
	runner := &fakeRunner{respond: func(_ string, _ []string) string {
		return "[info] No tests to run for project\n"
	}}
	orch := New(runner, zaptest.NewLogger(t), Options{OutputDir: t.TempDir()})

	_, err := orch.Sweep(context.Background(), "MissingSpec", []string{"4"})
	require.ErrorIs(t, err, classify.ErrNotFound)
	assert.Len(t, runner.calls, 1)
}

func TestSweepAbortsWholeBatchOnCompileError(t *testing.T) {
	runner := &fakeRunner{respond: func(_ string, flags []string) string {
		if flags == nil {
			return fakeProbeReport
		}
		return "[error] Adder.scala:3: oops\n[error]   ^\n"
	}}
	orch := New(runner, zaptest.NewLogger(t), Options{OutputDir: t.TempDir()})

	batch, err := orch.Sweep(context.Background(), "ApproxAdderSpec", []string{"2:4", "0"})
	require.ErrorIs(t, err, classify.ErrCompileError)
	assert.Nil(t, batch)
	// Probe plus the first sweep point only; no partial results.
	assert.Len(t, runner.calls, 2)
}

func TestSweepUnsupportedModuleAborts(t *testing.T) {
	runner := &fakeRunner{respond: func(_ string, flags []string) string {
		if flags == nil {
			return fakeProbeReport
		}
		return "[emixa-info] exhaustive unsigned divider\n"
	}}
	orch := New(runner, zaptest.NewLogger(t), Options{OutputDir: t.TempDir()})

	_, err := orch.Sweep(context.Background(), "ApproxDividerSpec", []string{"4", "1"})
	assert.ErrorIs(t, err, classify.ErrUnsupportedModule)
}

func TestSweepMissingArgument(t *testing.T) {
	runner := &fakeRunner{respond: func(_ string, _ []string) string {
		return fakeProbeReport
	}}
	orch := New(runner, zaptest.NewLogger(t), Options{OutputDir: t.TempDir()})

	_, err := orch.Sweep(context.Background(), "ApproxAdderSpec", nil)
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestSweepVerbosePassesHarnessLinesThrough(t *testing.T) {
	dir := t.TempDir()
	const name = "ApproxAdderSpec"
	writeExhaustiveResult(t, dir, name, 2)

	runner := &fakeRunner{respond: func(_ string, flags []string) string {
		if flags == nil {
			return fakeProbeReport
		}
		return "[emixa-info] exhaustive unsigned adder\n[emixa-info] sampled 16 pairs\n"
	}}

	var status bytes.Buffer
	orch := New(runner, zaptest.NewLogger(t), Options{
		OutputDir: dir,
		Verbose:   true,
		Status:    &status,
	})

	_, err := orch.Sweep(context.Background(), name, []string{"2", "0"})
	require.NoError(t, err)
	assert.Contains(t, status.String(), "sampled 16 pairs")
}
