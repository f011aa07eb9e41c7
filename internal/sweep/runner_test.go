package sweep

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarnessRunnerCommandShape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix echo")
	}

	runner := &HarnessRunner{Command: "echo", Args: []string{"-batch"}, Timeout: 30 * time.Second}

	out, err := runner.Run(context.Background(), "ApproxAdderSpec", []string{"width=8", "approxBits=2"})
	require.NoError(t, err)

	// One flag per bound parameter, passed through the build tool's
	// test-argument separator, followed by the exit command.
	assert.Contains(t, out, "-batch")
	assert.Contains(t, out, "testOnly ApproxAdderSpec -- -Dwidth=8 -DapproxBits=2")
	assert.Contains(t, out, "exit")
}

func TestHarnessRunnerProbeHasNoFlags(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix echo")
	}

	runner := &HarnessRunner{Command: "echo"}

	out, err := runner.Run(context.Background(), "ApproxAdderSpec", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "testOnly ApproxAdderSpec exit")
	assert.NotContains(t, out, "--")
}

func TestHarnessRunnerTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix sleep")
	}

	// The trailing testOnly/exit arguments land in $0/$1 and are ignored.
	runner := &HarnessRunner{Command: "bash", Args: []string{"-c", "sleep 10"}, Timeout: 50 * time.Millisecond}

	_, err := runner.Run(context.Background(), "ApproxAdderSpec", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
