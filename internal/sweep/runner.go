package sweep

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single harness invocation. The harness compiles
// and simulates hardware, so the bound is generous; it exists so a wedged
// simulator cannot stall a sweep forever.
const DefaultTimeout = 10 * time.Minute

// Runner invokes the external characterization harness once for the named
// test with the given name=value parameter flags and returns its combined
// text output. A nil flags slice is the zero-argument probe invocation.
type Runner interface {
	Run(ctx context.Context, name string, flags []string) (string, error)
}

// HarnessRunner shells out to the harness's build tool, one blocking
// subprocess per invocation.
type HarnessRunner struct {
	Command string   // build tool binary, e.g. "sbt"
	Args    []string // fixed leading arguments
	Dir     string   // harness project directory
	Timeout time.Duration
	Log     *zap.Logger
}

// Run executes `testOnly <name> -- -D<flag>...` followed by an exit
// command, capturing stdout and stderr combined. The build tool exits
// nonzero for failed tests while still printing the diagnostics we
// classify, so output is returned even when the process reports failure.
func (h *HarnessRunner) Run(ctx context.Context, name string, flags []string) (string, error) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	testCmd := "testOnly " + name
	if len(flags) > 0 {
		defs := make([]string, len(flags))
		for i, f := range flags {
			defs[i] = "-D" + f
		}
		testCmd += " -- " + strings.Join(defs, " ")
	}
	args := append(append([]string{}, h.Args...), testCmd, "exit")

	if h.Log != nil {
		h.Log.Debug("invoking harness",
			zap.String("command", h.Command),
			zap.Strings("args", args))
	}

	cmd := exec.CommandContext(ctx, h.Command, args...)
	cmd.Dir = h.Dir
	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return string(out), fmt.Errorf("harness invocation for %s: %w", name, ctx.Err())
	}
	if err != nil && len(out) == 0 {
		return "", fmt.Errorf("harness invocation for %s: %w", name, err)
	}
	return string(out), nil
}
