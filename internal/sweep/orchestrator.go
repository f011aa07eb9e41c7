package sweep

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"emixa/internal/characterization"
	"emixa/internal/classify"
)

// resultFile is the name the harness gives every binary result file,
// written under <output>/<test name>/.
const resultFile = "errors.bin"

// highlightStyle marks the range-typed parameter values in sweep status
// lines so the varying positions stand out across runs.
var highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)

// Options configures a sweep batch.
type Options struct {
	// OutputDir is the harness-determined output root; each test's result
	// file appears at OutputDir/<name>/errors.bin.
	OutputDir string
	// Verbose passes the characterizer's own info and warning lines
	// through to Status verbatim.
	Verbose bool
	// Status receives human-facing progress and relabeled diagnostics.
	// Nil discards them.
	Status io.Writer
	Scheme classify.Scheme
}

// Batch is the all-or-nothing outcome of one sweep: either every point
// characterized successfully or the whole batch failed.
type Batch struct {
	RunID   string
	Params  []Param
	Varying []int // positions of the range-typed arguments
	Results []characterization.Result
}

// Orchestrator expands declared parameters into sweep points and drives
// the harness once per point, strictly sequentially: every invocation
// blocks on an external process and the first fatal classification aborts
// the batch, since later points reuse the same compiled harness.
type Orchestrator struct {
	runner Runner
	log    *zap.Logger
	opts   Options
}

// New builds an orchestrator around a harness runner.
func New(runner Runner, log *zap.Logger, opts Options) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Status == nil {
		opts.Status = io.Discard
	}
	if opts.Scheme == (classify.Scheme{}) {
		opts.Scheme = classify.PlainScheme()
	}
	return &Orchestrator{runner: runner, log: log, opts: opts}
}

// Sweep resolves the declared parameters of the named test, binds the raw
// argument tokens to them, expands range arguments into the Cartesian
// product of sweep points, and characterizes every point in order. No
// partial batch is ever returned: any failure aborts the whole sweep.
func (o *Orchestrator) Sweep(ctx context.Context, name string, tokens []string) (*Batch, error) {
	runID := uuid.NewString()
	log := o.log.With(zap.String("run_id", runID), zap.String("test", name))

	log.Info("probing declared parameters")
	probeOut, err := o.runner.Run(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	if verdict, _ := classify.Classify(probeOut, name, o.opts.Scheme); verdict.Status == classify.StatusNotFound {
		o.statusf("%s The specified test %s does not exist\n", o.opts.Scheme.Error, name)
		return nil, fmt.Errorf("test %s: %w", name, classify.ErrNotFound)
	}
	decls := parseProbeParams(probeOut)
	log.Debug("probe complete", zap.String("parameters", paramNames(decls)))

	bound, err := bindArgs(decls, tokens)
	if err != nil {
		o.statusf("%s %v\n", o.opts.Scheme.Error, err)
		return nil, err
	}
	points, varying, err := expandPoints(bound)
	if err != nil {
		o.statusf("%s %v\n", o.opts.Scheme.Error, err)
		return nil, err
	}

	batch := &Batch{
		RunID:   runID,
		Params:  decls,
		Varying: varying,
		Results: make([]characterization.Result, 0, len(points)),
	}
	for i, point := range points {
		o.statusf("%s Running characterizer %s with parameters %s\n",
			o.opts.Scheme.Info, name, o.formatPoint(point, varying, i == 0))
		log.Info("running sweep point",
			zap.Int("point", i),
			zap.Int("total", len(points)),
			zap.Strings("params", point))

		res, err := o.runPoint(ctx, name, decls, point)
		if err != nil {
			log.Error("sweep aborted", zap.Int("point", i), zap.Error(err))
			return nil, err
		}
		batch.Results = append(batch.Results, res)
	}

	log.Info("sweep complete", zap.Int("points", len(batch.Results)))
	return batch, nil
}

// runPoint performs one harness invocation, classifies its output, and
// decodes the resulting binary file into a characterization result tagged
// with this point's parameter values.
func (o *Orchestrator) runPoint(ctx context.Context, name string, decls []Param, point []string) (characterization.Result, error) {
	flags := make([]string, len(decls))
	for i, d := range decls {
		flags[i] = d.Name + "=" + point[i]
	}

	out, err := o.runner.Run(ctx, name, flags)
	if err != nil {
		return nil, err
	}

	verdict, err := classify.Classify(out, name, o.opts.Scheme)
	if err != nil {
		o.statusf("%s %v\n", o.opts.Scheme.Error, err)
		return nil, err
	}
	if err := verdict.Err(); err != nil {
		o.statusf("%s %v\n", o.opts.Scheme.Error, err)
		return nil, err
	}
	if o.opts.Verbose {
		for _, line := range verdict.HarnessLines {
			o.statusf("%s\n", line)
		}
	}

	path := filepath.Join(o.opts.OutputDir, name, resultFile)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}

	meta := characterization.Meta{
		Name:   name,
		Signed: verdict.Meta.Signed,
		Module: verdict.Meta.Module,
		Params: point,
	}
	res, err := characterization.Decode(verdict.Meta.Kind, buf, meta)
	if err != nil {
		o.statusf("%s %v\n", o.opts.Scheme.Error, err)
		return nil, err
	}
	o.log.Debug("decoded result",
		zap.String("kind", string(verdict.Meta.Kind)),
		zap.Int("width", res.Metadata().Width))
	return res, nil
}

// formatPoint joins a point's values, highlighting the varying positions
// on every run after the first.
func (o *Orchestrator) formatPoint(point []string, varying []int, first bool) string {
	if first {
		return strings.Join(point, " ")
	}
	isVarying := make(map[int]bool, len(varying))
	for _, i := range varying {
		isVarying[i] = true
	}
	parts := make([]string, len(point))
	for i, v := range point {
		if isVarying[i] {
			parts[i] = highlightStyle.Render(v)
		} else {
			parts[i] = v
		}
	}
	return strings.Join(parts, " ")
}

func (o *Orchestrator) statusf(format string, args ...interface{}) {
	fmt.Fprintf(o.opts.Status, format, args...)
}
