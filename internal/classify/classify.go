package classify

import (
	"errors"
	"fmt"
	"strings"

	"emixa/internal/characterization"
)

// Markers recognized in captured harness output. The first three are the
// build tool's conventions; harnessTag prefixes every line the
// characterizer itself emits.
const (
	noTestsMarker     = "No tests to run"
	notExecutedMarker = "No tests were executed"
	buildErrorMarker  = "[error]"
	harnessTag        = "emixa-"
	harnessInfoTag    = "emixa-info"
	harnessErrorTag   = "emixa-error"
)

// didNotExecuteWindow is how many lines of context are extracted when the
// harness reports that zero tests were executed.
const didNotExecuteWindow = 4

// Classification errors. Every one of them is fatal to the whole sweep
// batch, not just the current point, because later points reuse the same
// compiled harness.
var (
	ErrNotFound          = errors.New("the specified test does not exist")
	ErrDidNotExecute     = errors.New("the specified test could not be executed")
	ErrCompileError      = errors.New("the specified test does not compile")
	ErrRuntimeError      = errors.New("the characterizer reported errors")
	ErrUnsupportedModule = errors.New("unsupported module kind")
)

// Status is the category of one harness invocation's outcome.
type Status int

const (
	StatusSuccess Status = iota
	StatusNotFound
	StatusDidNotExecute
	StatusCompileError
	StatusRuntimeError
)

// Metadata is the result declaration parsed from the first harness info
// line on success.
type Metadata struct {
	Kind   characterization.Kind
	Signed bool
	Module characterization.ModuleKind
}

// Verdict is the structured outcome of classifying one invocation.
type Verdict struct {
	Status      Status
	Meta        Metadata // valid only when Status == StatusSuccess
	Diagnostics string   // relabeled diagnostic block for failure statuses
	// HarnessLines are all characterizer-emitted lines, relabeled; passed
	// through verbatim when verbose reporting is requested.
	HarnessLines []string
}

// Err maps a failure status to its sentinel error, wrapped with the
// extracted diagnostics. Success yields nil.
func (v Verdict) Err() error {
	switch v.Status {
	case StatusNotFound:
		return ErrNotFound
	case StatusDidNotExecute:
		return fmt.Errorf("%w:\n%s", ErrDidNotExecute, v.Diagnostics)
	case StatusCompileError:
		return fmt.Errorf("%w:\n%s", ErrCompileError, v.Diagnostics)
	case StatusRuntimeError:
		return fmt.Errorf("%w:\n%s", ErrRuntimeError, v.Diagnostics)
	default:
		return nil
	}
}

// Classify inspects the combined output of one harness invocation.
// Existence is checked before anything else, so output carrying both a
// no-tests marker and compile diagnostics still classifies as not found.
// A non-nil error means the output was nominally successful but declared
// metadata we cannot act on; it aborts the batch like a failure status.
func Classify(output, name string, scheme Scheme) (Verdict, error) {
	lines := strings.Split(output, "\n")
	harnessLines := filterLines(lines, harnessTag)

	v := Verdict{HarnessLines: relabelAll(harnessLines, scheme)}

	switch {
	case strings.Contains(output, noTestsMarker):
		v.Status = StatusNotFound
		return v, nil

	case strings.Contains(output, notExecutedMarker):
		v.Status = StatusDidNotExecute
		v.Diagnostics = Relabel(strings.Join(windowAt(lines, name, didNotExecuteWindow), "\n"), scheme)
		return v, nil

	case strings.Contains(output, harnessErrorTag):
		v.Status = StatusRuntimeError
		idx := firstIndex(harnessLines, harnessErrorTag)
		v.Diagnostics = Relabel(strings.Join(harnessLines[idx:], "\n"), scheme)
		return v, nil

	case strings.Contains(output, buildErrorMarker):
		v.Status = StatusCompileError
		errLines := filterLines(lines, buildErrorMarker)
		if caret := firstIndex(errLines, "^"); caret >= 0 {
			errLines = errLines[:caret+1]
		}
		v.Diagnostics = Relabel(strings.Join(errLines, "\n"), scheme)
		return v, nil
	}

	meta, err := parseMetadata(lines)
	if err != nil {
		return v, err
	}
	v.Status = StatusSuccess
	v.Meta = meta
	return v, nil
}

// parseMetadata reads the declaration line the characterizer prints first:
// three whitespace-separated fields after the info tag giving the
// characterization kind, the operand signedness, and the module kind.
func parseMetadata(lines []string) (Metadata, error) {
	idx := firstIndex(lines, harnessInfoTag)
	if idx < 0 {
		return Metadata{}, errors.New("harness output carries no result declaration line")
	}
	fields := strings.Fields(lines[idx])
	tag := firstIndex(fields, harnessInfoTag)
	if len(fields) < tag+4 {
		return Metadata{}, fmt.Errorf("malformed result declaration line %q", lines[idx])
	}
	kind, err := characterization.ParseKind(fields[tag+1])
	if err != nil {
		return Metadata{}, err
	}
	meta := Metadata{
		Kind:   kind,
		Signed: strings.EqualFold(fields[tag+2], "signed"),
	}
	switch module := characterization.ModuleKind(strings.ToLower(fields[tag+3])); module {
	case characterization.ModuleAdder, characterization.ModuleMultiplier:
		meta.Module = module
	default:
		return Metadata{}, fmt.Errorf("%w: %q, only adders and multipliers are supported", ErrUnsupportedModule, module)
	}
	return meta, nil
}

func filterLines(lines []string, substr string) []string {
	var out []string
	for _, l := range lines {
		if strings.Contains(l, substr) {
			out = append(out, l)
		}
	}
	return out
}

func firstIndex(lines []string, substr string) int {
	for i, l := range lines {
		if strings.Contains(l, substr) {
			return i
		}
	}
	return -1
}

// windowAt returns up to n lines starting at the first line mentioning
// needle, or the head of the input when no line does.
func windowAt(lines []string, needle string, n int) []string {
	start := firstIndex(lines, needle)
	if start < 0 {
		start = 0
	}
	end := start + n
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}

func relabelAll(lines []string, scheme Scheme) []string {
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = Relabel(l, scheme)
	}
	return out
}
