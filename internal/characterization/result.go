// Package characterization defines the in-memory shapes of harness
// characterization results and the decoder for the binary result protocol.
// A result is one of three variants (exhaustive, random 2D, random 3D)
// sharing common metadata; results are immutable after decoding.
package characterization

import (
	"fmt"
	"strings"
)

// Kind identifies the characterization flow that produced a result.
type Kind string

const (
	KindExhaustive Kind = "exhaustive"
	KindRandom2D   Kind = "random2d"
	KindRandom3D   Kind = "random3d"
)

// ParseKind validates a characterization kind declared by the harness.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindExhaustive, KindRandom2D, KindRandom3D:
		return k, nil
	default:
		return "", fmt.Errorf("unknown characterization kind %q", s)
	}
}

// ModuleKind identifies the arithmetic module under characterization.
type ModuleKind string

const (
	ModuleAdder      ModuleKind = "adder"
	ModuleMultiplier ModuleKind = "multiplier"
)

// Meta carries the metadata common to all result variants. Params holds the
// parameter values bound for this run in declared positional order; the
// order is stable across every point of a sweep batch.
type Meta struct {
	Name   string
	Signed bool
	Width  int
	Module ModuleKind
	Params []string
}

// Metadata implements the common part of the Result interface for every
// variant that embeds Meta.
func (m Meta) Metadata() Meta { return m }

// Result is the tagged union over the three characterization variants.
type Result interface {
	Kind() Kind
	Metadata() Meta
}

// Exhaustive holds a complete 2^w x 2^w error grid, indexed as
// Errors[a][b] for operands a and b.
type Exhaustive struct {
	Meta
	Errors [][]int64
}

func (e *Exhaustive) Kind() Kind { return KindExhaustive }

// Random2D maps each observed result value to the ordered list of error
// samples recorded for it.
type Random2D struct {
	Meta
	Errors map[int64][]int64
}

func (r *Random2D) Kind() Kind { return KindRandom2D }

// OperandPair keys a Random3D sample by its two operand values.
type OperandPair struct {
	A, B int64
}

// Random3D maps each sampled operand pair to a representative error value.
type Random3D struct {
	Meta
	Errors map[OperandPair]int64
}

func (r *Random3D) Kind() Kind { return KindRandom3D }

// Describe renders a one-line human-readable summary of a result.
func Describe(res Result) string {
	m := res.Metadata()
	return fmt.Sprintf("%s characterization for test %s of module %s with parameters (%s)",
		res.Kind(), m.Name, m.Module, strings.Join(m.Params, ", "))
}

// DiffParamIndices reports which parameter positions take more than one
// value across a batch. Downstream consumers use these positions to name
// per-result artifacts distinctly.
func DiffParamIndices(results []Result) []int {
	if len(results) == 0 {
		return nil
	}
	first := results[0].Metadata().Params
	var diff []int
	for i := range first {
		seen := make(map[string]struct{}, len(results))
		for _, res := range results {
			params := res.Metadata().Params
			if i < len(params) {
				seen[params[i]] = struct{}{}
			}
		}
		if len(seen) > 1 {
			diff = append(diff, i)
		}
	}
	return diff
}
