// Package model synthesizes closed-form error-correction models from
// characterization results: an exact lookup table for exhaustive data,
// segmented linear-regression coefficients for random 2D data, and a
// segmented mean-error-distance table for random 3D data.
package model

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"emixa/internal/characterization"
)

// Domain segmentation constants. The operand or result space is split by
// its high-order bits into a fixed number of equal sub-ranges; the count is
// configuration, never derived from data.
const (
	DomainBits = 2
	NumDomains = 1 << DomainBits
	domainMask = NumDomains - 1
)

// Model is the tagged union over the three error-model variants. Models
// are derived once per characterization result and immutable thereafter.
type Model interface {
	Metadata() characterization.Meta
}

// ExactLookup reuses the full error grid of an exhaustive
// characterization as-is; no fitting is involved.
type ExactLookup struct {
	characterization.Meta
	Errors [][]int64
}

// Segment holds the linear fit over one result-value domain.
type Segment struct {
	Slope, Intercept float64
}

// SegmentedRegression holds one linear fit per result-value domain, using
// the exact pre-error result value as the independent variable and the
// per-key sample mean as the dependent one.
type SegmentedRegression struct {
	characterization.Meta
	Segments [NumDomains]Segment
}

// SegmentedMed holds the mean error distance per (A-domain, B-domain)
// cell of the operand space.
type SegmentedMed struct {
	characterization.Meta
	Cells [NumDomains][NumDomains]float64
}

// Synthesize produces the error model matching the result's variant.
func Synthesize(res characterization.Result, log *zap.Logger) (Model, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch r := res.(type) {
	case *characterization.Exhaustive:
		return &ExactLookup{Meta: r.Meta, Errors: r.Errors}, nil
	case *characterization.Random2D:
		return &SegmentedRegression{Meta: r.Meta, Segments: fitSegments(r, log)}, nil
	case *characterization.Random3D:
		return &SegmentedMed{Meta: r.Meta, Cells: fitCells(r, log)}, nil
	default:
		return nil, fmt.Errorf("unsupported characterization variant %T", res)
	}
}

// domainOf places a value in one of the fixed domains by its DomainBits
// most significant bits relative to the operand width.
func domainOf(v int64, width int) int {
	shift := width - DomainBits
	if shift < 0 {
		shift = 0
	}
	return int((v >> shift) & domainMask)
}

// fitSegments groups the observed result keys by domain and fits a
// single-variable linear regression of mean sampled error against the key
// value within each. Keys are visited in sorted order so identical data
// always produces identical coefficients. A domain with no observed keys
// gets a zero fit; the fallback is logged rather than failing the batch,
// since sparse sampling at the extremes of the result space is routine.
func fitSegments(r *characterization.Random2D, log *zap.Logger) [NumDomains]Segment {
	keys := make([]int64, 0, len(r.Errors))
	for k := range r.Errors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var xs, ys [NumDomains][]float64
	for _, k := range keys {
		samples := r.Errors[k]
		if len(samples) == 0 {
			continue
		}
		var sum float64
		for _, s := range samples {
			sum += float64(s)
		}
		dom := domainOf(k, r.Width)
		xs[dom] = append(xs[dom], float64(k))
		ys[dom] = append(ys[dom], sum/float64(len(samples)))
	}

	var segments [NumDomains]Segment
	for dom := 0; dom < NumDomains; dom++ {
		if len(xs[dom]) == 0 {
			log.Warn("no samples in result domain, using zero fit",
				zap.String("test", r.Name), zap.Int("domain", dom))
			continue
		}
		slope, intercept := leastSquares(xs[dom], ys[dom])
		segments[dom] = Segment{Slope: slope, Intercept: intercept}
	}
	return segments
}

// leastSquares fits y = slope*x + intercept by ordinary least squares.
// With a single distinct x the fit degenerates to the mean.
func leastSquares(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return 0, meanY
	}
	slope = sxy / sxx
	return slope, meanY - slope*meanX
}

// fitCells partitions the operand space into a NumDomains x NumDomains
// grid and computes the mean of all observed errors per cell. Pairs are
// visited in sorted order for deterministic float accumulation. Empty
// cells get a zero mean, logged as a fallback.
func fitCells(r *characterization.Random3D, log *zap.Logger) [NumDomains][NumDomains]float64 {
	pairs := make([]characterization.OperandPair, 0, len(r.Errors))
	for p := range r.Errors {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})

	var sums [NumDomains][NumDomains]float64
	var counts [NumDomains][NumDomains]int
	for _, p := range pairs {
		adom := domainOf(p.A, r.Width)
		bdom := domainOf(p.B, r.Width)
		sums[adom][bdom] += float64(r.Errors[p])
		counts[adom][bdom]++
	}

	var cells [NumDomains][NumDomains]float64
	for a := 0; a < NumDomains; a++ {
		for b := 0; b < NumDomains; b++ {
			if counts[a][b] == 0 {
				log.Warn("no samples in operand domain cell, using zero mean",
					zap.String("test", r.Name), zap.Int("a_domain", a), zap.Int("b_domain", b))
				continue
			}
			cells[a][b] = sums[a][b] / float64(counts[a][b])
		}
	}
	return cells
}
