// Package plot renders characterization results and their synthesized
// models as PNG charts next to the emitted code artifacts.
package plot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"emixa/internal/characterization"
	"emixa/internal/emit"
	"emixa/internal/model"
)

const (
	chartWidth  = 5 * vg.Inch
	chartHeight = 3 * vg.Inch
	histBins    = 16
)

// Render writes the charts appropriate to the result's variant and
// returns the written paths.
func Render(outDir string, res characterization.Result, m model.Model, diffIdx []int) ([]string, error) {
	meta := res.Metadata()
	dir := filepath.Join(outDir, meta.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	modname := emit.ModuleName(meta, diffIdx)

	switch r := res.(type) {
	case *characterization.Exhaustive:
		return renderExhaustive(dir, modname, r)
	case *characterization.Random2D:
		reg, ok := m.(*model.SegmentedRegression)
		if !ok {
			return nil, fmt.Errorf("random2d result paired with %T model", m)
		}
		return renderRandom2D(dir, modname, r, reg)
	case *characterization.Random3D:
		med, ok := m.(*model.SegmentedMed)
		if !ok {
			return nil, fmt.Errorf("random3d result paired with %T model", m)
		}
		return renderRandom3D(dir, modname, med)
	default:
		return nil, fmt.Errorf("unsupported characterization variant %T", res)
	}
}

// renderExhaustive draws the mean error per exact result and a histogram
// of all error magnitudes.
func renderExhaustive(dir, modname string, r *characterization.Exhaustive) ([]string, error) {
	meprPath := filepath.Join(dir, "mepr_"+modname+".png")
	if err := saveMeanErrorPerResult(meprPath, r); err != nil {
		return nil, err
	}
	histPath := filepath.Join(dir, "hist_"+modname+".png")
	if err := saveErrorHistogram(histPath, r); err != nil {
		return nil, err
	}
	return []string{meprPath, histPath}, nil
}

func saveMeanErrorPerResult(path string, r *characterization.Exhaustive) error {
	resWidth := r.Width
	if r.Module == characterization.ModuleMultiplier {
		resWidth = 2 * r.Width
	}
	opMask := int64(1<<r.Width) - 1
	resMask := int64(1<<resWidth) - 1

	lo, hi := int64(0), opMask
	if r.Signed {
		lo, hi = -(1 << (r.Width - 1)), (1<<(r.Width-1))-1
	}

	// Recompute the exact result per operand pair and bucket the grid's
	// errors by it.
	sums := make(map[int64]float64)
	counts := make(map[int64]int)
	for a := lo; a <= hi; a++ {
		for b := lo; b <= hi; b++ {
			var exact int64
			if r.Module == characterization.ModuleMultiplier {
				exact = (a * b) & resMask
			} else {
				exact = (a + b) & resMask
			}
			if r.Signed && exact>>(resWidth-1) == 1 {
				exact |= int64(-1) << resWidth
			}
			sums[exact] += float64(r.Errors[int(a&opMask)][int(b&opMask)])
			counts[exact]++
		}
	}

	keys := make([]int64, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	xys := make(plotter.XYs, len(keys))
	for i, k := range keys {
		xys[i].X = float64(k)
		xys[i].Y = sums[k] / float64(counts[k])
	}

	p := plot.New()
	p.Title.Text = "Mean error per result"
	p.X.Label.Text = exactLabel(r.Metadata())
	p.Y.Label.Text = "Mean error"
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	p.Add(plotter.NewGrid(), line)
	return p.Save(chartWidth, chartHeight, path)
}

func saveErrorHistogram(path string, r *characterization.Exhaustive) error {
	var values plotter.Values
	for _, row := range r.Errors {
		for _, e := range row {
			values = append(values, float64(e))
		}
	}

	p := plot.New()
	p.Title.Text = "Error distribution"
	p.X.Label.Text = "Error"
	p.Y.Label.Text = "Count"
	hist, err := plotter.NewHist(values, histBins)
	if err != nil {
		return err
	}
	p.Add(hist)
	return p.Save(chartWidth, chartHeight, path)
}

// renderRandom2D draws the per-key mean sampled error with the fitted
// segment lines laid over it.
func renderRandom2D(dir, modname string, r *characterization.Random2D, reg *model.SegmentedRegression) ([]string, error) {
	keys := make([]int64, 0, len(r.Errors))
	for k := range r.Errors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var xys plotter.XYs
	for _, k := range keys {
		samples := r.Errors[k]
		if len(samples) == 0 {
			continue
		}
		var sum float64
		for _, s := range samples {
			sum += float64(s)
		}
		xys = append(xys, plotter.XY{X: float64(k), Y: sum / float64(len(samples))})
	}

	p := plot.New()
	p.Title.Text = "Segmented regression fit"
	p.X.Label.Text = exactLabel(r.Metadata())
	p.Y.Label.Text = "Mean error"
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	p.Add(plotter.NewGrid(), scatter)

	shift := r.Width - model.DomainBits
	if shift < 0 {
		shift = 0
	}
	for dom, seg := range reg.Segments {
		x0 := float64(int64(dom) << shift)
		x1 := float64(int64(dom+1)<<shift - 1)
		line, err := plotter.NewLine(plotter.XYs{
			{X: x0, Y: seg.Slope*x0 + seg.Intercept},
			{X: x1, Y: seg.Slope*x1 + seg.Intercept},
		})
		if err != nil {
			return nil, err
		}
		p.Add(line)
	}

	path := filepath.Join(dir, "fit_"+modname+".png")
	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// renderRandom3D draws the mean error distance of every operand-domain
// cell as a bar chart.
func renderRandom3D(dir, modname string, med *model.SegmentedMed) ([]string, error) {
	var values plotter.Values
	var labels []string
	for a := 0; a < model.NumDomains; a++ {
		for b := 0; b < model.NumDomains; b++ {
			values = append(values, med.Cells[a][b])
			labels = append(labels, fmt.Sprintf("%d,%d", a, b))
		}
	}

	p := plot.New()
	p.Title.Text = "Mean error distance per domain cell"
	p.X.Label.Text = "Operand domains (A,B)"
	p.Y.Label.Text = "MED"
	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return nil, err
	}
	p.Add(bars)
	p.NominalX(labels...)

	path := filepath.Join(dir, "med_"+modname+".png")
	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func exactLabel(meta characterization.Meta) string {
	if meta.Module == characterization.ModuleMultiplier {
		return "Exact product"
	}
	return "Exact sum"
}
