// Package emit renders synthesized error models as importable Python
// operator classes, one file per sweep result. The emitted class wraps an
// integer operand and applies the model's correction inside __add__ or
// __mul__, so downstream scripts can drop an approximate operator into
// plain arithmetic expressions.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"emixa/internal/characterization"
	"emixa/internal/model"
)

// ModuleName derives the artifact name from the module kind and the
// parameter values that differ across the batch, so every result of a
// sweep gets a distinct file.
func ModuleName(meta characterization.Meta, diffIdx []int) string {
	var sb strings.Builder
	sb.WriteString(string(meta.Module))
	for _, i := range diffIdx {
		if i < len(meta.Params) {
			sb.WriteString("_")
			sb.WriteString(meta.Params[i])
		}
	}
	return sb.String()
}

// WriteModule renders the model as Python source under
// <outDir>/<test name>/<module name>.py and returns the written path.
func WriteModule(outDir string, m model.Model, diffIdx []int) (string, error) {
	meta := m.Metadata()
	modname := ModuleName(meta, diffIdx)

	var src string
	switch mm := m.(type) {
	case *model.ExactLookup:
		src = genExactLookup(mm, modname)
	case *model.SegmentedRegression:
		src = genRegression(mm, modname)
	case *model.SegmentedMed:
		src = genMed(mm, modname)
	default:
		return "", fmt.Errorf("unsupported model variant %T", m)
	}

	dir := filepath.Join(outDir, meta.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, modname+".py")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// bounds returns the representable operand range and mask for the width.
func bounds(meta characterization.Meta) (min, max, mask int64) {
	mask = (1 << meta.Width) - 1
	if meta.Signed {
		return -(1 << (meta.Width - 1)), (1 << (meta.Width - 1)) - 1, mask
	}
	return 0, mask, mask
}

// opNames maps the module kind to the Python dunder suffix and operator.
func opNames(meta characterization.Meta) (name, symbol string) {
	if meta.Module == characterization.ModuleMultiplier {
		return "mul", "*"
	}
	return "add", "+"
}

// signExtend emits the lines that pull a wrapped positive result back into
// the signed range; unsigned operators return the masked value directly.
func signExtend(meta characterization.Meta, indent string) string {
	if !meta.Signed {
		return indent + "return pos"
	}
	return fmt.Sprintf("%ssext = -(pos >> %d) << %d\n%sreturn sext | pos",
		indent, meta.Width-1, meta.Width, indent)
}

func pyFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func classHeader(modname string, min, max, mask int64) string {
	return fmt.Sprintf(`class %s:
    __array_ufunc__ = None
    __min  = %d
    __max  = %d
    __mask = %d

    def __init__(self, x: int):
        assert self.__min <= x <= self.__max
        self.x = x
`, modname, min, max, mask)
}

func genExactLookup(m *model.ExactLookup, modname string) string {
	min, max, mask := bounds(m.Meta)
	name, symbol := opNames(m.Meta)

	rows := make([]string, len(m.Errors))
	for i, row := range m.Errors {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = strconv.FormatInt(v, 10)
		}
		rows[i] = "[" + strings.Join(cells, ", ") + "]"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n__errors = [%s]\n\n", strings.Join(rows, ",\n"))
	sb.WriteString(classHeader(modname, min, max, mask))
	for _, dunder := range []string{name, "r" + name} {
		lhs, rhs := "self.x", "y"
		if strings.HasPrefix(dunder, "r") {
			lhs, rhs = "y", "self.x"
		}
		fmt.Fprintf(&sb, `
    def __%s__(self, y: int):
        assert self.__min <= y <= self.__max
        pos  = (%s %s %s + __errors[self.x][y]) & self.__mask
%s
`, dunder, lhs, symbol, rhs, signExtend(m.Meta, "        "))
	}
	return sb.String()
}

func genRegression(m *model.SegmentedRegression, modname string) string {
	min, max, mask := bounds(m.Meta)
	name, symbol := opNames(m.Meta)

	weights := make([]string, len(m.Segments))
	for i, s := range m.Segments {
		weights[i] = fmt.Sprintf("[%s, %s]", pyFloat(s.Slope), pyFloat(s.Intercept))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n__model_weights = [%s]\n\n", strings.Join(weights, ",\n"))
	sb.WriteString(classHeader(modname, min, max, mask))
	fmt.Fprintf(&sb, `
    __dom_mask = %d
    __dom_shft = %d
`, model.NumDomains-1, m.Width-model.DomainBits)
	for _, dunder := range []string{name, "r" + name} {
		lhs, rhs := "self.x", "y"
		if strings.HasPrefix(dunder, "r") {
			lhs, rhs = "y", "self.x"
		}
		fmt.Fprintf(&sb, `
    def __%s__(self, y: int):
        assert self.__min <= y <= self.__max
        exact = (%s %s %s) & self.__mask
        wghts = __model_weights[(exact >> self.__dom_shft) & self.__dom_mask]
        med   = int(wghts[0] * exact + wghts[1])
        pos   = (exact + med) & self.__mask
%s
`, dunder, lhs, symbol, rhs, signExtend(m.Meta, "        "))
	}
	return sb.String()
}

func genMed(m *model.SegmentedMed, modname string) string {
	min, max, mask := bounds(m.Meta)
	name, symbol := opNames(m.Meta)

	rows := make([]string, len(m.Cells))
	for i, row := range m.Cells {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = pyFloat(v)
		}
		rows[i] = "[" + strings.Join(cells, ", ") + "]"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n__meds = [%s]\n\n", strings.Join(rows, ",\n"))
	sb.WriteString(classHeader(modname, min, max, mask))
	fmt.Fprintf(&sb, `
    __dom_mask = %d
    __dom_shft = %d
`, model.NumDomains-1, m.Width-model.DomainBits)
	for _, dunder := range []string{name, "r" + name} {
		lhs, rhs := "self.x", "y"
		if strings.HasPrefix(dunder, "r") {
			lhs, rhs = "y", "self.x"
		}
		fmt.Fprintf(&sb, `
    def __%s__(self, y: int):
        assert self.__min <= y <= self.__max
        exact = (%s %s %s) & self.__mask
        med   = __meds[(self.x >> self.__dom_shft) & self.__dom_mask][(y >> self.__dom_shft) & self.__dom_mask]
        pos   = int(exact + med) & self.__mask
%s
`, dunder, lhs, symbol, rhs, signExtend(m.Meta, "        "))
	}
	return sb.String()
}
