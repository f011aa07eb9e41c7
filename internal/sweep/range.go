// Package sweep expands parameter arguments into a combinatorial sweep and
// drives the external characterization harness once per sweep point,
// classifying each invocation's output and decoding its binary result file.
package sweep

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Malformed sweep argument errors. Both are fatal to range expansion and
// are reported with the offending token.
var (
	ErrInvalidRange          = errors.New("invalid range argument")
	ErrInvalidRangeComponent = errors.New("invalid range component")
)

// Range is an inclusive integer sequence from Start to Stop by Step.
type Range struct {
	Start, Stop, Step int
}

// IsRange reports whether a token uses the start:stop[:step] form. Tokens
// without the separator are literal scalars.
func IsRange(token string) bool {
	return strings.Contains(token, ":")
}

// ParseRange parses start:stop or start:stop:step, all integers with
// optional leading sign. The two-part form infers direction from stop
// versus start with an implicit step of one; the three-part form rejects a
// step whose sign contradicts that direction.
func ParseRange(token string) (Range, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, token)
	}

	labels := [3]string{"start", "stop", "step"}
	var vals [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %s part %q in %q", ErrInvalidRangeComponent, labels[i], part, token)
		}
		vals[i] = v
	}

	start, stop := vals[0], vals[1]
	if len(parts) == 2 {
		step := 1
		if stop < start {
			step = -1
		}
		return Range{Start: start, Stop: stop, Step: step}, nil
	}

	step := vals[2]
	if step == 0 || (stop < start && step > 0) || (stop > start && step < 0) {
		return Range{}, fmt.Errorf("%w: range(%d, %d, %d)", ErrInvalidRange, start, stop, step)
	}
	return Range{Start: start, Stop: stop, Step: step}, nil
}

// Values enumerates the range, inclusive of Stop when the step lands on it.
func (r Range) Values() []int {
	var out []int
	if r.Step > 0 {
		for v := r.Start; v <= r.Stop; v += r.Step {
			out = append(out, v)
		}
	} else {
		for v := r.Start; v >= r.Stop; v += r.Step {
			out = append(out, v)
		}
	}
	return out
}
