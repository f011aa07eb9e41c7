package sweep

import "strconv"

// rangeSlot is one range-typed argument position and its expanded values.
type rangeSlot struct {
	index  int
	values []int
}

// expandPoints turns the bound argument tokens into one value assignment
// per sweep point: the Cartesian product over the range-typed positions
// with literal positions held fixed. Points are emitted as nested loops in
// declared positional order, the last-declared range varying fastest.
// The returned indices are the range-typed positions.
func expandPoints(bound []string) ([][]string, []int, error) {
	var slots []rangeSlot
	for i, tok := range bound {
		if !IsRange(tok) {
			continue
		}
		r, err := ParseRange(tok)
		if err != nil {
			return nil, nil, err
		}
		slots = append(slots, rangeSlot{index: i, values: r.Values()})
	}

	if len(slots) == 0 {
		point := make([]string, len(bound))
		copy(point, bound)
		return [][]string{point}, nil, nil
	}

	total := 1
	rangeIndices := make([]int, len(slots))
	for i, s := range slots {
		total *= len(s.values)
		rangeIndices[i] = s.index
	}

	points := make([][]string, 0, total)
	counters := make([]int, len(slots))
	for {
		point := make([]string, len(bound))
		copy(point, bound)
		for j, s := range slots {
			point[s.index] = strconv.Itoa(s.values[counters[j]])
		}
		points = append(points, point)

		// Odometer increment from the last slot so it varies fastest.
		j := len(counters) - 1
		for ; j >= 0; j-- {
			counters[j]++
			if counters[j] < len(slots[j].values) {
				break
			}
			counters[j] = 0
		}
		if j < 0 {
			return points, rangeIndices, nil
		}
	}
}
