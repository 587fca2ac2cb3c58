package frame

// Interpolation methods. Directional fills apply to every column type;
// numeric methods apply to numeric columns and never extrapolate past a
// group's first or last observed value.
const (
	InterpLinear  = "linear"
	InterpNearest = "nearest"
	InterpFFill   = "ffill"
	InterpBFill   = "bfill"
)

// ValidInterpolation reports whether method is supported.
func ValidInterpolation(method string) bool {
	switch method {
	case InterpLinear, InterpNearest, InterpFFill, InterpBFill:
		return true
	}
	return false
}

// Interpolate fills gaps within each identity group. Interpolating across
// different physical entities is invalid, so rows are grouped by the
// available identity columns first. Categorical columns forward-fill unless
// a directional method applies uniformly. Rows left entirely null are
// dropped, and the time index is restored and re-sorted.
func Interpolate(f *Frame, method string) *Frame {
	if f == nil || f.NumRows() == 0 {
		return f
	}
	f.SortByTime()

	var keyCols []*Column
	for _, c := range f.cols {
		if c.Key {
			keyCols = append(keyCols, c)
		}
	}

	groups := groupRowsBy(f, keyCols)
	for _, idxs := range groups {
		for _, c := range f.cols {
			if c.Key {
				continue
			}
			switch method {
			case InterpFFill:
				forwardFill(c, idxs)
			case InterpBFill:
				backwardFill(c, idxs)
			default:
				if c.Kind == Float && !c.Categorical {
					interpolateNumeric(c, idxs, method)
				} else {
					forwardFill(c, idxs)
				}
			}
		}
	}

	var keep []int
	for i := 0; i < f.NumRows(); i++ {
		if !rowAllNull(f, i) {
			keep = append(keep, i)
		}
	}
	out := f.selectRows(keep)
	out.SortByTime()
	return out
}

// groupRowsBy partitions row indices by the label tuple of the given
// columns, preserving row order within each group.
func groupRowsBy(f *Frame, cols []*Column) [][]int {
	if len(cols) == 0 {
		all := make([]int, f.NumRows())
		for i := range all {
			all[i] = i
		}
		return [][]int{all}
	}
	byKey := make(map[string][]int)
	var order []string
	for i := 0; i < f.NumRows(); i++ {
		key := ""
		for _, c := range cols {
			if c.IsNull(i) {
				key += "\x00\x1f"
				continue
			}
			key += c.Label(i) + "\x1f"
		}
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], i)
	}
	groups := make([][]int, 0, len(order))
	for _, k := range order {
		groups = append(groups, byKey[k])
	}
	return groups
}

func forwardFill(c *Column, idxs []int) {
	last := -1
	for _, i := range idxs {
		if !c.IsNull(i) {
			last = i
			continue
		}
		if last >= 0 {
			c.copyCell(i, last)
		}
	}
}

func backwardFill(c *Column, idxs []int) {
	next := -1
	for k := len(idxs) - 1; k >= 0; k-- {
		i := idxs[k]
		if !c.IsNull(i) {
			next = i
			continue
		}
		if next >= 0 {
			c.copyCell(i, next)
		}
	}
}

// interpolateNumeric fills interior gaps between two observed values. With
// the nearest method an equidistant gap cell takes the earlier value.
func interpolateNumeric(c *Column, idxs []int, method string) {
	var known []int // positions within idxs
	for pos, i := range idxs {
		if !c.IsNull(i) {
			known = append(known, pos)
		}
	}
	if len(known) < 2 {
		return
	}
	for k := 0; k < len(known)-1; k++ {
		a, b := known[k], known[k+1]
		if b-a < 2 {
			continue
		}
		va := c.floats[idxs[a]]
		vb := c.floats[idxs[b]]
		for pos := a + 1; pos < b; pos++ {
			switch method {
			case InterpNearest:
				if pos-a <= b-pos {
					c.floats[idxs[pos]] = va
				} else {
					c.floats[idxs[pos]] = vb
				}
			default: // linear
				frac := float64(pos-a) / float64(b-a)
				c.floats[idxs[pos]] = va + (vb-va)*frac
			}
		}
	}
}

// rowAllNull reports whether every non-key column of row i is missing.
func rowAllNull(f *Frame, i int) bool {
	for _, c := range f.cols {
		if c.Key {
			continue
		}
		if !c.IsNull(i) {
			return false
		}
	}
	return true
}
