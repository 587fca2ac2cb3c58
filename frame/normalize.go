package frame

import (
	"math"
	"strconv"
)

// Normalize casts every column belonging to the categorical set to its label
// representation and cleans up null-induced float artifacts: a categorical
// value that reads "1.0" after a float upcast becomes "1", so "1" and "1.0"
// never denote distinct categories. Non-categorical columns keep numeric NaN
// for missing cells rather than an ambiguous null marker.
func Normalize(f *Frame) {
	for _, c := range f.cols {
		if !c.Categorical {
			continue
		}
		if c.Kind == Float {
			c.castToLabel()
			continue
		}
		for i, label := range c.labels {
			if !c.valid[i] {
				continue
			}
			c.labels[i] = normalizeNumericLabel(label)
		}
	}
}

func (c *Column) castToLabel() {
	c.labels = make([]string, len(c.floats))
	c.valid = make([]bool, len(c.floats))
	for i, v := range c.floats {
		if math.IsNaN(v) {
			continue
		}
		c.labels[i] = formatFloatLabel(v)
		c.valid[i] = true
	}
	c.floats = nil
	c.Kind = Label
}

// normalizeNumericLabel folds numeric-looking labels with an integral value
// back to integer text.
func normalizeNumericLabel(label string) string {
	v, err := strconv.ParseFloat(label, 64)
	if err != nil {
		return label
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return label
}
