package core

// AggregationFunc names the store-side aggregation applied to a column when
// a resample rule is in effect. Grouping-key columns never carry one.
type AggregationFunc string

const (
	AggMean AggregationFunc = "mean"
	AggSum  AggregationFunc = "sum"
	AggMode AggregationFunc = "mode"
	AggMax  AggregationFunc = "max"
)

func (agg AggregationFunc) String() string {
	return string(agg)
}

// IsValid reports whether agg is one of the registered aggregation functions.
func (agg AggregationFunc) IsValid() bool {
	switch agg {
	case AggMean, AggSum, AggMode, AggMax:
		return true
	}
	return false
}

// Categorical reports whether a column tagged with agg holds label-like
// values. Mode-aggregated columns are the categorical ones.
func (agg AggregationFunc) Categorical() bool {
	return agg == AggMode
}
