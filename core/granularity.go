package core

// Granularity is one of the fixed pre-aggregated resolutions the store keeps
// per measurement. The measurement queried for table T at granularity G is
// named "T_G" (e.g. "ping_1s").
type Granularity string

const (
	Gran10ms Granularity = "10ms"
	Gran1s   Granularity = "1s"
	Gran1m   Granularity = "1m"
	Gran30m  Granularity = "30m"
)

// Granularities lists all registered tiers ordered finest to coarsest.
var Granularities = []Granularity{Gran10ms, Gran1s, Gran1m, Gran30m}

func (g Granularity) String() string {
	return string(g)
}

// IsValid reports whether g is a registered tier.
func (g Granularity) IsValid() bool {
	for _, known := range Granularities {
		if g == known {
			return true
		}
	}
	return false
}

// Measurement returns the store measurement name for table at this tier.
func (g Granularity) Measurement(table string) string {
	return table + "_" + string(g)
}
