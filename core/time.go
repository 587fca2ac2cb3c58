package core

import (
	"math"
	"time"
)

// ToTime converts the cell representations a store may use for the time
// column (epoch milliseconds as integer or float, RFC3339 text, or a
// time.Time) into a UTC timestamp.
func ToTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case int64:
		return time.UnixMilli(x).UTC(), true
	case int:
		return time.UnixMilli(int64(x)).UTC(), true
	case float64:
		if math.IsNaN(x) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(x)).UTC(), true
	case string:
		ts, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return time.Time{}, false
		}
		return ts.UTC(), true
	}
	return time.Time{}, false
}
