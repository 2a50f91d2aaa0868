package returns

import (
	"sort"
	"time"
)

// Locate finds the row to pair with target among dates[lowerBound:].
// dates must be sorted ascending. An exact match wins (first occurrence);
// otherwise the latest date strictly before target is chosen. A target past
// the last date, or with nothing before it, is unmatched.
func Locate(dates []time.Time, target time.Time, lowerBound int) (int, bool) {
	if lowerBound < 0 {
		lowerBound = 0
	}
	if lowerBound >= len(dates) {
		return 0, false
	}

	window := dates[lowerBound:]
	if target.After(window[len(window)-1]) {
		return 0, false
	}

	// first index whose date is not before target
	k := sort.Search(len(window), func(i int) bool {
		return !window[i].Before(target)
	})
	if k < len(window) && window[k].Equal(target) {
		return lowerBound + k, true
	}
	if k == 0 {
		return 0, false
	}
	return lowerBound + k - 1, true
}
