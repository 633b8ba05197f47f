package topology

import (
	"cmp"
	"errors"
	"sort"
)

// ErrZeroBuckets is returned by ComputeOptimum when bucketCount is 0.
var ErrZeroBuckets = errors.New("topology: bucket count must be greater than zero")

// ComputeOptimum splits total units across bucketCount buckets as evenly
// as possible: total = bucketCount*quotient + remainder, with
// 0 <= remainder < bucketCount. Every bucket's target load is either
// quotient or quotient+1; exactly remainder buckets carry the extra unit.
func ComputeOptimum(bucketCount, total int) (quotient, remainder int, err error) {
	if bucketCount == 0 {
		return 0, 0, ErrZeroBuckets
	}
	return total / bucketCount, total % bucketCount, nil
}

// SeparateGroups splits items into over- and under-loaded slices relative
// to the optimum implied by total and len(items), per spec.md section 4.1:
//
//   - over: items whose load exceeds quotient+1, plus items at exactly
//     quotient+1 beyond the first `remainder` of them (ordered by load
//     descending, ties broken ascending by keyFn) -- those first
//     `remainder` items at quotient+1 are balanced.
//   - under: items whose load is strictly below quotient.
//
// Items at quotient, or at quotient+1 within the allowed count, are
// balanced and appear in neither slice.
func SeparateGroups[T any, K cmp.Ordered](items []T, loadFn func(T) int, keyFn func(T) K, total int) (over, under []T) {
	quotient, remainder, err := ComputeOptimum(len(items), total)
	if err != nil {
		return nil, nil
	}

	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := loadFn(sorted[i]), loadFn(sorted[j])
		if li != lj {
			return li > lj
		}
		return cmp.Less(keyFn(sorted[i]), keyFn(sorted[j]))
	})

	atCeilingSeen := 0
	for _, item := range sorted {
		load := loadFn(item)
		switch {
		case load > quotient+1:
			over = append(over, item)
		case load == quotient+1:
			if atCeilingSeen < remainder {
				atCeilingSeen++
				// Balanced; included in neither slice.
			} else {
				over = append(over, item)
			}
		case load < quotient:
			under = append(under, item)
		}
		// load == quotient is balanced; included in neither slice.
	}

	return over, under
}
