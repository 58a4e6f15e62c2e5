package selection

import "math/rand/v2"

// Weighted pairs an item with its relative selection weight.
type Weighted[T any] struct {
	Item   T   `json:"item"`
	Weight int `json:"weight"`
}

// Choose performs one independent weighted draw over items, where
// P(item i) = weight_i / Σweight. It returns false when items is empty or no
// entry has a positive weight. Entries with weight <= 0 are never chosen.
//
// If r is nil the process-global generator is used.
func Choose[T any](r *rand.Rand, items []Weighted[T]) (T, bool) {
	var zero T

	total := 0
	for _, w := range items {
		if w.Weight > 0 {
			total += w.Weight
		}
	}
	if total == 0 {
		return zero, false
	}

	var pick int
	if r != nil {
		pick = r.IntN(total)
	} else {
		pick = rand.IntN(total)
	}

	for _, w := range items {
		if w.Weight <= 0 {
			continue
		}
		if pick < w.Weight {
			return w.Item, true
		}
		pick -= w.Weight
	}

	// unreachable: pick < total
	return zero, false
}
