package propagation

import "math/rand"

// Sample selects the extra frame indices a preview run emits alongside the
// annotated frame: clamp(n-1, 0, total-1) indices drawn uniformly without
// replacement from every index except annotated. The rng is injectable so
// tests can pin the sample set; production passes a time-seeded source.
func Sample(rng *rand.Rand, total, annotated, n int) map[int]struct{} {
	extra := n - 1
	if max := total - 1; extra > max {
		extra = max
	}
	if extra <= 0 {
		return map[int]struct{}{}
	}

	candidates := make([]int, 0, total-1)
	for i := 0; i < total; i++ {
		if i != annotated {
			candidates = append(candidates, i)
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	chosen := make(map[int]struct{}, extra)
	for _, idx := range candidates[:extra] {
		chosen[idx] = struct{}{}
	}
	return chosen
}
