package nation

import (
	"github.com/talgya/civica/internal/entropy"
)

// CityFeatures are the landmark labels offered when a city is founded
// without explicit features.
var CityFeatures = []string{"port", "university", "factory", "park", "museum", "power plant"}

// SampleFeatures picks between 1 and 3 distinct labels from CityFeatures.
func SampleFeatures(src entropy.Source) []string {
	pool := append([]string{}, CityFeatures...)
	k := src.IntRange(1, 3)
	out := make([]string, 0, k)
	for i := 0; i < k && len(pool) > 0; i++ {
		j := src.IntRange(0, len(pool)-1)
		out = append(out, pool[j])
		pool = append(pool[:j], pool[j+1:]...)
	}
	return out
}
