package genetic

import (
	"math/rand/v2"
	"sort"
)

// TournamentSelector selects phenotypes by running small tournaments:
// for every pick, Size candidates are sampled uniformly at random (with
// replacement) and the best of them wins.
type TournamentSelector[G any] struct {
	// Size is the number of candidates competing in each tournament.
	// Values below 2 are treated as 2.
	Size int
}

// Select implements the Selector interface.
func (s TournamentSelector[G]) Select(pop []Phenotype[G], count int, opt Optimize, rng *rand.Rand) []Phenotype[G] {
	if len(pop) == 0 || count <= 0 {
		return nil
	}

	size := s.Size
	if size < 2 {
		size = 2
	}
	if size > len(pop) {
		size = len(pop)
	}

	selected := make([]Phenotype[G], count)
	for i := range selected {
		winner := pop[rng.IntN(len(pop))]
		for range size - 1 {
			c := pop[rng.IntN(len(pop))]
			if opt.Better(c.Fitness, winner.Fitness) {
				winner = c
			}
		}
		selected[i] = winner
	}
	return selected
}

// TruncationSelector selects the count best phenotypes of the population.
// If count exceeds the population size, the best phenotype fills the
// remainder.
type TruncationSelector[G any] struct{}

// Select implements the Selector interface.
func (TruncationSelector[G]) Select(pop []Phenotype[G], count int, opt Optimize, rng *rand.Rand) []Phenotype[G] {
	if len(pop) == 0 || count <= 0 {
		return nil
	}

	sorted := make([]Phenotype[G], len(pop))
	copy(sorted, pop)
	// Stable keeps the first-seen phenotype ahead on equal fitness.
	sort.SliceStable(sorted, func(i, j int) bool {
		return opt.Better(sorted[i].Fitness, sorted[j].Fitness)
	})

	selected := make([]Phenotype[G], count)
	for i := range selected {
		if i < len(sorted) {
			selected[i] = sorted[i]
		} else {
			selected[i] = sorted[0]
		}
	}
	return selected
}
