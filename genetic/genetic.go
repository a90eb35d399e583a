package genetic

import (
	"math/rand/v2"
)

// Optimize selects the optimization direction of an engine.
type Optimize int

const (
	// Maximum treats larger fitness values as better.
	Maximum Optimize = iota

	// Minimum treats smaller fitness values as better.
	Minimum
)

// String returns a string representation of the optimization direction.
func (o Optimize) String() string {
	switch o {
	case Maximum:
		return "Maximum"
	case Minimum:
		return "Minimum"
	default:
		return "Unknown"
	}
}

// Better reports whether fitness a is strictly better than fitness b
// under this optimization direction. Equal values are never better, so
// comparisons based on Better keep the first-seen candidate on ties.
func (o Optimize) Better(a, b float64) bool {
	if o == Minimum {
		return a < b
	}
	return a > b
}

// Fitness evaluates a genome and returns its fitness value.
//
// slot identifies the evaluation worker invoking the function and lies in
// [0, workers). At most one evaluation runs per slot at any time, so
// implementations may keep mutable scratch state keyed by slot. Beyond
// that, Fitness is called concurrently from multiple goroutines and must
// not touch shared mutable state.
type Fitness[G any] func(slot int, genome G) float64

// Factory creates a new random genome. It is called on the stream
// goroutine only, never concurrently with itself.
type Factory[G any] func(rng *rand.Rand) G

// Phenotype pairs a genome with its evaluated fitness.
type Phenotype[G any] struct {
	// Genome is the underlying genetic encoding.
	Genome G

	// Fitness is the evaluated fitness value. Only meaningful when
	// Evaluated reports true.
	Fitness float64

	// Generation records the generation the genome was created in.
	Generation int64

	evaluated bool
}

// Offspring wraps a freshly created genome in an unevaluated phenotype.
// Alterers use it to replace population entries; the engine evaluates the
// result before the generation is reported.
func Offspring[G any](genome G, generation int64) Phenotype[G] {
	return Phenotype[G]{Genome: genome, Generation: generation}
}

// Evaluated reports whether the phenotype's fitness has been computed.
func (p Phenotype[G]) Evaluated() bool {
	return p.evaluated
}

// Result is the outcome of one generation pull.
type Result[G any] struct {
	// Generation is the 1-based index of the generation, strictly
	// increasing over the lifetime of a stream.
	Generation int64

	// Best is the best phenotype of this generation's population.
	Best Phenotype[G]

	// Evaluations counts the fitness calls performed for this generation.
	Evaluations int
}

// Selector picks count phenotypes from a population. Implementations
// return copies; they must not reorder or mutate pop. Selection runs on
// the stream goroutine only.
type Selector[G any] interface {
	Select(pop []Phenotype[G], count int, opt Optimize, rng *rand.Rand) []Phenotype[G]
}

// Alterer applies a variation operator (mutation, crossover, ...) to a
// population of selected offspring. Implementations replace entries with
// [Offspring] phenotypes carrying fresh genomes; genomes reachable from
// pop may be shared with the parent population and must never be mutated
// in place. Alter returns the number of entries it replaced.
//
// Alterers run on the stream goroutine only.
type Alterer[G any] interface {
	Alter(pop []Phenotype[G], generation int64, rng *rand.Rand) int
}
