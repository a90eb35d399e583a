package genetic

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
)

// Engine holds the immutable configuration of a genetic algorithm run:
// fitness function, genotype factory, population parameters, selectors
// and alterers. An Engine is inert; calling [Engine.Stream] starts a
// fresh, independent run.
//
// Thread safety: an Engine is read-only after New and may be shared.
// Each Stream must be pulled from a single goroutine.
type Engine[G any] struct {
	fitness Fitness[G]
	factory Factory[G]

	populationSize    int
	optimize          Optimize
	offspringFraction float64
	survivors         Selector[G]
	offspring         Selector[G]
	alterers          []Alterer[G]

	workers     int
	generations int64
	seed        uint64
	seeded      bool
	logger      *slog.Logger
}

// Option configures an Engine during construction.
type Option[G any] func(*Engine[G])

// WithPopulationSize sets the number of phenotypes per generation.
// The default is 50. Values below 1 are ignored.
func WithPopulationSize[G any](n int) Option[G] {
	return func(e *Engine[G]) {
		if n >= 1 {
			e.populationSize = n
		}
	}
}

// WithOptimize sets the optimization direction. The default is Maximum.
func WithOptimize[G any](o Optimize) Option[G] {
	return func(e *Engine[G]) { e.optimize = o }
}

// WithOffspringFraction sets the fraction of each generation that is
// produced by offspring selection and alteration; the rest survives via
// the survivors selector. The default is 0.6. The value is clamped to
// [0, 1].
func WithOffspringFraction[G any](f float64) Option[G] {
	return func(e *Engine[G]) {
		e.offspringFraction = math.Min(1, math.Max(0, f))
	}
}

// WithSurvivorsSelector sets the selector for the surviving part of the
// population. The default is TruncationSelector.
func WithSurvivorsSelector[G any](s Selector[G]) Option[G] {
	return func(e *Engine[G]) {
		if s != nil {
			e.survivors = s
		}
	}
}

// WithOffspringSelector sets the selector for the offspring part of the
// population. The default is a TournamentSelector of size 3.
func WithOffspringSelector[G any](s Selector[G]) Option[G] {
	return func(e *Engine[G]) {
		if s != nil {
			e.offspring = s
		}
	}
}

// WithAlterers sets the variation operators applied to selected offspring,
// in order. The default is none, which makes evolution pure selection.
func WithAlterers[G any](alterers ...Alterer[G]) Option[G] {
	return func(e *Engine[G]) { e.alterers = alterers }
}

// WithWorkers sets the number of parallel evaluation slots.
// If n is 0 or negative, GOMAXPROCS is used. The slot index passed to the
// fitness function lies in [0, n).
func WithWorkers[G any](n int) Option[G] {
	return func(e *Engine[G]) { e.workers = n }
}

// WithGenerations bounds a stream to n generations, after which Next
// reports exhaustion. The default of 0 means unbounded.
func WithGenerations[G any](n int64) Option[G] {
	return func(e *Engine[G]) { e.generations = n }
}

// WithSeed fixes the random seed, making every stream of this engine
// deterministic. Streams of an unseeded engine are seeded randomly.
func WithSeed[G any](seed uint64) Option[G] {
	return func(e *Engine[G]) {
		e.seed = seed
		e.seeded = true
	}
}

// WithLogger sets the logger for engine diagnostics (per-generation
// debug output). The default discards all records.
func WithLogger[G any](l *slog.Logger) Option[G] {
	return func(e *Engine[G]) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine from a fitness function, a genotype factory and
// options. fitness and factory must be non-nil.
func New[G any](fitness Fitness[G], factory Factory[G], opts ...Option[G]) *Engine[G] {
	if fitness == nil {
		panic("genetic: fitness must not be nil")
	}
	if factory == nil {
		panic("genetic: factory must not be nil")
	}

	e := &Engine[G]{
		fitness:           fitness,
		factory:           factory,
		populationSize:    50,
		optimize:          Maximum,
		offspringFraction: 0.6,
		survivors:         TruncationSelector[G]{},
		offspring:         TournamentSelector[G]{Size: 3},
		logger:            slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// Workers returns the number of parallel evaluation slots of the engine.
func (e *Engine[G]) Workers() int {
	return e.workers
}

// Optimize returns the optimization direction of the engine.
func (e *Engine[G]) Optimize() Optimize {
	return e.optimize
}

// Stream starts a fresh evolution run and returns its pull side.
// Every call begins again from a new random population; streams are
// independent of each other.
func (e *Engine[G]) Stream() *Stream[G] {
	seed := e.seed
	if !e.seeded {
		seed = rand.Uint64()
	}
	return &Stream[G]{
		engine: e,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Stream is the lazily-pulled sequence of generation results of one
// evolution run. All methods must be called from a single goroutine.
type Stream[G any] struct {
	engine     *Engine[G]
	rng        *rand.Rand
	population []Phenotype[G]
	generation int64
}

// Next advances the run by one generation and returns its result.
// The second return value is false once the engine's generation bound is
// exhausted; unbounded streams never report false.
func (s *Stream[G]) Next() (Result[G], bool) {
	e := s.engine
	if e.generations > 0 && s.generation >= e.generations {
		return Result[G]{}, false
	}

	next := s.generation + 1
	if s.population == nil {
		s.population = make([]Phenotype[G], e.populationSize)
		for i := range s.population {
			s.population[i] = Offspring(e.factory(s.rng), next)
		}
	} else {
		s.evolve(next)
	}

	evals := s.evaluate()
	s.generation = next

	best := s.population[0]
	for _, p := range s.population[1:] {
		if e.optimize.Better(p.Fitness, best.Fitness) {
			best = p
		}
	}

	e.logger.Debug("generation evolved",
		"generation", next,
		"best_fitness", best.Fitness,
		"evaluations", evals,
	)

	return Result[G]{Generation: next, Best: best, Evaluations: evals}, true
}

// Generation returns the index of the last generation produced, or 0 if
// the stream has not been pulled yet.
func (s *Stream[G]) Generation() int64 {
	return s.generation
}

// evolve replaces the population with the next generation: selected
// survivors plus selected-and-altered offspring.
func (s *Stream[G]) evolve(generation int64) {
	e := s.engine

	offspringCount := int(math.Round(e.offspringFraction * float64(e.populationSize)))
	survivorCount := e.populationSize - offspringCount

	offspring := e.offspring.Select(s.population, offspringCount, e.optimize, s.rng)
	for _, a := range e.alterers {
		a.Alter(offspring, generation, s.rng)
	}

	survivors := e.survivors.Select(s.population, survivorCount, e.optimize, s.rng)

	s.population = s.population[:0]
	s.population = append(s.population, survivors...)
	s.population = append(s.population, offspring...)
}

// evaluate computes the fitness of every unevaluated phenotype, fanned
// out over the engine's worker slots with strided partitioning. Slot i
// only ever runs on one goroutine per generation, and the final Wait
// orders slot handoff between generations, so fitness implementations
// can keep slot-confined scratch state.
func (s *Stream[G]) evaluate() int {
	e := s.engine
	pop := s.population

	pending := 0
	for i := range pop {
		if !pop[i].evaluated {
			pending++
		}
	}
	if pending == 0 {
		return 0
	}

	var wg sync.WaitGroup
	wg.Add(e.workers)
	for slot := range e.workers {
		go func(slot int) {
			defer wg.Done()
			for i := slot; i < len(pop); i += e.workers {
				if pop[i].evaluated {
					continue
				}
				pop[i].Fitness = e.fitness(slot, pop[i].Genome)
				pop[i].evaluated = true
			}
		}(slot)
	}
	wg.Wait()

	return pending
}
