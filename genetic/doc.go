// Package genetic implements a small generic genetic algorithm engine.
//
// An [Engine] is built from a fitness function, a genotype factory, and a
// set of options (population size, optimization direction, selectors,
// alterers). It produces its results through a lazily-pulled [Stream]:
// each call to Next evolves the population by one generation and reports
// that generation's best phenotype. The engine never runs ahead of the
// consumer; pulling is the only way to make progress, which keeps
// cancellation trivial for callers that poll a flag between pulls.
//
// Fitness evaluation is parallel. The engine evaluates a generation's
// unevaluated phenotypes on a fixed set of worker goroutines, each
// identified by a stable slot index passed to the fitness function.
// Callers that need per-evaluation scratch state key it by this slot
// rather than by goroutine identity.
//
// The package is genotype-agnostic: selection operates on fitness alone,
// and genotype-specific variation plugs in through the [Alterer]
// interface. See the polygon package for a concrete genotype.
package genetic
