package evolve

import (
	"github.com/gogpu/evolve/genetic"
	"github.com/gogpu/evolve/polygon"
)

// Result is one generation's outcome as produced by the worker's engine.
type Result = genetic.Result[*polygon.Chromosome]

// bestTracker reduces the generation stream to the single best result
// seen so far. Replacement requires strict improvement, so on ties the
// first-seen result wins; the first observed generation always becomes
// the initial best.
//
// A tracker is owned by the control goroutine of one run and is not safe
// for concurrent use.
type bestTracker struct {
	opt  genetic.Optimize
	best Result
	seen bool
}

// observe folds r into the tracker and returns the best result so far.
func (t *bestTracker) observe(r Result) Result {
	if !t.seen || t.opt.Better(r.Best.Fitness, t.best.Best.Fitness) {
		t.best = r
		t.seen = true
	}
	return t.best
}
