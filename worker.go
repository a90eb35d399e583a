package evolve

import (
	"context"
	"errors"
	"image"
	"runtime"
	"sync"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/evolve/genetic"
	"github.com/gogpu/evolve/polygon"
)

// State is the lifecycle state of a Worker.
type State int32

const (
	// Unconfigured is the state of a fresh Worker before Configure.
	Unconfigured State = iota

	// Idle means the Worker holds a configuration but no evolution run
	// is active.
	Idle

	// Running means the control goroutine is pulling generations.
	Running
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case Unconfigured:
		return "Unconfigured"
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

var (
	// ErrRunning is returned by Configure and Start while an evolution
	// run is active.
	ErrRunning = errors.New("evolve: worker is running")

	// ErrNotConfigured is returned by Start before the first successful
	// Configure.
	ErrNotConfigured = errors.New("evolve: worker is not configured")
)

// Observer receives one (current, best) pair per generation, in
// production order, never concurrently with itself.
type Observer func(current, best Result)

// Dispatcher marshals observer callbacks onto a caller-chosen context,
// such as a UI event loop. The worker invokes the dispatcher once per
// generation from its dispatch goroutine and relies on it to preserve
// call order; a serial event loop does so naturally.
type Dispatcher func(fn func())

// EngineFactory builds the search engine at configure time. The worker
// passes the normalized parameters (Workers resolved to its effective
// value) and its own fitness function. Injectable for tests via
// WithEngineFactory.
type EngineFactory func(p Param, fitness genetic.Fitness[*polygon.Chromosome]) *genetic.Engine[*polygon.Chromosome]

// WorkerOption configures a Worker during creation.
type WorkerOption func(*Worker)

// WithDispatcher sets the dispatcher used to deliver observer callbacks.
// Without it, callbacks run directly on the worker's dispatch goroutine.
func WithDispatcher(d Dispatcher) WorkerOption {
	return func(w *Worker) { w.dispatcher = d }
}

// WithEngineFactory replaces the default engine construction.
func WithEngineFactory(f EngineFactory) WorkerOption {
	return func(w *Worker) {
		if f != nil {
			w.engineFactory = f
		}
	}
}

// Worker drives one evolution run at a time against one configured
// reference image.
//
// A Worker moves between three states: Unconfigured → Idle (Configure) →
// Running (Start) → Idle (Stop or natural completion). Configure and
// Start fail with ErrRunning while Running; lifecycle transitions
// serialize on an internal mutex. Fitness evaluations triggered by the
// engine's worker slots never take that mutex: they touch only the
// read-only reference pixels and their slot's scratch canvas, so
// lifecycle calls cannot stall an in-flight generation.
type Worker struct {
	mu    sync.Mutex // serializes Configure/Start/Stop transitions
	state atomic.Int32

	dispatcher    Dispatcher
	engineFactory EngineFactory

	// Configuration, immutable from Configure until the next Configure.
	param   Param
	refPix  []uint8
	refW    int
	refH    int
	scratch *ScratchPool
	engine  *genetic.Engine[*polygon.Chromosome]

	// Per-run bookkeeping.
	cancelled atomic.Bool
	done      chan struct{} // nil when no run has been started; guarded by mu

	// Best-so-far snapshot, written by the control goroutine. Stable
	// once the run has terminated.
	best atomic.Pointer[Result]
}

// NewWorker creates an unconfigured Worker.
func NewWorker(opts ...WorkerOption) *Worker {
	w := &Worker{engineFactory: defaultEngineFactory}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Param returns the parameters of the current configuration. Only
// meaningful after a successful Configure.
func (w *Worker) Param() Param {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.param
}

// Best returns the best generation result seen so far and whether one
// exists. While Running the value is a moving snapshot; after Stop or
// Join have returned it is the final result of the run.
func (w *Worker) Best() (Result, bool) {
	if p := w.best.Load(); p != nil {
		return *p, true
	}
	return Result{}, false
}

// Configure installs a new reference image and engine configuration.
//
// The source image is scaled down to the parameter's evaluation
// resolution; its pixels become the immutable reference shared by all
// fitness evaluations. The scratch pool is replaced (dimensions may have
// changed) and a fresh engine is built, wired to the worker's fitness
// function.
//
// Configure fails with ErrRunning while a run is active and with a
// validation error for bad parameters; in both cases the previous
// configuration stays fully intact.
func (w *Worker) Configure(p Param, src image.Image) error {
	if err := p.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.State() == Running {
		return ErrRunning
	}

	if p.Workers == 0 {
		p.Workers = runtime.GOMAXPROCS(0)
	}
	ref := scaleReference(src, p.ReferenceWidth, p.ReferenceHeight)

	w.param = p
	w.refPix = ref.Pix
	w.refW = p.ReferenceWidth
	w.refH = p.ReferenceHeight
	w.scratch = NewScratchPool(p.Workers, p.ReferenceWidth, p.ReferenceHeight)
	w.engine = w.engineFactory(p, w.evaluate)
	w.best.Store(nil)
	w.state.Store(int32(Idle))

	Logger().Info("worker configured",
		"reference_width", p.ReferenceWidth,
		"reference_height", p.ReferenceHeight,
		"population", p.PopulationSize,
		"polygons", p.PolygonCount,
		"workers", p.Workers,
	)
	return nil
}

// Start launches the control goroutine for a new evolution run and
// returns immediately. observer may be nil, in which case generations
// are consumed without dispatch.
//
// Start fails with ErrRunning if a run is already active and with
// ErrNotConfigured before the first Configure.
func (w *Worker) Start(observer Observer) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.State() {
	case Running:
		return ErrRunning
	case Unconfigured:
		return ErrNotConfigured
	}

	stream := w.engine.Stream()
	done := make(chan struct{})
	w.done = done
	w.cancelled.Store(false)
	w.best.Store(nil)

	var results chan resultPair
	var dispatchDone chan struct{}
	if observer != nil {
		results = make(chan resultPair, 16)
		dispatchDone = make(chan struct{})
		go w.dispatch(observer, results, dispatchDone)
	}

	go w.run(stream, results, dispatchDone, done)
	w.state.Store(int32(Running))

	Logger().Info("worker started")
	return nil
}

// Stop requests cancellation and blocks until the control goroutine has
// terminated and all pending observer deliveries have completed, leaving
// the worker Idle. The cancellation flag is observed at generation
// boundaries, so Stop may block for up to the duration of one in-flight
// generation. Stop is idempotent; when no run is active it returns
// immediately.
//
// Because Stop waits for observer deliveries, calling it from inside the
// observer deadlocks; stop from another goroutine instead.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done == nil {
		return
	}
	w.cancelled.Store(true)
	<-w.done
	w.done = nil
}

// Join blocks until the current run terminates, without requesting
// cancellation. It returns immediately if no run is active.
func (w *Worker) Join() {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()

	if done != nil {
		<-done
	}
}

// JoinContext is Join with a bounded wait: it returns ctx.Err() if the
// context ends first, leaving the run and all worker bookkeeping
// untouched.
func (w *Worker) JoinContext(ctx context.Context) error {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pause is reserved. It does not suspend the evolution run.
func (w *Worker) Pause() {}

// Resume is reserved. It does not resume anything; see Pause.
func (w *Worker) Resume() {}

// evaluate is the fitness function handed to the engine: render the
// chromosome into the slot's scratch canvas and score it against the
// reference pixels. Called concurrently, one call per slot at a time.
func (w *Worker) evaluate(slot int, c *polygon.Chromosome) float64 {
	canvas := w.scratch.Acquire(slot)
	c.Draw(canvas.Context(), w.refW, w.refH)
	return Score(w.refPix, canvas.Pix(), w.refW, w.refH)
}

type resultPair struct {
	current Result
	best    Result
}

// run is the control goroutine: it pulls the generation stream serially,
// folds results into the best tracker and forwards (current, best) pairs
// for dispatch. It exits when cancellation has been observed at a
// generation boundary or the stream exhausts naturally.
func (w *Worker) run(stream *genetic.Stream[*polygon.Chromosome], results chan<- resultPair, dispatchDone <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	log := Logger()
	tracker := bestTracker{opt: w.engine.Optimize()}

	for !w.cancelled.Load() {
		res, ok := stream.Next()
		if !ok {
			break
		}

		best := tracker.observe(res)
		snapshot := best
		w.best.Store(&snapshot)

		if results != nil {
			results <- resultPair{current: res, best: best}
		}

		log.Debug("generation",
			"index", res.Generation,
			"fitness", res.Best.Fitness,
			"best_fitness", best.Best.Fitness,
			"evaluations", res.Evaluations,
		)
	}

	if results != nil {
		close(results)
		// All observer deliveries finish before the worker reports Idle.
		<-dispatchDone
	}

	w.state.Store(int32(Idle))
	log.Info("worker stopped", "generations", stream.Generation())
}

// dispatch delivers result pairs to the observer, one at a time and in
// order. With a configured Dispatcher the call is marshalled onto the
// caller's context instead of running here.
func (w *Worker) dispatch(observer Observer, results <-chan resultPair, dispatchDone chan<- struct{}) {
	defer close(dispatchDone)

	for pair := range results {
		if w.dispatcher != nil {
			w.dispatcher(func() { observer(pair.current, pair.best) })
		} else {
			observer(pair.current, pair.best)
		}
	}
}

// scaleReference downsamples src to width x height. Bilinear filtering is
// plenty at evaluation resolution and keeps configuration fast.
func scaleReference(src image.Image, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// defaultEngineFactory mirrors the engine setup of the original evolving
// images program: maximize fitness, truncation survivors, tournament
// offspring, polygon mutation plus uniform crossover and mean blending.
func defaultEngineFactory(p Param, fitness genetic.Fitness[*polygon.Chromosome]) *genetic.Engine[*polygon.Chromosome] {
	return genetic.New(fitness, polygon.Factory(p.PolygonCount, p.PolygonLength),
		genetic.WithPopulationSize[*polygon.Chromosome](p.PopulationSize),
		genetic.WithOptimize[*polygon.Chromosome](genetic.Maximum),
		genetic.WithWorkers[*polygon.Chromosome](p.Workers),
		genetic.WithSurvivorsSelector[*polygon.Chromosome](genetic.TruncationSelector[*polygon.Chromosome]{}),
		genetic.WithOffspringSelector[*polygon.Chromosome](genetic.TournamentSelector[*polygon.Chromosome]{Size: p.TournamentSize}),
		genetic.WithAlterers[*polygon.Chromosome](
			polygon.Mutator{Rate: p.MutationRate, Magnitude: p.MutationMagnitude},
			polygon.UniformCrossover{Probability: 0.5},
			polygon.MeanAlterer{Probability: 0.15},
		),
		genetic.WithLogger[*polygon.Chromosome](Logger()),
	)
}
