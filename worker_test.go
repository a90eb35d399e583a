package evolve

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/evolve/genetic"
	"github.com/gogpu/evolve/polygon"
)

// solidSource returns a width x height source image filled with c.
func solidSource(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// blackChromosome is a single oversized opaque black polygon: it paints
// every canvas pixel black regardless of anti-aliasing at the edges.
func blackChromosome(*rand.Rand) *polygon.Chromosome {
	return &polygon.Chromosome{Polygons: []polygon.Polygon{{
		Points: []polygon.Point{{X: -0.5, Y: -0.5}, {X: 1.5, Y: -0.5}, {X: 1.5, Y: 1.5}, {X: -0.5, Y: 1.5}},
		A:      1,
	}}}
}

// testEngineFactory builds a small bounded engine so runs terminate on
// their own in tests.
func testEngineFactory(generations int64, factory genetic.Factory[*polygon.Chromosome]) EngineFactory {
	return func(p Param, fitness genetic.Fitness[*polygon.Chromosome]) *genetic.Engine[*polygon.Chromosome] {
		return genetic.New(fitness, factory,
			genetic.WithPopulationSize[*polygon.Chromosome](p.PopulationSize),
			genetic.WithWorkers[*polygon.Chromosome](p.Workers),
			genetic.WithGenerations[*polygon.Chromosome](generations),
			genetic.WithSeed[*polygon.Chromosome](42),
		)
	}
}

func smallParam() Param {
	p := DefaultParam()
	p.ReferenceWidth = 4
	p.ReferenceHeight = 4
	p.PopulationSize = 2
	p.PolygonCount = 3
	p.PolygonLength = 3
	p.Workers = 2
	return p
}

func TestWorkerLifecycleStates(t *testing.T) {
	w := NewWorker(WithEngineFactory(testEngineFactory(3, blackChromosome)))

	if got := w.State(); got != Unconfigured {
		t.Fatalf("fresh worker state = %v, want Unconfigured", got)
	}
	if err := w.Start(nil); err != ErrNotConfigured {
		t.Fatalf("Start on unconfigured worker = %v, want ErrNotConfigured", err)
	}

	src := solidSource(8, 8, color.NRGBA{A: 255})
	if err := w.Configure(smallParam(), src); err != nil {
		t.Fatalf("Configure() = %v", err)
	}
	if got := w.State(); got != Idle {
		t.Fatalf("state after Configure = %v, want Idle", got)
	}

	if err := w.Start(nil); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if got := w.State(); got != Running {
		t.Fatalf("state after Start = %v, want Running", got)
	}

	w.Join() // 3 bounded generations, completes naturally
	if got := w.State(); got != Idle {
		t.Fatalf("state after natural completion = %v, want Idle", got)
	}
}

func TestWorkerBlackOnBlackScoresPerfect(t *testing.T) {
	w := NewWorker(WithEngineFactory(testEngineFactory(1, blackChromosome)))

	p := smallParam()
	p.PopulationSize = 1
	src := solidSource(4, 4, color.NRGBA{A: 255}) // all black

	if err := w.Configure(p, src); err != nil {
		t.Fatalf("Configure() = %v", err)
	}

	var got Result
	var once sync.Once
	results := make(chan Result, 1)
	if err := w.Start(func(current, best Result) {
		once.Do(func() { results <- best })
	}); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	w.Join()

	got = <-results
	if got.Best.Fitness != 1.0 {
		t.Errorf("black chromosome on black reference scored %v, want exactly 1.0",
			got.Best.Fitness)
	}
	if best, ok := w.Best(); !ok || best.Best.Fitness != 1.0 {
		t.Errorf("Best() = (%v, %v), want (fitness 1.0, true)", best.Best.Fitness, ok)
	}
}

func TestWorkerObserverOrdering(t *testing.T) {
	const generations = 20
	w := NewWorker(WithEngineFactory(testEngineFactory(generations, blackChromosome)))

	src := solidSource(8, 8, color.NRGBA{R: 128, G: 64, B: 32, A: 255})
	if err := w.Configure(smallParam(), src); err != nil {
		t.Fatalf("Configure() = %v", err)
	}

	var mu sync.Mutex
	var seen []int64
	inObserver := false

	err := w.Start(func(current, best Result) {
		mu.Lock()
		if inObserver {
			mu.Unlock()
			t.Error("observer invoked concurrently with itself")
			return
		}
		inObserver = true
		seen = append(seen, current.Generation)
		inObserver = false
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}
	w.Join()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != generations {
		t.Fatalf("observer received %d generations, want %d", len(seen), generations)
	}
	for i, g := range seen {
		if g != int64(i+1) {
			t.Fatalf("generation %d delivered at position %d; want strictly increasing with no gaps", g, i)
		}
	}
}

func TestWorkerConfigureWhileRunningFails(t *testing.T) {
	// Unbounded engine: the run only ends via Stop.
	w := NewWorker(WithEngineFactory(testEngineFactory(0, blackChromosome)))

	src := solidSource(8, 8, color.NRGBA{A: 255})
	p := smallParam()
	if err := w.Configure(p, src); err != nil {
		t.Fatalf("Configure() = %v", err)
	}
	if err := w.Start(nil); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	if err := w.Configure(p, src); err != ErrRunning {
		t.Errorf("Configure while running = %v, want ErrRunning", err)
	}
	if err := w.Start(nil); err != ErrRunning {
		t.Errorf("Start while running = %v, want ErrRunning", err)
	}

	w.Stop()
	if got := w.State(); got != Idle {
		t.Fatalf("state after Stop = %v, want Idle", got)
	}

	// The failed calls must not have disturbed the configuration: the
	// worker restarts cleanly and produces results.
	done := make(chan struct{})
	var once sync.Once
	if err := w.Start(func(current, best Result) {
		once.Do(func() { close(done) })
	}); err != nil {
		t.Fatalf("restart after failed Configure = %v", err)
	}
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("no generation delivered after restart")
	}
	w.Stop()
}

func TestWorkerStopPromptAndIdempotent(t *testing.T) {
	w := NewWorker(WithEngineFactory(testEngineFactory(0, blackChromosome)))

	src := solidSource(8, 8, color.NRGBA{A: 255})
	if err := w.Configure(smallParam(), src); err != nil {
		t.Fatalf("Configure() = %v", err)
	}
	if err := w.Start(nil); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	start := time.Now()
	w.Stop()
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("Stop took %v; must be bounded by one in-flight generation", elapsed)
	}
	if got := w.State(); got != Idle {
		t.Fatalf("state after Stop = %v, want Idle", got)
	}

	w.Stop() // no-op on an idle worker
	w.Join() // no-op without an active run
}

func TestWorkerPauseResumeAreNoOps(t *testing.T) {
	w := NewWorker(WithEngineFactory(testEngineFactory(5, blackChromosome)))

	src := solidSource(8, 8, color.NRGBA{A: 255})
	if err := w.Configure(smallParam(), src); err != nil {
		t.Fatalf("Configure() = %v", err)
	}
	if err := w.Start(nil); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	// Neither call may disturb the run or the state machine.
	w.Pause()
	w.Resume()

	w.Join()
	if got := w.State(); got != Idle {
		t.Fatalf("state after run = %v, want Idle", got)
	}
}

func TestWorkerJoinContext(t *testing.T) {
	w := NewWorker(WithEngineFactory(testEngineFactory(0, blackChromosome)))

	src := solidSource(8, 8, color.NRGBA{A: 255})
	if err := w.Configure(smallParam(), src); err != nil {
		t.Fatalf("Configure() = %v", err)
	}
	if err := w.Start(nil); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	// Bounded wait on an unbounded run: the context wins, the run and
	// its bookkeeping stay intact.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := w.JoinContext(ctx); err != context.DeadlineExceeded {
		t.Errorf("JoinContext on live run = %v, want DeadlineExceeded", err)
	}
	if got := w.State(); got != Running {
		t.Errorf("state after aborted JoinContext = %v, want Running", got)
	}

	w.Stop()
	if err := w.JoinContext(context.Background()); err != nil {
		t.Errorf("JoinContext after Stop = %v, want nil", err)
	}
}

func TestWorkerBestOnlyImproves(t *testing.T) {
	w := NewWorker(WithEngineFactory(func(p Param, fitness genetic.Fitness[*polygon.Chromosome]) *genetic.Engine[*polygon.Chromosome] {
		return genetic.New(fitness, polygon.Factory(p.PolygonCount, p.PolygonLength),
			genetic.WithPopulationSize[*polygon.Chromosome](p.PopulationSize),
			genetic.WithWorkers[*polygon.Chromosome](p.Workers),
			genetic.WithGenerations[*polygon.Chromosome](30),
			genetic.WithSeed[*polygon.Chromosome](7),
			genetic.WithAlterers[*polygon.Chromosome](
				polygon.Mutator{Rate: 0.1, Magnitude: 0.2},
			),
		)
	}))

	src := solidSource(16, 16, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	p := smallParam()
	p.PopulationSize = 8
	if err := w.Configure(p, src); err != nil {
		t.Fatalf("Configure() = %v", err)
	}

	var mu sync.Mutex
	prev := -2.0
	err := w.Start(func(current, best Result) {
		mu.Lock()
		defer mu.Unlock()
		if best.Best.Fitness < prev {
			t.Errorf("best fitness regressed from %v to %v", prev, best.Best.Fitness)
		}
		prev = best.Best.Fitness
	})
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}
	w.Join()
}

// TestWorkerConcurrentEvaluate exercises the fitness path from 8 slots
// at once and checks every score against its single-threaded reference.
func TestWorkerConcurrentEvaluate(t *testing.T) {
	const slots = 8

	w := NewWorker(WithEngineFactory(testEngineFactory(1, blackChromosome)))
	p := smallParam()
	p.ReferenceWidth = 32
	p.ReferenceHeight = 32
	p.Workers = slots

	src := solidSource(64, 64, color.NRGBA{R: 90, G: 180, B: 40, A: 255})
	if err := w.Configure(p, src); err != nil {
		t.Fatalf("Configure() = %v", err)
	}

	// Distinct chromosomes per slot, plus their sequentially computed
	// reference scores.
	rng := rand.New(rand.NewPCG(9, 9))
	chromosomes := make([]*polygon.Chromosome, slots)
	want := make([]float64, slots)
	for i := range chromosomes {
		chromosomes[i] = polygon.NewChromosome(rng, 10, 4)
		want[i] = w.evaluate(0, chromosomes[i])
	}

	const rounds = 20
	var wg sync.WaitGroup
	errs := make(chan error, slots)
	for slot := range slots {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			for range rounds {
				got := w.evaluate(slot, chromosomes[slot])
				if got != want[slot] {
					errs <- &scoreMismatch{slot: slot, got: got, want: want[slot]}
					return
				}
			}
		}(slot)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

type scoreMismatch struct {
	slot int
	got  float64
	want float64
}

func (e *scoreMismatch) Error() string {
	return fmt.Sprintf("slot %d: concurrent score %v diverged from sequential reference %v",
		e.slot, e.got, e.want)
}
