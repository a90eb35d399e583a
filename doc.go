// Package evolve approximates a raster image with a population of
// semi-transparent polygons, evolved by a genetic search engine.
//
// # Overview
//
// The center of the package is [Worker]: a configure/start/stop/join
// lifecycle around a long-running evolution loop. A Worker owns an
// immutable reference image (the source image scaled down to a small
// evaluation resolution), a pool of per-slot scratch canvases, and a
// genetic engine wired to the worker's fitness function.
//
// The fitness of a chromosome is computed by rendering its polygons into
// a scratch canvas and comparing the result pixel by pixel with the
// reference image (see [Score]). Rendering uses github.com/gogpu/gg, the
// same rasterizer used for final output.
//
// # Quick Start
//
//	w := evolve.NewWorker()
//	if err := w.Configure(evolve.DefaultParam(), srcImage); err != nil {
//		log.Fatal(err)
//	}
//	err := w.Start(func(current, best evolve.Result) {
//		fmt.Printf("generation %d: best fitness %.5f\n",
//			current.Generation, best.Best.Fitness)
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	time.Sleep(10 * time.Second)
//	w.Stop()
//
// # Concurrency
//
// Two independent concurrency domains meet in a Worker. The engine
// evaluates many candidates in parallel on a fixed set of worker slots;
// each slot has its own scratch canvas ([ScratchPool]) and all slots share
// the read-only reference pixels, so evaluations never contend. A single
// control goroutine pulls generation results serially, tracks the best
// result seen so far, and hands (current, best) pairs to the observer in
// production order, never concurrently.
//
// Cancellation is cooperative: Stop sets a flag that the control goroutine
// checks once per generation boundary, then waits for it to exit. Stop may
// therefore block for up to the duration of one in-flight generation.
//
// # Sub-packages
//
//   - genetic: the generic genetic engine (selection, alteration, the
//     lazily-pulled generation stream)
//   - polygon: the polygon genotype, its gg-based renderer, and its
//     mutation/crossover operators
package evolve
