// Command evolve approximates an input image with evolved polygons.
//
// It runs the evolution worker headless and periodically writes PNG
// snapshots of the best chromosome, rendered at the source resolution:
//
//	evolve -image monalisa.png -out ./result -generations 100000 -gap 100
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gogpu/evolve"
)

func main() {
	var (
		input       = flag.String("image", "", "input image (png or jpeg)")
		outDir      = flag.String("out", "out", "output directory for snapshots")
		generations = flag.Int64("generations", 10000, "number of generations to evolve")
		gap         = flag.Int64("gap", 100, "write a snapshot every gap generations")
		population  = flag.Int("population", 0, "population size (0 = default)")
		polygons    = flag.Int("polygons", 0, "polygons per chromosome (0 = default)")
		verbose     = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	evolve.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	src, err := loadImage(*input)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *input, err)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	param := evolve.DefaultParam()
	if *population > 0 {
		param.PopulationSize = *population
	}
	if *polygons > 0 {
		param.PolygonCount = *polygons
	}

	w := evolve.NewWorker()
	if err := w.Configure(param, src); err != nil {
		log.Fatalf("Failed to configure worker: %v", err)
	}

	bounds := src.Bounds()
	outW, outH := bounds.Dx(), bounds.Dy()

	var stopOnce sync.Once
	err = w.Start(func(current, best evolve.Result) {
		g := current.Generation
		if g == 1 || g%*gap == 0 {
			path := filepath.Join(*outDir, fmt.Sprintf("image-%06d.png", g))
			dc := best.Best.Genome.Render(outW, outH)
			if err := dc.SavePNG(path); err != nil {
				log.Fatalf("Failed to write %s: %v", path, err)
			}
			log.Printf("generation %d: best fitness %.5f -> %s", g, best.Best.Fitness, path)
		}
		if g >= *generations {
			// Stop blocks until the run has drained; never call it on
			// the observer goroutine.
			stopOnce.Do(func() { go w.Stop() })
		}
	})
	if err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	w.Join()

	if best, ok := w.Best(); ok {
		log.Printf("finished after generation %d with best fitness %.5f",
			best.Generation, best.Best.Fitness)
	}
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	img, _, err := image.Decode(f)
	return img, err
}
