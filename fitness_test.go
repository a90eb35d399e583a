package evolve

import (
	"math"
	"math/rand/v2"
	"testing"
)

// randomRaster fills a width*height RGBA raster with deterministic
// pseudo-random bytes.
func randomRaster(rng *rand.Rand, width, height int) []uint8 {
	data := make([]uint8, width*height*4)
	for i := range data {
		data[i] = uint8(rng.UintN(256))
	}
	return data
}

func TestScoreIdenticalRasters(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, size := range []struct{ w, h int }{{1, 1}, {4, 4}, {50, 50}, {33, 7}} {
		ref := randomRaster(rng, size.w, size.h)
		test := make([]uint8, len(ref))
		copy(test, ref)

		if got := Score(ref, test, size.w, size.h); got != 1.0 {
			t.Errorf("Score(%dx%d identical) = %v, want exactly 1.0", size.w, size.h, got)
		}
	}
}

func TestScoreSymmetric(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	const w, h = 16, 16

	for range 10 {
		a := randomRaster(rng, w, h)
		b := randomRaster(rng, w, h)

		ab := Score(a, b, w, h)
		ba := Score(b, a, w, h)
		if ab != ba {
			t.Fatalf("Score not symmetric: Score(a,b)=%v, Score(b,a)=%v", ab, ba)
		}
	}
}

func TestScoreIgnoresAlpha(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	const w, h = 8, 8

	ref := randomRaster(rng, w, h)
	test := randomRaster(rng, w, h)
	want := Score(ref, test, w, h)

	// Scramble every alpha byte of both rasters; the score must not move.
	for i := 3; i < len(ref); i += 4 {
		ref[i] = uint8(rng.UintN(256))
		test[i] = uint8(rng.UintN(256))
	}

	if got := Score(ref, test, w, h); got != want {
		t.Errorf("alpha change moved score from %v to %v", want, got)
	}
}

func TestScoreKnownValues(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		ref  func() []uint8
		test func() []uint8
		want float64
	}{
		{
			name: "single pixel off by one in red",
			w:    1, h: 1,
			ref:  func() []uint8 { return []uint8{10, 20, 30, 255} },
			test: func() []uint8 { return []uint8{11, 20, 30, 255} },
			want: 1.0 - 1.0/(3*256),
		},
		{
			name: "single pixel maximally different",
			w:    1, h: 1,
			ref:  func() []uint8 { return []uint8{0, 0, 0, 255} },
			test: func() []uint8 { return []uint8{255, 255, 255, 255} },
			want: 1.0 - (3 * 255.0 / (3 * 256)),
		},
		{
			name: "black vs white 2x2",
			w:    2, h: 2,
			ref: func() []uint8 {
				return []uint8{
					0, 0, 0, 255, 0, 0, 0, 255,
					0, 0, 0, 255, 0, 0, 0, 255,
				}
			},
			test: func() []uint8 {
				return []uint8{
					255, 255, 255, 255, 255, 255, 255, 255,
					255, 255, 255, 255, 255, 255, 255, 255,
				}
			},
			want: 1.0 - (4 * 3 * 255.0 / (4 * 3 * 256)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.ref(), tt.test(), tt.w, tt.h)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkScore(b *testing.B) {
	rng := rand.New(rand.NewPCG(7, 8))
	const w, h = 50, 50
	ref := randomRaster(rng, w, h)
	test := randomRaster(rng, w, h)

	b.ReportAllocs()
	for b.Loop() {
		_ = Score(ref, test, w, h)
	}
}
