package polygon

import (
	"math/rand/v2"

	"github.com/gogpu/evolve/genetic"
)

// Point is a polygon vertex with coordinates normalized to [0, 1].
// Drawing scales them to the target canvas size, so one chromosome can be
// rendered at the evaluation resolution and at full output resolution
// alike.
type Point struct {
	X, Y float64
}

// Polygon is a closed, filled polygon with a straight-alpha RGBA color.
// Channel values are normalized to [0, 1].
type Polygon struct {
	Points     []Point
	R, G, B, A float64
}

// clone returns a deep copy of the polygon.
func (p Polygon) clone() Polygon {
	c := p
	c.Points = make([]Point, len(p.Points))
	copy(c.Points, p.Points)
	return c
}

// newRandomPolygon creates a polygon with length random vertices and a
// random semi-transparent color.
func newRandomPolygon(rng *rand.Rand, length int) Polygon {
	p := Polygon{
		Points: make([]Point, length),
		R:      rng.Float64(),
		G:      rng.Float64(),
		B:      rng.Float64(),
		A:      rng.Float64(),
	}
	for i := range p.Points {
		p.Points[i] = Point{X: rng.Float64(), Y: rng.Float64()}
	}
	return p
}

// Chromosome is an ordered list of polygons encoding one candidate image.
// The zero value is an empty chromosome; use [NewChromosome] or a
// [Factory] to create populated ones.
type Chromosome struct {
	Polygons []Polygon
}

// NewChromosome creates a chromosome of count random polygons with length
// vertices each.
func NewChromosome(rng *rand.Rand, count, length int) *Chromosome {
	c := &Chromosome{Polygons: make([]Polygon, count)}
	for i := range c.Polygons {
		c.Polygons[i] = newRandomPolygon(rng, length)
	}
	return c
}

// Clone returns a deep copy of the chromosome. Variation operators clone
// before mutating, since phenotypes selected into several slots share the
// same underlying chromosome.
func (c *Chromosome) Clone() *Chromosome {
	n := &Chromosome{Polygons: make([]Polygon, len(c.Polygons))}
	for i := range c.Polygons {
		n.Polygons[i] = c.Polygons[i].clone()
	}
	return n
}

// Factory returns a genotype factory producing random chromosomes of the
// given polygon count and length.
func Factory(count, length int) genetic.Factory[*Chromosome] {
	return func(rng *rand.Rand) *Chromosome {
		return NewChromosome(rng, count, length)
	}
}
