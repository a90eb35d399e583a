package polygon

import (
	"math/rand/v2"

	"github.com/gogpu/evolve/genetic"
)

// clamp01 limits v to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Mutator perturbs polygons of selected offspring. Every polygon of every
// chromosome is mutated independently with probability Rate; a mutation
// shifts each vertex coordinate and color channel by a uniform delta in
// [-Magnitude, Magnitude], clamped to [0, 1].
type Mutator struct {
	// Rate is the per-polygon mutation probability.
	Rate float64

	// Magnitude is the maximum perturbation applied to a coordinate or
	// color channel.
	Magnitude float64
}

// Alter implements genetic.Alterer.
func (m Mutator) Alter(pop []genetic.Phenotype[*Chromosome], generation int64, rng *rand.Rand) int {
	altered := 0
	for i := range pop {
		src := pop[i].Genome

		var mutated *Chromosome
		for j := range src.Polygons {
			if rng.Float64() >= m.Rate {
				continue
			}
			if mutated == nil {
				mutated = src.Clone()
			}
			m.mutatePolygon(&mutated.Polygons[j], rng)
		}

		if mutated != nil {
			pop[i] = genetic.Offspring(mutated, generation)
			altered++
		}
	}
	return altered
}

func (m Mutator) mutatePolygon(p *Polygon, rng *rand.Rand) {
	delta := func() float64 { return (rng.Float64()*2 - 1) * m.Magnitude }

	for k := range p.Points {
		p.Points[k].X = clamp01(p.Points[k].X + delta())
		p.Points[k].Y = clamp01(p.Points[k].Y + delta())
	}
	p.R = clamp01(p.R + delta())
	p.G = clamp01(p.G + delta())
	p.B = clamp01(p.B + delta())
	p.A = clamp01(p.A + delta())
}

// UniformCrossover recombines adjacent offspring pairs by swapping
// polygons position-wise, each position independently with probability
// Probability.
type UniformCrossover struct {
	// Probability is the per-position swap probability.
	Probability float64
}

// Alter implements genetic.Alterer.
func (x UniformCrossover) Alter(pop []genetic.Phenotype[*Chromosome], generation int64, rng *rand.Rand) int {
	altered := 0
	for i := 0; i+1 < len(pop); i += 2 {
		a := pop[i].Genome.Clone()
		b := pop[i+1].Genome.Clone()

		n := min(len(a.Polygons), len(b.Polygons))
		swapped := false
		for j := 0; j < n; j++ {
			if rng.Float64() < x.Probability {
				a.Polygons[j], b.Polygons[j] = b.Polygons[j], a.Polygons[j]
				swapped = true
			}
		}

		if swapped {
			pop[i] = genetic.Offspring(a, generation)
			pop[i+1] = genetic.Offspring(b, generation)
			altered += 2
		}
	}
	return altered
}

// MeanAlterer blends adjacent offspring pairs: each polygon position of
// the first chromosome is, with probability Probability, replaced by the
// vertex- and channel-wise mean of both parents' polygons.
type MeanAlterer struct {
	// Probability is the per-position blend probability.
	Probability float64
}

// Alter implements genetic.Alterer.
func (ma MeanAlterer) Alter(pop []genetic.Phenotype[*Chromosome], generation int64, rng *rand.Rand) int {
	altered := 0
	for i := 0; i+1 < len(pop); i += 2 {
		a := pop[i].Genome
		b := pop[i+1].Genome

		var blended *Chromosome
		n := min(len(a.Polygons), len(b.Polygons))
		for j := 0; j < n; j++ {
			if rng.Float64() >= ma.Probability {
				continue
			}
			if blended == nil {
				blended = a.Clone()
			}
			blended.Polygons[j] = meanPolygon(blended.Polygons[j], b.Polygons[j])
		}

		if blended != nil {
			pop[i] = genetic.Offspring(blended, generation)
			altered++
		}
	}
	return altered
}

// meanPolygon averages two polygons vertex by vertex and channel by
// channel. Vertices beyond the shorter point list are kept from a.
func meanPolygon(a, b Polygon) Polygon {
	n := min(len(a.Points), len(b.Points))
	for k := 0; k < n; k++ {
		a.Points[k].X = (a.Points[k].X + b.Points[k].X) / 2
		a.Points[k].Y = (a.Points[k].Y + b.Points[k].Y) / 2
	}
	a.R = (a.R + b.R) / 2
	a.G = (a.G + b.G) / 2
	a.B = (a.B + b.B) / 2
	a.A = (a.A + b.A) / 2
	return a
}
