package evolve

import (
	"fmt"
	"strconv"
)

// Param holds the engine parameters of one worker configuration.
// Parameters are plain values: loading and persisting them goes through
// the [Store] interface so the core never touches a preferences backend
// directly.
type Param struct {
	// PolygonCount is the number of polygons per chromosome.
	PolygonCount int

	// PolygonLength is the number of vertices per polygon.
	PolygonLength int

	// PopulationSize is the number of chromosomes per generation.
	PopulationSize int

	// TournamentSize is the tournament size of the offspring selector.
	TournamentSize int

	// MutationRate is the per-polygon mutation probability.
	MutationRate float64

	// MutationMagnitude is the maximum perturbation a mutation applies
	// to a vertex coordinate or color channel.
	MutationMagnitude float64

	// ReferenceWidth and ReferenceHeight are the evaluation resolution:
	// the source image is scaled down to this size before fitness
	// comparison.
	ReferenceWidth  int
	ReferenceHeight int

	// Workers is the number of parallel evaluation slots.
	// 0 means GOMAXPROCS.
	Workers int
}

// DefaultParam returns the default engine parameters.
func DefaultParam() Param {
	return Param{
		PolygonCount:      50,
		PolygonLength:     6,
		PopulationSize:    40,
		TournamentSize:    3,
		MutationRate:      0.02,
		MutationMagnitude: 0.15,
		ReferenceWidth:    50,
		ReferenceHeight:   50,
	}
}

// Validate reports the first invalid parameter, or nil.
func (p Param) Validate() error {
	switch {
	case p.PolygonCount < 1:
		return fmt.Errorf("evolve: polygon count must be >= 1, got %d", p.PolygonCount)
	case p.PolygonLength < 3:
		return fmt.Errorf("evolve: polygon length must be >= 3, got %d", p.PolygonLength)
	case p.PopulationSize < 1:
		return fmt.Errorf("evolve: population size must be >= 1, got %d", p.PopulationSize)
	case p.TournamentSize < 1:
		return fmt.Errorf("evolve: tournament size must be >= 1, got %d", p.TournamentSize)
	case p.MutationRate < 0 || p.MutationRate > 1:
		return fmt.Errorf("evolve: mutation rate must be in [0,1], got %v", p.MutationRate)
	case p.MutationMagnitude < 0 || p.MutationMagnitude > 1:
		return fmt.Errorf("evolve: mutation magnitude must be in [0,1], got %v", p.MutationMagnitude)
	case p.ReferenceWidth < 1 || p.ReferenceHeight < 1:
		return fmt.Errorf("evolve: reference size must be positive, got %dx%d",
			p.ReferenceWidth, p.ReferenceHeight)
	case p.Workers < 0:
		return fmt.Errorf("evolve: workers must be >= 0, got %d", p.Workers)
	}
	return nil
}

// Store is an injected key-value configuration backend, the seam to
// whatever preference storage the surrounding application uses.
type Store interface {
	// Get returns the value stored for key and whether it was present.
	Get(key string) (string, bool)

	// Set stores value under key.
	Set(key, value string)
}

// Preference keys used by LoadParam and Param.Store.
const (
	keyPolygonCount      = "polygon_count"
	keyPolygonLength     = "polygon_length"
	keyPopulationSize    = "population_size"
	keyTournamentSize    = "tournament_size"
	keyMutationRate      = "mutation_rate"
	keyMutationMagnitude = "mutation_magnitude"
	keyReferenceWidth    = "reference_width"
	keyReferenceHeight   = "reference_height"
	keyWorkers           = "workers"
)

// LoadParam reads parameters from st, falling back to DefaultParam for
// keys that are missing or unparsable.
func LoadParam(st Store) Param {
	p := DefaultParam()
	loadInt(st, keyPolygonCount, &p.PolygonCount)
	loadInt(st, keyPolygonLength, &p.PolygonLength)
	loadInt(st, keyPopulationSize, &p.PopulationSize)
	loadInt(st, keyTournamentSize, &p.TournamentSize)
	loadFloat(st, keyMutationRate, &p.MutationRate)
	loadFloat(st, keyMutationMagnitude, &p.MutationMagnitude)
	loadInt(st, keyReferenceWidth, &p.ReferenceWidth)
	loadInt(st, keyReferenceHeight, &p.ReferenceHeight)
	loadInt(st, keyWorkers, &p.Workers)
	return p
}

// Store writes all parameters to st.
func (p Param) Store(st Store) {
	st.Set(keyPolygonCount, strconv.Itoa(p.PolygonCount))
	st.Set(keyPolygonLength, strconv.Itoa(p.PolygonLength))
	st.Set(keyPopulationSize, strconv.Itoa(p.PopulationSize))
	st.Set(keyTournamentSize, strconv.Itoa(p.TournamentSize))
	st.Set(keyMutationRate, strconv.FormatFloat(p.MutationRate, 'g', -1, 64))
	st.Set(keyMutationMagnitude, strconv.FormatFloat(p.MutationMagnitude, 'g', -1, 64))
	st.Set(keyReferenceWidth, strconv.Itoa(p.ReferenceWidth))
	st.Set(keyReferenceHeight, strconv.Itoa(p.ReferenceHeight))
	st.Set(keyWorkers, strconv.Itoa(p.Workers))
}

func loadInt(st Store, key string, dst *int) {
	if s, ok := st.Get(key); ok {
		if v, err := strconv.Atoi(s); err == nil {
			*dst = v
		}
	}
}

func loadFloat(st Store, key string, dst *float64) {
	if s, ok := st.Get(key); ok {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*dst = v
		}
	}
}
