// Point-of-interest placement using layered simplex noise.
// Samples a square grid, keeps the noise peaks and enforces a minimum spacing.
package world

import (
	"math"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/mini-brain/internal/vmath"
)

// CategoryPOI is the Category given to scattered points of interest.
const CategoryPOI = "poi"

// GenConfig holds POI placement parameters.
type GenConfig struct {
	Radius     float64 // Half-extent of the sampled square around the origin
	Step       float64 // Grid spacing between samples
	Seed       int64   // Noise seed (0 = random)
	Count      int     // Maximum number of POIs
	MinSpacing float64 // Minimum distance between two POIs
	Threshold  float64 // Minimum normalized noise value (0.0–1.0) for a candidate
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:     20,
		Step:       1,
		Seed:       0,
		Count:      8,
		MinSpacing: 4,
		Threshold:  0.55,
	}
}

// SmallTestConfig returns a tiny field for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:     6,
		Step:       1,
		Seed:       42,
		Count:      3,
		MinSpacing: 3,
		Threshold:  0.5,
	}
}

// ScatterPOIs spawns up to cfg.Count POI entities at noise peaks and returns them.
func ScatterPOIs(w *World, cfg GenConfig) []*Entity {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	if cfg.Step <= 0 {
		cfg.Step = 1
	}

	noise := opensimplex.NewNormalized(seed)

	type candidate struct {
		pos   vmath.Vec3
		value float64
	}
	var candidates []candidate

	for x := -cfg.Radius; x <= cfg.Radius; x += cfg.Step {
		for y := -cfg.Radius; y <= cfg.Radius; y += cfg.Step {
			v := octaveNoise(noise, x, y, 3, 0.08, 0.5)
			if v < cfg.Threshold {
				continue
			}
			candidates = append(candidates, candidate{vmath.Vec3{X: x, Y: y}, v})
		}
	}

	// Highest peaks first; position breaks ties so placement is deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].value != candidates[j].value {
			return candidates[i].value > candidates[j].value
		}
		if candidates[i].pos.X != candidates[j].pos.X {
			return candidates[i].pos.X < candidates[j].pos.X
		}
		return candidates[i].pos.Y < candidates[j].pos.Y
	})

	minSq := cfg.MinSpacing * cfg.MinSpacing
	var placed []*Entity
	for _, c := range candidates {
		if len(placed) >= cfg.Count {
			break
		}
		tooClose := false
		for _, p := range placed {
			if p.Position().Sub(c.pos).LengthSq() < minSq {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		e := w.Spawn("POI", c.pos)
		e.Category = CategoryPOI
		placed = append(placed, e)
	}

	return placed
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return math.Max(0, math.Min(1, total/maxVal))
}
