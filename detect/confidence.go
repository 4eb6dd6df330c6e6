package detect

import (
	"github.com/brunobiangulo/clamba/process"
)

// ConfidenceWeights controls how much each signal contributes to the
// overall detection confidence. The four weights should sum to 1.
type ConfidenceWeights struct {
	// Count rewards reaching the expected number of processes.
	Count float64
	// Completeness rewards processes that fill every field.
	Completeness float64
	// StepRichness rewards processes with a healthy number of steps.
	StepRichness float64
	// Diversity rewards a spread of inferred process types.
	Diversity float64
	// StepReference is the average step count that earns the full
	// step-richness weight.
	StepReference float64
}

// DefaultConfidenceWeights returns the production weighting.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{
		Count:         0.3,
		Completeness:  0.3,
		StepRichness:  0.2,
		Diversity:     0.2,
		StepReference: 4.0,
	}
}

// Score computes a heuristic confidence in [0, 1] for a detection result.
// Each sub-score is capped at its own weight before summing.
// expectedCount is the midpoint of the configured process-count range.
func Score(processes []process.Process, weights ConfidenceWeights, expectedCount float64) float64 {
	if len(processes) == 0 {
		return 0
	}

	score := countScore(len(processes), expectedCount, weights.Count)
	score += completenessScore(processes, weights.Completeness)
	score += stepScore(processes, weights)
	score += diversityScore(processes, weights.Diversity)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func countScore(got int, expected, weight float64) float64 {
	if expected <= 0 {
		return weight
	}
	ratio := float64(got) / expected
	if ratio > 1 {
		ratio = 1
	}
	return weight * ratio
}

func completenessScore(processes []process.Process, weight float64) float64 {
	complete := 0
	for _, p := range processes {
		if p.IsComplete() {
			complete++
		}
	}
	return weight * float64(complete) / float64(len(processes))
}

func stepScore(processes []process.Process, weights ConfidenceWeights) float64 {
	if weights.StepReference <= 0 {
		return 0
	}
	total := 0
	for _, p := range processes {
		total += len(p.Steps)
	}
	avg := float64(total) / float64(len(processes))

	ratio := avg / weights.StepReference
	if ratio > 1 {
		ratio = 1
	}
	return weights.StepRichness * ratio
}

func diversityScore(processes []process.Process, weight float64) float64 {
	types := make(map[process.Type]bool)
	for _, p := range processes {
		types[p.Type] = true
	}
	ratio := float64(len(types)) / float64(len(processes))
	if ratio > 1 {
		ratio = 1
	}
	return weight * ratio
}
