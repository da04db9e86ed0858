package helper

import (
	"fmt"
	"math"

	"SECUREATTEND/models"

	"gonum.org/v1/gonum/floats"
)

// ValidateEmbedding rejects empty, all-zero and non-finite vectors.
func ValidateEmbedding(v []float64) error {
	if len(v) == 0 {
		return fmt.Errorf("empty vector: %w", models.ErrInvalidEmbedding)
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("non-finite component: %w", models.ErrInvalidEmbedding)
		}
	}
	if floats.Norm(v, 2) == 0 {
		return fmt.Errorf("all-zero vector: %w", models.ErrInvalidEmbedding)
	}
	return nil
}

// CosineSimilarity returns dot(a,b) / (|a| * |b|), clamped to [-1, 1].
// Both vectors must be valid and of equal length.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length %d vs %d: %w", len(a), len(b), models.ErrInvalidEmbedding)
	}
	if err := ValidateEmbedding(a); err != nil {
		return 0, err
	}
	if err := ValidateEmbedding(b); err != nil {
		return 0, err
	}

	sim := floats.Dot(a, b) / (floats.Norm(a, 2) * floats.Norm(b, 2))
	// floating point noise can push identical vectors just past 1
	return math.Max(-1, math.Min(1, sim)), nil
}

// Confidence maps a cosine similarity onto [0, 1].
func Confidence(sim float64) float64 {
	return math.Max(0, math.Min(1, sim))
}
