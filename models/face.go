package models

import (
	"time"
)

// Embedding is a face vector produced by the external model. Its length is fixed per deployment.
type Embedding []float64

// Clone returns a copy that does not share the backing array.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// IdentityRecord is one enrolled person. Records are never mutated in place.
type IdentityRecord struct {
	Name       string    `json:"name"`
	Embedding  Embedding `json:"embedding"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Region is a face bounding box in pixel corner format [x1, y1, x2, y2].
type Region struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// MatchResult is the transient outcome of matching one query embedding.
// Identity is empty when Matched is false.
type MatchResult struct {
	Identity   string  `json:"identity,omitempty"`
	Confidence float64 `json:"confidence"`
	Matched    bool    `json:"matched"`
}
