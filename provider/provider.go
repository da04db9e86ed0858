// Package provider is the boundary to the external face detection and embedding model.
package provider

import (
	"context"

	"SECUREATTEND/models"
)

// Face is one detected face. Err is set when the region was found but its embedding
// could not be extracted; Embedding is then empty.
type Face struct {
	Index     int
	Region    models.Region
	Score     float64
	Embedding models.Embedding
	Err       error
}

// EmbeddingProvider detects faces in an image and embeds each of them. Implementations
// must be safe for concurrent use. A detector that cannot find any usable face may
// return models.ErrDetectionFailed instead of an empty slice.
type EmbeddingProvider interface {
	DetectAndEmbed(ctx context.Context, image []byte) ([]Face, error)
}
