// Package pipeline runs every face of one captured frame through the matcher.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"SECUREATTEND/matcher"
	"SECUREATTEND/models"
	"SECUREATTEND/provider"
)

// FaceResult is the match outcome of one detected face.
type FaceResult struct {
	Face   int           `json:"face"`
	Region models.Region `json:"region"`
	models.MatchResult
}

// Batch is the outcome of one frame. Results keep provider order; faces that could not be
// embedded or matched are absent from Results and described in Warnings.
type Batch struct {
	FacesDetected int          `json:"faces_detected"`
	Results       []FaceResult `json:"results"`
	Warnings      []string     `json:"warnings,omitempty"`
}

// Pipeline is safe for concurrent use when its provider and matcher are.
type Pipeline struct {
	provider  provider.EmbeddingProvider
	matcher   matcher.Matcher
	threshold float64
}

func New(p provider.EmbeddingProvider, m matcher.Matcher, threshold float64) *Pipeline {
	return &Pipeline{provider: p, matcher: m, threshold: threshold}
}

func (p *Pipeline) Threshold() float64 {
	return p.threshold
}

// Detect calls the provider. No faces is a valid answer here.
func (p *Pipeline) Detect(ctx context.Context, image []byte) ([]provider.Face, error) {
	faces, err := p.provider.DetectAndEmbed(ctx, image)
	if errors.Is(err, models.ErrDetectionFailed) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	return faces, nil
}

// DetectSingle is the enrollment variant: exactly one usable face is required.
func (p *Pipeline) DetectSingle(ctx context.Context, image []byte) (models.Embedding, error) {
	faces, err := p.provider.DetectAndEmbed(ctx, image)
	if errors.Is(err, models.ErrDetectionFailed) {
		return nil, fmt.Errorf("%w: %w", models.ErrNoFaceDetected, err)
	}
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	switch len(faces) {
	case 0:
		return nil, models.ErrNoFaceDetected
	case 1:
	default:
		return nil, fmt.Errorf("%d faces: %w", len(faces), models.ErrMultipleFacesDetected)
	}
	if faces[0].Err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingFailed, faces[0].Err)
	}
	return faces[0].Embedding, nil
}

// MatchAll matches every face against the same candidate snapshot.
func (p *Pipeline) MatchAll(faces []provider.Face, candidates matcher.CandidateSource) Batch {
	b := Batch{FacesDetected: len(faces), Results: make([]FaceResult, 0, len(faces))}
	for i, f := range faces {
		if f.Err != nil {
			b.Warnings = append(b.Warnings, fmt.Sprintf("face %d skipped: %v", i, f.Err))
			continue
		}
		res, err := p.matcher.Match(f.Embedding, candidates, p.threshold)
		if err != nil {
			b.Warnings = append(b.Warnings, fmt.Sprintf("face %d skipped: %v", i, err))
			continue
		}
		b.Results = append(b.Results, FaceResult{Face: i, Region: f.Region, MatchResult: res})
	}
	return b
}

// Recognize is Detect followed by MatchAll.
func (p *Pipeline) Recognize(ctx context.Context, image []byte, candidates matcher.CandidateSource) (Batch, error) {
	faces, err := p.Detect(ctx, image)
	if err != nil {
		return Batch{}, err
	}
	return p.MatchAll(faces, candidates), nil
}
