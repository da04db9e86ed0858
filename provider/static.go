package provider

import (
	"context"
	"fmt"
	"sync"

	"SECUREATTEND/models"
)

// Static answers from a fixed table keyed by the raw image bytes. It stands in for the
// model service in tests and offline demos.
type Static struct {
	mu     sync.RWMutex
	frames map[string][]Face
	calls  int
}

func NewStatic() *Static {
	return &Static{frames: make(map[string][]Face)}
}

// Set registers the faces returned for image.
func (s *Static) Set(image string, faces ...Face) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range faces {
		faces[i].Index = i
	}
	s.frames[image] = faces
}

// Calls reports how many times DetectAndEmbed ran.
func (s *Static) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

func (s *Static) DetectAndEmbed(ctx context.Context, image []byte) ([]Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	faces, ok := s.frames[string(image)]
	if !ok {
		return nil, fmt.Errorf("unknown image: %w", models.ErrDetectionFailed)
	}
	out := make([]Face, len(faces))
	copy(out, faces)
	return out, nil
}
