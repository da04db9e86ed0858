package pipeline

import (
	"context"
	"errors"
	"testing"

	"SECUREATTEND/matcher"
	"SECUREATTEND/models"
	"SECUREATTEND/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classroom = matcher.Records{
	{Name: "alice", Embedding: models.Embedding{1, 0, 0}},
	{Name: "bob", Embedding: models.Embedding{0, 1, 0}},
}

type failingProvider struct{ err error }

func (f failingProvider) DetectAndEmbed(context.Context, []byte) ([]provider.Face, error) {
	return nil, f.err
}

func TestRecognize_MixedFrame(t *testing.T) {
	p := provider.NewStatic()
	p.Set("frame",
		provider.Face{Embedding: models.Embedding{0.9, 0.1, 0}, Region: models.Region{X2: 10, Y2: 10}},
		provider.Face{Err: errors.New("blurry")},
		provider.Face{Embedding: models.Embedding{0, 0.95, 0.05}},
		provider.Face{Embedding: models.Embedding{0, 0, 1}},
	)
	pl := New(p, matcher.Linear{}, 0.6)

	b, err := pl.Recognize(context.Background(), []byte("frame"), classroom)
	require.NoError(t, err)

	assert.Equal(t, 4, b.FacesDetected)
	require.Len(t, b.Results, 3)
	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "face 1")

	assert.Equal(t, 0, b.Results[0].Face)
	assert.Equal(t, "alice", b.Results[0].Identity)
	assert.Equal(t, models.Region{X2: 10, Y2: 10}, b.Results[0].Region)

	assert.Equal(t, 2, b.Results[1].Face)
	assert.Equal(t, "bob", b.Results[1].Identity)

	assert.Equal(t, 3, b.Results[2].Face)
	assert.False(t, b.Results[2].Matched)
}

func TestRecognize_NoFaces(t *testing.T) {
	p := provider.NewStatic()
	p.Set("empty")
	pl := New(p, matcher.Linear{}, 0.6)

	b, err := pl.Recognize(context.Background(), []byte("empty"), classroom)
	require.NoError(t, err)
	assert.Zero(t, b.FacesDetected)
	assert.Empty(t, b.Results)

	// detector refusing the frame is the same as seeing nothing
	b, err = pl.Recognize(context.Background(), []byte("unknown"), classroom)
	require.NoError(t, err)
	assert.Zero(t, b.FacesDetected)
}

func TestRecognize_ProviderOutage(t *testing.T) {
	pl := New(failingProvider{err: models.ErrEmbeddingFailed}, matcher.Linear{}, 0.6)
	_, err := pl.Recognize(context.Background(), []byte("frame"), classroom)
	assert.ErrorIs(t, err, models.ErrEmbeddingFailed)
}

func TestMatchAll_InvalidEmbeddingBecomesWarning(t *testing.T) {
	pl := New(provider.NewStatic(), matcher.Linear{}, 0.6)
	b := pl.MatchAll([]provider.Face{
		{Embedding: models.Embedding{1, 0}},
		{Embedding: models.Embedding{1, 0, 0}},
	}, classroom)

	assert.Equal(t, 2, b.FacesDetected)
	require.Len(t, b.Results, 1)
	assert.Equal(t, 1, b.Results[0].Face)
	assert.Len(t, b.Warnings, 1)
}

func TestDetectSingle(t *testing.T) {
	p := provider.NewStatic()
	p.Set("one", provider.Face{Embedding: models.Embedding{1, 2, 3}})
	p.Set("two", provider.Face{Embedding: models.Embedding{1, 0, 0}}, provider.Face{Embedding: models.Embedding{0, 1, 0}})
	p.Set("none")
	p.Set("broken", provider.Face{Err: errors.New("occluded")})
	pl := New(p, matcher.Linear{}, 0.6)
	ctx := context.Background()

	e, err := pl.DetectSingle(ctx, []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, models.Embedding{1, 2, 3}, e)

	_, err = pl.DetectSingle(ctx, []byte("two"))
	assert.ErrorIs(t, err, models.ErrMultipleFacesDetected)

	_, err = pl.DetectSingle(ctx, []byte("none"))
	assert.ErrorIs(t, err, models.ErrNoFaceDetected)

	_, err = pl.DetectSingle(ctx, []byte("unknown"))
	assert.ErrorIs(t, err, models.ErrNoFaceDetected)

	_, err = pl.DetectSingle(ctx, []byte("broken"))
	assert.ErrorIs(t, err, models.ErrEmbeddingFailed)
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, 0.42, New(nil, matcher.Linear{}, 0.42).Threshold())
}
