package matcher

import (
	"fmt"
	"math/rand"
	"testing"

	"SECUREATTEND/helper"
	"SECUREATTEND/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(name string, e ...float64) models.IdentityRecord {
	return models.IdentityRecord{Name: name, Embedding: e}
}

// versioned lets tests drive the Index code path without an identity store.
type versioned struct {
	Records
	v uint64
}

func (s versioned) Version() uint64 { return s.v }

func randomRecords(r *rand.Rand, n, dim int) Records {
	out := make(Records, n)
	for i := range out {
		e := make(models.Embedding, dim)
		for j := range e {
			e[j] = r.NormFloat64()
		}
		out[i] = models.IdentityRecord{Name: fmt.Sprintf("person-%03d", i), Embedding: e}
	}
	return out
}

func TestLinear_ClosestIdentityWins(t *testing.T) {
	store := Records{rec("alice", 1, 0, 0), rec("bob", 0, 1, 0)}

	res, err := Linear{}.Match(models.Embedding{0.9, 0.1, 0}, store, 0.6)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "alice", res.Identity)
	assert.InDelta(t, 0.994, res.Confidence, 0.001)
}

func TestLinear_EmptyStore(t *testing.T) {
	res, err := Linear{}.Match(models.Embedding{1, 0, 0}, Records{}, 0.6)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Empty(t, res.Identity)
	assert.Zero(t, res.Confidence)
}

func TestLinear_BelowThreshold(t *testing.T) {
	store := Records{rec("alice", 1, 0, 0), rec("bob", 0, 1, 0)}

	res, err := Linear{}.Match(models.Embedding{0, 0, 1}, store, 0.6)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Empty(t, res.Identity)
}

func TestLinear_EqualToThresholdIsNotAMatch(t *testing.T) {
	store := Records{rec("alice", 1, 0, 0)}
	query := models.Embedding{1, 1, 0}
	sim, err := helper.CosineSimilarity(query, store[0].Embedding)
	require.NoError(t, err)

	res, err := Linear{}.Match(query, store, sim)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.InDelta(t, sim, res.Confidence, 1e-12)

	res, err = Linear{}.Match(query, store, sim-1e-9)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "alice", res.Identity)
}

func TestLinear_TieGoesToFirstEnrolled(t *testing.T) {
	query := models.Embedding{1, 0}

	res, err := Linear{}.Match(query, Records{rec("alice", 1, 0), rec("carol", 2, 0)}, 0.6)
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Identity)

	res, err = Linear{}.Match(query, Records{rec("carol", 2, 0), rec("alice", 1, 0)}, 0.6)
	require.NoError(t, err)
	assert.Equal(t, "carol", res.Identity)
}

func TestLinear_Deterministic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	store := randomRecords(r, 50, 8)
	query := store[17].Embedding.Clone()
	query[0] += 0.01

	first, err := Linear{}.Match(query, store, 0.5)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Linear{}.Match(query, store, 0.5)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "person-017", first.Identity)
}

func TestLinear_InvalidQuery(t *testing.T) {
	store := Records{rec("alice", 1, 0, 0)}

	tests := []struct {
		name  string
		query models.Embedding
	}{
		{"empty", models.Embedding{}},
		{"zero", models.Embedding{0, 0, 0}},
		{"wrong length", models.Embedding{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Linear{}.Match(tt.query, store, 0.6)
			assert.ErrorIs(t, err, models.ErrInvalidEmbedding)
		})
	}
}

func TestIndex_SmallStoreUsesLinearScan(t *testing.T) {
	ix := NewIndex(0, 0)
	assert.Equal(t, defaultIndexCandidates, ix.K)
	assert.Equal(t, defaultIndexMinSize, ix.MinSize)

	store := versioned{Records: Records{rec("alice", 1, 0), rec("carol", 2, 0)}, v: 1}
	res, err := ix.Match(models.Embedding{1, 0}, store, 0.6)
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Identity)
	assert.Nil(t, ix.graph)
}

func TestIndex_UnversionedSourceUsesLinearScan(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	store := randomRecords(r, 40, 8)

	ix := NewIndex(4, 2)
	res, err := ix.Match(store[3].Embedding, store, 0.9)
	require.NoError(t, err)
	assert.Equal(t, "person-003", res.Identity)
	assert.Nil(t, ix.graph)
}

func TestIndex_AgreesWithLinearWhenKCoversStore(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	recs := randomRecords(r, 64, 12)
	store := versioned{Records: recs, v: 3}
	ix := NewIndex(len(recs), 8)

	for i := 0; i < 30; i++ {
		query := make(models.Embedding, 12)
		for j := range query {
			query[j] = r.NormFloat64()
		}
		want, err := Linear{}.Match(query, recs, 0.2)
		require.NoError(t, err)
		got, err := ix.Match(query, store, 0.2)
		require.NoError(t, err)
		assert.Equal(t, want, got, "query %d", i)
	}
}

func TestIndex_FindsEnrolledFace(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	recs := randomRecords(r, 300, 16)
	store := versioned{Records: recs, v: 1}
	ix := NewIndex(32, 100)

	for _, i := range []int{0, 57, 150, 299} {
		res, err := ix.Match(recs[i].Embedding, store, 0.95)
		require.NoError(t, err)
		assert.True(t, res.Matched)
		assert.Equal(t, recs[i].Name, res.Identity)
		assert.InDelta(t, 1.0, res.Confidence, 1e-6)
	}
}

func TestIndex_RebuildsOnVersionChange(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	recs := randomRecords(r, 20, 6)
	ix := NewIndex(len(recs)+1, 4)

	_, err := ix.Match(recs[0].Embedding, versioned{Records: recs[:10], v: 1}, 0.9)
	require.NoError(t, err)
	first := ix.graph

	res, err := ix.Match(recs[15].Embedding, versioned{Records: recs, v: 2}, 0.9)
	require.NoError(t, err)
	assert.NotSame(t, first, ix.graph)
	assert.Equal(t, uint64(2), ix.version)
	assert.Equal(t, recs[15].Name, res.Identity)
}

func TestIndex_QueryLengthMismatch(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	recs := randomRecords(r, 10, 6)
	ix := NewIndex(4, 2)

	_, err := ix.Match(models.Embedding{1, 2, 3}, versioned{Records: recs, v: 1}, 0.5)
	assert.ErrorIs(t, err, models.ErrInvalidEmbedding)
}
