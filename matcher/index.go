package matcher

import (
	"fmt"
	"sort"
	"sync"

	"SECUREATTEND/helper"
	"SECUREATTEND/models"

	"github.com/coder/hnsw"
)

const (
	defaultIndexCandidates = 16
	defaultIndexMinSize    = 256
	indexMaxNeighbors      = 16
)

// Index narrows candidates with an HNSW graph and re-scores the survivors exactly.
// The graph is rebuilt whenever the candidate version changes. Stores smaller than
// MinSize, and unversioned sources, use the linear scan so results stay exact.
type Index struct {
	K       int
	MinSize int

	mu      sync.Mutex
	version uint64
	graph   *hnsw.Graph[int]
}

func NewIndex(k, minSize int) *Index {
	if k <= 0 {
		k = defaultIndexCandidates
	}
	if minSize <= 0 {
		minSize = defaultIndexMinSize
	}
	return &Index{K: k, MinSize: minSize}
}

func (ix *Index) Match(query models.Embedding, candidates CandidateSource, threshold float64) (models.MatchResult, error) {
	recs := candidates.Candidates()
	if len(recs) < ix.MinSize || candidates.Version() == 0 {
		return Linear{}.Match(query, candidates, threshold)
	}
	if err := helper.ValidateEmbedding(query); err != nil {
		return models.MatchResult{}, fmt.Errorf("match query: %w", err)
	}
	if len(query) != len(recs[0].Embedding) {
		return models.MatchResult{}, fmt.Errorf("query length %d, store uses %d: %w", len(query), len(recs[0].Embedding), models.ErrInvalidEmbedding)
	}

	ix.mu.Lock()
	if ix.graph == nil || ix.version != candidates.Version() {
		ix.graph = buildGraph(recs)
		ix.version = candidates.Version()
	}
	nodes := ix.graph.Search(toFloat32(query), ix.K)
	ix.mu.Unlock()

	positions := make([]int, 0, len(nodes))
	for _, n := range nodes {
		positions = append(positions, n.Key)
	}
	sort.Ints(positions)
	return best(query, recs, positions, threshold)
}

func buildGraph(recs []models.IdentityRecord) *hnsw.Graph[int] {
	g := hnsw.NewGraph[int]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors)
	g.Distance = hnsw.CosineDistance

	for i, r := range recs {
		g.Add(hnsw.MakeNode(i, toFloat32(r.Embedding)))
	}
	return g
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
