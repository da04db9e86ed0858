// Package matcher decides which enrolled identity, if any, a query embedding belongs to.
//
// Policy shared by every implementation: score all candidates by cosine similarity, keep
// the maximum, break ties by enrollment order, and report a match only when the maximum
// strictly exceeds the threshold.
package matcher

import (
	"fmt"

	"SECUREATTEND/helper"
	"SECUREATTEND/models"
)

// CandidateSource is a consistent, enrollment-ordered view of the identity store.
type CandidateSource interface {
	Candidates() []models.IdentityRecord
	// Version identifies the content of Candidates; 0 means unversioned.
	Version() uint64
}

// Matcher is substitutable: the linear scan and the HNSW index honour the same contract.
type Matcher interface {
	Match(query models.Embedding, candidates CandidateSource, threshold float64) (models.MatchResult, error)
}

// Records adapts a plain slice to CandidateSource.
type Records []models.IdentityRecord

func (r Records) Candidates() []models.IdentityRecord { return r }
func (r Records) Version() uint64                     { return 0 }

// Linear scores every candidate. O(N) per query.
type Linear struct{}

func (Linear) Match(query models.Embedding, candidates CandidateSource, threshold float64) (models.MatchResult, error) {
	if err := helper.ValidateEmbedding(query); err != nil {
		return models.MatchResult{}, fmt.Errorf("match query: %w", err)
	}
	recs := candidates.Candidates()
	positions := make([]int, len(recs))
	for i := range recs {
		positions[i] = i
	}
	return best(query, recs, positions, threshold)
}

// best applies the decision policy to recs[positions...]; positions must be ascending.
func best(query models.Embedding, recs []models.IdentityRecord, positions []int, threshold float64) (models.MatchResult, error) {
	if len(positions) == 0 {
		return models.MatchResult{}, nil
	}

	bestPos := -1
	bestSim := 0.0
	for _, pos := range positions {
		sim, err := helper.CosineSimilarity(query, recs[pos].Embedding)
		if err != nil {
			return models.MatchResult{}, fmt.Errorf("match against %q: %w", recs[pos].Name, err)
		}
		if bestPos < 0 || sim > bestSim {
			bestPos, bestSim = pos, sim
		}
	}

	res := models.MatchResult{Confidence: helper.Confidence(bestSim)}
	if bestSim > threshold {
		res.Identity = recs[bestPos].Name
		res.Matched = true
	}
	return res, nil
}
