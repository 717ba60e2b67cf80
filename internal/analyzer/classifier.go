package analyzer

import (
	"context"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/features"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/storage"
)

// bridgeFrameThreshold splits the fallback heuristic: long sequences
// read as bridges, short ones as clams.
const bridgeFrameThreshold = 20

// SimilaritySearcher finds labeled attempts near a feature vector,
// scoped to one exercise type.
type SimilaritySearcher interface {
	SearchSimilarAttempts(ctx context.Context, exerciseType string, vec []float64, limit int) ([]storage.SimilarAttempt, error)
}

// Classifier guesses the exercise type of an unlabeled pose sequence.
// With a similarity searcher it votes by nearest stored attempt per
// candidate type; without one it falls back to a frame-count
// heuristic.
type Classifier struct {
	searcher   SimilaritySearcher
	extractor  *features.Extractor
	candidates []string
}

// NewClassifier returns a classifier over the candidate exercise
// types. searcher may be nil.
func NewClassifier(searcher SimilaritySearcher, candidates []string) *Classifier {
	return &Classifier{
		searcher:   searcher,
		extractor:  features.NewExtractor(),
		candidates: candidates,
	}
}

// Classify returns the best-guess exercise type, or "unknown" for an
// empty sequence.
func (c *Classifier) Classify(ctx context.Context, seq pose.Sequence) string {
	if len(seq) == 0 {
		return "unknown"
	}

	if c.searcher != nil {
		if guess, ok := c.classifyBySimilarity(ctx, seq); ok {
			return guess
		}
	}

	if len(seq) > bridgeFrameThreshold {
		return "bridge"
	}
	return "clam"
}

// classifyBySimilarity picks the candidate type whose nearest stored
// attempt is most similar to this sequence's feature vector.
func (c *Classifier) classifyBySimilarity(ctx context.Context, seq pose.Sequence) (string, bool) {
	vec := c.extractor.Extract(seq)

	best := ""
	bestSim := 0.0
	for _, candidate := range c.candidates {
		attempts, err := c.searcher.SearchSimilarAttempts(ctx, candidate, vec, 1)
		if err != nil || len(attempts) == 0 {
			continue
		}
		if best == "" || attempts[0].Similarity > bestSim {
			best = candidate
			bestSim = attempts[0].Similarity
		}
	}
	return best, best != ""
}
