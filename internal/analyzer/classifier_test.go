package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/storage"
)

type fakeSearcher struct {
	similarity map[string]float64
	err        error
}

func (f *fakeSearcher) SearchSimilarAttempts(ctx context.Context, exerciseType string, vec []float64, limit int) ([]storage.SimilarAttempt, error) {
	if f.err != nil {
		return nil, f.err
	}
	sim, ok := f.similarity[exerciseType]
	if !ok {
		return nil, nil
	}
	return []storage.SimilarAttempt{{ExampleID: exerciseType + "_1", Similarity: sim}}, nil
}

func staticSequence(n int) pose.Sequence {
	seq := make(pose.Sequence, n)
	for i := range seq {
		seq[i] = pose.Frame{
			Landmarks: make([]pose.Landmark, 33),
			Angles:    map[string]float64{"left_knee": 120},
		}
	}
	return seq
}

func TestClassifyEmptySequence(t *testing.T) {
	c := NewClassifier(nil, []string{"bridge", "clam"})
	if got := c.Classify(context.Background(), nil); got != "unknown" {
		t.Errorf("Classify(empty) = %q, want unknown", got)
	}
}

func TestClassifyFrameCountHeuristic(t *testing.T) {
	c := NewClassifier(nil, []string{"bridge", "clam"})
	ctx := context.Background()

	if got := c.Classify(ctx, staticSequence(30)); got != "bridge" {
		t.Errorf("Classify(30 frames) = %q, want bridge", got)
	}
	if got := c.Classify(ctx, staticSequence(5)); got != "clam" {
		t.Errorf("Classify(5 frames) = %q, want clam", got)
	}
	if got := c.Classify(ctx, staticSequence(20)); got != "clam" {
		t.Errorf("Classify(20 frames) = %q, want clam at the threshold", got)
	}
}

func TestClassifyBySimilarity(t *testing.T) {
	searcher := &fakeSearcher{similarity: map[string]float64{
		"bridge": 0.42,
		"squat":  0.91,
	}}
	c := NewClassifier(searcher, []string{"bridge", "clam", "squat"})

	// Short sequence would read as clam by frame count; the similarity
	// vote overrides it.
	if got := c.Classify(context.Background(), staticSequence(5)); got != "squat" {
		t.Errorf("Classify = %q, want squat", got)
	}
}

func TestClassifySearcherFailureFallsBack(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	c := NewClassifier(searcher, []string{"bridge", "clam"})

	if got := c.Classify(context.Background(), staticSequence(30)); got != "bridge" {
		t.Errorf("Classify = %q, want frame-count fallback bridge", got)
	}
}
