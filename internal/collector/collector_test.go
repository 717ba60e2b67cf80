package collector

import (
	"math"
	"strings"
	"testing"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

func testSequence() pose.Sequence {
	return pose.Sequence{
		{
			Landmarks: []pose.Landmark{{X: 0.1, Y: 0.2, Z: 0.3}},
			Angles:    map[string]float64{"left_elbow": 95.5},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	id, err := store.Save("push_up", testSequence(), 82.5, "felt solid", map[string]string{"camera": "side"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(id, "push_up_") {
		t.Errorf("id = %q, want push_up_ prefix", id)
	}

	examples, err := store.Load("push_up")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(examples) != 1 {
		t.Fatalf("loaded %d examples, want 1", len(examples))
	}
	got := examples[0]
	if got.ID != id || got.ExerciseType != "push_up" || got.Score != 82.5 {
		t.Errorf("example = %+v", got)
	}
	if got.UserFeedback != "felt solid" || got.Metadata["camera"] != "side" {
		t.Errorf("example = %+v", got)
	}
	if len(got.PoseData) != 1 || got.PoseData[0].Angles["left_elbow"] != 95.5 {
		t.Errorf("pose data = %+v", got.PoseData)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestSaveRejectsOutOfRangeScore(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, score := range []float64{-1, 100.5} {
		if _, err := store.Save("squat", testSequence(), score, "", nil); err == nil {
			t.Errorf("Save(score=%v) succeeded, want error", score)
		}
	}
	if examples, _ := store.Load("squat"); len(examples) != 0 {
		t.Errorf("rejected saves still stored %d examples", len(examples))
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	examples, err := store.Load("bridge")
	if err != nil {
		t.Errorf("Load of missing file: %v", err)
	}
	if examples != nil {
		t.Errorf("examples = %v, want nil", examples)
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	scores := []float64{10, 55, 90}
	for _, s := range scores {
		if _, err := store.Save("clam", testSequence(), s, "", nil); err != nil {
			t.Fatalf("Save(%v): %v", s, err)
		}
	}

	examples, err := store.Load("clam")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(examples) != len(scores) {
		t.Fatalf("loaded %d examples, want %d", len(examples), len(scores))
	}
	for i, want := range scores {
		if examples[i].Score != want {
			t.Errorf("examples[%d].Score = %v, want %v", i, examples[i].Score, want)
		}
	}
}

func TestStoresArePerExerciseType(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Save("push_up", testSequence(), 70, "", nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if examples, _ := store.Load("squat"); len(examples) != 0 {
		t.Errorf("squat store contains push_up examples")
	}
}

func TestStats(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	empty, err := store.Stats("squat")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if empty.Count != 0 {
		t.Errorf("empty stats = %+v", empty)
	}

	for _, s := range []float64{60, 70, 80} {
		if _, err := store.Save("squat", testSequence(), s, "", nil); err != nil {
			t.Fatalf("Save(%v): %v", s, err)
		}
	}
	stats, err := store.Stats("squat")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Count != 3 || stats.MinScore != 60 || stats.MaxScore != 80 {
		t.Errorf("stats = %+v", stats)
	}
	if math.Abs(stats.AvgScore-70) > 1e-9 {
		t.Errorf("avg = %v, want 70", stats.AvgScore)
	}
	wantStd := math.Sqrt(200.0 / 3.0)
	if math.Abs(stats.StdScore-wantStd) > 1e-9 {
		t.Errorf("std = %v, want %v", stats.StdScore, wantStd)
	}
}
