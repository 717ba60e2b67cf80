package analyzer

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/exercises"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/ml"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	trainer, err := ml.NewTrainer(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	return NewOrchestrator(exercises.NewRegistry(exercises.DefaultConfig()), trainer, discardLogger())
}

func squatSequence(minKnee float64) pose.Sequence {
	mk := func(knee, hip float64) pose.Frame {
		return pose.Frame{
			Landmarks: make([]pose.Landmark, 33),
			Angles:    map[string]float64{"left_knee": knee, "left_hip": hip},
		}
	}
	return pose.Sequence{mk(170, 160), mk(minKnee, 90), mk(170, 160)}
}

func TestAnalyzeUnsupportedExercise(t *testing.T) {
	orch := newTestOrchestrator(t)
	_, err := orch.Analyze("handstand", squatSequence(70))
	if !errors.Is(err, exercises.ErrUnsupportedExercise) {
		t.Errorf("Analyze error = %v, want ErrUnsupportedExercise", err)
	}
}

func TestAnalyzeFallsBackWithoutModel(t *testing.T) {
	orch := newTestOrchestrator(t)

	result, err := orch.Analyze("squat", squatSequence(70))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Method != exercises.MethodRuleBased {
		t.Errorf("method = %v, want rule_based when no model exists", result.Method)
	}
	if result.Score != 100 {
		t.Errorf("score = %v, want 100", result.Score)
	}
	if orch.ModelExists("squat") {
		t.Error("ModelExists = true with empty model dir")
	}
}

func TestAnalyzeFallbackCoversAllExercises(t *testing.T) {
	orch := newTestOrchestrator(t)
	registry := exercises.NewRegistry(exercises.DefaultConfig())

	for _, id := range registry.Supported() {
		result, err := orch.Analyze(id, squatSequence(70))
		if err != nil {
			t.Errorf("%s: Analyze error = %v, want usable result", id, err)
			continue
		}
		if result.Method != exercises.MethodRuleBased {
			t.Errorf("%s: method = %v, want rule_based", id, result.Method)
		}
		if result.Score < 0 || result.Score > 100 {
			t.Errorf("%s: score = %v out of [0,100]", id, result.Score)
		}
		if len(result.Feedback) == 0 {
			t.Errorf("%s: no feedback", id)
		}
	}
}

func TestAnalyzeUsesTrainedModel(t *testing.T) {
	dir := t.TempDir()
	trainer, err := ml.NewTrainer(dir, discardLogger())
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}

	examples := make([]ml.Example, 20)
	for i := range examples {
		minKnee := 60 + float64(i)*3
		examples[i] = ml.Example{Sequence: squatSequence(minKnee), Score: 40 + float64(i)*2}
	}
	if _, err := trainer.Train("squat", examples, ml.KindGradientBoosting); err != nil {
		t.Fatalf("Train: %v", err)
	}

	orch := NewOrchestrator(exercises.NewRegistry(exercises.DefaultConfig()), trainer, discardLogger())
	if !orch.ModelExists("squat") {
		t.Fatal("ModelExists = false after training")
	}

	result, err := orch.Analyze("squat", squatSequence(75))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Method != exercises.MethodMLModel {
		t.Errorf("method = %v, want ml_model", result.Method)
	}
	if result.Score < 0 || result.Score > 100 {
		t.Errorf("score = %v out of [0,100]", result.Score)
	}
	if len(result.Feedback) == 0 || result.Feedback[0] != exercises.TierSummary(result.Score) {
		t.Errorf("feedback = %v, want tier summary first", result.Feedback)
	}

	// Other exercise types are untouched by the squat model.
	other, err := orch.Analyze("push_up", squatSequence(75))
	if err != nil {
		t.Fatalf("Analyze(push_up): %v", err)
	}
	if other.Method != exercises.MethodRuleBased {
		t.Errorf("push_up method = %v, want rule_based", other.Method)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	orch := newTestOrchestrator(t)
	seq := squatSequence(101)

	first, err := orch.Analyze("squat", seq)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := orch.Analyze("squat", seq)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated analysis differs: %+v vs %+v", first, second)
	}
}

func TestAnalyzeNilTrainer(t *testing.T) {
	orch := NewOrchestrator(exercises.NewRegistry(exercises.DefaultConfig()), nil, discardLogger())

	result, err := orch.Analyze("squat", squatSequence(70))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Method != exercises.MethodRuleBased {
		t.Errorf("method = %v, want rule_based with nil trainer", result.Method)
	}
	if orch.ModelExists("squat") {
		t.Error("ModelExists = true with nil trainer")
	}
}

func TestVideoRequirements(t *testing.T) {
	orch := newTestOrchestrator(t)

	reqs, err := orch.VideoRequirements("pull_up")
	if err != nil {
		t.Fatalf("VideoRequirements: %v", err)
	}
	if len(reqs) == 0 {
		t.Error("no requirements returned")
	}

	if _, err := orch.VideoRequirements("handstand"); !errors.Is(err, exercises.ErrUnsupportedExercise) {
		t.Errorf("error = %v, want ErrUnsupportedExercise", err)
	}
}
