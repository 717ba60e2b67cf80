// Package ml fits and serves the learned form-score regressors: a
// fixed-length feature vector per repetition, a per-exercise feature
// scaler, and an ensemble-of-trees regressor, persisted together as
// one artifact pair per exercise type.
package ml

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/features"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

// MinTrainingExamples is the training floor: the feature vector is
// tens of dimensions wide and regression below this sample count is
// unreliable.
const MinTrainingExamples = 10

const (
	splitSeed    = 42
	testFraction = 0.2

	// NeutralScore is returned by Predict when no artifact exists for
	// the exercise type.
	NeutralScore = 50.0

	extractWorkers = 4
)

var (
	// ErrInsufficientData rejects training with too few examples.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrTrainingFailed wraps numerical or persistence failures during
	// an explicit, operator-triggered training run. Never silently
	// recovered.
	ErrTrainingFailed = errors.New("training failed")
)

// Example pairs one repetition's pose sequence with its labeled score.
type Example struct {
	Sequence pose.Sequence
	Score    float64
}

// Report summarizes one training run.
type Report struct {
	ExerciseType    string  `json:"exercise_type"`
	ModelKind       Kind    `json:"model_kind"`
	TrainingSamples int     `json:"training_samples"`
	TestSamples     int     `json:"test_samples"`
	TrainMSE        float64 `json:"train_mse"`
	TestMSE         float64 `json:"test_mse"`
	TrainRMSE       float64 `json:"train_rmse"`
	TestRMSE        float64 `json:"test_rmse"`
	TrainR2         float64 `json:"train_r2"`
	TestR2          float64 `json:"test_r2"`
}

// Trainer fits, persists, and serves form-score models keyed by
// exercise type. Training different exercise types concurrently is
// safe; concurrent training of the same type is serialized by the
// artifact store.
type Trainer struct {
	store     *ArtifactStore
	extractor *features.Extractor
	logger    *slog.Logger

	// OnProgress, when set, is called after each example's features are
	// extracted during a training run. Calls arrive from multiple
	// workers concurrently.
	OnProgress func(done, total int)
}

// NewTrainer returns a trainer persisting artifacts under dir.
func NewTrainer(dir string, logger *slog.Logger) (*Trainer, error) {
	store, err := NewArtifactStore(dir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{
		store:     store,
		extractor: features.NewExtractor(),
		logger:    logger,
	}, nil
}

// Train fits a regressor of the requested kind for one exercise type
// and persists the (model, scaler) pair, overwriting any prior
// artifact. It fails with ErrInsufficientData below the training floor
// without touching the filesystem.
func (t *Trainer) Train(exerciseType string, examples []Example, kind Kind) (*Report, error) {
	if len(examples) < MinTrainingExamples {
		return nil, fmt.Errorf("%w: need at least %d training examples, got %d",
			ErrInsufficientData, MinTrainingExamples, len(examples))
	}
	for i, ex := range examples {
		if ex.Score < 0 || ex.Score > 100 {
			return nil, fmt.Errorf("%w: example %d has score %.2f outside [0,100]",
				ErrTrainingFailed, i, ex.Score)
		}
	}

	t.logger.Info("extracting features",
		"exercise_type", exerciseType, "examples", len(examples))
	X := t.ExtractAll(examples)
	y := make([]float64, len(examples))
	for i := range examples {
		y[i] = examples[i].Score
	}

	trainIdx, testIdx := splitIndices(len(examples))
	XTrain, yTrain := gather(X, y, trainIdx)
	XTest, yTest := gather(X, y, testIdx)

	scaler := FitScaler(XTrain)
	XTrainScaled := scaler.TransformAll(XTrain)
	XTestScaled := scaler.TransformAll(XTest)

	t.logger.Info("fitting model", "exercise_type", exerciseType, "kind", string(kind))
	model, err := fitRegressor(kind, XTrainScaled, yTrain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingFailed, err)
	}

	trainPred := predictAll(model, XTrainScaled)
	testPred := predictAll(model, XTestScaled)
	trainMSE := meanSquaredError(yTrain, trainPred)
	testMSE := meanSquaredError(yTest, testPred)
	if math.IsNaN(trainMSE) || math.IsInf(trainMSE, 0) {
		return nil, fmt.Errorf("%w: degenerate feature matrix for %q", ErrTrainingFailed, exerciseType)
	}

	artifact := &modelArtifact{
		ExerciseType: exerciseType,
		Kind:         kind,
		FeatureLen:   features.VectorLen,
	}
	switch m := model.(type) {
	case *forest:
		artifact.Forest = m
	case *boosting:
		artifact.Boosting = m
	}
	scalerArt := &scalerArtifact{ExerciseType: exerciseType, Scaler: scaler}
	if err := t.store.Save(exerciseType, artifact, scalerArt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingFailed, err)
	}

	report := &Report{
		ExerciseType:    exerciseType,
		ModelKind:       kind,
		TrainingSamples: len(trainIdx),
		TestSamples:     len(testIdx),
		TrainMSE:        trainMSE,
		TestMSE:         testMSE,
		TrainRMSE:       math.Sqrt(trainMSE),
		TestRMSE:        math.Sqrt(testMSE),
		TrainR2:         r2Score(yTrain, trainPred),
		TestR2:          r2Score(yTest, testPred),
	}
	t.logger.Info("training complete",
		"exercise_type", exerciseType,
		"test_r2", report.TestR2,
		"test_rmse", report.TestRMSE)
	return report, nil
}

// Score predicts the form score for a pose sequence, returning artifact
// errors to the caller. The orchestrator uses this to make its fallback
// decision explicit.
func (t *Trainer) Score(exerciseType string, seq pose.Sequence) (float64, error) {
	model, scalerArt, err := t.store.Load(exerciseType)
	if err != nil {
		return 0, err
	}
	reg, err := model.regressor()
	if err != nil {
		return 0, err
	}
	vec := t.extractor.Extract(seq)
	if len(vec) != model.FeatureLen {
		return 0, fmt.Errorf("%w: model expects %d features, extractor produced %d",
			ErrArtifactCorrupt, model.FeatureLen, len(vec))
	}
	score := reg.predict(scalerArt.Scaler.Transform(vec))
	return clampScore(score), nil
}

// Predict is the never-fails prediction surface: any artifact problem
// degrades to NeutralScore.
func (t *Trainer) Predict(exerciseType string, seq pose.Sequence) float64 {
	score, err := t.Score(exerciseType, seq)
	if err != nil {
		t.logger.Warn("prediction degraded to neutral score",
			"exercise_type", exerciseType, "error", err)
		return NeutralScore
	}
	return score
}

// ModelExists reports whether a persisted model exists for the
// exercise type.
func (t *Trainer) ModelExists(exerciseType string) bool {
	return t.store.Exists(exerciseType)
}

// ExtractAll computes feature vectors for a batch of examples with a
// bounded worker pool. Extraction is pure, so results land by index
// and ordering is preserved.
func (t *Trainer) ExtractAll(examples []Example) [][]float64 {
	X := make([][]float64, len(examples))
	work := make(chan int, len(examples))

	var done int64
	var wg sync.WaitGroup
	for w := 0; w < extractWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				X[i] = t.extractor.Extract(examples[i].Sequence)
				if t.OnProgress != nil {
					t.OnProgress(int(atomic.AddInt64(&done, 1)), len(examples))
				}
			}
		}()
	}
	for i := range examples {
		work <- i
	}
	close(work)
	wg.Wait()
	return X
}

// splitIndices produces the deterministic 80/20 train/test partition.
func splitIndices(n int) (train, test []int) {
	perm := rand.New(rand.NewSource(splitSeed)).Perm(n)
	nTest := int(float64(n) * testFraction)
	if nTest < 1 {
		nTest = 1
	}
	return perm[nTest:], perm[:nTest]
}

func gather(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	gx := make([][]float64, len(idx))
	gy := make([]float64, len(idx))
	for i, j := range idx {
		gx[i] = X[j]
		gy[i] = y[j]
	}
	return gx, gy
}

func predictAll(r regressor, X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		out[i] = r.predict(X[i])
	}
	return out
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
