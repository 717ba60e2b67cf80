// Package analyzer orchestrates form analysis: the learned model is
// tried first when one exists, and the deterministic rule analyzers
// are the always-available fallback. Callers always get a usable
// result; the fallback is logged, never surfaced as an error.
package analyzer

import (
	"log/slog"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/exercises"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/ml"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

// mlOutcome is the result of the ML attempt. fallback selects the
// rule-based branch; reason carries the cause for logging.
type mlOutcome struct {
	score    float64
	fallback bool
	reason   error
}

// Orchestrator routes analysis requests between the ML and rule-based
// paths.
type Orchestrator struct {
	registry *exercises.Registry
	trainer  *ml.Trainer
	logger   *slog.Logger
}

// NewOrchestrator wires the registry and trainer together.
func NewOrchestrator(registry *exercises.Registry, trainer *ml.Trainer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry: registry,
		trainer:  trainer,
		logger:   logger,
	}
}

// Analyze scores one repetition attempt. Unknown exercise types fail
// with exercises.ErrUnsupportedExercise; every other condition
// produces a result. When no model exists the ML path is skipped
// entirely and the method is rule_based.
func (o *Orchestrator) Analyze(exerciseType string, seq pose.Sequence) (exercises.AnalysisResult, error) {
	ex, err := o.registry.For(exerciseType)
	if err != nil {
		return exercises.AnalysisResult{}, err
	}

	if outcome := o.tryML(exerciseType, seq); !outcome.fallback {
		feedback := []string{exercises.TierSummary(outcome.score)}
		feedback = append(feedback, ex.SpecificIssues(seq)...)
		return exercises.AnalysisResult{
			Score:    outcome.score,
			Feedback: feedback,
			Method:   exercises.MethodMLModel,
		}, nil
	}

	return ex.AnalyzeForm(seq), nil
}

// tryML attempts the learned-model path. Any failure (no artifact,
// corrupt artifact, shape mismatch) selects the fallback branch.
func (o *Orchestrator) tryML(exerciseType string, seq pose.Sequence) mlOutcome {
	if o.trainer == nil || !o.trainer.ModelExists(exerciseType) {
		return mlOutcome{fallback: true}
	}
	score, err := o.trainer.Score(exerciseType, seq)
	if err != nil {
		o.logger.Warn("ML prediction failed, falling back to rule-based analysis",
			"exercise_type", exerciseType, "error", err)
		return mlOutcome{fallback: true, reason: err}
	}
	return mlOutcome{score: score}
}

// VideoRequirements returns the capture guidance for an exercise type.
func (o *Orchestrator) VideoRequirements(exerciseType string) ([]string, error) {
	ex, err := o.registry.For(exerciseType)
	if err != nil {
		return nil, err
	}
	return ex.VideoRequirements(), nil
}

// ModelExists reports whether a trained model is available for the
// exercise type.
func (o *Orchestrator) ModelExists(exerciseType string) bool {
	return o.trainer != nil && o.trainer.ModelExists(exerciseType)
}
