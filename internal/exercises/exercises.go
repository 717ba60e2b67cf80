// Package exercises implements the deterministic, rule-based form
// analyzers. Each exercise variant scores a pose sequence against fixed
// joint-angle thresholds and emits human-readable feedback. Scoring is
// additive-penalty: every failed check subtracts a fixed amount from a
// starting score of 100, so check order never changes the final score,
// only the feedback order.
package exercises

import (
	"errors"
	"fmt"
	"sort"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

// ErrUnsupportedExercise is returned for exercise identifiers with no
// registered analyzer.
var ErrUnsupportedExercise = errors.New("unsupported exercise type")

// Method records which path produced an analysis result.
type Method string

const (
	MethodRuleBased Method = "rule_based"
	MethodMLModel   Method = "ml_model"
)

// AnalysisResult is the normalized outcome of a form analysis. It is
// never mutated after construction.
type AnalysisResult struct {
	Score    float64  `json:"score"`
	Feedback []string `json:"feedback"`
	Method   Method   `json:"method"`
}

// Analyzer is the per-exercise capability set. AnalyzeForm is the pure
// rule-based path; SpecificIssues supplies the heuristic detectors the
// orchestrator appends to ML-path feedback.
type Analyzer interface {
	// VideoRequirements returns capture guidance shown to users before
	// recording this exercise.
	VideoRequirements() []string

	// AnalyzeForm runs the rule-based scoring over a pose sequence.
	AnalyzeForm(seq pose.Sequence) AnalysisResult

	// SpecificIssues returns exercise-specific heuristic feedback for
	// the ML path, operating directly on landmark deltas.
	SpecificIssues(seq pose.Sequence) []string
}

// Registry dispatches exercise identifiers to analyzers.
type Registry struct {
	analyzers map[string]Analyzer
}

// NewRegistry returns a registry with all built-in exercises, applying
// cfg tolerances to the heuristic analyzers.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		analyzers: map[string]Analyzer{
			"pull_up": &PullUpAnalyzer{},
			"push_up": &PushUpAnalyzer{},
			"squat":   &SquatAnalyzer{},
			"bridge":  &BridgeAnalyzer{cfg: cfg},
			"clam":    &ClamAnalyzer{cfg: cfg},
		},
	}
}

// For returns the analyzer for an exercise type, or
// ErrUnsupportedExercise for unknown identifiers.
func (r *Registry) For(exerciseType string) (Analyzer, error) {
	a, ok := r.analyzers[exerciseType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExercise, exerciseType)
	}
	return a, nil
}

// Supported returns the registered exercise identifiers, sorted.
func (r *Registry) Supported() []string {
	out := make([]string, 0, len(r.analyzers))
	for k := range r.analyzers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Config holds the tolerance constants for the heuristic issue
// detectors. These were tuned by observation, not derived, so they are
// overridable per deployment.
type Config struct {
	// BridgeHipLiftMin is the minimum vertical hip travel (normalized
	// screen fraction) counted as a full hip extension.
	BridgeHipLiftMin float64

	// ClamShoulderDiffMax is the shoulder-tilt delta beyond which torso
	// rotation feedback fires.
	ClamShoulderDiffMax float64

	// ClamHipRatio scales hip tilt when comparing it against shoulder
	// tilt for the torso-rotation check.
	ClamHipRatio float64
}

// DefaultConfig returns the tolerances the detectors shipped with.
func DefaultConfig() Config {
	return Config{
		BridgeHipLiftMin:    0.05,
		ClamShoulderDiffMax: 0.05,
		ClamHipRatio:        1.5,
	}
}

const (
	noPoseDataFeedback = "No pose data available"
	goodFormFeedback   = "Good form detected!"
)

// emptyResult is the degraded outcome for an empty sequence: zero
// score, one explanatory string, no error.
func emptyResult() AnalysisResult {
	return AnalysisResult{
		Score:    0,
		Feedback: []string{noPoseDataFeedback},
		Method:   MethodRuleBased,
	}
}

// finishRuleResult clamps the score, adds the no-issue message when
// nothing fired, and appends the score-tier summary.
func finishRuleResult(score float64, feedback []string) AnalysisResult {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	if len(feedback) == 0 {
		feedback = append(feedback, goodFormFeedback)
	}
	feedback = append(feedback, TierSummary(score))
	return AnalysisResult{
		Score:    score,
		Feedback: feedback,
		Method:   MethodRuleBased,
	}
}

// TierSummary maps a final score to its summary message. The same
// bands drive the ML-path synthesized feedback.
func TierSummary(score float64) string {
	switch {
	case score >= 90:
		return "Excellent overall form!"
	case score >= 70:
		return "Good form, but with room for minor improvements."
	default:
		return "Form needs significant work. Focus on the feedback provided."
	}
}
