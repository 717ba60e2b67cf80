package exercises

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

const (
	// Push-up range-of-motion thresholds
	pushUpLockoutDeg = 160.0 // degrees - elbow angle counted as locked out
	pushUpDepthDeg   = 105.0 // degrees - minimum elbow bend at the bottom

	// Body-line and hand-placement checks
	pushUpHipSagDeg     = 150.0 // degrees - mean hip angle below this reads as sagging
	pushUpHandOffsetMax = 0.1   // normalized x distance between elbow and wrist

	pushUpLockoutPenalty    = 15.0
	pushUpDepthPenalty      = 15.0
	pushUpHipSagPenalty     = 20.0
	pushUpHandOffsetPenalty = 10.0
)

// PushUpAnalyzer scores push-up repetitions: elbow lockout at the top,
// sufficient depth at the bottom, a straight body line, and hand
// placement under the elbows at the deepest frame.
type PushUpAnalyzer struct{}

func (a *PushUpAnalyzer) VideoRequirements() []string {
	return []string{
		"Ensure your entire body is visible from the side.",
		"Place the camera at a height level with your body.",
		"Use a stable camera with good lighting.",
	}
}

func (a *PushUpAnalyzer) AnalyzeForm(seq pose.Sequence) AnalysisResult {
	if len(seq) == 0 {
		return emptyResult()
	}

	var feedback []string
	score := 100.0

	elbowAngles := seq.AngleSeries("left_elbow")
	hipAngles := seq.AngleSeries("left_hip")

	// Range of motion.
	minElbow := floats.Min(elbowAngles)
	maxElbow := floats.Max(elbowAngles)
	if maxElbow < pushUpLockoutDeg {
		feedback = append(feedback, "Elbows not locking out at the top.")
		score -= pushUpLockoutPenalty
	}
	if minElbow > pushUpDepthDeg {
		feedback = append(feedback, "Not going deep enough at the bottom.")
		score -= pushUpDepthPenalty
	}

	// Control: a sagging hip drops the mean hip angle below straight.
	if stat.Mean(hipAngles, nil) < pushUpHipSagDeg {
		feedback = append(feedback, "Hips are sagging. Maintain a straight body line.")
		score -= pushUpHipSagPenalty
	}

	// Hand placement, judged at the deepest frame of the movement.
	bottom := &seq[floats.MinIdx(elbowAngles)]
	elbow, okE := bottom.Landmark("left_elbow")
	wrist, okW := bottom.Landmark("left_wrist")
	if okE && okW && math.Abs(elbow.X-wrist.X) > pushUpHandOffsetMax {
		feedback = append(feedback, "Hands may be placed too far forward or back, causing poor elbow alignment.")
		score -= pushUpHandOffsetPenalty
	}

	return finishRuleResult(score, feedback)
}

func (a *PushUpAnalyzer) SpecificIssues(seq pose.Sequence) []string {
	if len(seq) == 0 {
		return nil
	}
	hipAngles := seq.AngleSeries("left_hip")
	if stat.Mean(hipAngles, nil) < pushUpHipSagDeg {
		return []string{"Keep your core braced so your hips do not sag."}
	}
	return nil
}
