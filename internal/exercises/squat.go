package exercises

import (
	"gonum.org/v1/gonum/floats"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

const (
	// Squat range-of-motion thresholds. The shallow-depth check fires
	// on min knee angle above 100 degrees even though the user-facing
	// message asks for 90; the two disagree upstream and the literal
	// threshold is preserved.
	squatKneeExtensionDeg = 160.0 // degrees - knee angle counted as standing tall
	squatDepthDeg         = 100.0 // degrees - min knee angle above this is too shallow

	// Postural checks
	squatKneeForwardMax = 0.05 // normalized x distance knee may travel past ankle
	squatBackRoundedDeg = 60.0 // degrees - min hip angle below this reads as rounding

	squatExtensionPenalty   = 15.0
	squatDepthPenalty       = 15.0
	squatKneeForwardPenalty = 20.0
	squatBackPenalty        = 10.0
)

// SquatAnalyzer scores squat repetitions: full knee extension at the
// top, sufficient depth, knees tracking over the toes, and an upright
// back.
type SquatAnalyzer struct{}

func (a *SquatAnalyzer) VideoRequirements() []string {
	return []string{
		"Ensure your entire body is visible from the side.",
		"Place the camera at a height that captures your full range of motion.",
		"Use a stable camera with good lighting.",
	}
}

func (a *SquatAnalyzer) AnalyzeForm(seq pose.Sequence) AnalysisResult {
	if len(seq) == 0 {
		return emptyResult()
	}

	var feedback []string
	score := 100.0

	kneeAngles := seq.AngleSeries("left_knee")
	hipAngles := seq.AngleSeries("left_hip")

	// Range of motion.
	minKnee := floats.Min(kneeAngles)
	maxKnee := floats.Max(kneeAngles)
	if maxKnee < squatKneeExtensionDeg {
		feedback = append(feedback, "Not fully extending knees at the top.")
		score -= squatExtensionPenalty
	}
	if minKnee > squatDepthDeg {
		feedback = append(feedback, "Squat depth is too shallow. Aim for at least 90 degrees.")
		score -= squatDepthPenalty
	}

	// Knee position over the toes, judged at the deepest frame.
	bottom := &seq[floats.MinIdx(kneeAngles)]
	knee, okK := bottom.Landmark("left_knee")
	ankle, okA := bottom.Landmark("left_ankle")
	if okK && okA && knee.X > ankle.X+squatKneeForwardMax {
		feedback = append(feedback, "Knees are travelling too far forward over toes.")
		score -= squatKneeForwardPenalty
	}

	// Back posture.
	if floats.Min(hipAngles) < squatBackRoundedDeg {
		feedback = append(feedback, "Lower back may be rounding. Keep your chest up.")
		score -= squatBackPenalty
	}

	return finishRuleResult(score, feedback)
}

func (a *SquatAnalyzer) SpecificIssues(seq pose.Sequence) []string {
	if len(seq) == 0 {
		return nil
	}
	kneeAngles := seq.AngleSeries("left_knee")
	bottom := &seq[floats.MinIdx(kneeAngles)]
	knee, okK := bottom.Landmark("left_knee")
	ankle, okA := bottom.Landmark("left_ankle")
	if okK && okA && knee.X > ankle.X+squatKneeForwardMax {
		return []string{"Sit back into your heels so your knees stay over your toes."}
	}
	return nil
}
