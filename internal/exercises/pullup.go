package exercises

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

const (
	// Pull-up range-of-motion thresholds
	pullUpFullExtensionDeg = 160.0 // degrees - elbow angle counted as full hang

	// Kipping detection
	pullUpHipSwingMaxPct = 3.0 // percent of screen width - std of hip x position

	pullUpExtensionPenalty = 20.0
	pullUpChinPenalty      = 20.0
	pullUpSwingPenalty     = 25.0
)

// PullUpAnalyzer scores pull-up repetitions: full elbow extension at
// the bottom, chin above the bar at the top, and no kipping.
type PullUpAnalyzer struct{}

func (a *PullUpAnalyzer) VideoRequirements() []string {
	return []string{
		"Ensure your entire body is visible from the side.",
		"Make sure your face is in view for nose detection.",
		"Use a stable camera with good lighting.",
	}
}

func (a *PullUpAnalyzer) AnalyzeForm(seq pose.Sequence) AnalysisResult {
	if len(seq) == 0 {
		return emptyResult()
	}

	var feedback []string
	score := 100.0

	elbowAngles := seq.AngleSeries("left_elbow")
	noseY := seq.CoordSeries("nose", pose.AxisY)
	wristY := seq.CoordSeries("left_wrist", pose.AxisY)
	hipX := seq.CoordSeries("left_hip", pose.AxisX)

	// Range of motion. The chin clears the bar when the nose rises
	// above the wrist in any frame (smaller y is higher on screen).
	maxElbow := floats.Max(elbowAngles)
	chinAboveBar := false
	for i := 0; i < len(noseY) && i < len(wristY); i++ {
		if noseY[i] < wristY[i] {
			chinAboveBar = true
			break
		}
	}

	if maxElbow < pullUpFullExtensionDeg {
		feedback = append(feedback, "Not reaching full extension at the bottom (elbows not straight).")
		score -= pullUpExtensionPenalty
	}
	if !chinAboveBar {
		feedback = append(feedback, "Chin does not appear to go above the bar.")
		score -= pullUpChinPenalty
	}

	// Control: lateral hip drift across the rep indicates kipping.
	if len(hipX) > 0 {
		hipSwing := stat.PopStdDev(hipX, nil) * 100
		if hipSwing > pullUpHipSwingMaxPct {
			feedback = append(feedback,
				fmt.Sprintf("Excessive hip swing detected (%.1f%% of screen width). Avoid kipping.", hipSwing))
			score -= pullUpSwingPenalty
		}
	}

	return finishRuleResult(score, feedback)
}

func (a *PullUpAnalyzer) SpecificIssues(seq pose.Sequence) []string {
	if len(seq) == 0 {
		return nil
	}
	hipX := seq.CoordSeries("left_hip", pose.AxisX)
	if len(hipX) == 0 {
		return nil
	}
	if stat.PopStdDev(hipX, nil)*100 > pullUpHipSwingMaxPct {
		return []string{"Avoid swinging your hips; keep the movement strict."}
	}
	return nil
}
