package exercises

import (
	"math"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

const (
	clamBaseScore     = 65.0
	clamMovementScore = 75.0
)

// ClamAnalyzer scores clamshell attempts. The rule path is a coarse
// heuristic; the torso-rotation detector compares shoulder tilt against
// hip tilt over the sequence.
type ClamAnalyzer struct {
	cfg Config
}

func (a *ClamAnalyzer) VideoRequirements() []string {
	return []string{
		"Record from a front or slightly angled view to show knee separation.",
		"Ensure your hips and knees are clearly visible.",
	}
}

func (a *ClamAnalyzer) AnalyzeForm(seq pose.Sequence) AnalysisResult {
	if len(seq) == 0 {
		return emptyResult()
	}

	feedback := []string{
		"Rule-based analysis for Clam. Train an ML model for precise feedback.",
		"Keep your feet together throughout the movement.",
		"Focus on controlled movement, both opening and closing.",
	}
	score := clamBaseScore

	if len(seq) > 1 {
		score = clamMovementScore
		feedback = append(feedback, "Movement detected, indicating an attempt at the exercise.")
	}

	return AnalysisResult{
		Score:    score,
		Feedback: feedback,
		Method:   MethodRuleBased,
	}
}

// SpecificIssues flags torso rotation: if the shoulder tilt drifts from
// its starting value noticeably more than the hip tilt does, the torso
// is rotating instead of the hip abducting.
func (a *ClamAnalyzer) SpecificIssues(seq pose.Sequence) []string {
	if len(seq) < 2 {
		return nil
	}

	tilts := func(f *pose.Frame) (shoulder, hip float64, ok bool) {
		ls, ok1 := f.Landmark("left_shoulder")
		rs, ok2 := f.Landmark("right_shoulder")
		lh, ok3 := f.Landmark("left_hip")
		rh, ok4 := f.Landmark("right_hip")
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return 0, 0, false
		}
		return ls.Y - rs.Y, lh.Y - rh.Y, true
	}

	baseShoulder, baseHip, ok := tilts(&seq[0])
	if !ok {
		return nil
	}

	for i := 1; i < len(seq); i++ {
		shoulder, hip, ok := tilts(&seq[i])
		if !ok {
			continue
		}
		shoulderDiff := math.Abs(shoulder - baseShoulder)
		hipDiff := math.Abs(hip - baseHip)
		if shoulderDiff > a.cfg.ClamShoulderDiffMax && shoulderDiff > hipDiff*a.cfg.ClamHipRatio {
			return []string{"Avoid rotating your torso; keep your core stable."}
		}
	}
	return nil
}
