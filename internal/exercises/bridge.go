package exercises

import (
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

const (
	bridgeBaseScore     = 60.0
	bridgeMovementScore = 70.0
)

// BridgeAnalyzer scores glute-bridge attempts. The rule path is a
// coarse heuristic; the hip-extension detector compares hip height at
// the start and end of the sequence against a configured tolerance.
type BridgeAnalyzer struct {
	cfg Config
}

func (a *BridgeAnalyzer) VideoRequirements() []string {
	return []string{
		"Record from a side angle to clearly show hip movement.",
		"Ensure the mat or floor is visible to assess full range of motion.",
	}
}

func (a *BridgeAnalyzer) AnalyzeForm(seq pose.Sequence) AnalysisResult {
	if len(seq) == 0 {
		return emptyResult()
	}

	feedback := []string{
		"Rule-based analysis for Bridge. Train an ML model for precise feedback.",
		"Ensure your hips are fully extended at the top of the movement.",
		"Keep your core engaged to avoid arching your lower back.",
	}
	score := bridgeBaseScore

	// Any temporal movement at all earns the attempt credit.
	if len(seq) > 1 {
		score = bridgeMovementScore
		feedback = append(feedback, "Movement detected, indicating an attempt at the exercise.")
	}

	return AnalysisResult{
		Score:    score,
		Feedback: feedback,
		Method:   MethodRuleBased,
	}
}

// SpecificIssues flags insufficient hip extension: the hips should rise
// (smaller y) between the first and last frame by at least the
// configured lift tolerance.
func (a *BridgeAnalyzer) SpecificIssues(seq pose.Sequence) []string {
	if len(seq) == 0 {
		return nil
	}
	first, okFirst := seq[0].Landmark("left_hip")
	last, okLast := seq[len(seq)-1].Landmark("left_hip")
	if !okFirst || !okLast {
		return nil
	}
	if first.Y-last.Y < a.cfg.BridgeHipLiftMin {
		return []string{"Increase hip extension for a full range of motion."}
	}
	return nil
}
