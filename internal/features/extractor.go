// Package features reduces a variable-length pose sequence to a
// fixed-length numeric vector for the learned form models. The vector
// layout and length are shared between training and inference; changing
// either invalidates every persisted model.
package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

// VectorLen is the fixed feature vector length:
// 20 frame-level + 19 temporal + 7 statistical values.
const VectorLen = frameFeatureLen + temporalFeatureLen + statisticalFeatureLen

const (
	frameFeatureLen       = 20 // 4 angle families x 5 stats
	temporalFeatureLen    = 19 // 6 landmarks x 3 stats + pooled smoothness
	statisticalFeatureLen = 7  // alignment(3) + range/counts(3) + symmetry(1)
)

// angleFamilies are averaged left/right per frame before aggregation.
var angleFamilies = [4]string{"elbow", "shoulder", "hip", "knee"}

// keyLandmarks feed the temporal displacement features.
var keyLandmarks = [6]string{
	"left_wrist", "left_elbow", "left_shoulder",
	"left_hip", "left_knee", "left_ankle",
}

// minAlignmentLandmarks is the landmark count a frame needs before it
// contributes to the body-line alignment features.
const minAlignmentLandmarks = 28

// Extractor converts pose sequences into feature vectors. It holds no
// mutable state; extraction is pure and byte-for-byte reproducible.
type Extractor struct{}

// NewExtractor returns a feature extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the VectorLen-dimensional feature vector for seq.
// An empty sequence yields the zero vector.
func (e *Extractor) Extract(seq pose.Sequence) []float64 {
	vec := make([]float64, 0, VectorLen)
	if len(seq) == 0 {
		return make([]float64, VectorLen)
	}
	vec = append(vec, e.frameFeatures(seq)...)
	vec = append(vec, e.temporalFeatures(seq)...)
	vec = append(vec, e.statisticalFeatures(seq)...)
	return vec
}

// frameFeatures aggregates the left/right-averaged joint angles per
// family into {min, max, mean, std, range} across frames.
func (e *Extractor) frameFeatures(seq pose.Sequence) []float64 {
	out := make([]float64, 0, frameFeatureLen)
	for _, family := range angleFamilies {
		series := make([]float64, len(seq))
		for i := range seq {
			left := seq[i].Angle("left_" + family)
			right := seq[i].Angle("right_" + family)
			series[i] = (left + right) / 2
		}
		out = append(out,
			floats.Min(series),
			floats.Max(series),
			stat.Mean(series, nil),
			stat.PopStdDev(series, nil),
			floats.Max(series)-floats.Min(series),
		)
	}
	return out
}

// temporalFeatures captures per-frame-step landmark displacement:
// {mean, std, max} per key landmark plus one pooled smoothness value.
// Sequences shorter than two frames have no displacement and yield
// zeros for the whole block.
func (e *Extractor) temporalFeatures(seq pose.Sequence) []float64 {
	out := make([]float64, 0, temporalFeatureLen)
	if len(seq) < 2 {
		return make([]float64, temporalFeatureLen)
	}

	var pooled []float64
	for _, name := range keyLandmarks {
		var displacements []float64
		for i := 1; i < len(seq); i++ {
			prev, okPrev := seq[i-1].Landmark(name)
			curr, okCurr := seq[i].Landmark(name)
			if !okPrev || !okCurr {
				continue
			}
			dx := curr.X - prev.X
			dy := curr.Y - prev.Y
			displacements = append(displacements, math.Hypot(dx, dy))
		}
		if len(displacements) == 0 {
			out = append(out, 0, 0, 0)
			continue
		}
		out = append(out,
			stat.Mean(displacements, nil),
			stat.PopStdDev(displacements, nil),
			floats.Max(displacements),
		)
		pooled = append(pooled, displacements...)
	}

	if len(pooled) == 0 {
		out = append(out, 0)
	} else {
		out = append(out, stat.PopStdDev(pooled, nil))
	}
	return out
}

// statisticalFeatures covers whole-sequence properties: body-line
// alignment, total angular range, frame/joint counts, and left/right
// symmetry. Frames without enough landmarks are skipped per computation
// rather than failing the extraction.
func (e *Extractor) statisticalFeatures(seq pose.Sequence) []float64 {
	out := make([]float64, 0, statisticalFeatureLen)

	// Body-line straightness via the angle between the shoulder->hip
	// and hip->ankle vectors, mapped to 1 - |angle-180|/180.
	var alignment []float64
	for i := range seq {
		if len(seq[i].Landmarks) < minAlignmentLandmarks {
			continue
		}
		shoulder, okS := seq[i].Landmark("left_shoulder")
		hip, okH := seq[i].Landmark("left_hip")
		ankle, okA := seq[i].Landmark("left_ankle")
		if !okS || !okH || !okA {
			continue
		}
		v1x, v1y := hip.X-shoulder.X, hip.Y-shoulder.Y
		v2x, v2y := ankle.X-hip.X, ankle.Y-hip.Y
		cos := (v1x*v2x + v1y*v2y) / (math.Hypot(v1x, v1y)*math.Hypot(v2x, v2y) + 1e-6)
		cos = math.Max(-1, math.Min(1, cos))
		angle := math.Acos(cos) * 180 / math.Pi
		alignment = append(alignment, 1-math.Abs(angle-180)/180)
	}
	if len(alignment) == 0 {
		out = append(out, 0, 0, 0)
	} else {
		out = append(out,
			stat.Mean(alignment, nil),
			floats.Min(alignment),
			stat.PopStdDev(alignment, nil),
		)
	}

	// Total angular range plus frame and joint counts.
	var allAngles []float64
	jointCounts := make([]float64, len(seq))
	for i := range seq {
		for _, a := range seq[i].Angles {
			allAngles = append(allAngles, a)
		}
		jointCounts[i] = float64(len(seq[i].Angles))
	}
	if len(allAngles) == 0 {
		out = append(out, 0, 0, 0)
	} else {
		out = append(out,
			floats.Max(allAngles)-floats.Min(allAngles),
			float64(len(seq)),
			stat.Mean(jointCounts, nil),
		)
	}

	// Mean left/right symmetry of the elbow and shoulder angles.
	symmetry := make([]float64, len(seq))
	for i := range seq {
		elbow := 1 - math.Abs(seq[i].Angle("left_elbow")-seq[i].Angle("right_elbow"))/180
		shoulder := 1 - math.Abs(seq[i].Angle("left_shoulder")-seq[i].Angle("right_shoulder"))/180
		symmetry[i] = (elbow + shoulder) / 2
	}
	out = append(out, stat.Mean(symmetry, nil))

	return out
}
