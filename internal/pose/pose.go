// Package pose defines the pose-frame data model shared by the rule
// analyzers and the ML pipeline. Landmark indices follow the MediaPipe
// pose convention.
package pose

// MediaPipe pose landmark indices for the joints the analyzers use.
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28
)

// NeutralAngle is substituted when a frame is missing an expected joint
// angle. 180 degrees reads as a fully extended, straight joint.
const NeutralAngle = 180.0

// Landmark is a detected body-joint position in normalized image
// coordinates ([0,1] for x and y).
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LandmarkMap maps joint names to landmark indices. Index assignment is
// fixed per pose-estimation scheme, but all lookups go through names.
type LandmarkMap map[string]int

// DefaultLandmarkMap returns the MediaPipe name-to-index mapping used
// when a frame carries no map of its own.
func DefaultLandmarkMap() LandmarkMap {
	return LandmarkMap{
		"nose":           Nose,
		"left_shoulder":  LeftShoulder,
		"right_shoulder": RightShoulder,
		"left_elbow":     LeftElbow,
		"right_elbow":    RightElbow,
		"left_wrist":     LeftWrist,
		"right_wrist":    RightWrist,
		"left_hip":       LeftHip,
		"right_hip":      RightHip,
		"left_knee":      LeftKnee,
		"right_knee":     RightKnee,
		"left_ankle":     LeftAnkle,
		"right_ankle":    RightAnkle,
	}
}

// Frame is one instant's detected landmarks plus derived joint angles.
// Frames are immutable after creation.
type Frame struct {
	Landmarks   []Landmark         `json:"landmarks"`
	LandmarkMap LandmarkMap        `json:"landmark_map"`
	Angles      map[string]float64 `json:"angles"`
}

// Angle returns the named joint angle, or NeutralAngle when the frame
// has no value for it.
func (f *Frame) Angle(name string) float64 {
	if a, ok := f.Angles[name]; ok {
		return a
	}
	return NeutralAngle
}

// Landmark looks up a landmark by joint name through the frame's
// landmark map, falling back to the default MediaPipe indices when the
// frame carries no map. The second return is false when the name is
// unknown or the index is out of range.
func (f *Frame) Landmark(name string) (Landmark, bool) {
	m := f.LandmarkMap
	if m == nil {
		m = DefaultLandmarkMap()
	}
	idx, ok := m[name]
	if !ok || idx < 0 || idx >= len(f.Landmarks) {
		return Landmark{}, false
	}
	return f.Landmarks[idx], true
}

// Sequence is a temporally ordered run of frames representing one
// repetition attempt. A single-frame sequence (still image) is valid.
type Sequence []Frame

// AngleSeries returns the named angle from every frame, substituting
// NeutralAngle where a frame has no value.
func (s Sequence) AngleSeries(name string) []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Angle(name)
	}
	return out
}

// CoordSeries returns one coordinate of a named landmark from every
// frame. Frames missing the landmark are skipped, so the result may be
// shorter than the sequence.
func (s Sequence) CoordSeries(name string, axis Axis) []float64 {
	out := make([]float64, 0, len(s))
	for i := range s {
		lm, ok := s[i].Landmark(name)
		if !ok {
			continue
		}
		switch axis {
		case AxisX:
			out = append(out, lm.X)
		case AxisY:
			out = append(out, lm.Y)
		default:
			out = append(out, lm.Z)
		}
	}
	return out
}

// Axis selects a landmark coordinate in CoordSeries.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)
