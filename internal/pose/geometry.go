package pose

import "math"

// Angle returns the interior angle at b between the rays b->a and b->c,
// in degrees within [0,180]. It is computed from the difference of the
// two rays' polar angles, so the result is orientation-independent and
// always the smaller of the two possible angles. Coincident points
// produce a finite but meaningless value; callers treat that as a known
// edge case, not an error.
func Angle(a, b, c Landmark) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180.0 {
		angle = 360.0 - angle
	}
	return angle
}
