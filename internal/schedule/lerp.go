package schedule

// Lerp linearly interpolates between min and max. t is not clamped, so values
// outside [0, 1] extrapolate.
func Lerp(min, max, t float64) float64 {
	return min + (max-min)*t
}
