// Package mathutil provides angle conversions used by mods adjusting
// camera or rotation values they patch.
package mathutil

import "math"

// DegreesToRadians converts an angle in degrees to radians.
func DegreesToRadians(degrees float32) float32 {
	return degrees * (math.Pi / 180.0)
}

// RadiansToDegrees converts an angle in radians to degrees.
func RadiansToDegrees(radians float32) float32 {
	return radians * (180.0 / math.Pi)
}
