package mathutil

import (
	"math"
	"testing"
)

func TestDegreesRadiansRoundTrip(t *testing.T) {
	for _, deg := range []float32{0, 45, 90, 180, 360, -90} {
		back := RadiansToDegrees(DegreesToRadians(deg))
		if math.Abs(float64(back-deg)) > 1e-4 {
			t.Fatalf("round trip %v -> %v", deg, back)
		}
	}
	if rad := DegreesToRadians(180); math.Abs(float64(rad)-math.Pi) > 1e-6 {
		t.Fatalf("180 degrees = %v, want pi", rad)
	}
}
