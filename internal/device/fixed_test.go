package device

import (
	"math"
	"testing"
)

func TestFixedRoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 0.5, 300, 215.9, -120.25, 32767.5}
	for _, v := range values {
		got := FixedToFloat(FloatToFixed(v))
		if math.Abs(got-v) > 1.0/65536.0 {
			t.Errorf("round trip of %v gave %v", v, got)
		}
	}
}

func TestFixedExtremes(t *testing.T) {
	if got := FixedToFloat(math.MinInt32); got != -32768.0 {
		t.Errorf("minimum fixed = %v, want -32768", got)
	}
	if got := FloatToFixed(-40000); got != math.MinInt32 {
		t.Errorf("underflow should clamp, got %d", got)
	}
	if got := FloatToFixed(40000); got != math.MaxInt32 {
		t.Errorf("overflow should clamp, got %d", got)
	}
}

func TestFixedKnownValues(t *testing.T) {
	if got := FloatToFixed(1.0); got != 65536 {
		t.Errorf("1.0 = %d, want 65536", got)
	}
	if got := FixedToFloat(32768); got != 0.5 {
		t.Errorf("32768 = %v, want 0.5", got)
	}
}
