// SPDX-License-Identifier: MIT
package decibels

import (
	"math"
	"testing"
)

func TestGainToDecibels(t *testing.T) {
	tests := []struct {
		gain  float64
		floor float64
		want  float64
	}{
		{1, -100, 0},
		{0.5, -100, -6.0206},
		{2, -100, 6.0206},
		{0, -48, -48},
		{-1, -48, -48},
		{1e-6, -48, -48},
	}

	for _, tt := range tests {
		got := GainToDecibels(tt.gain, tt.floor)
		if math.Abs(got-tt.want) > 1e-3 {
			t.Errorf("GainToDecibels(%v, %v) = %v, want %v", tt.gain, tt.floor, got, tt.want)
		}
	}
}

func TestDecibelsRoundTrip(t *testing.T) {
	for _, db := range []float64{-47, -24, -6, 0, 6, 24} {
		got := GainToDecibels(DecibelsToGain(db, -100), -100)
		if math.Abs(got-db) > 1e-9 {
			t.Errorf("round trip of %v dB = %v", db, got)
		}
	}
	if DecibelsToGain(-100, -100) != 0 {
		t.Error("floor should map to zero gain")
	}
}

func TestLogMapping(t *testing.T) {
	if got := MapToLog10(0, 20, 20000); math.Abs(got-20) > 1e-9 {
		t.Errorf("MapToLog10(0) = %v, want 20", got)
	}
	if got := MapToLog10(1, 20, 20000); math.Abs(got-20000) > 1e-6 {
		t.Errorf("MapToLog10(1) = %v, want 20000", got)
	}
	if got := MapToLog10(0.5, 20, 20000); math.Abs(got-632.456) > 1e-3 {
		t.Errorf("MapToLog10(0.5) = %v, want ~632.456", got)
	}
	for _, f := range []float64{20, 100, 1000, 20000} {
		if got := MapToLog10(MapFromLog10(f, 20, 20000), 20, 20000); math.Abs(got-f) > 1e-6 {
			t.Errorf("log mapping round trip of %v = %v", f, got)
		}
	}
}

func TestMap(t *testing.T) {
	if got := Map(0, -24, 24, 100, 0); got != 50 {
		t.Errorf("Map(0) = %v, want 50", got)
	}
	if got := Map(24, -24, 24, 100, 0); got != 0 {
		t.Errorf("Map(24) = %v, want 0", got)
	}
}
