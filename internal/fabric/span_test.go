package fabric

import (
	"math"
	"testing"
)

func approx(a, b, tolerance float32) bool {
	return math.Abs(float64(a-b)) <= float64(tolerance)
}

func TestSpanVariation(t *testing.T) {
	const max = 0.1
	tests := []struct {
		name string
		hl   HighLow
		t    uint16
		want float32
	}{
		{"at high", HighLow{High: 0, Low: 8}, 0, max},
		{"at low", HighLow{High: 0, Low: 8}, 8 << 12, -max},
		{"half way up", HighLow{High: 0, Low: 8}, 4 << 12, 0},
		{"half way round", HighLow{High: 0, Low: 8}, 12 << 12, 0},
		{"quarter from high", HighLow{High: 0, Low: 8}, 2 << 12, max / 2},
		{"low before high", HighLow{High: 12, Low: 4}, 8 << 12, 0},
		{"low before high, past high", HighLow{High: 12, Low: 4}, 14 << 12, max / 2},
		{"low before high, before low", HighLow{High: 12, Low: 4}, 2 << 12, -max / 2},
		{"high before low, before high", HighLow{High: 4, Low: 12}, 2 << 12, max / 2},
		{"high before low, past low", HighLow{High: 4, Low: 12}, 14 << 12, -max / 2},
		{"coinciding points at high", HighLow{High: 3, Low: 3}, 3 << 12, max},
		{"coinciding points split", HighLow{High: 3, Low: 3}, 4 << 12, -max},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := spanVariation(tt.hl, tt.t, max)
			if !approx(got, tt.want, 1e-6) {
				t.Fatalf("got %v want %v", got, tt.want)
			}
		})
	}
}

func TestSpanVariationStaysInRange(t *testing.T) {
	const max = 0.25
	for high := uint8(0); high < ClockPoints; high++ {
		for low := uint8(0); low < ClockPoints; low++ {
			hl := HighLow{High: high, Low: low}
			for ts := 0; ts < PhaseCycle; ts += 997 {
				v := spanVariation(hl, uint16(ts), max)
				if v < -max-1e-6 || v > max+1e-6 || v != v {
					t.Fatalf("%+v at %d: %v outside [-%v, %v]", hl, ts, v, max, max)
				}
			}
		}
	}
}

func TestHighLowPacking(t *testing.T) {
	for packed := 0; packed < 256; packed++ {
		hl := ParseHighLow(uint8(packed))
		if err := hl.Validate(); err != nil {
			t.Fatalf("%d: %v", packed, err)
		}
		if hl.Packed() != uint8(packed) {
			t.Fatalf("%d: repacked to %d", packed, hl.Packed())
		}
	}
	if err := (HighLow{High: 16}).Validate(); err == nil {
		t.Fatal("clock point 16 accepted")
	}
}

func TestTurn(t *testing.T) {
	tests := []struct {
		from  Direction
		right bool
		want  Direction
	}{
		{DirectionForward, true, DirectionRight},
		{DirectionForward, false, DirectionLeft},
		{DirectionReverse, true, DirectionLeft},
		{DirectionRight, true, DirectionReverse},
		{DirectionLeft, false, DirectionReverse},
		{DirectionRest, true, DirectionForward},
	}
	for _, tt := range tests {
		if got := Turn(tt.from, tt.right); got != tt.want {
			t.Fatalf("turn %s right=%v: got %s want %s", tt.from, tt.right, got, tt.want)
		}
	}
}
