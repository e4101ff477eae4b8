package main

import (
	"strings"
	"testing"

	"github.com/elastic-interval/pretenst-sub000/internal/physics"
)

func TestCheckSizeFlags(t *testing.T) {
	if err := checkSizeFlags([]sizeFlag{{"joints", 64}, {"ticks", 65534}}); err != nil {
		t.Fatalf("in range: %v", err)
	}
	err := checkSizeFlags([]sizeFlag{{"joints", 64}, {"intervals", 70000}})
	if err == nil || !strings.Contains(err.Error(), "-intervals 70000") {
		t.Fatalf("70000 intervals: got %v", err)
	}
	if err := checkSizeFlags([]sizeFlag{{"faces", 65535}}); err == nil {
		t.Fatal("reserved index accepted as a capacity")
	}
}

func TestFeatureFlags(t *testing.T) {
	f := featureFlags{}
	if err := f.Set("drag_above=2"); err != nil {
		t.Fatal(err)
	}
	if f[physics.DragAbove] != 2 {
		t.Fatalf("drag_above factor: %v", f[physics.DragAbove])
	}
	for _, bad := range []string{"drag_above", "levitation=2", "drag_above=x"} {
		if err := f.Set(bad); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}
