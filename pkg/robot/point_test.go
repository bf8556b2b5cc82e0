// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package robot

import "testing"

func TestNewPoint_RoundsToWirePrecision(t *testing.T) {
	p := NewPoint("A1", Pose{X: 1.23456, Y: -12.3456, Z: 0.0004})
	got := p.Pose()
	if got.X != 1.235 {
		t.Errorf("X = %v, want 1.235", got.X)
	}
	if got.Y != -12.346 {
		t.Errorf("Y = %v, want -12.346", got.Y)
	}
	if got.Z != 0 {
		t.Errorf("Z = %v, want 0", got.Z)
	}
}

func TestPoint_Wire(t *testing.T) {
	p := NewPoint("E4", Pose{X: 160, Y: 40.5, Z: 0, O: -12.3456, A: 90, T: 180})
	want := "160.000,40.500,0.000,-12.346,90.000,180.000"
	if got := p.wire(); got != want {
		t.Errorf("wire = %q, want %q", got, want)
	}
}

func TestPoint_ShiftRoundTrip(t *testing.T) {
	base := NewPoint("E4", Pose{X: 160, Y: 120, Z: 0, O: 12.5, A: 90, T: 180})
	up := base.Shift("E4_up", Pose{Z: 80})
	back := up.Shift("E4_back", Pose{Z: -80})

	if up.Pose().Z != 80 {
		t.Errorf("shifted Z = %v, want 80", up.Pose().Z)
	}
	if back.Pose() != base.Pose() {
		t.Errorf("round trip pose = %+v, want %+v", back.Pose(), base.Pose())
	}
	if up.InMemory() || back.InMemory() {
		t.Error("derived points must start unregistered")
	}
}

func TestPoint_ShiftKeepsWirePrecision(t *testing.T) {
	base := NewPoint("P", Pose{X: 0.1})
	sum := base
	for i := 0; i < 10; i++ {
		sum = sum.Shift("P", Pose{X: 0.1})
	}
	// Per-step rounding keeps accumulated float error out of the wire
	// text.
	if got := sum.wire(); got != "1.100,0.000,0.000,0.000,0.000,0.000" {
		t.Errorf("wire = %q", got)
	}
}
