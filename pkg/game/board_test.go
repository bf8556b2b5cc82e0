// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package game

import (
	"testing"

	"kawachess/pkg/robot"
)

func testCalibration() Calibration {
	return Calibration{
		A1:       robot.Pose{X: 100, Y: 200, Z: 0, O: 12.5, A: 90, T: 180},
		FileStep: robot.Pose{X: 40},
		RankStep: robot.Pose{Y: 40},
		Drop:     robot.Pose{X: 500, Y: 500, Z: 50},
		Speed:    80,
		Height:   80,
	}
}

func TestSquarePoint(t *testing.T) {
	cal := testCalibration()

	cases := []struct {
		square string
		name   string
		x, y   float64
	}{
		{"a1", "A1", 100, 200},
		{"h1", "H1", 100 + 7*40, 200},
		{"a8", "A8", 100, 200 + 7*40},
		{"e4", "E4", 100 + 4*40, 200 + 3*40},
	}
	for _, tc := range cases {
		p, err := cal.SquarePoint(tc.square)
		if err != nil {
			t.Fatalf("SquarePoint(%q): %v", tc.square, err)
		}
		if p.Name != tc.name {
			t.Errorf("%s: name = %q, want %q", tc.square, p.Name, tc.name)
		}
		pose := p.Pose()
		if pose.X != tc.x || pose.Y != tc.y {
			t.Errorf("%s: pose = (%v, %v), want (%v, %v)", tc.square, pose.X, pose.Y, tc.x, tc.y)
		}
		// Orientation comes straight from the a1 calibration.
		if pose.O != 12.5 || pose.A != 90 || pose.T != 180 {
			t.Errorf("%s: orientation changed: %+v", tc.square, pose)
		}
	}
}

func TestSquarePoint_RejectsInvalid(t *testing.T) {
	cal := testCalibration()
	for _, square := range []string{"", "e", "e44", "i1", "a0", "a9", "E4", "4e"} {
		if _, err := cal.SquarePoint(square); err == nil {
			t.Errorf("SquarePoint(%q) accepted an invalid square", square)
		}
	}
}

func TestDropPoint(t *testing.T) {
	cal := testCalibration()
	p := cal.DropPoint()
	if p.Name != "drop" {
		t.Errorf("name = %q, want %q", p.Name, "drop")
	}
	if p.Pose() != cal.Drop {
		t.Errorf("pose = %+v, want %+v", p.Pose(), cal.Drop)
	}
}
