// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package robot

import (
	"math"
	"strconv"
	"strings"
)

// Pose is a 6-degree-of-freedom Cartesian pose. O, A and T are yaw,
// pitch and roll about the tool axes, in degrees.
type Pose struct {
	X, Y, Z, O, A, T float64
}

// Shift returns the pose translated by d, component-wise.
func (p Pose) Shift(d Pose) Pose {
	return Pose{p.X + d.X, p.Y + d.Y, p.Z + d.Z, p.O + d.O, p.A + d.A, p.T + d.T}
}

// Point is a named pose destined for the controller point table.
// Coordinates are rounded to 3 decimal places on construction so the
// wire representation is deterministic. A point must be registered
// (in controller memory) before a motion command references its name.
type Point struct {
	Name string
	pose Pose

	inMemory bool
}

// NewPoint creates a point with coordinates rounded to wire precision.
func NewPoint(name string, pose Pose) *Point {
	return &Point{
		Name: name,
		pose: Pose{
			X: round3(pose.X),
			Y: round3(pose.Y),
			Z: round3(pose.Z),
			O: round3(pose.O),
			A: round3(pose.A),
			T: round3(pose.T),
		},
	}
}

// Shift derives a new, unregistered point offset by d.
func (p *Point) Shift(name string, d Pose) *Point {
	return NewPoint(name, p.pose.Shift(d))
}

// Pose returns the rounded pose.
func (p *Point) Pose() Pose {
	return p.pose
}

// InMemory reports whether the point has been pushed to the controller
// point table. Only the session mutates this.
func (p *Point) InMemory() bool {
	return p.inMemory
}

// wire renders the TRANS argument list: six comma-separated values with
// exactly three decimals.
func (p *Point) wire() string {
	coords := [6]float64{p.pose.X, p.pose.Y, p.pose.Z, p.pose.O, p.pose.A, p.pose.T}
	parts := make([]string, len(coords))
	for i, v := range coords {
		parts[i] = strconv.FormatFloat(v, 'f', 3, 64)
	}
	return strings.Join(parts, ",")
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
