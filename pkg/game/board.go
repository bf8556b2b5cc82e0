// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

// Package game drives one chess game on the physical board: it turns
// engine moves into pick-and-place motion sequences, owns the board
// calibration, and persists a summary when the game ends.
package game

import (
	"fmt"

	"kawachess/pkg/robot"
)

// Calibration maps board squares to robot poses. A1 is the measured
// pose of the a1 square center; FileStep and RankStep are the offsets
// to the next file and rank. Drop is where captured pieces go.
type Calibration struct {
	A1       robot.Pose
	FileStep robot.Pose
	RankStep robot.Pose
	Drop     robot.Pose

	// Speed is the SPEED directive value of generated programs.
	Speed int
	// Height is the LDEPART approach/retreat distance in millimeters.
	Height float64
}

// SquarePoint computes the point for an algebraic square ("e4"). Point
// names are the uppercase square names so generated programs stay
// readable on the controller side.
func (c Calibration) SquarePoint(square string) (*robot.Point, error) {
	if len(square) != 2 || square[0] < 'a' || square[0] > 'h' || square[1] < '1' || square[1] > '8' {
		return nil, fmt.Errorf("game: invalid square %q", square)
	}
	file := float64(square[0] - 'a')
	rank := float64(square[1] - '1')
	pose := c.A1.Shift(scale(c.FileStep, file)).Shift(scale(c.RankStep, rank))
	name := string([]byte{square[0] - 'a' + 'A', square[1]})
	return robot.NewPoint(name, pose), nil
}

// DropPoint returns the captured-piece drop location.
func (c Calibration) DropPoint() *robot.Point {
	return robot.NewPoint("drop", c.Drop)
}

func scale(p robot.Pose, k float64) robot.Pose {
	return robot.Pose{X: p.X * k, Y: p.Y * k, Z: p.Z * k, O: p.O * k, A: p.A * k, T: p.T * k}
}
