// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package game

import (
	"fmt"

	"kawachess/pkg/robot"
)

// GripAction is a gripper step between motion programs.
type GripAction int

const (
	GripNone GripAction = iota
	GripOpen
	GripClose
)

// Step is one element of a compound move: either a gripper action or an
// uploaded-and-executed motion program.
type Step struct {
	Grip    GripAction
	Program *robot.Program
}

// stepBuilder accumulates a move sequence; the first template error
// sticks and surfaces once at build time.
type stepBuilder struct {
	speed  int
	height float64
	steps  []Step
	err    error
}

func newBuilder(speed int, height float64) *stepBuilder {
	return &stepBuilder{speed: speed, height: height}
}

func (b *stepBuilder) grip(a GripAction) *stepBuilder {
	b.steps = append(b.steps, Step{Grip: a})
	return b
}

func (b *stepBuilder) prog(name string, ops ...string) *stepBuilder {
	if b.err != nil {
		return b
	}
	source := fmt.Sprintf(".PROGRAM %s ()\nSPEED %d ALWAYS\n", name, b.speed)
	for _, op := range ops {
		source += op + "\n"
	}
	source += ".END\n"
	prog, err := robot.NewProgram(source)
	if err != nil {
		b.err = err
		return b
	}
	b.steps = append(b.steps, Step{Program: prog})
	return b
}

func (b *stepBuilder) descend(p *robot.Point) []string {
	return []string{"LMOVE " + p.Name, fmt.Sprintf("LDEPART -%g", b.height)}
}

func (b *stepBuilder) carryTo(p *robot.Point) []string {
	return []string{fmt.Sprintf("LDEPART %g", b.height), "LMOVE " + p.Name, fmt.Sprintf("LDEPART -%g", b.height)}
}

// home parks the arm above the drop point; always run at the slow
// homing speed regardless of the game speed.
func (b *stepBuilder) home(drop *robot.Point) *stepBuilder {
	speed := b.speed
	b.speed = homeSpeed
	b.prog("homie", fmt.Sprintf("LDEPART %g", b.height), "LMOVE "+drop.Name)
	b.speed = speed
	return b
}

func (b *stepBuilder) build() ([]Step, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.steps, nil
}

const homeSpeed = 30

// plainMove picks the piece at from and places it at to.
func plainMove(from, to, drop *robot.Point, speed int, height float64) ([]Step, error) {
	b := newBuilder(speed, height)
	b.grip(GripOpen).
		prog("nocap_1", b.descend(from)...).
		grip(GripClose).
		prog("nocap_2", b.carryTo(to)...).
		grip(GripOpen).
		home(drop)
	return b.build()
}

// captureMove removes the piece at to into the drop zone, then plays
// the moving piece from from onto to.
func captureMove(from, to, drop *robot.Point, speed int, height float64) ([]Step, error) {
	b := newBuilder(speed, height)
	b.grip(GripOpen).
		prog("cap_1", b.descend(to)...).
		grip(GripClose).
		prog("cap_2", fmt.Sprintf("LDEPART %g", height), "LMOVE "+drop.Name).
		grip(GripOpen).
		prog("cap_3", b.descend(from)...).
		grip(GripClose).
		prog("cap_4", b.carryTo(to)...).
		grip(GripOpen).
		home(drop)
	return b.build()
}

// castlingMove relocates the king and then the rook over the four
// squares of the chosen side.
func castlingMove(kingFrom, kingTo, rookFrom, rookTo, drop *robot.Point, speed int, height float64) ([]Step, error) {
	b := newBuilder(speed, height)
	b.grip(GripOpen).
		prog("castle_1", b.descend(kingFrom)...).
		grip(GripClose).
		prog("castle_2", b.carryTo(kingTo)...).
		grip(GripOpen).
		prog("castle_3", b.carryTo(rookFrom)...).
		grip(GripClose).
		prog("castle_4", b.carryTo(rookTo)...).
		grip(GripOpen).
		home(drop)
	return b.build()
}

// enPassantMove drops the captured pawn first, then plays the pawn
// move itself.
func enPassantMove(from, to, captured, drop *robot.Point, speed int, height float64) ([]Step, error) {
	b := newBuilder(speed, height)
	b.grip(GripOpen).
		prog("ep_1", b.descend(captured)...).
		grip(GripClose).
		prog("ep_2", fmt.Sprintf("LDEPART %g", height), "LMOVE "+drop.Name).
		grip(GripOpen).
		prog("ep_3", b.descend(from)...).
		grip(GripClose).
		prog("ep_4", b.carryTo(to)...).
		grip(GripOpen).
		home(drop)
	return b.build()
}
