// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

// Package gripper controls the piece gripper: a servo on channel 0 of
// a Pololu Mini Maestro, driven over its serial command port with the
// compact protocol.
package gripper

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Compact protocol command bytes.
const (
	cmdSetTarget      byte = 0x84
	cmdGetMovingState byte = 0x93
)

const servoChannel = 0

// Positions are servo pulse widths in microseconds; the compact
// protocol takes quarter-microsecond units, so setTarget scales by 4
// before splitting the value into 7-bit bytes. The open and closed
// positions double as the allowed range; anything outside would crash
// the fingers into the piece or the mount.
const (
	openTarget  = 496
	closeTarget = 720
)

// Gripper drives the servo. Open/Close block until the servo reports
// it stopped moving.
type Gripper struct {
	port serial.Port
}

// Dial opens the Maestro command port.
func Dial(tty string) (*Gripper, error) {
	mode := &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(tty, mode)
	if err != nil {
		return nil, fmt.Errorf("gripper: open %s: %w", tty, err)
	}
	return &Gripper{port: port}, nil
}

// Open releases the piece.
func (g *Gripper) Open() error {
	return g.setTarget(openTarget)
}

// Close grips the piece.
func (g *Gripper) Close() error {
	return g.setTarget(closeTarget)
}

// Shutdown closes the serial port.
func (g *Gripper) Shutdown() error {
	return g.port.Close()
}

func (g *Gripper) setTarget(target int) error {
	if target < openTarget || target > closeTarget {
		return fmt.Errorf("gripper: target %d out of range [%d, %d]", target, openTarget, closeTarget)
	}
	quarter := target * 4
	cmd := []byte{
		cmdSetTarget,
		servoChannel,
		byte(quarter & 0x7F),
		byte((quarter >> 7) & 0x7F),
	}
	if _, err := g.port.Write(cmd); err != nil {
		return fmt.Errorf("gripper: set target: %w", err)
	}
	return g.waitDone()
}

// waitDone polls the moving-state command until the servo settles.
func (g *Gripper) waitDone() error {
	buf := make([]byte, 1)
	for {
		if _, err := g.port.Write([]byte{cmdGetMovingState}); err != nil {
			return fmt.Errorf("gripper: moving state: %w", err)
		}
		if _, err := g.port.Read(buf); err != nil {
			return fmt.Errorf("gripper: moving state read: %w", err)
		}
		if buf[0] == 0 {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
}
