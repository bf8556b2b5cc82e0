// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package robot

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoggedIn is returned when a command is issued before the
	// login handshake completed or after the session closed.
	ErrNotLoggedIn = errors.New("robot: not logged in")

	// ErrNotReady means the controller is in teach mode, teach lock or
	// hold. The transport stays up but motion commands are refused
	// until an operator clears the condition and Initialize is re-run.
	ErrNotReady = errors.New("robot: not ready for operation")

	// ErrMotorUnpowered means ZPOW ON was sent but a follow-up status
	// query still reports the motor off.
	ErrMotorUnpowered = errors.New("robot: motor cannot be powered on")

	// ErrProtocolFormat flags a controller/firmware mismatch: a status
	// report missing an expected field, or a program template without a
	// name token. Hard stop, never degraded-mode input.
	ErrProtocolFormat = errors.New("robot: protocol format error")
)

// MotionFault is a hard motion failure: the controller rejected or
// faulted the move ("suddenly changed", destination out of range).
// Fatal to the current motion, not to the session.
type MotionFault struct {
	Command string
	Reply   string
}

func (e *MotionFault) Error() string {
	return fmt.Sprintf("robot: motion fault on %q: %s", e.Command, e.Reply)
}
