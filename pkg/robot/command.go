// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package robot

// CommandKind selects the completion protocol for a command: config
// commands complete at the next prompt, motion commands complete at a
// motion phrase (or a fault).
type CommandKind int

const (
	KindConfig CommandKind = iota
	KindMotion
)

// Command is one entry of the fixed AS monitor vocabulary the session
// speaks. The argument kind is declared by the command itself; motion
// commands optionally take a point name appended on the wire.
type Command struct {
	Text string
	Kind CommandKind
}

var (
	Reset         = Command{"ERESET", KindConfig}
	Abort         = Command{"ABORT", KindConfig}
	MotorOn       = Command{"ZPOW ON", KindConfig}
	MotorOff      = Command{"ZPOW OFF", KindConfig}
	ContPathOn    = Command{"CP ON", KindConfig}
	ContPathOff   = Command{"CP OFF", KindConfig}
	RepeatOnceOn  = Command{"REP_ONCE ON", KindConfig}
	RepeatOnceOff = Command{"REP_ONCE OFF", KindConfig}
	StepOnceOn    = Command{"STP_ONCE ON", KindConfig}
	StepOnceOff   = Command{"STP_ONCE OFF", KindConfig}

	Home       = Command{"DO HOME", KindMotion}
	LinearMove = Command{"DO LMOVE", KindMotion}
	JointMove  = Command{"DO JMOVE", KindMotion}
	HybridMove = Command{"DO HMOVE", KindMotion}
	Pickup     = Command{"DO LDEPART 80", KindMotion}
	Putdown    = Command{"DO LDEPART -80", KindMotion}
)

// MotionResult classifies the terminal-but-expected outcomes of a
// motion or program wait. Hard faults are errors, not results.
type MotionResult int

const (
	MotionCompleted MotionResult = iota
	MotionHeld
	MotionAborted
)

func (r MotionResult) String() string {
	switch r {
	case MotionCompleted:
		return "completed"
	case MotionHeld:
		return "held"
	case MotionAborted:
		return "aborted"
	}
	return "unknown"
}

// Controller reply phrases.
const (
	promptLogin = "login:"
	prompt      = ">"

	replyMotionDone   = "DO motion completed."
	replyMotionHeld   = "DO motion held."
	replySuddenChange = "suddenly changed."
	replyOutOfRange   = "Destination is out of motion range."
	replyProgDone     = "Program completed."
	replyProgAborted  = "Program aborted."
	replyProgHeld     = "Program held."
	replyPointConfirm = "Change?"
	replyStatusEnd    = "Press SPACE key to continue"
	replyEditorMarker = ".as"
)
