// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

// Package telnet implements the minimal line-terminal protocol spoken by
// Kawasaki AS controllers: option negotiation, IAC escaping and a
// read-until-match primitive over the negotiation-stripped byte stream.
//
// The controller firmware negotiates exactly three things (remote echo,
// terminal type, and the terminal-type subnegotiation); everything else
// is observed and dropped so the cooked stream stays clean.
package telnet

// Telnet command bytes (RFC 854).
const (
	IAC  byte = 255 // Interpret As Command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // Subnegotiation begin
	GA   byte = 249 // Go ahead
	NOP  byte = 241 // No operation
	SE   byte = 240 // Subnegotiation end
)

// Option codes and subnegotiation verbs.
const (
	OptEcho  byte = 1
	OptTTYPE byte = 24 // Terminal type
	SubIS    byte = 0
	SubSEND  byte = 1
)

// Control characters the controller uses in the cooked stream.
const (
	NUL byte = 0
	DC1 byte = 0x11 // XON, emitted by the controller as pacing noise
)

// terminalType is the fixed answer to a TTYPE subnegotiation request.
var terminalType = []byte("VT100")

// Framer states.
const (
	stateData = iota
	stateIAC
	stateVerb
)
