// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package telnet

import (
	"fmt"
	"io"
)

// Framer is a single-pass state machine that splits a raw telnet byte
// stream into application ("cooked") bytes and negotiation traffic.
// Negotiation requests the controller expects an answer to are replied
// to immediately on the writer; everything else is dropped.
//
// State is carried across Feed calls, so escape sequences split over
// two socket reads decode the same as a single read.
type Framer struct {
	w io.Writer

	state  int
	verb   byte
	insub  bool
	subbuf []byte
}

// NewFramer creates a framer that writes negotiation replies to w.
func NewFramer(w io.Writer) *Framer {
	return &Framer{w: w}
}

// Feed runs raw through the state machine and returns the cooked bytes.
// Ordering is preserved and no byte is duplicated or lost across calls.
func (f *Framer) Feed(raw []byte) ([]byte, error) {
	cooked := make([]byte, 0, len(raw))
	for _, b := range raw {
		switch f.state {
		case stateData:
			switch {
			case b == IAC:
				f.state = stateIAC
			case b == NUL || b == DC1:
				// Controller pacing noise, never application data.
			case f.insub:
				f.subbuf = append(f.subbuf, b)
			default:
				cooked = append(cooked, b)
			}

		case stateIAC:
			switch b {
			case DO, DONT, WILL, WONT:
				f.verb = b
				f.state = stateVerb
			case IAC:
				// Doubled IAC unescapes to one literal 0xFF.
				if f.insub {
					f.subbuf = append(f.subbuf, b)
				} else {
					cooked = append(cooked, b)
				}
				f.state = stateData
			case SB:
				f.insub = true
				f.subbuf = f.subbuf[:0]
				f.state = stateData
			case SE:
				f.insub = false
				f.state = stateData
				if err := f.answerSub(); err != nil {
					return cooked, err
				}
			default:
				// NOP, GA and friends need no answer.
				f.state = stateData
			}

		case stateVerb:
			verb := f.verb
			f.state = stateData
			if err := f.negotiate(verb, b); err != nil {
				return cooked, err
			}
		}
	}
	return cooked, nil
}

// Subnegotiation returns the raw payload of the most recent completed
// subnegotiation block.
func (f *Framer) Subnegotiation() []byte {
	return f.subbuf
}

// negotiate answers the two option requests the controller sends at
// session start. Unknown options are ignored rather than refused; the
// controller does not wait on them.
func (f *Framer) negotiate(verb, option byte) error {
	switch {
	case verb == WILL && option == OptEcho:
		return f.reply(IAC, DO, option)
	case verb == DO && option == OptTTYPE:
		return f.reply(IAC, WILL, OptTTYPE)
	}
	return nil
}

// answerSub replies to a terminal-type subnegotiation with the fixed
// terminal identifier. Malformed blocks are swallowed.
func (f *Framer) answerSub() error {
	if len(f.subbuf) == 0 || f.subbuf[0] != OptTTYPE {
		return nil
	}
	reply := []byte{IAC, SB, OptTTYPE, SubIS}
	reply = append(reply, terminalType...)
	reply = append(reply, NUL, IAC, SE)
	if _, err := f.w.Write(reply); err != nil {
		return fmt.Errorf("telnet: subnegotiation reply: %w", err)
	}
	return nil
}

func (f *Framer) reply(b ...byte) error {
	if _, err := f.w.Write(b); err != nil {
		return fmt.Errorf("telnet: negotiation reply: %w", err)
	}
	return nil
}
