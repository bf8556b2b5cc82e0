// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package robot

import (
	"fmt"
	"strings"
	"time"
)

// Transfer-control bytes of the AS program loader framing.
const (
	ctrlSTX byte = 0x02 // start of transfer frame
	ctrlETB byte = 0x17 // end of transfer block
	ctrlSUB byte = 0x1A // substitute, closes the data stream
)

// AddPoints registers points with the controller point table. Already
// registered points are skipped silently: re-sending a POINT command
// for a known name triggers a name-collision prompt that would desync
// the stream.
func (s *Session) AddPoints(points ...*Point) error {
	if !s.loggedIn {
		return ErrNotLoggedIn
	}
	for _, p := range points {
		if p.inMemory {
			continue
		}
		line := fmt.Sprintf("POINT %s = TRANS(%s)\n", p.Name, p.wire())
		if err := s.conn.WriteLine([]byte(line)); err != nil {
			return err
		}
		if _, err := s.conn.ReadUntil([]byte(replyPointConfirm)); err != nil {
			return s.streamFailure(err)
		}
		p.inMemory = true
		s.log.WithField("point", p.Name).Debug("point registered")
	}
	return nil
}

// RemovePoints deletes registered points from controller memory.
// Unregistered points are skipped.
func (s *Session) RemovePoints(points ...*Point) error {
	if !s.loggedIn {
		return ErrNotLoggedIn
	}
	if err := s.conn.WriteLine([]byte("KILL\n1\n")); err != nil {
		return err
	}
	for _, p := range points {
		if !p.inMemory {
			continue
		}
		if err := s.conn.WriteLine([]byte(fmt.Sprintf("DELETE/L %s\n1\n", p.Name))); err != nil {
			return err
		}
		if _, err := s.conn.ReadUntil([]byte(prompt)); err != nil {
			return s.streamFailure(err)
		}
		p.inMemory = false
	}
	return nil
}

// LoadProgram uploads a program through the chunked editor transfer:
// kill the edit buffer, open the transfer, send each chunk in a control
// frame and wait for its acknowledgement, then close the stream and
// wait for the prompt.
func (s *Session) LoadProgram(prog *Program) error {
	if !s.loggedIn {
		return ErrNotLoggedIn
	}
	s.log.WithFields(map[string]interface{}{
		"program": prog.Name,
		"bytes":   len(prog.data),
	}).Debug("uploading program")

	if err := s.conn.WriteLine([]byte("KILL\n1\n")); err != nil {
		return err
	}
	if err := s.conn.WriteLine([]byte("LOAD " + prog.Name)); err != nil {
		return err
	}
	if _, err := s.conn.ReadUntil([]byte(replyEditorMarker)); err != nil {
		return s.streamFailure(err)
	}

	if err := s.conn.WriteLine(transferFrame('A', nil)); err != nil {
		return err
	}
	for _, chunk := range prog.Chunks() {
		if err := s.conn.WriteLine(transferFrame('C', chunk)); err != nil {
			return err
		}
		if _, err := s.conn.ReadUntil([]byte{ctrlETB}); err != nil {
			return s.streamFailure(err)
		}
	}
	if err := s.conn.WriteLine(append(transferFrame('C', []byte{ctrlSUB}), '\n')); err != nil {
		return err
	}
	if _, err := s.conn.ReadUntil([]byte{'E', ctrlETB}); err != nil {
		return s.streamFailure(err)
	}
	if err := s.conn.WriteLine(transferFrame('E', nil)); err != nil {
		return err
	}
	if _, err := s.conn.ReadUntil([]byte(prompt)); err != nil {
		return s.streamFailure(err)
	}
	return nil
}

// transferFrame wraps payload in a loader control frame: STX, a record
// type byte, four spaces of padding, a zero sequence digit, payload,
// ETB.
func transferFrame(record byte, payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, ctrlSTX, record, ' ', ' ', ' ', ' ', '0')
	frame = append(frame, payload...)
	return append(frame, ctrlETB)
}

// ExecProgram runs an uploaded program and waits for its terminal
// phrase. Held and aborted are reported outcomes, not errors; the
// caller decides whether to continue (a held program usually means the
// operator pressed HOLD mid-game).
func (s *Session) ExecProgram(prog *Program) (MotionResult, error) {
	if !s.loggedIn {
		return MotionAborted, ErrNotLoggedIn
	}
	if !s.ready {
		return MotionAborted, ErrNotReady
	}
	if err := s.conn.WriteLine([]byte("EXE " + prog.Name)); err != nil {
		return MotionAborted, err
	}
	reply, err := s.conn.ReadUntil(
		[]byte(replyProgDone),
		[]byte(replyProgAborted),
		[]byte(replyProgHeld),
	)
	if err != nil {
		return MotionAborted, s.streamFailure(err)
	}

	res := MotionCompleted
	switch {
	case strings.Contains(string(reply), replyProgHeld):
		res = MotionHeld
	case strings.Contains(string(reply), replyProgAborted):
		res = MotionAborted
	}
	if res != MotionCompleted {
		s.log.WithFields(map[string]interface{}{
			"program": prog.Name,
			"result":  res.String(),
		}).Warn("program did not complete")
		s.notify("Program held or aborted!")
	}
	time.Sleep(s.cfg.Settle)
	return res, nil
}

// AbortMotion requests a program abort as the next serialized command.
// It cannot interrupt a wait that is already blocked; for a hard
// cancel, Close the session.
func (s *Session) AbortMotion() error {
	_, err := s.Do(Abort, nil)
	return err
}

// WaitUntilIdle polls the switch status until the controller is no
// longer busy, used when a command has no unambiguous completion
// phrase. The abort channel stops the poll early.
func (s *Session) WaitUntilIdle(abort <-chan struct{}) error {
	for {
		st, err := s.Status()
		if err != nil {
			return err
		}
		if !st.Busy {
			return nil
		}
		select {
		case <-abort:
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}
}
