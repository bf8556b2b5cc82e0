// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package telnet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// Stream errors surfaced by ReadUntil.
var (
	// ErrConnectionClosed is returned when the controller closes the
	// stream before a terminator matched.
	ErrConnectionClosed = errors.New("telnet: connection closed")

	// ErrTimeout is returned when no terminator matched within the
	// configured read timeout. Distinct from ErrConnectionClosed; the
	// session must be torn down in both cases.
	ErrTimeout = errors.New("telnet: read timed out")
)

// deadlineSetter is the optional transport capability used for read
// timeouts and non-blocking drains.
type deadlineSetter interface {
	SetReadDeadline(t time.Time) error
}

// Conn owns a duplex byte stream to the controller plus the framer and
// the cooked-side buffer. It is not safe for concurrent use; the
// session layer serializes all access (single-writer discipline).
type Conn struct {
	rwc     io.ReadWriteCloser
	framer  *Framer
	cooked  []byte
	readbuf []byte

	// Timeout bounds each ReadUntil call. Zero blocks forever, which
	// matches the controller reference behavior.
	Timeout time.Duration
}

// NewConn wraps an established duplex stream. Used directly by tests;
// production code goes through Dial or DialBridge.
func NewConn(rwc io.ReadWriteCloser) *Conn {
	return &Conn{
		rwc:     rwc,
		framer:  NewFramer(rwc),
		readbuf: make([]byte, 512),
	}
}

// Dial opens a TCP connection to the controller. A refused connection
// is reported to the caller immediately, never retried here.
func Dial(addr string, timeout time.Duration) (*Conn, error) {
	c, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("telnet: dial %s: %w", addr, err)
	}
	conn := NewConn(c)
	conn.Timeout = timeout
	return conn, nil
}

// ReadUntil blocks until one of the terminator byte sequences appears
// in the cooked stream and returns everything up to and including the
// match. The remainder stays buffered for the next call, so no byte is
// ever delivered twice.
//
// When several terminators could match, the earliest offset in the
// buffer wins; at equal offsets the first listed pattern wins.
func (c *Conn) ReadUntil(patterns ...[]byte) ([]byte, error) {
	if len(patterns) == 0 {
		return nil, errors.New("telnet: ReadUntil needs at least one pattern")
	}
	var deadline time.Time
	if c.Timeout > 0 {
		deadline = time.Now().Add(c.Timeout)
	}
	for {
		if out := c.match(patterns); out != nil {
			return out, nil
		}
		if err := c.fill(deadline); err != nil {
			return nil, err
		}
	}
}

// match scans the cooked buffer for the winning terminator and consumes
// through it, or returns nil when nothing matches yet.
func (c *Conn) match(patterns [][]byte) []byte {
	best := -1
	bestEnd := 0
	for _, p := range patterns {
		if len(p) == 0 {
			continue
		}
		if i := bytes.Index(c.cooked, p); i >= 0 && (best < 0 || i < best) {
			best = i
			bestEnd = i + len(p)
		}
	}
	if best < 0 {
		return nil
	}
	out := make([]byte, bestEnd)
	copy(out, c.cooked[:bestEnd])
	c.cooked = c.cooked[bestEnd:]
	return out
}

// fill performs one transport read and runs it through the framer.
func (c *Conn) fill(deadline time.Time) error {
	if ds, ok := c.rwc.(deadlineSetter); ok {
		if err := ds.SetReadDeadline(deadline); err != nil {
			return fmt.Errorf("telnet: set deadline: %w", err)
		}
	}
	n, err := c.rwc.Read(c.readbuf)
	if n > 0 {
		cooked, ferr := c.framer.Feed(c.readbuf[:n])
		c.cooked = append(c.cooked, cooked...)
		if ferr != nil {
			return ferr
		}
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return ErrConnectionClosed
	case errors.Is(err, os.ErrDeadlineExceeded):
		return ErrTimeout
	default:
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
}

// WriteLine sends payload with the line terminator appended. Any 0xFF
// in the payload is doubled so the remote does not read it as IAC.
func (c *Conn) WriteLine(payload []byte) error {
	out := make([]byte, 0, len(payload)+2)
	for _, b := range payload {
		out = append(out, b)
		if b == IAC {
			out = append(out, IAC)
		}
	}
	out = append(out, '\r', '\n')
	if _, err := c.rwc.Write(out); err != nil {
		return fmt.Errorf("telnet: write: %w", err)
	}
	return nil
}

// Drain reads whatever the controller has already sent, answers any
// negotiation in it, then discards the cooked backlog. Leaves the
// stream with nothing pending for the next command.
func (c *Conn) Drain() {
	if ds, ok := c.rwc.(deadlineSetter); ok {
		if err := ds.SetReadDeadline(time.Now().Add(20 * time.Millisecond)); err == nil {
			for {
				n, err := c.rwc.Read(c.readbuf)
				if n > 0 {
					_, _ = c.framer.Feed(c.readbuf[:n])
				}
				if err != nil {
					break
				}
			}
		}
	}
	c.cooked = c.cooked[:0]
}

// Close closes the transport. Safe to call from any error path; a
// blocked ReadUntil on another goroutine unblocks with an error.
func (c *Conn) Close() error {
	return c.rwc.Close()
}
