// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

// Package robot drives a Kawasaki AS controller over a telnet session:
// login and logout, switch-status queries, point and program management
// and individual motion commands with the sequencing and pacing the
// hardware requires.
//
// A Session is strictly single-writer. Commands complete in send order
// because the protocol has no request IDs; callers must serialize
// access externally. Close is the only call that is safe from another
// goroutine, as the hard cancel for a blocked read.
package robot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"kawachess/pkg/telnet"
)

// Notify delivers human-readable fault and progress messages to the
// operator surface (dialog, console, TUI).
type Notify func(msg string)

// Config carries session parameters. Addr is host:port for a direct
// TCP connection; BridgeURL, when set, takes precedence and connects
// through a websocket telnet bridge instead.
type Config struct {
	Addr      string
	BridgeURL string
	Username  string

	// Timeout bounds every read-until-match; zero blocks forever.
	Timeout time.Duration
	// Settle is the pause after each completed motion, before the next
	// command. Required pacing: the prompt returns before the arm has
	// physically stopped.
	Settle time.Duration

	Logger *logrus.Logger
	Notify Notify

	// SkipInit connects and logs in without driving the controller to
	// the safe operable state. Used by read-only tooling.
	SkipInit bool
}

// Session owns one connection to the controller.
type Session struct {
	cfg    Config
	conn   *telnet.Conn
	log    *logrus.Entry
	notify Notify

	loggedIn bool
	ready    bool
}

const defaultUsername = "as"

// NewSession prepares a session; no I/O happens until Connect.
func NewSession(cfg Config) *Session {
	if cfg.Username == "" {
		cfg.Username = defaultUsername
	}
	if cfg.Settle == 0 {
		cfg.Settle = 300 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	notify := cfg.Notify
	if notify == nil {
		notify = func(string) {}
	}
	return &Session{
		cfg:    cfg,
		log:    cfg.Logger.WithField("component", "robot"),
		notify: notify,
	}
}

// Connect opens the transport and performs the login handshake: wait
// for the "login:" prompt, send the username, wait for the monitor
// prompt. Unless SkipInit is set it then drives the controller into
// the safe operable state. A refused connection is reported and
// returned, never retried automatically.
func (s *Session) Connect() error {
	if s.loggedIn {
		return nil
	}

	var (
		conn *telnet.Conn
		err  error
	)
	if s.cfg.BridgeURL != "" {
		conn, err = telnet.DialBridge(s.cfg.BridgeURL, s.cfg.Timeout)
	} else {
		conn, err = telnet.Dial(s.cfg.Addr, s.cfg.Timeout)
	}
	if err != nil {
		s.notify("Connection refused!")
		return err
	}
	return s.handshake(conn)
}

// handshake runs login and optional initialization on an already-open
// transport.
func (s *Session) handshake(conn *telnet.Conn) error {
	s.conn = conn

	if _, err := conn.ReadUntil([]byte(promptLogin)); err != nil {
		return s.teardown(fmt.Errorf("robot: waiting for login prompt: %w", err))
	}
	if err := conn.WriteLine([]byte(s.cfg.Username)); err != nil {
		return s.teardown(err)
	}
	if _, err := conn.ReadUntil([]byte(prompt)); err != nil {
		return s.teardown(fmt.Errorf("robot: waiting for monitor prompt: %w", err))
	}
	s.loggedIn = true
	s.log.WithField("addr", s.cfg.Addr).Info("logged in")

	if !s.cfg.SkipInit {
		if err := s.Initialize(); err != nil {
			if errors.Is(err, ErrNotReady) {
				// Transport stays up; motion is refused until an
				// operator intervenes and Initialize is re-run.
				return err
			}
			return s.teardown(err)
		}
	}

	s.notify("Connected and logged in!")
	s.conn.Drain()
	return nil
}

// LoggedIn reports whether the login handshake has completed.
func (s *Session) LoggedIn() bool {
	return s.loggedIn
}

// Ready reports whether motion commands are currently accepted.
func (s *Session) Ready() bool {
	return s.ready
}

// Close logs out and tears the session down: program-abort signal,
// socket close, buffers cleared. Idempotent; safe from any error path.
// The session is not reusable afterwards.
func (s *Session) Close() {
	if s.conn == nil {
		return
	}
	if s.loggedIn {
		_ = s.conn.WriteLine([]byte("signal -2011"))
		s.notify("Logged out and disconnected!")
	}
	_ = s.conn.Close()
	s.conn = nil
	s.loggedIn = false
	s.ready = false
}

// teardown closes the transport after a mid-handshake failure.
func (s *Session) teardown(err error) error {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.loggedIn = false
	s.ready = false
	return err
}

// Status queries and parses the controller switch report. The stream is
// drained afterwards so nothing is pending for the next command.
func (s *Session) Status() (Status, error) {
	if !s.loggedIn {
		return Status{}, ErrNotLoggedIn
	}
	if err := s.conn.WriteLine([]byte("SWITCH")); err != nil {
		return Status{}, err
	}
	raw, err := s.conn.ReadUntil([]byte(replyStatusEnd))
	if err != nil {
		return Status{}, s.streamFailure(err)
	}
	st, err := parseSwitchReport(string(raw))
	if err != nil {
		return Status{}, err
	}
	// Dismiss the pager and leave the stream clean.
	if err := s.conn.WriteLine([]byte("\n")); err != nil {
		return Status{}, err
	}
	s.conn.Drain()
	return st, nil
}

// Initialize drives the controller into the safe operable state, in
// fixed order: error reset first (mode commands are rejected while the
// error flag is up), then mode toggles, then motor power with a
// verification re-query. Teach mode, teach lock or hold abort
// initialization with ErrNotReady.
func (s *Session) Initialize() error {
	st, err := s.Status()
	if err != nil {
		return err
	}
	if st.TeachLock || st.TeachMode || st.Hold {
		s.ready = false
		s.notify("Robot is not ready for operation!")
		return ErrNotReady
	}

	if st.Error {
		if _, err := s.Do(Reset, nil); err != nil {
			return err
		}
	}
	if st.ContinuousPath {
		if _, err := s.Do(ContPathOff, nil); err != nil {
			return err
		}
	}
	if st.RepeatOnce {
		if _, err := s.Do(RepeatOnceOn, nil); err != nil {
			return err
		}
	}
	if st.StepOnce {
		if _, err := s.Do(StepOnceOff, nil); err != nil {
			return err
		}
	}
	if !st.MotorPowered {
		if _, err := s.Do(MotorOn, nil); err != nil {
			return err
		}
		st, err = s.Status()
		if err != nil {
			return err
		}
		if !st.MotorPowered {
			s.notify("Motor cannot be powered on!")
			return ErrMotorUnpowered
		}
	}

	s.ready = true
	return nil
}

// Do issues one command and waits for its completion class. Config
// commands complete at the next prompt. Motion commands optionally
// carry a point, which is registered first if needed, and complete at
// a motion phrase; rejected or faulted motion returns *MotionFault
// while held/aborted are reported results. After any completed motion
// the session pauses for the settle delay before returning.
func (s *Session) Do(cmd Command, arg *Point) (MotionResult, error) {
	if !s.loggedIn {
		return MotionAborted, ErrNotLoggedIn
	}

	switch cmd.Kind {
	case KindConfig:
		if err := s.conn.WriteLine([]byte(cmd.Text)); err != nil {
			return MotionAborted, err
		}
		if _, err := s.conn.ReadUntil([]byte(prompt), []byte(replyProgAborted)); err != nil {
			return MotionAborted, s.streamFailure(err)
		}
		time.Sleep(s.pacing())
		return MotionCompleted, nil

	case KindMotion:
		if !s.ready {
			return MotionAborted, ErrNotReady
		}
		line := cmd.Text
		if arg != nil {
			if err := s.AddPoints(arg); err != nil {
				return MotionAborted, err
			}
			line = cmd.Text + " " + arg.Name
		}
		if err := s.conn.WriteLine([]byte(line)); err != nil {
			return MotionAborted, err
		}
		reply, err := s.conn.ReadUntil(
			[]byte(replyMotionDone),
			[]byte(replySuddenChange),
			[]byte(replyOutOfRange),
			[]byte(replyMotionHeld),
			[]byte(replyProgAborted),
		)
		if err != nil {
			return MotionAborted, s.streamFailure(err)
		}
		res, err := classifyMotion(line, string(reply))
		if err != nil {
			return res, err
		}
		time.Sleep(s.cfg.Settle + s.pacing())
		return res, nil
	}
	return MotionAborted, fmt.Errorf("robot: unknown command kind %d", cmd.Kind)
}

func classifyMotion(command, reply string) (MotionResult, error) {
	switch {
	case strings.Contains(reply, replySuddenChange), strings.Contains(reply, replyOutOfRange):
		return MotionAborted, &MotionFault{Command: command, Reply: strings.TrimSpace(reply)}
	case strings.Contains(reply, replyMotionHeld):
		return MotionHeld, nil
	case strings.Contains(reply, replyProgAborted):
		return MotionAborted, nil
	default:
		return MotionCompleted, nil
	}
}

// streamFailure handles transport-level errors surfaced mid-command:
// the session is torn down and the condition reported.
func (s *Session) streamFailure(err error) error {
	switch {
	case errors.Is(err, telnet.ErrConnectionClosed):
		s.notify("Connection to the robot was lost!")
	case errors.Is(err, telnet.ErrTimeout):
		s.notify("Robot stopped responding!")
	default:
		return err
	}
	s.log.WithError(err).Error("session stream failure")
	s.Close()
	return err
}

func (s *Session) pacing() time.Duration {
	// Scale the 100ms inter-command gap with the configured settle so
	// tests with Settle=0 run without real sleeps.
	return s.cfg.Settle / 3
}
