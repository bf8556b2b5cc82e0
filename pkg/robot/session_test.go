// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package robot

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"kawachess/pkg/telnet"
)

// exchange is one scripted step of the fake controller: wait until the
// expect substring has arrived, then write the reply. An empty expect
// replies immediately, which models the unsolicited login greeting.
type exchange struct {
	expect string
	reply  string
}

// recorder accumulates every byte the fake controller received.
type recorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (r *recorder) Received() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// serveScript plays a controller script on the far end of the pipe.
// After the script it keeps draining, so session writes never block on
// the synchronous pipe.
func serveScript(conn net.Conn, script []exchange) *recorder {
	rec := &recorder{}
	read := func(window []byte) ([]byte, error) {
		buf := make([]byte, 4096)
		n, err := conn.Read(buf)
		if err != nil {
			return window, err
		}
		rec.mu.Lock()
		rec.buf.Write(buf[:n])
		rec.mu.Unlock()
		return append(window, buf[:n]...), nil
	}

	go func() {
		for _, ex := range script {
			var window []byte
			for ex.expect != "" && !bytes.Contains(window, []byte(ex.expect)) {
				var err error
				if window, err = read(window); err != nil {
					return
				}
			}
			if _, err := conn.Write([]byte(ex.reply)); err != nil {
				return
			}
		}
		for {
			if _, err := read(nil); err != nil {
				return
			}
		}
	}()
	return rec
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// dialScript builds a session wired to a scripted fake controller and
// runs the login handshake.
func dialScript(t *testing.T, script []exchange, skipInit bool) (*Session, *recorder, error) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	rec := serveScript(server, script)

	s := NewSession(Config{
		Addr:     "fake",
		Timeout:  2 * time.Second,
		Settle:   time.Nanosecond,
		Logger:   quietLogger(),
		SkipInit: skipInit,
	})
	conn := telnet.NewConn(client)
	conn.Timeout = 2 * time.Second
	return s, rec, s.handshake(conn)
}

const safeReport = "SWITCH\r\n" +
	"     CS OFF      ERROR OFF\r\n" +
	" *POWER ON      REPEAT ON\r\n" +
	" TEACH_LOCK OFF RUN ON\r\n" +
	" CP OFF  REP_ONCE OFF  STP_ONCE OFF\r\n" +
	" Press SPACE key to continue"

var loginScript = []exchange{
	{"", "login: "},
	{"as", "as\r\n>"},
}

func statusExchange(report string) []exchange {
	return []exchange{
		{"SWITCH", report},
		{"\n", ">"},
	}
}

func TestConnect_LoginAndSafeInitialize(t *testing.T) {
	script := append(append([]exchange{}, loginScript...), statusExchange(safeReport)...)

	s, rec, err := dialScript(t, script, false)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer s.Close()

	if !s.LoggedIn() {
		t.Error("session should be logged in")
	}
	if !s.Ready() {
		t.Error("session should be ready")
	}
	// Motor was already powered: the initializer must not touch it.
	if strings.Contains(rec.Received(), "ZPOW") {
		t.Errorf("ZPOW sent for an already powered motor:\n%s", rec.Received())
	}
}

func TestDo_MotionFaultKeepsSessionUp(t *testing.T) {
	script := append(append([]exchange{}, loginScript...), statusExchange(safeReport)...)
	script = append(script,
		exchange{"POINT H8", "Change?"},
		exchange{"DO HMOVE H8", "Destination is out of motion range.\r\n>"},
	)

	s, _, err := dialScript(t, script, false)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer s.Close()

	res, err := s.Do(HybridMove, NewPoint("H8", Pose{X: 9999, Y: 9999}))
	var fault *MotionFault
	if !errors.As(err, &fault) {
		t.Fatalf("err = %v, want *MotionFault", err)
	}
	if !strings.Contains(fault.Reply, "out of motion range") {
		t.Errorf("fault reply = %q", fault.Reply)
	}
	if res != MotionAborted {
		t.Errorf("result = %v, want MotionAborted", res)
	}
	// Protocol stream is intact after a rejected motion.
	if !s.LoggedIn() {
		t.Error("session must stay logged in after a motion fault")
	}
}

func TestInitialize_ResetBeforeModeToggles(t *testing.T) {
	faultedReport := strings.ReplaceAll(safeReport, "ERROR OFF", "ERROR ON")
	faultedReport = strings.ReplaceAll(faultedReport, "CP OFF", "CP ON")

	// The script only ever matches in order: sending CP OFF before
	// ERESET would stall the controller and time the test out.
	script := append(append([]exchange{}, loginScript...), statusExchange(faultedReport)...)
	script = append(script,
		exchange{"ERESET", ">"},
		exchange{"CP OFF", ">"},
	)

	s, _, err := dialScript(t, script, false)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer s.Close()

	if !s.Ready() {
		t.Error("session should be ready after recovery")
	}
}

func TestInitialize_MotorPowerFailure(t *testing.T) {
	unpowered := strings.ReplaceAll(safeReport, "*POWER ON", "*POWER OFF")

	script := append(append([]exchange{}, loginScript...), statusExchange(unpowered)...)
	script = append(script, exchange{"ZPOW ON", ">"})
	script = append(script, statusExchange(unpowered)...)

	s, _, err := dialScript(t, script, false)
	if !errors.Is(err, ErrMotorUnpowered) {
		t.Fatalf("err = %v, want ErrMotorUnpowered", err)
	}
	if s.LoggedIn() {
		t.Error("session should be torn down after a power failure")
	}
}

func TestInitialize_HoldIsNotReady(t *testing.T) {
	held := strings.ReplaceAll(safeReport, "RUN ON", "RUN OFF")
	script := append(append([]exchange{}, loginScript...), statusExchange(held)...)

	s, rec, err := dialScript(t, script, false)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
	// Transport survives: an operator can release HOLD and retry.
	if !s.LoggedIn() {
		t.Error("session should stay logged in")
	}
	if s.Ready() {
		t.Error("session must not be ready")
	}
	if strings.Contains(rec.Received(), "ERESET") || strings.Contains(rec.Received(), "ZPOW") {
		t.Errorf("initializer issued commands while not ready:\n%s", rec.Received())
	}
	s.Close()
}

func TestDo_RequiresLoginAndReadiness(t *testing.T) {
	s := NewSession(Config{Logger: quietLogger()})
	if _, err := s.Do(Home, nil); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("err = %v, want ErrNotLoggedIn", err)
	}
	if _, err := s.Status(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Status err = %v, want ErrNotLoggedIn", err)
	}

	s2, _, err := dialScript(t, loginScript, true)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer s2.Close()
	if _, err := s2.Do(Home, nil); !errors.Is(err, ErrNotReady) {
		t.Errorf("motion without init: err = %v, want ErrNotReady", err)
	}
}

func TestAddPoints_SkipsRegistered(t *testing.T) {
	script := append(append([]exchange{}, loginScript...),
		exchange{"POINT drop", "Change?"},
	)
	s, rec, err := dialScript(t, script, true)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer s.Close()

	p := NewPoint("drop", Pose{X: 300, Y: 300, Z: 100})
	if err := s.AddPoints(p); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}
	if !p.InMemory() {
		t.Error("point should be marked registered")
	}

	before := len(rec.Received())
	if err := s.AddPoints(p); err != nil {
		t.Fatalf("second AddPoints: %v", err)
	}
	if len(rec.Received()) != before {
		t.Error("re-adding a registered point must not touch the wire")
	}
}

func TestRemovePoints_OnlyRegistered(t *testing.T) {
	script := append(append([]exchange{}, loginScript...),
		exchange{"POINT drop", "Change?"},
		exchange{"DELETE/L drop", ">"},
	)
	s, rec, err := dialScript(t, script, true)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer s.Close()

	registered := NewPoint("drop", Pose{X: 300, Y: 300, Z: 100})
	unregistered := NewPoint("ghost", Pose{X: 1, Y: 2, Z: 3})
	if err := s.AddPoints(registered); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}

	if err := s.RemovePoints(registered, unregistered); err != nil {
		t.Fatalf("RemovePoints: %v", err)
	}
	if registered.InMemory() {
		t.Error("removed point should be marked unregistered")
	}

	got := rec.Received()
	if !strings.Contains(got, "KILL") {
		t.Error("removal must start with KILL to leave the editor clean")
	}
	if !strings.Contains(got, "DELETE/L drop") {
		t.Error("registered point was never deleted")
	}
	if strings.Contains(got, "ghost") {
		t.Errorf("unregistered point must never reach the wire:\n%s", got)
	}
}

func TestWaitUntilIdle(t *testing.T) {
	busyReport := strings.ReplaceAll(safeReport, "CS OFF", "CS ON")
	script := append(append([]exchange{}, loginScript...), statusExchange(busyReport)...)
	script = append(script, statusExchange(safeReport)...)

	s, _, err := dialScript(t, script, true)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer s.Close()

	if err := s.WaitUntilIdle(nil); err != nil {
		t.Fatalf("WaitUntilIdle: %v", err)
	}
}

func TestWaitUntilIdle_Abort(t *testing.T) {
	busyReport := strings.ReplaceAll(safeReport, "CS OFF", "CS ON")
	script := append(append([]exchange{}, loginScript...), statusExchange(busyReport)...)

	s, _, err := dialScript(t, script, true)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer s.Close()

	abort := make(chan struct{})
	close(abort)
	// The controller stays busy: only the abort channel can end this.
	if err := s.WaitUntilIdle(abort); err != nil {
		t.Fatalf("WaitUntilIdle: %v", err)
	}
}

func TestLoadProgram_FramesTransfer(t *testing.T) {
	source := ".PROGRAM homie ()\nSPEED 30 ALWAYS\nHOME\n.END\n"
	prog, err := NewProgram(source)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}

	script := append(append([]exchange{}, loginScript...),
		exchange{"LOAD homie", ".as\r\n"},
		exchange{".END", string(ctrlETB)},
		exchange{string(ctrlSUB), "E" + string(ctrlETB)},
		exchange{string([]byte{ctrlSTX, 'E'}), ">"},
	)
	s, rec, err := dialScript(t, script, true)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer s.Close()

	if err := s.LoadProgram(prog); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}

	got := rec.Received()
	attach := string([]byte{ctrlSTX, 'A', ' ', ' ', ' ', ' ', '0', ctrlETB})
	if !strings.Contains(got, attach) {
		t.Error("missing attach frame")
	}
	dataFrame := string([]byte{ctrlSTX, 'C', ' ', ' ', ' ', ' ', '0'}) + source + string(ctrlETB)
	if !strings.Contains(got, dataFrame) {
		t.Error("program source not framed as one data chunk")
	}
}

func TestExecProgram_ReportsHeld(t *testing.T) {
	script := append(append([]exchange{}, loginScript...), statusExchange(safeReport)...)
	script = append(script, exchange{"EXE homie", "Program held.\r\n>"})

	s, _, err := dialScript(t, script, false)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer s.Close()

	prog, err := NewProgram(".PROGRAM homie ()\nHOME\n.END\n")
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	res, err := s.ExecProgram(prog)
	if err != nil {
		t.Fatalf("ExecProgram: %v", err)
	}
	if res != MotionHeld {
		t.Errorf("result = %v, want MotionHeld", res)
	}
}

func TestClose_LogsOutOnce(t *testing.T) {
	s, rec, err := dialScript(t, loginScript, true)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}

	s.Close()
	if s.LoggedIn() {
		t.Error("session should be logged out")
	}
	if !strings.Contains(rec.Received(), "signal -2011") {
		t.Error("logout signal never sent")
	}

	before := rec.Received()
	s.Close() // must be a no-op
	if rec.Received() != before {
		t.Error("second Close touched the wire")
	}
}

func TestStatus_DisconnectTearsDown(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})

	// Controller that answers the login and then drops the link on the
	// first status query, mid-report.
	go func() {
		buf := make([]byte, 4096)
		var window []byte
		_, _ = server.Write([]byte("login: "))
		for !bytes.Contains(window, []byte("as")) {
			n, err := server.Read(buf)
			if err != nil {
				return
			}
			window = append(window, buf[:n]...)
		}
		_, _ = server.Write([]byte("as\r\n>"))
		window = nil
		for !bytes.Contains(window, []byte("SWITCH")) {
			n, err := server.Read(buf)
			if err != nil {
				return
			}
			window = append(window, buf[:n]...)
		}
		_, _ = server.Write([]byte("SWITCH\r\n     CS OFF"))
		_ = server.Close()
	}()

	s := NewSession(Config{
		Addr:     "fake",
		Timeout:  2 * time.Second,
		Settle:   time.Nanosecond,
		Logger:   quietLogger(),
		SkipInit: true,
	})
	conn := telnet.NewConn(client)
	conn.Timeout = 2 * time.Second
	if err := s.handshake(conn); err != nil {
		t.Fatalf("handshake: %v", err)
	}

	_, err := s.Status()
	if !errors.Is(err, telnet.ErrConnectionClosed) {
		t.Fatalf("err = %v, want ErrConnectionClosed", err)
	}
	if s.LoggedIn() {
		t.Error("session should be torn down after stream loss")
	}
}
