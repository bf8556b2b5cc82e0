// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package telnet

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// bridgeConn adapts a websocket telnet bridge (one binary message per
// chunk) to the byte-stream interface Conn expects.
type bridgeConn struct {
	conn   *websocket.Conn
	buf    []byte
	offset int
	closed bool
}

func (b *bridgeConn) Read(p []byte) (int, error) {
	if b.closed {
		return 0, ErrConnectionClosed
	}
	if b.offset < len(b.buf) {
		n := copy(p, b.buf[b.offset:])
		b.offset += n
		return n, nil
	}
	for {
		messageType, data, err := b.conn.ReadMessage()
		if err != nil {
			b.closed = true
			return 0, err
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		b.buf = data
		b.offset = copy(p, data)
		return b.offset, nil
	}
}

func (b *bridgeConn) Write(p []byte) (int, error) {
	if err := b.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (b *bridgeConn) SetReadDeadline(t time.Time) error {
	return b.conn.SetReadDeadline(t)
}

func (b *bridgeConn) Close() error {
	return b.conn.Close()
}

// DialBridge connects to a ws:// telnet bridge in front of the
// controller, for setups where the robot network is not directly
// routable from the operator machine. The timeout bounds the websocket
// handshake and every later read; zero blocks forever, same as Dial.
func DialBridge(rawURL string, timeout time.Duration) (*Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("telnet: invalid bridge URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("telnet: unsupported bridge scheme %q (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ws, resp, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("telnet: bridge connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("telnet: bridge connection failed: %w", err)
	}

	conn := NewConn(&bridgeConn{conn: ws})
	conn.Timeout = timeout
	return conn, nil
}
