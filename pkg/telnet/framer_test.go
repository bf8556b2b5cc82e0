// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package telnet

import (
	"bytes"
	"testing"
)

func feedAll(t *testing.T, f *Framer, raw []byte) []byte {
	t.Helper()
	cooked, err := f.Feed(raw)
	if err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	return cooked
}

func TestFramer_PassesPlainData(t *testing.T) {
	var replies bytes.Buffer
	f := NewFramer(&replies)

	cooked := feedAll(t, f, []byte("login: as\r\n>"))
	if string(cooked) != "login: as\r\n>" {
		t.Errorf("cooked = %q", cooked)
	}
	if replies.Len() != 0 {
		t.Errorf("unexpected negotiation replies: %v", replies.Bytes())
	}
}

func TestFramer_AnswersWillEcho(t *testing.T) {
	var replies bytes.Buffer
	f := NewFramer(&replies)

	cooked := feedAll(t, f, []byte{IAC, WILL, OptEcho})
	if len(cooked) != 0 {
		t.Errorf("negotiation leaked into cooked stream: %v", cooked)
	}
	want := []byte{IAC, DO, OptEcho}
	if !bytes.Equal(replies.Bytes(), want) {
		t.Errorf("reply = %v, want %v", replies.Bytes(), want)
	}
}

func TestFramer_AnswersDoTerminalType(t *testing.T) {
	var replies bytes.Buffer
	f := NewFramer(&replies)

	feedAll(t, f, []byte{IAC, DO, OptTTYPE})
	want := []byte{IAC, WILL, OptTTYPE}
	if !bytes.Equal(replies.Bytes(), want) {
		t.Errorf("reply = %v, want %v", replies.Bytes(), want)
	}
}

func TestFramer_AnswersTerminalTypeSubnegotiation(t *testing.T) {
	var replies bytes.Buffer
	f := NewFramer(&replies)

	feedAll(t, f, []byte{IAC, SB, OptTTYPE, SubSEND, IAC, SE})

	want := []byte{IAC, SB, OptTTYPE, SubIS}
	want = append(want, []byte("VT100")...)
	want = append(want, NUL, IAC, SE)
	if !bytes.Equal(replies.Bytes(), want) {
		t.Errorf("reply = %v, want %v", replies.Bytes(), want)
	}
}

func TestFramer_DoubledIACUnescapes(t *testing.T) {
	var replies bytes.Buffer
	f := NewFramer(&replies)

	cooked := feedAll(t, f, []byte{'a', IAC, IAC, 'b'})
	if !bytes.Equal(cooked, []byte{'a', IAC, 'b'}) {
		t.Errorf("cooked = %v", cooked)
	}
}

func TestFramer_PartialSequenceAcrossFeeds(t *testing.T) {
	var replies bytes.Buffer
	f := NewFramer(&replies)

	// IAC WILL ECHO split at every possible boundary.
	cooked := feedAll(t, f, []byte{'x', IAC})
	cooked = append(cooked, feedAll(t, f, []byte{WILL})...)
	cooked = append(cooked, feedAll(t, f, []byte{OptEcho, 'y'})...)

	if string(cooked) != "xy" {
		t.Errorf("cooked = %q", cooked)
	}
	want := []byte{IAC, DO, OptEcho}
	if !bytes.Equal(replies.Bytes(), want) {
		t.Errorf("reply = %v, want %v", replies.Bytes(), want)
	}
}

func TestFramer_DropsPacingNoise(t *testing.T) {
	var replies bytes.Buffer
	f := NewFramer(&replies)

	cooked := feedAll(t, f, []byte{'a', NUL, 'b', DC1, 'c'})
	if string(cooked) != "abc" {
		t.Errorf("cooked = %q", cooked)
	}
}

func TestFramer_IgnoresUnknownNegotiation(t *testing.T) {
	var replies bytes.Buffer
	f := NewFramer(&replies)

	cooked := feedAll(t, f, []byte{'a', IAC, NOP, 'b', IAC, WONT, 32, 'c', IAC, GA, 'd'})
	if string(cooked) != "abcd" {
		t.Errorf("cooked = %q", cooked)
	}
	if replies.Len() != 0 {
		t.Errorf("unexpected replies: %v", replies.Bytes())
	}
}

func TestFramer_SubnegotiationSeparateFromCooked(t *testing.T) {
	var replies bytes.Buffer
	f := NewFramer(&replies)

	raw := []byte{'a'}
	raw = append(raw, IAC, SB, OptTTYPE, SubSEND, IAC, SE)
	raw = append(raw, 'b')
	cooked := feedAll(t, f, raw)

	if string(cooked) != "ab" {
		t.Errorf("cooked = %q", cooked)
	}
	if !bytes.Equal(f.Subnegotiation(), []byte{OptTTYPE, SubSEND}) {
		t.Errorf("subnegotiation = %v", f.Subnegotiation())
	}
}
