// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package robot

import (
	"fmt"
	"regexp"
	"strings"
)

// Status is a point-in-time snapshot of the controller switch flags.
// Records are never mutated, always replaced by a fresh SWITCH query.
type Status struct {
	Busy           bool
	Error          bool
	MotorPowered   bool
	RepeatMode     bool
	TeachMode      bool
	TeachLock      bool
	Hold           bool
	ContinuousPath bool
	RepeatOnce     bool
	StepOnce       bool
}

// switchFields is the exact field set and order the controller firmware
// emits in a SWITCH report. The pairing of names to ON/OFF tokens is
// positional, so this list is fleet configuration: validate it against
// the real controller before changing it.
var switchFields = []string{
	"CS",
	"ERROR",
	"POWER",
	"REPEAT",
	"TEACH_LOCK",
	"RUN",
	"CP",
	"REP_ONCE",
	"STP_ONCE",
}

var (
	switchTokenRe = regexp.MustCompile(` ON| OFF`)
	switchJunkRe  = regexp.MustCompile(`[ \n*\r]`)
)

// parseSwitchReport turns the free-text SWITCH report into a Status.
// Each field appears as NAME followed by literal " ON" or " OFF"; names
// and values are zipped in emission order. Any expected field missing
// from the report is a firmware mismatch and fails hard.
func parseSwitchReport(report string) (Status, error) {
	// Skip the echoed command line.
	if _, rest, ok := strings.Cut(report, "SWITCH\r"); ok {
		report = rest
	}

	tokens := switchTokenRe.FindAllString(report, -1)
	names := switchTokenRe.Split(report, -1)
	flags := make(map[string]bool, len(tokens))
	for i, tok := range tokens {
		name := switchJunkRe.ReplaceAllString(names[i], "")
		flags[name] = tok == " ON"
	}

	for _, want := range switchFields {
		if _, ok := flags[want]; !ok {
			return Status{}, fmt.Errorf("%w: SWITCH report missing field %q", ErrProtocolFormat, want)
		}
	}

	return Status{
		Busy:           flags["CS"],
		Error:          flags["ERROR"],
		MotorPowered:   flags["POWER"],
		RepeatMode:     flags["REPEAT"],
		TeachMode:      !flags["REPEAT"],
		TeachLock:      flags["TEACH_LOCK"],
		Hold:           !flags["RUN"],
		ContinuousPath: flags["CP"],
		RepeatOnce:     flags["REP_ONCE"],
		StepOnce:       flags["STP_ONCE"],
	}, nil
}
