// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kawachess/pkg/robot"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query and print the controller switch status",
	Long: `Connects, logs in and prints the controller status flags.

This command is read-only: it skips the safe-state initialization, so
it never resets errors, toggles modes or powers the motor.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	session := newSession(cfg, logger, nil, true)
	if err := session.Connect(); err != nil {
		return err
	}
	defer session.Close()

	st, err := session.Status()
	if err != nil {
		return err
	}
	printStatus(st)
	return nil
}

func printStatus(st robot.Status) {
	flags := []struct {
		name string
		on   bool
	}{
		{"ERROR", st.Error},
		{"MOTOR POWERED", st.MotorPowered},
		{"REPEAT MODE", st.RepeatMode},
		{"TEACH MODE", st.TeachMode},
		{"TEACH LOCK", st.TeachLock},
		{"BUSY", st.Busy},
		{"HOLD", st.Hold},
		{"CONTINUOUS PATH", st.ContinuousPath},
		{"REPEAT ONCE", st.RepeatOnce},
		{"STEP ONCE", st.StepOnce},
	}
	for _, f := range flags {
		state := "OFF"
		if f.on {
			state = "ON"
		}
		fmt.Printf("  %-16s %s\n", f.name, state)
	}
}
