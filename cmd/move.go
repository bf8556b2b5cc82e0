// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kawachess/pkg/robot"
)

var moveMode string

var moveCmd = &cobra.Command{
	Use:   "move <square>",
	Short: "Move the arm over a board square",
	Long: `Issues a single motion command to the point above the given square
("e4"). Useful for checking the board calibration square by square.`,
	Args: cobra.ExactArgs(1),
	RunE: runMove,
}

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Send the arm to its home position",
	RunE:  runHome,
}

func init() {
	moveCmd.Flags().StringVar(&moveMode, "mode", "hybrid", "Motion mode: linear, joint or hybrid")
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(homeCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	var motion robot.Command
	switch strings.ToLower(moveMode) {
	case "linear":
		motion = robot.LinearMove
	case "joint":
		motion = robot.JointMove
	case "hybrid":
		motion = robot.HybridMove
	default:
		return fmt.Errorf("unknown motion mode %q", moveMode)
	}

	point, err := cfg.Calibration().SquarePoint(strings.ToLower(args[0]))
	if err != nil {
		return err
	}

	session := newSession(cfg, logger, nil, false)
	if err := session.Connect(); err != nil {
		return err
	}
	defer session.Close()

	res, err := session.Do(motion, point)
	if err != nil {
		return err
	}
	fmt.Printf("Motion %s.\n", res)
	return nil
}

func runHome(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	session := newSession(cfg, logger, nil, false)
	if err := session.Connect(); err != nil {
		return err
	}
	defer session.Close()

	res, err := session.Do(robot.Home, nil)
	if err != nil {
		return err
	}
	fmt.Printf("Motion %s.\n", res)
	return nil
}
