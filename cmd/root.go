// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

// Package cmd wires the kawachess CLI: session plumbing shared by all
// commands and the command set itself.
package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kawachess/pkg/config"
	"kawachess/pkg/robot"
)

var (
	configPath string
	robotAddr  string
	bridgeURL  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "kawachess",
	Short: "Chess against a Kawasaki robot arm",
	Long: `Kawachess drives a Kawasaki industrial robot arm through games of
chess: it talks to the AS controller over its telnet monitor port,
uploads and executes motion programs per move, asks a UCI engine for
the robot's moves and records finished games in a local database.

Connection modes:
  Direct:  --addr 192.168.1.155:23
  Bridge:  --bridge ws://host/robot (telnet-over-websocket relay)

Board calibration, engine tuning and device paths live in the TOML
config file (--config); KAWACHESS_* environment variables override it.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "kawachess.toml", "Config file path")
	rootCmd.PersistentFlags().StringVarP(&robotAddr, "addr", "a", "", "Robot controller host:port")
	rootCmd.PersistentFlags().StringVar(&bridgeURL, "bridge", "", "Telnet-over-websocket bridge URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace..error, off)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if robotAddr != "" {
		cfg.Robot.Addr = robotAddr
	}
	if bridgeURL != "" {
		cfg.Robot.BridgeURL = bridgeURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// newLogger builds the shared logger the way the adapter stack expects
// it: colored text with full timestamps, level from config, "off"
// silencing output entirely.
func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.Log.Level == "off" || cfg.Log.Level == "none" {
		logger.SetLevel(logrus.PanicLevel)
		return logger
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

// newSession builds an unconnected session from config.
func newSession(cfg config.Config, logger *logrus.Logger, notify robot.Notify, skipInit bool) *robot.Session {
	if notify == nil {
		notify = func(msg string) { fmt.Println(msg) }
	}
	return robot.NewSession(robot.Config{
		Addr:      cfg.Robot.Addr,
		BridgeURL: cfg.Robot.BridgeURL,
		Username:  cfg.Robot.Username,
		Timeout:   time.Duration(cfg.Robot.TimeoutMs) * time.Millisecond,
		Settle:    time.Duration(cfg.Robot.SettleMs) * time.Millisecond,
		Logger:    logger,
		Notify:    notify,
		SkipInit:  skipInit,
	})
}
