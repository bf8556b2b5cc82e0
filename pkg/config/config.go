// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

// Package config loads the application configuration: a TOML file for
// the stable parts (board calibration, engine tuning) and environment
// variables for deployment overrides. A .env file next to the binary
// is honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"kawachess/pkg/game"
	"kawachess/pkg/robot"
)

// Config is the full application configuration.
type Config struct {
	Robot    Robot    `toml:"robot"`
	Engine   Engine   `toml:"engine"`
	Gripper  Gripper  `toml:"gripper"`
	Database Database `toml:"database"`
	Log      Log      `toml:"log"`
	Board    Board    `toml:"board"`
}

type Robot struct {
	Addr      string `toml:"addr"`
	BridgeURL string `toml:"bridge_url"`
	Username  string `toml:"username"`
	TimeoutMs int    `toml:"timeout_ms"`
	SettleMs  int    `toml:"settle_ms"`
}

type Engine struct {
	Path       string `toml:"path"`
	SkillLevel int    `toml:"skill_level"`
	MoveTimeMs int    `toml:"move_time_ms"`
}

type Gripper struct {
	TTY string `toml:"tty"`
}

type Database struct {
	Path string `toml:"path"`
}

type Log struct {
	Level string `toml:"level"`
}

// Board mirrors game.Calibration in TOML-friendly form. Poses are
// six-element arrays: x, y, z, o, a, t.
type Board struct {
	A1       [6]float64 `toml:"a1"`
	FileStep [6]float64 `toml:"file_step"`
	RankStep [6]float64 `toml:"rank_step"`
	Drop     [6]float64 `toml:"drop"`
	Speed    int        `toml:"speed"`
	Height   float64    `toml:"height"`
}

// Default returns the built-in configuration for the lab setup.
func Default() Config {
	return Config{
		Robot: Robot{
			Addr:      "192.168.1.155:23",
			Username:  "as",
			TimeoutMs: 30000,
			SettleMs:  300,
		},
		Engine: Engine{
			Path:       "stockfish",
			SkillLevel: 5,
			MoveTimeMs: 1000,
		},
		Database: Database{Path: "kawachess.db"},
		Log:      Log{Level: "info"},
		Board: Board{
			Speed:  80,
			Height: 80,
		},
	}
}

// Load reads path (when it exists) over the defaults, then applies
// environment overrides. A missing config file is not an error; a
// malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	// .env, then the process environment, override the file.
	_ = godotenv.Load()
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("KAWACHESS_ROBOT_ADDR"); v != "" {
		cfg.Robot.Addr = v
	}
	if v := os.Getenv("KAWACHESS_BRIDGE_URL"); v != "" {
		cfg.Robot.BridgeURL = v
	}
	if v := os.Getenv("KAWACHESS_ENGINE_PATH"); v != "" {
		cfg.Engine.Path = v
	}
	if v := os.Getenv("KAWACHESS_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("KAWACHESS_GRIPPER_TTY"); v != "" {
		cfg.Gripper.TTY = v
	}
	if v := os.Getenv("KAWACHESS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("KAWACHESS_SKILL_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.SkillLevel = n
		}
	}
}

// Calibration converts the board section to the orchestrator's form.
func (c Config) Calibration() game.Calibration {
	return game.Calibration{
		A1:       pose(c.Board.A1),
		FileStep: pose(c.Board.FileStep),
		RankStep: pose(c.Board.RankStep),
		Drop:     pose(c.Board.Drop),
		Speed:    c.Board.Speed,
		Height:   c.Board.Height,
	}
}

func pose(v [6]float64) robot.Pose {
	return robot.Pose{X: v[0], Y: v[1], Z: v[2], O: v[3], A: v[4], T: v[5]}
}
