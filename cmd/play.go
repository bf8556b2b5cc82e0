// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"
	"github.com/spf13/cobra"

	"kawachess/pkg/engine"
	"kawachess/pkg/game"
	"kawachess/pkg/gripper"
	"kawachess/pkg/storage"
)

var (
	playerName string
	playWhite  bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game against the robot",
	Long: `Plays one game: the robot moves the engine's pieces on the physical
board, you move your own and enter each move in UCI notation (e2e4).
Type "resign" to resign. The finished game is recorded in the results
database.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playerName, "name", "Player", "Your name for the game record")
	playCmd.Flags().BoolVar(&playWhite, "white", true, "Play the white pieces")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	gameID := uuid.NewString()
	log := logger.WithField("game_id", gameID)
	notify := func(msg string) { fmt.Println(msg) }

	session := newSession(cfg, logger, notify, false)
	if err := session.Connect(); err != nil {
		return err
	}
	defer session.Close()

	eng, err := engine.New(cfg.Engine.Path, cfg.Engine.SkillLevel,
		time.Duration(cfg.Engine.MoveTimeMs)*time.Millisecond)
	if err != nil {
		return err
	}
	defer eng.Close()

	var grip game.Gripper
	if cfg.Gripper.TTY != "" {
		g, err := gripper.Dial(cfg.Gripper.TTY)
		if err != nil {
			return err
		}
		defer g.Shutdown()
		grip = g
	} else {
		notify("No gripper configured; running without one.")
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	white, black := playerName, "Stockfish"
	if !playWhite {
		white, black = black, white
	}

	orch := game.New(game.Config{
		Session:     session,
		Moves:       eng,
		Gripper:     grip,
		Recorder:    store,
		Notify:      notify,
		Calibration: cfg.Calibration(),
		Logger:      logger,
		White:       white,
		Black:       black,
		SkillLevel:  cfg.Engine.SkillLevel,
	})
	if err := orch.Start(); err != nil {
		return err
	}
	log.Info("game started")

	if err := gameLoop(orch, playWhite, notify); err != nil {
		return err
	}

	notify("Game over: " + orch.Outcome().String())
	if err := orch.Finish(); err != nil {
		return err
	}
	log.WithField("outcome", orch.Outcome().String()).Info("game recorded")
	return nil
}

// gameLoop alternates human input and robot moves until the game
// reaches an outcome.
func gameLoop(orch *game.Orchestrator, humanIsWhite bool, notify func(string)) error {
	reader := bufio.NewReader(os.Stdin)
	humansTurn := humanIsWhite
	humanColor := chess.White
	if !humanIsWhite {
		humanColor = chess.Black
	}

	for orch.Outcome() == chess.NoOutcome {
		if humansTurn {
			fmt.Print("Your move (UCI): ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return err
			}
			move := strings.TrimSpace(line)
			if move == "resign" {
				orch.Resign(humanColor)
				break
			}
			if err := orch.SubmitHumanMove(move); err != nil {
				notify(err.Error())
				continue
			}
		} else {
			played, err := orch.PlayEngineMove()
			if err != nil {
				if errors.Is(err, game.ErrMoveInterrupted) {
					notify("The robot's move was aborted. Restore the pieces, then press Enter to retry.")
					if _, rerr := reader.ReadString('\n'); rerr != nil {
						return rerr
					}
					continue
				}
				return err
			}
			if !played {
				break
			}
		}
		humansTurn = !humansTurn
	}
	return nil
}
