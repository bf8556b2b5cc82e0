// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

// Package engine adapts a UCI chess engine (Stockfish by default) to
// the game.MoveSource interface.
package engine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
)

// Engine is a handle to a running UCI engine process.
type Engine struct {
	eng      *uci.Engine
	moveTime time.Duration
}

// New starts the engine binary at path and configures its skill level
// (0-20 for Stockfish).
func New(path string, skillLevel int, moveTime time.Duration) (*Engine, error) {
	eng, err := uci.New(path)
	if err != nil {
		return nil, fmt.Errorf("engine: starting %s: %w", path, err)
	}
	err = eng.Run(
		uci.CmdUCI,
		uci.CmdSetOption{Name: "Skill Level", Value: strconv.Itoa(skillLevel)},
		uci.CmdIsReady,
		uci.CmdUCINewGame,
	)
	if err != nil {
		eng.Close()
		return nil, fmt.Errorf("engine: handshake: %w", err)
	}
	if moveTime <= 0 {
		moveTime = time.Second
	}
	return &Engine{eng: eng, moveTime: moveTime}, nil
}

// NextMove returns the engine's move for the position in UCI notation,
// or an empty string when the engine has no move (game over).
func (e *Engine) NextMove(fen string) (string, error) {
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return "", fmt.Errorf("engine: position %q: %w", fen, err)
	}
	pos := chess.NewGame(fenOpt).Position()

	err = e.eng.Run(
		uci.CmdPosition{Position: pos},
		uci.CmdGo{MoveTime: e.moveTime},
	)
	if err != nil {
		return "", fmt.Errorf("engine: search: %w", err)
	}
	best := e.eng.SearchResults().BestMove
	if best == nil {
		return "", nil
	}
	return chess.UCINotation{}.Encode(pos, best), nil
}

// Close stops the engine process.
func (e *Engine) Close() {
	e.eng.Close()
}
