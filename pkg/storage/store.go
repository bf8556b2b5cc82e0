// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

// Package storage is the local results database: one row per finished
// game, with a fixed lookup table of result names.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/notnil/chess"

	"kawachess/pkg/game"

	_ "modernc.org/sqlite"
)

// Result ids of the results lookup table.
const (
	ResultNone = iota + 1
	ResultWhiteWon
	ResultBlackWon
	ResultFivefoldRepetition
	ResultStalemate
	ResultFiftyMoves
	ResultInsufficientMaterial
	ResultResigned
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS results(
		id INTEGER,
		name TEXT NOT NULL,
		CONSTRAINT results_pk PRIMARY KEY (id)
	);`,
	`INSERT INTO results(id, name)
		VALUES  (1, 'NO RESULT'),
				(2, 'WHITE WON'),
				(3, 'BLACK WON'),
				(4, 'DRAW BY FIVEFOLD REPETITION'),
				(5, 'DRAW BY STALEMATE'),
				(6, 'DRAW BY FIFTY-MOVE RULE'),
				(7, 'DRAW BY INSUFFICIENT MATERIAL'),
				(8, 'PLAYER RESIGNED')
		ON CONFLICT(id) DO NOTHING;`,
	`CREATE TABLE IF NOT EXISTS chess_games(
		id INTEGER NOT NULL,
		white_player TEXT NOT NULL,
		black_player TEXT NOT NULL,
		date TEXT NOT NULL,
		game_duration TEXT NOT NULL,
		result_id INTEGER NOT NULL,
		stockfish_skill_level INTEGER NOT NULL,
		move_count INTEGER NOT NULL,
		FEN_end_position TEXT NOT NULL,
		PGN_game_sequence TEXT NOT NULL,
		CONSTRAINT chess_games_pk PRIMARY KEY (id),
		CONSTRAINT results_fk FOREIGN KEY (result_id) REFERENCES results(id)
			ON DELETE CASCADE ON UPDATE CASCADE
	);`,
}

// Store wraps the SQLite results database.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path with
// production-safe defaults: WAL journal mode and a 5-second busy
// timeout.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite %s: %w", path, err)
	}
	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: set busy_timeout: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("storage: schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordGame persists one finished game. Implements game.Recorder.
func (s *Store) RecordGame(summary game.Summary) error {
	_, err := s.db.Exec(
		`INSERT INTO chess_games(
			white_player, black_player, date, game_duration, result_id,
			stockfish_skill_level, move_count, FEN_end_position, PGN_game_sequence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.White,
		summary.Black,
		summary.Started.Format("02-01-2006 15:04:05"),
		summary.Duration.String(),
		resultID(summary),
		summary.SkillLevel,
		summary.MoveCount,
		summary.FinalFEN,
		summary.PGN,
	)
	if err != nil {
		return fmt.Errorf("storage: record game: %w", err)
	}
	return nil
}

// GameRow is one persisted game, joined with its result name.
type GameRow struct {
	ID         int64
	White      string
	Black      string
	Date       string
	Duration   string
	Result     string
	SkillLevel int
	MoveCount  int
}

// ListGames returns all recorded games, newest first.
func (s *Store) ListGames() ([]GameRow, error) {
	rows, err := s.db.Query(
		`SELECT g.id, g.white_player, g.black_player, g.date, g.game_duration,
			r.name, g.stockfish_skill_level, g.move_count
		FROM chess_games g
		JOIN results r ON r.id = g.result_id
		ORDER BY g.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage: list games: %w", err)
	}
	defer rows.Close()

	var games []GameRow
	for rows.Next() {
		var g GameRow
		err := rows.Scan(&g.ID, &g.White, &g.Black, &g.Date, &g.Duration,
			&g.Result, &g.SkillLevel, &g.MoveCount)
		if err != nil {
			return nil, fmt.Errorf("storage: scan game row: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// resultID maps a game outcome to the results lookup table.
func resultID(summary game.Summary) int {
	switch summary.Outcome {
	case chess.WhiteWon:
		if summary.Method == chess.Resignation {
			return ResultResigned
		}
		return ResultWhiteWon
	case chess.BlackWon:
		if summary.Method == chess.Resignation {
			return ResultResigned
		}
		return ResultBlackWon
	case chess.Draw:
		switch summary.Method {
		case chess.FivefoldRepetition:
			return ResultFivefoldRepetition
		case chess.Stalemate:
			return ResultStalemate
		case chess.FiftyMoveRule:
			return ResultFiftyMoves
		case chess.InsufficientMaterial:
			return ResultInsufficientMaterial
		}
		return ResultNone
	}
	return ResultNone
}
