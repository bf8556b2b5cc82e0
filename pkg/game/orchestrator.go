// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"

	"kawachess/pkg/robot"
)

// ErrMoveInterrupted means a motion program was aborted on the
// controller mid-move. The session and the game stay alive, but the
// physical board may need manual fixing before the move is retried.
var ErrMoveInterrupted = errors.New("game: move interrupted")

// MoveSource produces the next engine move for a position. An empty
// move string means no move is available (game over, or the engine
// resigned); the caller must not advance.
type MoveSource interface {
	NextMove(fen string) (string, error)
}

// Arm is the slice of the robot session the orchestrator drives.
// Satisfied by *robot.Session.
type Arm interface {
	AddPoints(points ...*robot.Point) error
	RemovePoints(points ...*robot.Point) error
	LoadProgram(prog *robot.Program) error
	ExecProgram(prog *robot.Program) (robot.MotionResult, error)
	WaitUntilIdle(abort <-chan struct{}) error
}

// Gripper is the piece gripper. Fire-and-forget; not part of the
// telnet protocol.
type Gripper interface {
	Open() error
	Close() error
}

// Summary describes a finished game for persistence.
type Summary struct {
	White      string
	Black      string
	Started    time.Time
	Duration   time.Duration
	SkillLevel int
	MoveCount  int
	Outcome    chess.Outcome
	Method     chess.Method
	FinalFEN   string
	PGN        string
}

// Recorder persists finished games.
type Recorder interface {
	RecordGame(Summary) error
}

// Config wires an Orchestrator.
type Config struct {
	Session     Arm
	Moves       MoveSource
	Gripper     Gripper
	Recorder    Recorder
	Notify      robot.Notify
	Calibration Calibration
	Logger      *logrus.Logger

	White      string
	Black      string
	SkillLevel int
}

// Orchestrator drives one game: engine moves become motion sequences,
// human moves are validated and applied to the board only. It is as
// single-writer as the session underneath it.
type Orchestrator struct {
	cfg     Config
	log     *logrus.Entry
	notify  robot.Notify
	game    *chess.Game
	drop    *robot.Point
	started time.Time

	// points registered with the controller during this game, removed
	// again on Finish so the point table does not grow across games.
	points []*robot.Point
}

// New creates an orchestrator for a fresh game.
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	notify := cfg.Notify
	if notify == nil {
		notify = func(string) {}
	}
	return &Orchestrator{
		cfg:    cfg,
		log:    cfg.Logger.WithField("component", "game"),
		notify: notify,
		game:   chess.NewGame(),
		drop:   cfg.Calibration.DropPoint(),
	}
}

// register pushes points to the controller and remembers them for the
// end-of-game cleanup.
func (o *Orchestrator) register(points ...*robot.Point) error {
	if err := o.cfg.Session.AddPoints(points...); err != nil {
		return err
	}
	o.points = append(o.points, points...)
	return nil
}

// Start registers the drop point and homes the arm.
func (o *Orchestrator) Start() error {
	o.started = time.Now()
	if err := o.register(o.drop); err != nil {
		return err
	}
	b := newBuilder(o.cfg.Calibration.Speed, o.cfg.Calibration.Height)
	b.home(o.drop)
	steps, err := b.build()
	if err != nil {
		return err
	}
	return o.execute(steps)
}

// FEN returns the current position.
func (o *Orchestrator) FEN() string {
	return o.game.FEN()
}

// Outcome reports the game result so far.
func (o *Orchestrator) Outcome() chess.Outcome {
	return o.game.Outcome()
}

// PlayEngineMove asks the move source for the next move and performs
// it on the physical board. Returns false when the source has no move.
func (o *Orchestrator) PlayEngineMove() (bool, error) {
	uciMove, err := o.cfg.Moves.NextMove(o.game.FEN())
	if err != nil {
		return false, err
	}
	if uciMove == "" {
		return false, nil
	}
	move, err := chess.UCINotation{}.Decode(o.game.Position(), uciMove)
	if err != nil {
		return false, fmt.Errorf("game: engine move %q: %w", uciMove, err)
	}

	steps, err := o.stepsFor(move)
	if err != nil {
		return false, err
	}
	if err := o.execute(steps); err != nil {
		return false, err
	}
	if move.Promo() != chess.NoPieceType {
		o.notify("Promotion: swap in the promoted piece by hand!")
	}
	if err := o.game.Move(move); err != nil {
		return false, fmt.Errorf("game: applying engine move %q: %w", uciMove, err)
	}
	o.log.WithField("move", uciMove).Info("engine move played")
	return true, nil
}

// SubmitHumanMove validates and applies a human move to the board
// state. The human moves their own pieces, so no motion is issued.
func (o *Orchestrator) SubmitHumanMove(uciMove string) error {
	move, err := chess.UCINotation{}.Decode(o.game.Position(), uciMove)
	if err != nil {
		return fmt.Errorf("game: move %q: %w", uciMove, err)
	}
	if err := o.game.Move(move); err != nil {
		return fmt.Errorf("game: illegal move %q: %w", uciMove, err)
	}
	return nil
}

// Resign ends the game in favor of the opponent of color.
func (o *Orchestrator) Resign(color chess.Color) {
	o.game.Resign(color)
}

// Finish clears the controller point table and persists the game
// summary. Call once, after the game reached an outcome or was
// resigned.
func (o *Orchestrator) Finish() error {
	if len(o.points) > 0 {
		if err := o.cfg.Session.RemovePoints(o.points...); err != nil {
			// Best effort; the table is per-connection anyway.
			o.log.WithError(err).Warn("point table cleanup failed")
		}
		o.points = nil
	}
	if o.cfg.Recorder == nil {
		return nil
	}
	summary := Summary{
		White:      o.cfg.White,
		Black:      o.cfg.Black,
		Started:    o.started,
		Duration:   time.Since(o.started).Truncate(time.Second),
		SkillLevel: o.cfg.SkillLevel,
		MoveCount:  len(o.game.Moves()),
		Outcome:    o.game.Outcome(),
		Method:     o.game.Method(),
		FinalFEN:   o.game.FEN(),
		PGN:        o.game.String(),
	}
	return o.cfg.Recorder.RecordGame(summary)
}

// stepsFor selects the motion template for a move: castling, en
// passant, capture or plain, in that order of specificity.
func (o *Orchestrator) stepsFor(move *chess.Move) ([]Step, error) {
	cal := o.cfg.Calibration
	from, err := cal.SquarePoint(move.S1().String())
	if err != nil {
		return nil, err
	}
	to, err := cal.SquarePoint(move.S2().String())
	if err != nil {
		return nil, err
	}

	switch {
	case move.HasTag(chess.KingSideCastle), move.HasTag(chess.QueenSideCastle):
		kingFrom, kingTo, rookFrom, rookTo, err := o.castlingSquares(move)
		if err != nil {
			return nil, err
		}
		if err := o.register(kingFrom, kingTo, rookFrom, rookTo); err != nil {
			return nil, err
		}
		return castlingMove(kingFrom, kingTo, rookFrom, rookTo, o.drop, cal.Speed, cal.Height)

	case move.HasTag(chess.EnPassant):
		// The captured pawn sits on the destination file at the origin
		// rank.
		capturedSquare := string(move.S2().String()[0]) + string(move.S1().String()[1])
		captured, err := cal.SquarePoint(capturedSquare)
		if err != nil {
			return nil, err
		}
		if err := o.register(from, to, captured); err != nil {
			return nil, err
		}
		return enPassantMove(from, to, captured, o.drop, cal.Speed, cal.Height)

	case move.HasTag(chess.Capture):
		if err := o.register(from, to); err != nil {
			return nil, err
		}
		return captureMove(from, to, o.drop, cal.Speed, cal.Height)

	default:
		if err := o.register(from, to); err != nil {
			return nil, err
		}
		return plainMove(from, to, o.drop, cal.Speed, cal.Height)
	}
}

func (o *Orchestrator) castlingSquares(move *chess.Move) (kingFrom, kingTo, rookFrom, rookTo *robot.Point, err error) {
	rank := "1"
	if o.game.Position().Turn() == chess.Black {
		rank = "8"
	}
	kingside := move.HasTag(chess.KingSideCastle)

	squares := [4]string{"e" + rank, "g" + rank, "h" + rank, "f" + rank}
	if !kingside {
		squares = [4]string{"e" + rank, "c" + rank, "a" + rank, "d" + rank}
	}
	points := make([]*robot.Point, 4)
	for i, sq := range squares {
		points[i], err = o.cfg.Calibration.SquarePoint(sq)
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return points[0], points[1], points[2], points[3], nil
}

// execute runs a move sequence: gripper steps directly, program steps
// as upload-then-execute. A held program resumes when the operator
// releases HOLD, so the sequence waits for the controller to go idle
// and carries on. An aborted program stops the move with
// ErrMoveInterrupted; the session and game stay alive.
func (o *Orchestrator) execute(steps []Step) error {
	for _, step := range steps {
		if step.Grip != GripNone {
			if o.cfg.Gripper == nil {
				continue
			}
			var err error
			if step.Grip == GripOpen {
				err = o.cfg.Gripper.Open()
			} else {
				err = o.cfg.Gripper.Close()
			}
			if err != nil {
				return err
			}
			continue
		}

		if err := o.cfg.Session.LoadProgram(step.Program); err != nil {
			return err
		}
		res, err := o.cfg.Session.ExecProgram(step.Program)
		if err != nil {
			return err
		}
		switch res {
		case robot.MotionCompleted:
		case robot.MotionHeld:
			o.notify("Release HOLD to let the move finish.")
			if err := o.cfg.Session.WaitUntilIdle(nil); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: program %s aborted", ErrMoveInterrupted, step.Program.Name)
		}
	}
	return nil
}
