package game

import (
	"fmt"
	"time"
)

type GameResult string

// GameMode tells whether the second player is the computer.
type GameMode string

const (
	// Game results
	InProgress GameResult = "in_progress"
	Won        GameResult = "won"
	Draw       GameResult = "draw"

	// Game modes
	SinglePlayer GameMode = "single_player"
	TwoPlayer    GameMode = "two_player"
)

// Valid reports whether m is a known mode.
func (m GameMode) Valid() bool {
	return m == SinglePlayer || m == TwoPlayer
}

// Move is a single placed mark in the game history.
type Move struct {
	Position Position   `json:"position"`
	Mark     PlayerMark `json:"mark"`
	PlayedAt time.Time  `json:"played_at"`
}

type Game struct {
	Board       Board
	CurrentTurn PlayerMark
	Winner      PlayerMark
	Mode        GameMode
	Difficulty  string
	History     []Move

	first PlayerMark
	moves int
}

// NewGame starts an empty game where first moves first.
func NewGame(mode GameMode, difficulty string, first PlayerMark) *Game {
	if first != PlayerO {
		first = PlayerX
	}
	return &Game{
		CurrentTurn: first,
		Winner:      None,
		Mode:        mode,
		Difficulty:  difficulty,
		first:       first,
	}
}

// Move places the current player's mark at (row, col) and passes the turn.
func (g *Game) Move(row, col int) error {
	if g.IsOver() {
		return ErrGameOver
	}
	pos, err := NewPosition(row, col)
	if err != nil {
		return err
	}

	board, err := Apply(g.Board, pos, g.CurrentTurn)
	if err != nil {
		return err
	}
	g.Board = board
	g.History = append(g.History, Move{Position: pos, Mark: g.CurrentTurn, PlayedAt: time.Now()})
	g.moves++

	if winner, ok := Winner(g.Board); ok {
		g.Winner = winner
		return nil
	}
	if IsFull(g.Board) {
		return nil
	}
	g.CurrentTurn = Opponent(g.CurrentTurn)
	return nil
}

// MoveAs is Move with a turn check for the given mark.
func (g *Game) MoveAs(mark PlayerMark, row, col int) error {
	if g.IsOver() {
		return ErrGameOver
	}
	if mark != g.CurrentTurn {
		return fmt.Errorf("%w: %s to move", ErrNotYourTurn, g.CurrentTurn)
	}
	return g.Move(row, col)
}

// Status returns the current game result.
func (g *Game) Status() GameResult {
	switch {
	case g.Winner != None:
		return Won
	case IsFull(g.Board):
		return Draw
	default:
		return InProgress
	}
}

// IsDraw checks if the game is a draw.
func (g *Game) IsDraw() bool {
	return g.Status() == Draw
}

func (g *Game) IsOver() bool {
	return g.Status() != InProgress
}

func (g *Game) MoveCount() int {
	return g.moves
}

// WinningLine returns the line that decided the game, if any.
func (g *Game) WinningLine() (Line, bool) {
	return WinningLine(g.Board)
}

// Reset clears the board and history, keeping mode and difficulty.
func (g *Game) Reset() {
	g.Board = Board{}
	g.CurrentTurn = g.first
	g.Winner = None
	g.History = nil
	g.moves = 0
}

// Restore rebuilds a game from its persisted state. History is not persisted,
// only the move count.
func Restore(s *GameStateDTO) *Game {
	return &Game{
		Board:       s.Board,
		CurrentTurn: s.CurrentTurn,
		Winner:      s.Winner,
		Mode:        s.Mode,
		Difficulty:  s.Difficulty,
		first:       s.CurrentTurn,
		moves:       s.MoveCount,
	}
}

// State converts the game to its persisted form. Player IDs are left to the caller.
func (g *Game) State() *GameStateDTO {
	return &GameStateDTO{
		Board:       g.Board,
		CurrentTurn: g.CurrentTurn,
		Winner:      g.Winner,
		IsDraw:      g.IsDraw(),
		Mode:        g.Mode,
		Difficulty:  g.Difficulty,
		MoveCount:   g.moves,
	}
}
