package game

import (
	"fmt"
	"math/rand/v2"
)

// Redis hash fields of a persisted game.
const (
	FieldBoard      = "board"
	FieldPlayerX    = "player_x"
	FieldPlayerO    = "player_o"
	FieldNextTurn   = "next_turn"
	FieldWinner     = "winner"
	FieldStatus     = "status"
	FieldMode       = "mode"
	FieldDifficulty = "difficulty"
	FieldMoveCount  = "move_count"
)

// GameStateDTO is the persisted view of a game shared between servers.
type GameStateDTO struct {
	Board       Board
	CurrentTurn PlayerMark
	Winner      PlayerMark
	IsDraw      bool
	PlayerXID   string
	PlayerOID   string
	Mode        GameMode
	Difficulty  string
	MoveCount   int
}

// IsOver reports whether the game has a winner or ended in a draw.
func (s *GameStateDTO) IsOver() bool {
	return s.Winner != None || s.IsDraw
}

// MarkOf returns the mark assigned to playerID, or None if the player is not in the game.
func (s *GameStateDTO) MarkOf(playerID string) PlayerMark {
	switch playerID {
	case s.PlayerXID:
		return PlayerX
	case s.PlayerOID:
		return PlayerO
	default:
		return None
	}
}

// Slice converts the board to a slice of rows for JSON messages.
func (b Board) Slice() [][]PlayerMark {
	board := make([][]PlayerMark, Size)
	for i := range Size {
		board[i] = make([]PlayerMark, Size)
		copy(board[i], b[i][:])
	}
	return board
}

// BoardArrayToSlice converts the game board to a dynamic slice of slices.
func BoardArrayToSlice(b Board) [][]PlayerMark {
	return b.Slice()
}

// BoardFromSlice builds a Board from rows received over the wire.
func BoardFromSlice(rows [][]PlayerMark) (Board, error) {
	var b Board
	if len(rows) != Size {
		return b, fmt.Errorf("board must have %d rows, got %d", Size, len(rows))
	}
	for r, row := range rows {
		if len(row) != Size {
			return b, fmt.Errorf("board row %d must have %d cells, got %d", r, Size, len(row))
		}
		for c, mark := range row {
			if !mark.Valid() {
				return b, fmt.Errorf("board cell (%d, %d) has unknown mark %q", r, c, mark)
			}
			b[r][c] = mark
		}
	}
	return b, nil
}

// RandomlyChooseFirstPlayer picks X or O with equal probability.
func RandomlyChooseFirstPlayer() PlayerMark {
	if rand.IntN(2) == 0 {
		return PlayerX
	}
	return PlayerO
}
