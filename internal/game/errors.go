package game

import "errors"

var (
	// ErrInvalidPosition is returned when a row or column falls outside the board.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrIllegalMove is returned when the target cell is already occupied.
	ErrIllegalMove = errors.New("cell already occupied")

	ErrGameOver     = errors.New("game already finished")
	ErrNotYourTurn  = errors.New("not player's turn")
	ErrGameNotFound = errors.New("game not found")
)
