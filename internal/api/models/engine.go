package models

import "ctchen222/tictactoe/internal/game"

// MoveRequest asks the engine for a move on an arbitrary board.
type MoveRequest struct {
	Board      [][]game.PlayerMark `json:"board" binding:"required"`
	Mark       game.PlayerMark     `json:"mark" binding:"required,oneof=X O"`
	Difficulty string              `json:"difficulty" binding:"omitempty,oneof=easy low medium hard high"`
}

// MoveResponse carries the chosen position, or null when the board is full.
type MoveResponse struct {
	Position *game.Position `json:"position"`
}

// AnalyzeRequest asks for a tactical summary of a board from mark's point of view.
type AnalyzeRequest struct {
	Board [][]game.PlayerMark `json:"board" binding:"required"`
	Mark  game.PlayerMark     `json:"mark" binding:"required,oneof=X O"`
}

// AnalyzeResponse describes a board position.
type AnalyzeResponse struct {
	Winner          game.PlayerMark `json:"winner,omitempty"`
	IsDraw          bool            `json:"is_draw"`
	IsOver          bool            `json:"is_over"`
	LegalMoves      []game.Position `json:"legal_moves"`
	WinningLine     []game.Position `json:"winning_line,omitempty"`
	WinningMove     *game.Position  `json:"winning_move"`
	BlockingMove    *game.Position  `json:"blocking_move"`
	BestMove        *game.Position  `json:"best_move"`
	PositionalScore int             `json:"positional_score"`
}
