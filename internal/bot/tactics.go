package bot

import "ctchen222/tictactoe/internal/game"

var (
	corners = [4]game.Position{{Row: 0, Col: 0}, {Row: 0, Col: 2}, {Row: 2, Col: 0}, {Row: 2, Col: 2}}
	sides   = [4]game.Position{{Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 2}, {Row: 2, Col: 1}}
)

// WinningMove returns the first legal move (row-major) that wins immediately for mark.
func WinningMove(board game.Board, mark game.PlayerMark) (game.Position, bool) {
	for _, pos := range game.LegalMoves(board) {
		child, _ := game.Apply(board, pos, mark)
		if winner, ok := game.Winner(child); ok && winner == mark {
			return pos, true
		}
	}
	return game.Position{}, false
}

// BlockingMove returns a cell the opponent of mark would win on next turn.
func BlockingMove(board game.Board, mark game.PlayerMark) (game.Position, bool) {
	return WinningMove(board, game.Opponent(mark))
}

// PositionalScore weighs the cells held by mark: center 3, corners 2, sides 1.
func PositionalScore(board game.Board, mark game.PlayerMark) int {
	score := 0
	if board.Cell(game.Center) == mark {
		score += 3
	}
	for _, p := range corners {
		if board.Cell(p) == mark {
			score += 2
		}
	}
	for _, p := range sides {
		if board.Cell(p) == mark {
			score++
		}
	}
	return score
}
