package bot

import (
	"math"
	"math/rand/v2"

	"ctchen222/tictactoe/internal/game"
)

const winScore = 10

// Randomizer is the source of randomness for the Low tier and Medium's coin flip.
// *rand.Rand from math/rand/v2 satisfies it.
type Randomizer interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Engine picks moves for the computer player. It keeps no state between calls;
// it is safe for concurrent use as long as its Randomizer is.
type Engine struct {
	rng Randomizer
}

// NewEngine returns an engine drawing randomness from r. A nil r uses the
// global math/rand/v2 source, which is safe for concurrent use.
func NewEngine(r Randomizer) *Engine {
	if r == nil {
		r = globalRand{}
	}
	return &Engine{rng: r}
}

// SelectMove returns the move for mark on board at the given difficulty.
// ok is false only when the board has no empty cell.
func (e *Engine) SelectMove(board game.Board, mark game.PlayerMark, difficulty Difficulty) (pos game.Position, ok bool) {
	switch difficulty {
	case Low:
		return e.randomMove(board)
	case Medium:
		if e.rng.IntN(2) == 0 {
			return e.randomMove(board)
		}
		return BestMove(board, mark, Medium.Depth())
	default:
		return BestMove(board, mark, High.Depth())
	}
}

func (e *Engine) randomMove(board game.Board) (game.Position, bool) {
	moves := game.LegalMoves(board)
	if len(moves) == 0 {
		return game.Position{}, false
	}
	return moves[e.rng.IntN(len(moves))], true
}

// BestMove runs a minimax search with alpha-beta pruning for mark. The root
// move spends one ply of depth, so each legal move is scored by searching the
// opponent's replies with depth-1; the first move with the strictly highest
// score wins.
func BestMove(board game.Board, mark game.PlayerMark, depth int) (game.Position, bool) {
	moves := game.LegalMoves(board)
	if len(moves) == 0 {
		return game.Position{}, false
	}
	// Every opening scores as a draw, so row-major order would pick a corner.
	if board.IsEmpty() {
		return game.Center, true
	}

	best, bestScore := moves[0], math.MinInt
	for _, pos := range moves {
		child, _ := game.Apply(board, pos, mark)
		score := minimax(child, depth-1, false, mark, math.MinInt, math.MaxInt)
		if score > bestScore {
			best, bestScore = pos, score
		}
	}
	return best, true
}

// Score returns the minimax value of the position after mark plays pos, with
// pos counted against depth as in BestMove.
func Score(board game.Board, pos game.Position, mark game.PlayerMark, depth int) (int, error) {
	child, err := game.Apply(board, pos, mark)
	if err != nil {
		return 0, err
	}
	return minimax(child, depth-1, false, mark, math.MinInt, math.MaxInt), nil
}

// minimax scores board from maximizer's point of view. Wins found with more
// remaining depth score higher, so faster wins and slower losses are preferred.
func minimax(board game.Board, depth int, maximizing bool, maximizer game.PlayerMark, alpha, beta int) int {
	if winner, ok := game.Winner(board); ok {
		if winner == maximizer {
			return winScore + depth
		}
		return -(winScore + depth)
	}
	if depth == 0 || game.IsFull(board) {
		return 0
	}

	if maximizing {
		best := math.MinInt
		for _, pos := range game.LegalMoves(board) {
			child, _ := game.Apply(board, pos, maximizer)
			score := minimax(child, depth-1, false, maximizer, alpha, beta)
			best = max(best, score)
			alpha = max(alpha, score)
			if beta <= alpha {
				break
			}
		}
		return best
	}

	opponent := game.Opponent(maximizer)
	best := math.MaxInt
	for _, pos := range game.LegalMoves(board) {
		child, _ := game.Apply(board, pos, opponent)
		score := minimax(child, depth-1, true, maximizer, alpha, beta)
		best = min(best, score)
		beta = min(beta, score)
		if beta <= alpha {
			break
		}
	}
	return best
}
