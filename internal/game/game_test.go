package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playMoves(t *testing.T, g *Game, moves [][2]int) {
	t.Helper()
	for i, m := range moves {
		require.NoError(t, g.Move(m[0], m[1]), "move %d (%v)", i, m)
	}
}

func TestNewGameInitialState(t *testing.T) {
	g := NewGame(TwoPlayer, "", PlayerX)

	assert.Equal(t, PlayerX, g.CurrentTurn)
	assert.Equal(t, InProgress, g.Status())
	assert.Equal(t, 0, g.MoveCount())
	assert.True(t, g.Board.IsEmpty())
}

func TestGameMoveAlternatesTurns(t *testing.T) {
	g := NewGame(TwoPlayer, "", PlayerO)

	require.NoError(t, g.Move(1, 1))
	assert.Equal(t, PlayerO, g.Board[1][1])
	assert.Equal(t, PlayerX, g.CurrentTurn)
	assert.Len(t, g.History, 1)
}

func TestGameMoveErrors(t *testing.T) {
	g := NewGame(TwoPlayer, "", PlayerX)

	assert.ErrorIs(t, g.Move(3, 0), ErrInvalidPosition)
	require.NoError(t, g.Move(0, 0))
	assert.ErrorIs(t, g.Move(0, 0), ErrIllegalMove)
	assert.ErrorIs(t, g.MoveAs(PlayerX, 1, 1), ErrNotYourTurn)
}

func TestGameWin(t *testing.T) {
	g := NewGame(SinglePlayer, "hard", PlayerX)
	playMoves(t, g, [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}})

	assert.Equal(t, Won, g.Status())
	assert.Equal(t, PlayerX, g.Winner)
	assert.Equal(t, 5, g.MoveCount())

	line, ok := g.WinningLine()
	require.True(t, ok)
	assert.Equal(t, Lines[0], line)

	assert.ErrorIs(t, g.Move(2, 2), ErrGameOver)
}

func TestGameDraw(t *testing.T) {
	g := NewGame(TwoPlayer, "", PlayerX)
	playMoves(t, g, [][2]int{
		{0, 0}, {0, 1}, {0, 2},
		{1, 1}, {1, 0}, {1, 2},
		{2, 1}, {2, 0}, {2, 2},
	})

	assert.Equal(t, Draw, g.Status())
	assert.True(t, g.IsDraw())
	assert.Equal(t, None, g.Winner)
}

func TestGameReset(t *testing.T) {
	g := NewGame(SinglePlayer, "easy", PlayerO)
	playMoves(t, g, [][2]int{{0, 0}, {1, 1}})

	g.Reset()

	assert.True(t, g.Board.IsEmpty())
	assert.Equal(t, PlayerO, g.CurrentTurn)
	assert.Equal(t, 0, g.MoveCount())
	assert.Equal(t, SinglePlayer, g.Mode)
	assert.Equal(t, "easy", g.Difficulty)
}

func TestRestoreRoundTrip(t *testing.T) {
	g := NewGame(SinglePlayer, "medium", PlayerX)
	playMoves(t, g, [][2]int{{0, 0}, {2, 2}})

	state := g.State()
	state.PlayerXID = "x"
	state.PlayerOID = "o"

	restored := Restore(state)
	assert.Equal(t, g.Board, restored.Board)
	assert.Equal(t, PlayerX, restored.CurrentTurn)
	assert.Equal(t, 2, restored.MoveCount())
	assert.Equal(t, PlayerX, state.MarkOf("x"))
	assert.Equal(t, PlayerO, state.MarkOf("o"))
	assert.Equal(t, None, state.MarkOf("nobody"))

	require.NoError(t, restored.Move(1, 1))
	assert.Equal(t, 3, restored.MoveCount())
}
