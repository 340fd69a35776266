package service

import (
	"context"
	"testing"

	"ctchen222/tictactoe/internal/api/models"
	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	x = game.PlayerX
	o = game.PlayerO
	e = game.None
)

func newEngineService() EngineService {
	return NewEngineService(bot.NewMoveCalculator(bot.NewEngine(nil)))
}

func TestEngineServiceMove(t *testing.T) {
	svc := newEngineService()
	ctx := context.Background()

	tests := []struct {
		name    string
		req     models.MoveRequest
		want    *game.Position
		wantErr error
	}{
		{
			name: "hard takes the win",
			req: models.MoveRequest{
				Board:      [][]game.PlayerMark{{x, x, e}, {o, o, e}, {e, e, e}},
				Mark:       x,
				Difficulty: "hard",
			},
			want: &game.Position{Row: 0, Col: 2},
		},
		{
			name: "hard blocks",
			req: models.MoveRequest{
				Board:      [][]game.PlayerMark{{o, o, e}, {x, e, e}, {x, e, e}},
				Mark:       x,
				Difficulty: "hard",
			},
			want: &game.Position{Row: 0, Col: 2},
		},
		{
			name: "full board",
			req: models.MoveRequest{
				Board: [][]game.PlayerMark{{x, o, x}, {x, o, o}, {o, x, x}},
				Mark:  o,
			},
		},
		{
			name: "finished game",
			req: models.MoveRequest{
				Board: [][]game.PlayerMark{{x, x, x}, {o, o, e}, {e, e, e}},
				Mark:  o,
			},
			wantErr: game.ErrGameOver,
		},
		{
			name: "bad board",
			req: models.MoveRequest{
				Board: [][]game.PlayerMark{{x, o}},
				Mark:  o,
			},
			wantErr: ErrInvalidBoard,
		},
		{
			name: "bad difficulty",
			req: models.MoveRequest{
				Board:      [][]game.PlayerMark{{e, e, e}, {e, e, e}, {e, e, e}},
				Mark:       o,
				Difficulty: "impossible",
			},
			wantErr: ErrInvalidDifficulty,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Move(ctx, &tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if got.Position == nil || tt.want == nil {
				if got.Position != tt.want {
					t.Errorf("Move() got = %v, want %v", got.Position, tt.want)
				}
				return
			}
			if *got.Position != *tt.want {
				t.Errorf("Move() got = %v, want %v", *got.Position, *tt.want)
			}
		})
	}
}

func TestEngineServiceMoveEasyIsLegal(t *testing.T) {
	svc := newEngineService()
	req := &models.MoveRequest{
		Board: [][]game.PlayerMark{{x, o, x}, {e, o, e}, {o, x, e}},
		Mark:  x,
	}
	legal := []game.Position{{Row: 1, Col: 0}, {Row: 1, Col: 2}, {Row: 2, Col: 2}}
	for range 20 {
		got, err := svc.Move(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, got.Position)
		assert.Contains(t, legal, *got.Position)
	}
}

func TestEngineServiceAnalyze(t *testing.T) {
	svc := newEngineService()
	ctx := context.Background()

	got, err := svc.Analyze(ctx, &models.AnalyzeRequest{
		Board: [][]game.PlayerMark{{x, x, e}, {o, o, e}, {e, e, e}},
		Mark:  o,
	})
	require.NoError(t, err)
	assert.False(t, got.IsOver)
	assert.Len(t, got.LegalMoves, 5)
	require.NotNil(t, got.WinningMove)
	assert.Equal(t, game.Position{Row: 1, Col: 2}, *got.WinningMove)
	require.NotNil(t, got.BlockingMove)
	assert.Equal(t, game.Position{Row: 0, Col: 2}, *got.BlockingMove)
	require.NotNil(t, got.BestMove)
	assert.Equal(t, game.Position{Row: 1, Col: 2}, *got.BestMove)
	assert.Equal(t, bot.PositionalScore(game.Board{{x, x, e}, {o, o, e}, {e, e, e}}, o), got.PositionalScore)

	got, err = svc.Analyze(ctx, &models.AnalyzeRequest{
		Board: [][]game.PlayerMark{{x, o, e}, {o, x, e}, {e, e, x}},
		Mark:  o,
	})
	require.NoError(t, err)
	assert.True(t, got.IsOver)
	assert.Equal(t, x, got.Winner)
	assert.Equal(t, []game.Position{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 2}}, got.WinningLine)
	assert.Nil(t, got.BestMove)

	_, err = svc.Analyze(ctx, &models.AnalyzeRequest{Board: nil, Mark: o})
	assert.ErrorIs(t, err, ErrInvalidBoard)
}
