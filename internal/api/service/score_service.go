package service

import (
	"context"

	"ctchen222/tictactoe/internal/score"
)

// ScoreService reads and clears a player's recorded games. *score.Manager implements it.
type ScoreService interface {
	Recent(ctx context.Context, playerID string) ([]score.Result, error)
	Scores(ctx context.Context, playerID string) (score.Scores, error)
	Statistics(ctx context.Context, playerID string) (score.Statistics, error)
	Clear(ctx context.Context, playerID string) error
}

var _ ScoreService = (*score.Manager)(nil)
