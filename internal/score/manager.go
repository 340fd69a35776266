package score

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ctchen222/tictactoe/internal/game"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("score")

const (
	DefaultRetention   = 100
	DefaultRecentLimit = 50
)

var ErrInvalidResult = errors.New("invalid game result")

// Manager keeps a bounded score history per player.
type Manager struct {
	repo        Repository
	retention   int
	recentLimit int
	now         func() time.Time
}

// NewManager creates a Manager. Non-positive limits fall back to the defaults.
func NewManager(repo Repository, retention, recentLimit int) *Manager {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	return &Manager{
		repo:        repo,
		retention:   retention,
		recentLimit: recentLimit,
		now:         time.Now,
	}
}

// Save records a finished game and drops the player's results beyond the retention limit.
func (m *Manager) Save(ctx context.Context, r *Result) error {
	ctx, span := tracer.Start(ctx, "ScoreManager.Save")
	defer span.End()

	if r == nil || r.PlayerID == "" || (r.Mark != game.PlayerX && r.Mark != game.PlayerO) {
		span.SetStatus(codes.Error, ErrInvalidResult.Error())
		return ErrInvalidResult
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.PlayedAt.IsZero() {
		r.PlayedAt = m.now()
	}
	r.PlayedAt = r.PlayedAt.UTC()
	span.SetAttributes(attribute.String("player.id", r.PlayerID), attribute.String("game.outcome", string(r.Outcome)))

	if err := m.repo.Insert(ctx, r); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	if err := m.repo.Prune(ctx, r.PlayerID, m.retention); err != nil {
		// The result is stored; an oversized history is fixed by the next save.
		slog.WarnContext(ctx, "Failed to prune score history", "player.id", r.PlayerID, "error", err)
	}

	slog.InfoContext(ctx, "Game result saved", "player.id", r.PlayerID, "game.outcome", r.Outcome, "game.mode", r.Mode)
	return nil
}

// Recent returns the player's newest results, newest first.
func (m *Manager) Recent(ctx context.Context, playerID string) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "ScoreManager.Recent")
	defer span.End()

	results, err := m.repo.ListByPlayer(ctx, playerID, m.recentLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, fmt.Errorf("failed to load recent games for %s: %w", playerID, err)
	}
	return results, nil
}

// Scores tallies wins per mark and draws over the player's history.
func (m *Manager) Scores(ctx context.Context, playerID string) (Scores, error) {
	ctx, span := tracer.Start(ctx, "ScoreManager.Scores")
	defer span.End()

	results, err := m.repo.ListByPlayer(ctx, playerID, 0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return Scores{}, fmt.Errorf("failed to load scores for %s: %w", playerID, err)
	}

	var s Scores
	for _, r := range results {
		switch {
		case r.Outcome == OutcomeDraw:
			s.Draws++
		case r.Winner == game.PlayerX:
			s.XWins++
		case r.Winner == game.PlayerO:
			s.OWins++
		}
	}
	return s, nil
}

// Statistics summarizes the player's history. The win rate is the percentage of games
// won by the player's own mark.
func (m *Manager) Statistics(ctx context.Context, playerID string) (Statistics, error) {
	ctx, span := tracer.Start(ctx, "ScoreManager.Statistics")
	defer span.End()

	results, err := m.repo.ListByPlayer(ctx, playerID, 0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return Statistics{}, fmt.Errorf("failed to load statistics for %s: %w", playerID, err)
	}
	return summarize(results), nil
}

func summarize(results []Result) Statistics {
	stats := Statistics{
		ByMode:       map[game.GameMode]int{},
		ByDifficulty: map[string]int{},
	}

	totalMoves := 0
	for _, r := range results {
		stats.TotalGames++
		totalMoves += r.MoveCount
		stats.ByMode[r.Mode]++
		if r.Mode == game.SinglePlayer && r.Difficulty != "" {
			stats.ByDifficulty[r.Difficulty]++
		}
		switch r.Outcome {
		case OutcomeWin:
			stats.Wins++
		case OutcomeLoss:
			stats.Losses++
		case OutcomeDraw:
			stats.Draws++
		}
	}

	if stats.TotalGames > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalGames) * 100
		stats.AverageMoves = float64(totalMoves) / float64(stats.TotalGames)
	}
	return stats
}

// Clear deletes the player's whole history.
func (m *Manager) Clear(ctx context.Context, playerID string) error {
	ctx, span := tracer.Start(ctx, "ScoreManager.Clear")
	defer span.End()

	n, err := m.repo.DeleteByPlayer(ctx, playerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to clear scores for %s: %w", playerID, err)
	}
	slog.InfoContext(ctx, "Score history cleared", "player.id", playerID, "deleted", n)
	return nil
}
